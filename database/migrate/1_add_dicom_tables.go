package migrate

import (
	"github.com/go-pg/migrations"
)

const studyTable = `
CREATE TABLE study (
id serial NOT NULL,
created_at timestamp with time zone NOT NULL DEFAULT current_timestamp,
updated_at timestamp with time zone NOT NULL DEFAULT current_timestamp,

study_date varchar(8),
study_time varchar(16),
study_description varchar(64),
accession_number varchar(16),
patient_name varchar(255),
patient_id varchar(64),
patient_sex varchar(16),
patient_age varchar(4),
study_instance_uid varchar(64) NOT NULL UNIQUE,
study_id varchar(16),

PRIMARY KEY (id)
)`

const seriesTable = `
CREATE TABLE series (
id serial NOT NULL,
created_at timestamp with time zone NOT NULL DEFAULT current_timestamp,
updated_at timestamp with time zone NOT NULL DEFAULT current_timestamp,
study_id int NOT NULL REFERENCES study (id) ON DELETE CASCADE,

modality varchar(16),
series_instance_uid varchar(64) NOT NULL UNIQUE,
series_number varchar(12),
series_description varchar(64),
protocol_name varchar(64),
body_part_examined varchar(16),
manufacturer varchar(64),
station_name varchar(16),

PRIMARY KEY (id)
)`

const instanceTable = `
CREATE TABLE instance (
id serial NOT NULL,
created_at timestamp with time zone NOT NULL DEFAULT current_timestamp,
updated_at timestamp with time zone NOT NULL DEFAULT current_timestamp,
series_id int NOT NULL REFERENCES series (id) ON DELETE CASCADE,

sop_class_uid varchar(64),
sop_instance_uid varchar(64) NOT NULL UNIQUE,
instance_number varchar(12),

PRIMARY KEY (id)
)`

func init() {
	migrations.Register(
		run("create tables", studyTable, seriesTable, instanceTable),
		run("drop tables", `DROP TABLE instance`, `DROP TABLE series`, `DROP TABLE study`),
	)
}
