package migrate

import (
	"github.com/go-pg/migrations"
)

const addTagsColumns = `
ALTER TABLE instance
ADD COLUMN file_path text NOT NULL DEFAULT '',
ADD COLUMN tags jsonb NOT NULL DEFAULT '{}'::jsonb;
`

const addTagsIndex = `
CREATE INDEX instance_tags_idx ON instance USING gin (tags);
`

func init() {
	migrations.Register(
		run("add instance tags", addTagsColumns, addTagsIndex),
		run("drop instance tags", `DROP INDEX instance_tags_idx`, `ALTER TABLE instance DROP COLUMN tags, DROP COLUMN file_path`),
	)
}
