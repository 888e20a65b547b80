package database

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-pg/pg"

	"dcmtag2table/dicom"
	"dcmtag2table/fs"
	"dcmtag2table/models"
	"dcmtag2table/utils"
)

// Catalog records loaded DICOM files as study, series and instance rows.
type Catalog struct {
	db        *pg.DB
	Studies   *StudyStore
	Series    *SeriesStore
	Instances *InstanceStore

	// StoreDir, when set, receives a copy of every imported file laid out
	// by fs.GetDicomPath. The stored copy becomes the instance file path.
	StoreDir string
}

// NewCatalog returns a Catalog on db.
func NewCatalog(db *pg.DB) *Catalog {
	return &Catalog{
		db:        db,
		Studies:   NewStudyStore(db),
		Series:    NewSeriesStore(db),
		Instances: NewInstanceStore(db),
	}
}

// Import stores obj in one transaction. Records already known by UID are
// updated with the values of obj.
func (c *Catalog) Import(obj *dicom.Object) (*models.Instance, error) {
	study, series, instance, err := Records(obj)
	if err != nil {
		return nil, err
	}
	if c.StoreDir != "" {
		instance.FilePath = fs.GetDicomPath(c.StoreDir, study, series, instance)
	}

	err = c.db.RunInTransaction(func(tx *pg.Tx) error {
		if err := c.Studies.Save(study, tx); err != nil {
			return fmt.Errorf("save study: %w", err)
		}
		series.StudyId = study.ID
		if err := c.Series.Save(series, tx); err != nil {
			return fmt.Errorf("save series: %w", err)
		}
		instance.SeriesId = series.ID
		if err := c.Instances.Save(instance, tx); err != nil {
			return fmt.Errorf("save instance: %w", err)
		}
		if c.StoreDir == "" {
			return nil
		}
		data, err := os.ReadFile(obj.Path())
		if err != nil {
			return err
		}
		return fs.Save(instance.FilePath, data)
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

// Records builds the catalog rows describing obj, linked through their
// Study and Series fields. IDs are left for the stores to assign.
func Records(obj *dicom.Object) (*models.Study, *models.Series, *models.Instance, error) {
	study := &models.Study{}
	if err := utils.ExtractDicomObject(obj, study); err != nil {
		return nil, nil, nil, err
	}
	series := &models.Series{Study: study}
	if err := utils.ExtractDicomObject(obj, series); err != nil {
		return nil, nil, nil, err
	}
	instance := &models.Instance{Series: series, FilePath: obj.Path()}
	if err := utils.ExtractDicomObject(obj, instance); err != nil {
		return nil, nil, nil, err
	}

	tags, err := json.Marshal(obj)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode tags: %w", err)
	}
	instance.Tags = string(tags)
	return study, series, instance, nil
}
