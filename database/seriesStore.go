package database

import (
	"dcmtag2table/models"
	"github.com/go-pg/pg"
)

// SeriesStore implements database operations for series management.
type SeriesStore struct {
	db *pg.DB
}

// NewSeriesStore returns a SeriesStore implementation.
func NewSeriesStore(db *pg.DB) *SeriesStore {
	return &SeriesStore{
		db: db,
	}
}

// FindBy returns the series whose fields equal the given values, with their
// study.
func (store *SeriesStore) FindBy(fields map[string]any, options *SelectQueryOptions, tx *pg.Tx) ([]*models.Series, error) {
	var result []*models.Series
	query, err := selectQuery(getOrm(store.db, tx), &result, &models.Series{}, "series", fields, options)
	if err != nil {
		return nil, err
	}
	err = query.Relation("Study").Select()
	return result, err
}

// FindByUID gets a series by its SeriesInstanceUID.
func (store *SeriesStore) FindByUID(uid string, tx *pg.Tx) (*models.Series, error) {
	series := &models.Series{}
	err := getOrm(store.db, tx).Model(series).
		Relation("Study").
		Where("series.series_instance_uid = ?", uid).
		Select()
	if err != nil {
		return nil, notFound(err)
	}
	return series, nil
}

// CountBy counts the series whose fields equal the given values.
func (store *SeriesStore) CountBy(fields map[string]any, tx *pg.Tx) (int, error) {
	query, err := selectQuery(getOrm(store.db, tx), &models.Series{}, &models.Series{}, "series", fields, nil)
	if err != nil {
		return 0, err
	}
	return query.Count()
}

// Update updates series.
func (store *SeriesStore) Update(series *models.Series, tx *pg.Tx) error {
	_, err := getOrm(store.db, tx).Model(series).WherePK().Update()
	return err
}

// Create creates a new series.
func (store *SeriesStore) Create(series *models.Series, tx *pg.Tx) error {
	_, err := getOrm(store.db, tx).Model(series).Insert()
	return err
}

// Save creates series or updates the record stored under its
// SeriesInstanceUID.
func (store *SeriesStore) Save(series *models.Series, tx *pg.Tx) error {
	existing, err := store.FindByUID(series.SeriesInstanceUID, tx)
	switch {
	case err == ErrNotFound:
		return store.Create(series, tx)
	case err != nil:
		return err
	}
	series.ID = existing.ID
	series.CreatedAt = existing.CreatedAt
	return store.Update(series, tx)
}
