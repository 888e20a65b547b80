package database

import (
	"dcmtag2table/models"
	"github.com/go-pg/pg"
)

// InstanceStore implements database operations for instance management.
type InstanceStore struct {
	db *pg.DB
}

// NewInstanceStore returns a InstanceStore implementation.
func NewInstanceStore(db *pg.DB) *InstanceStore {
	return &InstanceStore{
		db: db,
	}
}

// FindBy returns the instances whose fields equal the given values.
func (store *InstanceStore) FindBy(fields map[string]any, options *SelectQueryOptions, tx *pg.Tx) ([]*models.Instance, error) {
	var result []*models.Instance
	query, err := selectQuery(getOrm(store.db, tx), &result, &models.Instance{}, "instance", fields, options)
	if err != nil {
		return nil, err
	}
	err = query.Select()
	return result, err
}

// FindByUID gets an instance, tags included, by its SOPInstanceUID.
func (store *InstanceStore) FindByUID(uid string, tx *pg.Tx) (*models.Instance, error) {
	instance := &models.Instance{}
	err := getOrm(store.db, tx).Model(instance).
		Where("instance.sop_instance_uid = ?", uid).
		Select()
	if err != nil {
		return nil, notFound(err)
	}
	return instance, nil
}

// CountBy counts the instances whose fields equal the given values.
func (store *InstanceStore) CountBy(fields map[string]any, tx *pg.Tx) (int, error) {
	query, err := selectQuery(getOrm(store.db, tx), &models.Instance{}, &models.Instance{}, "instance", fields, nil)
	if err != nil {
		return 0, err
	}
	return query.Count()
}

// Update updates instance.
func (store *InstanceStore) Update(instance *models.Instance, tx *pg.Tx) error {
	_, err := getOrm(store.db, tx).Model(instance).WherePK().Update()
	return err
}

// Create creates a new instance.
func (store *InstanceStore) Create(instance *models.Instance, tx *pg.Tx) error {
	_, err := getOrm(store.db, tx).Model(instance).Insert()
	return err
}

// Save creates instance or updates the record stored under its
// SOPInstanceUID.
func (store *InstanceStore) Save(instance *models.Instance, tx *pg.Tx) error {
	existing, err := store.FindByUID(instance.SOPInstanceUID, tx)
	switch {
	case err == ErrNotFound:
		return store.Create(instance, tx)
	case err != nil:
		return err
	}
	instance.ID = existing.ID
	instance.CreatedAt = existing.CreatedAt
	return store.Update(instance, tx)
}
