package database

import (
	"dcmtag2table/models"
	"github.com/go-pg/pg"
)

// StudyStore implements database operations for study management.
type StudyStore struct {
	db *pg.DB
}

// NewStudyStore returns a StudyStore implementation.
func NewStudyStore(db *pg.DB) *StudyStore {
	return &StudyStore{
		db: db,
	}
}

// FindBy returns the studies whose fields equal the given values.
func (s *StudyStore) FindBy(fields map[string]any, options *SelectQueryOptions, tx *pg.Tx) ([]*models.Study, error) {
	var result []*models.Study
	query, err := selectQuery(getOrm(s.db, tx), &result, &models.Study{}, "study", fields, options)
	if err != nil {
		return nil, err
	}
	err = query.Select()
	return result, err
}

// FindByUID gets a study by its StudyInstanceUID.
func (s *StudyStore) FindByUID(uid string, tx *pg.Tx) (*models.Study, error) {
	study := &models.Study{}
	err := getOrm(s.db, tx).Model(study).
		Where("study.study_instance_uid = ?", uid).
		Select()
	if err != nil {
		return nil, notFound(err)
	}
	return study, nil
}

// CountBy counts the studies whose fields equal the given values.
func (s *StudyStore) CountBy(fields map[string]any, tx *pg.Tx) (int, error) {
	query, err := selectQuery(getOrm(s.db, tx), &models.Study{}, &models.Study{}, "study", fields, nil)
	if err != nil {
		return 0, err
	}
	return query.Count()
}

// Update updates study.
func (s *StudyStore) Update(study *models.Study, tx *pg.Tx) error {
	_, err := getOrm(s.db, tx).Model(study).WherePK().Update()
	return err
}

// Create creates a new study.
func (s *StudyStore) Create(study *models.Study, tx *pg.Tx) error {
	_, err := getOrm(s.db, tx).Model(study).Insert()
	return err
}

// Save creates study or, when its StudyInstanceUID is known, updates the
// stored record.
func (s *StudyStore) Save(study *models.Study, tx *pg.Tx) error {
	existing, err := s.FindByUID(study.StudyInstanceUID, tx)
	switch {
	case err == ErrNotFound:
		return s.Create(study, tx)
	case err != nil:
		return err
	}
	study.ID = existing.ID
	study.CreatedAt = existing.CreatedAt
	return s.Update(study, tx)
}

// CountPatients counts the distinct patient IDs across studies.
func (s *StudyStore) CountPatients(tx *pg.Tx) (int, error) {
	var count int
	_, err := getOrm(s.db, tx).QueryOne(pg.Scan(&count), `SELECT count(DISTINCT patient_id) FROM study`)
	return count, err
}
