package store

import (
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinic-records-server/internal/models"
)

// MySQL server error numbers the store maps to sentinels.
const (
	mysqlErrDuplicateEntry  = 1062
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// NewGorm builds a Store backed by a gorm database connection (MySQL in
// production). Atomic primitives use transactions with SELECT ... FOR
// UPDATE; under InnoDB the locked index range also blocks concurrent
// inserts for the same (doctor, slot) pair.
func NewGorm(db *gorm.DB) *Store {
	return &Store{
		Accounts:      &gormAccounts{db: db},
		Patients:      &gormPatients{db: db},
		Doctors:       &gormDoctors{db: db},
		Appointments:  &gormAppointments{db: db},
		HealthRecords: &gormHealthRecords{db: db},
		RefreshTokens: &gormRefreshTokens{db: db},
	}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	// Fallback for connections opened without TranslateError.
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry {
		return ErrDuplicate
	}
	return err
}

// isLockConflict reports a deadlock or lock-wait timeout. InnoDB picks
// a victim when two transactions race the same locked index range and
// aborts it with one of these errors.
func isLockConflict(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlErrDeadlock || myErr.Number == mysqlErrLockWaitTimeout
	}
	return false
}

type gormAccounts struct {
	db *gorm.DB
}

func (s *gormAccounts) Create(a *models.Account) error {
	if err := s.db.Create(a).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *gormAccounts) GetByID(id string) (*models.Account, error) {
	var a models.Account
	if err := s.db.First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *gormAccounts) GetByUsername(username string) (*models.Account, error) {
	var a models.Account
	if err := s.db.First(&a, "username = ?", username).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *gormAccounts) Update(a *models.Account) error {
	return translate(s.db.Save(a).Error)
}

func (s *gormAccounts) LinkPatient(accountID string, p *models.Patient) error {
	return s.link(accountID, p.ID, func(tx *gorm.DB) error {
		return tx.Create(p).Error
	})
}

func (s *gormAccounts) LinkDoctor(accountID string, d *models.Doctor) error {
	return s.link(accountID, d.ID, func(tx *gorm.DB) error {
		return tx.Create(d).Error
	})
}

// link runs the entity create and the account back-link in one
// transaction, guarded by a row lock on the account.
func (s *gormAccounts) link(accountID, entityID string, createEntity func(tx *gorm.DB) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var a models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&a, "id = ?", accountID).Error; err != nil {
			return translate(err)
		}
		if a.LinkedEntityID != nil {
			return ErrAlreadyLinked
		}
		if err := createEntity(tx); err != nil {
			return translate(err)
		}
		if err := tx.Model(&a).Update("linked_entity_id", entityID).Error; err != nil {
			return translate(err)
		}
		return nil
	})
}

type gormPatients struct {
	db *gorm.DB
}

func (s *gormPatients) Create(p *models.Patient) error {
	return translate(s.db.Create(p).Error)
}

func (s *gormPatients) Get(id string) (*models.Patient, error) {
	var p models.Patient
	if err := s.db.First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *gormPatients) List() ([]models.Patient, error) {
	var patients []models.Patient
	if err := s.db.Order("created_at asc").Find(&patients).Error; err != nil {
		return nil, translate(err)
	}
	return patients, nil
}

func (s *gormPatients) Update(p *models.Patient) error {
	return translate(s.db.Save(p).Error)
}

func (s *gormPatients) Delete(id string) error {
	res := s.db.Delete(&models.Patient{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormDoctors struct {
	db *gorm.DB
}

func (s *gormDoctors) Create(d *models.Doctor) error {
	return translate(s.db.Create(d).Error)
}

func (s *gormDoctors) Get(id string) (*models.Doctor, error) {
	var d models.Doctor
	if err := s.db.First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (s *gormDoctors) List() ([]models.Doctor, error) {
	var doctors []models.Doctor
	if err := s.db.Order("created_at asc").Find(&doctors).Error; err != nil {
		return nil, translate(err)
	}
	return doctors, nil
}

func (s *gormDoctors) Update(d *models.Doctor) error {
	return translate(s.db.Save(d).Error)
}

func (s *gormDoctors) Delete(id string) error {
	res := s.db.Delete(&models.Doctor{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormAppointments struct {
	db *gorm.DB
}

func (s *gormAppointments) Create(a *models.Appointment) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.Appointment{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("doctor_id = ? AND date_time = ? AND status IN ?",
				a.DoctorID, a.DateTime, models.ActiveStatuses()).
			Count(&count).Error
		if err != nil {
			return translate(err)
		}
		if count > 0 {
			return ErrSlotTaken
		}
		return translate(tx.Create(a).Error)
	})
	// Two transactions racing an empty (doctor, slot) range take
	// compatible gap locks and deadlock on the insert; InnoDB rolls the
	// loser back. The winner's insert committed, so for the loser the
	// slot is taken.
	if isLockConflict(err) {
		return ErrSlotTaken
	}
	return err
}

func (s *gormAppointments) Get(id string) (*models.Appointment, error) {
	var a models.Appointment
	if err := s.db.First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *gormAppointments) List(f AppointmentFilter) ([]models.Appointment, error) {
	query := s.db.Order("date_time asc")
	if f.PatientID != "" {
		query = query.Where("patient_id = ?", f.PatientID)
	}
	if f.DoctorID != "" {
		query = query.Where("doctor_id = ?", f.DoctorID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		return nil, translate(err)
	}
	return appointments, nil
}

func (s *gormAppointments) UpdateStatusFrom(id string, to models.AppointmentStatus, from ...models.AppointmentStatus) (*models.Appointment, error) {
	var a models.Appointment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&a, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		matched := false
		for _, st := range from {
			if a.Status == st {
				matched = true
				break
			}
		}
		if !matched {
			return ErrStateConflict
		}
		a.Status = to
		a.UpdatedAt = time.Now()
		return translate(tx.Save(&a).Error)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *gormAppointments) Delete(id string) error {
	res := s.db.Delete(&models.Appointment{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormHealthRecords struct {
	db *gorm.DB
}

func (s *gormHealthRecords) Create(r *models.HealthRecord) error {
	return translate(s.db.Create(r).Error)
}

func (s *gormHealthRecords) Get(id string) (*models.HealthRecord, error) {
	var r models.HealthRecord
	if err := s.db.First(&r, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *gormHealthRecords) ListByPatient(patientID string) ([]models.HealthRecord, error) {
	var records []models.HealthRecord
	if err := s.db.Where("patient_id = ?", patientID).
		Order("record_date asc").Find(&records).Error; err != nil {
		return nil, translate(err)
	}
	return records, nil
}

func (s *gormHealthRecords) ListByDoctor(doctorID string) ([]models.HealthRecord, error) {
	var records []models.HealthRecord
	if err := s.db.Where("doctor_id = ?", doctorID).
		Order("record_date asc").Find(&records).Error; err != nil {
		return nil, translate(err)
	}
	return records, nil
}

func (s *gormHealthRecords) Update(r *models.HealthRecord) error {
	return translate(s.db.Save(r).Error)
}

func (s *gormHealthRecords) Delete(id string) error {
	res := s.db.Delete(&models.HealthRecord{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormRefreshTokens struct {
	db *gorm.DB
}

func (s *gormRefreshTokens) Create(t *models.RefreshToken) error {
	return translate(s.db.Create(t).Error)
}

func (s *gormRefreshTokens) GetActive(token, accountID string) (*models.RefreshToken, error) {
	query := s.db.Where("token = ? AND is_revoked = ? AND expires_at > ?", token, false, time.Now())
	if accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}
	var t models.RefreshToken
	if err := query.First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *gormRefreshTokens) Revoke(t *models.RefreshToken) error {
	t.IsRevoked = true
	return translate(s.db.Save(t).Error)
}
