package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"clinic-records-server/internal/models"
)

// NewMemory builds a Store backed by in-process maps behind a single
// mutex, which makes every primitive trivially atomic. It serves as the
// test double for the gorm store and as a database-free dev mode.
func NewMemory() *Store {
	m := &memory{
		accounts:      make(map[string]models.Account),
		patients:      make(map[string]models.Patient),
		doctors:       make(map[string]models.Doctor),
		appointments:  make(map[string]models.Appointment),
		healthRecords: make(map[string]models.HealthRecord),
		refreshTokens: make(map[string]models.RefreshToken),
	}
	return &Store{
		Accounts:      (*memAccounts)(m),
		Patients:      (*memPatients)(m),
		Doctors:       (*memDoctors)(m),
		Appointments:  (*memAppointments)(m),
		HealthRecords: (*memHealthRecords)(m),
		RefreshTokens: (*memRefreshTokens)(m),
	}
}

type memory struct {
	mu            sync.Mutex
	accounts      map[string]models.Account
	patients      map[string]models.Patient
	doctors       map[string]models.Doctor
	appointments  map[string]models.Appointment
	healthRecords map[string]models.HealthRecord
	refreshTokens map[string]models.RefreshToken
}

func stamp(base *models.BaseModel) {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	now := time.Now()
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

type memAccounts memory

func (s *memAccounts) Create(a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Username == a.Username {
			return ErrDuplicate
		}
		if a.LinkedEntityID != nil && existing.LinkedEntityID != nil &&
			*existing.LinkedEntityID == *a.LinkedEntityID {
			return ErrDuplicate
		}
	}
	stamp(&a.BaseModel)
	s.accounts[a.ID] = *a
	return nil
}

func (s *memAccounts) GetByID(id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *memAccounts) GetByUsername(username string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Username == username {
			account := a
			return &account, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memAccounts) Update(a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return ErrNotFound
	}
	a.UpdatedAt = time.Now()
	s.accounts[a.ID] = *a
	return nil
}

func (s *memAccounts) LinkPatient(accountID string, p *models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	if a.LinkedEntityID != nil {
		return ErrAlreadyLinked
	}
	stamp(&p.BaseModel)
	s.patients[p.ID] = *p
	entityID := p.ID
	a.LinkedEntityID = &entityID
	a.UpdatedAt = time.Now()
	s.accounts[accountID] = a
	return nil
}

func (s *memAccounts) LinkDoctor(accountID string, d *models.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	if a.LinkedEntityID != nil {
		return ErrAlreadyLinked
	}
	stamp(&d.BaseModel)
	s.doctors[d.ID] = *d
	entityID := d.ID
	a.LinkedEntityID = &entityID
	a.UpdatedAt = time.Now()
	s.accounts[accountID] = a
	return nil
}

type memPatients memory

func (s *memPatients) Create(p *models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&p.BaseModel)
	s.patients[p.ID] = *p
	return nil
}

func (s *memPatients) Get(id string) (*models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *memPatients) List() ([]models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	patients := make([]models.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		patients = append(patients, p)
	}
	sort.Slice(patients, func(i, j int) bool {
		return patients[i].CreatedAt.Before(patients[j].CreatedAt)
	})
	return patients, nil
}

func (s *memPatients) Update(p *models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now()
	s.patients[p.ID] = *p
	return nil
}

func (s *memPatients) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[id]; !ok {
		return ErrNotFound
	}
	delete(s.patients, id)
	return nil
}

type memDoctors memory

func (s *memDoctors) Create(d *models.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&d.BaseModel)
	s.doctors[d.ID] = *d
	return nil
}

func (s *memDoctors) Get(id string) (*models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.doctors[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (s *memDoctors) List() ([]models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doctors := make([]models.Doctor, 0, len(s.doctors))
	for _, d := range s.doctors {
		doctors = append(doctors, d)
	}
	sort.Slice(doctors, func(i, j int) bool {
		return doctors[i].CreatedAt.Before(doctors[j].CreatedAt)
	})
	return doctors, nil
}

func (s *memDoctors) Update(d *models.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doctors[d.ID]; !ok {
		return ErrNotFound
	}
	d.UpdatedAt = time.Now()
	s.doctors[d.ID] = *d
	return nil
}

func (s *memDoctors) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doctors[id]; !ok {
		return ErrNotFound
	}
	delete(s.doctors, id)
	return nil
}

type memAppointments memory

func (s *memAppointments) Create(a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.appointments {
		if existing.DoctorID == a.DoctorID &&
			existing.DateTime.Equal(a.DateTime) &&
			existing.Status.IsActive() {
			return ErrSlotTaken
		}
	}
	stamp(&a.BaseModel)
	s.appointments[a.ID] = *a
	return nil
}

func (s *memAppointments) Get(id string) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *memAppointments) List(f AppointmentFilter) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appointments := make([]models.Appointment, 0)
	for _, a := range s.appointments {
		if f.PatientID != "" && a.PatientID != f.PatientID {
			continue
		}
		if f.DoctorID != "" && a.DoctorID != f.DoctorID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		appointments = append(appointments, a)
	}
	sort.Slice(appointments, func(i, j int) bool {
		return appointments[i].DateTime.Before(appointments[j].DateTime)
	})
	return appointments, nil
}

func (s *memAppointments) UpdateStatusFrom(id string, to models.AppointmentStatus, from ...models.AppointmentStatus) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	matched := false
	for _, st := range from {
		if a.Status == st {
			matched = true
			break
		}
	}
	if !matched {
		return nil, ErrStateConflict
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	s.appointments[id] = a
	return &a, nil
}

func (s *memAppointments) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(s.appointments, id)
	return nil
}

type memHealthRecords memory

func (s *memHealthRecords) Create(r *models.HealthRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&r.BaseModel)
	s.healthRecords[r.ID] = *r
	return nil
}

func (s *memHealthRecords) Get(id string) (*models.HealthRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.healthRecords[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *memHealthRecords) ListByPatient(patientID string) ([]models.HealthRecord, error) {
	return s.list(func(r models.HealthRecord) bool { return r.PatientID == patientID })
}

func (s *memHealthRecords) ListByDoctor(doctorID string) ([]models.HealthRecord, error) {
	return s.list(func(r models.HealthRecord) bool { return r.DoctorID == doctorID })
}

func (s *memHealthRecords) list(match func(models.HealthRecord) bool) ([]models.HealthRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]models.HealthRecord, 0)
	for _, r := range s.healthRecords {
		if match(r) {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].RecordDate.Before(records[j].RecordDate)
	})
	return records, nil
}

func (s *memHealthRecords) Update(r *models.HealthRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.healthRecords[r.ID]; !ok {
		return ErrNotFound
	}
	r.UpdatedAt = time.Now()
	s.healthRecords[r.ID] = *r
	return nil
}

func (s *memHealthRecords) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.healthRecords[id]; !ok {
		return ErrNotFound
	}
	delete(s.healthRecords, id)
	return nil
}

type memRefreshTokens memory

func (s *memRefreshTokens) Create(t *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&t.BaseModel)
	s.refreshTokens[t.ID] = *t
	return nil
}

func (s *memRefreshTokens) GetActive(token, accountID string) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.refreshTokens {
		if t.Token != token || t.IsRevoked || !t.ExpiresAt.After(time.Now()) {
			continue
		}
		if accountID != "" && t.AccountID != accountID {
			continue
		}
		found := t
		return &found, nil
	}
	return nil, ErrNotFound
}

func (s *memRefreshTokens) Revoke(t *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.refreshTokens[t.ID]
	if !ok {
		return ErrNotFound
	}
	stored.IsRevoked = true
	stored.UpdatedAt = time.Now()
	s.refreshTokens[t.ID] = stored
	t.IsRevoked = true
	return nil
}
