// Package repositorytest provides an in-memory PatientRepository for tests.
// It mirrors the conflict and not-found semantics of the postgres
// implementation.
package repositorytest

import (
	"context"
	"sync"

	"github.com/carelog/patient-api/internal/model"
	"github.com/carelog/patient-api/internal/repository"
	apperrors "github.com/carelog/patient-api/pkg/errors"
)

type PatientRepository struct {
	mu       sync.Mutex
	nextID   int64
	patients map[int64]*model.Patient
	emails   map[string]int64
}

var _ repository.PatientRepository = (*PatientRepository)(nil)

func NewPatientRepository() *PatientRepository {
	return &PatientRepository{
		nextID:   1,
		patients: make(map[int64]*model.Patient),
		emails:   make(map[string]int64),
	}
}

func (r *PatientRepository) Create(ctx context.Context, p *model.Patient) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.emails[p.Email]; taken {
		return 0, apperrors.Conflict("this email address is already registered", nil)
	}

	cp := *p
	cp.ID = r.nextID
	r.nextID++
	r.patients[cp.ID] = &cp
	r.emails[cp.Email] = cp.ID
	p.ID = cp.ID
	return cp.ID, nil
}

func (r *PatientRepository) Get(ctx context.Context, id int64) (*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient", nil)
	}
	cp := *p
	return &cp, nil
}

func (r *PatientRepository) UpdateFields(ctx context.Context, id int64, u *model.PatientUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patients[id]
	if !ok {
		return false, nil
	}

	if u.Email != nil {
		if owner, taken := r.emails[*u.Email]; taken && owner != id {
			return false, apperrors.Conflict("this email address is already registered", nil)
		}
		delete(r.emails, p.Email)
		p.Email = *u.Email
		r.emails[p.Email] = id
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Weight != nil {
		p.Weight = u.Weight
	}
	if u.Gender != nil {
		p.Gender = u.Gender
	}
	if u.Height != nil {
		p.Height = u.Height
	}
	if u.Age != nil {
		p.Age = u.Age
	}
	if u.Amount != nil {
		p.Amount = u.Amount
	}
	if u.Date != nil {
		p.Date = u.Date
	}
	if u.Method != nil {
		p.Method = u.Method
	}
	if u.Purpose != nil {
		p.Purpose = u.Purpose
	}
	return true, nil
}

func (r *PatientRepository) UpdateHistory(ctx context.Context, id int64, raw string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patients[id]
	if !ok {
		return false, nil
	}
	p.History = raw
	return true, nil
}

func (r *PatientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.Patient, 0, len(r.patients))
	for id := int64(1); id < r.nextID; id++ {
		if p, ok := r.patients[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}
