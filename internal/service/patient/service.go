package patient

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/carelog/patient-api/internal/email"
	"github.com/carelog/patient-api/internal/history"
	"github.com/carelog/patient-api/internal/model"
	"github.com/carelog/patient-api/internal/repository"
	apperrors "github.com/carelog/patient-api/pkg/errors"
	"github.com/carelog/patient-api/pkg/logger"
	"github.com/carelog/patient-api/pkg/messaging"
)

const (
	eventsChannel = "patients.events"

	profileViewTTL = 30 * time.Second

	// maxPageSize bounds the opt-in pagination of the payment listing.
	maxPageSize = 500
)

// idLocks hands out one mutex per patient id so concurrent history
// appends to the same row cannot clobber each other within this process.
// The map grows with the set of patient ids ever written and is never
// evicted; patients are never deleted, so it is bounded by the table size.
type idLocks struct {
	m sync.Map
}

func (l *idLocks) lock(id int64) *sync.Mutex {
	v, _ := l.m.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu
}

// patientEvent is the payload published to the broker after a successful write.
type patientEvent struct {
	Type      string    `json:"type"`
	PatientID int64     `json:"patient_id"`
	At        time.Time `json:"at"`
}

// Hasher is the credential hasher the service depends on; satisfied by
// pkg/security's bcrypt hasher.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

type Service struct {
	repo     repository.PatientRepository
	hasher   Hasher
	broker   messaging.Broker
	emailSvc email.Service
	logger   *logger.Logger
	views    *gocache.Cache
	locks    idLocks
}

func NewService(repo repository.PatientRepository, hasher Hasher, broker messaging.Broker,
	emailSvc email.Service, log *logger.Logger) *Service {
	if broker == nil {
		broker = messaging.NewNoopBroker()
	}
	if emailSvc == nil {
		emailSvc = email.NewNoopService()
	}
	return &Service{
		repo:     repo,
		hasher:   hasher,
		broker:   broker,
		emailSvc: emailSvc,
		logger:   log,
		views:    gocache.New(profileViewTTL, time.Minute),
	}
}

// Register creates a new patient with an empty history. Numeric profile
// fields start unset; a duplicate email is a conflict reported to the
// caller, not a server fault.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (int64, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return 0, apperrors.Validation("password does not meet requirements", err)
	}

	patient := &model.Patient{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		History:      "[]",
	}

	id, err := s.repo.Create(ctx, patient)
	if err != nil {
		return 0, err
	}

	// Best effort: a failed welcome mail never fails the registration.
	if err := s.emailSvc.SendWelcome(ctx, req.Email, req.Name, id); err != nil {
		s.logger.Error(err, "failed to send welcome email")
	}

	s.publish(ctx, "patient.registered", id)
	return id, nil
}

// Authenticate checks the credential for an id. An unknown id and a wrong
// password are deliberately the same error.
func (s *Service) Authenticate(ctx context.Context, id int64, password string) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	if err := s.hasher.Compare(patient.PasswordHash, password); err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	return patient, nil
}

// GetProfileView returns flat details plus the decoded history filtered to
// dated entries. The filter is a view concern only; stored history keeps
// every entry. MentalHealthScore is a placeholder, always zero.
func (s *Service) GetProfileView(ctx context.Context, id int64) (*model.ProfileView, error) {
	key := strconv.FormatInt(id, 10)
	if cached, ok := s.views.Get(key); ok {
		return cached.(*model.ProfileView), nil
	}

	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	events, err := history.Decode(patient.History)
	if err != nil {
		return nil, err
	}

	dated := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.HasDate() {
			dated = append(dated, e)
		}
	}

	view := &model.ProfileView{
		Details: model.PatientDetails{
			ID:     patient.ID,
			Name:   patient.Name,
			Email:  patient.Email,
			Weight: patient.Weight,
			Gender: patient.Gender,
			Height: patient.Height,
			Age:    patient.Age,
		},
		History:           dated,
		MentalHealthScore: 0,
	}

	s.views.SetDefault(key, view)
	return view, nil
}

// VisitHistory returns the full decoded history for an id.
func (s *Service) VisitHistory(ctx context.Context, id int64) ([]model.Event, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return history.Decode(patient.History)
}

// RecordVisit appends a visit event to the patient's history. The provided
// date is used when present, otherwise the current time. The append is a
// read-modify-write of the whole blob, serialized per id.
func (s *Service) RecordVisit(ctx context.Context, req *model.RecordVisitRequest) error {
	if req.VisitDate != "" {
		if _, err := time.Parse(time.RFC3339, req.VisitDate); err != nil {
			return apperrors.Validation("visit_date must be an ISO-8601 timestamp", err)
		}
	}

	event := model.NewVisitEvent(req.VisitDate, req.Purpose, req.MentalHealthScore, req.Prescription)

	if err := s.appendEvent(ctx, req.UserID, event); err != nil {
		return err
	}

	s.publish(ctx, "patient.visit_recorded", req.UserID)
	return nil
}

// RecordPayment updates the flat payment fields and appends a payment event
// to the history, so the listing and the per-patient history agree.
func (s *Service) RecordPayment(ctx context.Context, req *model.RecordPaymentRequest) error {
	mu := s.locks.lock(req.UserID)
	defer mu.Unlock()

	event := model.NewPaymentEvent(req.Amount, req.Method)

	update := &model.PatientUpdate{
		Amount: &req.Amount,
		Date:   &event.Date,
		Method: &req.Method,
	}
	changed, err := s.repo.UpdateFields(ctx, req.UserID, update)
	if err != nil {
		return err
	}
	if !changed {
		return apperrors.NotFound("patient", nil)
	}

	if err := s.appendEventLocked(ctx, req.UserID, event); err != nil {
		return err
	}

	s.publish(ctx, "patient.payment_recorded", req.UserID)
	return nil
}

// UpdateProfile whitelist-updates the editable flat fields. Password,
// history and payment fields are never touched here.
func (s *Service) UpdateProfile(ctx context.Context, id int64, details *model.UpdatePatientDetails) error {
	update := &model.PatientUpdate{
		Name:   details.Name,
		Email:  details.Email,
		Weight: details.Weight,
		Gender: details.Gender,
		Height: details.Height,
		Age:    details.Age,
	}
	if update.IsEmpty() {
		return apperrors.Validation("no fields to update", nil)
	}

	changed, err := s.repo.UpdateFields(ctx, id, update)
	if err != nil {
		return err
	}
	if !changed {
		return apperrors.NotFound("patient", nil)
	}

	s.views.Delete(strconv.FormatInt(id, 10))
	s.publish(ctx, "patient.updated", id)
	return nil
}

// ListPayments projects payment fields across all patients. The default is
// the full, unfiltered table; pagination only kicks in when pageSize > 0.
func (s *Service) ListPayments(ctx context.Context, page, pageSize int) ([]model.PaymentRecord, error) {
	if page < 0 || pageSize < 0 || pageSize > maxPageSize {
		return nil, apperrors.Validation("invalid pagination parameters", nil)
	}

	patients, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]model.PaymentRecord, 0, len(patients))
	for _, p := range patients {
		records = append(records, model.PaymentRecord{
			ID:     p.ID,
			Name:   p.Name,
			Amount: p.Amount,
			Date:   p.Date,
			Method: p.Method,
		})
	}

	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		// Pages past the data are empty. Checking with a division keeps the
		// start index from overflowing on oversized page values.
		if page-1 > len(records)/pageSize {
			return []model.PaymentRecord{}, nil
		}
		start := (page - 1) * pageSize
		if start >= len(records) {
			return []model.PaymentRecord{}, nil
		}
		end := start + pageSize
		if end > len(records) {
			end = len(records)
		}
		records = records[start:end]
	}

	return records, nil
}

func (s *Service) appendEvent(ctx context.Context, id int64, event model.Event) error {
	mu := s.locks.lock(id)
	defer mu.Unlock()
	return s.appendEventLocked(ctx, id, event)
}

func (s *Service) appendEventLocked(ctx context.Context, id int64, event model.Event) error {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	raw, err := history.Append(patient.History, event)
	if err != nil {
		return err
	}

	changed, err := s.repo.UpdateHistory(ctx, id, raw)
	if err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if !changed {
		return apperrors.NotFound("patient", nil)
	}

	s.views.Delete(strconv.FormatInt(id, 10))
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, id int64) {
	evt := patientEvent{Type: eventType, PatientID: id, At: time.Now().UTC()}
	if err := s.broker.Publish(ctx, eventsChannel, evt); err != nil {
		s.logger.Error(err, "failed to publish patient event")
	}
}
