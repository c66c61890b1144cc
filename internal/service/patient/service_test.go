package patient

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelog/patient-api/internal/history"
	"github.com/carelog/patient-api/internal/model"
	"github.com/carelog/patient-api/internal/repository/repositorytest"
	apperrors "github.com/carelog/patient-api/pkg/errors"
	"github.com/carelog/patient-api/pkg/logger"
	"github.com/carelog/patient-api/pkg/security"
)

func newTestService(t *testing.T) (*Service, *repositorytest.PatientRepository) {
	t.Helper()
	repo := repositorytest.NewPatientRepository()
	svc := NewService(repo, security.NewBcryptHasher(4), nil, nil, logger.NewLogger(nil))
	return svc, repo
}

func register(t *testing.T, svc *Service, name, email string) int64 {
	t.Helper()
	id, err := svc.Register(context.Background(), &model.RegisterRequest{
		Name: name, Email: email, Password: "correct-horse",
	})
	require.NoError(t, err)
	return id
}

func TestRegisterAssignsIDAndEmptyHistory(t *testing.T) {
	svc, repo := newTestService(t)

	id := register(t, svc, "Asha", "asha@example.com")
	assert.Equal(t, int64(1), id)

	p, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "[]", p.History)
	assert.Nil(t, p.Weight)
	assert.Nil(t, p.Age)
	assert.NotEqual(t, "correct-horse", p.PasswordHash, "password must be stored hashed")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)

	first := register(t, svc, "Asha", "asha@example.com")

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Name: "Other", Email: "asha@example.com", Password: "another-pass",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))

	// first registration unaffected
	view, err := svc.GetProfileView(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, "Asha", view.Details.Name)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	id := register(t, svc, "Asha", "asha@example.com")

	p, err := svc.Authenticate(context.Background(), id, "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", p.Email)

	_, wrongPass := svc.Authenticate(context.Background(), id, "wrong")
	_, unknownID := svc.Authenticate(context.Background(), 999, "correct-horse")
	require.Error(t, wrongPass)
	require.Error(t, unknownID)

	// both failures must be indistinguishable
	wp, ok := apperrors.As(wrongPass)
	require.True(t, ok)
	ui, ok := apperrors.As(unknownID)
	require.True(t, ok)
	assert.Equal(t, wp.Code, ui.Code)
	assert.Equal(t, wp.Message, ui.Message)
}

func TestGetProfileViewUnknownID(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetProfileView(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestRecordVisitAppendsInOrder(t *testing.T) {
	svc, _ := newTestService(t)
	id := register(t, svc, "Jay", "jay@x.com")

	err := svc.RecordVisit(context.Background(), &model.RecordVisitRequest{
		UserID: id, Purpose: "checkup",
	})
	require.NoError(t, err)

	events, err := svc.VisitHistory(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventTypeVisit, events[0].Type)
	assert.Equal(t, "checkup", events[0].Purpose)
	assert.True(t, events[0].ValidDate())

	err = svc.RecordVisit(context.Background(), &model.RecordVisitRequest{
		UserID: id, Purpose: "follow-up", VisitDate: "2025-11-02T09:00:00Z",
	})
	require.NoError(t, err)

	events, err = svc.VisitHistory(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "checkup", events[0].Purpose)
	assert.Equal(t, "follow-up", events[1].Purpose)
	assert.Equal(t, "2025-11-02T09:00:00Z", events[1].Date)
}

func TestRecordVisitRejectsBadDate(t *testing.T) {
	svc, _ := newTestService(t)
	id := register(t, svc, "Jay", "jay@x.com")

	err := svc.RecordVisit(context.Background(), &model.RecordVisitRequest{
		UserID: id, Purpose: "checkup", VisitDate: "yesterday",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))
}

func TestRecordVisitUnknownPatient(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.RecordVisit(context.Background(), &model.RecordVisitRequest{
		UserID: 7, Purpose: "checkup",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestRecordPaymentUpdatesFlatsAndHistory(t *testing.T) {
	svc, repo := newTestService(t)
	id := register(t, svc, "Jay", "jay@x.com")

	err := svc.RecordPayment(context.Background(), &model.RecordPaymentRequest{
		UserID: id, Amount: 350, Method: "UPI",
	})
	require.NoError(t, err)

	p, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p.Amount)
	assert.Equal(t, 350.0, *p.Amount)
	require.NotNil(t, p.Method)
	assert.Equal(t, "UPI", *p.Method)
	require.NotNil(t, p.Date)

	events, err := history.Decode(p.History)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventTypePayment, events[0].Type)
	require.NotNil(t, events[0].Amount)
	assert.Equal(t, 350.0, *events[0].Amount)
	assert.Equal(t, *p.Date, events[0].Date)
}

func TestUpdateProfileWhitelist(t *testing.T) {
	svc, repo := newTestService(t)
	id := register(t, svc, "Jay", "jay@x.com")

	err := svc.RecordPayment(context.Background(), &model.RecordPaymentRequest{
		UserID: id, Amount: 100, Method: "cash",
	})
	require.NoError(t, err)

	before, err := repo.Get(context.Background(), id)
	require.NoError(t, err)

	name := "Jay P"
	weight := 70.5
	err = svc.UpdateProfile(context.Background(), id, &model.UpdatePatientDetails{
		Name: &name, Weight: &weight,
	})
	require.NoError(t, err)

	after, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Jay P", after.Name)
	require.NotNil(t, after.Weight)
	assert.Equal(t, 70.5, *after.Weight)

	// payment fields, history and credentials stay untouched
	assert.Equal(t, before.Amount, after.Amount)
	assert.Equal(t, before.History, after.History)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestUpdateProfileUnknownPatient(t *testing.T) {
	svc, _ := newTestService(t)
	name := "Nobody"
	err := svc.UpdateProfile(context.Background(), 99, &model.UpdatePatientDetails{Name: &name})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestUpdateProfileNoFields(t *testing.T) {
	svc, _ := newTestService(t)
	id := register(t, svc, "Jay", "jay@x.com")
	err := svc.UpdateProfile(context.Background(), id, &model.UpdatePatientDetails{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))
}

func TestProfileViewFiltersDatelessEvents(t *testing.T) {
	svc, repo := newTestService(t)
	id := register(t, svc, "Jay", "jay@x.com")

	raw, err := history.Encode([]model.Event{
		{Type: model.EventTypeVisit, Date: "2025-10-22T10:00:00Z", Purpose: "checkup"},
		{Type: model.EventTypeVisit, Purpose: "undated"},
	})
	require.NoError(t, err)
	_, err = repo.UpdateHistory(context.Background(), id, raw)
	require.NoError(t, err)

	view, err := svc.GetProfileView(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, view.History, 1)
	assert.Equal(t, "checkup", view.History[0].Purpose)
	assert.Zero(t, view.MentalHealthScore)

	// the filter is cosmetic: storage still holds both entries
	events, err := svc.VisitHistory(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestCorruptHistorySurfacesAsCorruptData(t *testing.T) {
	svc, repo := newTestService(t)
	id := register(t, svc, "Jay", "jay@x.com")

	_, err := repo.UpdateHistory(context.Background(), id, "{broken")
	require.NoError(t, err)

	_, err = svc.GetProfileView(context.Background(), id)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCorruptData))
}

func TestListPayments(t *testing.T) {
	svc, _ := newTestService(t)
	a := register(t, svc, "Asha", "asha@example.com")
	b := register(t, svc, "Binh", "binh@example.com")

	err := svc.RecordPayment(context.Background(), &model.RecordPaymentRequest{
		UserID: b, Amount: 200, Method: "card",
	})
	require.NoError(t, err)

	records, err := svc.ListPayments(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 2, "unfiltered listing covers every patient")
	assert.Equal(t, a, records[0].ID)
	assert.Nil(t, records[0].Amount)
	assert.Equal(t, b, records[1].ID)
	require.NotNil(t, records[1].Amount)
	assert.Equal(t, 200.0, *records[1].Amount)

	paged, err := svc.ListPayments(context.Background(), 2, 1)
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, b, paged[0].ID)

	empty, err := svc.ListPayments(context.Background(), 5, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListPaymentsPaginationBounds(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "Asha", "asha@example.com")

	// oversized values must fail validation, never panic
	_, err := svc.ListPayments(context.Background(), 4000000000, 4000000000)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	_, err = svc.ListPayments(context.Background(), -1, 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	_, err = svc.ListPayments(context.Background(), 1, -10)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrValidation))

	// a huge page with a sane page size is simply past the data
	records, err := svc.ListPayments(context.Background(), int(^uint(0)>>1), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestConcurrentAppendsLoseNothing(t *testing.T) {
	svc, _ := newTestService(t)
	id := register(t, svc, "Jay", "jay@x.com")

	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				errs[i] = svc.RecordVisit(context.Background(), &model.RecordVisitRequest{
					UserID: id, Purpose: fmt.Sprintf("visit-%d", i),
				})
				return
			}
			errs[i] = svc.RecordPayment(context.Background(), &model.RecordPaymentRequest{
				UserID: id, Amount: float64(i), Method: "card",
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "append %d", i)
	}

	events, err := svc.VisitHistory(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, events, n, "every concurrent append must survive")

	seen := make(map[string]bool, n)
	for _, e := range events {
		switch e.Type {
		case model.EventTypeVisit:
			seen[e.Purpose] = true
		case model.EventTypePayment:
			require.NotNil(t, e.Amount)
			seen[fmt.Sprintf("payment-%d", int(*e.Amount))] = true
		}
	}
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			assert.True(t, seen[fmt.Sprintf("visit-%d", i)], "missing visit %d", i)
		} else {
			assert.True(t, seen[fmt.Sprintf("payment-%d", i)], "missing payment %d", i)
		}
	}
}

func TestRegisterThenVisitScenario(t *testing.T) {
	svc, _ := newTestService(t)

	register(t, svc, "Asha", "asha@example.com") // id 1
	id := register(t, svc, "Jay", "jay@x.com")
	assert.Equal(t, int64(2), id)

	err := svc.RecordVisit(context.Background(), &model.RecordVisitRequest{
		UserID: id, Purpose: "checkup",
	})
	require.NoError(t, err)

	view, err := svc.GetProfileView(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, view.History, 1)
	assert.Equal(t, model.EventTypeVisit, view.History[0].Type)
	assert.Equal(t, "checkup", view.History[0].Purpose)
}
