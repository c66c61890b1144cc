package repository

import (
	"context"

	"github.com/carelog/patient-api/internal/model"
)

// PatientRepository is the durable store of patient rows, keyed by id with a
// unique secondary lookup on email.
type PatientRepository interface {
	// Create inserts a new row and assigns its id. A duplicate email is a
	// conflict error, not a fault.
	Create(ctx context.Context, patient *model.Patient) (int64, error)

	// Get returns the patient or a not-found error.
	Get(ctx context.Context, id int64) (*model.Patient, error)

	// UpdateFields updates only the supplied flat columns and reports whether
	// a row matched. It never touches the history column.
	UpdateFields(ctx context.Context, id int64, update *model.PatientUpdate) (bool, error)

	// UpdateHistory overwrites the serialized history column in a single
	// statement (last writer wins) and reports whether a row matched.
	UpdateHistory(ctx context.Context, id int64, rawHistory string) (bool, error)

	// List returns every patient row, used by the payment listing.
	List(ctx context.Context) ([]*model.Patient, error)
}
