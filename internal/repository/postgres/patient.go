package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/carelog/patient-api/internal/model"
	"github.com/carelog/patient-api/internal/repository"
	apperrors "github.com/carelog/patient-api/pkg/errors"
)

const uniqueViolation = pq.ErrorCode("23505")

type patientRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) (int64, error) {
	query := `
		INSERT INTO patients (name, email, password_hash, history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()
	if patient.History == "" {
		patient.History = "[]"
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		patient.Name,
		patient.Email,
		patient.PasswordHash,
		patient.History,
		patient.CreatedAt,
		patient.UpdatedAt,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return 0, apperrors.Conflict("this email address is already registered", err)
		}
		return 0, fmt.Errorf("failed to create patient: %w", err)
	}

	patient.ID = id
	return id, nil
}

func (r *patientRepository) Get(ctx context.Context, id int64) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE id = $1`

	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) UpdateFields(ctx context.Context, id int64, update *model.PatientUpdate) (bool, error) {
	if update == nil || update.IsEmpty() {
		return false, apperrors.Validation("no fields to update", nil)
	}

	set := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}

	if update.Name != nil {
		add("name", *update.Name)
	}
	if update.Email != nil {
		add("email", *update.Email)
	}
	if update.Weight != nil {
		add("weight", *update.Weight)
	}
	if update.Gender != nil {
		add("gender", *update.Gender)
	}
	if update.Height != nil {
		add("height", *update.Height)
	}
	if update.Age != nil {
		add("age", *update.Age)
	}
	if update.Amount != nil {
		add("amount", *update.Amount)
	}
	if update.Date != nil {
		add("date", *update.Date)
	}
	if update.Method != nil {
		add("method", *update.Method)
	}
	if update.Purpose != nil {
		add("purpose", *update.Purpose)
	}
	add("updated_at", time.Now())

	query := fmt.Sprintf("UPDATE patients SET %s WHERE id = $%d",
		strings.Join(set, ", "), len(args)+1)
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return false, apperrors.Conflict("this email address is already registered", err)
		}
		return false, fmt.Errorf("failed to update patient: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *patientRepository) UpdateHistory(ctx context.Context, id int64, rawHistory string) (bool, error) {
	query := `UPDATE patients SET history = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, rawHistory, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to update patient history: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	query := `SELECT * FROM patients ORDER BY id`

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
