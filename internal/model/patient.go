package model

import "time"

// Patient is one row of the patient store. Flat profile and last-payment
// fields live in their own columns; the full visit/payment history is kept
// serialized in the history column and decoded on demand.
type Patient struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Gender       *string   `db:"gender" json:"gender"`
	Weight       *float64  `db:"weight" json:"weight"`
	Height       *float64  `db:"height" json:"height"`
	Amount       *float64  `db:"amount" json:"amount"`
	Age          *int      `db:"age" json:"age"`
	Date         *string   `db:"date" json:"date"`
	Method       *string   `db:"method" json:"method"`
	Purpose      *string   `db:"purpose" json:"purpose"`
	History      string    `db:"history" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PatientUpdate carries the flat columns a partial update may touch. Nil
// fields are left alone. Password and history are deliberately absent.
type PatientUpdate struct {
	Name    *string
	Email   *string
	Weight  *float64
	Gender  *string
	Height  *float64
	Age     *int
	Amount  *float64
	Date    *string
	Method  *string
	Purpose *string
}

// IsEmpty reports whether the update would touch no columns.
func (u *PatientUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Weight == nil &&
		u.Gender == nil && u.Height == nil && u.Age == nil &&
		u.Amount == nil && u.Date == nil && u.Method == nil && u.Purpose == nil
}

// PatientDetails is the flat projection returned inside a profile view.
type PatientDetails struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Weight *float64 `json:"weight"`
	Gender *string  `json:"gender"`
	Height *float64 `json:"height"`
	Age    *int     `json:"age"`
}

// ProfileView combines flat details with the decoded history. The
// MentalHealthScore is an explicit placeholder, always zero until scoring
// is defined.
type ProfileView struct {
	Details           PatientDetails `json:"details"`
	History           []Event        `json:"history"`
	MentalHealthScore float64        `json:"mentalHealthScore"`
}

// PaymentRecord is the per-patient projection returned by the payment listing.
type PaymentRecord struct {
	ID     int64    `db:"id" json:"id"`
	Name   string   `db:"name" json:"name"`
	Amount *float64 `db:"amount" json:"amount"`
	Date   *string  `db:"date" json:"date"`
	Method *string  `db:"method" json:"method"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	ID       int64  `json:"id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdatePatientRequest mirrors the profile editor payload: the details
// object wraps the editable flat fields.
type UpdatePatientRequest struct {
	Details UpdatePatientDetails `json:"details" binding:"required"`
}

type UpdatePatientDetails struct {
	Name   *string  `json:"name"`
	Email  *string  `json:"email" binding:"omitempty,email"`
	Weight *float64 `json:"weight"`
	Gender *string  `json:"gender"`
	Height *float64 `json:"height"`
	Age    *int     `json:"age"`
}

type RecordVisitRequest struct {
	UserID            int64    `json:"user_id" binding:"required"`
	VisitDate         string   `json:"visit_date" binding:"omitempty,iso8601"`
	Purpose           string   `json:"purpose" binding:"required"`
	MentalHealthScore *float64 `json:"mentalHealthScore"`
	Prescription      string   `json:"prescription"`
}

type RecordPaymentRequest struct {
	UserID int64   `json:"user_id" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Method string  `json:"method" binding:"required"`
}
