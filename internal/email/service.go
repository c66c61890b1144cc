package email

import "context"

// Service sends transactional mail. Failures are reported to the caller,
// who decides whether they are fatal; registration treats them as
// best-effort.
type Service interface {
	SendWelcome(ctx context.Context, to, name string, patientID int64) error
}

type noopService struct{}

// NewNoopService returns a mailer that silently drops everything. Used when
// SMTP is not configured.
func NewNoopService() Service {
	return noopService{}
}

func (noopService) SendWelcome(ctx context.Context, to, name string, patientID int64) error {
	return nil
}
