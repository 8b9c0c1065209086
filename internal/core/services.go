package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the narrow database interface used by all services. *pgxpool.Pool
// satisfies it; tests use a mock.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Services aggregates all persistence services over one DB.
type Services struct {
	ScheduledTask  *ScheduledTaskService
	Company        *CompanyService
	Agent          *AgentService
	Notification   *NotificationService
	Communication  *CommunicationService
	PlatformConfig *PlatformConfigService
}

func NewServices(db DB) *Services {
	return &Services{
		ScheduledTask:  NewScheduledTaskService(db),
		Company:        NewCompanyService(db),
		Agent:          NewAgentService(db),
		Notification:   NewNotificationService(db),
		Communication:  NewCommunicationService(db),
		PlatformConfig: NewPlatformConfigService(db),
	}
}
