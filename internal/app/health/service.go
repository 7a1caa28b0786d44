package health

import (
	"context"

	"openchat/internal/utils"
)

// Checker probes the service's dependencies.
type Checker interface {
	Check(ctx context.Context) utils.HealthStatus
}

type Service interface {
	Check(ctx context.Context) utils.HealthStatus
}

type service struct {
	checker     Checker
	connections func() int
}

// NewService reports dependency health. connections, when set, adds the
// number of live realtime subscribers to the report.
func NewService(checker Checker, connections func() int) Service {
	return &service{checker: checker, connections: connections}
}

func (s *service) Check(ctx context.Context) utils.HealthStatus {
	status := s.checker.Check(ctx)
	if s.connections != nil {
		status.Realtime = &utils.RealtimeStatus{Connections: s.connections()}
	}
	return status
}
