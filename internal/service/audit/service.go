package audit

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/worker"
)

type AuditServiceImpl struct {
	audit.Repository
	runner worker.Runner
}

func NewAuditService(repo audit.Repository, runner worker.Runner) audit.Service {
	return &AuditServiceImpl{Repository: repo, runner: runner}
}

// Record implements audit.Recorder. The actor is taken from ctx when the log
// does not name one; the write itself happens on the worker pool.
func (s *AuditServiceImpl) Record(ctx context.Context, log audit.Log) {
	if actor, err := user.ActorFromContext(ctx); err == nil {
		if log.CompanyID == "" {
			log.CompanyID = actor.CompanyID
		}
		if log.ActorID == nil {
			id := actor.UserID
			log.ActorID = &id
		}
	}
	if log.CompanyID == "" {
		slog.Warn("audit log without company dropped", "action", log.Action)
		return
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	log.Metadata = maps.Clone(log.Metadata)

	err := s.runner.Submit("audit."+string(log.Action), func(ctx context.Context) error {
		return s.Repository.Create(ctx, log)
	})
	if err != nil {
		slog.Warn("audit log not queued", "action", log.Action, "entity_id", log.EntityID, "error", err)
	}
}

func (s *AuditServiceImpl) List(ctx context.Context, filter audit.ListFilter) (audit.ListResponse, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return audit.ListResponse{}, err
	}
	if !actor.CanManageMoney() {
		return audit.ListResponse{}, user.ErrOwnerAccessRequired
	}
	if err := filter.Validate(); err != nil {
		return audit.ListResponse{}, err
	}

	logs, total, err := s.Repository.List(ctx, filter, actor.CompanyID)
	if err != nil {
		return audit.ListResponse{}, err
	}
	resp := audit.ListResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		Logs:       make([]audit.Response, 0, len(logs)),
	}
	for _, l := range logs {
		resp.Logs = append(resp.Logs, audit.NewResponse(l))
	}
	return resp, nil
}
