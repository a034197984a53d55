package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/google/uuid"
)

type auditRepository struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) audit.Repository {
	return &auditRepository{db: db}
}

// Create implements audit.Repository. Rows are never updated.
func (r *auditRepository) Create(ctx context.Context, log audit.Log) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	metadata, err := json.Marshal(log.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal audit metadata: %w", err)
	}

	query := `
		INSERT INTO audit_logs (id, company_id, actor_id, action, entity_type, entity_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = GetQuerier(ctx, r.db).Exec(ctx, query,
		log.ID, log.CompanyID, log.ActorID, log.Action, log.EntityType, log.EntityID, metadata, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// List implements audit.Repository.
func (r *auditRepository) List(ctx context.Context, filter audit.ListFilter, companyID string) ([]audit.Log, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "company_id = $1"
	args := []interface{}{companyID}
	argIdx := 2

	if filter.EntityType != nil {
		baseWhere += fmt.Sprintf(" AND entity_type = $%d", argIdx)
		args = append(args, *filter.EntityType)
		argIdx++
	}
	if filter.EntityID != nil {
		baseWhere += fmt.Sprintf(" AND entity_id = $%d", argIdx)
		args = append(args, *filter.EntityID)
		argIdx++
	}
	if filter.Action != nil {
		baseWhere += fmt.Sprintf(" AND action = $%d", argIdx)
		args = append(args, *filter.Action)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs WHERE "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT id, company_id, actor_id, action, entity_type, entity_id, metadata, created_at
		FROM audit_logs
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, baseWhere, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []audit.Log
	for rows.Next() {
		var (
			l        audit.Log
			metadata []byte
		)
		if err := rows.Scan(&l.ID, &l.CompanyID, &l.ActorID, &l.Action, &l.EntityType, &l.EntityID, &metadata, &l.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit log: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &l.Metadata); err != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal audit metadata: %w", err)
			}
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
