package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/postgres/generated"
	"github.com/iho/gowallet/internal/usecase"
)

const insertAuditLog = `
	INSERT INTO audit_logs (
		id, actor_id, actor_role, action, resource_type, resource_id,
		request_id, before_state, after_state, status, error_message, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

const selectAuditLogs = `
	SELECT id, actor_id, actor_role, action, resource_type, resource_id,
	       request_id, before_state, after_state, status, error_message, created_at
	FROM audit_logs
	WHERE 1=1
`

// AuditRepository implements audit log persistence
type AuditRepository struct {
	db generated.DBTX
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return newAuditRepository(pool)
}

func newAuditRepository(db generated.DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateTx inserts an audit log inside the transaction of the audited change.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	pgxTx, err := pgxTxFrom(tx)
	if err != nil {
		return err
	}

	before, err := marshalState(log.BeforeState)
	if err != nil {
		return err
	}
	after, err := marshalState(log.AfterState)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, insertAuditLog,
		log.ID,
		log.ActorID,
		log.ActorRole,
		string(log.Action),
		log.ResourceType,
		log.ResourceID,
		log.RequestID,
		before,
		after,
		string(log.Status),
		log.ErrorMessage,
		log.CreatedAt,
	)

	return err
}

// List retrieves audit logs with filtering, newest first
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	var sb strings.Builder
	sb.WriteString(selectAuditLogs)
	args := []any{}

	where := func(column string, value any) {
		args = append(args, value)
		fmt.Fprintf(&sb, " AND %s = $%d", column, len(args))
	}

	if filter.ActorID != "" {
		where("actor_id", filter.ActorID)
	}
	if filter.Action != "" {
		where("action", string(filter.Action))
	}
	if filter.ResourceType != "" {
		where("resource_type", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		where("resource_id", filter.ResourceID)
	}

	sb.WriteString(" ORDER BY created_at DESC, id DESC")

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]*domain.AuditLog, 0)
	for rows.Next() {
		var (
			log                   domain.AuditLog
			action, status        string
			beforeJSON, afterJSON []byte
		)

		if err := rows.Scan(
			&log.ID,
			&log.ActorID,
			&log.ActorRole,
			&action,
			&log.ResourceType,
			&log.ResourceID,
			&log.RequestID,
			&beforeJSON,
			&afterJSON,
			&status,
			&log.ErrorMessage,
			&log.CreatedAt,
		); err != nil {
			return nil, err
		}

		log.Action = domain.AuditAction(action)
		log.Status = domain.AuditStatus(status)
		if beforeJSON != nil {
			_ = json.Unmarshal(beforeJSON, &log.BeforeState)
		}
		if afterJSON != nil {
			_ = json.Unmarshal(afterJSON, &log.AfterState)
		}

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

func marshalState(state domain.JSON) ([]byte, error) {
	if state == nil {
		return nil, nil
	}

	return json.Marshal(state)
}
