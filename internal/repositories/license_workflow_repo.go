package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"perizinan/internal/models"
)

// LicenseWorkflowRepository is the append-only audit ledger. Entries are
// written inside the same transaction as the status change they record and
// are never updated or deleted afterwards.
type LicenseWorkflowRepository interface {
	CreateTx(ctx context.Context, tx pgx.Tx, entry *models.LicenseWorkflow) error
	// ListByLicense returns entries newest-first. The seq column breaks
	// same-timestamp ties by insertion order.
	ListByLicense(ctx context.Context, licenseID uuid.UUID, limit, offset int) ([]*models.LicenseWorkflow, error)
}

type licenseWorkflowRepo struct {
	db DB
}

func NewLicenseWorkflowRepository(db DB) LicenseWorkflowRepository {
	return &licenseWorkflowRepo{db: db}
}

func (r *licenseWorkflowRepo) CreateTx(ctx context.Context, tx pgx.Tx, entry *models.LicenseWorkflow) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	var metadata []byte
	if entry.Metadata != nil {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	query := `
		INSERT INTO license_workflows (id, license_id, action, from_status, to_status, comment, metadata, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.Exec(ctx, query,
		entry.ID, entry.LicenseID, entry.Action, entry.FromStatus, entry.ToStatus,
		entry.Comment, metadata, entry.ActorID, entry.CreatedAt,
	)
	return err
}

func (r *licenseWorkflowRepo) ListByLicense(ctx context.Context, licenseID uuid.UUID, limit, offset int) ([]*models.LicenseWorkflow, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `
		SELECT id, license_id, action, from_status, to_status, comment, metadata, actor_id, created_at
		FROM license_workflows
		WHERE license_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, licenseID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.LicenseWorkflow
	for rows.Next() {
		entry := &models.LicenseWorkflow{}
		var metadata []byte
		if err := rows.Scan(
			&entry.ID, &entry.LicenseID, &entry.Action, &entry.FromStatus, &entry.ToStatus,
			&entry.Comment, &metadata, &entry.ActorID, &entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
