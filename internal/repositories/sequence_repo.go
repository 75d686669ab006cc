package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"perizinan/internal/common"
)

// SequenceRepository allocates license-number sequences. Allocate must
// never hand out the same value twice for one (tenant, type code, month)
// key, even under concurrent calls; gaps after failed creations are fine.
type SequenceRepository interface {
	Allocate(ctx context.Context, tenantID uuid.UUID, licenseTypeCode, yearMonth string) (int, error)
}

type sequenceRepo struct {
	db DB
}

func NewSequenceRepository(db DB) SequenceRepository {
	return &sequenceRepo{db: db}
}

// Allocate increments and returns the counter for the key in a single
// statement. The upsert makes create-if-absent and increment-and-read one
// indivisible operation, so concurrent callers serialize on the row and
// each observes a distinct post-increment value. Counting existing license
// rows instead would race between count and insert.
func (r *sequenceRepo) Allocate(ctx context.Context, tenantID uuid.UUID, licenseTypeCode, yearMonth string) (int, error) {
	query := `
		INSERT INTO license_sequences (tenant_id, license_type_code, year_month, value)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (tenant_id, license_type_code, year_month)
		DO UPDATE SET value = license_sequences.value + 1
		RETURNING value
	`
	var value int
	if err := r.db.QueryRow(ctx, query, tenantID, licenseTypeCode, yearMonth).Scan(&value); err != nil {
		// Fail closed: no number means no license row gets persisted.
		return 0, fmt.Errorf("%w: %v", common.ErrAllocationFailed, err)
	}
	return value, nil
}

// FormatLicenseNumber renders the human-readable license number, e.g.
// SIUP/202507/0001.
func FormatLicenseNumber(licenseTypeCode, yearMonth string, sequence int) string {
	return fmt.Sprintf("%s/%s/%04d", licenseTypeCode, yearMonth, sequence)
}
