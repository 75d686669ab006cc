package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perizinan/internal/common"
	"perizinan/internal/models"
)

func TestUpdateTxBumpsVersionOnSuccess(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	license := &models.License{
		ID:       uuid.New(),
		Status:   models.StatusSubmitted,
		TenantID: uuid.New(),
		Version:  3,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)UPDATE licenses.*version = version \+ 1.*WHERE id = \$16 AND version = \$17 AND deleted_at IS NULL`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	repo := NewLicenseRepository(mock)
	require.NoError(t, repo.UpdateTx(ctx, tx, license))
	assert.Equal(t, 4, license.Version)

	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTxDetectsConcurrentWriter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	license := &models.License{
		ID:      uuid.New(),
		Status:  models.StatusSubmitted,
		Version: 3,
	}

	mock.ExpectBegin()
	// The optimistic lock: a stale version matches zero rows.
	mock.ExpectExec(`(?s)UPDATE licenses.*WHERE id = \$16 AND version = \$17`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	repo := NewLicenseRepository(mock)
	err = repo.UpdateTx(ctx, tx, license)
	assert.ErrorIs(t, err, common.ErrConcurrentModification)
	assert.Equal(t, 3, license.Version, "version must not change on a failed update")

	require.NoError(t, tx.Rollback(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`(?s)SELECT.*FROM licenses.*WHERE id = \$1 AND deleted_at IS NULL`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	repo := NewLicenseRepository(mock)
	_, err = repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSoftDeleteTxUsesVersionPredicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)UPDATE licenses.*SET deleted_at = NOW\(\).*WHERE id = \$1 AND version = \$2 AND deleted_at IS NULL`).
		WithArgs(id, 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	repo := NewLicenseRepository(mock)
	require.NoError(t, repo.SoftDeleteTx(ctx, tx, id, 2))
	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}
