package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perizinan/internal/common"
)

func TestAllocateReturnsPostIncrementValue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tenantID := uuid.New()
	mock.ExpectQuery("INSERT INTO license_sequences").
		WithArgs(tenantID, "SIUP", "202507").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO license_sequences").
		WithArgs(tenantID, "SIUP", "202507").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(2))

	repo := NewSequenceRepository(mock)

	first, err := repo.Allocate(context.Background(), tenantID, "SIUP", "202507")
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	second, err := repo.Allocate(context.Background(), tenantID, "SIUP", "202507")
	require.NoError(t, err)
	assert.Equal(t, 2, second)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocateFailsClosed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tenantID := uuid.New()
	mock.ExpectQuery("INSERT INTO license_sequences").
		WithArgs(tenantID, "SIUP", "202507").
		WillReturnError(errors.New("connection reset"))

	repo := NewSequenceRepository(mock)

	_, err = repo.Allocate(context.Background(), tenantID, "SIUP", "202507")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAllocationFailed)
}

func TestFormatLicenseNumber(t *testing.T) {
	assert.Equal(t, "SIUP/202507/0001", FormatLicenseNumber("SIUP", "202507", 1))
	assert.Equal(t, "SIUP/202507/0042", FormatLicenseNumber("SIUP", "202507", 42))
	assert.Equal(t, "IMB/202512/12345", FormatLicenseNumber("IMB", "202512", 12345))
}
