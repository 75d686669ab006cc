// Package testhelpers provides fixture builders shared by the service and
// repository tests.
package testhelpers

import (
	"time"

	"github.com/google/uuid"

	"perizinan/internal/common"
	"perizinan/internal/models"
)

func NewTestTenant() *models.Tenant {
	return &models.Tenant{
		ID:     uuid.New(),
		Name:   "Kota Bandung",
		Code:   "BDG",
		Type:   models.TenantTypeKota,
		Region: "Jawa Barat",
		Status: models.TenantStatusActive,
	}
}

func NewTestUser(tenantID uuid.UUID, role string) *models.User {
	id := uuid.New()
	tid := tenantID
	return &models.User{
		ID:           id,
		TenantID:     &tid,
		Email:        "user-" + id.String()[:8] + "@example.com",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		FullName:     "Test User",
		Role:         role,
		Status:       models.UserStatusActive,
	}
}

func NewTestIdentity(tenantID uuid.UUID, role string) common.Identity {
	return common.Identity{UserID: uuid.New(), TenantID: tenantID, Role: role}
}

func NewTestLicenseType(tenantID *uuid.UUID) *models.LicenseType {
	return &models.LicenseType{
		ID:             uuid.New(),
		Name:           "Surat Izin Usaha Perdagangan",
		Code:           "SIUP",
		Category:       "perdagangan",
		ValidityPeriod: 365,
		Status:         models.LicenseTypeStatusActive,
		TenantID:       tenantID,
	}
}

func NewTestLicense(tenantID, applicantID, licenseTypeID uuid.UUID, status string) *models.License {
	now := time.Now()
	return &models.License{
		ID:            uuid.New(),
		LicenseNumber: "SIUP/202508/0001",
		BusinessName:  "Warung Maju Jaya",
		Status:        status,
		TenantID:      tenantID,
		ApplicantID:   applicantID,
		LicenseTypeID: licenseTypeID,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
