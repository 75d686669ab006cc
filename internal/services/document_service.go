package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"perizinan/internal/authz"
	"perizinan/internal/common"
	"perizinan/internal/models"
	"perizinan/internal/repositories"
)

const presignedURLExpiry = 15 * time.Minute

// DocumentService stores supporting documents in object storage and keeps
// their metadata in the database. Access follows the license: whoever may
// read the license may fetch its documents, whoever may update it may
// upload.
type DocumentService interface {
	// EnsureBucket creates the storage bucket if missing. Called once at
	// startup.
	EnsureBucket(ctx context.Context) error
	Upload(ctx context.Context, actor common.Identity, licenseID uuid.UUID, name, contentType string, size int64, reader io.Reader) (*models.Document, error)
	GetDownloadURL(ctx context.Context, actor common.Identity, id uuid.UUID) (string, error)
	ListByLicense(ctx context.Context, actor common.Identity, licenseID uuid.UUID) ([]*models.Document, error)
	Delete(ctx context.Context, actor common.Identity, id uuid.UUID) error
}

type documentService struct {
	client    *minio.Client
	bucket    string
	documents repositories.DocumentRepository
	licenses  repositories.LicenseRepository
}

func NewDocumentService(client *minio.Client, bucket string, documents repositories.DocumentRepository, licenses repositories.LicenseRepository) DocumentService {
	return &documentService{client: client, bucket: bucket, documents: documents, licenses: licenses}
}

func (s *documentService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}

func (s *documentService) Upload(ctx context.Context, actor common.Identity, licenseID uuid.UUID, name, contentType string, size int64, reader io.Reader) (*models.Document, error) {
	if name == "" {
		return nil, &common.ValidationError{Field: "name", Message: "is required"}
	}

	license, err := s.licenses.GetByID(ctx, licenseID)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, license.TenantID, license.ApplicantID, models.ActionUpdate); err != nil {
		return nil, err
	}
	if license.IsTerminal() {
		return nil, common.ErrTerminalStateImmutable
	}

	document := &models.Document{
		ID:          uuid.New(),
		TenantID:    license.TenantID,
		LicenseID:   license.ID,
		Name:        name,
		ContentType: contentType,
		Size:        size,
		UploadedBy:  actor.UserID,
	}
	document.ObjectKey = fmt.Sprintf("%s/%s/%s", license.TenantID, license.ID, document.ID)

	_, err = s.client.PutObject(ctx, s.bucket, document.ObjectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store object: %w", err)
	}

	if err := s.documents.Create(ctx, document); err != nil {
		// Metadata insert failed; drop the orphaned object.
		_ = s.client.RemoveObject(ctx, s.bucket, document.ObjectKey, minio.RemoveObjectOptions{})
		return nil, err
	}
	return document, nil
}

func (s *documentService) GetDownloadURL(ctx context.Context, actor common.Identity, id uuid.UUID) (string, error) {
	document, _, err := s.loadAuthorized(ctx, actor, id, models.ActionRead)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", document.Name))
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, document.ObjectKey, presignedURLExpiry, params)
	if err != nil {
		return "", fmt.Errorf("failed to presign object: %w", err)
	}
	return presigned.String(), nil
}

func (s *documentService) ListByLicense(ctx context.Context, actor common.Identity, licenseID uuid.UUID) ([]*models.Document, error) {
	license, err := s.licenses.GetByID(ctx, licenseID)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, license.TenantID, license.ApplicantID, models.ActionRead); err != nil {
		return nil, err
	}
	return s.documents.ListByLicense(ctx, license.TenantID, license.ID)
}

func (s *documentService) Delete(ctx context.Context, actor common.Identity, id uuid.UUID) error {
	document, license, err := s.loadAuthorized(ctx, actor, id, models.ActionUpdate)
	if err != nil {
		return err
	}
	if license.IsTerminal() {
		return common.ErrTerminalStateImmutable
	}

	if err := s.documents.Delete(ctx, document.TenantID, document.ID); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, document.ObjectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

func (s *documentService) loadAuthorized(ctx context.Context, actor common.Identity, id uuid.UUID, action string) (*models.Document, *models.License, error) {
	document, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	license, err := s.licenses.GetByID(ctx, document.LicenseID)
	if err != nil {
		return nil, nil, err
	}
	if err := authz.Check(actor, license.TenantID, license.ApplicantID, action); err != nil {
		return nil, nil, err
	}
	return document, license, nil
}
