package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"text/template"

	"github.com/google/uuid"

	"perizinan/internal/common"
	"perizinan/internal/models"
	"perizinan/internal/repositories"
)

// EmailSender delivers a single message. The default implementation only
// logs; a real SMTP gateway slots in behind this interface.
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

type logSender struct{}

func NewLogSender() EmailSender { return logSender{} }

func (logSender) Send(_ context.Context, recipient, subject, _ string) error {
	log.Printf("email to %s: %s", recipient, subject)
	return nil
}

type notificationMessage struct {
	Subject string
	Body    *template.Template
}

var licenseEventMessages = map[string]notificationMessage{
	models.ActionSubmit: {
		Subject: "Permohonan izin diterima",
		Body: template.Must(template.New("submit").Parse(
			"Permohonan {{.LicenseNumber}} untuk {{.BusinessName}} telah diterima dan menunggu peninjauan.")),
	},
	models.ActionBeginReview: {
		Subject: "Permohonan izin sedang ditinjau",
		Body: template.Must(template.New("begin_review").Parse(
			"Permohonan {{.LicenseNumber}} untuk {{.BusinessName}} sedang ditinjau oleh petugas.")),
	},
	models.ActionRequestRevision: {
		Subject: "Permohonan izin perlu perbaikan",
		Body: template.Must(template.New("request_revision").Parse(
			"Permohonan {{.LicenseNumber}} untuk {{.BusinessName}} dikembalikan untuk perbaikan. Catatan petugas: {{if .ReviewerNotes}}{{.ReviewerNotes}}{{else}}-{{end}}")),
	},
	models.ActionApprove: {
		Subject: "Permohonan izin disetujui",
		Body: template.Must(template.New("approve").Parse(
			"Selamat, permohonan {{.LicenseNumber}} untuk {{.BusinessName}} telah disetujui. Izin berlaku hingga {{if .ValidUntil}}{{.ValidUntil.Format \"02-01-2006\"}}{{else}}-{{end}}.")),
	},
	models.ActionReject: {
		Subject: "Permohonan izin ditolak",
		Body: template.Must(template.New("reject").Parse(
			"Permohonan {{.LicenseNumber}} untuk {{.BusinessName}} ditolak. Alasan: {{if .RejectionReason}}{{.RejectionReason}}{{else}}-{{end}}")),
	},
	models.ActionRevoke: {
		Subject: "Izin dicabut",
		Body: template.Must(template.New("revoke").Parse(
			"Izin {{.LicenseNumber}} untuk {{.BusinessName}} telah dicabut.")),
	},
	models.ActionExpire: {
		Subject: "Izin kedaluwarsa",
		Body: template.Must(template.New("expire").Parse(
			"Izin {{.LicenseNumber}} untuk {{.BusinessName}} telah melewati masa berlakunya.")),
	},
}

type NotificationService interface {
	// NotifyLicenseEvent records an in-app notification and sends an email
	// to the applicant for the given lifecycle action. Unknown actions are
	// silently skipped.
	NotifyLicenseEvent(ctx context.Context, license *models.License, action string) error
	ListForUser(ctx context.Context, actor common.Identity, limit, offset int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, actor common.Identity, id uuid.UUID) error
	// RetryFailed re-attempts delivery of failed email notifications. Called
	// by the background scheduler.
	RetryFailed(ctx context.Context, limit int) error
}

type notificationService struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	sender        EmailSender
}

func NewNotificationService(notifications repositories.NotificationRepository, users repositories.UserRepository, sender EmailSender) NotificationService {
	return &notificationService{notifications: notifications, users: users, sender: sender}
}

func (s *notificationService) NotifyLicenseEvent(ctx context.Context, license *models.License, action string) error {
	message, ok := licenseEventMessages[action]
	if !ok {
		return nil
	}

	applicant, err := s.users.GetByID(ctx, license.ApplicantID)
	if err != nil {
		return fmt.Errorf("failed to resolve applicant %s: %w", license.ApplicantID, err)
	}

	var body bytes.Buffer
	if err := message.Body.Execute(&body, license); err != nil {
		return fmt.Errorf("failed to render notification body: %w", err)
	}

	metadata := models.JSONB{
		"license_id": license.ID.String(),
		"action":     action,
	}

	applicantID := applicant.ID
	inApp := &models.Notification{
		TenantID:  license.TenantID,
		UserID:    &applicantID,
		Type:      models.NotificationTypeInApp,
		Recipient: applicant.Email,
		Subject:   message.Subject,
		Content:   body.String(),
		Status:    models.NotificationStatusSent,
		Metadata:  metadata,
	}
	if err := s.notifications.Create(ctx, inApp); err != nil {
		return err
	}

	email := &models.Notification{
		TenantID:  license.TenantID,
		UserID:    &applicantID,
		Type:      models.NotificationTypeEmail,
		Recipient: applicant.Email,
		Subject:   message.Subject,
		Content:   body.String(),
		Status:    models.NotificationStatusPending,
		Metadata:  metadata,
	}
	if err := s.notifications.Create(ctx, email); err != nil {
		return err
	}

	status := models.NotificationStatusSent
	if err := s.sender.Send(ctx, email.Recipient, email.Subject, email.Content); err != nil {
		log.Printf("send notification %s: %v", email.ID, err)
		status = models.NotificationStatusFailed
	}
	return s.notifications.UpdateStatus(ctx, email.ID, status)
}

func (s *notificationService) ListForUser(ctx context.Context, actor common.Identity, limit, offset int) ([]*models.Notification, error) {
	return s.notifications.ListForUser(ctx, actor.TenantID, actor.UserID, limit, offset)
}

func (s *notificationService) MarkRead(ctx context.Context, actor common.Identity, id uuid.UUID) error {
	return s.notifications.MarkRead(ctx, actor.TenantID, actor.UserID, id)
}

func (s *notificationService) RetryFailed(ctx context.Context, limit int) error {
	failed, err := s.notifications.ListByStatus(ctx, models.NotificationStatusFailed, limit)
	if err != nil {
		return err
	}
	for _, notification := range failed {
		if notification.Type != models.NotificationTypeEmail {
			continue
		}
		status := models.NotificationStatusSent
		if err := s.sender.Send(ctx, notification.Recipient, notification.Subject, notification.Content); err != nil {
			log.Printf("retry notification %s: %v", notification.ID, err)
			status = models.NotificationStatusFailed
		}
		if err := s.notifications.UpdateStatus(ctx, notification.ID, status); err != nil {
			return err
		}
	}
	return nil
}
