package background

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"perizinan/internal/common"
	"perizinan/internal/repositories"
	"perizinan/internal/services"
)

const expirySweepBatch = 500

// Scheduler runs the time-driven maintenance jobs: the daily license expiry
// sweep and the failed-notification retry.
type Scheduler struct {
	scheduler     gocron.Scheduler
	licenses      services.LicenseService
	licenseRepo   repositories.LicenseRepository
	notifications services.NotificationService
}

func NewScheduler(licenses services.LicenseService, licenseRepo repositories.LicenseRepository, notifications services.NotificationService) (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		scheduler:     scheduler,
		licenses:      licenses,
		licenseRepo:   licenseRepo,
		notifications: notifications,
	}, nil
}

func (s *Scheduler) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(1, 0, 0))),
		gocron.NewTask(s.ExpirySweep),
	)
	if err != nil {
		return err
	}

	_, err = s.scheduler.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(s.RetryNotifications),
	)
	if err != nil {
		return err
	}

	s.scheduler.Start()
	log.Println("background scheduler started")
	return nil
}

func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

// ExpirySweep moves approved licenses whose validity window has elapsed to
// expired. Each expiry goes through the normal lifecycle path under the
// system identity, so the ledger records it like any other transition.
func (s *Scheduler) ExpirySweep() {
	ctx := context.Background()
	system := common.SystemIdentity()

	for {
		expired, err := s.licenseRepo.ListExpired(ctx, time.Now(), expirySweepBatch)
		if err != nil {
			log.Printf("expiry sweep: list failed: %v", err)
			return
		}
		if len(expired) == 0 {
			return
		}
		for _, license := range expired {
			if _, err := s.licenses.Expire(ctx, system, license.ID); err != nil {
				// A concurrent transition may have beaten us; skip and move on.
				log.Printf("expiry sweep: license %s: %v", license.ID, err)
			}
		}
		if len(expired) < expirySweepBatch {
			return
		}
	}
}

func (s *Scheduler) RetryNotifications() {
	if err := s.notifications.RetryFailed(context.Background(), 100); err != nil {
		log.Printf("notification retry: %v", err)
	}
}
