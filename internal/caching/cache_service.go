package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"perizinan/internal/models"
)

const (
	keyPrefix  = "perizinan:"
	defaultTTL = 10 * time.Minute
)

// CacheService is a read-through cache in front of the hot lookup paths.
// Every method degrades to a no-op when redis is unavailable so the
// request path never depends on the cache.
type CacheService interface {
	GetLicense(ctx context.Context, id uuid.UUID) (*models.License, bool)
	SetLicense(ctx context.Context, license *models.License)
	DeleteLicense(ctx context.Context, id uuid.UUID)
	GetLicenseType(ctx context.Context, id uuid.UUID) (*models.LicenseType, bool)
	SetLicenseType(ctx context.Context, licenseType *models.LicenseType)
	DeleteLicenseType(ctx context.Context, id uuid.UUID)
	Ping(ctx context.Context) error
}

type cacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client) CacheService {
	return &cacheService{client: client, ttl: defaultTTL}
}

func licenseKey(id uuid.UUID) string {
	return fmt.Sprintf("%slicense:%s", keyPrefix, id)
}

func licenseTypeKey(id uuid.UUID) string {
	return fmt.Sprintf("%slicense_type:%s", keyPrefix, id)
}

func (s *cacheService) GetLicense(ctx context.Context, id uuid.UUID) (*models.License, bool) {
	data, err := s.client.Get(ctx, licenseKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache get license %s: %v", id, err)
		}
		return nil, false
	}
	license := &models.License{}
	if err := json.Unmarshal(data, license); err != nil {
		log.Printf("cache unmarshal license %s: %v", id, err)
		return nil, false
	}
	return license, true
}

func (s *cacheService) SetLicense(ctx context.Context, license *models.License) {
	data, err := json.Marshal(license)
	if err != nil {
		log.Printf("cache marshal license %s: %v", license.ID, err)
		return
	}
	if err := s.client.Set(ctx, licenseKey(license.ID), data, s.ttl).Err(); err != nil {
		log.Printf("cache set license %s: %v", license.ID, err)
	}
}

func (s *cacheService) DeleteLicense(ctx context.Context, id uuid.UUID) {
	if err := s.client.Del(ctx, licenseKey(id)).Err(); err != nil {
		log.Printf("cache delete license %s: %v", id, err)
	}
}

func (s *cacheService) GetLicenseType(ctx context.Context, id uuid.UUID) (*models.LicenseType, bool) {
	data, err := s.client.Get(ctx, licenseTypeKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache get license type %s: %v", id, err)
		}
		return nil, false
	}
	licenseType := &models.LicenseType{}
	if err := json.Unmarshal(data, licenseType); err != nil {
		log.Printf("cache unmarshal license type %s: %v", id, err)
		return nil, false
	}
	return licenseType, true
}

func (s *cacheService) SetLicenseType(ctx context.Context, licenseType *models.LicenseType) {
	data, err := json.Marshal(licenseType)
	if err != nil {
		log.Printf("cache marshal license type %s: %v", licenseType.ID, err)
		return
	}
	if err := s.client.Set(ctx, licenseTypeKey(licenseType.ID), data, s.ttl).Err(); err != nil {
		log.Printf("cache set license type %s: %v", licenseType.ID, err)
	}
}

func (s *cacheService) DeleteLicenseType(ctx context.Context, id uuid.UUID) {
	if err := s.client.Del(ctx, licenseTypeKey(id)).Err(); err != nil {
		log.Printf("cache delete license type %s: %v", id, err)
	}
}

func (s *cacheService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// noopCache is used when no redis address is configured.
type noopCache struct{}

func NewNoopCache() CacheService { return noopCache{} }

func (noopCache) GetLicense(context.Context, uuid.UUID) (*models.License, bool) { return nil, false }
func (noopCache) SetLicense(context.Context, *models.License)                   {}
func (noopCache) DeleteLicense(context.Context, uuid.UUID)                      {}
func (noopCache) GetLicenseType(context.Context, uuid.UUID) (*models.LicenseType, bool) {
	return nil, false
}
func (noopCache) SetLicenseType(context.Context, *models.LicenseType) {}
func (noopCache) DeleteLicenseType(context.Context, uuid.UUID)        {}
func (noopCache) Ping(context.Context) error                          { return nil }
