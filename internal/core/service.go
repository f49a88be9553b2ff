package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/inventory/internal/config"
)

// Service provides the core business logic for the inventory service.
type Service struct {
	store     Store
	events    EventPublisher
	validator *RecordValidator
	limiter   *UploadLimiter

	uploadTimeout time.Duration
	defaultLimit  int
	maxLimit      int
}

// NewService creates a Service over store. A nil publisher disables events.
func NewService(store Store, events EventPublisher, cfg *config.Config) *Service {
	if events == nil {
		events = NopPublisher{}
	}
	return &Service{
		store:         store,
		events:        events,
		validator:     NewRecordValidator(),
		limiter:       NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		uploadTimeout: cfg.Upload.Timeout,
		defaultLimit:  cfg.Listing.DefaultLimit,
		maxLimit:      cfg.Listing.MaxLimit,
	}
}

// Ping checks that the store answers queries.
func (s *Service) Ping(ctx context.Context) error {
	_, err := s.store.Count(ctx)
	return err
}

// UploadLimiterStatus reports how many ingestions are running.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until running ingestions finish or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
