package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ikkim/ridehail-backend/config"
	"github.com/ikkim/ridehail-backend/internal/app/model"
	"github.com/ikkim/ridehail-backend/internal/app/repository"
	"github.com/ikkim/ridehail-backend/internal/events"
	"github.com/ikkim/ridehail-backend/internal/metrics"
	"github.com/ikkim/ridehail-backend/internal/storage"
	"github.com/ikkim/ridehail-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	ErrInvalidStatus           = errors.New("invalid verification status")
	ErrRejectionReasonRequired = errors.New("rejection reason is required")
	ErrInvalidEntityType       = errors.New("invalid entity type")
	ErrVerificationNotFound    = errors.New("verification not found")
	ErrEntityNotFound          = errors.New("entity not found")
	ErrVerificationConflict    = errors.New("verification was modified concurrently")
	ErrOwnerNotFound           = errors.New("document owner not found")
	ErrDocumentNotFound        = errors.New("document not found")
)

const publishTimeout = 2 * time.Second

type VerificationService interface {
	UpdateVerificationStatus(ctx context.Context, verificationID uint, input UpdateStatusInput) (*StatusUpdateResult, error)
	ListPending(ctx context.Context) ([]model.VerificationView, error)
	ListHistory(ctx context.Context) ([]model.VerificationView, error)
	ListEntities(ctx context.Context) (*EntityListing, error)
	GetEntityVerifications(ctx context.Context, entityType string, entityID uint) (*EntityVerifications, error)
	AuditFlagConsistency(ctx context.Context) (*ConsistencyReport, error)
	GetDocument(ctx context.Context, documentID uint) (*model.Document, error)
}

// UpdateStatusInput is a reviewer decision. Status is validated by the service.
type UpdateStatusInput struct {
	Status          string
	RejectionReason *string
	// ExpectedVersion enables the stale-write check; nil means last write wins.
	ExpectedVersion *uint
	ReviewerID      *uint
}

type StatusUpdateResult struct {
	ID              uint                     `json:"id"`
	Status          model.VerificationStatus `json:"status"`
	ReviewedAt      *time.Time               `json:"reviewedAt"`
	RejectionReason *string                  `json:"rejectionReason"`
	Version         uint                     `json:"version"`
}

type EntityListing struct {
	Drivers  []model.Driver  `json:"drivers"`
	Vehicles []model.Vehicle `json:"vehicles"`
}

type EntityVerifications struct {
	EntityType    model.OwnerType          `json:"entityType"`
	EntityDetails interface{}              `json:"entityDetails"`
	Verifications []model.VerificationView `json:"verifications"`
}

type ConsistencyReport struct {
	CheckedAt time.Time              `json:"checked_at"`
	Drift     []repository.FlagDrift `json:"drift"`
}

type VerificationOption func(*verificationService)

// WithRejectionReasonPolicy makes a reason mandatory for rejections when required.
func WithRejectionReasonPolicy(policy config.RejectionReasonPolicy) VerificationOption {
	return func(s *verificationService) { s.reasonPolicy = policy }
}

func WithClock(now func() time.Time) VerificationOption {
	return func(s *verificationService) { s.now = now }
}

func WithPublisher(p events.Publisher) VerificationOption {
	return func(s *verificationService) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) VerificationOption {
	return func(s *verificationService) { s.metrics = m }
}

type verificationService struct {
	verificationRepo repository.VerificationRepository
	driverRepo       repository.DriverRepository
	vehicleRepo      repository.VehicleRepository
	urls             storage.DocumentURLBuilder
	reasonPolicy     config.RejectionReasonPolicy
	publisher        events.Publisher
	metrics          *metrics.Metrics
	now              func() time.Time
}

func NewVerificationService(
	verificationRepo repository.VerificationRepository,
	driverRepo repository.DriverRepository,
	vehicleRepo repository.VehicleRepository,
	urls storage.DocumentURLBuilder,
	opts ...VerificationOption,
) VerificationService {
	s := &verificationService{
		verificationRepo: verificationRepo,
		driverRepo:       driverRepo,
		vehicleRepo:      vehicleRepo,
		urls:             urls,
		reasonPolicy:     config.RejectionReasonOptional,
		publisher:        events.Nop{},
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// flagValue is the cascade rule: verified sets the owner flag, pending clears
// it, rejected leaves it as it was.
func flagValue(status model.VerificationStatus) (value bool, cascade bool) {
	switch status {
	case model.VerificationStatusVerified:
		return true, true
	case model.VerificationStatusPending:
		return false, true
	default:
		return false, false
	}
}

func (s *verificationService) UpdateVerificationStatus(ctx context.Context, verificationID uint, input UpdateStatusInput) (*StatusUpdateResult, error) {
	logger.Info("Updating verification status", map[string]interface{}{
		"verification_id": verificationID,
		"new_status":      input.Status,
	})

	status, ok := model.ParseVerificationStatus(input.Status)
	if !ok {
		logger.Warn("Rejected verification update: invalid status", map[string]interface{}{
			"verification_id": verificationID,
			"status":          input.Status,
		})
		s.metrics.IncrementFailure("invalid_argument")
		return nil, ErrInvalidStatus
	}

	if status == model.VerificationStatusRejected &&
		s.reasonPolicy == config.RejectionReasonRequired &&
		(input.RejectionReason == nil || strings.TrimSpace(*input.RejectionReason) == "") {
		logger.Warn("Rejected verification update: missing rejection reason", map[string]interface{}{
			"verification_id": verificationID,
		})
		s.metrics.IncrementFailure("invalid_argument")
		return nil, ErrRejectionReasonRequired
	}

	started := time.Now()
	var (
		result *StatusUpdateResult
		event  events.VerificationStatusChanged
	)

	err := s.verificationRepo.Transaction(ctx, func(repo repository.VerificationRepository) error {
		verification, err := repo.FindByIDForUpdate(ctx, verificationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVerificationNotFound
			}
			return err
		}

		if input.ExpectedVersion != nil && *input.ExpectedVersion != verification.Version {
			logger.Warn("Verification update conflict", map[string]interface{}{
				"verification_id":  verificationID,
				"expected_version": *input.ExpectedVersion,
				"current_version":  verification.Version,
			})
			return ErrVerificationConflict
		}

		now := s.now()
		update := repository.StatusUpdate{
			Status:          status,
			RejectionReason: input.RejectionReason,
			Version:         verification.Version + 1,
			UpdatedAt:       now,
		}
		// back to pending erases the review
		if status != model.VerificationStatusPending {
			update.ReviewedAt = &now
			update.ReviewedBy = input.ReviewerID
		}

		if err := repo.UpdateStatus(ctx, verification.ID, update); err != nil {
			return err
		}
		if err := s.cascade(ctx, repo, verification.Document, status, now); err != nil {
			return err
		}

		result = &StatusUpdateResult{
			ID:              verification.ID,
			Status:          status,
			ReviewedAt:      update.ReviewedAt,
			RejectionReason: update.RejectionReason,
			Version:         update.Version,
		}
		event = events.VerificationStatusChanged{
			Type:            events.TypeVerificationStatusChanged,
			VerificationID:  verification.ID,
			DocumentID:      verification.DocumentID,
			OwnerType:       verification.Document.OwnerType,
			OwnerID:         verification.Document.OwnerID,
			DocumentType:    verification.Document.DocumentType,
			PreviousStatus:  verification.Status,
			Status:          status,
			RejectionReason: update.RejectionReason,
			ReviewedAt:      update.ReviewedAt,
			ReviewedBy:      update.ReviewedBy,
			Version:         update.Version,
			OccurredAt:      now,
		}
		return nil
	})
	s.metrics.ObserveTransitionLatency(time.Since(started))

	if err != nil {
		switch {
		case errors.Is(err, ErrVerificationNotFound):
			logger.Warn("Verification not found", map[string]interface{}{
				"verification_id": verificationID,
			})
			s.metrics.IncrementFailure("not_found")
		case errors.Is(err, ErrVerificationConflict):
			s.metrics.IncrementFailure("conflict")
		default:
			logger.Error("Verification status transaction rolled back", err, map[string]interface{}{
				"verification_id": verificationID,
				"new_status":      status,
			})
			s.metrics.IncrementFailure("transaction")
		}
		return nil, err
	}

	s.metrics.IncrementTransition(string(status), string(event.OwnerType))
	s.publish(ctx, event)

	logger.Info("Verification status updated successfully", map[string]interface{}{
		"verification_id": verificationID,
		"previous_status": event.PreviousStatus,
		"status":          status,
		"owner_type":      event.OwnerType,
		"owner_id":        event.OwnerID,
		"document_type":   event.DocumentType,
		"version":         result.Version,
	})
	return result, nil
}

// cascade writes the owner flag implied by status inside the caller's transaction.
func (s *verificationService) cascade(ctx context.Context, repo repository.VerificationRepository, doc model.Document, status model.VerificationStatus, at time.Time) error {
	value, ok := flagValue(status)
	if !ok {
		return nil
	}

	target, ok := repository.FlagTargetFor(doc.OwnerType)
	if !ok {
		return fmt.Errorf("document %d has unknown owner type %q", doc.ID, doc.OwnerType)
	}

	if err := repo.SetFlag(ctx, target, doc.OwnerID, doc.DocumentType, value, at); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s %d", ErrOwnerNotFound, doc.OwnerType, doc.OwnerID)
		}
		return err
	}

	logger.Debug("Verification flag cascaded", map[string]interface{}{
		"owner_type":    doc.OwnerType,
		"owner_id":      doc.OwnerID,
		"document_type": doc.DocumentType,
		"value":         value,
	})
	return nil
}

// publish runs after commit; failures are logged and never undo the transition.
func (s *verificationService) publish(ctx context.Context, event events.VerificationStatusChanged) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Error("Failed to publish verification event", err, map[string]interface{}{
			"verification_id": event.VerificationID,
			"status":          event.Status,
		})
	}
}

func (s *verificationService) views(verifications []model.Verification) []model.VerificationView {
	views := make([]model.VerificationView, 0, len(verifications))
	for i := range verifications {
		v := &verifications[i]
		views = append(views, model.NewVerificationView(v, s.urls.DocumentURL(v.DocumentID)))
	}
	return views
}

func (s *verificationService) ListPending(ctx context.Context) ([]model.VerificationView, error) {
	verifications, err := s.verificationRepo.FindPending(ctx)
	if err != nil {
		logger.Error("Failed to list pending verifications", err)
		return nil, err
	}

	logger.Debug("Pending verifications listed", map[string]interface{}{
		"count": len(verifications),
	})
	return s.views(verifications), nil
}

func (s *verificationService) ListHistory(ctx context.Context) ([]model.VerificationView, error) {
	verifications, err := s.verificationRepo.FindHistory(ctx)
	if err != nil {
		logger.Error("Failed to list verification history", err)
		return nil, err
	}

	logger.Debug("Verification history listed", map[string]interface{}{
		"count": len(verifications),
	})
	return s.views(verifications), nil
}

func (s *verificationService) ListEntities(ctx context.Context) (*EntityListing, error) {
	listing := &EntityListing{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		drivers, err := s.driverRepo.FindAll(gctx)
		if err != nil {
			return fmt.Errorf("list drivers: %w", err)
		}
		listing.Drivers = drivers
		return nil
	})
	g.Go(func() error {
		vehicles, err := s.vehicleRepo.FindAll(gctx)
		if err != nil {
			return fmt.Errorf("list vehicles: %w", err)
		}
		listing.Vehicles = vehicles
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("Failed to list verification entities", err)
		return nil, err
	}

	if listing.Drivers == nil {
		listing.Drivers = []model.Driver{}
	}
	if listing.Vehicles == nil {
		listing.Vehicles = []model.Vehicle{}
	}

	logger.Debug("Verification entities listed", map[string]interface{}{
		"drivers":  len(listing.Drivers),
		"vehicles": len(listing.Vehicles),
	})
	return listing, nil
}

func (s *verificationService) GetEntityVerifications(ctx context.Context, entityType string, entityID uint) (*EntityVerifications, error) {
	ownerType, ok := model.ParseOwnerType(entityType)
	if !ok {
		logger.Warn("Invalid entity type", map[string]interface{}{
			"entity_type": entityType,
		})
		return nil, ErrInvalidEntityType
	}

	details, err := s.findEntity(ctx, ownerType, entityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Verification entity not found", map[string]interface{}{
				"entity_type": ownerType,
				"entity_id":   entityID,
			})
			return nil, ErrEntityNotFound
		}
		logger.Error("Failed to fetch verification entity", err, map[string]interface{}{
			"entity_type": ownerType,
			"entity_id":   entityID,
		})
		return nil, err
	}

	verifications, err := s.verificationRepo.FindByOwner(ctx, ownerType, entityID)
	if err != nil {
		logger.Error("Failed to list entity verifications", err, map[string]interface{}{
			"entity_type": ownerType,
			"entity_id":   entityID,
		})
		return nil, err
	}

	return &EntityVerifications{
		EntityType:    ownerType,
		EntityDetails: details,
		Verifications: s.views(verifications),
	}, nil
}

func (s *verificationService) GetDocument(ctx context.Context, documentID uint) (*model.Document, error) {
	document, err := s.verificationRepo.FindDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		logger.Error("Failed to fetch document", err, map[string]interface{}{
			"document_id": documentID,
		})
		return nil, err
	}
	return document, nil
}

func (s *verificationService) findEntity(ctx context.Context, ownerType model.OwnerType, id uint) (interface{}, error) {
	switch ownerType {
	case model.OwnerDriver:
		return s.driverRepo.FindByID(ctx, id)
	case model.OwnerVehicle:
		return s.vehicleRepo.FindByID(ctx, id)
	}
	return nil, ErrInvalidEntityType
}

// AuditFlagConsistency reports every verification whose owner flag disagrees
// with its status. Rejected verifications are never reported since rejection
// leaves the flag untouched. Read-only.
func (s *verificationService) AuditFlagConsistency(ctx context.Context) (*ConsistencyReport, error) {
	report := &ConsistencyReport{
		CheckedAt: s.now(),
		Drift:     []repository.FlagDrift{},
	}

	for _, target := range repository.FlagTargets() {
		for _, docType := range target.DocumentTypes() {
			drift, err := s.verificationRepo.FindFlagDrift(ctx, target, docType)
			if err != nil {
				logger.Error("Failed to audit verification flags", err, map[string]interface{}{
					"owner_type":    target.OwnerType(),
					"document_type": docType,
				})
				return nil, err
			}
			report.Drift = append(report.Drift, drift...)
		}
	}

	s.metrics.SetFlagDrift(len(report.Drift))
	for _, d := range report.Drift {
		logger.Warn("Verification flag drift detected", map[string]interface{}{
			"verification_id": d.VerificationID,
			"status":          d.Status,
			"owner_type":      d.OwnerType,
			"owner_id":        d.OwnerID,
			"document_type":   d.DocumentType,
			"flag":            d.Flag,
		})
	}
	return report, nil
}
