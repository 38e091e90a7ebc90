package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/ridehail-backend/config"
	"github.com/ikkim/ridehail-backend/internal/app/model"
	"github.com/ikkim/ridehail-backend/internal/app/repository"
	"github.com/ikkim/ridehail-backend/internal/db"
	"github.com/ikkim/ridehail-backend/internal/events"
	"github.com/ikkim/ridehail-backend/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testURLs struct{}

func (testURLs) DocumentURL(id uint) string {
	return fmt.Sprintf("https://docs.ridehail.test/documents/%d", id)
}

// stepClock advances one second on every read.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.VerificationStatusChanged
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.VerificationStatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) published() []events.VerificationStatusChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.VerificationStatusChanged(nil), p.events...)
}

type verificationFixture struct {
	db        *gorm.DB
	service   VerificationService
	documents repository.DocumentRepository
	clock     *stepClock
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	driver    *model.Driver
	vehicle   *model.Vehicle
}

func setupVerificationTest(t *testing.T, opts ...VerificationOption) *verificationFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	f := &verificationFixture{
		db:        testDB,
		documents: repository.NewDocumentRepository(testDB),
		clock:     &stepClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		publisher: &recordingPublisher{},
		metrics:   metrics.New(prometheus.NewRegistry()),
	}

	base := []VerificationOption{
		WithClock(f.clock.Now),
		WithPublisher(f.publisher),
		WithMetrics(f.metrics),
	}
	f.service = NewVerificationService(
		repository.NewVerificationRepository(testDB),
		repository.NewDriverRepository(testDB),
		repository.NewVehicleRepository(testDB),
		testURLs{},
		append(base, opts...)...,
	)

	ctx := context.Background()
	user := &model.User{Email: "driver@ridehail.test", PasswordHash: "x", Name: "Ravi Kumar", Role: model.RoleDriver}
	require.NoError(t, repository.NewUserRepository(testDB).Create(ctx, user))

	f.driver = &model.Driver{UserID: user.ID, LicenseNumber: "KA0120230001234"}
	require.NoError(t, repository.NewDriverRepository(testDB).Create(ctx, f.driver))

	f.vehicle = &model.Vehicle{DriverID: &f.driver.ID, RegistrationNumber: "KA01AB1234", Make: "Maruti", Model: "Dzire", VehicleType: model.VehicleTypeSedan}
	require.NoError(t, repository.NewVehicleRepository(testDB).Create(ctx, f.vehicle))

	return f
}

func (f *verificationFixture) submit(t *testing.T, owner model.OwnerType, ownerID uint, docType model.DocumentType) *model.Verification {
	t.Helper()
	v, err := f.documents.CreateWithVerification(context.Background(), &model.Document{
		OwnerType:      owner,
		OwnerID:        ownerID,
		DocumentType:   docType,
		DocumentNumber: "DOC-" + string(docType),
		FileMime:       "image/jpeg",
		FileSize:       204800,
	})
	require.NoError(t, err)
	return v
}

func (f *verificationFixture) reloadVerification(t *testing.T, id uint) model.Verification {
	t.Helper()
	var v model.Verification
	require.NoError(t, f.db.First(&v, id).Error)
	return v
}

func (f *verificationFixture) reloadDriver(t *testing.T) model.Driver {
	t.Helper()
	var d model.Driver
	require.NoError(t, f.db.First(&d, f.driver.ID).Error)
	return d
}

func (f *verificationFixture) reloadVehicle(t *testing.T) model.Vehicle {
	t.Helper()
	var v model.Vehicle
	require.NoError(t, f.db.First(&v, f.vehicle.ID).Error)
	return v
}

func status(s model.VerificationStatus) UpdateStatusInput {
	return UpdateStatusInput{Status: string(s)}
}

func strPtr(s string) *string { return &s }
func uintPtr(u uint) *uint    { return &u }

func TestVerificationService_VerifyAadhaarSetsDriverFlag(t *testing.T) {
	f := setupVerificationTest(t)
	ctx := context.Background()
	pending := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentAadhaar)

	result, err := f.service.UpdateVerificationStatus(ctx, pending.ID, UpdateStatusInput{
		Status:     "verified",
		ReviewerID: uintPtr(77),
	})
	require.NoError(t, err)

	assert.Equal(t, pending.ID, result.ID)
	assert.Equal(t, model.VerificationStatusVerified, result.Status)
	require.NotNil(t, result.ReviewedAt)
	assert.Nil(t, result.RejectionReason)
	assert.Equal(t, uint(2), result.Version)

	stored := f.reloadVerification(t, pending.ID)
	assert.Equal(t, model.VerificationStatusVerified, stored.Status)
	require.NotNil(t, stored.ReviewedAt)
	assert.True(t, result.ReviewedAt.Equal(*stored.ReviewedAt))
	require.NotNil(t, stored.ReviewedBy)
	assert.Equal(t, uint(77), *stored.ReviewedBy)
	assert.True(t, stored.UpdatedAt.Equal(*stored.ReviewedAt))

	driver := f.reloadDriver(t)
	assert.True(t, driver.IsAadhaarVerified)
	assert.False(t, driver.IsPanVerified)
	assert.False(t, driver.IsDriverLicenseVerified)

	published := f.publisher.published()
	require.Len(t, published, 1)
	assert.Equal(t, model.VerificationStatusPending, published[0].PreviousStatus)
	assert.Equal(t, model.VerificationStatusVerified, published[0].Status)
	assert.Equal(t, model.OwnerDriver, published[0].OwnerType)
	assert.Equal(t, f.driver.ID, published[0].OwnerID)
	assert.Equal(t, model.DocumentAadhaar, published[0].DocumentType)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("verified", "driver")))
}

func TestVerificationService_VehicleFlags(t *testing.T) {
	f := setupVerificationTest(t)
	ctx := context.Background()

	for _, dt := range []model.DocumentType{model.DocumentRC, model.DocumentPUC, model.DocumentInsurance} {
		v := f.submit(t, model.OwnerVehicle, f.vehicle.ID, dt)
		_, err := f.service.UpdateVerificationStatus(ctx, v.ID, status(model.VerificationStatusVerified))
		require.NoError(t, err)
	}

	vehicle := f.reloadVehicle(t)
	assert.True(t, vehicle.IsRcVerified)
	assert.True(t, vehicle.IsPucVerified)
	assert.True(t, vehicle.IsInsuranceVerified)

	// driver flags are untouched by vehicle documents
	driver := f.reloadDriver(t)
	assert.False(t, driver.IsAadhaarVerified)
}

func TestVerificationService_RejectLeavesFlagUntouched(t *testing.T) {
	f := setupVerificationTest(t)
	ctx := context.Background()

	t.Run("from pending", func(t *testing.T) {
		v := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentPAN)

		result, err := f.service.UpdateVerificationStatus(ctx, v.ID, UpdateStatusInput{
			Status:          "rejected",
			RejectionReason: strPtr("blurry"),
		})
		require.NoError(t, err)
		require.NotNil(t, result.RejectionReason)
		assert.Equal(t, "blurry", *result.RejectionReason)
		assert.NotNil(t, result.ReviewedAt)

		assert.False(t, f.reloadDriver(t).IsPanVerified)
	})

	t.Run("after verified", func(t *testing.T) {
		v := f.submit(t, model.OwnerVehicle, f.vehicle.ID, model.DocumentPUC)
		_, err := f.service.UpdateVerificationStatus(ctx, v.ID, status(model.VerificationStatusVerified))
		require.NoError(t, err)

		_, err = f.service.UpdateVerificationStatus(ctx, v.ID, status(model.VerificationStatusRejected))
		require.NoError(t, err)

		stored := f.reloadVerification(t, v.ID)
		assert.Equal(t, model.VerificationStatusRejected, stored.Status)
		assert.Nil(t, stored.RejectionReason)
		assert.True(t, f.reloadVehicle(t).IsPucVerified)
	})
}

func TestVerificationService_ReturnToPending(t *testing.T) {
	f := setupVerificationTest(t)
	ctx := context.Background()
	v := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentDriverLicense)

	_, err := f.service.UpdateVerificationStatus(ctx, v.ID, UpdateStatusInput{Status: "verified", ReviewerID: uintPtr(5)})
	require.NoError(t, err)
	require.True(t, f.reloadDriver(t).IsDriverLicenseVerified)

	result, err := f.service.UpdateVerificationStatus(ctx, v.ID, status(model.VerificationStatusPending))
	require.NoError(t, err)
	assert.Nil(t, result.ReviewedAt)
	assert.Equal(t, uint(3), result.Version)

	stored := f.reloadVerification(t, v.ID)
	assert.Equal(t, model.VerificationStatusPending, stored.Status)
	assert.Nil(t, stored.ReviewedAt)
	assert.Nil(t, stored.ReviewedBy)
	assert.False(t, f.reloadDriver(t).IsDriverLicenseVerified)
}

func TestVerificationService_ReapplyingSameStatus(t *testing.T) {
	f := setupVerificationTest(t)
	ctx := context.Background()
	v := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentAadhaar)

	first, err := f.service.UpdateVerificationStatus(ctx, v.ID, status(model.VerificationStatusVerified))
	require.NoError(t, err)
	second, err := f.service.UpdateVerificationStatus(ctx, v.ID, status(model.VerificationStatusVerified))
	require.NoError(t, err)

	assert.True(t, second.ReviewedAt.After(*first.ReviewedAt))
	assert.Equal(t, first.Version+1, second.Version)
	assert.True(t, f.reloadDriver(t).IsAadhaarVerified)
	assert.Len(t, f.publisher.published(), 2)
}

func TestVerificationService_FlagFollowsStatusSequence(t *testing.T) {
	f := setupVerificationTest(t)
	ctx := context.Background()
	v := f.submit(t, model.OwnerVehicle, f.vehicle.ID, model.DocumentInsurance)

	sequence := []struct {
		status model.VerificationStatus
		flag   bool
	}{
		{model.VerificationStatusRejected, false},
		{model.VerificationStatusVerified, true},
		{model.VerificationStatusRejected, true},
		{model.VerificationStatusPending, false},
		{model.VerificationStatusRejected, false},
		{model.VerificationStatusVerified, true},
		{model.VerificationStatusVerified, true},
		{model.VerificationStatusPending, false},
	}

	var lastUpdated time.Time
	for i, step := range sequence {
		_, err := f.service.UpdateVerificationStatus(ctx, v.ID, status(step.status))
		require.NoError(t, err, "step %d", i)

		stored := f.reloadVerification(t, v.ID)
		assert.Equal(t, step.status, stored.Status, "step %d", i)
		assert.Equal(t, step.flag, f.reloadVehicle(t).IsInsuranceVerified, "step %d", i)
		assert.Equal(t, stored.Status == model.VerificationStatusPending, stored.ReviewedAt == nil, "step %d", i)
		assert.Equal(t, uint(i+2), stored.Version, "step %d", i)
		assert.True(t, stored.UpdatedAt.After(lastUpdated), "step %d", i)
		lastUpdated = stored.UpdatedAt
	}
}

func TestVerificationService_InvalidStatusChangesNothing(t *testing.T) {
	f := setupVerificationTest(t)
	ctx := context.Background()
	v := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentAadhaar)

	for _, s := range []string{"approved", "", "VERIFIED", "Pending "} {
		_, err := f.service.UpdateVerificationStatus(ctx, v.ID, UpdateStatusInput{Status: s})
		assert.ErrorIs(t, err, ErrInvalidStatus, "status %q", s)
	}

	stored := f.reloadVerification(t, v.ID)
	assert.Equal(t, model.VerificationStatusPending, stored.Status)
	assert.Equal(t, uint(1), stored.Version)
	assert.Nil(t, stored.ReviewedAt)
	assert.False(t, f.reloadDriver(t).IsAadhaarVerified)
	assert.Empty(t, f.publisher.published())
	assert.Equal(t, float64(4), testutil.ToFloat64(f.metrics.TransitionFailures.WithLabelValues("invalid_argument")))
}

func TestVerificationService_UnknownVerification(t *testing.T) {
	f := setupVerificationTest(t)

	_, err := f.service.UpdateVerificationStatus(context.Background(), 4242, status(model.VerificationStatusVerified))
	assert.ErrorIs(t, err, ErrVerificationNotFound)
	assert.Empty(t, f.publisher.published())
}

func TestVerificationService_RejectionReasonPolicy(t *testing.T) {
	t.Run("required", func(t *testing.T) {
		f := setupVerificationTest(t, WithRejectionReasonPolicy(config.RejectionReasonRequired))
		ctx := context.Background()
		v := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentPAN)

		_, err := f.service.UpdateVerificationStatus(ctx, v.ID, status(model.VerificationStatusRejected))
		assert.ErrorIs(t, err, ErrRejectionReasonRequired)

		_, err = f.service.UpdateVerificationStatus(ctx, v.ID, UpdateStatusInput{Status: "rejected", RejectionReason: strPtr("   ")})
		assert.ErrorIs(t, err, ErrRejectionReasonRequired)
		assert.Equal(t, uint(1), f.reloadVerification(t, v.ID).Version)

		_, err = f.service.UpdateVerificationStatus(ctx, v.ID, UpdateStatusInput{Status: "rejected", RejectionReason: strPtr("name mismatch")})
		require.NoError(t, err)

		// the policy only applies to rejections
		_, err = f.service.UpdateVerificationStatus(ctx, v.ID, status(model.VerificationStatusVerified))
		assert.NoError(t, err)
	})

	t.Run("optional", func(t *testing.T) {
		f := setupVerificationTest(t)
		v := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentPAN)

		result, err := f.service.UpdateVerificationStatus(context.Background(), v.ID, status(model.VerificationStatusRejected))
		require.NoError(t, err)
		assert.Nil(t, result.RejectionReason)
	})
}

func TestVerificationService_ExpectedVersion(t *testing.T) {
	f := setupVerificationTest(t)
	ctx := context.Background()
	v := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentAadhaar)

	_, err := f.service.UpdateVerificationStatus(ctx, v.ID, UpdateStatusInput{Status: "verified", ExpectedVersion: uintPtr(1)})
	require.NoError(t, err)

	// a second reviewer still holding version 1
	_, err = f.service.UpdateVerificationStatus(ctx, v.ID, UpdateStatusInput{
		Status:          "rejected",
		RejectionReason: strPtr("expired"),
		ExpectedVersion: uintPtr(1),
	})
	assert.ErrorIs(t, err, ErrVerificationConflict)

	stored := f.reloadVerification(t, v.ID)
	assert.Equal(t, model.VerificationStatusVerified, stored.Status)
	assert.Equal(t, uint(2), stored.Version)
	assert.Nil(t, stored.RejectionReason)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.TransitionFailures.WithLabelValues("conflict")))

	result, err := f.service.UpdateVerificationStatus(ctx, v.ID, UpdateStatusInput{Status: "rejected", ExpectedVersion: uintPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, uint(3), result.Version)
}

func TestVerificationService_MissingOwnerRollsBack(t *testing.T) {
	f := setupVerificationTest(t)
	v := f.submit(t, model.OwnerDriver, 9999, model.DocumentAadhaar)

	_, err := f.service.UpdateVerificationStatus(context.Background(), v.ID, status(model.VerificationStatusVerified))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOwnerNotFound)

	stored := f.reloadVerification(t, v.ID)
	assert.Equal(t, model.VerificationStatusPending, stored.Status)
	assert.Equal(t, uint(1), stored.Version)
	assert.Nil(t, stored.ReviewedAt)
	assert.Empty(t, f.publisher.published())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.TransitionFailures.WithLabelValues("transaction")))
}

func TestVerificationService_FlagWriteFailureRollsBack(t *testing.T) {
	f := setupVerificationTest(t)
	v := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentPAN)

	errFlagWrite := errors.New("flag write failed")
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("test:fail_driver_flags", func(tx *gorm.DB) {
		if tx.Statement.Table == "drivers" {
			tx.AddError(errFlagWrite)
		}
	}))

	_, err := f.service.UpdateVerificationStatus(context.Background(), v.ID, status(model.VerificationStatusVerified))
	assert.ErrorIs(t, err, errFlagWrite)

	stored := f.reloadVerification(t, v.ID)
	assert.Equal(t, model.VerificationStatusPending, stored.Status)
	assert.Equal(t, uint(1), stored.Version)
	assert.False(t, f.reloadDriver(t).IsPanVerified)
	assert.Empty(t, f.publisher.published())
}

func TestVerificationService_DocumentTypeWithoutFlag(t *testing.T) {
	f := setupVerificationTest(t)
	// an rc document cannot belong to a driver
	v := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentRC)

	_, err := f.service.UpdateVerificationStatus(context.Background(), v.ID, status(model.VerificationStatusVerified))
	var unknown *repository.UnknownFlagError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, model.OwnerDriver, unknown.OwnerType)

	assert.Equal(t, model.VerificationStatusPending, f.reloadVerification(t, v.ID).Status)

	// rejection writes no flag, so it succeeds
	_, err = f.service.UpdateVerificationStatus(context.Background(), v.ID, status(model.VerificationStatusRejected))
	assert.NoError(t, err)
}

func TestVerificationService_PublishFailureKeepsTransition(t *testing.T) {
	f := setupVerificationTest(t)
	f.publisher.err = errors.New("redis down")
	v := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentAadhaar)

	_, err := f.service.UpdateVerificationStatus(context.Background(), v.ID, status(model.VerificationStatusVerified))
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatusVerified, f.reloadVerification(t, v.ID).Status)
	assert.True(t, f.reloadDriver(t).IsAadhaarVerified)
}

func TestVerificationService_ListPending(t *testing.T) {
	f := setupVerificationTest(t)
	ctx := context.Background()

	first := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentAadhaar)
	second := f.submit(t, model.OwnerVehicle, f.vehicle.ID, model.DocumentRC)
	third := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentPAN)

	pending, err := f.service.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, []uint{third.ID, second.ID, first.ID}, []uint{pending[0].ID, pending[1].ID, pending[2].ID})

	rc := pending[1]
	assert.Equal(t, model.OwnerVehicle, rc.OwnerType)
	assert.Equal(t, f.vehicle.ID, rc.OwnerID)
	assert.Equal(t, model.DocumentRC, rc.DocumentType)
	assert.Equal(t, "DOC-rc", rc.DocumentNumber)
	assert.Equal(t, "image/jpeg", rc.FileMime)
	assert.Equal(t, int64(204800), rc.FileSize)
	assert.Equal(t, fmt.Sprintf("https://docs.ridehail.test/documents/%d", second.DocumentID), rc.DocumentURL)
	assert.Equal(t, rc.CreatedAt, rc.SubmittedAt)

	_, err = f.service.UpdateVerificationStatus(ctx, second.ID, status(model.VerificationStatusVerified))
	require.NoError(t, err)

	pending, err = f.service.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	for _, p := range pending {
		assert.Equal(t, model.VerificationStatusPending, p.Status)
	}
}

func TestVerificationService_ListHistory(t *testing.T) {
	f := setupVerificationTest(t)
	ctx := context.Background()

	history, err := f.service.ListHistory(ctx)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)

	a := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentAadhaar)
	b := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentPAN)
	c := f.submit(t, model.OwnerVehicle, f.vehicle.ID, model.DocumentPUC)
	f.submit(t, model.OwnerVehicle, f.vehicle.ID, model.DocumentRC) // stays pending

	_, err = f.service.UpdateVerificationStatus(ctx, a.ID, status(model.VerificationStatusVerified))
	require.NoError(t, err)
	_, err = f.service.UpdateVerificationStatus(ctx, b.ID, UpdateStatusInput{Status: "rejected", RejectionReason: strPtr("cropped")})
	require.NoError(t, err)
	_, err = f.service.UpdateVerificationStatus(ctx, c.ID, status(model.VerificationStatusVerified))
	require.NoError(t, err)

	history, err = f.service.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []uint{c.ID, b.ID, a.ID}, []uint{history[0].ID, history[1].ID, history[2].ID})
	require.NotNil(t, history[1].RejectionReason)
	assert.Equal(t, "cropped", *history[1].RejectionReason)

	// re-reviewing a moves it to the top
	_, err = f.service.UpdateVerificationStatus(ctx, a.ID, status(model.VerificationStatusRejected))
	require.NoError(t, err)
	// back to pending leaves history
	_, err = f.service.UpdateVerificationStatus(ctx, b.ID, status(model.VerificationStatusPending))
	require.NoError(t, err)

	history, err = f.service.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, a.ID, history[0].ID)
	assert.Equal(t, c.ID, history[1].ID)
}

func TestVerificationService_ListEntities(t *testing.T) {
	f := setupVerificationTest(t)

	listing, err := f.service.ListEntities(context.Background())
	require.NoError(t, err)
	require.Len(t, listing.Drivers, 1)
	require.Len(t, listing.Vehicles, 1)
	assert.Equal(t, "Ravi Kumar", listing.Drivers[0].User.Name)
	assert.Equal(t, "KA01AB1234", listing.Vehicles[0].RegistrationNumber)
}

func TestVerificationService_GetEntityVerifications(t *testing.T) {
	f := setupVerificationTest(t)
	ctx := context.Background()

	aadhaar := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentAadhaar)
	f.submit(t, model.OwnerVehicle, f.vehicle.ID, model.DocumentRC)

	t.Run("driver", func(t *testing.T) {
		result, err := f.service.GetEntityVerifications(ctx, "driver", f.driver.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OwnerDriver, result.EntityType)

		driver, ok := result.EntityDetails.(*model.Driver)
		require.True(t, ok)
		assert.Equal(t, f.driver.ID, driver.ID)

		require.Len(t, result.Verifications, 1)
		assert.Equal(t, aadhaar.ID, result.Verifications[0].ID)
	})

	t.Run("vehicle without documents of its own", func(t *testing.T) {
		vehicle := &model.Vehicle{RegistrationNumber: "MH12XY0001", VehicleType: model.VehicleTypeAuto}
		require.NoError(t, f.db.Create(vehicle).Error)

		result, err := f.service.GetEntityVerifications(ctx, "vehicle", vehicle.ID)
		require.NoError(t, err)
		assert.NotNil(t, result.Verifications)
		assert.Empty(t, result.Verifications)
	})

	t.Run("unknown entity type", func(t *testing.T) {
		_, err := f.service.GetEntityVerifications(ctx, "bus", f.driver.ID)
		assert.ErrorIs(t, err, ErrInvalidEntityType)
	})

	t.Run("missing entity", func(t *testing.T) {
		_, err := f.service.GetEntityVerifications(ctx, "vehicle", 31337)
		assert.ErrorIs(t, err, ErrEntityNotFound)
	})
}

func TestVerificationService_GetDocument(t *testing.T) {
	f := setupVerificationTest(t)
	ctx := context.Background()

	v := f.submit(t, model.OwnerVehicle, f.vehicle.ID, model.DocumentInsurance)

	doc, err := f.service.GetDocument(ctx, v.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentInsurance, doc.DocumentType)
	assert.Equal(t, f.vehicle.ID, doc.OwnerID)

	_, err = f.service.GetDocument(ctx, 31337)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestVerificationService_AuditFlagConsistency(t *testing.T) {
	f := setupVerificationTest(t)
	ctx := context.Background()

	verified := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentAadhaar)
	pending := f.submit(t, model.OwnerVehicle, f.vehicle.ID, model.DocumentPUC)
	rejected := f.submit(t, model.OwnerDriver, f.driver.ID, model.DocumentPAN)

	_, err := f.service.UpdateVerificationStatus(ctx, verified.ID, status(model.VerificationStatusVerified))
	require.NoError(t, err)
	_, err = f.service.UpdateVerificationStatus(ctx, rejected.ID, status(model.VerificationStatusRejected))
	require.NoError(t, err)

	report, err := f.service.AuditFlagConsistency(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Drift)

	// out-of-band writes behind the service's back
	require.NoError(t, f.db.Model(&model.Driver{}).Where("id = ?", f.driver.ID).
		Updates(map[string]interface{}{"is_aadhaar_verified": false, "is_pan_verified": true}).Error)
	require.NoError(t, f.db.Model(&model.Vehicle{}).Where("id = ?", f.vehicle.ID).
		Update("is_puc_verified", true).Error)

	report, err = f.service.AuditFlagConsistency(ctx)
	require.NoError(t, err)
	require.Len(t, report.Drift, 2)

	assert.Equal(t, verified.ID, report.Drift[0].VerificationID)
	assert.Equal(t, model.OwnerDriver, report.Drift[0].OwnerType)
	assert.False(t, report.Drift[0].Flag)

	assert.Equal(t, pending.ID, report.Drift[1].VerificationID)
	assert.Equal(t, model.DocumentPUC, report.Drift[1].DocumentType)
	assert.True(t, report.Drift[1].Flag)

	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.FlagDrift))
}
