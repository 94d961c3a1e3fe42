package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"freight/internal/domain"
	internalRedis "freight/internal/redis"
	"freight/internal/repository"
	"freight/internal/repository/postgres"
)

// advisoryLockTTL bounds how long a redis advisory lock may outlive its
// request if the release is lost.
const advisoryLockTTL = 10 * time.Second

// TripService owns the trip lifecycle: creation with exclusivity
// enforcement, phase-gated load/receive documentation, cancellation and
// reassignment. Every operation that writes documentation and changes
// status does both inside one transaction.
type TripService struct {
	coord      *Coordinator
	guard      *ExclusivityGuard
	tripRepo   repository.TripRepository
	cardRepo   repository.CardRepository
	orgRepo    repository.OrgRepository
	driverRepo repository.DriverRepository
	truckRepo  repository.TruckRepository
	locker     internalRedis.ResourceLocker
	cache      internalRedis.EntityCache
	notifier   Notifier
	waybill    *WaybillService
	logger     *zap.Logger
}

// NewTripService creates a new TripService. locker, cache, notifier and
// waybill may be nil; the service degrades to the transactional path.
func NewTripService(
	coord *Coordinator,
	guard *ExclusivityGuard,
	tripRepo repository.TripRepository,
	cardRepo repository.CardRepository,
	orgRepo repository.OrgRepository,
	driverRepo repository.DriverRepository,
	truckRepo repository.TruckRepository,
	locker internalRedis.ResourceLocker,
	cache internalRedis.EntityCache,
	notifier Notifier,
	waybill *WaybillService,
	logger *zap.Logger,
) *TripService {
	return &TripService{
		coord:      coord,
		guard:      guard,
		tripRepo:   tripRepo,
		cardRepo:   cardRepo,
		orgRepo:    orgRepo,
		driverRepo: driverRepo,
		truckRepo:  truckRepo,
		locker:     locker,
		cache:      cache,
		notifier:   notifier,
		waybill:    waybill,
		logger:     logger,
	}
}

// CreateTripRequest contains the parameters for creating a trip.
type CreateTripRequest struct {
	SourceOrgID      string
	DestinationOrgID string
	ReceiverPhone    string
	DriverID         string
	TruckID          string
	StartPoint       string
	EndPoint         string
	StartAddress     *domain.Address
	EndAddress       *domain.Address
	PaymentTerms     *domain.PaymentTerms
}

// CreateTrip validates the referenced org/driver/truck, reserves the
// driver and truck through the exclusivity guard inside the same
// transaction as the insert, and optionally posts the driver-payment
// liability in that transaction.
func (s *TripService) CreateTrip(ctx context.Context, actor domain.Actor, req CreateTripRequest) (*domain.Trip, error) {
	if err := validateTripRequest(req); err != nil {
		return nil, err
	}

	if _, err := s.orgRepo.GetByID(ctx, req.SourceOrgID); err != nil {
		return nil, err
	}
	if req.DestinationOrgID != "" {
		if _, err := s.getOrg(ctx, req.DestinationOrgID); err != nil {
			return nil, err
		}
	}
	driver, err := s.getDriver(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	if _, err := s.getTruck(ctx, req.TruckID); err != nil {
		return nil, err
	}

	// Advisory locks fail racing creations fast; the transactional guard
	// below is still the authority.
	release, busyErr := s.tryAdvisoryLocks(ctx, req.DriverID, req.TruckID)
	if busyErr != nil {
		return nil, busyErr
	}
	defer release()

	now := time.Now()
	trip := &domain.Trip{
		ID:               uuid.New().String(),
		SourceOrgID:      req.SourceOrgID,
		DestinationOrgID: req.DestinationOrgID,
		ReceiverPhone:    req.ReceiverPhone,
		DriverID:         req.DriverID,
		TruckID:          req.TruckID,
		Status:           domain.TripStatusCreated,
		StartPoint:       req.StartPoint,
		EndPoint:         req.EndPoint,
		StartAddress:     req.StartAddress,
		EndAddress:       req.EndAddress,
		PaymentTerms:     req.PaymentTerms,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.coord.InTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		if err := s.guard.CheckAndReserve(txCtx, tx, trip.DriverID, trip.TruckID, ""); err != nil {
			return err
		}

		if err := postgres.NewTripRepositoryWithTx(tx).Create(txCtx, trip); err != nil {
			return err
		}

		if trip.PaymentTerms != nil {
			return postDriverLiability(txCtx, tx, actor, trip, driver.OrgID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, trip)
	return trip, nil
}

// postDriverLiability posts the trip's driver-payment liability as
// invoices owed to the driver's organization, inside the trip creation
// transaction.
func postDriverLiability(ctx context.Context, tx *sql.Tx, actor domain.Actor, trip *domain.Trip, driverOrgID string) error {
	terms := trip.PaymentTerms
	reference := "driver-payment:" + trip.ID

	post := func(payerOrgID string, amount int64) error {
		return PostDocumentTx(ctx, tx, &domain.Document{
			ID:                uuid.New().String(),
			Kind:              domain.DocumentInvoice,
			OwnerOrgID:        driverOrgID,
			CounterpartyOrgID: payerOrgID,
			Amount:            amount,
			Reference:         reference,
			CreatedBy:         actor.UserID,
			CreatedAt:         time.Now(),
		})
	}

	switch terms.Payer {
	case domain.PayerSource:
		return post(trip.SourceOrgID, terms.Amount)
	case domain.PayerDestination:
		return post(trip.DestinationOrgID, terms.Amount)
	case domain.PayerSplit:
		if err := post(trip.SourceOrgID, terms.SplitSourceAmount); err != nil {
			return err
		}
		return post(trip.DestinationOrgID, terms.SplitDestAmount)
	default:
		return ErrInvalidTripRequest
	}
}

// CreateLoadCard inserts the load card and advances the trip to LOADED
// as one atomic unit. A card without the status advance, or the reverse,
// is never observable.
func (s *TripService) CreateLoadCard(ctx context.Context, actor domain.Actor, tripID string, items []domain.LoadItem, evidence []string) (*domain.LoadCard, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if err := validateLoadItems(items); err != nil {
		return nil, err
	}
	if len(evidence) == 0 {
		return nil, fmt.Errorf("%w: photographic evidence required", ErrInvalidCardInput)
	}

	card := &domain.LoadCard{
		ID:        uuid.New().String(),
		TripID:    tripID,
		Items:     items,
		Evidence:  evidence,
		CreatedBy: actor.UserID,
		CreatedAt: time.Now(),
	}

	var trip *domain.Trip
	err := s.coord.InTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		txTripRepo := postgres.NewTripRepositoryWithTx(tx)

		var err error
		trip, err = txTripRepo.GetByIDForUpdate(txCtx, tripID)
		if err != nil {
			return err
		}
		if trip.Status != domain.TripStatusCreated {
			return ErrInvalidState
		}

		if err := postgres.NewCardRepositoryWithTx(tx).CreateLoadCard(txCtx, card); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyExists
			}
			return err
		}

		trip.Status = domain.TripStatusLoaded
		return txTripRepo.UpdateStatus(txCtx, tripID, domain.TripStatusLoaded)
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, trip)
	return card, nil
}

// TransitionStatus moves a trip to IN_TRANSIT or REACHED. Re-applying
// the current status is a no-op success so client retries are harmless.
func (s *TripService) TransitionStatus(ctx context.Context, actor domain.Actor, tripID string, target domain.TripStatus) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if target != domain.TripStatusInTransit && target != domain.TripStatusReached {
		return nil, ErrInvalidState
	}

	var trip *domain.Trip
	var applied bool
	err := s.coord.InTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		txTripRepo := postgres.NewTripRepositoryWithTx(tx)

		var err error
		trip, err = txTripRepo.GetByIDForUpdate(txCtx, tripID)
		if err != nil {
			return err
		}

		if trip.Status == target {
			applied = false
			return nil
		}
		if !domain.CanTransition(trip.Status, target) {
			return ErrInvalidState
		}

		applied = true
		trip.Status = target
		return txTripRepo.UpdateStatus(txCtx, tripID, target)
	})
	if err != nil {
		return nil, err
	}

	if applied {
		s.notifyStatus(ctx, trip)
	}
	return trip, nil
}

// CreateReceiveCard checks every line against the load card, computes
// per-item shortage, and advances the trip to COMPLETED atomically with
// the insert.
func (s *TripService) CreateReceiveCard(ctx context.Context, actor domain.Actor, tripID string, lines []domain.ReceiveLine) (*domain.ReceiveCard, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line required", ErrInvalidCardInput)
	}

	var trip *domain.Trip
	var card *domain.ReceiveCard
	err := s.coord.InTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		txTripRepo := postgres.NewTripRepositoryWithTx(tx)
		txCardRepo := postgres.NewCardRepositoryWithTx(tx)

		var err error
		trip, err = txTripRepo.GetByIDForUpdate(txCtx, tripID)
		if err != nil {
			return err
		}
		if trip.Status != domain.TripStatusReached {
			return ErrInvalidState
		}

		loadCard, err := txCardRepo.GetLoadCardByTripID(txCtx, tripID)
		if err != nil {
			return err
		}

		items, err := buildReceiveItems(loadCard.Items, lines)
		if err != nil {
			return err
		}

		card = &domain.ReceiveCard{
			ID:        uuid.New().String(),
			TripID:    tripID,
			Items:     items,
			CreatedBy: actor.UserID,
			CreatedAt: time.Now(),
		}
		if err := txCardRepo.CreateReceiveCard(txCtx, card); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyExists
			}
			return err
		}

		trip.Status = domain.TripStatusCompleted
		return txTripRepo.UpdateStatus(txCtx, tripID, domain.TripStatusCompleted)
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, trip)

	// Waybill generation is best-effort, after commit.
	if s.waybill != nil {
		if _, err := s.waybill.Generate(ctx, trip, card); err != nil {
			s.logger.Warn("waybill generation failed",
				zap.String("trip_id", trip.ID),
				zap.Error(err),
			)
		}
	}

	return card, nil
}

// buildReceiveItems pairs each received line with its load line by item
// name and computes shortage = loaded − received. Units must agree before
// any arithmetic happens.
func buildReceiveItems(loadItems []domain.LoadItem, lines []domain.ReceiveLine) ([]domain.ReceiveItem, error) {
	byName := make(map[string]domain.LoadItem, len(loadItems))
	for _, item := range loadItems {
		byName[item.Name] = item
	}

	items := make([]domain.ReceiveItem, 0, len(lines))
	for _, line := range lines {
		if line.Name == "" || line.ReceivedQuantity < 0 {
			return nil, fmt.Errorf("%w: bad line %q", ErrInvalidCardInput, line.Name)
		}

		loaded, ok := byName[line.Name]
		if !ok {
			return nil, fmt.Errorf("%w: no load line for item %q", ErrInvalidCardInput, line.Name)
		}
		if line.Unit != loaded.Unit {
			return nil, &UnitMismatchError{
				Item:        line.Name,
				LoadUnit:    loaded.Unit,
				ReceiveUnit: line.Unit,
			}
		}

		items = append(items, domain.ReceiveItem{
			Name:             line.Name,
			LoadedQuantity:   loaded.Quantity,
			ReceivedQuantity: line.ReceivedQuantity,
			Unit:             line.Unit,
			Shortage:         loaded.Quantity - line.ReceivedQuantity,
		})
	}

	return items, nil
}

// CancelTrip cancels a trip that has not yet reached its destination.
// Cancellation releases the driver/truck claim implicitly: exclusivity is
// derived from status.
func (s *TripService) CancelTrip(ctx context.Context, actor domain.Actor, tripID, reason string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	var trip *domain.Trip
	err := s.coord.InTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		txTripRepo := postgres.NewTripRepositoryWithTx(tx)

		var err error
		trip, err = txTripRepo.GetByIDForUpdate(txCtx, tripID)
		if err != nil {
			return err
		}
		if !trip.Status.IsActive() {
			return ErrInvalidState
		}

		trip.Status = domain.TripStatusCancelled
		trip.CancelReason = reason
		trip.CancelledAt = time.Now()
		return txTripRepo.Cancel(txCtx, tripID, reason)
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, trip)
	return trip, nil
}

// ChangeAssignmentRequest contains the parameters for a reassignment.
// Empty NewDriverID/NewTruckID keep the current assignment.
type ChangeAssignmentRequest struct {
	TripID      string
	NewDriverID string
	NewTruckID  string
	Reason      string
}

// ChangeAssignment swaps the driver and/or truck of an active trip,
// re-running the exclusivity guard for the new resources before
// committing, and records an audit entry.
func (s *TripService) ChangeAssignment(ctx context.Context, actor domain.Actor, req ChangeAssignmentRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.NewDriverID == "" && req.NewTruckID == "" {
		return nil, ErrInvalidTripRequest
	}

	if req.NewDriverID != "" {
		if _, err := s.getDriver(ctx, req.NewDriverID); err != nil {
			return nil, err
		}
	}
	if req.NewTruckID != "" {
		if _, err := s.getTruck(ctx, req.NewTruckID); err != nil {
			return nil, err
		}
	}

	release, busyErr := s.tryAdvisoryLocks(ctx, req.NewDriverID, req.NewTruckID)
	if busyErr != nil {
		return nil, busyErr
	}
	defer release()

	var trip *domain.Trip
	var change *domain.AssignmentChange
	err := s.coord.InTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		txTripRepo := postgres.NewTripRepositoryWithTx(tx)

		var err error
		trip, err = txTripRepo.GetByIDForUpdate(txCtx, req.TripID)
		if err != nil {
			return err
		}
		if !trip.Status.IsActive() {
			return ErrInvalidState
		}

		newDriverID := trip.DriverID
		if req.NewDriverID != "" {
			newDriverID = req.NewDriverID
		}
		newTruckID := trip.TruckID
		if req.NewTruckID != "" {
			newTruckID = req.NewTruckID
		}

		if err := s.guard.CheckAndReserve(txCtx, tx, newDriverID, newTruckID, trip.ID); err != nil {
			return err
		}

		change = &domain.AssignmentChange{
			ID:          uuid.New().String(),
			TripID:      trip.ID,
			OldDriverID: trip.DriverID,
			NewDriverID: newDriverID,
			OldTruckID:  trip.TruckID,
			NewTruckID:  newTruckID,
			Reason:      req.Reason,
			ChangedBy:   actor.UserID,
			CreatedAt:   time.Now(),
		}

		if err := txTripRepo.UpdateAssignment(txCtx, trip.ID, newDriverID, newTruckID); err != nil {
			return err
		}
		if err := txTripRepo.CreateAssignmentChange(txCtx, change); err != nil {
			return err
		}

		trip.DriverID = newDriverID
		trip.TruckID = newTruckID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyAssignmentChanged(ctx, change); err != nil {
			s.logger.Warn("assignment notification failed", zap.Error(err))
		}
	}
	return trip, nil
}

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	return s.tripRepo.GetByID(ctx, tripID)
}

// GetAllTrips retrieves recent trips.
func (s *TripService) GetAllTrips(ctx context.Context) ([]*domain.Trip, error) {
	return s.tripRepo.GetAll(ctx)
}

// GetLoadCard retrieves the load card of a trip.
func (s *TripService) GetLoadCard(ctx context.Context, tripID string) (*domain.LoadCard, error) {
	return s.cardRepo.GetLoadCardByTripID(ctx, tripID)
}

// GetReceiveCard retrieves the receive card of a trip.
func (s *TripService) GetReceiveCard(ctx context.Context, tripID string) (*domain.ReceiveCard, error) {
	return s.cardRepo.GetReceiveCardByTripID(ctx, tripID)
}

// tryAdvisoryLocks acquires short-TTL locks for the given resources.
// A missed lock turns into ResourceBusy only when an active conflicting
// trip actually exists; otherwise the transactional guard decides.
func (s *TripService) tryAdvisoryLocks(ctx context.Context, driverID, truckID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	var releases []func()
	release := func() {
		for _, r := range releases {
			r()
		}
	}

	if driverID != "" {
		ok, err := s.locker.AcquireDriverLock(ctx, driverID, advisoryLockTTL)
		if err != nil {
			s.logger.Warn("driver advisory lock unavailable", zap.Error(err))
		} else if !ok {
			if busy := s.findBusy(ctx, driverID, ""); busy != nil {
				return release, busy
			}
		} else {
			releases = append(releases, func() { _ = s.locker.ReleaseDriverLock(ctx, driverID) })
		}
	}

	if truckID != "" {
		ok, err := s.locker.AcquireTruckLock(ctx, truckID, advisoryLockTTL)
		if err != nil {
			s.logger.Warn("truck advisory lock unavailable", zap.Error(err))
		} else if !ok {
			if busy := s.findBusy(ctx, "", truckID); busy != nil {
				release()
				return func() {}, busy
			}
		} else {
			releases = append(releases, func() { _ = s.locker.ReleaseTruckLock(ctx, truckID) })
		}
	}

	return release, nil
}

// findBusy looks up the active trip currently holding the resource.
func (s *TripService) findBusy(ctx context.Context, driverID, truckID string) error {
	conflicts, err := s.tripRepo.FindActiveByResourceForUpdate(ctx, driverID, truckID, "")
	if err != nil || len(conflicts) == 0 {
		return nil
	}

	conflict := conflicts[0]
	if driverID != "" && conflict.DriverID == driverID {
		return &ResourceBusyError{Resource: "driver", ResourceID: driverID, ConflictingTripID: conflict.ID}
	}
	return &ResourceBusyError{Resource: "truck", ResourceID: truckID, ConflictingTripID: conflict.ID}
}

func (s *TripService) notifyStatus(ctx context.Context, trip *domain.Trip) {
	if s.notifier == nil || trip == nil {
		return
	}
	if err := s.notifier.NotifyTripStatusChanged(ctx, trip); err != nil {
		s.logger.Warn("trip status notification failed",
			zap.String("trip_id", trip.ID),
			zap.Error(err),
		)
	}
}

// getOrg resolves an organization, consulting the cache first.
func (s *TripService) getOrg(ctx context.Context, orgID string) (*domain.Organization, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetOrg(ctx, orgID); err == nil && cached != nil {
			return &domain.Organization{ID: cached.ID, Name: cached.Name}, nil
		}
	}

	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetOrg(ctx, &internalRedis.CachedOrg{ID: org.ID, Name: org.Name})
	}
	return org, nil
}

func (s *TripService) getDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetDriver(ctx, driverID); err == nil && cached != nil {
			return &domain.Driver{ID: cached.ID, OrgID: cached.OrgID, Name: cached.Name}, nil
		}
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetDriver(ctx, &internalRedis.CachedDriver{ID: driver.ID, OrgID: driver.OrgID, Name: driver.Name})
	}
	return driver, nil
}

func (s *TripService) getTruck(ctx context.Context, truckID string) (*domain.Truck, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetTruck(ctx, truckID); err == nil && cached != nil {
			return &domain.Truck{ID: cached.ID, OrgID: cached.OrgID, PlateNo: cached.PlateNo}, nil
		}
	}

	truck, err := s.truckRepo.GetByID(ctx, truckID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetTruck(ctx, &internalRedis.CachedTruck{ID: truck.ID, OrgID: truck.OrgID, PlateNo: truck.PlateNo})
	}
	return truck, nil
}

// validateTripRequest enforces the structural invariants of a creation
// request, including the exactly-one-of destination rule.
func validateTripRequest(req CreateTripRequest) error {
	if req.SourceOrgID == "" {
		return ErrInvalidOrgID
	}
	if (req.DestinationOrgID == "") == (req.ReceiverPhone == "") {
		return fmt.Errorf("%w: exactly one of destination org and receiver phone must be set", ErrInvalidTripRequest)
	}
	if req.DriverID == "" || req.TruckID == "" {
		return fmt.Errorf("%w: driver and truck are required", ErrInvalidTripRequest)
	}

	if terms := req.PaymentTerms; terms != nil {
		if terms.Amount <= 0 {
			return ErrInvalidAmount
		}
		switch terms.Payer {
		case domain.PayerSource:
		case domain.PayerDestination:
			if req.DestinationOrgID == "" {
				return fmt.Errorf("%w: guest receivers cannot carry payment liability", ErrInvalidTripRequest)
			}
		case domain.PayerSplit:
			if req.DestinationOrgID == "" {
				return fmt.Errorf("%w: guest receivers cannot carry payment liability", ErrInvalidTripRequest)
			}
			if terms.SplitSourceAmount <= 0 || terms.SplitDestAmount <= 0 ||
				terms.SplitSourceAmount+terms.SplitDestAmount != terms.Amount {
				return ErrInvalidAmount
			}
		default:
			return fmt.Errorf("%w: unknown payer %q", ErrInvalidTripRequest, terms.Payer)
		}
	}

	return nil
}

// validateLoadItems rejects empty or malformed load lines.
func validateLoadItems(items []domain.LoadItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: at least one item required", ErrInvalidCardInput)
	}
	for _, item := range items {
		if item.Name == "" || item.Unit == "" || item.Quantity <= 0 {
			return fmt.Errorf("%w: bad item %q", ErrInvalidCardInput, item.Name)
		}
	}
	return nil
}
