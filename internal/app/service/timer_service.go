package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/merchkit/countdown/internal/app/model"
	"github.com/merchkit/countdown/internal/app/repository"
	"github.com/merchkit/countdown/internal/infra/metrics"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var (
	// ErrInvalidInput covers missing or malformed fields in a write payload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidRange signals that endTime does not come after startTime.
	ErrInvalidRange = errors.New("endTime must be after startTime")
	// ErrForbidden signals a store-domain mismatch on a mutating call.
	ErrForbidden = errors.New("timer belongs to another store")
	// ErrStoreUnavailable wraps persistence failures so handlers never leak
	// driver details.
	ErrStoreUnavailable = errors.New("timer store unavailable")
)

// ValidationError aggregates every field-level failure found in a payload.
// Kind is either ErrInvalidInput or ErrInvalidRange.
type ValidationError struct {
	Kind    error
	Details []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, strings.Join(e.Details, "; "))
}

func (e *ValidationError) Unwrap() error { return e.Kind }

func invalidInput(details ...string) error {
	return &ValidationError{Kind: ErrInvalidInput, Details: details}
}

func invalidRange() error {
	return &ValidationError{Kind: ErrInvalidRange, Details: []string{"endTime must be after startTime"}}
}

// TimerService enforces timer lifecycle rules before any write reaches the
// store and answers the storefront active-timer query.
type TimerService interface {
	Create(ctx context.Context, input CreateTimerInput) (*model.Timer, error)
	ListActive(ctx context.Context, storeDomain, productID string, now time.Time) ([]model.Timer, error)
	ListByStore(ctx context.Context, storeDomain string, limit, offset int) ([]model.Timer, error)
	Update(ctx context.Context, id, sessionStore string, patch UpdateTimerInput) (*model.Timer, error)
	Delete(ctx context.Context, id, sessionStore string) error
}

// CreateTimerInput captures a candidate timer as submitted. StartTime and
// EndTime are RFC 3339 strings; parsing is part of validation.
type CreateTimerInput struct {
	StoreDomain    string
	ProductID      string
	StartTime      string
	EndTime        string
	Message        *string
	Styles         datatypes.JSONMap
	UrgencyMinutes *int
	Active         *bool
	Metadata       datatypes.JSONMap
}

// UpdateTimerInput is a field-by-field patch. Nil means "leave unchanged".
// StoreDomain is deliberately absent: ownership is immutable.
type UpdateTimerInput struct {
	ProductID      *string
	StartTime      *string
	EndTime        *string
	Message        *string
	Styles         datatypes.JSONMap
	UrgencyMinutes *int
	Active         *bool
	Metadata       datatypes.JSONMap
}

// Empty reports whether the patch carries no fields at all.
func (in UpdateTimerInput) Empty() bool {
	return in.ProductID == nil &&
		in.StartTime == nil &&
		in.EndTime == nil &&
		in.Message == nil &&
		in.Styles == nil &&
		in.UrgencyMinutes == nil &&
		in.Active == nil &&
		in.Metadata == nil
}

// Deps bundles the collaborators a timer service needs. Repo is required;
// the rest degrade gracefully when nil.
type Deps struct {
	Repo      repository.TimerRepository
	Cache     *ActiveCache
	Filter    *ProductFilter
	Publisher *ChangePublisher
	Logger    *zap.Logger
}

type timerService struct {
	repo      repository.TimerRepository
	cache     *ActiveCache
	filter    *ProductFilter
	publisher *ChangePublisher
	logger    *zap.Logger
}

// NewTimerService returns a service implementation backed by the given deps.
func NewTimerService(deps Deps) TimerService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &timerService{
		repo:      deps.Repo,
		cache:     deps.Cache,
		filter:    deps.Filter,
		publisher: deps.Publisher,
		logger:    logger,
	}
}

// IsEffectivelyActive reports whether the timer should be shown at instant
// now: the merchant flag is set and now falls inside the window, bounds
// inclusive on both ends.
func IsEffectivelyActive(t *model.Timer, now time.Time) bool {
	return t.Active && !now.Before(t.StartTime) && !now.After(t.EndTime)
}

func parseInstant(field, value string, details *[]string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		*details = append(*details, fmt.Sprintf("%s is not a valid RFC 3339 instant", field))
		return time.Time{}, false
	}
	return t.UTC(), true
}

func (s *timerService) Create(ctx context.Context, input CreateTimerInput) (*model.Timer, error) {
	var details []string

	if input.StoreDomain == "" {
		details = append(details, "missing storeDomain")
	}
	if input.ProductID == "" {
		details = append(details, "missing productId")
	}

	var start, end time.Time
	startOK, endOK := false, false
	if input.StartTime == "" {
		details = append(details, "missing startTime")
	} else {
		start, startOK = parseInstant("startTime", input.StartTime, &details)
	}
	if input.EndTime == "" {
		details = append(details, "missing endTime")
	} else {
		end, endOK = parseInstant("endTime", input.EndTime, &details)
	}

	if input.UrgencyMinutes != nil && *input.UrgencyMinutes < 0 {
		details = append(details, "urgencyMinutes must be >= 0")
	}

	if len(details) > 0 {
		return nil, invalidInput(details...)
	}
	if startOK && endOK && !end.After(start) {
		return nil, invalidRange()
	}

	timer := &model.Timer{
		ID:             uuid.New().String(),
		StoreDomain:    input.StoreDomain,
		ProductID:      input.ProductID,
		StartTime:      start,
		EndTime:        end,
		Message:        "",
		Styles:         datatypes.JSONMap{},
		UrgencyMinutes: model.DefaultUrgencyMinutes,
		Active:         true,
		Metadata:       datatypes.JSONMap{},
	}
	if input.Message != nil {
		timer.Message = *input.Message
	}
	if input.Styles != nil {
		timer.Styles = input.Styles
	}
	if input.UrgencyMinutes != nil {
		timer.UrgencyMinutes = *input.UrgencyMinutes
	}
	if input.Active != nil {
		timer.Active = *input.Active
	}
	if input.Metadata != nil {
		timer.Metadata = input.Metadata
	}

	if err := s.repo.Create(ctx, timer); err != nil {
		metrics.TimerWrites.WithLabelValues(model.TimerOpCreate, "error").Inc()
		return nil, fmt.Errorf("%w: create: %v", ErrStoreUnavailable, err)
	}

	metrics.TimerWrites.WithLabelValues(model.TimerOpCreate, "ok").Inc()
	s.afterWrite(ctx, model.TimerOpCreate, timer, "")
	return timer, nil
}

func (s *timerService) ListActive(ctx context.Context, storeDomain, productID string, now time.Time) ([]model.Timer, error) {
	if storeDomain == "" {
		return nil, invalidInput("missing store domain")
	}

	// The bloom filter only answers per-product membership; store-wide
	// listings always go through cache or store.
	if productID != "" && s.filter != nil && !s.filter.MayHaveTimer(storeDomain, productID) {
		metrics.ActiveLookups.WithLabelValues("filtered").Inc()
		return []model.Timer{}, nil
	}

	if s.cache != nil {
		if timers, ok := s.cache.Get(ctx, storeDomain, productID); ok {
			metrics.ActiveLookups.WithLabelValues("cache").Inc()
			return onlyEffectivelyActive(timers, now), nil
		}
	}

	timers, err := s.repo.FindActive(ctx, storeDomain, productID, now)
	if err != nil {
		metrics.ActiveLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: find active: %v", ErrStoreUnavailable, err)
	}
	metrics.ActiveLookups.WithLabelValues("store").Inc()

	if s.cache != nil {
		s.cache.Set(ctx, storeDomain, productID, timers)
	}
	return timers, nil
}

// onlyEffectivelyActive re-applies the window predicate to cached rows so a
// stale cache entry can never resurrect an ended or deactivated timer past
// the cache TTL guarantee. Ordering is preserved.
func onlyEffectivelyActive(timers []model.Timer, now time.Time) []model.Timer {
	result := make([]model.Timer, 0, len(timers))
	for i := range timers {
		if IsEffectivelyActive(&timers[i], now) {
			result = append(result, timers[i])
		}
	}
	return result
}

func (s *timerService) ListByStore(ctx context.Context, storeDomain string, limit, offset int) ([]model.Timer, error) {
	if storeDomain == "" {
		return nil, invalidInput("missing store domain")
	}
	timers, err := s.repo.ListByStore(ctx, storeDomain, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list by store: %v", ErrStoreUnavailable, err)
	}
	return timers, nil
}

func (s *timerService) Update(ctx context.Context, id, sessionStore string, patch UpdateTimerInput) (*model.Timer, error) {
	if patch.Empty() {
		return nil, invalidInput("at least one field is required")
	}

	timer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTimerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load timer: %v", ErrStoreUnavailable, err)
	}

	// Ownership is only checkable when a verified session is present. An
	// unauthenticated update proceeds, matching the historical behavior of
	// the management API.
	if sessionStore != "" && timer.StoreDomain != sessionStore {
		return nil, ErrForbidden
	}

	previousProduct := timer.ProductID

	var details []string
	if patch.ProductID != nil {
		if *patch.ProductID == "" {
			details = append(details, "productId must not be empty")
		} else {
			timer.ProductID = *patch.ProductID
		}
	}
	if patch.StartTime != nil {
		if start, ok := parseInstant("startTime", *patch.StartTime, &details); ok {
			timer.StartTime = start
		}
	}
	if patch.EndTime != nil {
		if end, ok := parseInstant("endTime", *patch.EndTime, &details); ok {
			timer.EndTime = end
		}
	}
	if patch.UrgencyMinutes != nil {
		if *patch.UrgencyMinutes < 0 {
			details = append(details, "urgencyMinutes must be >= 0")
		} else {
			timer.UrgencyMinutes = *patch.UrgencyMinutes
		}
	}
	if len(details) > 0 {
		return nil, invalidInput(details...)
	}

	// The merged state must still satisfy the window invariant, even when
	// only one bound was patched.
	if !timer.EndTime.After(timer.StartTime) {
		return nil, invalidRange()
	}

	if patch.Message != nil {
		timer.Message = *patch.Message
	}
	if patch.Styles != nil {
		timer.Styles = patch.Styles
	}
	if patch.Active != nil {
		timer.Active = *patch.Active
	}
	if patch.Metadata != nil {
		timer.Metadata = patch.Metadata
	}

	if err := s.repo.Update(ctx, timer); err != nil {
		if errors.Is(err, repository.ErrTimerNotFound) {
			return nil, err
		}
		metrics.TimerWrites.WithLabelValues(model.TimerOpUpdate, "error").Inc()
		return nil, fmt.Errorf("%w: update timer: %v", ErrStoreUnavailable, err)
	}

	metrics.TimerWrites.WithLabelValues(model.TimerOpUpdate, "ok").Inc()
	s.afterWrite(ctx, model.TimerOpUpdate, timer, previousProduct)
	return timer, nil
}

func (s *timerService) Delete(ctx context.Context, id, sessionStore string) error {
	timer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTimerNotFound) {
			return err
		}
		return fmt.Errorf("%w: load timer: %v", ErrStoreUnavailable, err)
	}

	if sessionStore != "" && timer.StoreDomain != sessionStore {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTimerNotFound) {
			return err
		}
		metrics.TimerWrites.WithLabelValues(model.TimerOpDelete, "error").Inc()
		return fmt.Errorf("%w: delete timer: %v", ErrStoreUnavailable, err)
	}

	metrics.TimerWrites.WithLabelValues(model.TimerOpDelete, "ok").Inc()
	s.afterWrite(ctx, model.TimerOpDelete, timer, "")
	return nil
}

// afterWrite keeps the read-side collaborators in step with a successful
// write: local cache entries are dropped immediately, the product filter
// learns new pairs, and a change event fans the invalidation out to other
// instances. All of it is best effort.
func (s *timerService) afterWrite(ctx context.Context, op string, timer *model.Timer, previousProduct string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, timer.StoreDomain, timer.ProductID)
		if previousProduct != "" && previousProduct != timer.ProductID {
			s.cache.Invalidate(ctx, timer.StoreDomain, previousProduct)
		}
	}
	if s.filter != nil && op != model.TimerOpDelete {
		s.filter.Add(timer.StoreDomain, timer.ProductID)
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(op, timer); err != nil {
			s.logger.Error("failed to publish timer change",
				zap.String("op", op),
				zap.String("timer_id", timer.ID),
				zap.Error(err))
		}
	}
}
