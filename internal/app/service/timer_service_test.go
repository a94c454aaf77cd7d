package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/merchkit/countdown/internal/app/model"
	"github.com/merchkit/countdown/internal/app/repository"
)

type mockTimerRepository struct {
	createFn       func(ctx context.Context, timer *model.Timer) error
	findByIDFn     func(ctx context.Context, id string) (*model.Timer, error)
	findActiveFn   func(ctx context.Context, storeDomain, productID string, now time.Time) ([]model.Timer, error)
	listByStoreFn  func(ctx context.Context, storeDomain string, limit, offset int) ([]model.Timer, error)
	updateFn       func(ctx context.Context, timer *model.Timer) error
	deleteFn       func(ctx context.Context, id string) error
	deactivateFn   func(ctx context.Context, cutoff time.Time) (int64, error)
	storeProductFn func(ctx context.Context) ([]repository.StoreProduct, error)
}

func (m *mockTimerRepository) Create(ctx context.Context, timer *model.Timer) error {
	if m.createFn != nil {
		return m.createFn(ctx, timer)
	}
	return nil
}

func (m *mockTimerRepository) FindByID(ctx context.Context, id string) (*model.Timer, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, repository.ErrTimerNotFound
}

func (m *mockTimerRepository) FindActive(ctx context.Context, storeDomain, productID string, now time.Time) ([]model.Timer, error) {
	if m.findActiveFn != nil {
		return m.findActiveFn(ctx, storeDomain, productID, now)
	}
	return nil, nil
}

func (m *mockTimerRepository) ListByStore(ctx context.Context, storeDomain string, limit, offset int) ([]model.Timer, error) {
	if m.listByStoreFn != nil {
		return m.listByStoreFn(ctx, storeDomain, limit, offset)
	}
	return nil, nil
}

func (m *mockTimerRepository) StoreProducts(ctx context.Context) ([]repository.StoreProduct, error) {
	if m.storeProductFn != nil {
		return m.storeProductFn(ctx)
	}
	return nil, nil
}

func (m *mockTimerRepository) Update(ctx context.Context, timer *model.Timer) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, timer)
	}
	return nil
}

func (m *mockTimerRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockTimerRepository) DeactivateEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.deactivateFn != nil {
		return m.deactivateFn(ctx, cutoff)
	}
	return 0, nil
}

func newTestService(repo repository.TimerRepository) TimerService {
	return NewTimerService(Deps{Repo: repo})
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestTimerService_Create_Defaults(t *testing.T) {
	var stored *model.Timer
	repo := &mockTimerRepository{
		createFn: func(ctx context.Context, timer *model.Timer) error {
			stored = timer
			return nil
		},
	}

	svc := newTestService(repo)
	timer, err := svc.Create(context.Background(), CreateTimerInput{
		StoreDomain:    "alpha.myshopify.com",
		ProductID:      "P1",
		StartTime:      "2025-01-01T00:00:00Z",
		EndTime:        "2025-01-01T01:00:00Z",
		UrgencyMinutes: intPtr(10),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if stored == nil {
		t.Fatal("expected timer to reach the repository")
	}
	if timer.ID == "" {
		t.Fatal("expected an assigned id")
	}
	if !timer.Active {
		t.Fatal("expected active to default to true")
	}
	if timer.Message != "" {
		t.Fatalf("expected empty default message, got %q", timer.Message)
	}
	if timer.UrgencyMinutes != 10 {
		t.Fatalf("expected urgencyMinutes 10, got %d", timer.UrgencyMinutes)
	}
	if timer.Styles == nil || timer.Metadata == nil {
		t.Fatal("expected styles and metadata to default to empty bags")
	}
	if !timer.EndTime.After(timer.StartTime) {
		t.Fatal("stored window violates endTime > startTime")
	}
}

func TestTimerService_Create_InvalidRange(t *testing.T) {
	svc := newTestService(&mockTimerRepository{})

	cases := []struct {
		name       string
		start, end string
	}{
		{"end before start", "2025-01-01T01:00:00Z", "2025-01-01T00:00:00Z"},
		{"end equals start", "2025-01-01T00:00:00Z", "2025-01-01T00:00:00Z"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), CreateTimerInput{
				StoreDomain: "alpha.myshopify.com",
				ProductID:   "P1",
				StartTime:   tc.start,
				EndTime:     tc.end,
			})
			if !errors.Is(err, ErrInvalidRange) {
				t.Fatalf("expected ErrInvalidRange, got %v", err)
			}
		})
	}
}

func TestTimerService_Create_InvalidInput(t *testing.T) {
	svc := newTestService(&mockTimerRepository{})

	cases := []struct {
		name  string
		input CreateTimerInput
	}{
		{"missing productId", CreateTimerInput{
			StoreDomain: "alpha.myshopify.com",
			StartTime:   "2025-01-01T00:00:00Z",
			EndTime:     "2025-01-01T01:00:00Z",
		}},
		{"missing storeDomain", CreateTimerInput{
			ProductID: "P1",
			StartTime: "2025-01-01T00:00:00Z",
			EndTime:   "2025-01-01T01:00:00Z",
		}},
		{"unparseable startTime", CreateTimerInput{
			StoreDomain: "alpha.myshopify.com",
			ProductID:   "P1",
			StartTime:   "next tuesday",
			EndTime:     "2025-01-01T01:00:00Z",
		}},
		{"negative urgency", CreateTimerInput{
			StoreDomain:    "alpha.myshopify.com",
			ProductID:      "P1",
			StartTime:      "2025-01-01T00:00:00Z",
			EndTime:        "2025-01-01T01:00:00Z",
			UrgencyMinutes: intPtr(-1),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || len(verr.Details) == 0 {
				t.Fatalf("expected details on validation error, got %v", err)
			}
		})
	}
}

func TestTimerService_Create_StoreUnavailable(t *testing.T) {
	repo := &mockTimerRepository{
		createFn: func(ctx context.Context, timer *model.Timer) error {
			return errors.New("connection refused")
		},
	}
	svc := newTestService(repo)
	_, err := svc.Create(context.Background(), CreateTimerInput{
		StoreDomain: "alpha.myshopify.com",
		ProductID:   "P1",
		StartTime:   "2025-01-01T00:00:00Z",
		EndTime:     "2025-01-01T01:00:00Z",
	})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func baseTimer() *model.Timer {
	return &model.Timer{
		ID:             "t1",
		StoreDomain:    "alpha.myshopify.com",
		ProductID:      "P1",
		StartTime:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC),
		UrgencyMinutes: 10,
		Active:         true,
	}
}

func TestTimerService_Update_EmptyPatch(t *testing.T) {
	svc := newTestService(&mockTimerRepository{})
	_, err := svc.Update(context.Background(), "t1", "", UpdateTimerInput{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty patch, got %v", err)
	}
}

func TestTimerService_Update_NotFound(t *testing.T) {
	svc := newTestService(&mockTimerRepository{})
	_, err := svc.Update(context.Background(), "missing", "", UpdateTimerInput{
		Message: strPtr("hi"),
	})
	if !errors.Is(err, repository.ErrTimerNotFound) {
		t.Fatalf("expected ErrTimerNotFound, got %v", err)
	}
}

func TestTimerService_Update_Forbidden(t *testing.T) {
	repo := &mockTimerRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Timer, error) {
			return baseTimer(), nil
		},
	}
	svc := newTestService(repo)
	_, err := svc.Update(context.Background(), "t1", "other.myshopify.com", UpdateTimerInput{
		Message: strPtr("hi"),
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestTimerService_Update_NoSessionProceeds(t *testing.T) {
	updated := false
	repo := &mockTimerRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Timer, error) {
			return baseTimer(), nil
		},
		updateFn: func(ctx context.Context, timer *model.Timer) error {
			updated = true
			return nil
		},
	}
	svc := newTestService(repo)
	if _, err := svc.Update(context.Background(), "t1", "", UpdateTimerInput{
		Message: strPtr("hi"),
	}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if !updated {
		t.Fatal("expected anonymous update to reach the repository")
	}
}

func TestTimerService_Update_MergedRangeViolation(t *testing.T) {
	repo := &mockTimerRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Timer, error) {
			return baseTimer(), nil
		},
	}
	svc := newTestService(repo)

	// Only endTime is patched, but the merged window now ends before the
	// existing start.
	_, err := svc.Update(context.Background(), "t1", "", UpdateTimerInput{
		EndTime: strPtr("2024-12-31T23:00:00Z"),
	})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}

	// And symmetrically for a startTime-only patch.
	_, err = svc.Update(context.Background(), "t1", "", UpdateTimerInput{
		StartTime: strPtr("2025-01-01T02:00:00Z"),
	})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestTimerService_Update_AppliesPatch(t *testing.T) {
	var saved *model.Timer
	repo := &mockTimerRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Timer, error) {
			return baseTimer(), nil
		},
		updateFn: func(ctx context.Context, timer *model.Timer) error {
			saved = timer
			return nil
		},
	}
	svc := newTestService(repo)

	active := false
	timer, err := svc.Update(context.Background(), "t1", "alpha.myshopify.com", UpdateTimerInput{
		EndTime: strPtr("2025-01-01T02:00:00Z"),
		Message: strPtr("last chance"),
		Active:  &active,
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if saved == nil {
		t.Fatal("expected update to reach the repository")
	}
	if want := time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC); !timer.EndTime.Equal(want) {
		t.Fatalf("expected endTime %v, got %v", want, timer.EndTime)
	}
	if timer.Message != "last chance" || timer.Active {
		t.Fatalf("patch not applied: %+v", timer)
	}
	if timer.StoreDomain != "alpha.myshopify.com" {
		t.Fatal("storeDomain must never change on update")
	}
}

func TestTimerService_Delete(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		svc := newTestService(&mockTimerRepository{})
		if err := svc.Delete(context.Background(), "missing", ""); !errors.Is(err, repository.ErrTimerNotFound) {
			t.Fatalf("expected ErrTimerNotFound, got %v", err)
		}
	})

	t.Run("forbidden", func(t *testing.T) {
		repo := &mockTimerRepository{
			findByIDFn: func(ctx context.Context, id string) (*model.Timer, error) {
				return baseTimer(), nil
			},
		}
		svc := newTestService(repo)
		if err := svc.Delete(context.Background(), "t1", "other.myshopify.com"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("owner", func(t *testing.T) {
		deleted := false
		repo := &mockTimerRepository{
			findByIDFn: func(ctx context.Context, id string) (*model.Timer, error) {
				return baseTimer(), nil
			},
			deleteFn: func(ctx context.Context, id string) error {
				deleted = true
				return nil
			},
		}
		svc := newTestService(repo)
		if err := svc.Delete(context.Background(), "t1", "alpha.myshopify.com"); err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}
		if !deleted {
			t.Fatal("expected delete to reach the repository")
		}
	})
}

func TestTimerService_ListActive(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 30, 0, 0, time.UTC)
	repo := &mockTimerRepository{
		findActiveFn: func(ctx context.Context, storeDomain, productID string, got time.Time) ([]model.Timer, error) {
			if storeDomain != "alpha.myshopify.com" || productID != "P1" {
				t.Fatalf("unexpected query: %s %s", storeDomain, productID)
			}
			if !got.Equal(now) {
				t.Fatalf("expected now %v, got %v", now, got)
			}
			return []model.Timer{*baseTimer()}, nil
		},
	}
	svc := newTestService(repo)

	timers, err := svc.ListActive(context.Background(), "alpha.myshopify.com", "P1", now)
	if err != nil {
		t.Fatalf("ListActive returned error: %v", err)
	}
	if len(timers) != 1 {
		t.Fatalf("expected 1 timer, got %d", len(timers))
	}
}

func TestTimerService_ListActive_EmptyResult(t *testing.T) {
	svc := newTestService(&mockTimerRepository{
		findActiveFn: func(ctx context.Context, storeDomain, productID string, now time.Time) ([]model.Timer, error) {
			return []model.Timer{}, nil
		},
	})
	timers, err := svc.ListActive(context.Background(), "alpha.myshopify.com", "", time.Now())
	if err != nil {
		t.Fatalf("ListActive returned error: %v", err)
	}
	if timers == nil || len(timers) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", timers)
	}
}

func TestIsEffectivelyActive(t *testing.T) {
	timer := baseTimer()
	start := timer.StartTime
	end := timer.EndTime

	cases := []struct {
		name   string
		now    time.Time
		active bool
		want   bool
	}{
		{"before window", start.Add(-time.Second), true, false},
		{"exactly at start", start, true, true},
		{"inside window", start.Add(30 * time.Minute), true, true},
		{"exactly at end", end, true, true},
		{"just past end", end.Add(time.Second), true, false},
		{"flag off inside window", start.Add(30 * time.Minute), false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tt := *timer
			tt.Active = tc.active
			if got := IsEffectivelyActive(&tt, tc.now); got != tc.want {
				t.Fatalf("IsEffectivelyActive(%s) = %v, want %v", tc.name, got, tc.want)
			}
		})
	}
}
