package repository

import (
	"context"
	"errors"
	"time"

	"github.com/merchkit/countdown/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrTimerNotFound signals that the requested timer does not exist.
	ErrTimerNotFound = errors.New("timer not found")
)

// StoreProduct identifies a (store, product) pair that has at least one timer.
type StoreProduct struct {
	StoreDomain string
	ProductID   string
}

// TimerRepository defines the data access contract for countdown timers.
type TimerRepository interface {
	Create(ctx context.Context, timer *model.Timer) error
	FindByID(ctx context.Context, id string) (*model.Timer, error)
	// FindActive returns timers for the store whose window contains now and
	// whose active flag is set, soonest-ending first. productID narrows the
	// result when non-empty.
	FindActive(ctx context.Context, storeDomain, productID string, now time.Time) ([]model.Timer, error)
	ListByStore(ctx context.Context, storeDomain string, limit, offset int) ([]model.Timer, error)
	// StoreProducts lists every distinct (store, product) pair that has a
	// timer, used to seed the storefront product filter at startup.
	StoreProducts(ctx context.Context) ([]StoreProduct, error)
	Update(ctx context.Context, timer *model.Timer) error
	Delete(ctx context.Context, id string) error
	// DeactivateEndedBefore clears the active flag on timers whose window
	// closed before cutoff, returning the number of rows touched.
	DeactivateEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type timerRepository struct {
	db *gorm.DB
}

// NewTimerRepository returns a GORM-backed TimerRepository.
func NewTimerRepository(db *gorm.DB) TimerRepository {
	return &timerRepository{db: db}
}

func (r *timerRepository) Create(ctx context.Context, timer *model.Timer) error {
	return r.db.WithContext(ctx).Create(timer).Error
}

func (r *timerRepository) FindByID(ctx context.Context, id string) (*model.Timer, error) {
	var timer model.Timer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&timer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimerNotFound
		}
		return nil, err
	}
	return &timer, nil
}

func (r *timerRepository) FindActive(ctx context.Context, storeDomain, productID string, now time.Time) ([]model.Timer, error) {
	q := r.db.WithContext(ctx).
		Where("store_domain = ? AND active = ? AND start_time <= ? AND end_time >= ?",
			storeDomain, true, now, now)
	if productID != "" {
		q = q.Where("product_id = ?", productID)
	}

	result := []model.Timer{}
	if err := q.Order("end_time ASC").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *timerRepository) ListByStore(ctx context.Context, storeDomain string, limit, offset int) ([]model.Timer, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	result := []model.Timer{}
	if err := r.db.WithContext(ctx).
		Where("store_domain = ?", storeDomain).
		Order("end_time ASC").
		Limit(limit).
		Offset(offset).
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *timerRepository) StoreProducts(ctx context.Context) ([]StoreProduct, error) {
	var pairs []StoreProduct
	if err := r.db.WithContext(ctx).
		Model(&model.Timer{}).
		Distinct("store_domain", "product_id").
		Find(&pairs).Error; err != nil {
		return nil, err
	}
	return pairs, nil
}

func (r *timerRepository) Update(ctx context.Context, timer *model.Timer) error {
	result := r.db.WithContext(ctx).
		Model(&model.Timer{}).
		Where("id = ?", timer.ID).
		Updates(map[string]interface{}{
			"product_id":      timer.ProductID,
			"start_time":      timer.StartTime,
			"end_time":        timer.EndTime,
			"message":         timer.Message,
			"styles":          timer.Styles,
			"urgency_minutes": timer.UrgencyMinutes,
			"active":          timer.Active,
			"metadata":        timer.Metadata,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTimerNotFound
	}

	return r.db.WithContext(ctx).Where("id = ?", timer.ID).First(timer).Error
}

func (r *timerRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Timer{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTimerNotFound
	}
	return nil
}

func (r *timerRepository) DeactivateEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Timer{}).
		Where("active = ? AND end_time < ?", true, cutoff).
		Update("active", false)
	return result.RowsAffected, result.Error
}
