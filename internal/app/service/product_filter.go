package service

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/merchkit/countdown/internal/app/repository"
)

// ProductFilter is a bloom filter over (store, product) pairs that have ever
// had a timer. Storefront widgets poll on every product page view; most
// products never get a timer, and the filter lets those lookups return
// without touching redis or the store. False positives fall through to the
// store, so the filter is never load-bearing for correctness. Pairs are never
// removed; a deleted timer's pair simply costs one store round trip again.
type ProductFilter struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewProductFilter sizes the filter for the expected number of pairs at the
// given false-positive rate.
func NewProductFilter(expectedPairs uint, fpRate float64) *ProductFilter {
	if expectedPairs == 0 {
		expectedPairs = 10000
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = 0.01
	}
	return &ProductFilter{filter: bloom.NewWithEstimates(expectedPairs, fpRate)}
}

func filterKey(storeDomain, productID string) []byte {
	return []byte(storeDomain + "\x00" + productID)
}

// Seed loads the filter from a snapshot of known pairs, usually at startup.
func (f *ProductFilter) Seed(pairs []repository.StoreProduct) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range pairs {
		f.filter.Add(filterKey(p.StoreDomain, p.ProductID))
	}
}

// Add records that the pair now has a timer.
func (f *ProductFilter) Add(storeDomain, productID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.Add(filterKey(storeDomain, productID))
}

// MayHaveTimer reports whether the pair might have a timer. A false result
// is definitive.
func (f *ProductFilter) MayHaveTimer(storeDomain, productID string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.Test(filterKey(storeDomain, productID))
}
