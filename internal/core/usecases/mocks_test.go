package usecases_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/samirrijal/gisportal/internal/core/domain"
)

// --- Mock AuthServer ---

type mockAuthServer struct {
	mu        sync.Mutex
	calls     int
	refreshFn func(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
}

func (m *mockAuthServer) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.refreshFn != nil {
		return m.refreshFn(ctx, refreshToken)
	}
	return nil, domain.ErrUnauthenticated
}

func (m *mockAuthServer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- In-memory CacheService ---

var errCacheMiss = errors.New("cache miss")

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (m *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock UsageRepository ---

type mockUsageRepo struct {
	insertFn  func(ctx context.Context, ev *domain.UsageEvent) error
	listFn    func(ctx context.Context, f domain.UsageFilter) ([]domain.UsageEvent, int, error)
	dailyFn   func(ctx context.Context, from, to time.Time) ([]domain.DailyUsage, error)
	inserted  []domain.UsageEvent
	lastRange [2]time.Time
}

func (m *mockUsageRepo) Insert(ctx context.Context, ev *domain.UsageEvent) error {
	if m.insertFn != nil {
		if err := m.insertFn(ctx, ev); err != nil {
			return err
		}
	}
	m.inserted = append(m.inserted, *ev)
	return nil
}

func (m *mockUsageRepo) List(ctx context.Context, f domain.UsageFilter) ([]domain.UsageEvent, int, error) {
	m.lastRange = [2]time.Time{f.From, f.To}
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return nil, 0, nil
}

func (m *mockUsageRepo) Daily(ctx context.Context, from, to time.Time) ([]domain.DailyUsage, error) {
	m.lastRange = [2]time.Time{from, to}
	if m.dailyFn != nil {
		return m.dailyFn(ctx, from, to)
	}
	return nil, nil
}

func (m *mockUsageRepo) AggregateDay(ctx context.Context, day time.Time) (int64, error) {
	return 0, nil
}

func (m *mockUsageRepo) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	err       error
	published []domain.UsageEvent
}

func (m *mockPublisher) PublishUsage(ctx context.Context, ev *domain.UsageEvent) error {
	m.published = append(m.published, *ev)
	return m.err
}

// --- Mock RollupScheduler ---

type mockScheduler struct {
	day time.Time
}

func (m *mockScheduler) ScheduleRollup(ctx context.Context, day time.Time) (string, error) {
	m.day = day
	return "usage-rollup-" + day.Format("2006-01-02"), nil
}
