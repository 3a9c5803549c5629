package stats

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"sync"

	"bankassist/internal/domain"
	"bankassist/internal/metrics"
)

// Fetcher is the statistics backend surface the dashboard needs.
type Fetcher interface {
	UserStatistics(ctx context.Context, userID string) (*domain.UserStatistics, error)
	OverviewStatistics(ctx context.Context) (*domain.OverviewStatistics, error)
	CategoryStatistics(ctx context.Context, userID string) (*domain.CategoryStatistics, error)
}

// Adapter loads the three dashboard aggregates concurrently. A request that
// cannot reach the backend at all may fall back to demo data; an answer from
// the backend, even an error status, is never replaced.
type Adapter struct {
	fetcher      Fetcher
	logger       *slog.Logger
	mockFallback bool
}

func NewAdapter(fetcher Fetcher, mockFallback bool, logger *slog.Logger) *Adapter {
	return &Adapter{fetcher: fetcher, logger: logger, mockFallback: mockFallback}
}

// Load fetches user, overview, and category statistics in parallel. Fallback
// is decided per request, so a partially reachable backend yields a mixed
// snapshot. Errors that were not resolved by fallback are joined and returned
// alongside whatever did load.
func (a *Adapter) Load(ctx context.Context, userID string) (*domain.StatisticsSnapshot, error) {
	snap := &domain.StatisticsSnapshot{}
	var userErr, overviewErr, categoryErr error

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		snap.User, userErr = a.fetcher.UserStatistics(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		snap.Overview, overviewErr = a.fetcher.OverviewStatistics(ctx)
	}()
	go func() {
		defer wg.Done()
		snap.Category, categoryErr = a.fetcher.CategoryStatistics(ctx, userID)
	}()
	wg.Wait()

	if userErr != nil && a.fallbackAllowed(userErr) {
		a.logger.Warn("user statistics unreachable, using demo data", "err", userErr)
		metrics.StatsFallbacks.Inc()
		snap.User = mockUserStatistics()
		userErr = nil
	}
	if overviewErr != nil && a.fallbackAllowed(overviewErr) {
		a.logger.Warn("overview statistics unreachable, using demo data", "err", overviewErr)
		metrics.StatsFallbacks.Inc()
		snap.Overview = mockOverviewStatistics()
		overviewErr = nil
	}
	if categoryErr != nil && a.fallbackAllowed(categoryErr) {
		a.logger.Warn("category statistics unreachable, using demo data", "err", categoryErr)
		metrics.StatsFallbacks.Inc()
		snap.Category = mockCategoryStatistics()
		categoryErr = nil
	}

	return snap, errors.Join(userErr, overviewErr, categoryErr)
}

func (a *Adapter) fallbackAllowed(err error) bool {
	return a.mockFallback && isConnectivity(err)
}

// isConnectivity separates transport failures (refused connection, DNS,
// timeout) from application answers. A StatusError is an answer.
func isConnectivity(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
