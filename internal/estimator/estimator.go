// Package estimator fans value-estimation tasks across a bounded worker pool
// with shared rate limiting in front of the marketplace client.
package estimator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/elkriver/inventory-cli/internal/cache"
	"github.com/elkriver/inventory-cli/internal/model"
	"github.com/elkriver/inventory-cli/internal/pricing"
	"github.com/elkriver/inventory-cli/internal/resilience"
	"github.com/elkriver/inventory-cli/internal/validate"
	"github.com/elkriver/inventory-cli/pkg/armslist"
)

// Worker pool bounds exposed in the product surface.
const (
	MinWorkers     = 1
	MaxWorkers     = 8
	DefaultWorkers = 4

	// DefaultRateLimitDelay is the minimum interval between live marketplace
	// calls across all workers.
	DefaultRateLimitDelay = 300 * time.Millisecond
)

// ProgressFunc receives a progress report after each task completion.
type ProgressFunc func(completed, total int, status string)

// Options configures an Estimator.
type Options struct {
	// Workers is the pool size, clamped to [MinWorkers, MaxWorkers].
	Workers int

	// RateLimitDelay is the minimum interval enforced between live
	// marketplace calls, shared across all workers.
	RateLimitDelay time.Duration
}

// Estimator runs per-listing estimation tasks concurrently. The cache and the
// rate limiter are the only state shared between workers; each has its own
// lock and a task holds at most one of them at a time.
type Estimator struct {
	workers int
	limiter *rate.Limiter
	cache   *cache.Cache    // nil disables caching
	client  armslist.Client // nil disables live lookups entirely
}

// New creates an Estimator. A nil cache disables caching; a nil client makes
// every online lookup degrade to the heuristic estimate.
func New(client armslist.Client, listingsCache *cache.Cache, opts Options) *Estimator {
	workers := opts.Workers
	if workers == 0 {
		workers = DefaultWorkers
	}
	workers = min(max(workers, MinWorkers), MaxWorkers)

	delay := opts.RateLimitDelay
	if delay <= 0 {
		delay = DefaultRateLimitDelay
	}

	return &Estimator{
		workers: workers,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		cache:   listingsCache,
		client:  client,
	}
}

// TasksFromListings creates estimation tasks 1:1 from scraped listings,
// indexed by batch position.
func TasksFromListings(listings []model.Listing, useOnlineSources bool) []model.EstimationTask {
	tasks := make([]model.EstimationTask, len(listings))
	for i, l := range listings {
		tasks[i] = model.EstimationTask{
			Index:            i,
			Manufacturer:     l.Manufacturer,
			Model:            l.Model,
			Caliber:          l.Caliber,
			UseOnlineSources: useOnlineSources,
		}
	}
	return tasks
}

// Run processes tasks across the worker pool and returns one result per task,
// ordered by task index regardless of completion order. Every input task
// yields a result: individual failures surface as success=false rows, never
// as dropped rows or an aborted batch.
func (e *Estimator) Run(ctx context.Context, tasks []model.EstimationTask, progress ProgressFunc) []model.EstimationResult {
	results := make([]model.EstimationResult, len(tasks))

	var mu sync.Mutex
	completed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, task := range tasks {
		g.Go(func() error {
			result := e.estimateOne(gctx, task)
			// Tasks carry unique indices, so each worker writes a distinct slot.
			results[task.Index] = result

			mu.Lock()
			completed++
			done := completed
			mu.Unlock()

			if progress != nil {
				status := fmt.Sprintf("Completed %s %s (%.1fs)",
					result.Manufacturer, result.Model, result.ProcessingTime.Seconds())
				progress(done, len(tasks), status)
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// estimateOne runs a single task end to end. Panics are caught at the task
// boundary and reported as a failed result so one bad task never takes down
// the batch.
func (e *Estimator) estimateOne(ctx context.Context, task model.EstimationTask) (result model.EstimationResult) {
	start := time.Now()

	result = model.EstimationResult{
		Index:        task.Index,
		Manufacturer: task.Manufacturer,
		Model:        task.Model,
		Caliber:      task.Caliber,
	}

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("estimator: task panic",
				zap.Int("index", task.Index),
				zap.Any("panic", r),
			)
			result.Success = false
			result.ValueInfo = nil
			result.Error = fmt.Sprintf("unexpected error: %v", r)
			result.ProcessingTime = time.Since(start)
		}
	}()

	manufacturer, modelName, caliber, err := validate.SearchParams(task.Manufacturer, task.Model, task.Caliber)
	if err != nil {
		result.Error = fmt.Sprintf("invalid parameters: %v", err)
		result.ProcessingTime = time.Since(start)
		return result
	}

	// The heuristic estimate is fast and never blocks.
	heur := pricing.EstimateMarketValue(manufacturer, modelName, caliber)

	var market []model.MarketListing
	if task.UseOnlineSources {
		listings, err := e.fetchListings(ctx, manufacturer, modelName, caliber)
		if err != nil {
			result.Error = fmt.Sprintf("unexpected error: %v", err)
			result.ProcessingTime = time.Since(start)
			return result
		}
		market = pricing.FilterPlausible(listings)
	}

	info := pricing.Blend(&heur, market, task.UseOnlineSources)

	result.Success = true
	result.ValueInfo = &info
	result.ProcessingTime = time.Since(start)
	return result
}

// fetchListings returns live listings from cache or the marketplace client.
// Network and parse failures degrade to no live data; only a genuinely
// unexpected error is returned, and it fails the task. The shared limiter
// enforces the minimum interval immediately before each live call.
func (e *Estimator) fetchListings(ctx context.Context, manufacturer, modelName, caliber string) ([]model.MarketListing, error) {
	if e.cache != nil {
		if listings, ok := e.cache.Get(manufacturer, modelName, caliber); ok {
			zap.L().Debug("estimator: cache hit",
				zap.String("manufacturer", manufacturer),
				zap.String("model", modelName),
				zap.String("caliber", caliber),
			)
			return listings, nil
		}
	}

	if e.client == nil {
		return nil, nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, nil
	}

	raw, err := e.client.Search(ctx, manufacturer, modelName, caliber)
	if err != nil {
		if resilience.IsNetworkError(err) || resilience.IsParseError(err) {
			zap.L().Warn("estimator: live lookup degraded",
				zap.String("manufacturer", manufacturer),
				zap.String("model", modelName),
				zap.Error(err),
			)
			return nil, nil
		}
		return nil, err
	}

	listings := toMarketListings(raw)
	if e.cache != nil {
		e.cache.Set(manufacturer, modelName, caliber, listings)
	}
	return listings, nil
}

// toMarketListings converts client listings into the shared model type.
func toMarketListings(raw []armslist.Listing) []model.MarketListing {
	if raw == nil {
		return nil
	}
	listings := make([]model.MarketListing, len(raw))
	for i, l := range raw {
		listings[i] = model.MarketListing{
			Title:     l.Title,
			Price:     l.Price,
			PriceText: l.PriceText,
			Link:      l.Link,
			Location:  l.Location,
			Ships:     l.Ships,
			Source:    l.Source,
		}
	}
	return listings
}
