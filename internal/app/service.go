// Package service wires record loading, scoring and publishing together and
// implements the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brianfmorissette/chatgpt-champion/internal/adapters/cache"
	"github.com/brianfmorissette/chatgpt-champion/internal/adapters/repository"
	"github.com/brianfmorissette/chatgpt-champion/internal/adapters/source"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/champion"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/scoring"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/types"
	"github.com/brianfmorissette/chatgpt-champion/pkg/logger"
	"github.com/brianfmorissette/chatgpt-champion/pkg/metrics"
)

// Service owns the dataset and the active weights, and publishes a new
// leaderboard snapshot whenever either changes.
type Service struct {
	mu sync.RWMutex

	source source.Source
	store  repository.Store
	memo   *cache.Memo

	records     []model.ActivityRecord
	fingerprint uint64
	weights     scoring.Weights
	loadedAt    time.Time

	cacheSize   int
	defaultTopN int
	maxLimit    int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource sets where Start and Reload read records from.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithStore replaces the snapshot store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithWeights sets the initial weights. They are validated by Start.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithCacheSize sets how many analyses are memoized.
func WithCacheSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.cacheSize = n
		}
	}
}

// WithLimits sets the default and maximum leaderboard size.
func WithLimits(defaultTopN, maxLimit int) Option {
	return func(s *Service) {
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
		if defaultTopN > 0 {
			s.defaultTopN = defaultTopN
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		weights:     scoring.DefaultWeights(),
		cacheSize:   cache.DefaultSize,
		defaultTopN: 10,
		maxLimit:    100,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewSnapshotStore()
	}
	if s.defaultTopN > s.maxLimit {
		s.defaultTopN = s.maxLimit
	}
	return s
}

// Start validates the weights, loads the source if one is configured and
// publishes the first leaderboard. Without a source the dataset starts empty.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if err := s.weights.Validate(); err != nil {
		metrics.RecordConfigurationError()
		return fmt.Errorf("start: %w", err)
	}
	memo, err := cache.New(s.cacheSize)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	s.memo = memo

	records := []model.ActivityRecord{}
	if s.source != nil {
		if records, err = s.source.Load(ctx); err != nil {
			return fmt.Errorf("start: %w", err)
		}
	}
	if err := s.replaceLocked(ctx, records); err != nil {
		return err
	}

	s.started = true
	s.logger.Info(ctx, "champion service started",
		logger.Int("records", len(records)),
		logger.Int("cacheSize", s.cacheSize),
		logger.Any("weights", s.weights),
	)
	return nil
}

// Stop marks the service stopped and drops memoized analyses.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.memo.Purge()
	s.started = false
	s.logger.Info(context.Background(), "champion service stopped")
}

// Reload re-reads the source and republishes with the active weights.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	if s.source == nil {
		return ErrNoSource
	}
	records, err := s.source.Load(ctx)
	if err != nil {
		metrics.RecordReload(false)
		s.logger.Error(ctx, "reload failed, keeping previous dataset", logger.Error(err))
		return fmt.Errorf("reload: %w", err)
	}
	if err := s.replaceLocked(ctx, records); err != nil {
		metrics.RecordReload(false)
		return err
	}
	metrics.RecordReload(true)
	return nil
}

// SetRecords replaces the dataset directly and republishes.
func (s *Service) SetRecords(ctx context.Context, records []model.ActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	return s.replaceLocked(ctx, records)
}

func (s *Service) replaceLocked(ctx context.Context, records []model.ActivityRecord) error {
	fp := cache.Fingerprint(records)
	res, err := s.analyze(ctx, records, fp, s.weights)
	if err != nil {
		return err
	}
	s.records = records
	s.fingerprint = fp
	s.loadedAt = time.Now()
	s.publish(ctx, s.weights, res)
	return nil
}

// Weights returns the active weight configuration.
func (s *Service) Weights() scoring.Weights {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weights
}

// SetWeights validates w, recomputes and republishes. Invalid weights leave
// the published leaderboard untouched.
func (s *Service) SetWeights(ctx context.Context, w scoring.Weights) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	res, err := s.analyze(ctx, s.records, s.fingerprint, w)
	if err != nil {
		return err
	}
	s.weights = w
	s.publish(ctx, w, res)
	s.logger.Info(ctx, "weights updated", logger.Any("weights", w))
	return nil
}

// Analyze scores the current dataset under w without publishing. Repeated
// calls with the same dataset and weights are served from the memo.
func (s *Service) Analyze(ctx context.Context, w scoring.Weights) (cache.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return cache.Result{}, ErrNotStarted
	}
	return s.analyze(ctx, s.records, s.fingerprint, w)
}

// analyze must be called with s.mu held.
func (s *Service) analyze(ctx context.Context, records []model.ActivityRecord, fp uint64, w scoring.Weights) (cache.Result, error) {
	if err := w.Validate(); err != nil {
		metrics.RecordConfigurationError()
		return cache.Result{}, err
	}
	key := cache.Key{Dataset: fp, Weights: w}
	start := time.Now()
	if res, ok := s.memo.Get(key); ok {
		metrics.RecordAnalysis(true, msSince(start))
		s.logger.Debug(ctx, "analysis served from cache")
		return res, nil
	}

	scored, err := scoring.Score(records, w)
	if err != nil {
		metrics.RecordConfigurationError()
		return cache.Result{}, err
	}
	res := cache.Result{Scored: scored, Summaries: champion.Aggregate(scored)}
	s.memo.Add(key, res)
	metrics.RecordAnalysis(false, msSince(start))
	s.logger.Debug(ctx, "analysis computed",
		logger.Int("records", len(records)),
		logger.Int("champions", len(res.Summaries)),
		logger.Duration("took", time.Since(start)),
	)
	return res, nil
}

func (s *Service) publish(ctx context.Context, w scoring.Weights, res cache.Result) {
	snap := s.store.Publish(ctx, repository.Analysis{
		RunID:     uuid.NewString(),
		Weights:   w,
		Scored:    res.Scored,
		Summaries: res.Summaries,
	})
	s.logger.Info(ctx, "leaderboard published",
		logger.String("run", snap.RunID),
		logger.Int("champions", len(snap.Summaries)),
	)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}

// Limits reports the default and maximum leaderboard size.
func (s *Service) Limits() (defaultTopN, maxLimit int) {
	return s.defaultTopN, s.maxLimit
}

// TopN returns the top n entries of the published leaderboard.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if err := s.checkLimit(n); err != nil {
		return nil, err
	}
	summaries, err := s.store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}
	return toEntries(summaries), nil
}

// Leaderboard ranks the current dataset under ad-hoc weights without
// changing the active configuration.
func (s *Service) Leaderboard(ctx context.Context, n int, w scoring.Weights) ([]types.Entry, error) {
	if err := s.checkLimit(n); err != nil {
		return nil, err
	}
	if w == s.Weights() {
		return s.TopN(ctx, n)
	}
	res, err := s.Analyze(ctx, w)
	if err != nil {
		return nil, err
	}
	return toEntries(champion.Top(res.Summaries, n)), nil
}

func (s *Service) checkLimit(n int) error {
	if n < 1 || n > s.maxLimit {
		return fmt.Errorf("%w: %d not in [1,%d]", repository.ErrInvalidLimit, n, s.maxLimit)
	}
	return nil
}

// Rank returns the leaderboard entry for the named user.
func (s *Service) Rank(ctx context.Context, name string) (types.Entry, error) {
	sum, err := s.store.Rank(ctx, name)
	if err != nil {
		return types.Entry{}, err
	}
	return types.FromSummary(sum), nil
}

// Trend returns the named user's weekly score series.
func (s *Service) Trend(ctx context.Context, name string) ([]types.TrendPoint, error) {
	pts, err := s.store.Trend(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]types.TrendPoint, len(pts))
	for i, p := range pts {
		out[i] = types.TrendPoint{PeriodEnd: p.PeriodEnd, ChampionScore: p.ChampionScore, Messages: p.Messages}
	}
	return out, nil
}

// Records returns the processed dataset behind the published leaderboard.
func (s *Service) Records(ctx context.Context) ([]types.ProcessedRecord, error) {
	snap, err := s.store.Current(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.ProcessedRecord, len(snap.Scored))
	for i, r := range snap.Scored {
		out[i] = types.FromScored(r)
	}
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"records":     len(s.records),
		"champions":   s.store.Count(ctx),
		"weights":     types.FromWeights(s.weights),
		"defaultTopN": s.defaultTopN,
		"maxLimit":    s.maxLimit,
	}
	if s.source != nil {
		stats["source"] = s.source.String()
	}
	if s.memo != nil {
		stats["cachedAnalyses"] = s.memo.Len()
	}
	if !s.loadedAt.IsZero() {
		stats["loadedAt"] = s.loadedAt
	}
	if snap, err := s.store.Current(ctx); err == nil {
		stats["runId"] = snap.RunID
		stats["publishedAt"] = snap.PublishedAt
	}
	return stats
}

func toEntries(summaries []model.ChampionSummary) []types.Entry {
	out := make([]types.Entry, len(summaries))
	for i, sum := range summaries {
		out[i] = types.FromSummary(sum)
	}
	return out
}
