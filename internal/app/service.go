// Package service provides the session orchestrator that composes the
// durable store, the scoring gateway, and the recency cache.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/intake/internal/adapters/recency"
	"github.com/okian/intake/internal/adapters/repository"
	"github.com/okian/intake/internal/adapters/scoring"
	"github.com/okian/intake/internal/domain/model"
	"github.com/okian/intake/internal/domain/normalize"
	"github.com/okian/intake/pkg/logger"
	"github.com/okian/intake/pkg/metrics"
)

// Scorer is the orchestrator's view of the scoring gateway.
type Scorer interface {
	Score(ctx context.Context, userID string, parsed model.ParsedData) (scoring.Result, error)
}

// CreateRequest is a validated inbound submission. Validation (userId
// shape, rawInput presence) happens at the transport boundary before
// the orchestrator sees the request.
type CreateRequest struct {
	UserID    string
	RawInput  map[string]any
	SourceIP  string
	UserAgent string
}

// Service orchestrates session creation: one durable insert that must
// succeed, then best-effort scoring, score persistence, and recency
// cache enrichment.
type Service struct {
	mu sync.RWMutex

	store  repository.Store
	scorer Scorer
	cache  recency.Cache

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the durable session store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithScorer sets the scoring gateway.
func WithScorer(scorer Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// WithCache sets the recency cache.
func WithCache(cache recency.Cache) Option {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service. Dependencies are injected through
// options; Start reports the ones still missing.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start verifies wiring and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		return fmt.Errorf("session store is required")
	}
	if s.scorer == nil {
		return fmt.Errorf("scorer is required")
	}
	if s.cache == nil {
		return fmt.Errorf("recency cache is required")
	}

	s.started = true
	s.logger.Info(ctx, "session service started")
	return nil
}

// Stop marks the service stopped. Owned resources (store handle, cache
// janitor) are closed by the caller that opened them.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "session service stopped")
}

// CreateSession turns one validated submission into a durable record, a
// best-effort score, and a best-effort cache entry. Only the initial
// insert can fail the request; every later step is absorbed and
// reflected solely in the returned view.
func (s *Service) CreateSession(ctx context.Context, req CreateRequest) (model.Session, error) {
	// Once orchestration begins, no step is cancellable from the
	// caller's side: a client disconnect must not abort the insert,
	// the scoring attempt, or the enrichment of a committed row.
	ctx = context.WithoutCancel(ctx)

	session := model.Session{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		CreatedAt:  time.Now().UTC(),
		RawInput:   req.RawInput,
		ParsedData: normalize.Normalize(req.RawInput),
	}
	if req.SourceIP != "" {
		ip := req.SourceIP
		session.SourceIP = &ip
	}
	if req.UserAgent != "" {
		ua := req.UserAgent
		session.UserAgent = &ua
	}

	// There is no session without a durable row.
	if err := s.store.Insert(ctx, session); err != nil {
		return model.Session{}, fmt.Errorf("insert session: %w", err)
	}
	metrics.RecordSessionCreated()

	result, err := s.scorer.Score(ctx, session.UserID, session.ParsedData)
	if err != nil {
		// Single attempt; the session stays valid without a score.
		s.logger.Warn(ctx, "scoring failed; session accepted without score",
			logger.String("sessionID", session.ID),
			logger.String("kind", scoring.Kind(err)),
			logger.Error(err),
		)
		metrics.RecordScoringFailure(scoring.Kind(err))
		metrics.RecordSessionUnscored()
		return session, nil
	}

	session.Score = &result.Score
	session.ScoreExplanation = &result.Explanation

	if err := s.store.UpdateScore(ctx, session.ID, result.Score, result.Explanation); err != nil {
		s.logger.Error(ctx, "failed to persist score",
			logger.String("sessionID", session.ID),
			logger.Error(err),
		)
		metrics.RecordScoreUpdateFailure()
	}

	if err := s.cache.Append(ctx, session.UserID, session.Summary()); err != nil {
		s.logger.Error(ctx, "failed to append recency summary",
			logger.String("sessionID", session.ID),
			logger.String("userID", session.UserID),
			logger.Error(err),
		)
		metrics.RecordCacheAppendFailure()
	} else {
		metrics.RecordCacheAppend()
	}

	return session, nil
}

// GetSession looks up one session; absence surfaces as
// repository.ErrNotFound.
func (s *Service) GetSession(ctx context.Context, id string) (model.Session, error) {
	session, err := s.store.FindByID(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	return session, nil
}

// RecentSessions returns the user's cached summaries, newest first.
// Cache failures degrade to an empty result; a malformed user id is
// rejected before any cache access.
func (s *Service) RecentSessions(ctx context.Context, userID string) ([]model.RecentSummary, error) {
	if err := uuid.Validate(userID); err != nil {
		return nil, fmt.Errorf("user id %q: %w", userID, ErrInvalidUserID)
	}

	summaries, err := s.cache.List(ctx, userID)
	if err != nil {
		s.logger.Warn(ctx, "recency lookup failed; returning empty",
			logger.String("userID", userID),
			logger.Error(err),
		)
		return []model.RecentSummary{}, nil
	}
	return summaries, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started": s.started,
	}
	if s.started {
		stats["sessions"] = s.store.Count(ctx)
		if counter, ok := s.cache.(interface{ Users() int }); ok {
			stats["recencyUsers"] = counter.Users()
		}
	}
	return stats
}
