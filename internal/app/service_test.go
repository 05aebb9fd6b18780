package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/okian/intake/internal/adapters/recency"
	"github.com/okian/intake/internal/adapters/repository"
	"github.com/okian/intake/internal/adapters/scoring"
	service "github.com/okian/intake/internal/app"
	"github.com/okian/intake/internal/domain/model"
	"github.com/okian/intake/internal/scorerstub"
	"github.com/okian/intake/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// stubStore is an in-memory repository.Store with switchable failures.
type stubStore struct {
	mu       sync.Mutex
	sessions map[string]model.Session

	failInsert error
	failUpdate error
}

func newStubStore() *stubStore {
	return &stubStore{sessions: make(map[string]model.Session)}
}

func (s *stubStore) Insert(ctx context.Context, session model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert != nil {
		return s.failInsert
	}
	if _, exists := s.sessions[session.ID]; exists {
		return repository.ErrDuplicateID
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *stubStore) UpdateScore(ctx context.Context, id string, score int, explanation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate != nil {
		return s.failUpdate
	}
	session, exists := s.sessions[id]
	if !exists {
		return repository.ErrNotFound
	}
	if session.Score != nil {
		return nil
	}
	session.Score = &score
	session.ScoreExplanation = &explanation
	s.sessions[id] = session
	return nil
}

func (s *stubStore) FindByID(ctx context.Context, id string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, exists := s.sessions[id]
	if !exists {
		return model.Session{}, repository.ErrNotFound
	}
	return session, nil
}

func (s *stubStore) Count(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *stubStore) Close() error { return nil }

// stubScorer returns a fixed result or error.
type stubScorer struct {
	result scoring.Result
	err    error
	calls  int
}

func (s *stubScorer) Score(ctx context.Context, userID string, parsed model.ParsedData) (scoring.Result, error) {
	s.calls++
	if s.err != nil {
		return scoring.Result{}, s.err
	}
	return s.result, nil
}

// failingCache errors on every operation.
type failingCache struct {
	listCalls int
}

func (c *failingCache) Append(ctx context.Context, userID string, summary model.RecentSummary) error {
	return errors.New("cache unavailable")
}

func (c *failingCache) List(ctx context.Context, userID string) ([]model.RecentSummary, error) {
	c.listCalls++
	return nil, errors.New("cache unavailable")
}

func sampleRawInput(t *testing.T) map[string]any {
	t.Helper()
	var raw map[string]any
	payload := `{
		"personalInfo": {"age": 30, "income": 75000, "employment": "full-time"},
		"preferences": {"riskTolerance": "moderate"},
		"flags": []
	}`
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("decode raw input: %v", err)
	}
	return raw
}

func startService(t *testing.T, store repository.Store, scorer service.Scorer, cache recency.Cache) *service.Service {
	t.Helper()
	svc := service.New(
		service.WithStore(store),
		service.WithScorer(scorer),
		service.WithCache(cache),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceStartRequiresDependencies(t *testing.T) {
	Convey("Given a service missing its dependencies", t, func() {
		svc := service.New()

		Convey("When starting", func() {
			err := svc.Start(context.Background())

			Convey("Then it refuses to start", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestCreateSessionHealthyEngine(t *testing.T) {
	Convey("Given a healthy scoring engine", t, func() {
		store := newStubStore()
		scorer := &stubScorer{result: scoring.Result{Score: 78, Explanation: "Score: 78/100"}}
		cache := recency.NewMemoryCache()
		svc := startService(t, store, scorer, cache)
		userID := uuid.NewString()
		ctx := context.Background()

		Convey("When creating a session", func() {
			got, err := svc.CreateSession(ctx, service.CreateRequest{
				UserID:    userID,
				RawInput:  sampleRawInput(t),
				SourceIP:  "198.51.100.7",
				UserAgent: "test-agent/1.0",
			})

			Convey("Then the view carries the engine's score", func() {
				So(err, ShouldBeNil)
				So(got.ID, ShouldNotBeEmpty)
				So(got.Score, ShouldNotBeNil)
				So(*got.Score, ShouldEqual, 78)
				So(got.ScoreExplanation, ShouldNotBeNil)
			})

			Convey("And the record is immediately retrievable with matching data", func() {
				stored, ferr := svc.GetSession(ctx, got.ID)
				So(ferr, ShouldBeNil)
				So(stored.UserID, ShouldEqual, userID)
				So(stored.RawInput, ShouldResemble, got.RawInput)
				So(stored.ParsedData, ShouldResemble, got.ParsedData)
				So(*stored.Score, ShouldEqual, 78)
			})

			Convey("And the recency cache gains the summary as its first element", func() {
				recent, rerr := svc.RecentSessions(ctx, userID)
				So(rerr, ShouldBeNil)
				So(recent, ShouldHaveLength, 1)
				So(recent[0].ID, ShouldEqual, got.ID)
				So(recent[0].Score, ShouldEqual, 78)
				So(recent[0].CreatedAt.Equal(got.CreatedAt), ShouldBeTrue)
			})

			Convey("And provenance metadata was captured", func() {
				stored, ferr := svc.GetSession(ctx, got.ID)
				So(ferr, ShouldBeNil)
				So(*stored.SourceIP, ShouldEqual, "198.51.100.7")
				So(*stored.UserAgent, ShouldEqual, "test-agent/1.0")
			})
		})
	})
}

func TestCreateSessionEngineDown(t *testing.T) {
	Convey("Given an unreachable scoring engine", t, func() {
		store := newStubStore()
		scorer := &stubScorer{err: scoring.ErrEngineUnreachable}
		cache := recency.NewMemoryCache()
		svc := startService(t, store, scorer, cache)
		userID := uuid.NewString()
		ctx := context.Background()

		Convey("When creating a session", func() {
			got, err := svc.CreateSession(ctx, service.CreateRequest{
				UserID:   userID,
				RawInput: sampleRawInput(t),
			})

			Convey("Then the session is accepted without a score", func() {
				So(err, ShouldBeNil)
				So(got.Score, ShouldBeNil)
				So(got.ScoreExplanation, ShouldBeNil)
			})

			Convey("And the record is still durably retrievable", func() {
				stored, ferr := svc.GetSession(ctx, got.ID)
				So(ferr, ShouldBeNil)
				So(stored.Score, ShouldBeNil)
			})

			Convey("And the recency cache gains no entry", func() {
				recent, rerr := svc.RecentSessions(ctx, userID)
				So(rerr, ShouldBeNil)
				So(recent, ShouldBeEmpty)
			})

			Convey("And scoring was attempted exactly once", func() {
				So(scorer.calls, ShouldEqual, 1)
			})
		})
	})
}

func TestCreateSessionInsertFailureIsFatal(t *testing.T) {
	Convey("Given a store that rejects inserts", t, func() {
		store := newStubStore()
		store.failInsert = errors.New("disk full")
		scorer := &stubScorer{result: scoring.Result{Score: 78, Explanation: "ok"}}
		svc := startService(t, store, scorer, recency.NewMemoryCache())

		Convey("When creating a session", func() {
			_, err := svc.CreateSession(context.Background(), service.CreateRequest{
				UserID:   uuid.NewString(),
				RawInput: sampleRawInput(t),
			})

			Convey("Then the whole operation fails", func() {
				So(err, ShouldNotBeNil)
			})

			Convey("And scoring was never attempted", func() {
				So(scorer.calls, ShouldEqual, 0)
			})
		})
	})
}

func TestCreateSessionScoreUpdateFailureAbsorbed(t *testing.T) {
	Convey("Given a store whose score update fails", t, func() {
		store := newStubStore()
		store.failUpdate = errors.New("write timeout")
		scorer := &stubScorer{result: scoring.Result{Score: 61, Explanation: "ok"}}
		cache := recency.NewMemoryCache()
		svc := startService(t, store, scorer, cache)
		userID := uuid.NewString()

		Convey("When creating a session", func() {
			got, err := svc.CreateSession(context.Background(), service.CreateRequest{
				UserID:   userID,
				RawInput: sampleRawInput(t),
			})

			Convey("Then the response still carries the observed score", func() {
				So(err, ShouldBeNil)
				So(got.Score, ShouldNotBeNil)
				So(*got.Score, ShouldEqual, 61)
			})

			Convey("And the cache append still happens", func() {
				recent, rerr := svc.RecentSessions(context.Background(), userID)
				So(rerr, ShouldBeNil)
				So(recent, ShouldHaveLength, 1)
			})
		})
	})
}

func TestCreateSessionCacheFailureAbsorbed(t *testing.T) {
	Convey("Given an unavailable recency cache", t, func() {
		store := newStubStore()
		scorer := &stubScorer{result: scoring.Result{Score: 70, Explanation: "ok"}}
		cache := &failingCache{}
		svc := startService(t, store, scorer, cache)

		Convey("When creating a session", func() {
			got, err := svc.CreateSession(context.Background(), service.CreateRequest{
				UserID:   uuid.NewString(),
				RawInput: sampleRawInput(t),
			})

			Convey("Then the request still succeeds with its score", func() {
				So(err, ShouldBeNil)
				So(*got.Score, ShouldEqual, 70)
			})
		})
	})
}

func TestGetSessionNotFound(t *testing.T) {
	Convey("Given an empty store", t, func() {
		svc := startService(t, newStubStore(), &stubScorer{}, recency.NewMemoryCache())

		Convey("When looking up an id that was never inserted", func() {
			_, err := svc.GetSession(context.Background(), uuid.NewString())

			Convey("Then the miss surfaces as not-found", func() {
				So(err, ShouldWrap, repository.ErrNotFound)
			})
		})
	})
}

func TestRecentSessionsValidation(t *testing.T) {
	Convey("Given a service with a failing cache", t, func() {
		cache := &failingCache{}
		svc := startService(t, newStubStore(), &stubScorer{}, cache)

		Convey("When looking up recency with a malformed user id", func() {
			_, err := svc.RecentSessions(context.Background(), "not-a-uuid")

			Convey("Then it is rejected before any cache access", func() {
				So(err, ShouldWrap, service.ErrInvalidUserID)
				So(cache.listCalls, ShouldEqual, 0)
			})
		})

		Convey("When the cache itself fails on a valid id", func() {
			recent, err := svc.RecentSessions(context.Background(), uuid.NewString())

			Convey("Then the result degrades to empty instead of erroring", func() {
				So(err, ShouldBeNil)
				So(recent, ShouldBeEmpty)
				So(cache.listCalls, ShouldEqual, 1)
			})
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given a started service", t, func() {
		store := newStubStore()
		scorer := &stubScorer{result: scoring.Result{Score: 55, Explanation: "ok"}}
		svc := startService(t, store, scorer, recency.NewMemoryCache())

		Convey("When sessions have been created", func() {
			_, err := svc.CreateSession(context.Background(), service.CreateRequest{
				UserID:   uuid.NewString(),
				RawInput: sampleRawInput(t),
			})
			So(err, ShouldBeNil)

			Convey("Then stats reflect the stored sessions", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["sessions"], ShouldEqual, 1)
			})
		})
	})
}

func TestCreateSessionCallerDisconnect(t *testing.T) {
	Convey("Given a healthy engine and a caller that disconnects before responding", t, func() {
		engine := httptest.NewServer(scorerstub.NewHandler("secret"))
		defer engine.Close()

		store := newStubStore()
		scorer := scoring.NewClient(
			scoring.WithBaseURL(engine.URL),
			scoring.WithToken("secret"),
		)
		cache := recency.NewMemoryCache()
		svc := startService(t, store, scorer, cache)
		userID := uuid.NewString()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("When creating a session with the already-canceled context", func() {
			got, err := svc.CreateSession(ctx, service.CreateRequest{
				UserID:   userID,
				RawInput: sampleRawInput(t),
			})

			Convey("Then the session is created and scored anyway", func() {
				So(err, ShouldBeNil)
				So(got.Score, ShouldNotBeNil)
				So(*got.Score, ShouldEqual, 85)
			})

			Convey("And the durable row carries the persisted score", func() {
				stored, ferr := svc.GetSession(context.Background(), got.ID)
				So(ferr, ShouldBeNil)
				So(stored.Score, ShouldNotBeNil)
				So(*stored.Score, ShouldEqual, 85)
			})

			Convey("And the recency cache still gains the summary", func() {
				recent, rerr := svc.RecentSessions(context.Background(), userID)
				So(rerr, ShouldBeNil)
				So(recent, ShouldHaveLength, 1)
				So(recent[0].ID, ShouldEqual, got.ID)
			})
		})
	})
}
