// Package session keeps upload sessions in memory and runs their mapping
// suggestions in the background.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"orgmap/pkg/app"
	"orgmap/pkg/metrics"
	"orgmap/pkg/schema"
	"orgmap/pkg/suggest"
)

var (
	// ErrNotFound is returned for unknown or expired session ids.
	ErrNotFound = errors.New("session not found")
	// ErrCapacity is returned when the session limit is reached.
	ErrCapacity = errors.New("too many sessions")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session manager closed")
	// ErrNoSuggester is returned by Suggest when no provider is configured.
	ErrNoSuggester = errors.New("no suggestion provider configured")
)

// Options configures a Manager. Zero values fall back to defaults.
type Options struct {
	// Suggester may be nil, in which case uploads are mapped by hand.
	Suggester       suggest.Suggester
	Required        []schema.Field
	SuggestTimeout  time.Duration
	TTL             time.Duration
	JanitorInterval time.Duration
	MaxSessions     int
	Logger          *zap.Logger
	Metrics         *metrics.Metrics
	Now             func() time.Time
}

// Manager owns every live session.
type Manager struct {
	opts   Options
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool

	flight singleflight.Group
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Session is one upload workspace. Its state only changes through
// app.Reduce while holding mu.
type Session struct {
	ID string

	mu       sync.Mutex
	state    app.State
	lastSeen time.Time
}

// NewManager creates a manager and starts its janitor when
// opts.JanitorInterval is positive.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SuggestTimeout <= 0 {
		opts.SuggestTimeout = 30 * time.Second
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 1000
	}
	if opts.Required == nil {
		opts.Required = schema.DefaultRequired
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		opts:     opts,
		logger:   opts.Logger.Named("session"),
		sessions: make(map[string]*Session),
		ctx:      ctx,
		cancel:   cancel,
	}
	if opts.JanitorInterval > 0 {
		m.wg.Add(1)
		go m.janitor(opts.JanitorInterval)
	}
	return m
}

// Upload parses a file into the session id, creating the session when id is
// empty. A rejected first upload leaves no session behind. Every upload
// gets a fresh token, so a suggestion still pending for a previous file of
// the same session is discarded when it arrives.
func (m *Manager) Upload(id, fileName string, data []byte) (string, app.State, error) {
	var (
		s   *Session
		err error
	)
	if id == "" {
		s, err = m.create()
	} else {
		s, err = m.lookup(id)
	}
	if err != nil {
		return "", app.State{}, err
	}

	res, err := app.Ingest(fileName, data)
	if err != nil {
		m.opts.Metrics.Upload("error")
		m.logger.Info("upload rejected",
			zap.String("session", s.ID),
			zap.String("file", fileName),
			zap.Error(err))
		if id == "" {
			m.Delete(s.ID)
			return "", app.Reduce(app.New(m.opts.Required), app.UploadFailed{FileName: fileName, Err: err}), err
		}
		return s.ID, s.dispatch(m.opts.Now(), app.UploadFailed{FileName: fileName, Err: err}), err
	}

	token := uuid.NewString()
	st := s.dispatch(m.opts.Now(), app.Uploaded{FileName: fileName, Token: token, Result: res})
	m.opts.Metrics.Upload("ok")
	m.logger.Info("upload parsed",
		zap.String("session", s.ID),
		zap.String("file", fileName),
		zap.String("encoding", res.Encoding),
		zap.Int("headers", len(res.Headers)),
		zap.Int("rows", len(res.Rows)),
		zap.Int("skipped", len(res.Warnings)))
	for _, w := range res.Warnings {
		m.logger.Debug("row skipped", zap.String("session", s.ID), zap.Int("row", w.Row), zap.String("reason", w.Message))
	}

	if st.Suggestion == app.SuggestionIdle && m.opts.Suggester != nil {
		if st, err = m.startSuggestion(s, token, res.Headers); err != nil {
			return s.ID, st, err
		}
	}
	return s.ID, st, nil
}

// Suggest re-runs the mapping suggestion for the session's current file.
// While a suggestion is pending the call is a no-op.
func (m *Manager) Suggest(id string) (app.State, error) {
	s, err := m.lookup(id)
	if err != nil {
		return app.State{}, err
	}
	if m.opts.Suggester == nil {
		return s.snapshot(m.opts.Now()), ErrNoSuggester
	}
	st := s.snapshot(m.opts.Now())
	if !st.HasFile() {
		return st, app.ErrNoData
	}
	if st.Suggestion == app.SuggestionPending {
		return st, nil
	}
	return m.startSuggestion(s, st.Token, st.Headers)
}

// startSuggestion registers the worker with wg under mu so Close never
// waits on a group that is still growing.
func (m *Manager) startSuggestion(s *Session, token string, headers []string) (app.State, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return s.snapshot(m.opts.Now()), ErrClosed
	}
	m.wg.Add(1)
	m.mu.Unlock()

	st := s.dispatch(m.opts.Now(), app.SuggestionStarted{Token: token})
	provider := m.opts.Suggester.Name()

	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(m.ctx, m.opts.SuggestTimeout)
		defer cancel()

		start := time.Now()
		v, err, _ := m.flight.Do(token, func() (any, error) {
			return suggest.Run(ctx, m.opts.Suggester, headers)
		})
		took := time.Since(start)
		res, _ := v.(suggest.Result)

		applied := s.receive(m.opts.Now(), app.SuggestionReceived{Token: token, Mapping: res.Mapping, Err: err})
		fields := []zap.Field{
			zap.String("session", s.ID),
			zap.String("token", token),
			zap.String("provider", provider),
			zap.Duration("took", took),
		}
		switch {
		case !applied:
			m.opts.Metrics.Suggestion(provider, "stale", took)
			m.logger.Info("discarding stale suggestion", fields...)
		case err != nil:
			m.opts.Metrics.Suggestion(provider, "error", took)
			m.logger.Warn("mapping suggestion failed", append(fields, zap.Error(err))...)
		default:
			m.opts.Metrics.Suggestion(provider, "ok", took)
			m.logger.Info("mapping suggested", append(fields, zap.Int("mapped", res.Mapped))...)
		}
	}()
	return st, nil
}

// Get returns the current state of a session.
func (m *Manager) Get(id string) (app.State, error) {
	s, err := m.lookup(id)
	if err != nil {
		return app.State{}, err
	}
	return s.snapshot(m.opts.Now()), nil
}

// Dispatch applies a to the session and returns the resulting state.
func (m *Manager) Dispatch(id string, a app.Action) (app.State, error) {
	s, err := m.lookup(id)
	if err != nil {
		return app.State{}, err
	}
	return s.dispatch(m.opts.Now(), a), nil
}

// Delete drops a session. Unknown ids are ignored.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	m.opts.Metrics.SetSessions(n)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Sweep() int {
	cutoff := m.opts.Now().Add(-m.opts.TTL)

	m.mu.Lock()
	removed := 0
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	m.opts.Metrics.SetSessions(n)
	if removed > 0 {
		m.logger.Debug("expired sessions evicted", zap.Int("removed", removed), zap.Int("live", n))
	}
	return removed
}

// Wait blocks until every background suggestion has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Close cancels pending suggestions, stops the janitor and waits for both.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) janitor(every time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if len(m.sessions) >= m.opts.MaxSessions {
		return nil, ErrCapacity
	}
	s := &Session{
		ID:       uuid.NewString(),
		state:    app.New(m.opts.Required),
		lastSeen: m.opts.Now(),
	}
	m.sessions[s.ID] = s
	m.opts.Metrics.SetSessions(len(m.sessions))
	return s, nil
}

func (m *Manager) lookup(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (s *Session) dispatch(now time.Time, a app.Action) app.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = app.Reduce(s.state, a)
	s.lastSeen = now
	return s.state
}

// receive applies a suggestion result and reports whether it was still
// current.
func (s *Session) receive(now time.Time, a app.SuggestionReceived) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Token != a.Token {
		return false
	}
	s.state = app.Reduce(s.state, a)
	s.lastSeen = now
	return true
}

func (s *Session) snapshot(now time.Time) app.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
	return s.state
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
