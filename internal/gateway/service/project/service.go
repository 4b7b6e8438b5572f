// Package project owns the live project runtimes and implements the
// operations the API layer exposes: project CRUD, debate control, stage
// navigation and export.
package project

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"proposalforge/internal/debate"
	"proposalforge/internal/export"
	"proposalforge/internal/gateway/repository/projectstore"
	"proposalforge/internal/types"
	"proposalforge/internal/workflow"
)

var (
	// ErrNotFound means no record exists for the session id.
	ErrNotFound = errors.New("project not found")
	// ErrForbidden means the project belongs to a different user.
	ErrForbidden = errors.New("project owned by another user")
)

var (
	projectsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "projects_created_total",
		Help: "Projects created since process start.",
	})
	stagesFinalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stages_finalized_total",
		Help: "Stage finalizations by stage id.",
	}, []string{"stage"})
)

// Service implements project business logic and owns all live runtimes.
type Service struct {
	store     *projectstore.Store
	assembler *export.Assembler
	factory   debate.ClientFactory
	opts      debate.Options

	mu       sync.RWMutex
	runtimes map[string]*Runtime
}

// New creates a project service. opts tunes every orchestrator the service
// creates; its OnChange is owned by the runtime and ignored here.
func New(store *projectstore.Store, assembler *export.Assembler, factory debate.ClientFactory, opts debate.Options) *Service {
	return &Service{
		store:     store,
		assembler: assembler,
		factory:   factory,
		opts:      opts,
		runtimes:  make(map[string]*Runtime),
	}
}

// Store returns the underlying persistence store.
func (s *Service) Store() *projectstore.Store { return s.store }

// Create starts a new project for the user and persists its initial record.
func (s *Service) Create(ctx context.Context, userID string, params types.Params, creds debate.Credentials) (*Runtime, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("project: user id is required")
	}
	if !params.Level.Valid() {
		return nil, fmt.Errorf("project: unknown level %q", params.Level)
	}
	if !params.Type.Valid() {
		return nil, fmt.Errorf("project: unknown project type %q", params.Type)
	}
	if params.Language == "" {
		params.Language = types.LangEnglish
	}

	session, err := debate.NewSession(params, creds, s.factory)
	if err != nil {
		return nil, err
	}

	s.store.EnsureLoaded(ctx)
	sessionID := uuid.NewString()
	rt := newRuntime(sessionID, userID, session, workflow.New(params.Type), s.store, s.opts)

	stage := rt.Stage()
	if err := s.store.Save(ctx, sessionID, projectstore.Patch{
		UserID: &userID,
		Params: &params,
		Stage:  &stage,
	}); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("project: persist new project: %w", err)
	}

	s.mu.Lock()
	s.runtimes[sessionID] = rt
	s.mu.Unlock()

	projectsCreated.Inc()
	return rt, nil
}

// Get returns the live runtime for a session, if one exists in this
// process. Persisted-but-unloaded projects need Open first.
func (s *Service) Get(sessionID string) (*Runtime, bool) {
	s.mu.RLock()
	rt, ok := s.runtimes[strings.TrimSpace(sessionID)]
	s.mu.RUnlock()
	return rt, ok
}

// Open returns the runtime for a session, rehydrating it from the
// persisted record when it is not live. Credentials are supplied by the
// caller on every open; they are never persisted.
func (s *Service) Open(ctx context.Context, userID, sessionID string, creds debate.Credentials) (*Runtime, error) {
	if rt, ok := s.Get(sessionID); ok {
		if rt.UserID() != strings.TrimSpace(userID) {
			return nil, fmt.Errorf("project %s: %w", sessionID, ErrForbidden)
		}
		return rt, nil
	}

	s.store.EnsureLoaded(ctx)
	rec, ok, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("project: load %s: %w", sessionID, err)
	}
	if !ok {
		return nil, fmt.Errorf("project %s: %w", sessionID, ErrNotFound)
	}
	if rec.UserID != strings.TrimSpace(userID) {
		return nil, fmt.Errorf("project %s: %w", sessionID, ErrForbidden)
	}

	session, err := debate.NewSession(rec.Params, creds, s.factory)
	if err != nil {
		return nil, err
	}
	session.RestoreFinalized(rec.Finalized)

	seq, err := workflow.Restore(rec.Params.Type, rec.Stage)
	if err != nil {
		_ = session.Close()
		return nil, err
	}

	rt := newRuntime(sessionID, rec.UserID, session, seq, s.store, s.opts)
	rt.orch.RestoreTranscript(rec.Stage, rec.Transcript, rec.Diagram)

	s.mu.Lock()
	if existing, ok := s.runtimes[sessionID]; ok {
		// lost the race, keep the runtime that got there first
		s.mu.Unlock()
		_ = session.Close()
		return existing, nil
	}
	s.runtimes[sessionID] = rt
	s.mu.Unlock()
	return rt, nil
}

// List returns the persisted records owned by the user, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]projectstore.Record, error) {
	s.store.EnsureLoaded(ctx)
	recs, err := s.store.ListByUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].UpdatedAt.After(recs[j].UpdatedAt)
	})
	return recs, nil
}

// Delete removes a project: its live runtime, if any, and its record.
func (s *Service) Delete(ctx context.Context, userID, sessionID string) error {
	rec, ok, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	if ok && rec.UserID != strings.TrimSpace(userID) {
		return fmt.Errorf("project %s: %w", sessionID, ErrForbidden)
	}

	s.mu.Lock()
	rt, live := s.runtimes[sessionID]
	delete(s.runtimes, sessionID)
	s.mu.Unlock()
	if live {
		_ = rt.Close()
	}
	return s.store.Delete(ctx, sessionID)
}

// Finalize locks in the stage output and counts it.
func (s *Service) Finalize(ctx context.Context, rt *Runtime, text, note string) error {
	stage := rt.Stage()
	if err := rt.Finalize(ctx, text, note); err != nil {
		return err
	}
	stagesFinalized.WithLabelValues(string(stage)).Inc()
	return nil
}

// Export assembles the finalized document bundle for a completed project.
func (s *Service) Export(ctx context.Context, rt *Runtime) (export.Result, error) {
	if s.assembler == nil {
		return export.Result{}, fmt.Errorf("project: export is not configured")
	}
	if !rt.ExportReady() {
		return export.Result{}, fmt.Errorf("project: not every stage is finalized")
	}

	rec, ok, err := s.store.Load(ctx, rt.SessionID())
	if err != nil {
		return export.Result{}, err
	}
	if !ok {
		// runtime exists but the record was never written; assemble from memory
		rec = projectstore.Record{
			SessionID: rt.SessionID(),
			UserID:    rt.UserID(),
			Params:    rt.Params(),
			Finalized: rt.Finalized(),
		}
	}
	return s.assembler.Assemble(ctx, rec)
}

// Close shuts down every live runtime and the store.
func (s *Service) Close() error {
	s.mu.Lock()
	for id, rt := range s.runtimes {
		_ = rt.Close()
		delete(s.runtimes, id)
	}
	s.mu.Unlock()
	return s.store.Close()
}
