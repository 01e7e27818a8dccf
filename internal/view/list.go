package view

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pearguacamole/VroomVault/internal/catalog"
	catalogerrors "github.com/pearguacamole/VroomVault/internal/catalog/errors"
)

// ListPhase is the state of the list screen.
type ListPhase int

const (
	ListLoading ListPhase = iota
	ListReady
	ListFailed
)

func (p ListPhase) String() string {
	switch p {
	case ListReady:
		return "ready"
	case ListFailed:
		return "failed"
	default:
		return "loading"
	}
}

// ListState is a snapshot of the list screen.
// Products keeps the last successful result, also after a failed fetch.
type ListState struct {
	Phase    ListPhase
	Keyword  string
	Products []catalog.Product
	Loading  bool
	Error    string
}

// ListScreen shows the signed-in user's products, filtered by a keyword.
type ListScreen struct {
	deps   Deps
	logger *slog.Logger

	mu       sync.Mutex
	state    ListState
	issued   uint64
	inflight int
	closed   bool
	onChange func(ListState)
}

// NewListScreen creates an unmounted list screen.
func NewListScreen(deps Deps) *ListScreen {
	deps = deps.withDefaults()
	return &ListScreen{
		deps:   deps,
		logger: deps.Logger.With("component", "list_screen"),
		state:  ListState{Phase: ListLoading, Products: []catalog.Product{}},
	}
}

// OnChange registers fn to receive a snapshot after every transition.
// fn runs with the screen locked and must not call back into it.
func (s *ListScreen) OnChange(fn func(ListState)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Mount performs the initial fetch.
func (s *ListScreen) Mount(ctx context.Context) error {
	return s.fetch(ctx, s.keyword())
}

// SetKeyword changes the filter and fetches again. A blank keyword lists everything.
func (s *ListScreen) SetKeyword(ctx context.Context, keyword string) error {
	s.mu.Lock()
	s.state.Keyword = keyword
	s.mu.Unlock()
	return s.fetch(ctx, keyword)
}

// Refresh fetches again with the current keyword.
func (s *ListScreen) Refresh(ctx context.Context) error {
	return s.fetch(ctx, s.keyword())
}

// State returns the current snapshot.
func (s *ListScreen) State() ListState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Close detaches the screen; outstanding fetches are ignored when they complete.
func (s *ListScreen) Close() {
	s.mu.Lock()
	s.closed = true
	s.onChange = nil
	s.mu.Unlock()
}

func (s *ListScreen) keyword() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Keyword
}

func (s *ListScreen) fetch(ctx context.Context, keyword string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.issued++
	tag := s.issued
	s.inflight++
	s.state.Phase = ListLoading
	s.state.Loading = true
	s.publishLocked()
	s.mu.Unlock()

	var (
		products []catalog.Product
		err      error
	)
	if strings.TrimSpace(keyword) == "" {
		products, err = s.deps.Repository.List(ctx)
	} else {
		products, err = s.deps.Repository.Search(ctx, keyword)
	}

	s.mu.Lock()
	s.inflight--
	if s.closed {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "discarding result for closed screen", "tag", tag)
		return err
	}
	s.state.Loading = s.inflight > 0
	if latest := s.issued; s.deps.Ordering == LastIssuedWins && tag != latest {
		s.publishLocked()
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "discarding superseded result", "tag", tag, "latest", latest)
		return err
	}
	if err != nil {
		s.state.Phase = ListFailed
		s.state.Error = catalogerrors.Message(err)
	} else {
		s.state.Phase = ListReady
		s.state.Products = products
		s.state.Error = ""
	}
	s.publishLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.WarnContext(ctx, "failed to load products", "keyword", keyword, "error", err)
		if isUnauthenticated(err) {
			s.deps.Navigator.Navigate(RouteLogin)
		}
	}
	return err
}

func (s *ListScreen) snapshot() ListState {
	out := s.state
	out.Products = append([]catalog.Product(nil), s.state.Products...)
	if out.Products == nil {
		out.Products = []catalog.Product{}
	}
	return out
}

// publishLocked notifies the listener. The caller holds s.mu.
func (s *ListScreen) publishLocked() {
	if s.onChange != nil {
		s.onChange(s.snapshot())
	}
}
