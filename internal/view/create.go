package view

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pearguacamole/VroomVault/internal/catalog"
	catalogerrors "github.com/pearguacamole/VroomVault/internal/catalog/errors"
	"github.com/pearguacamole/VroomVault/internal/imageset"
)

// CreatePhase is the state of the create screen.
type CreatePhase int

const (
	Composing CreatePhase = iota
	Submitting
	// Created is terminal; the screen has navigated to the product list.
	Created
)

func (p CreatePhase) String() string {
	switch p {
	case Submitting:
		return "submitting"
	case Created:
		return "created"
	default:
		return "composing"
	}
}

// CreateState is a snapshot of the create screen.
type CreateState struct {
	Phase   CreatePhase
	Fields  catalog.Fields
	Slots   []imageset.Slot
	Product catalog.Product
	Error   string
}

// CreateScreen composes a new product.
type CreateScreen struct {
	deps   Deps
	logger *slog.Logger

	mu       sync.Mutex
	phase    CreatePhase
	fields   catalog.Fields
	composer *imageset.Composer
	created  catalog.Product
	errText  string
	closed   bool
	onChange func(CreateState)
}

// NewCreateScreen creates an empty create screen.
func NewCreateScreen(deps Deps) *CreateScreen {
	deps = deps.withDefaults()
	return &CreateScreen{
		deps:     deps,
		logger:   deps.Logger.With("component", "create_screen"),
		composer: deps.newComposer(),
	}
}

// OnChange registers fn to receive a snapshot after every transition.
// fn runs with the screen locked and must not call back into it.
func (s *CreateScreen) OnChange(fn func(CreateState)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// SetFields replaces the entered fields.
func (s *CreateScreen) SetFields(fields catalog.Fields) error {
	return s.compose(func() error {
		s.fields = fields
		return nil
	})
}

// AddImages appends local files. Nothing is added when the cap would be exceeded.
func (s *CreateScreen) AddImages(files ...imageset.LocalFile) error {
	return s.compose(func() error {
		return s.composer.Append(files...)
	})
}

// RemoveImage drops the selected image at index.
func (s *CreateScreen) RemoveImage(index int) error {
	return s.compose(func() error {
		return s.composer.Remove(index)
	})
}

// Submit creates the product. On success it navigates to the product list;
// on failure it returns to Composing with the fields and images kept.
func (s *CreateScreen) Submit(ctx context.Context) (catalog.Product, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return catalog.Product{}, ErrClosed
	}
	if s.phase != Composing {
		s.mu.Unlock()
		return catalog.Product{}, ErrWrongState
	}
	fields := s.fields
	if err := fields.Validate(); err != nil {
		s.errText = catalogerrors.Message(err)
		s.publishLocked()
		s.mu.Unlock()
		return catalog.Product{}, err
	}
	slots := s.composer.Slots()
	s.phase = Submitting
	s.errText = ""
	s.publishLocked()
	s.mu.Unlock()

	created, err := s.submit(ctx, fields, slots)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return created, err
	}
	if err != nil {
		s.phase = Composing
		s.errText = catalogerrors.Message(err)
		s.publishLocked()
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "failed to create product", "error", err)
		if isUnauthenticated(err) {
			s.deps.Navigator.Navigate(RouteLogin)
		}
		return catalog.Product{}, err
	}
	s.phase = Created
	s.created = created
	s.publishLocked()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "product created", "product_id", created.ID)
	s.deps.Navigator.Navigate(RouteProducts)
	return created, nil
}

func (s *CreateScreen) submit(ctx context.Context, fields catalog.Fields, slots []imageset.Slot) (catalog.Product, error) {
	payload, err := imageset.Compose(ctx, slots, s.deps.Fetcher, s.deps.Concurrency)
	if err != nil {
		return catalog.Product{}, err
	}
	return s.deps.Repository.Create(ctx, fields, payload)
}

// State returns the current snapshot.
func (s *CreateScreen) State() CreateState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Close detaches the screen.
func (s *CreateScreen) Close() {
	s.mu.Lock()
	s.closed = true
	s.onChange = nil
	s.mu.Unlock()
}

func (s *CreateScreen) compose(mutate func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == Submitting {
		return ErrBusy
	}
	if s.phase != Composing {
		return ErrWrongState
	}
	if err := mutate(); err != nil {
		s.errText = catalogerrors.Message(err)
		s.publishLocked()
		return err
	}
	s.errText = ""
	s.publishLocked()
	return nil
}

func (s *CreateScreen) snapshot() CreateState {
	return CreateState{
		Phase:   s.phase,
		Fields:  s.fields,
		Slots:   s.composer.Slots(),
		Product: s.created,
		Error:   s.errText,
	}
}

func (s *CreateScreen) publishLocked() {
	if s.onChange != nil {
		s.onChange(s.snapshot())
	}
}
