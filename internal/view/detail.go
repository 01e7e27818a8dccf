package view

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/pearguacamole/VroomVault/internal/catalog"
	catalogerrors "github.com/pearguacamole/VroomVault/internal/catalog/errors"
	"github.com/pearguacamole/VroomVault/internal/imageset"
)

// DetailPhase is the state of the detail screen.
type DetailPhase int

const (
	DetailLoading DetailPhase = iota
	DetailViewing
	DetailEditing
	DetailDeleted
	// DetailFailed means the product could not be loaded at all.
	DetailFailed
)

func (p DetailPhase) String() string {
	switch p {
	case DetailViewing:
		return "viewing"
	case DetailEditing:
		return "editing"
	case DetailDeleted:
		return "deleted"
	case DetailFailed:
		return "failed"
	default:
		return "loading"
	}
}

// DetailState is a snapshot of the detail screen.
// Draft and Slots are only meaningful while editing.
type DetailState struct {
	Phase      DetailPhase
	Product    catalog.Product
	Draft      catalog.Fields
	Slots      []imageset.Slot
	ImageIndex int
	Loading    bool
	Error      string
}

// Editing reports whether the screen is in edit mode.
func (s DetailState) Editing() bool {
	return s.Phase == DetailEditing
}

// DetailScreen shows one product and lets its owner edit or delete it.
type DetailScreen struct {
	deps   Deps
	id     string
	logger *slog.Logger

	mu       sync.Mutex
	phase    DetailPhase
	product  catalog.Product
	draft    catalog.Fields
	composer *imageset.Composer
	carousel imageset.Carousel
	busy     bool
	errText  string
	closed   bool
	onChange func(DetailState)
}

// NewDetailScreen creates the detail screen of product id.
func NewDetailScreen(deps Deps, id string) *DetailScreen {
	deps = deps.withDefaults()
	return &DetailScreen{
		deps:     deps,
		id:       id,
		logger:   deps.Logger.With("component", "detail_screen", "product_id", id),
		composer: deps.newComposer(),
	}
}

// OnChange registers fn to receive a snapshot after every transition.
// fn runs with the screen locked and must not call back into it.
func (s *DetailScreen) OnChange(fn func(DetailState)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Load fetches the product and enters Viewing.
func (s *DetailScreen) Load(ctx context.Context) error {
	s.mu.Lock()
	if err := s.beginLocked(DetailLoading, DetailViewing, DetailFailed); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	p, err := s.deps.Repository.Get(ctx, s.id)

	s.mu.Lock()
	if s.finishLocked() {
		s.mu.Unlock()
		return err
	}
	if err != nil {
		s.errText = catalogerrors.Message(err)
		if s.phase == DetailLoading {
			s.phase = DetailFailed
		}
	} else {
		s.product = p
		s.phase = DetailViewing
		s.carousel.Reset()
	}
	s.publishLocked()
	s.mu.Unlock()
	return s.afterFailure(ctx, "load", err)
}

// BeginEdit enters Editing with the stored images as remote slots.
func (s *DetailScreen) BeginEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	if s.phase != DetailViewing {
		return ErrWrongState
	}
	s.draft = catalog.FieldsOf(s.product)
	s.composer.Seed(s.product.ImageURLs)
	s.carousel.Clamp(s.composer.Len())
	s.phase = DetailEditing
	s.errText = ""
	s.publishLocked()
	return nil
}

// SetFields replaces the draft fields.
func (s *DetailScreen) SetFields(fields catalog.Fields) error {
	return s.edit(func() error {
		s.draft = fields
		return nil
	})
}

// AddImages appends local files to the draft image set. Nothing is added when the cap would be exceeded.
func (s *DetailScreen) AddImages(files ...imageset.LocalFile) error {
	return s.edit(func() error {
		return s.composer.Append(files...)
	})
}

// RemoveImage drops the draft image at index and keeps the carousel in range.
func (s *DetailScreen) RemoveImage(index int) error {
	return s.edit(func() error {
		if err := s.composer.Remove(index); err != nil {
			return err
		}
		s.carousel.Clamp(s.composer.Len())
		return nil
	})
}

// CancelEdit drops the draft and returns to Viewing.
func (s *DetailScreen) CancelEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	if s.phase != DetailEditing {
		return ErrWrongState
	}
	s.leaveEditLocked()
	s.errText = ""
	s.publishLocked()
	return nil
}

// Submit validates the draft, composes the image set and updates the product.
// On success the screen shows the returned record; on failure it stays in Editing
// with the draft and slots untouched.
func (s *DetailScreen) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.phase != DetailEditing {
		s.mu.Unlock()
		return ErrWrongState
	}
	fields := s.draft
	if err := fields.Validate(); err != nil {
		s.errText = catalogerrors.Message(err)
		s.publishLocked()
		s.mu.Unlock()
		return err
	}
	slots := s.composer.Slots()
	s.busy = true
	s.errText = ""
	s.publishLocked()
	s.mu.Unlock()

	updated, err := s.submit(ctx, fields, slots)

	s.mu.Lock()
	if s.finishLocked() {
		s.mu.Unlock()
		return err
	}
	if err != nil {
		s.errText = catalogerrors.Message(err)
	} else {
		s.product = updated
		s.leaveEditLocked()
	}
	s.publishLocked()
	s.mu.Unlock()
	return s.afterFailure(ctx, "update", err)
}

func (s *DetailScreen) submit(ctx context.Context, fields catalog.Fields, slots []imageset.Slot) (catalog.Product, error) {
	payload, err := imageset.Compose(ctx, slots, s.deps.Fetcher, s.deps.Concurrency)
	if err != nil {
		return catalog.Product{}, err
	}
	s.logger.DebugContext(ctx, "composed images", "attachments", payload.Len())
	return s.deps.Repository.Update(ctx, s.id, fields, payload)
}

// Delete removes the product. On success the screen becomes Deleted and navigates
// to the product list; on failure nothing changes besides the error text.
func (s *DetailScreen) Delete(ctx context.Context) error {
	s.mu.Lock()
	if err := s.beginLocked(DetailViewing, DetailEditing); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	err := s.deps.Repository.Delete(ctx, s.id)

	s.mu.Lock()
	if s.finishLocked() {
		s.mu.Unlock()
		return err
	}
	if err != nil {
		s.errText = catalogerrors.Message(err)
		s.publishLocked()
		s.mu.Unlock()
		return s.afterFailure(ctx, "delete", err)
	}
	s.phase = DetailDeleted
	s.composer.Reset()
	s.publishLocked()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "product deleted")
	s.deps.Navigator.Navigate(RouteProducts)
	return nil
}

// NextImage advances the carousel, wrapping around.
func (s *DetailScreen) NextImage() {
	s.moveCarousel(func(n int) { s.carousel.Next(n) })
}

// PrevImage steps the carousel back, wrapping around.
func (s *DetailScreen) PrevImage() {
	s.moveCarousel(func(n int) { s.carousel.Prev(n) })
}

// SelectImage jumps to image i; out of range indexes are ignored.
func (s *DetailScreen) SelectImage(i int) bool {
	var ok bool
	s.moveCarousel(func(n int) { ok = s.carousel.Select(i, n) })
	return ok
}

// State returns the current snapshot.
func (s *DetailScreen) State() DetailState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Close detaches the screen; outstanding calls are ignored when they complete.
func (s *DetailScreen) Close() {
	s.mu.Lock()
	s.closed = true
	s.onChange = nil
	s.mu.Unlock()
}

func (s *DetailScreen) moveCarousel(move func(n int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	move(s.imageCountLocked())
	s.publishLocked()
}

func (s *DetailScreen) edit(mutate func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	if s.phase != DetailEditing {
		return ErrWrongState
	}
	if err := mutate(); err != nil {
		if !errors.Is(err, imageset.ErrIndexOutOfRange) {
			s.errText = catalogerrors.Message(err)
			s.publishLocked()
		}
		return err
	}
	s.errText = ""
	s.publishLocked()
	return nil
}

// beginLocked marks the screen busy when it is in one of the allowed phases.
func (s *DetailScreen) beginLocked(allowed ...DetailPhase) error {
	if s.closed {
		return ErrClosed
	}
	if s.busy {
		return ErrBusy
	}
	for _, p := range allowed {
		if s.phase == p {
			s.busy = true
			s.errText = ""
			s.publishLocked()
			return nil
		}
	}
	return ErrWrongState
}

// finishLocked clears the busy flag and reports whether the result must be dropped.
func (s *DetailScreen) finishLocked() bool {
	s.busy = false
	return s.closed
}

func (s *DetailScreen) leaveEditLocked() {
	s.phase = DetailViewing
	s.draft = catalog.Fields{}
	s.composer.Reset()
	s.carousel.Clamp(len(s.product.ImageURLs))
}

func (s *DetailScreen) afterFailure(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	s.logger.WarnContext(ctx, "detail operation failed", "operation", op, "error", err)
	if isUnauthenticated(err) && !s.isClosed() {
		s.deps.Navigator.Navigate(RouteLogin)
	}
	return err
}

func (s *DetailScreen) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *DetailScreen) imageCountLocked() int {
	if s.phase == DetailEditing {
		return s.composer.Len()
	}
	return len(s.product.ImageURLs)
}

func (s *DetailScreen) snapshot() DetailState {
	out := DetailState{
		Phase:      s.phase,
		Product:    s.product,
		Draft:      s.draft,
		ImageIndex: s.carousel.Index(),
		Loading:    s.busy,
		Error:      s.errText,
	}
	if s.product.ImageURLs != nil {
		out.Product.ImageURLs = append([]string{}, s.product.ImageURLs...)
	}
	if s.phase == DetailEditing {
		out.Slots = s.composer.Slots()
	}
	return out
}

func (s *DetailScreen) publishLocked() {
	if s.onChange != nil {
		s.onChange(s.snapshot())
	}
}
