package imageset

import (
	"context"
	"fmt"

	catalogerrors "github.com/pearguacamole/VroomVault/internal/catalog/errors"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel remote fetches during Compose.
const DefaultConcurrency = 4

// Attachment is one binary file of an upload.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Payload is the composed image upload, in slot order.
type Payload struct {
	Attachments []Attachment
}

// Len returns the number of attachments.
func (p Payload) Len() int {
	return len(p.Attachments)
}

// Composer holds the ordered slot sequence of one product.
// It is not safe for concurrent use; the view screens serialize access to it.
type Composer struct {
	slots       []Slot
	concurrency int
}

// Option configures a Composer.
type Option func(*Composer)

// WithConcurrency sets how many remote slots are fetched at once.
func WithConcurrency(n int) Option {
	return func(c *Composer) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewComposer creates an empty composer.
func NewComposer(opts ...Option) *Composer {
	c := &Composer{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Seed replaces all slots with Remote slots for urls. Only the first MaxImages are kept.
func (c *Composer) Seed(urls []string) {
	if len(urls) > MaxImages {
		urls = urls[:MaxImages]
	}
	c.slots = make([]Slot, 0, len(urls))
	for _, u := range urls {
		c.slots = append(c.slots, RemoteSlot(u))
	}
}

// Reset removes every slot.
func (c *Composer) Reset() {
	c.slots = nil
}

// Append adds files as Local slots in order. It is all-or-nothing: when the
// result would exceed MaxImages nothing is added and ErrCapacityExceeded is returned.
func (c *Composer) Append(files ...LocalFile) error {
	if len(c.slots)+len(files) > MaxImages {
		return fmt.Errorf("%w: %d selected, %d of %d slots in use",
			catalogerrors.ErrCapacityExceeded, len(files), len(c.slots), MaxImages)
	}
	for _, f := range files {
		c.slots = append(c.slots, LocalSlot(f))
	}
	return nil
}

// Remove deletes the slot at index, keeping the order of the others.
func (c *Composer) Remove(index int) error {
	if index < 0 || index >= len(c.slots) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(c.slots))
	}
	c.slots = append(c.slots[:index:index], c.slots[index+1:]...)
	return nil
}

// Len returns the number of slots.
func (c *Composer) Len() int {
	return len(c.slots)
}

// Slots returns a copy of the slot sequence.
func (c *Composer) Slots() []Slot {
	out := make([]Slot, len(c.slots))
	copy(out, c.slots)
	return out
}

// Compose renders the current slots into a payload. The slots are left untouched,
// so a failed submission can be retried without selecting the images again.
func (c *Composer) Compose(ctx context.Context, fetcher Fetcher) (Payload, error) {
	return Compose(ctx, c.Slots(), fetcher, c.concurrency)
}

// Compose renders slots into a payload with exactly one attachment per slot, in slot order.
// Remote slots are downloaded through fetcher, at most concurrency at a time.
// Any failed download aborts the whole composition with ErrComposeFailed.
func Compose(ctx context.Context, slots []Slot, fetcher Fetcher, concurrency int) (Payload, error) {
	if len(slots) > MaxImages {
		return Payload{}, fmt.Errorf("%w: %d slots", catalogerrors.ErrCapacityExceeded, len(slots))
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	attachments := make([]Attachment, len(slots))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, slot := range slots {
		if slot.Kind == Local {
			attachments[i] = Attachment{
				Filename:    slot.File.Name,
				ContentType: slot.File.ContentType,
				Data:        slot.File.Data,
			}
			continue
		}
		if fetcher == nil {
			return Payload{}, fmt.Errorf("%w: no fetcher for remote image %s", catalogerrors.ErrComposeFailed, slot.URL)
		}
		g.Go(func() error {
			data, contentType, err := fetcher.Fetch(gCtx, slot.URL)
			if err != nil {
				return fmt.Errorf("%w: fetch %s: %w", catalogerrors.ErrComposeFailed, slot.URL, err)
			}
			attachments[i] = Attachment{
				Filename:    filenameFromURL(slot.URL),
				ContentType: contentType,
				Data:        data,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Payload{}, err
	}
	return Payload{Attachments: attachments}, nil
}
