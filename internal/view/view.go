// Package view drives the list, detail and create workflows of the catalog.
//
// Screens own no presentation. They call the repository, compose images and
// publish state snapshots; a presentation collaborator renders the snapshots
// and routes navigation requests. Every exported method is safe for concurrent
// use, and results arriving after Close are dropped.
package view

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pearguacamole/VroomVault/internal/catalog"
	catalogerrors "github.com/pearguacamole/VroomVault/internal/catalog/errors"
	"github.com/pearguacamole/VroomVault/internal/imageset"
	"github.com/pearguacamole/VroomVault/internal/platform/logger"
)

// Routes requested through the Navigator.
const (
	RouteLogin    = "/"
	RouteProducts = "/products"
)

// ProductRoute is the detail route of one product.
func ProductRoute(id string) string {
	return RouteProducts + "/" + id
}

var (
	ErrBusy       = errors.New("view: an operation is already in progress")
	ErrWrongState = errors.New("view: operation not allowed in the current state")
	ErrClosed     = errors.New("view: screen closed")
)

// Repository is the catalog API as seen by the screens.
type Repository interface {
	List(ctx context.Context) ([]catalog.Product, error)
	Search(ctx context.Context, keyword string) ([]catalog.Product, error)
	Get(ctx context.Context, id string) (catalog.Product, error)
	Create(ctx context.Context, fields catalog.Fields, images imageset.Payload) (catalog.Product, error)
	Update(ctx context.Context, id string, fields catalog.Fields, images imageset.Payload) (catalog.Product, error)
	Delete(ctx context.Context, id string) error
}

// Navigator moves the presentation to another route.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) {
	f(route)
}

// Ordering decides which of several overlapping list fetches is displayed.
type Ordering int

const (
	// LastResolvedWins displays whichever response arrives last.
	LastResolvedWins Ordering = iota
	// LastIssuedWins drops responses superseded by a newer request.
	LastIssuedWins
)

// Deps are the collaborators shared by all screens.
type Deps struct {
	Repository  Repository
	Fetcher     imageset.Fetcher
	Navigator   Navigator
	Logger      *slog.Logger
	Concurrency int
	Ordering    Ordering
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logger.Discard()
	}
	if d.Navigator == nil {
		d.Navigator = NavigatorFunc(func(string) {})
	}
	return d
}

func (d Deps) newComposer() *imageset.Composer {
	return imageset.NewComposer(imageset.WithConcurrency(d.Concurrency))
}

// isUnauthenticated reports whether err ended the session.
func isUnauthenticated(err error) bool {
	return errors.Is(err, catalogerrors.ErrUnauthenticated)
}
