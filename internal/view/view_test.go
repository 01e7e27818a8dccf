package view

import (
	"context"
	"fmt"
	"sync"

	"github.com/pearguacamole/VroomVault/internal/catalog"
	"github.com/pearguacamole/VroomVault/internal/imageset"
)

// fakeRepository is a hand-written Repository double. Hooks override the canned answers.
type fakeRepository struct {
	mu sync.Mutex

	products []catalog.Product
	product  catalog.Product
	err      error

	searchFn func(ctx context.Context, keyword string) ([]catalog.Product, error)
	listFn   func(ctx context.Context) ([]catalog.Product, error)
	getFn    func(ctx context.Context, id string) (catalog.Product, error)

	deleteErr error
	updateErr error
	createErr error

	listCalls     int
	searchCalls   []string
	deleteCalls   []string
	updatedID     string
	updatedFields catalog.Fields
	updatedImages *imageset.Payload
	createdFields catalog.Fields
	createdImages *imageset.Payload
}

func (f *fakeRepository) List(ctx context.Context) ([]catalog.Product, error) {
	f.mu.Lock()
	f.listCalls++
	fn := f.listFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return f.products, f.err
}

func (f *fakeRepository) Search(ctx context.Context, keyword string) ([]catalog.Product, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, keyword)
	fn := f.searchFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, keyword)
	}
	return f.products, f.err
}

func (f *fakeRepository) Get(ctx context.Context, id string) (catalog.Product, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return f.product, f.err
}

func (f *fakeRepository) Create(_ context.Context, fields catalog.Fields, images imageset.Payload) (catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdFields = fields
	f.createdImages = &images
	if f.createErr != nil {
		return catalog.Product{}, f.createErr
	}
	return catalog.Product{ID: "new", Title: fields.Title, Description: fields.Description, Tags: fields.Tags, ImageURLs: []string{}}, nil
}

func (f *fakeRepository) Update(_ context.Context, id string, fields catalog.Fields, images imageset.Payload) (catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updatedID = id
	f.updatedFields = fields
	f.updatedImages = &images
	if f.updateErr != nil {
		return catalog.Product{}, f.updateErr
	}
	urls := make([]string, images.Len())
	for i := range urls {
		urls[i] = fmt.Sprintf("http://api.test/images/u%d.jpg", i)
	}
	return catalog.Product{ID: id, Title: fields.Title, Description: fields.Description, Tags: fields.Tags, ImageURLs: urls}, nil
}

func (f *fakeRepository) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, id)
	return f.deleteErr
}

// recordingNavigator remembers every requested route.
type recordingNavigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNavigator) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *recordingNavigator) Routes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

// bytesFetcher serves every remote image as its own url.
var bytesFetcher = imageset.FetcherFunc(func(_ context.Context, url string) ([]byte, string, error) {
	return []byte(url), "image/jpeg", nil
})

func product(id string, images ...string) catalog.Product {
	if images == nil {
		images = []string{}
	}
	return catalog.Product{ID: id, Title: "Civic " + id, Description: "Reliable", Tags: "sedan", ImageURLs: images}
}

func localFile(name string) imageset.LocalFile {
	return imageset.LocalFile{Name: name, ContentType: "image/png", Data: []byte(name)}
}
