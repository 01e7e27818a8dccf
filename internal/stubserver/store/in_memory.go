package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	stuberrors "github.com/pearguacamole/VroomVault/internal/stubserver/errors"
)

// inMemory implements CatalogStore using maps guarded by a single lock.
type inMemory struct {
	mu         sync.RWMutex
	users      map[string]User
	cars       map[int64]Car
	images     map[string]Image
	nextUserID int64
	nextCarID  int64
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() CatalogStore {
	return &inMemory{
		users:      make(map[string]User),
		cars:       make(map[int64]Car),
		images:     make(map[string]Image),
		nextUserID: 1,
		nextCarID:  1,
	}
}

// CreateUser registers an account. Emails are unique.
func (s *inMemory) CreateUser(_ context.Context, name, email string, passwordHash []byte) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[email]; ok {
		return nil, stuberrors.ErrEmailTaken
	}
	u := User{ID: s.nextUserID, Name: name, Email: email, PasswordHash: passwordHash}
	s.users[email] = u
	s.nextUserID++
	return &u, nil
}

// FindUserByEmail retrieves an account.
func (s *inMemory) FindUserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[email]
	if !ok {
		return nil, stuberrors.ErrUserNotFound
	}
	return &u, nil
}

// CreateCar stores a car and assigns its ID.
func (s *inMemory) CreateCar(_ context.Context, car Car) (*Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	car.ID = s.nextCarID
	car = cloneCar(car)
	s.cars[car.ID] = car
	s.nextCarID++
	out := cloneCar(car)
	return &out, nil
}

// FindCar retrieves a car owned by ownerID.
func (s *inMemory) FindCar(_ context.Context, ownerID, id int64) (*Car, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cars[id]
	if !ok || c.OwnerID != ownerID {
		return nil, stuberrors.ErrCarNotFound
	}
	out := cloneCar(c)
	return &out, nil
}

// ListCars returns the cars of ownerID ordered by ID.
func (s *inMemory) ListCars(_ context.Context, ownerID int64) ([]Car, error) {
	return s.filter(ownerID, func(Car) bool { return true }), nil
}

// SearchCars returns the cars whose title, description or tags contain keyword, ignoring case.
func (s *inMemory) SearchCars(_ context.Context, ownerID int64, keyword string) ([]Car, error) {
	needle := strings.ToLower(keyword)
	return s.filter(ownerID, func(c Car) bool {
		return strings.Contains(strings.ToLower(c.Title), needle) ||
			strings.Contains(strings.ToLower(c.Description), needle) ||
			strings.Contains(strings.ToLower(strings.Join(c.Tags, ",")), needle)
	}), nil
}

// UpdateCar replaces a stored car of the same owner.
func (s *inMemory) UpdateCar(_ context.Context, car Car) (*Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.cars[car.ID]
	if !ok || existing.OwnerID != car.OwnerID {
		return nil, stuberrors.ErrCarNotFound
	}
	s.cars[car.ID] = cloneCar(car)
	out := cloneCar(car)
	return &out, nil
}

// DeleteCar removes a car and returns what was removed.
func (s *inMemory) DeleteCar(_ context.Context, ownerID, id int64) (*Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cars[id]
	if !ok || c.OwnerID != ownerID {
		return nil, stuberrors.ErrCarNotFound
	}
	delete(s.cars, id)
	return &c, nil
}

// SaveImage stores an image file under its name.
func (s *inMemory) SaveImage(_ context.Context, image Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	image.Data = slices.Clone(image.Data)
	s.images[image.Name] = image
	return nil
}

// FindImage retrieves an image file.
func (s *inMemory) FindImage(_ context.Context, name string) (*Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img, ok := s.images[name]
	if !ok {
		return nil, stuberrors.ErrImageNotFound
	}
	return &img, nil
}

// DeleteImages removes image files; unknown names are ignored.
func (s *inMemory) DeleteImages(_ context.Context, names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range names {
		delete(s.images, n)
	}
	return nil
}

func (s *inMemory) filter(ownerID int64, keep func(Car) bool) []Car {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Car, 0)
	for _, c := range s.cars {
		if c.OwnerID == ownerID && keep(c) {
			list = append(list, cloneCar(c))
		}
	}
	slices.SortFunc(list, func(a, b Car) int { return cmp.Compare(a.ID, b.ID) })
	return list
}

func cloneCar(c Car) Car {
	c.Tags = slices.Clone(c.Tags)
	c.Images = slices.Clone(c.Images)
	return c
}
