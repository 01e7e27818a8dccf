// Package store keeps the accounts, cars and image files of the stub catalog API.
package store

import "context"

// User is a registered account.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash []byte
}

// Car is a stored listing. Images holds the stored image names in upload order.
type Car struct {
	ID          int64
	Title       string
	Description string
	Tags        []string
	Images      []string
	OwnerID     int64
}

// Image is a stored image file.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// CatalogStore is the persistence contract of the stub API.
// Car lookups are scoped to an owner; cars of other owners are reported as not found.
type CatalogStore interface {
	CreateUser(ctx context.Context, name, email string, passwordHash []byte) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	CreateCar(ctx context.Context, car Car) (*Car, error)
	FindCar(ctx context.Context, ownerID, id int64) (*Car, error)
	ListCars(ctx context.Context, ownerID int64) ([]Car, error)
	SearchCars(ctx context.Context, ownerID int64, keyword string) ([]Car, error)
	UpdateCar(ctx context.Context, car Car) (*Car, error)
	DeleteCar(ctx context.Context, ownerID, id int64) (*Car, error)

	SaveImage(ctx context.Context, image Image) error
	FindImage(ctx context.Context, name string) (*Image, error)
	DeleteImages(ctx context.Context, names ...string) error
}
