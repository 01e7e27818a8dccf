package errors

import "errors"

var ErrEmailTaken = errors.New("email already registered")
var ErrUserNotFound = errors.New("user not found")
var ErrCarNotFound = errors.New("car not found")
var ErrImageNotFound = errors.New("image not found")
var ErrInvalidToken = errors.New("invalid token")
