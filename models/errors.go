package models

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrProfileNotFound    = errors.New("there is no profile for this user")
	ErrIdentityNotFound   = errors.New("user not found")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotOwner           = errors.New("user not authorized")
	ErrInvalidToken       = errors.New("token is not valid")
)
