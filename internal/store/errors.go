package store

import "errors"

var (
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when a user with the same email already exists.
	ErrEmailExists = errors.New("email already registered")
	// ErrSessionNotFound is returned when a session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrClipNotFound is returned when a clip does not exist.
	ErrClipNotFound = errors.New("clip not found")
	// ErrClipURLExists is returned when the user already saved a clip with the same URL.
	ErrClipURLExists = errors.New("clip URL already saved")
	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrTagNotFound is returned when a tag does not exist.
	ErrTagNotFound = errors.New("tag not found")
)
