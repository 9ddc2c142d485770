package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrLoginRequired   = errors.New("login required")
	ErrUpgradeRequired = errors.New("upgrade required")
	ErrEmptyMessage    = errors.New("empty message")
	ErrBusy            = errors.New("request already in flight")
	ErrAgeGate         = errors.New("age gate not acknowledged")
)
