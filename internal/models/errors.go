package models

import "errors"

var (
	ErrInvalidViewport = errors.New("viewport is malformed")
	ErrInvalidConfig   = errors.New("invalid configuration value")
)
