package ecs

import "errors"

var (
	ErrMissingComponent   = errors.New("missing required component")
	ErrDuplicateComponent = errors.New("component already attached")
)
