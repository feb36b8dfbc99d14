package project

import "errors"

var (
	// ErrInvalidProject indicates a project record is missing required fields.
	ErrInvalidProject = errors.New("invalid project")
)
