package behavior

import "errors"

// Domain errors for the behavior package.
var (
	// ErrInvalidTree is returned when tree JSON cannot be parsed into a
	// valid node structure.
	ErrInvalidTree = errors.New("behavior: invalid tree")

	// ErrUnknownNodeType is returned for an unrecognised "type" field.
	ErrUnknownNodeType = errors.New("behavior: unknown node type")

	// ErrTreeNotFound is returned for operations on an unloaded tree
	// name.
	ErrTreeNotFound = errors.New("behavior: tree not found")

	// ErrTreeExists is returned when loading a tree under a name that
	// is already taken.
	ErrTreeExists = errors.New("behavior: tree already exists")
)
