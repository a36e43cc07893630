package ml

import "errors"

var (
	ErrArenaExhausted = errors.New("arena exhausted")
	ErrBadMagic       = errors.New("invalid matrix file magic")
	ErrTruncated      = errors.New("matrix stream truncated")
	ErrArchTooShort   = errors.New("architecture needs at least an input and an output layer")
	ErrArchSyntax     = errors.New("malformed architecture")
	ErrShapeMismatch  = errors.New("shape mismatch")
	ErrUnknownAct     = errors.New("unknown activation")
)
