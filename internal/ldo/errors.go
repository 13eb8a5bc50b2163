package ldo

import "errors"

// NoSolution is the message reported when no candidate meets every target.
const NoSolution = "No solution found within specs"

var (
	ErrNoSolution   = errors.New(NoSolution)
	ErrMissingTable = errors.New("ldo: missing operating-point table")
	ErrInvalidSpec  = errors.New("ldo: invalid spec")
)
