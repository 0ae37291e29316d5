package service

import (
	"errors"
	"fmt"
)

// Error categories. Handlers map these to status codes with errors.Is.
var (
	ErrValidation    = errors.New("invalid input")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidToken  = errors.New("invalid token")
)

var (
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrTokenNotFound  = fmt.Errorf("%w: not found", ErrInvalidToken)
)

// validationError keeps its own message while matching ErrValidation.
type validationError string

func (e validationError) Error() string { return string(e) }
func (validationError) Is(target error) bool { return target == ErrValidation }

// conflictError keeps its own message while matching ErrAlreadyExists.
type conflictError string

func (e conflictError) Error() string { return string(e) }
func (conflictError) Is(target error) bool { return target == ErrAlreadyExists }
