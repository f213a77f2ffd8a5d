package calculation

import (
	"errors"

	"github.com/kakutei/tax-calculator/internal/domain"
)

// Errors returned by the engine. All of them indicate bad input and are never retried.
var (
	ErrUnknownCategory = domain.ErrUnknownCategory
	ErrNegativeAmount  = errors.New("negative amount")
	ErrInvalidBrackets = errors.New("invalid bracket table")
	ErrInvalidInput    = errors.New("invalid input")
)
