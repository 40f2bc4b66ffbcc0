package calendar

import (
	"errors"
	"fmt"
	"strconv"
)

// Valid ranges for the target date components.
const (
	MinYear  = 1
	MaxYear  = 9999
	MinMonth = 1
	MaxMonth = 12
)

// ErrInvalidDate is matched by every *InvalidDateError.
var ErrInvalidDate = errors.New("invalid date")

// InvalidDateError reports a year or month outside its valid range. Value
// is the decimal text of the rejected number, which may not fit in an int.
type InvalidDateError struct {
	Field string // "year" or "month"
	Value string
	Min   int
	Max   int
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("%s %s is out of range (%d..%d)", e.Field, e.Value, e.Min, e.Max)
}

func (e *InvalidDateError) Unwrap() error {
	return ErrInvalidDate
}

func checkRange(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return &InvalidDateError{Field: field, Value: strconv.Itoa(v), Min: lo, Max: hi}
	}
	return nil
}
