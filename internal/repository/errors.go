package repository

import "errors"

// ErrNotFound reports an absent row. Callers rely on it to tell "no such
// row" apart from a store outage, which must propagate as-is.
var ErrNotFound = errors.New("not found")
