package store

import "errors"

// ErrNotFound indicates a missing or unauthorized resource lookup.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a unique constraint rejects a write.
var ErrConflict = errors.New("record already exists")

// ErrAbsenceDay rejects clock event writes that land on an absence day.
var ErrAbsenceDay = errors.New("cannot change clock events on absence days")
