package store

import (
	"fmt"

	"tallysync/internal/tally/models"
	"tallysync/pkg/platform/sentinel"
)

var ErrNotFound = sentinel.ErrNotFound

// AlreadyExistsError is returned by InsertIfAbsent when a report for the key
// is already stored. Current is the stored report so the caller can classify
// without a second read.
type AlreadyExistsError struct {
	Current *models.TallyReport
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("tally %s already exists", e.Current.Key())
}

func (e *AlreadyExistsError) Unwrap() error {
	return sentinel.ErrAlreadyExists
}
