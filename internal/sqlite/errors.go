package sqlite

import (
	"strings"

	"github.com/rpggio/bidsync/internal/repository"
)

func isStorageFull(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "database or disk is full")
}

func isReadOnly(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "readonly database")
}

// mapWriteError folds driver failures into the repository taxonomy.
func mapWriteError(err error) error {
	switch {
	case isStorageFull(err):
		return repository.ErrQuotaExceeded
	case isReadOnly(err):
		return repository.ErrWriteDenied
	default:
		return err
	}
}
