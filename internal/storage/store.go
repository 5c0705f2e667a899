// Package storage provides the document stores the ledger persists through.
// One budget document per store: loads and saves are always whole-state.
package storage

import (
	"context"
	"errors"

	"budgetbook/internal/core"
)

// ErrNotFound is returned by Load when nothing has been saved yet. Callers
// start from an empty state rather than treating it as a failure.
var ErrNotFound = errors.New("no saved document")

// Store loads and saves the whole budget document.
type Store interface {
	Load(ctx context.Context) (*core.State, error)
	Save(ctx context.Context, s *core.State) error
}
