// Package optimistic provides the apply/invert primitive used by the
// storefront collections to update local state before the server confirms.
package optimistic

import "context"

// Mutation is a local change paired with its inverse and the network call
// that makes it durable.
//
// Apply and Invert must be captured together: Invert restores exactly what
// Apply changed, using values recorded at the moment Apply ran.
type Mutation struct {
	Apply  func()
	Invert func()
	Commit func(ctx context.Context) error
}

// Run applies the mutation, commits it and inverts it if the commit fails.
// The commit error is returned unchanged.
func Run(ctx context.Context, m Mutation) error {
	if m.Apply != nil {
		m.Apply()
	}
	if m.Commit == nil {
		return nil
	}
	if err := m.Commit(ctx); err != nil {
		if m.Invert != nil {
			m.Invert()
		}
		return err
	}
	return nil
}
