package collection

import "context"

// Confirmer gates a delete. It is asked synchronously before any request
// is sent.
type Confirmer interface {
	Confirm(ctx context.Context, id string) (bool, error)
}

// ConfirmFunc adapts a function to a Confirmer.
type ConfirmFunc func(ctx context.Context, id string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, id string) (bool, error) {
	return f(ctx, id)
}

// Always confirms every delete.
var Always Confirmer = Answer(true)

// Answer returns a Confirmer that gives a fixed answer, for callers that
// already asked the user.
func Answer(ok bool) Confirmer {
	return ConfirmFunc(func(context.Context, string) (bool, error) {
		return ok, nil
	})
}
