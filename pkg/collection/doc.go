// Package collection keeps the local snapshot of the remote car collection.
//
// The snapshot is never edited in place. Every successful write is followed
// by a full reload, so ids and any server-side normalization always come
// from the server:
//
//	store := collection.New(carclient.New(baseURL))
//	if err := store.Reload(ctx); err != nil {
//		// snapshot unchanged
//	}
//	err := store.Create(ctx, draft) // POST then GET
//
// Deletes go through a Confirmer; a declined confirmation is a no-op.
package collection
