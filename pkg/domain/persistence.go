package domain

import "context"

// KVStore is the synchronous key-value storage the project/category state is
// persisted to. Implementations are expected to be cheap enough to rewrite a
// key on every state change; each write is a full-value overwrite
// (last-write-wins, single writer).
type KVStore interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool, error)
	// Set stores the value under the key, replacing any previous value.
	Set(key, value string) error
	// Remove deletes the key; removing an absent key is not an error.
	Remove(key string) error
}

// LineStore is the asynchronous indexed store for route line definitions,
// keyed by line id with a secondary index on project name. Operations are
// always fallible (disk/network equivalent) and take a context, unlike the
// synchronous KVStore.
type LineStore interface {
	// PutLine upserts a line by id.
	PutLine(ctx context.Context, line LineDefinition) error
	// GetLine fetches one line by id.
	GetLine(ctx context.Context, id string) (LineDefinition, bool, error)
	// LinesForProject returns all lines of a project, order unspecified.
	LinesForProject(ctx context.Context, projectName string) ([]LineDefinition, error)
	// DeleteLine removes a line by id; deleting an absent id is not an error.
	DeleteLine(ctx context.Context, id string) error
	// ClearProject deletes every line of a project within one transaction:
	// either all deletions apply or none do.
	ClearProject(ctx context.Context, projectName string) error
	// Close releases the underlying resources.
	Close() error
}
