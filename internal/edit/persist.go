// Package edit provides the undoable scene edits issued by the editor:
// create, delete, duplicate, property update and move.
//
// Every edit keeps the scene and its Persister in step. The persister is
// written first, so a failed write leaves the scene untouched and the
// command unrecorded.
package edit

import (
	"context"

	"github.com/google/uuid"

	"github.com/dshills/heliocanvas/internal/scene"
)

// Persister stores scene objects outside the process.
type Persister interface {
	Save(ctx context.Context, obj scene.Object) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// NopPersister discards every write.
type NopPersister struct{}

func (NopPersister) Save(context.Context, scene.Object) error { return nil }
func (NopPersister) Delete(context.Context, uuid.UUID) error  { return nil }

func orNop(p Persister) Persister {
	if p == nil {
		return NopPersister{}
	}
	return p
}
