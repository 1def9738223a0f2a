package record

import (
	"context"

	"github.com/google/uuid"

	"github.com/nursia/nursia-api/internal/normalize"
)

type Repository interface {
	Create(ctx context.Context, r *normalize.Record) (*NursingRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*NursingRecord, error)
	// MergePatch overwrites the top-level keys present in patch and leaves
	// the rest of the stored document untouched.
	MergePatch(ctx context.Context, id uuid.UUID, patch *normalize.Record) (*NursingRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns records whose name contains q, newest first. An empty q
	// matches everything.
	List(ctx context.Context, q string, limit, offset int) ([]*NursingRecord, int, error)
}
