package record

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nursia/nursia-api/internal/normalize"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a canonical record. Name and visit date are the only
// fields a record cannot be saved without.
func (s *Service) Create(ctx context.Context, r *normalize.Record) (*NursingRecord, error) {
	if missing := missingFields(r); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	return s.repo.Create(ctx, r)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*NursingRecord, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies a sparse patch. Groups present in the patch replace the
// stored groups whole.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch *normalize.Record) (*NursingRecord, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}
	return s.repo.MergePatch(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, q string, limit, offset int) ([]*NursingRecord, int, error) {
	return s.repo.List(ctx, q, limit, offset)
}

// ListAll pages through every record matching q, for exports.
func (s *Service) ListAll(ctx context.Context, q string) ([]*NursingRecord, error) {
	const page = 500
	var all []*NursingRecord
	for offset := 0; ; offset += page {
		items, total, err := s.repo.List(ctx, q, page, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) == 0 || offset+len(items) >= total {
			return all, nil
		}
	}
}
