package record

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nursia/nursia-api/internal/normalize"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrValidation = errors.New("invalid record")
	ErrEmptyPatch = errors.New("patch has no recognized fields")
)

// NursingRecord is a stored canonical record. The canonical fields are
// promoted so the JSON form is flat: id and timestamps next to name,
// visitDate and the field groups.
type NursingRecord struct {
	ID uuid.UUID `json:"id"`
	normalize.Record
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// missingFields returns the required keys absent from r, in order.
func missingFields(r *normalize.Record) []string {
	var missing []string
	if r == nil || r.Name == nil {
		missing = append(missing, "name")
	}
	if r == nil || r.VisitDate == nil {
		missing = append(missing, "visitDate")
	}
	return missing
}
