package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nursia/nursia-api/internal/normalize"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type recordRepoPG struct{ db queryable }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &recordRepoPG{db: pool}
}

const recordCols = `id, document, created_at, updated_at`

func (r *recordRepoPG) scanRow(row pgx.Row) (*NursingRecord, error) {
	var (
		rec NursingRecord
		doc []byte
	)
	if err := row.Scan(&rec.ID, &doc, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(doc, &rec.Record); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", rec.ID, err)
	}
	return &rec, nil
}

func (r *recordRepoPG) Create(ctx context.Context, rec *normalize.Record) (*NursingRecord, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return r.scanRow(r.db.QueryRow(ctx, `
		INSERT INTO nursing_record (id, document)
		VALUES ($1, $2::jsonb)
		RETURNING `+recordCols,
		uuid.New(), doc))
}

func (r *recordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*NursingRecord, error) {
	return r.scanRow(r.db.QueryRow(ctx, `SELECT `+recordCols+` FROM nursing_record WHERE id = $1`, id))
}

func (r *recordRepoPG) MergePatch(ctx context.Context, id uuid.UUID, patch *normalize.Record) (*NursingRecord, error) {
	doc, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	return r.scanRow(r.db.QueryRow(ctx, `
		UPDATE nursing_record SET document = document || $2::jsonb, updated_at = NOW()
		WHERE id = $1
		RETURNING `+recordCols,
		id, doc))
}

func (r *recordRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM nursing_record WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *recordRepoPG) List(ctx context.Context, q string, limit, offset int) ([]*NursingRecord, int, error) {
	where, args := nameFilter(q)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM nursing_record`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	rows, err := r.db.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM nursing_record%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
			recordCols, where, n+1, n+2),
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*NursingRecord
	for rows.Next() {
		rec, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}

// nameFilter builds the case-insensitive substring match on the stored
// name. LIKE wildcards typed by the user are matched literally.
func nameFilter(q string) (string, []interface{}) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", nil
	}
	return ` WHERE document->>'name' ILIKE $1`, []interface{}{"%" + escapeLike(q) + "%"}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
