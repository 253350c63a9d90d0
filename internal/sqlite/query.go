package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/larder/pkg/engine"
	"github.com/mesh-intelligence/larder/pkg/query"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// selection accumulates a read query and executes it on Rows.
type selection struct {
	backend *Backend
	model   types.Model
	preds   []query.Predicate
	orders  []query.Order
	limit   int
	offset  int
}

func (s *selection) Where(preds []query.Predicate) engine.Selection {
	s.preds = append(s.preds, preds...)
	return s
}

func (s *selection) OrderBy(orders []query.Order) engine.Selection {
	s.orders = append(s.orders, orders...)
	return s
}

func (s *selection) Limit(n int) engine.Selection {
	s.limit = n
	return s
}

func (s *selection) Offset(n int) engine.Selection {
	s.offset = n
	return s
}

// Rows executes the accumulated query and scans the matching records.
func (s *selection) Rows(ctx context.Context) ([]*types.Record, error) {
	db, err := s.backend.conn()
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s", recordColumns, s.model.Name)
	where, args := compilePredicates(s.model, s.preds)
	if where != "" {
		stmt += " WHERE " + where
	}
	if order := compileOrder(s.model, s.orders); order != "" {
		stmt += " ORDER BY " + order
	}
	if s.limit >= 0 {
		stmt += fmt.Sprintf(" LIMIT %d", s.limit)
	}
	if s.offset > 0 {
		// SQLite requires LIMIT when OFFSET is used.
		if s.limit < 0 {
			stmt += " LIMIT -1"
		}
		stmt += fmt.Sprintf(" OFFSET %d", s.offset)
	}

	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.model.Name, err)
	}
	defer rows.Close()

	records := make([]*types.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", s.model.Name, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// compileOrder renders an ORDER BY clause, skipping unresolvable
// fields. Ordering terms carry no user values, so column expressions
// interpolate directly.
func compileOrder(model types.Model, orders []query.Order) string {
	var terms []string
	for _, o := range orders {
		expr, ok := columnExpr(model, o.Field)
		if !ok {
			continue
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		terms = append(terms, expr+" "+dir)
	}
	return strings.Join(terms, ", ")
}

// insertArgs flattens a record into the recordColumns order.
func insertArgs(r *types.Record) ([]any, error) {
	data, err := json.Marshal(r.Data)
	if err != nil {
		return nil, fmt.Errorf("marshaling record data: %w", err)
	}
	var deletedAt sql.NullString
	if r.DeletedAt != nil {
		deletedAt = sql.NullString{String: r.DeletedAt.UTC().Format(timeLayout), Valid: true}
	}
	return []any{
		r.RowID,
		r.ID,
		r.WorkspaceID,
		r.Name,
		string(data),
		r.CreatedAt.UTC().Format(timeLayout),
		r.UpdatedAt.UTC().Format(timeLayout),
		deletedAt,
	}, nil
}

// scanRecord reads one row in recordColumns order.
func scanRecord(scan func(dest ...any) error) (*types.Record, error) {
	var r types.Record
	var data, createdAt, updatedAt string
	var deletedAt sql.NullString

	err := scan(&r.RowID, &r.ID, &r.WorkspaceID, &r.Name, &data, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if deletedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, deletedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing deleted_at: %w", err)
		}
		r.DeletedAt = &t
	}

	r.Data = make(map[string]any)
	if data != "" {
		if err := json.Unmarshal([]byte(data), &r.Data); err != nil {
			return nil, fmt.Errorf("parsing record data: %w", err)
		}
	}
	return &r, nil
}

// compileSet renders the SET clause of an update. Keys are base column
// names; the data document marshals to JSON and timestamps to RFC 3339.
func compileSet(set map[string]any) (string, []any, error) {
	// Fixed order keeps generated SQL deterministic.
	columns := []string{
		types.FieldName,
		types.FieldData,
		types.FieldCreatedAt,
		types.FieldUpdatedAt,
		types.FieldDeletedAt,
	}

	var terms []string
	var args []any
	for _, col := range columns {
		v, ok := set[col]
		if !ok {
			continue
		}
		arg, err := normalizeValue(v)
		if err != nil {
			return "", nil, fmt.Errorf("set %s: %w", col, err)
		}
		terms = append(terms, col+" = ?")
		args = append(args, arg)
	}
	if len(terms) == 0 {
		return "", nil, types.ErrInvalidData
	}
	return strings.Join(terms, ", "), args, nil
}

// normalizeValue converts a Go value into its stored representation.
func normalizeValue(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return t.UTC().Format(timeLayout), nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return t.UTC().Format(timeLayout), nil
	case map[string]any:
		data, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	default:
		return v, nil
	}
}
