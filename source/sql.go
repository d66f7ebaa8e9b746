package source

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/hupe1980/lazylist"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLConfig names the table and columns a SQL source reads.
type SQLConfig struct {
	Table       string
	KeyColumn   string // integer, unique; defines sequence order
	ValueColumn string

	// PageSize bounds batch loads. Values < 1 select DefaultPageSize.
	PageSize int

	// StartKey is where a fresh window starts: the first load-after
	// returns rows with key >= StartKey.
	StartKey int64
}

// SQL is a keyset-paginated source over one table.
//
// V must be a type database/sql can scan the value column into.
type SQL[V any] struct {
	db   *sql.DB
	size int
	from int64

	after  string
	before string
}

var _ lazylist.DataSource[Record[string]] = (*SQL[string])(nil)

// NewSQL creates a SQL source. The queries are built once; table and
// column names must be plain identifiers.
func NewSQL[V any](db *sql.DB, cfg SQLConfig) (*SQL[V], error) {
	for _, name := range []string{cfg.Table, cfg.KeyColumn, cfg.ValueColumn} {
		if !identifier.MatchString(name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = DefaultPageSize
	}

	sel := fmt.Sprintf("SELECT %s, %s FROM %s", cfg.KeyColumn, cfg.ValueColumn, cfg.Table)

	return &SQL[V]{
		db:     db,
		size:   cfg.PageSize,
		from:   cfg.StartKey,
		after:  fmt.Sprintf("%s WHERE %s >= ? ORDER BY %[2]s ASC LIMIT ?", sel, cfg.KeyColumn),
		before: fmt.Sprintf("%s WHERE %s < ? ORDER BY %[2]s DESC LIMIT ?", sel, cfg.KeyColumn),
	}, nil
}

// LoadBefore returns up to a page of rows with keys below the anchor's.
func (s *SQL[V]) LoadBefore(ctx context.Context, anchor lazylist.Anchor[Record[V]]) ([]Record[V], error) {
	key, initial, err := keyOf(anchor)
	if err != nil || initial {
		return nil, err
	}

	recs, err := s.query(ctx, s.before, key, s.size)
	if err != nil {
		return nil, err
	}
	reverse(recs)
	return recs, nil
}

// LoadItem returns the row following prev.
func (s *SQL[V]) LoadItem(ctx context.Context, _ lazylist.Position, prev lazylist.Anchor[Record[V]]) (Record[V], bool, error) {
	var zero Record[V]

	from, err := s.next(prev)
	if err != nil {
		return zero, false, err
	}

	recs, err := s.query(ctx, s.after, from, 1)
	if err != nil || len(recs) == 0 {
		return zero, false, err
	}
	return recs[0], true, nil
}

// LoadAfter returns up to a page of rows following the anchor.
func (s *SQL[V]) LoadAfter(ctx context.Context, anchor lazylist.Anchor[Record[V]]) ([]Record[V], error) {
	from, err := s.next(anchor)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, s.after, from, s.size)
}

// next returns the smallest key that may follow the anchor.
func (s *SQL[V]) next(anchor lazylist.Anchor[Record[V]]) (int64, error) {
	key, initial, err := keyOf(anchor)
	switch {
	case err != nil:
		return 0, err
	case initial:
		return s.from, nil
	default:
		return key + 1, nil
	}
}

func (s *SQL[V]) query(ctx context.Context, query string, key int64, limit int) ([]Record[V], error) {
	rows, err := s.db.QueryContext(ctx, query, key, limit)
	if err != nil {
		return nil, fmt.Errorf("source: query: %w", err)
	}
	defer rows.Close()

	var out []Record[V]
	for rows.Next() {
		var r Record[V]
		if err := rows.Scan(&r.Key, &r.Value); err != nil {
			return nil, fmt.Errorf("source: scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("source: rows: %w", err)
	}
	return out, nil
}
