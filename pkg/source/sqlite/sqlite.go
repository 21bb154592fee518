package sqlite

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/source"
	"github.com/pseudomuto/metatree/pkg/source/memory"
	"github.com/pseudomuto/metatree/pkg/urn"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS objects (
	id        INTEGER PRIMARY KEY,
	parent_id INTEGER REFERENCES objects(id),
	type      TEXT NOT NULL,
	urn       TEXT NOT NULL UNIQUE
);

CREATE INDEX IF NOT EXISTS objects_parent ON objects(parent_id, type);

CREATE TABLE IF NOT EXISTS attributes (
	object_id INTEGER NOT NULL REFERENCES objects(id),
	name      TEXT NOT NULL,
	value     TEXT,
	PRIMARY KEY (object_id, name)
);
`

type (
	// Source serves fetches from a catalog snapshot stored in SQLite.
	//
	// Every entity is a row of objects holding its type, its parent and its full
	// address; its attributes are rows of attributes. A fetch walks the pattern
	// one level at a time, selecting the children of the previous level's
	// matches that satisfy the level's predicates.
	Source struct {
		db      *sql.DB
		collate string
	}

	// Option configures a Source.
	Option func(*Source)

	level struct {
		ids  []int64
		urns map[int64]string
	}
)

var urnParser = urn.NewParser("")

// CaseSensitive makes predicates match attribute values exactly. By default
// matching ignores (ASCII) case.
func CaseSensitive() Option {
	return func(s *Source) {
		s.collate = "BINARY"
	}
}

// Open opens (creating when needed) the snapshot database at path.
func Open(ctx context.Context, path string, opts ...Option) (*Source, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}

	// :memory: databases exist per connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create schema")
	}

	s := &Source{db: db, collate: "NOCASE"}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Source) Close() error {
	return s.db.Close()
}

// Import replaces the snapshot with every entity of tree.
func (s *Source) Import(ctx context.Context, tree *memory.Source) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin import")
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{"DELETE FROM attributes", "DELETE FROM objects"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, errors.Wrap(err, "failed to clear snapshot")
		}
	}

	ids := make(map[string]int64)
	err = tree.Walk(func(v memory.Visit) error {
		var parentID any
		if parent, ok := v.Address.Parent(); ok {
			id, found := ids[parent.String()]
			if !found {
				return errors.Errorf("parent of %s not imported", v.Address)
			}
			parentID = id
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO objects (parent_id, type, urn) VALUES (?, ?, ?)",
			parentID, v.Type, v.Address.String())
		if err != nil {
			return errors.Wrapf(err, "failed to insert %s", v.Address)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return errors.Wrapf(err, "failed to insert %s", v.Address)
		}
		ids[v.Address.String()] = id

		names := make([]string, 0, len(v.Attributes))
		for name := range v.Attributes {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO attributes (object_id, name, value) VALUES (?, ?, ?)",
				id, name, source.Text(v.Attributes[name])); err != nil {
				return errors.Wrapf(err, "failed to insert %s of %s", name, v.Address)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit import")
	}
	return len(ids), nil
}

// Fetch returns a row for every entity matched by req.Pattern.
func (s *Source) Fetch(ctx context.Context, req catalog.Request) ([]catalog.Row, error) {
	if req.Pattern.IsZero() {
		return nil, errors.Wrap(urn.ErrInvalidAddress, "empty pattern")
	}

	var matched level
	for i, seg := range req.Pattern.Segments() {
		var err error
		if matched, err = s.level(ctx, seg, i == 0, matched.ids); err != nil {
			return nil, errors.Wrapf(err, "failed to fetch %s", req.Pattern)
		}
		if len(matched.ids) == 0 {
			return []catalog.Row{}, nil
		}
	}

	attrs, err := s.attributes(ctx, matched.ids)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", req.Pattern)
	}

	rows := make([]catalog.Row, 0, len(matched.ids))
	for _, id := range matched.ids {
		addr, err := urnParser.Parse(matched.urns[id])
		if err != nil {
			return nil, err
		}
		rows = append(rows, source.Project(addr, attrs[id], req.Fields))
	}
	source.Sort(rows, req.OrderBy)
	return rows, nil
}

func (s *Source) level(ctx context.Context, seg urn.Segment, root bool, parents []int64) (level, error) {
	var (
		query strings.Builder
		args  = []any{seg.Type}
	)

	query.WriteString("SELECT o.id, o.urn FROM objects o WHERE o.type = ?")
	if root {
		query.WriteString(" AND o.parent_id IS NULL")
	} else {
		query.WriteString(" AND o.parent_id IN (" + placeholders(len(parents)) + ")")
		for _, id := range parents {
			args = append(args, id)
		}
	}

	for _, p := range seg.Predicates {
		query.WriteString(" AND EXISTS (SELECT 1 FROM attributes a WHERE a.object_id = o.id AND a.name = ? AND a.value = ? COLLATE " + s.collate + ")")
		args = append(args, p.Attribute, p.Value)
	}
	query.WriteString(" ORDER BY o.id")

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return level{}, err
	}
	defer func() { _ = rows.Close() }()

	out := level{urns: make(map[int64]string)}
	for rows.Next() {
		var (
			id   int64
			text string
		)
		if err := rows.Scan(&id, &text); err != nil {
			return level{}, err
		}
		out.ids = append(out.ids, id)
		out.urns[id] = text
	}
	return out, rows.Err()
}

func (s *Source) attributes(ctx context.Context, ids []int64) (map[int64]map[string]any, error) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT object_id, name, value FROM attributes WHERE object_id IN ("+placeholders(len(ids))+")",
		args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[int64]map[string]any, len(ids))
	for rows.Next() {
		var (
			id    int64
			name  string
			value sql.NullString
		)
		if err := rows.Scan(&id, &name, &value); err != nil {
			return nil, err
		}
		if out[id] == nil {
			out[id] = make(map[string]any)
		}
		if value.Valid {
			out[id][name] = value.String
		}
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
