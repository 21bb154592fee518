package clickhouse

import (
	"context"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/consts"
	"github.com/pseudomuto/metatree/pkg/source"
	"github.com/pseudomuto/metatree/pkg/urn"
)

// ServerCollation is reported as the server's collation. ClickHouse object
// names are case sensitive and compare byte-wise.
const ServerCollation = "Latin1_General_BIN"

var (
	systemDatabases = []string{"system", "information_schema", "INFORMATION_SCHEMA"}
	viewEngines     = []string{"View", "MaterializedView", "LiveView", "WindowView"}
)

type (
	// Conn is the part of a ClickHouse connection the source reads through.
	// driver.Conn satisfies it.
	Conn interface {
		Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
	}

	// Config describes how to reach the server.
	Config struct {
		DSN string      `yaml:"dsn" validate:"required"`
		TLS *TLSOptions `yaml:"tls,omitempty"`
	}

	// Source answers fetch requests from ClickHouse system tables.
	Source struct {
		conn     Conn
		close    func() error
		registry *catalog.Registry
	}

	entity struct {
		addr  urn.Address
		attrs map[string]any
		path  string
	}
)

// New creates a source reading through conn. The registry must describe the
// ClickHouse object model.
func New(conn Conn, registry *catalog.Registry) *Source {
	return &Source{conn: conn, registry: registry}
}

// Open connects to the server described by cfg and verifies the connection.
//
// Example:
//
//	src, err := clickhouse.Open(ctx, clickhouse.Config{DSN: "clickhouse://localhost:9000/default"}, model.ClickHouse())
//	if err != nil {
//		return err
//	}
//	defer src.Close()
func Open(ctx context.Context, cfg Config, registry *catalog.Registry) (*Source, error) {
	opts, err := clickhouse.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "invalid ClickHouse DSN")
	}

	if cfg.TLS != nil {
		if opts.TLS, err = cfg.TLS.TLSConfig(); err != nil {
			return nil, err
		}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open ClickHouse connection")
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to ping ClickHouse server")
	}

	return &Source{conn: conn, close: conn.Close, registry: registry}, nil
}

// Close releases the connection opened by Open.
func (s *Source) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Fetch returns a row for every entity matched by req.Pattern. Name predicates
// are pushed down to the server; every predicate is checked again on the rows
// returned.
func (s *Source) Fetch(ctx context.Context, req catalog.Request) ([]catalog.Row, error) {
	if req.Pattern.IsZero() {
		return nil, errors.Wrap(urn.ErrInvalidAddress, "empty pattern")
	}

	segments := req.Pattern.Segments()
	if segments[0].Type != s.registry.Root() {
		return nil, errors.Wrapf(urn.ErrInvalidRoot, "%s", req.Pattern)
	}

	matches, err := s.server(ctx, segments[0])
	if err != nil {
		return nil, err
	}

	for i := 1; i < len(segments) && len(matches) > 0; i++ {
		seg := segments[i]
		desc, err := s.registry.Child(segments[i-1].Type, seg.Type)
		if err != nil {
			return nil, err
		}

		switch seg.Type {
		case "Database":
			matches, err = s.databases(ctx, seg, desc, matches)
		case "Table", "View", "Dictionary":
			matches, err = s.tables(ctx, seg, desc, matches)
		case "Column":
			matches, err = s.columns(ctx, seg, desc, matches)
		default:
			err = errors.Wrapf(catalog.ErrUnknownType, "%s is not served by ClickHouse", seg.Type)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch %s", req.Pattern)
		}
	}

	rows := make([]catalog.Row, len(matches))
	for i, m := range matches {
		rows[i] = source.Project(m.addr, m.attrs, req.Fields)
	}
	source.Sort(rows, req.OrderBy)
	return rows, nil
}

func (s *Source) server(ctx context.Context, seg urn.Segment) ([]entity, error) {
	var name, version string
	err := s.query(ctx, "SELECT hostName(), version()", nil, func(rows driver.Rows) error {
		return rows.Scan(&name, &version)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query server")
	}

	attrs := map[string]any{
		consts.NameAttribute:      name,
		"Version":                 version,
		consts.CollationAttribute: ServerCollation,
	}
	if !source.Match(seg, attrs, true) {
		return nil, nil
	}

	desc := s.registry.RootDescriptor()
	addr := urn.New(urn.Segment{Type: desc.Type, Predicates: source.KeyPredicates(desc, attrs)})
	return []entity{{addr: addr, attrs: attrs}}, nil
}

func (s *Source) databases(ctx context.Context, seg urn.Segment, desc *catalog.Descriptor, parents []entity) ([]entity, error) {
	var query strings.Builder
	args := excludedArgs()

	query.WriteString("SELECT name, engine, comment FROM system.databases WHERE ")
	query.WriteString(exclusion("name"))
	if name, ok := nameFilter(seg); ok {
		query.WriteString(" AND name = ?")
		args = append(args, name)
	}
	query.WriteString(" ORDER BY name")

	var res []entity
	err := s.query(ctx, query.String(), args, func(rows driver.Rows) error {
		var name, engine, comment string
		if err := rows.Scan(&name, &engine, &comment); err != nil {
			return err
		}

		attrs := map[string]any{consts.NameAttribute: name, "Engine": engine, "Comment": comment}
		if source.Match(seg, attrs, false) {
			res = append(res, child(parents[0], seg, desc, attrs, name))
		}
		return nil
	})
	return res, err
}

func (s *Source) tables(ctx context.Context, seg urn.Segment, desc *catalog.Descriptor, parents []entity) ([]entity, error) {
	var query strings.Builder
	args := excludedArgs()

	query.WriteString("SELECT database, name, engine, comment, total_rows FROM system.tables WHERE ")
	query.WriteString(exclusion("database"))
	query.WriteString(" AND " + engineFilter(seg.Type))
	if len(parents) == 1 {
		query.WriteString(" AND database = ?")
		args = append(args, parents[0].path)
	}
	if name, ok := nameFilter(seg); ok {
		query.WriteString(" AND name = ?")
		args = append(args, name)
	}
	query.WriteString(" ORDER BY database, name")

	byPath := index(parents)

	var res []entity
	err := s.query(ctx, query.String(), args, func(rows driver.Rows) error {
		var (
			database, name, engine, comment string
			totalRows                       *uint64
		)
		if err := rows.Scan(&database, &name, &engine, &comment, &totalRows); err != nil {
			return err
		}

		parent, ok := byPath[database]
		if !ok {
			return nil
		}

		attrs := map[string]any{consts.NameAttribute: name, "Comment": comment}
		if seg.Type != "Dictionary" {
			attrs["Engine"] = engine
		}
		if seg.Type == "Table" && totalRows != nil {
			attrs["TotalRows"] = *totalRows
		}

		if source.Match(seg, attrs, false) {
			res = append(res, child(parent, seg, desc, attrs, database+"\x00"+name))
		}
		return nil
	})
	return res, err
}

func (s *Source) columns(ctx context.Context, seg urn.Segment, desc *catalog.Descriptor, parents []entity) ([]entity, error) {
	var query strings.Builder
	args := excludedArgs()

	query.WriteString("SELECT database, table, name, type, position, default_kind, comment FROM system.columns WHERE ")
	query.WriteString(exclusion("database"))
	if len(parents) == 1 {
		database, table, _ := strings.Cut(parents[0].path, "\x00")
		query.WriteString(" AND database = ? AND table = ?")
		args = append(args, database, table)
	}
	if name, ok := nameFilter(seg); ok {
		query.WriteString(" AND name = ?")
		args = append(args, name)
	}
	query.WriteString(" ORDER BY database, table, position")

	byPath := index(parents)

	var res []entity
	err := s.query(ctx, query.String(), args, func(rows driver.Rows) error {
		var (
			database, table, name, dataType, defaultKind, comment string
			position                                              uint64
		)
		if err := rows.Scan(&database, &table, &name, &dataType, &position, &defaultKind, &comment); err != nil {
			return err
		}

		parent, ok := byPath[database+"\x00"+table]
		if !ok {
			return nil
		}

		attrs := map[string]any{
			consts.NameAttribute: name,
			"DataType":           dataType,
			"Position":           position,
			"DefaultKind":        defaultKind,
			"Comment":            comment,
		}
		if source.Match(seg, attrs, false) {
			res = append(res, child(parent, seg, desc, attrs, parent.path+"\x00"+name))
		}
		return nil
	})
	return res, err
}

func (s *Source) query(ctx context.Context, query string, args []any, scan func(driver.Rows) error) error {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return errors.Wrap(err, "failed to scan row")
		}
	}
	return rows.Err()
}

func child(parent entity, seg urn.Segment, desc *catalog.Descriptor, attrs map[string]any, path string) entity {
	return entity{
		addr:  parent.addr.Child(seg.Type, source.KeyPredicates(desc, attrs)...),
		attrs: attrs,
		path:  path,
	}
}

func index(parents []entity) map[string]entity {
	res := make(map[string]entity, len(parents))
	for _, p := range parents {
		res[p.path] = p
	}
	return res
}

func nameFilter(seg urn.Segment) (string, bool) {
	for _, p := range seg.Predicates {
		if p.Attribute == consts.NameAttribute {
			return p.Value, true
		}
	}
	return "", false
}

func engineFilter(typ string) string {
	quoted := make([]string, len(viewEngines))
	for i, e := range viewEngines {
		quoted[i] = "'" + e + "'"
	}
	list := strings.Join(quoted, ", ")

	switch typ {
	case "View":
		return "engine IN (" + list + ")"
	case "Dictionary":
		return "engine = 'Dictionary'"
	default:
		return "engine NOT IN (" + list + ", 'Dictionary')"
	}
}

func exclusion(column string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(systemDatabases)), ", ")
	return column + " NOT IN (" + placeholders + ")"
}

func excludedArgs() []any {
	args := make([]any, len(systemDatabases))
	for i, db := range systemDatabases {
		args[i] = db
	}
	return args
}
