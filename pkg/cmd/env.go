package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/config"
	"github.com/pseudomuto/metatree/pkg/resolve"
	"github.com/pseudomuto/metatree/pkg/source"
	"github.com/pseudomuto/metatree/pkg/source/clickhouse"
	"github.com/pseudomuto/metatree/pkg/source/memory"
	"github.com/pseudomuto/metatree/pkg/source/sqlite"
	"github.com/urfave/cli/v3"
)

// env carries what the commands share: the loaded configuration, the logger,
// and the data source opened on first use.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *catalog.Registry
	metrics  *prometheus.Registry
	fetcher  catalog.Fetcher
	closers  []func() error
}

func (e *env) load(cmd *cli.Command) error {
	path := cmd.String("config")

	cfg, err := config.LoadConfigFile(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !cmd.IsSet("config"):
		cfg = config.Default()
	default:
		return err
	}

	if src := cmd.String("source"); src != "" {
		cfg.Source.Path = src
	}
	if level := cmd.String("log-level"); level != "" {
		cfg.Log.Level = level
	}
	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	e.cfg = cfg
	e.registry = registry
	e.logger = cfg.Logger(errWriter(cmd))
	e.metrics = prometheus.NewRegistry()
	return nil
}

// open returns the configured data source, instrumented when metrics are on.
func (e *env) open(ctx context.Context) (catalog.Fetcher, error) {
	if e.fetcher != nil {
		return e.fetcher, nil
	}

	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	src := e.cfg.Source
	var fetcher catalog.Fetcher

	switch src.Kind {
	case config.SourceMemory:
		var opts []memory.Option
		if src.CaseSensitive {
			opts = append(opts, memory.CaseSensitive())
		}
		tree, err := memory.LoadFile(src.Path, e.registry, opts...)
		if err != nil {
			return nil, err
		}
		fetcher = tree
	case config.SourceSQLite:
		var opts []sqlite.Option
		if src.CaseSensitive {
			opts = append(opts, sqlite.CaseSensitive())
		}
		db, err := sqlite.Open(ctx, src.Path, opts...)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, db.Close)
		fetcher = db
	case config.SourceClickHouse:
		ch, err := clickhouse.Open(ctx, clickhouse.Config{DSN: src.DSN, TLS: src.TLS}, e.registry)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, ch.Close)
		fetcher = ch
	default:
		return nil, errors.Errorf("unknown source kind %q", src.Kind)
	}

	if e.cfg.Metrics.Enabled {
		fetcher = source.Instrument(fetcher, source.NewMetrics(e.metrics))
	}

	e.logger.Debug("source opened", "kind", src.Kind, "flavor", e.cfg.Flavor)
	e.fetcher = fetcher
	return fetcher, nil
}

func (e *env) resolver(ctx context.Context) (*resolve.Resolver, error) {
	fetcher, err := e.open(ctx)
	if err != nil {
		return nil, err
	}

	return resolve.New(fetcher, e.registry,
		resolve.WithLogger(e.logger),
		resolve.WithDefaultCollation(e.cfg.Collation.Default),
	), nil
}

func (e *env) close() error {
	var errs []error
	for _, c := range e.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil

	if e.cfg != nil && e.cfg.Metrics.Enabled {
		if err := e.flushMetrics(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Errorf("closing: %v", errs)
	}
	return nil
}

func (e *env) flushMetrics() error {
	if path := e.cfg.Metrics.Textfile; path != "" {
		return errors.Wrapf(prometheus.WriteToTextfile(path, e.metrics), "writing metrics to %s", path)
	}

	families, err := e.metrics.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"name", mf.GetName()}
			for _, l := range m.GetLabel() {
				attrs = append(attrs, l.GetName(), l.GetValue())
			}

			switch {
			case m.GetCounter() != nil:
				attrs = append(attrs, "value", m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				attrs = append(attrs,
					"count", m.GetHistogram().GetSampleCount(),
					"sum", m.GetHistogram().GetSampleSum())
			}
			e.logger.Info("metric", attrs...)
		}
	}
	return nil
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
