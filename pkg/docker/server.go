package docker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/consts"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DefaultVersion is the ClickHouse image tag used when Options.Version is empty.
const DefaultVersion = "latest"

var (
	// ErrRunning is returned by Start when the server was already started.
	ErrRunning = errors.New("server is already running")

	// ErrNotRunning is returned when the server must be started first.
	ErrNotRunning = errors.New("server is not running")
)

type (
	// Options configure the ClickHouse server container.
	Options struct {
		// Version is the clickhouse-server image tag (an -alpine suffix is added).
		Version string

		// ConfigDir is mounted as /etc/clickhouse-server/config.d when set.
		// Relative paths are resolved against the working directory.
		ConfigDir string

		// Logger receives container lifecycle events. Defaults to slog.Default().
		Logger *slog.Logger
	}

	// Server is a disposable ClickHouse server running in Docker, used to
	// exercise the ClickHouse source against real system tables.
	Server struct {
		options   Options
		container *clickhouse.ClickHouseContainer
	}
)

// New creates a server. Nothing runs until Start is called.
//
// Example:
//
//	server := docker.New(docker.Options{Version: "25.7"})
//	if err := server.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer server.Stop(ctx)
//
//	dsn, err := server.DSN(ctx)
func New(opts Options) *Server {
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default().With("component", "docker")
	}
	return &Server{options: opts}
}

// Image returns the image reference the server runs.
func (s *Server) Image() string {
	return fmt.Sprintf("clickhouse/clickhouse-server:%s-alpine", s.options.Version)
}

// Start pulls the image if needed and waits until the HTTP interface answers.
func (s *Server) Start(ctx context.Context) error {
	if s.container != nil {
		return ErrRunning
	}

	customizers := []testcontainers.ContainerCustomizer{
		clickhouse.WithUsername("default"),
		clickhouse.WithPassword(""),
		testcontainers.WithEnv(map[string]string{"CLICKHOUSE_DEFAULT_ACCESS_MANAGEMENT": "1"}),
		testcontainers.WithWaitStrategyAndDeadline(
			5*time.Minute,
			wait.
				NewHTTPStrategy("/").
				WithPort(nat.Port("8123/tcp")).
				WithStatusCodeMatcher(func(status int) bool {
					return status == 200
				}),
		),
	}

	if s.options.ConfigDir != "" {
		mnt, err := configMount(s.options.ConfigDir)
		if err != nil {
			return err
		}

		customizers = append(customizers, testcontainers.WithHostConfigModifier(func(hc *container.HostConfig) {
			hc.Mounts = append(hc.Mounts, mnt)
		}))
	}

	s.options.Logger.Info("starting ClickHouse server", "image", s.Image())
	ctr, err := clickhouse.Run(ctx, s.Image(), customizers...)
	if err != nil {
		return errors.Wrap(err, "failed to start ClickHouse container")
	}

	s.container = ctr
	return nil
}

// Stop terminates and removes the container. Stopping a server that is not
// running is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if s.container == nil {
		return nil
	}

	err := s.container.Terminate(ctx)
	s.container = nil
	if err != nil {
		return errors.Wrap(err, "failed to stop ClickHouse container")
	}

	s.options.Logger.Info("stopped ClickHouse server", "image", s.Image())
	return nil
}

// DSN returns a clickhouse:// connection string for the native protocol.
func (s *Server) DSN(ctx context.Context) (string, error) {
	if s.container == nil {
		return "", ErrNotRunning
	}

	dsn, err := s.container.ConnectionString(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to get connection string")
	}
	return dsn, nil
}

// IsRunning reports whether Start succeeded and Stop has not been called.
func (s *Server) IsRunning() bool {
	return s.container != nil
}

func configMount(dir string) (mount.Mount, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return mount.Mount{}, errors.Wrapf(err, "failed to get absolute path for %s", dir)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return mount.Mount{}, errors.Wrapf(err, "config dir %s", abs)
	}
	if !info.IsDir() {
		return mount.Mount{}, errors.Errorf("config dir %s is not a directory", abs)
	}

	return mount.Mount{
		Type:     mount.TypeBind,
		Source:   abs,
		Target:   "/etc/clickhouse-server/config.d",
		ReadOnly: true,
	}, nil
}

// WriteConfig writes a minimal config.d override to dir, creating it if needed.
func WriteConfig(dir string) error {
	if err := os.MkdirAll(dir, consts.ModeDir); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}

	path := filepath.Join(dir, "metatree.xml")
	if err := os.WriteFile(path, []byte(minimalConfig), consts.ModeFile); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

const minimalConfig = `<?xml version="1.0"?>
<clickhouse>
    <logger>
        <level>warning</level>
        <console>true</console>
    </logger>
    <listen_host>0.0.0.0</listen_host>
</clickhouse>
`
