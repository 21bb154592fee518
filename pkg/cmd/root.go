package cmd

import (
	"context"
	"fmt"

	"github.com/pseudomuto/metatree/pkg/consts"
	"github.com/urfave/cli/v3"
)

// Version describes the build, set by the release tooling.
type Version struct {
	Version   string
	Commit    string
	Timestamp string
}

// New creates the metatree command line application.
//
// Global Flags:
//   - --config, -c: the config file (env METATREE_CONFIG, default metatree.yaml)
//   - --source, -s: overrides source.path from the config file
//   - --log-level: overrides log.level from the config file
//
// A missing config file is only an error when --config was given explicitly;
// otherwise the defaults apply.
//
// Example usage:
//
//	app := cmd.New(cmd.Version{Version: "v1.0.0"})
//	err := app.Run(ctx, []string{"metatree", "-s", "prod01.yaml", "resolve", "Server/Database[@Name='Sales']"})
func New(v Version) *cli.Command {
	e := &env{}

	return &cli.Command{
		Name:  "metatree",
		Usage: "Resolve and compare addresses of database server objects",
		Description: `metatree maps hierarchical object addresses such as
Server/Database[@Name='Sales']/Table[@Schema='dbo' and @Name='Orders']
onto the objects of a server, fetched from a YAML fixture, a SQLite snapshot
or a live ClickHouse server.`,
		Version: v.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "the metatree config file",
				Sources: cli.EnvVars("METATREE_CONFIG"),
				Value:   consts.DefaultConfigFile,
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "the fixture or snapshot to read, overriding source.path",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error, overriding log.level",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, e.load(cmd)
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			return e.close()
		},
		Commands: []*cli.Command{
			resolveCmd(e),
			queryCmd(e),
			compareCmd(e),
			importCmd(e),
			versionCmd(v),
		},
	}
}

func versionCmd(v Version) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w := writer(cmd)
			fmt.Fprintln(w, "Version:", v.Version)
			fmt.Fprintln(w, "Commit:", v.Commit)
			fmt.Fprintln(w, "Date:", v.Timestamp)
			return nil
		},
	}
}
