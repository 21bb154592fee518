package cmd

import (
	"context"
	"fmt"

	"github.com/pseudomuto/metatree/pkg/source/memory"
	"github.com/pseudomuto/metatree/pkg/source/sqlite"
	"github.com/urfave/cli/v3"
)

// importCmd snapshots a YAML fixture into a SQLite database, replacing its
// previous contents.
//
//	metatree import --fixture prod01.yaml --db prod01.db
func importCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Snapshot a YAML fixture into a SQLite database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "fixture",
				Usage:    "the YAML fixture to read",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "db",
				Usage:    "the SQLite database to write",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fixture, dbPath := cmd.String("fixture"), cmd.String("db")

			tree, err := memory.LoadFile(fixture, e.registry)
			if err != nil {
				return err
			}

			db, err := sqlite.Open(ctx, dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			n, err := db.Import(ctx, tree)
			if err != nil {
				return err
			}

			e.logger.Info("snapshot imported", "fixture", fixture, "db", dbPath, "entities", n)
			fmt.Fprintf(writer(cmd), "imported %d entities into %s\n", n, dbPath)
			return nil
		},
	}
}
