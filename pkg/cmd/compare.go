package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

// compareCmd prints -1, 0 or 1 as the first address sorts before, with or after
// the second under the server's collations.
func compareCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "Compare two addresses using the server's collations",
		ArgsUsage: "<address> <address>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return errors.New("exactly two addresses are required")
			}

			r, err := e.resolver(ctx)
			if err != nil {
				return err
			}

			a, err := r.Parse(cmd.Args().Get(0))
			if err != nil {
				return err
			}
			b, err := r.Parse(cmd.Args().Get(1))
			if err != nil {
				return err
			}

			c, err := r.CompareAddresses(ctx, a, b)
			if err != nil {
				return err
			}

			fmt.Fprintln(writer(cmd), c)
			return nil
		},
	}
}
