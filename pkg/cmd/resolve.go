package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/source"
	"github.com/urfave/cli/v3"
)

// resolveCmd prints one entity: its address, state, collation and properties.
//
//	metatree resolve "Server/Database[@Name='Sales']"
func resolveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve an address and print the entity",
		ArgsUsage: "<address>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("exactly one address is required")
			}

			r, err := e.resolver(ctx)
			if err != nil {
				return err
			}

			o, err := r.ResolveString(ctx, cmd.Args().First())
			if err != nil {
				return err
			}

			w := writer(cmd)
			fmt.Fprintf(w, "%-10s %s\n", "Address:", o.Address())
			fmt.Fprintf(w, "%-10s %s\n", "Type:", o.Type())
			fmt.Fprintf(w, "%-10s %s\n", "State:", o.State())
			fmt.Fprintf(w, "%-10s %s\n", "Collation:", o.Policy().Name())

			props := o.Properties()

			names := make([]string, 0, len(props))
			for name := range props {
				names = append(names, name)
			}
			slices.Sort(names)

			fmt.Fprintln(w, "Properties:")
			for _, name := range names {
				fmt.Fprintf(w, "  %s = %s\n", name, source.Text(props[name]))
			}
			return nil
		},
	}
}
