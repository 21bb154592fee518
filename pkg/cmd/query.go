package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/source"
	"github.com/urfave/cli/v3"
)

// queryCmd prints every address matching a pattern, one per line, followed by
// the requested fields.
//
//	metatree query "Server/Database/Table[@Schema='dbo']" --field RowCount --order-by RowCount:desc
func queryCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Print the addresses matching a pattern",
		ArgsUsage: "<pattern>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "field",
				Aliases: []string{"f"},
				Usage:   "a property to fetch and print (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:    "order-by",
				Aliases: []string{"o"},
				Usage:   "order by a property, field[:desc] (repeatable)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("exactly one pattern is required")
			}

			orderBy, err := parseOrderBy(cmd.StringSlice("order-by"))
			if err != nil {
				return err
			}

			r, err := e.resolver(ctx)
			if err != nil {
				return err
			}

			pattern, err := r.Parse(cmd.Args().First())
			if err != nil {
				return err
			}

			fields := cmd.StringSlice("field")
			addrs, err := r.ResolveMany(ctx, pattern, fields, orderBy)
			if err != nil {
				return err
			}

			w := writer(cmd)
			for _, addr := range addrs {
				if len(fields) == 0 {
					fmt.Fprintln(w, addr)
					continue
				}

				o, err := r.Resolve(ctx, addr)
				if err != nil {
					return err
				}

				cols := []string{addr.String()}
				for _, f := range fields {
					v, _ := o.Property(f)
					cols = append(cols, f+"="+source.Text(v))
				}
				fmt.Fprintln(w, strings.Join(cols, "\t"))
			}
			return nil
		},
	}
}

// parseOrderBy reads field[:asc|:desc] specifications.
func parseOrderBy(specs []string) ([]catalog.OrderBy, error) {
	out := make([]catalog.OrderBy, 0, len(specs))
	for _, spec := range specs {
		field, dir, _ := strings.Cut(spec, ":")
		if field == "" {
			return nil, errors.Errorf("invalid order %q: missing field", spec)
		}

		ob := catalog.OrderBy{Field: field}
		switch strings.ToLower(dir) {
		case "", "asc":
		case "desc":
			ob.Descending = true
		default:
			return nil, errors.Errorf("invalid order %q: direction must be asc or desc", spec)
		}
		out = append(out, ob)
	}
	return out, nil
}
