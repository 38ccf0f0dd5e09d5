package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/sqlbuilder"
	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
	"github.com/ajitpratap0/tabula/pkg/value"
)

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "Tabula v%s\n", version)
			fmt.Fprintf(a.out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(a.out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func (a *app) schemaCommand() *cobra.Command {
	var constraints bool
	cmd := &cobra.Command{
		Use:   "schema <table>",
		Short: "Print the columns of a table as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			exec, done, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer done()

			if constraints {
				cs, err := exec.GetTableConstraints(ctx, args[0])
				if err != nil {
					return err
				}
				for _, c := range cs {
					if err := a.lines.Write(map[string]string{"name": c.Name, "type": c.Type.String()}); err != nil {
						return err
					}
				}
				return nil
			}

			schema, err := exec.GetTableSchema(ctx, args[0])
			if err != nil {
				return err
			}
			for _, col := range schema {
				if err := a.lines.Write(col); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&constraints, "constraints", false, "List constraints instead of columns")
	return cmd
}

func (a *app) selectCommand() *cobra.Command {
	var (
		columns []string
		where   []string
		orderBy []string
		limit   uint64
		offset  uint64
		noPK    bool
	)
	cmd := &cobra.Command{
		Use:   "select <table>",
		Short: "Query a table and print its rows as JSON lines",
		Long: `Query a table and print its rows as JSON lines.

Example:
  tabula select users --columns name,email --where active=true --order-by id:desc --limit 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel := sqlbuilder.NewSelect(args[0]).WithColumns(columns...).WithPrimaryKey(!noPK)
			filter, err := parseFilter(where)
			if err != nil {
				return err
			}
			if !filter.IsEmpty() {
				sel.Where(filter)
			}
			orders, err := parseOrders(orderBy)
			if err != nil {
				return err
			}
			if len(orders) > 0 {
				sel.OrderBy(orders...)
			}
			if limit > 0 {
				sel.WithLimit(limit)
			}
			if offset > 0 {
				sel.WithOffset(offset)
			}

			ctx, cancel := a.context(cmd)
			defer cancel()
			exec, done, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer done()

			tbl, err := exec.Select(ctx, sel)
			if err != nil {
				return err
			}
			return a.lines.WriteTable(tbl)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&columns, "columns", nil, "Columns to select (default all)")
	f.StringArrayVar(&where, "where", nil, "Filter as column=value, repeat to AND several")
	f.StringSliceVar(&orderBy, "order-by", nil, "Ordering as column[:asc|:desc]")
	f.Uint64Var(&limit, "limit", 0, "Maximum number of rows")
	f.Uint64Var(&offset, "offset", 0, "Rows to skip")
	f.BoolVar(&noPK, "no-primary-key", false, "Do not look up or print the primary key")
	return cmd
}

func (a *app) saveCommand() *cobra.Command {
	var strategy, indexColumn string
	cmd := &cobra.Command{
		Use:   "save <table> <file.csv>",
		Short: "Write a CSV file into a table",
		Long: `Write a CSV file into a table. Cell types are inferred from the text.

Strategies:
  fail_if_exists  create the table, fail when it exists (default)
  replace         drop and recreate the table
  append          insert rows, letting the database assign keys
  upsert          insert new keys and update existing ones`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strategy != "" {
				a.cfg.Save.Strategy = strategy
			}
			if indexColumn != "" {
				a.cfg.Save.IndexColumn = indexColumn
			}
			strat, err := a.cfg.Strategy()
			if err != nil {
				return err
			}

			tbl, err := readCSVFile(args[1], a.cfg.CSV, a.cfg.Save.IndexColumn)
			if err != nil {
				return err
			}
			a.log.Debug("read input file",
				zap.String("path", args[1]),
				zap.Int("rows", tbl.Height()),
				zap.Int("columns", tbl.Width()))

			ctx, cancel := a.context(cmd)
			defer cancel()
			exec, done, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer done()

			res, err := exec.Save(ctx, args[0], tbl, strat)
			if err != nil {
				return err
			}
			return a.lines.Write(map[string]any{
				"table":         args[0],
				"strategy":      strat.String(),
				"rows_affected": res.RowsAffected,
			})
		},
	}
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "Save strategy (default from config)")
	cmd.Flags().StringVar(&indexColumn, "index-column", "", "CSV column used as primary key (default from config)")
	return cmd
}

func (a *app) deleteCommand() *cobra.Command {
	var where []string
	cmd := &cobra.Command{
		Use:   "delete <table>",
		Short: "Delete the rows matching a filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilter(where)
			if err != nil {
				return err
			}
			if filter.IsEmpty() {
				return tabulaerrors.New(tabulaerrors.ErrorTypeValidation, "delete requires at least one --where")
			}

			ctx, cancel := a.context(cmd)
			defer cancel()
			exec, done, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer done()

			res, err := exec.Delete(ctx, sqlbuilder.NewDelete(args[0], filter))
			if err != nil {
				return err
			}
			return a.lines.Write(map[string]any{
				"table":         args[0],
				"rows_affected": res.RowsAffected,
			})
		},
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, "Filter as column=value, repeat to AND several")
	return cmd
}

// parseFilter ANDs column=value terms. Values are typed with value.Infer.
func parseFilter(terms []string) (sqlbuilder.Expressions, error) {
	var (
		filter sqlbuilder.Expressions
		b      sqlbuilder.AfterLeaf
	)
	for i, term := range terms {
		col, raw, ok := strings.Cut(term, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return filter, tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "invalid filter %q, want column=value", term)
		}
		cond := sqlbuilder.Cond(col, sqlbuilder.Equal(value.Infer(raw)))
		if i == 0 {
			b = sqlbuilder.FromCondition(cond)
			continue
		}
		b = b.And().Condition(cond)
	}
	if len(terms) > 0 {
		filter = b.Finish()
	}
	return filter, nil
}

func parseOrders(terms []string) ([]sqlbuilder.Order, error) {
	orders := make([]sqlbuilder.Order, 0, len(terms))
	for _, term := range terms {
		col, dir, _ := strings.Cut(term, ":")
		switch strings.ToLower(dir) {
		case "", "asc":
			orders = append(orders, sqlbuilder.Asc(col))
		case "desc":
			orders = append(orders, sqlbuilder.Desc(col))
		default:
			return nil, tabulaerrors.Newf(tabulaerrors.ErrorTypeValidation, "invalid order direction %q", dir)
		}
	}
	return orders, nil
}
