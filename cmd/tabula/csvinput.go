package main

import (
	"os"

	"github.com/ajitpratap0/tabula/pkg/columnar"
	"github.com/ajitpratap0/tabula/pkg/config"
	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
)

// readCSVFile loads path with the configured CSV dialect; indexColumn, when
// present in the header, becomes the table index.
func readCSVFile(path string, cfg config.CSVConfig, indexColumn string) (*columnar.Table, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return nil, tabulaerrors.Wrap(err, tabulaerrors.ErrorTypeValidation, "failed to open input file").
			WithDetail("path", path)
	}
	defer f.Close()

	opts := columnar.CSVOptions{
		HasHeader:   cfg.HasHeader,
		NullValues:  cfg.NullValues,
		TrimSpaces:  cfg.TrimSpaces,
		IndexColumn: indexColumn,
	}
	if r := []rune(cfg.Delimiter); len(r) > 0 {
		opts.Comma = r[0]
	}
	return columnar.ReadCSV(f, opts)
}
