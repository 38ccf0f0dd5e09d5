// Package testutil provides testing utilities for tabula
package testutil

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/tabula/pkg/tabulaerrors"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout that is
// cancelled when the test completes.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// SQLiteConnString returns a connection string for a fresh SQLite database
// file inside the test's temporary directory.
func SQLiteConnString(t *testing.T) string {
	t.Helper()
	return "sqlite://" + filepath.Join(t.TempDir(), "tabula.db")
}

// WriteCSV writes header and records to name inside dir and returns the path.
func WriteCSV(t *testing.T, dir, name string, header []string, records [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write(header))
	require.NoError(t, w.WriteAll(records))
	return path
}

// RequireErrorType fails the test unless err is a tabula error of type typ.
func RequireErrorType(t *testing.T, err error, typ tabulaerrors.ErrorType) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, tabulaerrors.IsType(err, typ), "expected %s error, got %v", typ, err)
}
