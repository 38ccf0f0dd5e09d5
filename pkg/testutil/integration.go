package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	// MySQLEnv names the variable holding a mysql:// connection string for
	// integration tests.
	MySQLEnv = "TABULA_MYSQL_DSN"
	// PostgresEnv names the variable holding a postgres:// connection string
	// for integration tests.
	PostgresEnv = "TABULA_POSTGRES_DSN"
)

// IntegrationTestSuite provides base functionality for integration tests
// that run against a live database.
type IntegrationTestSuite struct {
	suite.Suite
	ConnString string

	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// SetupSuite runs before all tests in the suite
func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	s.startTime = time.Now()
	s.T().Logf("Integration test suite started against %s", s.ConnString)
}

// TearDownSuite runs after all tests in the suite
func (s *IntegrationTestSuite) TearDownSuite() {
	s.cancel()
	s.T().Logf("Integration test suite completed in %v", time.Since(s.startTime))
}

// Context returns the suite context
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}

// IntegrationTest marks a test as an integration test
func IntegrationTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// ConnStringFromEnv returns the connection string stored in env, skipping
// the test when it is unset or when running in short mode.
func ConnStringFromEnv(t *testing.T, env string) string {
	t.Helper()
	IntegrationTest(t)
	conn := os.Getenv(env)
	if conn == "" {
		t.Skipf("%s not set", env)
	}
	return conn
}
