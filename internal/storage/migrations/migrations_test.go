package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	input := `-- header
CREATE TABLE a (x UInt8) ENGINE = Memory;

-- second
CREATE TABLE b (y String) ENGINE = Memory;
`
	stmts := splitStatements(input)

	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x UInt8) ENGINE = Memory", stmts[0])
	assert.Equal(t, "CREATE TABLE b (y String) ENGINE = Memory", stmts[1])
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings(`SELECT 'it''s'; SELECT 1;`))
	assert.Error(t, validateNoSemicolonInStrings(`SELECT 'a;b';`))
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default@localhost:9000/recon_2024")
	require.NoError(t, err)
	assert.Equal(t, "recon_2024", db)

	for _, dsn := range []string{
		"clickhouse://default@localhost:9000",
		"clickhouse://default@localhost:9000/recon;DROP",
		"clickhouse://default@localhost:9000/9recon",
		"clickhouse://default@localhost:9000/recon-db",
	} {
		_, err := databaseFromDSN(dsn)
		assert.ErrorIs(t, err, ErrInvalidDatabase, dsn)
	}
}

func TestLoad_OrderedAndSplittable(t *testing.T) {
	pg, err := load("postgres")
	require.NoError(t, err)
	require.Len(t, pg, 2)
	assert.Equal(t, "001_runs.sql", pg[0].Name)
	assert.Equal(t, "002_reconciled_trades.sql", pg[1].Name)
	assert.Contains(t, pg[1].SQL, "CREATE TABLE IF NOT EXISTS validation_issues")

	ch, err := load("clickhouse")
	require.NoError(t, err)
	require.Len(t, ch, 1)

	for _, m := range append(pg, ch...) {
		assert.NoError(t, validateNoSemicolonInStrings(m.SQL), m.Name)
		assert.NotEmpty(t, splitStatements(m.SQL), m.Name)
	}
}

func TestLoad_UnknownDir(t *testing.T) {
	_, err := load("mysql")
	assert.Error(t, err)
}
