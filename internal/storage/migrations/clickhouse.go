package migrations

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	chstore "trade-reconciler/internal/storage/clickhouse"
)

// ErrInvalidDatabase is returned when the ClickHouse DSN names no usable
// database. The name is interpolated into CREATE DATABASE, so only
// identifier characters are accepted.
var ErrInvalidDatabase = errors.New("invalid clickhouse database name")

// RunClickhouseMigrations creates the analytics database named in dsn if
// needed, applies the reconciled-trade schema and returns a connection to
// that database. The schema uses IF NOT EXISTS, so it is reapplied on every
// start.
func RunClickhouseMigrations(ctx context.Context, dsn string, logger *zap.Logger) (*chstore.Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("migrations")

	dbName, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}
	pending, err := load("clickhouse")
	if err != nil {
		return nil, err
	}

	adminConn, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse admin: %w", err)
	}
	if err := adminConn.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+dbName); err != nil {
		adminConn.Close()
		return nil, fmt.Errorf("create database %s: %w", dbName, err)
	}
	if err := adminConn.Close(); err != nil {
		return nil, fmt.Errorf("close admin connection: %w", err)
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}
	for _, m := range pending {
		n, err := applyClickhouse(ctx, conn, m)
		if err != nil {
			conn.Close()
			return nil, err
		}
		logger.Info("clickhouse migration applied",
			zap.String("database", dbName),
			zap.String("file", m.Name),
			zap.Int("statements", n))
	}

	return conn, nil
}

// applyClickhouse runs the statements of m one by one, as the native
// protocol accepts a single statement per Exec.
func applyClickhouse(ctx context.Context, conn *chstore.Conn, m migration) (int, error) {
	if err := validateNoSemicolonInStrings(m.SQL); err != nil {
		return 0, fmt.Errorf("validate migration %s: %w", m.Name, err)
	}
	stmts := splitStatements(m.SQL)
	for i, stmt := range stmts {
		if err := conn.Exec(ctx, stmt); err != nil {
			return i, fmt.Errorf("apply migration %s statement %d: %w", m.Name, i+1, err)
		}
	}
	return len(stmts), nil
}

// splitStatements drops blank and -- comment lines and splits the rest on
// semicolons. Quoting is not understood; see validateNoSemicolonInStrings.
func splitStatements(input string) []string {
	var filtered []string
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		filtered = append(filtered, line)
	}

	var stmts []string
	for _, part := range strings.Split(strings.Join(filtered, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// validateNoSemicolonInStrings rejects a semicolon inside a single-quoted
// literal ('' is an escaped quote).
func validateNoSemicolonInStrings(sql string) error {
	inString := false
	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '\'':
			if inString && i+1 < len(sql) && sql[i+1] == '\'' {
				i++
				continue
			}
			inString = !inString
		case ';':
			if inString {
				return fmt.Errorf("semicolon inside string literal at byte %d", i)
			}
		}
	}
	return nil
}

// databaseFromDSN returns the database path segment of a clickhouse:// DSN.
func databaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	db := strings.TrimPrefix(u.Path, "/")
	if db == "" {
		return "", fmt.Errorf("%w: dsn has no database", ErrInvalidDatabase)
	}
	for i, r := range db {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidDatabase, db)
		}
	}
	return db, nil
}
