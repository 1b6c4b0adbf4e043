package probe

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/uptimer-dev/uptimer/internal/domain/monitor"
)

const defaultPostgresTimeout = 10 * time.Second

// PostgresProber opens a single connection, runs SELECT 1 and closes it.
// SQLSTATE codes that happen to be numeric (e.g. auth failures) are carried
// through; everything else maps to 500.
type PostgresProber struct{}

func (PostgresProber) Probe(ctx context.Context, m *monitor.Monitor) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultPostgresTimeout)
	defer cancel()

	start := time.Now()
	conn, err := pgx.Connect(ctx, m.URL)
	if err != nil {
		return refused(start, postgresMessage(err), postgresCode(err)), err
	}
	defer func() { _ = conn.Close(context.Background()) }()

	var one int
	if err := conn.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return refused(start, postgresMessage(err), postgresCode(err)), err
	}

	return established(start, "PostgreSQL server running", 200), nil
}

func postgresMessage(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Message != "" {
		return pgErr.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return "PostgreSQL server connection issue"
}

func postgresCode(err error) int {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if n, convErr := strconv.Atoi(pgErr.Code); convErr == nil {
			return n
		}
	}
	return 500
}
