package drivers

import (
	"context"
	"database/sql"
	"fmt"
)

// Driver is the contract a database must satisfy to be benchmarked. Every
// query method executes one catalog query and reports how many rows it
// matched; an empty result is a zero count, never an error.
type Driver interface {
	Name() string
	// Connect opens the client connection. Failures are *ConnectionError and
	// the orchestrator skips the database entirely.
	Connect(ctx context.Context) error
	Disconnect() error

	// VariantByID looks up one variant by its composite key (chr:pos:ref:alt).
	VariantByID(ctx context.Context, chromosome string, position int64, ref, alt string) (int, error)
	// VariantsByPosition matches every variant at an exact genomic position.
	VariantsByPosition(ctx context.Context, chromosome string, position int64) (int, error)
	// VariantByRSID looks up one variant by its dbSNP identifier.
	VariantByRSID(ctx context.Context, rsid string) (int, error)
	// VariantsInGene matches every variant annotated to a gene.
	VariantsInGene(ctx context.Context, gene string) (int, error)
	// VariantsInGeneLimited matches at most limit variants in a gene.
	VariantsInGeneLimited(ctx context.Context, gene string, limit int) (int, error)
	// VariantsInRange matches every variant inside a positional window,
	// bounds inclusive. Window size comes from the workload.
	VariantsInRange(ctx context.Context, chromosome string, start, end int64) (int, error)
	// VariantsInTranscript matches every variant annotated to a transcript.
	VariantsInTranscript(ctx context.Context, transcript string) (int, error)
	// CodingVariants matches variants by consequence type, optionally
	// restricted to a gene.
	CodingVariants(ctx context.Context, consequences []string, gene string) (int, error)
	// VariantsInGeneByQuality matches PASS variants in a gene with call
	// quality strictly above minQuality.
	VariantsInGeneByQuality(ctx context.Context, gene string, minQuality float64) (int, error)
	// RareVariantsInGene matches variants in a gene with population allele
	// frequency strictly below maxAF.
	RareVariantsInGene(ctx context.Context, gene string, maxAF float64) (int, error)
}

// Options holds the connection settings for the built-in drivers.
type Options struct {
	RedisAddr     string
	RedisPassword string
	LibSQLURL     string
	PostgresDSN   string
}

// ConnectionError means the database never became usable.
type ConnectionError struct {
	Database string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Database, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError means a query failed to execute. Matching nothing is not a
// failure; only transport or evaluation problems produce a QueryError.
type QueryError struct {
	Database string
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s query: %v", e.Database, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// NewDriver returns a Driver based on the given driverName and connection
// options. It currently supports the "redis", "libsql", and "postgres"
// drivers. If the driverName is not recognized, it returns an error.
func NewDriver(driverName string, opts Options) (Driver, error) {
	switch driverName {
	case "redis":
		return newRedis(opts), nil
	case "libsql":
		return newLibSQL(opts), nil
	case "postgres":
		return newPostgres(opts), nil
	default:
		return nil, fmt.Errorf("unknown driver: %s", driverName)
	}
}

// Names lists the built-in drivers in benchmark order.
func Names() []string {
	return []string{"redis", "libsql", "postgres"}
}

// countRows drains a row-returning query and reports how many rows it
// produced. The benchmark measures retrieval, so rows are fetched rather
// than counted server-side.
func countRows(ctx context.Context, db *sql.DB, database, query string, args ...interface{}) (int, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, &QueryError{Database: database, Err: err}
	}
	defer rows.Close()
	count := 0
	for rows.Next() {
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, &QueryError{Database: database, Err: err}
	}
	return count, nil
}
