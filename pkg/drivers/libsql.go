package drivers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// libsqlDriver benchmarks a Turso/libSQL variants database over the sqld
// wire protocol. The schema is a single variants table indexed on
// (chromosome, position), rsid, gene and transcript.
type libsqlDriver struct {
	driverName string
	url        string
	db         *sql.DB
}

func newLibSQL(opts Options) *libsqlDriver {
	return &libsqlDriver{
		driverName: "libsql",
		url:        opts.LibSQLURL,
	}
}

func (l *libsqlDriver) Name() string {
	return l.driverName
}

func (l *libsqlDriver) Connect(ctx context.Context) error {
	if l.url == "" {
		return &ConnectionError{Database: l.driverName, Err: fmt.Errorf("VARBENCH_LIBSQL_URL is not set")}
	}
	db, err := sql.Open("libsql", l.url)
	if err != nil {
		return &ConnectionError{Database: l.driverName, Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return &ConnectionError{Database: l.driverName, Err: err}
	}
	l.db = db
	return nil
}

func (l *libsqlDriver) Disconnect() error {
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

func (l *libsqlDriver) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	return countRows(ctx, l.db, l.driverName, query, args...)
}

func (l *libsqlDriver) VariantByID(ctx context.Context, chromosome string, position int64, ref, alt string) (int, error) {
	return l.count(ctx,
		"SELECT id FROM variants WHERE chromosome = ? AND position = ? AND ref = ? AND alt = ?",
		chromosome, position, ref, alt)
}

func (l *libsqlDriver) VariantsByPosition(ctx context.Context, chromosome string, position int64) (int, error) {
	return l.count(ctx,
		"SELECT id FROM variants WHERE chromosome = ? AND position = ?",
		chromosome, position)
}

func (l *libsqlDriver) VariantByRSID(ctx context.Context, rsid string) (int, error) {
	return l.count(ctx, "SELECT id FROM variants WHERE rsid = ?", rsid)
}

func (l *libsqlDriver) VariantsInGene(ctx context.Context, gene string) (int, error) {
	return l.count(ctx, "SELECT id FROM variants WHERE gene = ?", gene)
}

func (l *libsqlDriver) VariantsInGeneLimited(ctx context.Context, gene string, limit int) (int, error) {
	return l.count(ctx, "SELECT id FROM variants WHERE gene = ? LIMIT ?", gene, limit)
}

func (l *libsqlDriver) VariantsInRange(ctx context.Context, chromosome string, start, end int64) (int, error) {
	return l.count(ctx,
		"SELECT id FROM variants WHERE chromosome = ? AND position BETWEEN ? AND ?",
		chromosome, start, end)
}

func (l *libsqlDriver) VariantsInTranscript(ctx context.Context, transcript string) (int, error) {
	return l.count(ctx, "SELECT id FROM variants WHERE transcript = ?", transcript)
}

func (l *libsqlDriver) CodingVariants(ctx context.Context, consequences []string, gene string) (int, error) {
	if len(consequences) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(consequences)), ",")
	query := "SELECT id FROM variants WHERE consequence IN (" + placeholders + ")"
	args := make([]interface{}, 0, len(consequences)+1)
	for _, csq := range consequences {
		args = append(args, csq)
	}
	if gene != "" {
		query += " AND gene = ?"
		args = append(args, gene)
	}
	return l.count(ctx, query, args...)
}

func (l *libsqlDriver) VariantsInGeneByQuality(ctx context.Context, gene string, minQuality float64) (int, error) {
	return l.count(ctx,
		"SELECT id FROM variants WHERE gene = ? AND quality > ? AND filter = 'PASS'",
		gene, minQuality)
}

func (l *libsqlDriver) RareVariantsInGene(ctx context.Context, gene string, maxAF float64) (int, error) {
	return l.count(ctx,
		"SELECT id FROM variants WHERE gene = ? AND af < ?",
		gene, maxAF)
}
