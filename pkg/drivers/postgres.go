package drivers

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/lib/pq"
)

var (
	// Tables
	variantsTable = goqu.T("variants")

	// Columns: variants table
	variant_id         = goqu.I("variants.id")
	variant_chromosome = goqu.I("variants.chromosome")
	variant_position   = goqu.I("variants.position")
	variant_ref        = goqu.I("variants.ref")
	variant_alt        = goqu.I("variants.alt")
	variant_rsid       = goqu.I("variants.rsid")
	variant_gene       = goqu.I("variants.gene")
	variant_transcript = goqu.I("variants.transcript")
	variant_csq        = goqu.I("variants.consequence")
	variant_quality    = goqu.I("variants.quality")
	variant_filter     = goqu.I("variants.filter")
	variant_af         = goqu.I("variants.af")
)

// postgresDriver benchmarks a PostgreSQL variants database through lib/pq.
type postgresDriver struct {
	driverName string
	dsn        string
	db         *sql.DB
	goquDb     *goqu.Database
}

func newPostgres(opts Options) *postgresDriver {
	return &postgresDriver{
		driverName: "postgres",
		dsn:        opts.PostgresDSN,
	}
}

func (p *postgresDriver) Name() string {
	return p.driverName
}

func (p *postgresDriver) Connect(ctx context.Context) error {
	if p.dsn == "" {
		return &ConnectionError{Database: p.driverName, Err: fmt.Errorf("VARBENCH_POSTGRES_DSN is not set")}
	}
	db, err := sql.Open("postgres", p.dsn)
	if err != nil {
		return &ConnectionError{Database: p.driverName, Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return &ConnectionError{Database: p.driverName, Err: err}
	}
	p.db = db
	p.goquDb = goqu.New("postgres", db)
	return nil
}

func (p *postgresDriver) Disconnect() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	p.goquDb = nil
	return err
}

func (p *postgresDriver) count(ctx context.Context, ds *goqu.SelectDataset) (int, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return 0, &QueryError{Database: p.driverName, Err: err}
	}
	return countRows(ctx, p.db, p.driverName, query, args...)
}

func (p *postgresDriver) selectVariants() *goqu.SelectDataset {
	return p.goquDb.From(variantsTable).Select(variant_id)
}

func (p *postgresDriver) VariantByID(ctx context.Context, chromosome string, position int64, ref, alt string) (int, error) {
	return p.count(ctx, p.selectVariants().Where(
		variant_chromosome.Eq(chromosome),
		variant_position.Eq(position),
		variant_ref.Eq(ref),
		variant_alt.Eq(alt)))
}

func (p *postgresDriver) VariantsByPosition(ctx context.Context, chromosome string, position int64) (int, error) {
	return p.count(ctx, p.selectVariants().Where(
		variant_chromosome.Eq(chromosome),
		variant_position.Eq(position)))
}

func (p *postgresDriver) VariantByRSID(ctx context.Context, rsid string) (int, error) {
	return p.count(ctx, p.selectVariants().Where(variant_rsid.Eq(rsid)))
}

func (p *postgresDriver) VariantsInGene(ctx context.Context, gene string) (int, error) {
	return p.count(ctx, p.selectVariants().Where(variant_gene.Eq(gene)))
}

func (p *postgresDriver) VariantsInGeneLimited(ctx context.Context, gene string, limit int) (int, error) {
	return p.count(ctx, p.selectVariants().Where(variant_gene.Eq(gene)).Limit(uint(limit)))
}

func (p *postgresDriver) VariantsInRange(ctx context.Context, chromosome string, start, end int64) (int, error) {
	return p.count(ctx, p.selectVariants().Where(
		variant_chromosome.Eq(chromosome),
		variant_position.Between(goqu.Range(start, end))))
}

func (p *postgresDriver) VariantsInTranscript(ctx context.Context, transcript string) (int, error) {
	return p.count(ctx, p.selectVariants().Where(variant_transcript.Eq(transcript)))
}

func (p *postgresDriver) CodingVariants(ctx context.Context, consequences []string, gene string) (int, error) {
	if len(consequences) == 0 {
		return 0, nil
	}
	ds := p.selectVariants().Where(variant_csq.In(consequences))
	if gene != "" {
		ds = ds.Where(variant_gene.Eq(gene))
	}
	return p.count(ctx, ds)
}

func (p *postgresDriver) VariantsInGeneByQuality(ctx context.Context, gene string, minQuality float64) (int, error) {
	return p.count(ctx, p.selectVariants().Where(
		variant_gene.Eq(gene),
		variant_quality.Gt(minQuality),
		variant_filter.Eq("PASS")))
}

func (p *postgresDriver) RareVariantsInGene(ctx context.Context, gene string, maxAF float64) (int, error) {
	return p.count(ctx, p.selectVariants().Where(
		variant_gene.Eq(gene),
		variant_af.Lt(maxAF)))
}
