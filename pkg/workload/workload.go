package workload

import (
	"context"
	"fmt"
	"strings"

	"github.com/bioperf/varbench/pkg/config"
	"github.com/bioperf/varbench/pkg/drivers"
)

// Invocation is one catalog query with its arguments already bound, ready to
// run against any database.
type Invocation func(ctx context.Context, d drivers.Driver) (int, error)

// Operation is one entry of the benchmark workload. Operations are built
// once and shared across databases so every database answers the exact same
// question.
type Operation struct {
	ID          string
	Description string
	Invoke      Invocation
}

type builder func(p config.Params) (Invocation, error)

// The query catalog. Each builder validates the arguments it needs and binds
// them into an Invocation, so an unknown id or a bad argument surfaces when
// the workload is built rather than mid-run. Q6, Q7 and Q8 share the range
// scan; they differ only in the window the workload hands them.
var catalog = map[string]builder{
	"Q1":  variantByID,
	"Q2":  variantsByPosition,
	"Q3":  variantByRSID,
	"Q4":  variantsInGene,
	"Q5":  variantsInGeneLimited,
	"Q6":  variantsInRange,
	"Q7":  variantsInRange,
	"Q8":  variantsInRange,
	"Q9":  variantsInTranscript,
	"Q10": codingVariants,
	"Q11": variantsInGeneByQuality,
	"Q12": rareVariantsInGene,
}

func variantByID(p config.Params) (Invocation, error) {
	if p.Chromosome == "" || p.Position < 1 || p.Ref == "" || p.Alt == "" {
		return nil, fmt.Errorf("requires chromosome, position, ref and alt")
	}
	return func(ctx context.Context, d drivers.Driver) (int, error) {
		return d.VariantByID(ctx, p.Chromosome, p.Position, p.Ref, p.Alt)
	}, nil
}

func variantsByPosition(p config.Params) (Invocation, error) {
	if p.Chromosome == "" || p.Position < 1 {
		return nil, fmt.Errorf("requires chromosome and position")
	}
	return func(ctx context.Context, d drivers.Driver) (int, error) {
		return d.VariantsByPosition(ctx, p.Chromosome, p.Position)
	}, nil
}

func variantByRSID(p config.Params) (Invocation, error) {
	if p.RSID == "" {
		return nil, fmt.Errorf("requires rsid")
	}
	return func(ctx context.Context, d drivers.Driver) (int, error) {
		return d.VariantByRSID(ctx, p.RSID)
	}, nil
}

func variantsInGene(p config.Params) (Invocation, error) {
	if p.Gene == "" {
		return nil, fmt.Errorf("requires gene")
	}
	return func(ctx context.Context, d drivers.Driver) (int, error) {
		return d.VariantsInGene(ctx, p.Gene)
	}, nil
}

func variantsInGeneLimited(p config.Params) (Invocation, error) {
	if p.Gene == "" {
		return nil, fmt.Errorf("requires gene")
	}
	limit := p.Limit
	if limit == 0 {
		limit = 100
	}
	if limit < 1 {
		return nil, fmt.Errorf("limit must be > 0")
	}
	return func(ctx context.Context, d drivers.Driver) (int, error) {
		return d.VariantsInGeneLimited(ctx, p.Gene, limit)
	}, nil
}

func variantsInRange(p config.Params) (Invocation, error) {
	if p.Chromosome == "" || p.Start < 1 || p.End < p.Start {
		return nil, fmt.Errorf("requires chromosome and a start..end window")
	}
	return func(ctx context.Context, d drivers.Driver) (int, error) {
		return d.VariantsInRange(ctx, p.Chromosome, p.Start, p.End)
	}, nil
}

func variantsInTranscript(p config.Params) (Invocation, error) {
	if p.Transcript == "" {
		return nil, fmt.Errorf("requires transcript")
	}
	return func(ctx context.Context, d drivers.Driver) (int, error) {
		return d.VariantsInTranscript(ctx, p.Transcript)
	}, nil
}

func codingVariants(p config.Params) (Invocation, error) {
	if len(p.Consequences) == 0 {
		return nil, fmt.Errorf("requires at least one consequence")
	}
	return func(ctx context.Context, d drivers.Driver) (int, error) {
		return d.CodingVariants(ctx, p.Consequences, p.Gene)
	}, nil
}

func variantsInGeneByQuality(p config.Params) (Invocation, error) {
	if p.Gene == "" {
		return nil, fmt.Errorf("requires gene")
	}
	if p.MinQuality < 0 {
		return nil, fmt.Errorf("minQuality must be >= 0")
	}
	return func(ctx context.Context, d drivers.Driver) (int, error) {
		return d.VariantsInGeneByQuality(ctx, p.Gene, p.MinQuality)
	}, nil
}

func rareVariantsInGene(p config.Params) (Invocation, error) {
	if p.Gene == "" {
		return nil, fmt.Errorf("requires gene")
	}
	maxAF := p.MaxAF
	if maxAF == 0 {
		maxAF = 0.01
	}
	if maxAF < 0 || maxAF > 1 {
		return nil, fmt.Errorf("maxAF must be within (0, 1]")
	}
	return func(ctx context.Context, d drivers.Driver) (int, error) {
		return d.RareVariantsInGene(ctx, p.Gene, maxAF)
	}, nil
}

// Build turns parsed query specs into executable operations, preserving the
// spec order. Bad specs are *config.ConfigurationError.
func Build(specs []config.QuerySpec) ([]Operation, error) {
	ops := make([]Operation, 0, len(specs))
	for _, spec := range specs {
		b, ok := catalog[spec.ID]
		if !ok {
			return nil, &config.ConfigurationError{Err: fmt.Errorf("unknown query id %q", spec.ID)}
		}
		invoke, err := b(spec.Params)
		if err != nil {
			return nil, &config.ConfigurationError{Err: fmt.Errorf("query %s: %v", spec.ID, err)}
		}
		ops = append(ops, Operation{ID: spec.ID, Description: spec.Description, Invoke: invoke})
	}
	return ops, nil
}

// The chr22 / BRCA1 query set used when no workload file is available.
var defaultSpecs = []config.QuerySpec{
	{ID: "Q1", Description: "Variant by ID (chr22:10736093 A>T)",
		Params: config.Params{Chromosome: "chr22", Position: 10736093, Ref: "A", Alt: "T"}},
	{ID: "Q2", Description: "Variants by Position (chr22:10736093)",
		Params: config.Params{Chromosome: "chr22", Position: 10736093}},
	{ID: "Q3", Description: "Variant by rsID (rs1394819064)",
		Params: config.Params{RSID: "rs1394819064"}},
	{ID: "Q4", Description: "All Variants in Gene (BRCA1)",
		Params: config.Params{Gene: "BRCA1"}},
	{ID: "Q5", Description: "Variants in Gene, first 100 (BRCA1)",
		Params: config.Params{Gene: "BRCA1", Limit: 100}},
	{ID: "Q6", Description: "Small Range Scan (chr22:10736093-10739993)",
		Params: config.Params{Chromosome: "chr22", Start: 10736093, End: 10739993}},
	{ID: "Q7", Description: "Medium Range Scan (chr22:10500000-10600000)",
		Params: config.Params{Chromosome: "chr22", Start: 10500000, End: 10600000}},
	{ID: "Q8", Description: "Large Range Scan (chr22:10500000-20500000)",
		Params: config.Params{Chromosome: "chr22", Start: 10500000, End: 20500000}},
	{ID: "Q9", Description: "Variants in Transcript (ENST00000615943)",
		Params: config.Params{Transcript: "ENST00000615943"}},
	{ID: "Q10", Description: "Coding Variants by Consequence",
		Params: config.Params{Consequences: []string{"missense_variant", "frameshift_variant", "stop_gained"}}},
	{ID: "Q11", Description: "Gene Variants with Quality > 30 (BRCA1)",
		Params: config.Params{Gene: "BRCA1", MinQuality: 30.0}},
	{ID: "Q12", Description: "Rare Variants, AF < 0.01 (BRCA1)",
		Params: config.Params{Gene: "BRCA1", MaxAF: 0.01}},
}

// Default returns the built-in workload. The specs are compile-time
// constants, so a build failure here is a programming error.
func Default() []Operation {
	ops, err := Build(defaultSpecs)
	if err != nil {
		panic(err)
	}
	return ops
}

// Filter restricts ops to the named queries, preserving catalog order.
// Names that match nothing are dropped silently.
func Filter(ops []Operation, names []string) []Operation {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.TrimSpace(n)] = true
	}
	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if want[op.ID] {
			out = append(out, op)
		}
	}
	return out
}
