package drivers

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis"
	"github.com/go-redis/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withVariantKeyspace runs action against a connected redis driver backed by
// a miniredis seeded with a small chr22/BRCA1 dataset, laid out in the
// keyspace the driver queries.
func withVariantKeyspace(t *testing.T, action func(d Driver)) {
	db, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	seed := redis.NewClient(&redis.Options{Addr: db.Addr()})
	defer seed.Close()

	v1 := "variant:chr22:10736093:A:T"
	v2 := "variant:chr22:10736100:C:G"
	v3 := "variant:chr22:10739000:G:A"
	v4 := "variant:chr22:10750000:T:C"
	// v5 carries a coding consequence but belongs to another gene.
	v5 := "variant:chr17:41276045:G:A"

	require.NoError(t, seed.Set(v1, `rs1394819064`, 0).Err())
	require.NoError(t, seed.Set("rsid:rs1394819064", v1, 0).Err())
	require.NoError(t, seed.ZAdd("chrom:chr22",
		redis.Z{Score: 10736093, Member: v1},
		redis.Z{Score: 10736100, Member: v2},
		redis.Z{Score: 10739000, Member: v3},
		redis.Z{Score: 10750000, Member: v4}).Err())
	require.NoError(t, seed.SAdd("gene:BRCA1", v1, v2, v3, v4).Err())
	require.NoError(t, seed.SAdd("transcript:ENST00000615943", v1, v2, v3).Err())
	require.NoError(t, seed.SAdd("csq:missense_variant", v1, v2).Err())
	require.NoError(t, seed.SAdd("csq:stop_gained", v2, v3, v5).Err())
	require.NoError(t, seed.ZAdd("quality:BRCA1",
		redis.Z{Score: 45, Member: v1},
		redis.Z{Score: 30, Member: v2},
		redis.Z{Score: 12.5, Member: v3}).Err())
	require.NoError(t, seed.ZAdd("af:BRCA1",
		redis.Z{Score: 0.001, Member: v1},
		redis.Z{Score: 0.01, Member: v2},
		redis.Z{Score: 0.25, Member: v3}).Err())

	d, err := NewDriver("redis", Options{RedisAddr: db.Addr()})
	require.NoError(t, err)
	require.NoError(t, d.Connect(context.Background()))
	defer d.Disconnect()

	action(d)
}

func TestRedisVariantLookups(t *testing.T) {
	withVariantKeyspace(t, func(d Driver) {
		ctx := context.Background()

		count, err := d.VariantByID(ctx, "chr22", 10736093, "A", "T")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		count, err = d.VariantByID(ctx, "chr22", 1, "A", "T")
		require.NoError(t, err)
		assert.Equal(t, 0, count, "a miss is a zero count, not an error")

		count, err = d.VariantsByPosition(ctx, "chr22", 10736093)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		count, err = d.VariantsByPosition(ctx, "chr22", 99999)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		count, err = d.VariantByRSID(ctx, "rs1394819064")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		count, err = d.VariantByRSID(ctx, "rs0")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestRedisGeneAndTranscriptQueries(t *testing.T) {
	withVariantKeyspace(t, func(d Driver) {
		ctx := context.Background()

		count, err := d.VariantsInGene(ctx, "BRCA1")
		require.NoError(t, err)
		assert.Equal(t, 4, count)

		count, err = d.VariantsInGene(ctx, "TP53")
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		count, err = d.VariantsInGeneLimited(ctx, "BRCA1", 2)
		require.NoError(t, err)
		assert.Equal(t, 2, count, "limit caps the count")

		count, err = d.VariantsInGeneLimited(ctx, "BRCA1", 100)
		require.NoError(t, err)
		assert.Equal(t, 4, count)

		count, err = d.VariantsInTranscript(ctx, "ENST00000615943")
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		count, err = d.VariantsInTranscript(ctx, "ENST00000000000")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestRedisRangeQueries(t *testing.T) {
	withVariantKeyspace(t, func(d Driver) {
		ctx := context.Background()

		count, err := d.VariantsInRange(ctx, "chr22", 10736093, 10739993)
		require.NoError(t, err)
		assert.Equal(t, 3, count, "range bounds are inclusive")

		count, err = d.VariantsInRange(ctx, "chr22", 1, 2)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestRedisCodingVariants(t *testing.T) {
	withVariantKeyspace(t, func(d Driver) {
		ctx := context.Background()
		csqs := []string{"missense_variant", "stop_gained"}

		count, err := d.CodingVariants(ctx, csqs, "")
		require.NoError(t, err)
		assert.Equal(t, 4, count, "union counts overlapping variants once")

		count, err = d.CodingVariants(ctx, csqs, "BRCA1")
		require.NoError(t, err)
		assert.Equal(t, 3, count, "gene restriction drops variants outside the gene")
	})
}

func TestRedisScoredQueries(t *testing.T) {
	withVariantKeyspace(t, func(d Driver) {
		ctx := context.Background()

		count, err := d.VariantsInGeneByQuality(ctx, "BRCA1", 30)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "quality bound is exclusive")

		count, err = d.RareVariantsInGene(ctx, "BRCA1", 0.01)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "allele frequency bound is exclusive")
	})
}

func TestRedisConnectError(t *testing.T) {
	db, err := miniredis.Run()
	require.NoError(t, err)
	addr := db.Addr()
	db.Close()

	d, err := NewDriver("redis", Options{RedisAddr: addr})
	require.NoError(t, err)
	assert.Equal(t, "redis", d.Name())

	err = d.Connect(context.Background())
	require.Error(t, err)
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "redis", ce.Database)

	assert.NoError(t, d.Disconnect(), "disconnecting a never-connected driver is a no-op")
}
