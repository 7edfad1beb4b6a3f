package drivers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis"
)

// Redis keyspace for the variant dataset. Loaders and queries have to agree
// on these shapes.
//
//	variant:{chr}:{pos}:{ref}:{alt}  string, the variant record
//	rsid:{rsid}                      string, points at a variant key
//	chrom:{chr}                      zset, member variant key scored by position
//	gene:{gene}                      set of variant keys
//	transcript:{tx}                  set of variant keys
//	csq:{consequence}                set of variant keys
//	quality:{gene}                   zset, member variant key scored by call quality, PASS calls only
//	af:{gene}                        zset, member variant key scored by allele frequency
const (
	variantKeyPrefix    = "variant:"
	rsidKeyPrefix       = "rsid:"
	chromKeyPrefix      = "chrom:"
	geneKeyPrefix       = "gene:"
	transcriptKeyPrefix = "transcript:"
	csqKeyPrefix        = "csq:"
	qualityKeyPrefix    = "quality:"
	afKeyPrefix         = "af:"
)

func variantKey(chromosome string, position int64, ref, alt string) string {
	return fmt.Sprintf("%s%s:%d:%s:%s", variantKeyPrefix, chromosome, position, ref, alt)
}

func zscore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type redisDriver struct {
	driverName string
	addr       string
	password   string
	client     *redis.Client
}

func newRedis(opts Options) *redisDriver {
	addr := opts.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	return &redisDriver{
		driverName: "redis",
		addr:       addr,
		password:   opts.RedisPassword,
	}
}

func (r *redisDriver) Name() string {
	return r.driverName
}

// The v6 client API carries no context; the parameter is kept for interface
// symmetry with the SQL drivers.
func (r *redisDriver) Connect(_ context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     r.addr,
		Password: r.password,
	})
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return &ConnectionError{Database: r.driverName, Err: err}
	}
	r.client = client
	return nil
}

func (r *redisDriver) Disconnect() error {
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}

func (r *redisDriver) wrap(err error) error {
	if err == nil {
		return nil
	}
	return &QueryError{Database: r.driverName, Err: err}
}

func (r *redisDriver) VariantByID(_ context.Context, chromosome string, position int64, ref, alt string) (int, error) {
	n, err := r.client.Exists(variantKey(chromosome, position, ref, alt)).Result()
	return int(n), r.wrap(err)
}

func (r *redisDriver) VariantsByPosition(_ context.Context, chromosome string, position int64) (int, error) {
	pos := strconv.FormatInt(position, 10)
	n, err := r.client.ZCount(chromKeyPrefix+chromosome, pos, pos).Result()
	return int(n), r.wrap(err)
}

func (r *redisDriver) VariantByRSID(_ context.Context, rsid string) (int, error) {
	n, err := r.client.Exists(rsidKeyPrefix + rsid).Result()
	return int(n), r.wrap(err)
}

func (r *redisDriver) VariantsInGene(_ context.Context, gene string) (int, error) {
	n, err := r.client.SCard(geneKeyPrefix + gene).Result()
	return int(n), r.wrap(err)
}

func (r *redisDriver) VariantsInGeneLimited(_ context.Context, gene string, limit int) (int, error) {
	n, err := r.client.SCard(geneKeyPrefix + gene).Result()
	if err != nil {
		return 0, r.wrap(err)
	}
	if n > int64(limit) {
		n = int64(limit)
	}
	return int(n), nil
}

func (r *redisDriver) VariantsInRange(_ context.Context, chromosome string, start, end int64) (int, error) {
	n, err := r.client.ZCount(chromKeyPrefix+chromosome,
		strconv.FormatInt(start, 10), strconv.FormatInt(end, 10)).Result()
	return int(n), r.wrap(err)
}

func (r *redisDriver) VariantsInTranscript(_ context.Context, transcript string) (int, error) {
	n, err := r.client.SCard(transcriptKeyPrefix + transcript).Result()
	return int(n), r.wrap(err)
}

func (r *redisDriver) CodingVariants(_ context.Context, consequences []string, gene string) (int, error) {
	keys := make([]string, len(consequences))
	for i, csq := range consequences {
		keys[i] = csqKeyPrefix + csq
	}
	if gene == "" {
		members, err := r.client.SUnion(keys...).Result()
		return len(members), r.wrap(err)
	}
	matched := make(map[string]struct{})
	for _, key := range keys {
		members, err := r.client.SInter(geneKeyPrefix+gene, key).Result()
		if err != nil {
			return 0, r.wrap(err)
		}
		for _, m := range members {
			matched[m] = struct{}{}
		}
	}
	return len(matched), nil
}

func (r *redisDriver) VariantsInGeneByQuality(_ context.Context, gene string, minQuality float64) (int, error) {
	n, err := r.client.ZCount(qualityKeyPrefix+gene, "("+zscore(minQuality), "+inf").Result()
	return int(n), r.wrap(err)
}

func (r *redisDriver) RareVariantsInGene(_ context.Context, gene string, maxAF float64) (int, error) {
	n, err := r.client.ZCount(afKeyPrefix+gene, "-inf", "("+zscore(maxAF)).Result()
	return int(n), r.wrap(err)
}
