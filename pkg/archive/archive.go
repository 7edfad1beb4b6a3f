package archive

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/bioperf/varbench/pkg/logging"
	"github.com/bioperf/varbench/pkg/metrics"
	result "github.com/bioperf/varbench/pkg/results"
	"github.com/bioperf/varbench/pkg/sample"
	"github.com/cloud-bulldozer/go-commons/indexers"
)

// Doc struct of the JSON document to be indexed, one per (database, query)
// pair. StdDevMs is omitted when fewer than two samples were collected.
type Doc struct {
	UUID       string           `json:"uuid"`
	Timestamp  time.Time        `json:"timestamp"`
	Database   string           `json:"database"`
	QueryType  string           `json:"queryType"`
	Samples    int              `json:"samples"`
	MeanMs     float64          `json:"meanMs"`
	MedianMs   float64          `json:"medianMs"`
	MinMs      float64          `json:"minMs"`
	MaxMs      float64          `json:"maxMs"`
	StdDevMs   *float64         `json:"stddevMs,omitempty"`
	P95Ms      float64          `json:"p95Ms"`
	P99Ms      float64          `json:"p99Ms"`
	AvgRows    float64          `json:"avgRows"`
	CacheState string           `json:"cacheState"`
	Confidence []float64        `json:"confidence"`
	Metadata   metrics.HostInfo `json:"metadata"`
}

// Connect returns a client connected to the desired cluster.
func Connect(url, index string, skip bool) (*indexers.Indexer, error) {
	var err error
	var indexer *indexers.Indexer
	indexerConfig := indexers.IndexerConfig{
		Type:               "opensearch",
		Servers:            []string{url},
		Index:              index,
		InsecureSkipVerify: skip,
	}
	logging.Infof("📁 Creating indexer: %s", indexerConfig.Type)
	indexer, err = indexers.NewIndexer(indexerConfig)
	if err != nil {
		logging.Errorf("%v indexer: %v", indexerConfig.Type, err.Error())
		return nil, fmt.Errorf("failure while connnecting to Opensearch")
	}
	logging.Infof("Connected to : %s ", url)
	return indexer, nil
}

// BuildDocs returns the documents that need to be indexed or an error.
func BuildDocs(samples []sample.Sample, uuid string, meta metrics.HostInfo) ([]interface{}, error) {
	time := time.Now().UTC()

	var docs []interface{}
	if len(samples) < 1 {
		return nil, fmt.Errorf("no result documents")
	}
	rows := make(map[string][]float64)
	states := make(map[string]string)
	for _, s := range samples {
		k := s.Database + "/" + s.QueryType
		rows[k] = append(rows[k], float64(s.RowsReturned))
		states[k] = s.CacheState
	}
	for _, s := range result.BuildSummaries(samples) {
		k := s.Database + "/" + s.QueryType
		var lo, hi float64
		if s.Count > 1 {
			lo, hi = s.CILow, s.CIHigh
		}
		d := Doc{
			UUID:       uuid,
			Timestamp:  time,
			Database:   s.Database,
			QueryType:  s.QueryType,
			Samples:    s.Count,
			MeanMs:     s.Mean,
			MedianMs:   s.Median,
			MinMs:      s.Min,
			MaxMs:      s.Max,
			P95Ms:      s.P95,
			P99Ms:      s.P99,
			CacheState: states[k],
			Confidence: []float64{lo, hi},
			Metadata:   meta,
		}
		if s.HasStdDev {
			sd := s.StdDev
			d.StdDevMs = &sd
		}
		AvgRows, e := result.Average(rows[k])
		if e != nil {
			logging.Warn("Unable to process row counts, setting value to zero")
			d.AvgRows = 0
		} else {
			d.AvgRows = AvgRows
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// Csv header fields. The order is a contract with downstream tooling and
// never changes.
func csvHeaderFields() []string {
	return []string{
		"database",
		"query_type",
		"response_time_ms",
		"rows_returned",
		"cache_state",
		"timestamp",
	}
}

// Csv data fields for one sample.
func csvDataFields(s sample.Sample) []string {
	return []string{
		s.Database,
		s.QueryType,
		strconv.FormatFloat(s.ResponseTimeMs, 'f', -1, 64),
		strconv.Itoa(s.RowsReturned),
		s.CacheState,
		s.Timestamp.Format(time.RFC3339Nano),
	}
}

// WriteJSONResult sends the result documents as JSON to stdout
func WriteJSONResult(samples []sample.Sample, uuid string, meta metrics.HostInfo) error {
	docs, err := BuildDocs(samples, uuid, meta)
	if err != nil {
		return err
	}
	p, err := json.MarshalIndent(docs, " ", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(p))
	return nil
}

// WriteCSVResult will write every sample to the local filesystem, one row
// per sample in capture order. An empty run writes nothing and is not an
// error.
func WriteCSVResult(fn string, samples []sample.Sample) error {
	if len(samples) < 1 {
		logging.Warn("😥 No samples to archive")
		return nil
	}
	fp, err := os.Create(fn)
	if err != nil {
		return fmt.Errorf("failed to open archive file")
	}
	defer fp.Close()
	archive := csv.NewWriter(fp)

	if err := archive.Write(csvHeaderFields()); err != nil {
		return fmt.Errorf("failed to write result archive to file")
	}
	for _, s := range samples {
		if err := archive.Write(csvDataFields(s)); err != nil {
			return fmt.Errorf("failed to write archive to file")
		}
	}
	archive.Flush()
	return archive.Error()
}
