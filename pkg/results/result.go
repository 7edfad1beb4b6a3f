package result

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	math "github.com/aclements/go-moremath/stats"
	"github.com/bioperf/varbench/pkg/logging"
	"github.com/bioperf/varbench/pkg/sample"
	stats "github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Specify Language specific case wrapper as global variable
var caser = cases.Title(language.English)

// Summary holds the descriptive statistics of one (database, query) pair.
// StdDev is a sample standard deviation and needs at least two samples;
// HasStdDev says whether it carries a value. CILow/CIHigh bound the mean at
// 95% confidence and are only meaningful when Count > 1.
type Summary struct {
	Database  string
	QueryType string
	Count     int
	Mean      float64
	Median    float64
	Min       float64
	Max       float64
	StdDev    float64
	HasStdDev bool
	P95       float64
	P99       float64
	CILow     float64
	CIHigh    float64
	NoData    bool
}

// Average accepts array of floats to calculate average
func Average(vals []float64) (float64, error) {
	return stats.Mean(vals)
}

// Confidence accepts array of floats to calculate average
func confidenceInterval(vals []float64, ci float64) (float64, float64, float64) {
	return math.MeanCI(vals, ci)
}

// nearestRank picks the sorted value at index floor(count*q), clamped to the
// ends. No interpolation: exports are compared across runs and tools, so the
// indexing rule has to stay put.
func nearestRank(sorted []float64, q float64) float64 {
	idx := int(float64(len(sorted)) * q)
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

// Summarize reduces the samples of one (database, query) pair. Zero samples
// yield a Summary flagged NoData; one sample is summarized without a
// standard deviation.
func Summarize(samples []sample.Sample) Summary {
	s := Summary{Count: len(samples)}
	if len(samples) == 0 {
		s.NoData = true
		return s
	}
	s.Database = samples[0].Database
	s.QueryType = samples[0].QueryType
	times := make([]float64, len(samples))
	for i, smp := range samples {
		times[i] = smp.ResponseTimeMs
	}
	s.Mean, _ = Average(times)
	s.Median, _ = stats.Median(times)
	s.Min, _ = stats.Min(times)
	s.Max, _ = stats.Max(times)
	if len(times) > 1 {
		s.StdDev, _ = stats.StandardDeviationSample(times)
		s.HasStdDev = true
		_, s.CILow, s.CIHigh = confidenceInterval(times, 0.95)
	}
	sorted := append([]float64(nil), times...)
	sort.Float64s(sorted)
	s.P95 = nearestRank(sorted, 0.95)
	s.P99 = nearestRank(sorted, 0.99)
	return s
}

// BuildSummaries reduces a whole run into one Summary per (database, query)
// pair, in first-appearance order.
func BuildSummaries(samples []sample.Sample) []Summary {
	type pair struct {
		db    string
		query string
	}
	var order []pair
	groups := make(map[pair][]sample.Sample)
	for _, s := range samples {
		k := pair{s.Database, s.QueryType}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], s)
	}
	summaries := make([]Summary, 0, len(order))
	for _, k := range order {
		summaries = append(summaries, Summarize(groups[k]))
	}
	return summaries
}

// Method to init common table structure.
func initTable(header []string) *tablewriter.Table {
	// Create a new table writer with the appropriate header and alignment options
	table := tablewriter.NewWriter(os.Stdout)
	// Add a header to the table
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	return table
}

func fmtMs(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func fmtStdDev(s Summary) string {
	if !s.HasStdDev {
		return "N/A"
	}
	return fmtMs(s.StdDev)
}

// ShowQueryResult presents one finished (database, query) pair to the user
// via stdout while the run progresses.
func ShowQueryResult(s Summary) {
	if s.NoData {
		logging.Warnf("😥 No successful runs for %s - %s", s.Database, s.QueryType)
		return
	}
	table := initTable([]string{"Database", "Query", "Samples", "Mean (ms)", "Median (ms)", "Min (ms)", "Max (ms)", "Std Dev (ms)", "P95 (ms)", "P99 (ms)"})
	table.Append([]string{caser.String(s.Database), s.QueryType, strconv.Itoa(s.Count), fmtMs(s.Mean), fmtMs(s.Median), fmtMs(s.Min), fmtMs(s.Max), fmtStdDev(s), fmtMs(s.P95), fmtMs(s.P99)})
	table.Render()
}

// ShowLatencyResult presents the whole run to the user via stdout, one row
// per (database, query) pair with a 95% confidence interval on the mean.
func ShowLatencyResult(samples []sample.Sample) {
	summaries := BuildSummaries(samples)
	if len(summaries) == 0 {
		logging.Warn("😥 No samples were collected")
		return
	}
	logging.Debug("Rendering latency results")
	table := initTable([]string{"Result Type", "Database", "Query", "Samples", "Mean (ms)", "Median (ms)", "Min (ms)", "Max (ms)", "Std Dev (ms)", "P95 (ms)", "P99 (ms)", "95% Confidence Interval"})
	for _, s := range summaries {
		ci := "N/A"
		if s.Count > 1 {
			ci = fmt.Sprintf("%f-%f (ms)", s.CILow, s.CIHigh)
		}
		table.Append([]string{"📊 Latency Results", caser.String(s.Database), s.QueryType, strconv.Itoa(s.Count), fmtMs(s.Mean), fmtMs(s.Median), fmtMs(s.Min), fmtMs(s.Max), fmtStdDev(s), fmtMs(s.P95), fmtMs(s.P99), ci})
	}
	table.Render()
}
