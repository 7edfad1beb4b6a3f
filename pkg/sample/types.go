package sample

import "time"

// CacheWarm tags measured iterations. Measurement always happens after the
// warmup phase has primed whatever caches the database keeps.
const CacheWarm = "warm"

// Sample describes the values we capture for each successful query execution.
// A failed execution never produces a Sample.
type Sample struct {
	Database       string
	QueryType      string
	ResponseTimeMs float64
	RowsReturned   int
	CacheState     string
	Timestamp      time.Time
}
