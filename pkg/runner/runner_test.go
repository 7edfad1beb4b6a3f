package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bioperf/varbench/pkg/drivers"
	"github.com/bioperf/varbench/pkg/logging"
	result "github.com/bioperf/varbench/pkg/results"
	"github.com/bioperf/varbench/pkg/sample"
	"github.com/bioperf/varbench/pkg/workload"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDriver satisfies drivers.Driver through the embedded interface. Tests
// exercise the lifecycle methods; the query methods stay behind operation
// closures that never touch them.
type fakeDriver struct {
	drivers.Driver
	name        string
	connectErr  error
	connects    int
	disconnects int
}

func (f *fakeDriver) Name() string { return f.name }

func (f *fakeDriver) Connect(ctx context.Context) error {
	f.connects++
	return f.connectErr
}

func (f *fakeDriver) Disconnect() error {
	f.disconnects++
	return nil
}

// countingOp returns an Operation whose invocation bumps calls and fails
// whenever shouldFail says so for the current call number.
func countingOp(id string, calls *int, shouldFail func(call int) bool) workload.Operation {
	return workload.Operation{
		ID:          id,
		Description: id,
		Invoke: func(ctx context.Context, d drivers.Driver) (int, error) {
			*calls++
			if shouldFail != nil && shouldFail(*calls) {
				return 0, fmt.Errorf("boom on call %d", *calls)
			}
			return 7, nil
		},
	}
}

func quiet(r *Runner) *Runner {
	r.Report = nil
	return r
}

func TestMeasure(t *testing.T) {
	elapsed, rows, err := Measure(func() (int, error) {
		time.Sleep(5 * time.Millisecond)
		return 11, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 11, rows)
	assert.GreaterOrEqual(t, elapsed, 5.0)
}

func TestMeasureError(t *testing.T) {
	boom := errors.New("boom")
	_, _, err := Measure(func() (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunCollectsSamples(t *testing.T) {
	d := &fakeDriver{name: "fake"}
	calls := 0
	op := countingOp("Q1", &calls, nil)

	samples := quiet(New(5, 2)).Run(context.Background(), []drivers.Driver{d}, []workload.Operation{op})

	assert.Equal(t, 7, calls, "5 measured plus 2 warmup invocations")
	require.Len(t, samples, 5)
	for _, s := range samples {
		assert.Equal(t, "fake", s.Database)
		assert.Equal(t, "Q1", s.QueryType)
		assert.Equal(t, 7, s.RowsReturned)
		assert.Equal(t, sample.CacheWarm, s.CacheState)
		assert.GreaterOrEqual(t, s.ResponseTimeMs, 0.0)
		assert.False(t, s.Timestamp.IsZero())
	}
	assert.Equal(t, 1, d.connects)
	assert.Equal(t, 1, d.disconnects)
}

func TestRunToleratesFailedIterations(t *testing.T) {
	hook := test.NewLocal(logging.Logger())
	defer hook.Reset()

	d := &fakeDriver{name: "fake"}
	calls := 0
	// Warmup is 2, so call 4 is measured iteration 2.
	op := countingOp("Q3", &calls, func(call int) bool { return call == 4 })

	samples := quiet(New(5, 2)).Run(context.Background(), []drivers.Driver{d}, []workload.Operation{op})

	require.Len(t, samples, 4, "the failed iteration contributes no sample")

	found := false
	for _, e := range hook.AllEntries() {
		if strings.Contains(e.Message, "Error in fake - Q3 iteration 2/5") {
			found = true
		}
	}
	assert.True(t, found, "failure report should name database, query and iteration")
}

func TestRunWarmupFailuresAreInvisible(t *testing.T) {
	d := &fakeDriver{name: "fake"}
	calls := 0
	op := countingOp("Q2", &calls, func(call int) bool { return call <= 2 })

	samples := quiet(New(3, 2)).Run(context.Background(), []drivers.Driver{d}, []workload.Operation{op})

	require.Len(t, samples, 3, "warmup failures must not cost measured samples")
}

func TestRunSkipsUnreachableDatabase(t *testing.T) {
	down := &fakeDriver{name: "down", connectErr: &drivers.ConnectionError{Database: "down", Err: errors.New("refused")}}
	up := &fakeDriver{name: "up"}
	calls := 0
	op := countingOp("Q1", &calls, nil)

	samples := quiet(New(2, 0)).Run(context.Background(), []drivers.Driver{down, up}, []workload.Operation{op})

	require.Len(t, samples, 2)
	for _, s := range samples {
		assert.Equal(t, "up", s.Database)
	}
	assert.Equal(t, 0, down.disconnects, "skipped database is never disconnected")
	assert.Equal(t, 1, up.disconnects)
}

func TestRunSequentialOrder(t *testing.T) {
	d := &fakeDriver{name: "fake"}
	var order []string
	mkOp := func(id string) workload.Operation {
		return workload.Operation{
			ID: id,
			Invoke: func(ctx context.Context, dr drivers.Driver) (int, error) {
				order = append(order, id)
				return 0, nil
			},
		}
	}

	quiet(New(2, 1)).Run(context.Background(), []drivers.Driver{d}, []workload.Operation{mkOp("Q1"), mkOp("Q2")})

	require.Len(t, order, 6)
	assert.Equal(t, []string{"Q1", "Q1", "Q1", "Q2", "Q2", "Q2"}, order,
		"operations run one after another, never interleaved")
}

func TestRunReportsEachPair(t *testing.T) {
	d := &fakeDriver{name: "fake"}
	calls := 0
	good := countingOp("Q1", &calls, nil)
	failing := 0
	bad := countingOp("Q2", &failing, func(int) bool { return true })

	var reported []result.Summary
	r := New(3, 0)
	r.Report = func(s result.Summary) { reported = append(reported, s) }
	r.Run(context.Background(), []drivers.Driver{d}, []workload.Operation{good, bad})

	require.Len(t, reported, 2)
	assert.Equal(t, "Q1", reported[0].QueryType)
	assert.Equal(t, 3, reported[0].Count)
	assert.False(t, reported[0].NoData)

	assert.Equal(t, "Q2", reported[1].QueryType)
	assert.Equal(t, "fake", reported[1].Database, "a no-data summary still names its pair")
	assert.True(t, reported[1].NoData)
}
