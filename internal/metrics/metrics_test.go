package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordEngineCall(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordEngineCall(10*time.Millisecond, nil)
	m.RecordEngineCall(30*time.Millisecond, errors.New("boom"))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.EngineCallsTotal)
	assert.Equal(t, int64(1), snap.EngineErrorsTotal)
	assert.InDelta(t, 20.0, m.EngineLatencyAvgMs(), 0.01)
}

func TestEngineLatencyAvgMsEmpty(t *testing.T) {
	t.Parallel()
	assert.Zero(t, New().EngineLatencyAvgMs())
}

func TestRecordLoadOp(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordLoadOp(nil)
	m.RecordLoadOp(errors.New("boom"))
	m.RecordSwitch()
	m.RecordQuarantine()

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.LoadOpsTotal)
	assert.Equal(t, int64(1), snap.LoadOpsErrors)
	assert.Equal(t, int64(1), snap.SwitchOpsTotal)
	assert.Equal(t, int64(1), snap.Quarantines)
}

func TestCacheCounters(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheMiss()

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.CacheHits)
	assert.Equal(t, int64(1), snap.CacheMisses)
}
