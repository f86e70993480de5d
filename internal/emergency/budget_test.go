package emergency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestCallLimitIsSticky(t *testing.T) {
	b := New(Limits{MaxCalls: 3}, WithMemoryProbe(nil))

	for i := 0; i < 3; i++ {
		assert.True(t, b.CheckAndConsume(), "call %d", i+1)
	}
	assert.False(t, b.CheckAndConsume())
	assert.Equal(t, ReasonCalls, b.Reason())

	for i := 0; i < 10; i++ {
		assert.False(t, b.CheckAndConsume())
		assert.True(t, b.Exhausted())
	}
	assert.Equal(t, 4, b.Calls())
}

func TestRuntimeLimit(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	b := New(Limits{MaxRuntime: time.Second}, WithClock(clock.Now), WithMemoryProbe(nil))

	assert.True(t, b.CheckAndConsume())
	clock.Advance(2 * time.Second)
	assert.True(t, b.Exhausted())
	assert.Equal(t, ReasonRuntime, b.Reason())

	// Going back in time does not reset the budget.
	clock.t = time.Unix(0, 0)
	assert.False(t, b.CheckAndConsume())
}

func TestMemoryHeadroom(t *testing.T) {
	used := uint64(10)
	probe := func() (uint64, uint64) { return used, 100 }
	b := New(Limits{MinHeadroom: 20}, WithMemoryProbe(probe))

	assert.False(t, b.Exhausted())
	used = 85
	assert.True(t, b.Exhausted())
	assert.Equal(t, ReasonMemory, b.Reason())
	used = 0
	assert.True(t, b.Exhausted())
}

func TestConfiguredMemoryLimitWhenRuntimeHasNone(t *testing.T) {
	probe := func() (uint64, uint64) { return 50, 0 }
	b := New(Limits{MinHeadroom: 20, MemoryLimit: 60}, WithMemoryProbe(probe))
	assert.True(t, b.Exhausted())

	unlimited := New(Limits{MinHeadroom: 20}, WithMemoryProbe(probe))
	assert.False(t, unlimited.Exhausted())
}

func TestClaimNoticeOnce(t *testing.T) {
	b := New(Limits{MaxCalls: 1}, WithMemoryProbe(nil))
	assert.False(t, b.ClaimNotice())

	b.CheckAndConsume()
	b.CheckAndConsume()
	assert.True(t, b.ClaimNotice())
	assert.False(t, b.ClaimNotice())
}

func TestDepthExceeded(t *testing.T) {
	b := New(Limits{MaxDepth: 2})
	assert.False(t, b.DepthExceeded(2))
	assert.True(t, b.DepthExceeded(3))
	assert.False(t, New(Limits{}).DepthExceeded(1000))
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "emergencyCalls", ReasonCalls.String())
	assert.Empty(t, ReasonNone.String())
}

func TestRuntimeMemory(t *testing.T) {
	used, _ := RuntimeMemory()
	assert.NotZero(t, used)
}
