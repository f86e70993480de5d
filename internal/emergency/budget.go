// Package emergency bounds the work a single dump may do. Once a limit is
// crossed the budget stays exhausted for the rest of the dump.
package emergency

import (
	"math"
	"runtime/debug"
	"runtime/metrics"
	"time"
)

// Reason explains why the budget ran out.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonRuntime
	ReasonMemory
	ReasonCalls
)

// String returns the catalog key of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonRuntime:
		return "emergencyTimer"
	case ReasonMemory:
		return "emergencyMemory"
	case ReasonCalls:
		return "emergencyCalls"
	}
	return ""
}

// Limits configure a Budget. Zero disables the respective check.
type Limits struct {
	MaxRuntime  time.Duration
	MaxCalls    int
	MaxDepth    int
	MinHeadroom uint64
	// MemoryLimit is used when the runtime has no soft memory limit set.
	MemoryLimit uint64
}

// MemoryProbe reports current usage and the effective limit in bytes.
// A zero limit means unknown.
type MemoryProbe func() (used, limit uint64)

// Option customises a Budget.
type Option func(*Budget)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Budget) { b.now = now }
}

// WithMemoryProbe replaces the runtime/metrics probe.
func WithMemoryProbe(p MemoryProbe) Option {
	return func(b *Budget) { b.memory = p }
}

// Budget is the per-dump resource guard. It is not safe for concurrent use.
type Budget struct {
	limits  Limits
	now     func() time.Time
	memory  MemoryProbe
	start   time.Time
	calls   int
	reason  Reason
	noticed bool
}

// New starts a budget; the runtime clock starts now.
func New(limits Limits, opts ...Option) *Budget {
	b := &Budget{
		limits: limits,
		now:    time.Now,
		memory: RuntimeMemory,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.start = b.now()
	return b
}

// CheckAndConsume counts one unit of work and reports whether the caller may
// go on. After the first false every later call returns false as well.
func (b *Budget) CheckAndConsume() bool {
	if b.reason != ReasonNone {
		return false
	}
	b.calls++
	if b.limits.MaxCalls > 0 && b.calls > b.limits.MaxCalls {
		b.reason = ReasonCalls
		return false
	}
	return !b.Exhausted()
}

// Exhausted checks time and memory without consuming a call.
func (b *Budget) Exhausted() bool {
	if b.reason != ReasonNone {
		return true
	}
	if b.limits.MaxRuntime > 0 && b.Elapsed() > b.limits.MaxRuntime {
		b.reason = ReasonRuntime
		return true
	}
	if b.limits.MinHeadroom > 0 && b.memory != nil {
		used, limit := b.memory()
		if b.limits.MemoryLimit > 0 && (limit == 0 || b.limits.MemoryLimit < limit) {
			limit = b.limits.MemoryLimit
		}
		if limit > 0 && (used >= limit || limit-used < b.limits.MinHeadroom) {
			b.reason = ReasonMemory
			return true
		}
	}
	return false
}

// DepthExceeded reports whether level lies beyond the configured nesting.
func (b *Budget) DepthExceeded(level int) bool {
	return b.limits.MaxDepth > 0 && level > b.limits.MaxDepth
}

// ClaimNotice returns true exactly once after the budget ran out, so the
// truncation notice is rendered a single time.
func (b *Budget) ClaimNotice() bool {
	if b.reason == ReasonNone || b.noticed {
		return false
	}
	b.noticed = true
	return true
}

// Reason returns why the budget is exhausted, ReasonNone while it is not.
func (b *Budget) Reason() Reason {
	return b.reason
}

// Calls returns the number of consumed calls.
func (b *Budget) Calls() int {
	return b.calls
}

// Elapsed returns the time since the budget was created.
func (b *Budget) Elapsed() time.Duration {
	return b.now().Sub(b.start)
}

// Limits returns the configured limits.
func (b *Budget) Limits() Limits {
	return b.limits
}

var memorySamples = []string{
	"/memory/classes/total:bytes",
	"/memory/classes/heap/released:bytes",
}

// RuntimeMemory reads the mapped memory from runtime/metrics and the soft
// limit set with debug.SetMemoryLimit or GOMEMLIMIT.
func RuntimeMemory() (used, limit uint64) {
	samples := make([]metrics.Sample, len(memorySamples))
	for i, name := range memorySamples {
		samples[i].Name = name
	}
	metrics.Read(samples)

	var total, released uint64
	if samples[0].Value.Kind() == metrics.KindUint64 {
		total = samples[0].Value.Uint64()
	}
	if samples[1].Value.Kind() == metrics.KindUint64 {
		released = samples[1].Value.Uint64()
	}
	if released < total {
		used = total - released
	}

	if l := debug.SetMemoryLimit(-1); l > 0 && l != math.MaxInt64 {
		limit = uint64(l)
	}
	return used, limit
}
