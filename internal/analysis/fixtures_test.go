package analysis

import (
	"errors"
	"iter"
	"slices"
	"testing"
	"time"

	"github.com/conduit-lang/vardump/internal/emergency"
	"github.com/conduit-lang/vardump/internal/event"
	"github.com/conduit-lang/vardump/internal/identity"
	"github.com/conduit-lang/vardump/internal/messages"
	"github.com/conduit-lang/vardump/internal/render"
	"github.com/conduit-lang/vardump/internal/source"
	"github.com/stretchr/testify/require"
)

var testSkin = render.MapProvider{
	render.SlotExpandableChild:  "<e id={domId}>{connectorLeft}{name}{connectorRight}:{type}={normal}[{gensource}]{help}{nest}</e>",
	render.SlotSingleChild:      "<l class={flagClass}>{connectorLeft}{name}{connectorRight}:{type}={normal}[{gensource}]{help}</l>",
	render.SlotRecursion:        "<r to={target}>{name}</r>",
	render.SlotNest:             "<nest>{nest}</nest>",
	render.SlotNotice:           "<n>{text}</n>",
	render.SlotHelp:             "<help>{rows}</help>",
	render.SlotHelpRow:          "<row>{title}:{text}</row>",
	render.SlotSourceLine:       "<line>{number} {code}</line>",
	render.SlotSourceLineActive: "<active>{number} {code}</active>",
}

type harness struct {
	routing *Routing
	queue   *messages.Queue
	budget  *emergency.Budget
	hooks   *event.Registry
}

type harnessConfig struct {
	options  Options
	limits   emergency.Limits
	index    source.Index
	sentinel string
	clock    func() time.Time
}

func newHarness(t *testing.T, cfg harnessConfig) *harness {
	t.Helper()
	catalog, err := messages.LoadBuiltin()
	require.NoError(t, err)

	h := &harness{
		queue:  messages.NewQueue(),
		hooks: event.NewRegistry(),
	}
	var opts []emergency.Option
	if cfg.clock != nil {
		opts = append(opts, emergency.WithClock(cfg.clock))
	}
	h.budget = emergency.New(cfg.limits, opts...)
	renderer := render.New(render.NewSlotCache(testSkin), render.Options{
		Catalog: catalog,
		Budget:  h.budget,
		Queue:   h.queue,
	})
	h.routing = NewRouting(Config{
		Renderer: renderer,
		Registry: identity.NewRegistry("", cfg.sentinel),
		Budget:   h.budget,
		Hooks:    h.hooks,
		Options:  cfg.options,
		Index:    cfg.index,
	})
	return h
}

func (h *harness) keys() []string {
	var keys []string
	for _, m := range h.queue.Messages() {
		keys = append(keys, m.Key)
	}
	return keys
}

type person struct {
	Name string
}

type chain struct {
	Name string
	Next *chain
}

func longChain(n int) *chain {
	var head *chain
	for i := n; i > 0; i-- {
		head = &chain{Name: "c", Next: head}
	}
	return head
}

// ticking returns a clock that advances by step on every read.
func ticking(step time.Duration) func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

type ten struct {
	A, B, C, D, E, F, G, H, I, J int
}

type point struct {
	X, Y int
}

type account struct {
	myValue int
}

func (a *account) GetMyValue() int { return a.myValue }

type legacy struct {
	_my_value int
}

func (l *legacy) GetMyValue() int { return l._my_value }

type wallet struct {
	inner int
	cache map[string]int
}

func (w *wallet) GetTotal() int { return w.total() }
func (w *wallet) total() int { return w.inner }
func (w *wallet) GetCached() int { return len(w.cache) }

type bag struct {
	items []string
}

func (b *bag) All() iter.Seq[string] { return slices.Values(b.items) }

type broken struct{}

func (broken) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		yield(1)
		panic("iterator exploded")
	}
}

type reporter struct {
	Label string
}

func (r *reporter) Debug() string { return "debug:" + r.Label }

func (r *reporter) Explode() string { panic("boom") }

func (r *reporter) Fail() (string, error) { return "", errors.New("not today") }

type base struct {
	Shared string
	hidden int
}

func (base) Hello(name string) string { return "hello " + name }

type derived struct {
	base
	Own string
}

func (derived) Bye() {}

type inner struct {
	Value int
}

type outer struct {
	*inner
}

type level int

type callbacks struct {
	OnDone func(int) error
	Events chan string
}
