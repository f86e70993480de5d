// Package analysis walks runtime values and renders them node by node. The
// Routing type is the hub: it classifies a value, guards against cycles and
// exhausted budgets and hands the value to the analyzer of its shape.
package analysis

import (
	"bytes"
	"fmt"

	"github.com/conduit-lang/vardump/internal/emergency"
	"github.com/conduit-lang/vardump/internal/event"
	"github.com/conduit-lang/vardump/internal/identity"
	"github.com/conduit-lang/vardump/internal/messages"
	"github.com/conduit-lang/vardump/internal/model"
	"github.com/conduit-lang/vardump/internal/render"
	"github.com/conduit-lang/vardump/internal/settings"
	"github.com/conduit-lang/vardump/internal/shape"
	"github.com/conduit-lang/vardump/internal/source"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Stage names. Extension points are "<Stage>::before" and "<Stage>::after".
const (
	StageRouting      = "Routing"
	StageScalar       = "Scalar"
	StageArray        = "Array"
	StageObjects      = "Objects"
	StageProperties   = "Properties"
	StageMethods      = "Methods"
	StageConstants    = "Constants"
	StageGetter       = "Getter"
	StageTraversable  = "Traversable"
	StageDebugMethods = "DebugMethods"
	StageMeta         = "Meta"
	StageClosure      = "Closure"
	StageResource     = "Resource"
	StageBacktrace    = "Backtrace"
)

// Analyser writes the markup of one node, children included, to w.
type Analyser func(w *bytes.Buffer, n *model.Node)

type route struct {
	stage string
	fn    Analyser
}

// Options are the settings the analyzers consult, resolved once per dump.
type Options struct {
	ProtectedProperties bool
	PrivateProperties   bool
	ProtectedMethods    bool
	PrivateMethods      bool
	Constants           bool
	Traversable         bool
	Getter              bool
	Meta                bool
	DebugMethods        []string
	LargeArrayThreshold int
}

// OptionsFrom reads Options from a settings provider.
func OptionsFrom(p settings.Provider) Options {
	return Options{
		ProtectedProperties: p.Bool(settings.AnalyseProtectedProperties),
		PrivateProperties:   p.Bool(settings.AnalysePrivateProperties),
		ProtectedMethods:    p.Bool(settings.AnalyseProtectedMethods),
		PrivateMethods:      p.Bool(settings.AnalysePrivateMethods),
		Constants:           p.Bool(settings.AnalyseConstants),
		Traversable:         p.Bool(settings.AnalyseTraversable),
		Getter:              p.Bool(settings.AnalyseGetter),
		Meta:                p.Bool(settings.AnalyseMeta),
		DebugMethods:        p.Strings(settings.DebugMethods),
		LargeArrayThreshold: p.Int(settings.LargeArrayThreshold),
	}
}

// Config wires a Routing. Renderer, Registry and Budget are required and
// belong to exactly one dump.
type Config struct {
	Renderer *render.Renderer
	Registry *identity.Registry
	Budget   *emergency.Budget
	Hooks    *event.Registry
	Options  Options
	Index    source.Index
	Resolver Resolver
	Logger   *zap.Logger
}

// Routing dispatches nodes to analyzers. It is used by a single goroutine.
type Routing struct {
	render   *render.Renderer
	registry *identity.Registry
	budget   *emergency.Budget
	hooks    *event.Registry
	opts     Options
	index    source.Index
	resolver Resolver
	logger   *zap.Logger
	table    map[shape.Tag]route
}

// NewRouting creates the hub for one dump.
func NewRouting(cfg Config) *Routing {
	r := &Routing{
		render:   cfg.Renderer,
		registry: cfg.Registry,
		budget:   cfg.Budget,
		hooks:    cfg.Hooks,
		opts:     cfg.Options,
		index:    cfg.Index,
		resolver: cfg.Resolver,
		logger:   cfg.Logger,
	}
	if r.index == nil {
		r.index = source.Nop{}
	}
	if r.resolver == nil {
		r.resolver = NewGetterResolver(r.index)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.hooks == nil {
		r.hooks = event.NewRegistry()
	}
	r.table = map[shape.Tag]route{
		shape.Null:        {StageScalar, r.analyseScalar},
		shape.Bool:        {StageScalar, r.analyseScalar},
		shape.Int:         {StageScalar, r.analyseScalar},
		shape.Float:       {StageScalar, r.analyseScalar},
		shape.String:      {StageScalar, r.analyseScalar},
		shape.Array:       {StageArray, r.analyseArray},
		shape.LargeArray:  {StageArray, r.analyseLargeArray},
		shape.Resource:    {StageResource, r.analyseResource},
		shape.Closure:     {StageClosure, r.analyseClosure},
		shape.Object:      {StageObjects, r.analyseObject},
		shape.Traversable: {StageObjects, r.analyseObject},
	}
	return r
}

// SetAnalyser replaces the analyzer of a shape.
func (r *Routing) SetAnalyser(tag shape.Tag, fn Analyser) {
	rt := r.table[tag]
	rt.fn = fn
	r.table[tag] = rt
}

// Analyse renders n and, through the analyzers, everything below it.
func (r *Routing) Analyse(n *model.Node) string {
	var b bytes.Buffer
	r.analyse(&b, n)
	return b.String()
}

func (r *Routing) analyse(w *bytes.Buffer, n *model.Node) {
	if out := r.hook(event.Before(StageRouting), n, ""); out != "" {
		w.WriteString(out)
		return
	}

	n.Tag = shape.Classify(n.Value, r.opts.LargeArrayThreshold)
	r.after(w, event.After(StageRouting), n, func() {
		r.dispatch(w, n)
	})
}

func (r *Routing) dispatch(w *bytes.Buffer, n *model.Node) {
	if n.Tag.IsContainer() {
		if r.budget.DepthExceeded(n.Level()) {
			w.WriteString(r.maxLevel(n))
			return
		}
		reg := r.registry.BeginObject(n.Value)
		if reg.AlreadySeen {
			w.WriteString(r.recursion(n, reg.Marker))
			return
		}
		n.DomID = reg.Marker
	}
	if r.budget.Exhausted() {
		w.WriteString(r.truncated())
		return
	}

	rt := r.table[n.Tag]
	r.run(w, rt.stage, n, rt.fn)
}

// run fires the hooks of stage around fn and contains its failures.
func (r *Routing) run(w *bytes.Buffer, stage string, n *model.Node, fn Analyser) {
	if out := r.hook(event.Before(stage), n, ""); out != "" {
		w.WriteString(out)
		return
	}
	r.after(w, event.After(stage), n, func() {
		r.safely(w, stage, n, fn)
	})
}

// after runs produce and hands what it wrote to the hooks of point, which
// may replace it. Without hooks nothing is copied.
func (r *Routing) after(w *bytes.Buffer, point string, n *model.Node, produce func()) {
	start := w.Len()
	produce()
	if !r.hooks.Has(point) {
		return
	}
	if out := r.hook(point, n, string(w.Bytes()[start:])); out != "" {
		w.Truncate(start)
		w.WriteString(out)
	}
}

// safely drops whatever a panicking analyzer wrote and renders n as a
// failed leaf instead.
func (r *Routing) safely(w *bytes.Buffer, stage string, n *model.Node, fn Analyser) {
	start := w.Len()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("analysis failed",
				zap.String("stage", stage),
				zap.String("node", n.Name),
				zap.String("error", fmt.Sprint(rec)),
			)
			r.queue().Add(messages.SeverityError, "analysisFailed", n.Name, fmt.Sprint(rec))
			w.Truncate(start)
			w.WriteString(r.failed(n))
		}
	}()
	fn(w, n)
}

func (r *Routing) hook(point string, n *model.Node, fragment string) string {
	if !r.hooks.Has(point) {
		return ""
	}
	if n.Params == nil {
		n.Params = make(map[string]any)
	}
	ctx := &event.Context{Point: point, Node: n, Params: n.Params, Fragment: fragment}
	out, errs := r.hooks.Dispatch(ctx)
	if err := multierr.Combine(errs...); err != nil {
		r.logger.Warn("extension hooks failed", zap.String("point", point), zap.String("node", n.Name), zap.Error(err))
		for _, err := range multierr.Errors(err) {
			r.queue().Add(messages.SeverityWarning, "hookFailed", err.Error())
		}
	}
	return out
}

func (r *Routing) queue() *messages.Queue {
	return r.render.Queue()
}

func (r *Routing) text(key string, args ...any) string {
	return r.render.Text(key, args...)
}

// failed renders a copy of n as a leaf, leaving n untouched for callers
// that are still rendering it.
func (r *Routing) failed(n *model.Node) string {
	c := *n
	c.Callback = nil
	c.Normal = ""
	c.Extra = ""
	c.HelpKey = "analysisFailedHint"
	if c.Type == "" {
		c.Type = n.Tag.String()
	}
	return r.render.SingleChild(&c)
}

// truncated returns the truncation notice the first time the budget runs
// out and nothing afterwards.
func (r *Routing) truncated() string {
	if !r.budget.ClaimNotice() {
		return ""
	}
	reason := r.budget.Reason()
	limits := r.budget.Limits()
	var arg any
	switch reason {
	case emergency.ReasonCalls:
		arg = limits.MaxCalls
	case emergency.ReasonRuntime:
		arg = limits.MaxRuntime.String()
	case emergency.ReasonMemory:
		arg = fmt.Sprintf("%d MB", limits.MinHeadroom>>20)
	}
	r.logger.Info("analysis truncated",
		zap.String("reason", reason.String()),
		zap.Int("calls", r.budget.Calls()),
		zap.Int("identities", r.registry.Len()),
		zap.Duration("elapsed", r.budget.Elapsed()),
	)
	r.queue().Add(messages.SeverityWarning, reason.String(), arg)
	return r.render.Notice("truncatedNotice")
}

func (r *Routing) maxLevel(n *model.Node) string {
	r.describe(n)
	n.HelpKey = "maximumLevelHint"
	r.queue().Add(messages.SeverityWarning, "maximumLevelReached", r.budget.Limits().MaxDepth)
	return r.render.SingleChild(n)
}

func (r *Routing) recursion(n *model.Node, marker string) string {
	r.describe(n)
	return r.render.Recursion(n, marker)
}

// describe fills the type and summary of a container without descending.
func (r *Routing) describe(n *model.Node) {
	v := shape.Indirect(n.Value)
	switch n.Tag {
	case shape.Object, shape.Traversable:
		n.Type = "struct"
		n.Normal = typeLabel(n.Value)
	case shape.Array, shape.LargeArray:
		n.Type = typeLabel(n.Value)
		n.Normal = r.text("elements", v.Len())
	default:
		n.Type = typeLabel(n.Value)
	}
}

// children streams the rendered children of one node into the dump's
// buffer. Every dispatched child consumes one budget unit; after the first
// refusal nothing more is added and the truncation notice appears once per
// dump.
type children struct {
	r       *Routing
	b       *bytes.Buffer
	stopped bool
}

func (r *Routing) newChildren(b *bytes.Buffer) *children {
	return &children{r: r, b: b}
}

// consume takes one budget unit, writing the notice on refusal.
func (w *children) consume() bool {
	if w.stopped {
		return false
	}
	if !w.r.budget.CheckAndConsume() {
		w.b.WriteString(w.r.truncated())
		w.stopped = true
		return false
	}
	return true
}

// dispatch analyses child. It reports false once the budget is gone.
func (w *children) dispatch(child *model.Node) bool {
	if !w.consume() {
		return false
	}
	w.r.analyse(w.b, child)
	return true
}

// leaf renders child without analysis.
func (w *children) leaf(child *model.Node) bool {
	if !w.consume() {
		return false
	}
	w.b.WriteString(w.r.render.SingleChild(child))
	return true
}

// expandable renders child with its own callback, without analysis.
func (w *children) expandable(child *model.Node) bool {
	if !w.consume() {
		return false
	}
	w.r.render.ExpandableChild(w.b, child)
	return true
}

// raw appends already rendered markup.
func (w *children) raw(s string) {
	w.b.WriteString(s)
}

// meta appends one descriptive row per annotation.
func (w *children) meta(parent *model.Node, rows []model.Annotation) {
	for _, a := range rows {
		w.b.WriteString(w.r.render.SingleChild(model.NewMeta(parent, w.r.text(a.Key), a.Text)))
	}
}

// group runs fill through the hooks of stage. The children fill writes
// belong to parent directly, without a section node of their own.
func (w *children) group(stage string, parent *model.Node, fill func(*children)) {
	if w.stopped {
		return
	}
	w.r.run(w.b, stage, parent, func(b *bytes.Buffer, _ *model.Node) {
		sub := w.r.newChildren(b)
		fill(sub)
		w.stopped = w.stopped || sub.stopped
	})
}

// stage renders a section through the hooks of its stage. Sections do not
// consume budget; their entries do.
func (w *children) stage(stage string, s *model.Node) {
	if w.stopped {
		return
	}
	if w.r.budget.Exhausted() {
		w.b.WriteString(w.r.truncated())
		w.stopped = true
		return
	}
	w.r.run(w.b, stage, s, w.r.expand)
}

// lazy turns fill into a node callback. The children are produced on the
// first call only, so registry and budget see them once.
func (r *Routing) lazy(fill func(w *children)) func(*bytes.Buffer) {
	done := false
	return func(b *bytes.Buffer) {
		if done {
			return
		}
		done = true
		fill(r.newChildren(b))
	}
}

func (r *Routing) expand(w *bytes.Buffer, n *model.Node) {
	r.render.ExpandableChild(w, n)
}

// section creates a grouping node such as "Methods" below parent.
func (r *Routing) section(parent *model.Node, key string, mode model.CodeGenMode) *model.Node {
	s := model.NewChild(parent, r.text(key), parent.Value, model.ConnectorNone)
	s.CodeGen = mode
	return s
}
