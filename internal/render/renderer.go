package render

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/conduit-lang/vardump/internal/codegen"
	"github.com/conduit-lang/vardump/internal/emergency"
	"github.com/conduit-lang/vardump/internal/messages"
	"github.com/conduit-lang/vardump/internal/model"
	"github.com/conduit-lang/vardump/internal/settings"
	"github.com/conduit-lang/vardump/internal/source"
)

// markerNest is where expandable and nest slots take their children.
const markerNest = "{nest}"

// Options configure a Renderer. Zero fields get working defaults.
type Options struct {
	Generator *codegen.Generator
	Catalog   *messages.Catalog
	Language  string
	// Budget is re-checked before children are expanded.
	Budget *emergency.Budget
	// Queue receives diagnostics such as missing slots.
	Queue *messages.Queue
	// Instance is the id of the dump, unique on the page.
	Instance string
}

// Renderer fills template slots for one dump. Only the slot cache is shared
// between dumps.
type Renderer struct {
	slots     *SlotCache
	generator *codegen.Generator
	catalog   *messages.Catalog
	lang      string
	budget    *emergency.Budget
	queue     *messages.Queue
	instance  string
}

// New creates a renderer on top of slots.
func New(slots *SlotCache, opts Options) *Renderer {
	r := &Renderer{
		slots:     slots,
		generator: opts.Generator,
		catalog:   opts.Catalog,
		lang:      opts.Language,
		budget:    opts.Budget,
		queue:     opts.Queue,
		instance:  opts.Instance,
	}
	if r.generator == nil {
		r.generator = codegen.New(nil)
	}
	if r.catalog == nil {
		r.catalog = messages.NewCatalog()
	}
	if r.lang == "" {
		r.lang = messages.DefaultLanguage
	}
	if r.queue == nil {
		r.queue = messages.NewQueue()
	}
	return r
}

// Queue returns the diagnostics queue.
func (r *Renderer) Queue() *messages.Queue {
	return r.queue
}

// Text translates a catalog key in the renderer's language.
func (r *Renderer) Text(key string, args ...any) string {
	return r.catalog.Text(r.lang, key, args...)
}

// Generate returns the source expression of n.
func (r *Renderer) Generate(n *model.Node) string {
	return r.generator.Generate(n)
}

func (r *Renderer) slot(name string) string {
	tpl, err := r.slots.Slot(name)
	if err != nil {
		r.queue.Add(messages.SeverityError, "templateMissing", name, err.Error())
		return ""
	}
	return tpl
}

// fill substitutes markers in a single pass; replaced text is never scanned
// again, so data containing marker syntax stays inert.
func (r *Renderer) fill(name string, pairs ...string) string {
	tpl := r.slot(name)
	if tpl == "" {
		return ""
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

// split fills the parts of a slot before and after its {nest} marker. The
// marker is located in the template, never in the substituted data.
func (r *Renderer) split(name string, pairs ...string) (before, after string, ok bool) {
	tpl := r.slot(name)
	i := strings.Index(tpl, markerNest)
	if i < 0 {
		return strings.NewReplacer(pairs...).Replace(tpl), "", false
	}
	rep := strings.NewReplacer(pairs...)
	return rep.Replace(tpl[:i]), rep.Replace(tpl[i+len(markerNest):]), true
}

func (r *Renderer) nodeMarkers(n *model.Node, help string) []string {
	return []string{
		"{name}", html.EscapeString(n.Name),
		"{type}", html.EscapeString(n.Type),
		"{normal}", html.EscapeString(n.Normal),
		"{extra}", html.EscapeString(n.Extra),
		"{connectorLeft}", html.EscapeString(n.Connectors.Left()),
		"{connectorRight}", html.EscapeString(n.Connectors.Right()),
		"{gensource}", html.EscapeString(r.generator.Generate(n)),
		"{flags}", html.EscapeString(n.Flags.String()),
		"{flagClass}", flagClass(n.Flags),
		"{domId}", html.EscapeString(n.DomID),
		"{level}", strconv.Itoa(n.Level()),
		"{help}", help,
	}
}

func flagClass(f model.Flags) string {
	labels := f.Labels()
	for i, l := range labels {
		labels[i] = "vd-" + l
	}
	return strings.Join(labels, " ")
}

// Help renders the annotation rows of n plus the rows for the extra catalog
// keys, empty when there is nothing to show.
func (r *Renderer) Help(n *model.Node, keys ...string) string {
	var rows strings.Builder
	for _, a := range n.Meta {
		rows.WriteString(r.fill(SlotHelpRow,
			"{title}", html.EscapeString(r.Text(a.Key)),
			"{text}", html.EscapeString(a.Text),
		))
	}
	if n.HelpKey != "" {
		keys = append([]string{n.HelpKey}, keys...)
	}
	for _, key := range keys {
		rows.WriteString(r.fill(SlotHelpRow,
			"{title}", html.EscapeString(r.Text("metaHint")),
			"{text}", html.EscapeString(r.Text(key)),
		))
	}
	if rows.Len() == 0 {
		return ""
	}
	return r.fill(SlotHelp, "{rows}", rows.String())
}

// ExpandableChild writes n with its lazily produced children to w. The
// children are streamed between the opening and the closing markup, so a
// subtree is never copied into its parent. When the budget ran out the node
// is rendered as a leaf with a truncation hint.
func (r *Renderer) ExpandableChild(w *bytes.Buffer, n *model.Node) {
	if r.budget != nil && r.budget.Exhausted() {
		w.WriteString(r.fill(SlotSingleChild, r.nodeMarkers(n, r.Help(n, "truncatedNotice"))...))
		return
	}
	open, end, ok := r.split(SlotExpandableChild, r.nodeMarkers(n, r.Help(n))...)
	w.WriteString(open)
	if ok {
		nestOpen, nestEnd, _ := r.split(SlotNest, "{domId}", html.EscapeString(n.DomID))
		w.WriteString(nestOpen)
		n.RenderChildren(w)
		w.WriteString(nestEnd)
	}
	w.WriteString(end)
}

// SingleChild renders a leaf.
func (r *Renderer) SingleChild(n *model.Node) string {
	return r.fill(SlotSingleChild, r.nodeMarkers(n, r.Help(n))...)
}

// Recursion renders a reference to the first rendering of the same value.
func (r *Renderer) Recursion(n *model.Node, target string) string {
	return r.fill(SlotRecursion, append(r.nodeMarkers(n, r.Help(n, "recursionHint")),
		"{target}", html.EscapeString(target))...)
}

// Notice renders an inline notice, for example the truncation notice.
func (r *Renderer) Notice(key string, args ...any) string {
	return r.fill(SlotNotice, "{text}", html.EscapeString(r.Text(key, args...)))
}

// Message renders one queued diagnostic.
func (r *Renderer) Message(m messages.Message) string {
	return r.fill(SlotMessage,
		"{severity}", m.Severity.String(),
		"{message}", html.EscapeString(r.Text(m.Key, m.Args...)),
	)
}

// Messages renders every queued diagnostic in order.
func (r *Renderer) Messages(q *messages.Queue) string {
	if q == nil {
		return ""
	}
	var b strings.Builder
	for _, m := range q.Messages() {
		b.WriteString(r.Message(m))
	}
	return b.String()
}

// Button renders an action button.
func (r *Renderer) Button(textKey, helpKey, action string) string {
	return r.fill(SlotButton,
		"{text}", html.EscapeString(r.Text(textKey)),
		"{help}", html.EscapeString(r.Text(helpKey)),
		"{action}", html.EscapeString(action),
	)
}

// SingleEditableChild renders a setting that can be changed per browser.
// Bool settings and settings with choices get a select, others a text input.
func (r *Renderer) SingleEditableChild(res settings.Resolved) string {
	value := fmt.Sprint(res.Value)
	help := r.Help(&model.Node{}, res.Key)
	common := []string{
		"{name}", html.EscapeString(res.Key),
		"{key}", html.EscapeString(res.Key),
		"{source}", html.EscapeString(string(res.Source)),
		"{help}", help,
	}

	choices := res.Choices
	if res.Kind == settings.KindBool {
		choices = []string{"true", "false"}
	}
	if len(choices) == 0 {
		return r.fill(SlotEditableInput, append(common, "{value}", html.EscapeString(value))...)
	}

	var options strings.Builder
	for _, c := range choices {
		selected := ""
		if c == value {
			selected = " selected"
		}
		options.WriteString(r.fill(SlotSelectOption,
			"{value}", html.EscapeString(c),
			"{selected}", selected,
		))
	}
	return r.fill(SlotEditableSelect, append(common, "{options}", options.String())...)
}

// ConfigSection renders the resolved settings with their sources and the
// reset button.
func (r *Renderer) ConfigSection(all []settings.Resolved) string {
	var items strings.Builder
	for _, res := range all {
		if res.Editable {
			items.WriteString(r.SingleEditableChild(res))
			continue
		}
		n := model.NewMeta(nil, res.Key, fmt.Sprint(res.Value))
		n.Type = string(res.Source)
		n.HelpKey = res.Key
		items.WriteString(r.SingleChild(n))
	}
	return r.fill(SlotConfigSection,
		"{title}", html.EscapeString(r.Text("configSection")),
		"{items}", items.String(),
		"{buttons}", r.Button("resetButton", "resetButtonHint", "reset"),
	)
}

// SourceLines renders a source snippet, highlighting line active.
func (r *Renderer) SourceLines(lines []source.Line, active int) string {
	var b strings.Builder
	for _, l := range lines {
		name := SlotSourceLine
		if l.Number == active {
			name = SlotSourceLineActive
		}
		b.WriteString(r.fill(name,
			"{number}", strconv.Itoa(l.Number),
			"{code}", html.EscapeString(l.Text),
		))
	}
	return b.String()
}

// Header opens a dump.
type Header struct {
	Headline   string
	CalledFrom string
	// Assets includes the skin's styles and script, once per page.
	Assets bool
}

// Header renders the opening chrome.
func (r *Renderer) Header(h Header) string {
	assets := ""
	if h.Assets {
		assets = r.slot(SlotCSS) + r.slot(SlotJS)
	}
	search := r.fill(SlotSearch,
		"{instance}", html.EscapeString(r.instance),
		"{searchText}", html.EscapeString(r.Text("search")),
	)
	return r.fill(SlotHeader,
		"{assets}", assets,
		"{instance}", html.EscapeString(r.instance),
		"{headline}", html.EscapeString(h.Headline),
		"{calledFrom}", html.EscapeString(h.CalledFrom),
		"{calledFromText}", html.EscapeString(r.Text("calledFrom")),
		"{search}", search,
	)
}

// Footer closes a dump.
type Footer struct {
	ConfigSection string
	Messages      string
	Runtime       time.Duration
}

// Footer renders the closing chrome.
func (r *Renderer) Footer(f Footer) string {
	return r.fill(SlotFooter,
		"{messages}", f.Messages,
		"{configSection}", f.ConfigSection,
		"{runtime}", f.Runtime.Round(time.Microsecond).String(),
		"{runtimeText}", html.EscapeString(r.Text("runtime")),
		"{instance}", html.EscapeString(r.instance),
	)
}
