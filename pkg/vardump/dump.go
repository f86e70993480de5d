package vardump

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/conduit-lang/vardump/internal/analysis"
	"github.com/conduit-lang/vardump/internal/codegen"
	"github.com/conduit-lang/vardump/internal/emergency"
	"github.com/conduit-lang/vardump/internal/identity"
	"github.com/conduit-lang/vardump/internal/messages"
	"github.com/conduit-lang/vardump/internal/model"
	"github.com/conduit-lang/vardump/internal/render"
	"github.com/conduit-lang/vardump/internal/settings"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

// Destinations of the destination setting.
const (
	DestinationBrowser = "browser"
	DestinationFile    = "file"
)

// session is the state of one dump. Nothing in it outlives the call.
type session struct {
	instance string
	queue    *messages.Queue
	budget   *emergency.Budget
	renderer *render.Renderer
	routing  *analysis.Routing
	start    time.Time
}

// result is a finished dump.
type result struct {
	html     string
	headline string
	call     callSite
	queue    *messages.Queue
	elapsed  time.Duration
}

func limitsFrom(p settings.Provider) emergency.Limits {
	return emergency.Limits{
		MaxRuntime:  time.Duration(p.Int(settings.MaxRuntimeSeconds)) * time.Second,
		MaxCalls:    p.Int(settings.MaxCallCount),
		MaxDepth:    p.Int(settings.MaxRecursionLevel),
		MinHeadroom: uint64(p.Int(settings.MemoryHeadroomMinimum)) << 20,
		MemoryLimit: uint64(p.Int(settings.MemoryLimit)) << 20,
	}
}

func (i *Inspector) newSession() *session {
	s := i.settings
	queue := messages.NewQueue()
	instance := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	budget := emergency.New(limitsFrom(s), emergency.WithClock(i.now))

	gen, err := codegen.ForName(s.String(settings.Dialect))
	if err != nil {
		queue.Add(messages.SeverityError, "configError", settings.Dialect, err.Error())
		gen = codegen.New(nil)
	}
	skin := s.String(settings.Skin)
	if !i.skins.Exists(skin) {
		queue.Add(messages.SeverityError, "configError", settings.Skin,
			fmt.Sprintf("unknown skin %q, available: %s", skin, strings.Join(i.skins.List(), ", ")))
		skin = render.DefaultSkin
	}
	slots, err := i.skins.Get(skin)
	if err != nil {
		slots = render.NewSlotCache(render.MapProvider{})
	}

	renderer := render.New(slots, render.Options{
		Generator: gen,
		Catalog:   i.catalog,
		Language:  s.String(settings.Language),
		Budget:    budget,
		Queue:     queue,
		Instance:  instance,
	})
	routing := analysis.NewRouting(analysis.Config{
		Renderer: renderer,
		Registry: identity.NewRegistry(instance, s.String(settings.RecursionSentinel)),
		Budget:   budget,
		Hooks:    i.hooks,
		Options:  analysis.OptionsFrom(s),
		Index:    i.index,
		Resolver: i.resolver,
		Logger:   i.logger,
	})
	return &session{
		instance: instance,
		queue:    queue,
		budget:   budget,
		renderer: renderer,
		routing:  routing,
		start:    i.now(),
	}
}

// Dump renders v and returns the HTML fragment. The first dump of an
// Inspector includes the skin's styles and script. When the destination
// setting is "file" the page is written to the log directory and Dump
// returns an empty string.
func (i *Inspector) Dump(v any, headline ...string) string {
	return i.deliver(i.dump(reflect.ValueOf(v), caller(1), headline))
}

// Fdump writes the dump of v to w. Terminals get a plain text transcript
// of the diagnostics instead of markup, unless WithInteractive says
// otherwise.
func (i *Inspector) Fdump(w io.Writer, v any, headline ...string) error {
	return i.fdump(w, reflect.ValueOf(v), caller(1), headline)
}

func (i *Inspector) fdump(w io.Writer, v reflect.Value, call callSite, headline []string) error {
	res := i.dump(v, call, headline)
	if res == nil {
		return nil
	}
	if !i.interactiveFor(w) {
		return writeTranscript(w, res, i.catalog, i.settings.String(settings.Language))
	}
	if _, err := io.WriteString(w, res.html); err != nil {
		return fmt.Errorf("failed to write dump: %w", err)
	}
	return nil
}

func (i *Inspector) dump(v reflect.Value, call callSite, headline []string) *result {
	if i.settings.Bool(settings.Disabled) {
		return nil
	}
	sess := i.newSession()
	title := strings.Join(headline, " ")
	if title == "" {
		title = sess.renderer.Text("headlineDefault", typeName(v))
	}

	root := model.NewRoot(call.rootName(), v)
	body := sess.routing.Analyse(root)
	return i.page(sess, title, call, body)
}

// page wraps body in the header and footer chrome.
func (i *Inspector) page(sess *session, title string, call callSite, body string) *result {
	r := sess.renderer
	var b strings.Builder
	b.WriteString(r.Header(render.Header{
		Headline:   title,
		CalledFrom: call.String(),
		Assets:     i.claimAssets(),
	}))
	b.WriteString(body)

	elapsed := i.now().Sub(sess.start)
	b.WriteString(r.Footer(render.Footer{
		ConfigSection: r.ConfigSection(i.settings.All()),
		Messages:      r.Messages(sess.queue),
		Runtime:       elapsed,
	}))

	i.logger.Debug("dump rendered",
		zap.String("instance", sess.instance),
		zap.String("headline", title),
		zap.Int("calls", sess.budget.Calls()),
		zap.Int("messages", sess.queue.Len()),
		zap.Duration("elapsed", elapsed),
	)
	return &result{
		html:     b.String(),
		headline: title,
		call:     call,
		queue:    sess.queue,
		elapsed:  elapsed,
	}
}

// deliver returns the markup of res or writes it to a file, depending on
// the destination setting.
func (i *Inspector) deliver(res *result) string {
	if res == nil {
		return ""
	}
	if i.settings.String(settings.Destination) != DestinationFile {
		return res.html
	}
	if _, err := i.writeFile(res); err != nil {
		i.logger.Error("failed to write dump file", zap.Error(err))
	}
	return ""
}

func (i *Inspector) writeFile(res *result) (string, error) {
	if err := os.MkdirAll(i.logDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	name := fmt.Sprintf("vardump-%s-%s.html", i.now().Format("20060102-150405"), uuid.NewString()[:8])
	path := filepath.Join(i.logDir, name)
	if err := os.WriteFile(path, []byte(res.html), 0o644); err != nil {
		return "", fmt.Errorf("failed to write dump file: %w", err)
	}
	return path, nil
}

// interactiveFor decides between markup and transcript for w.
func (i *Inspector) interactiveFor(w io.Writer) bool {
	if i.interactive != nil {
		return *i.interactive
	}
	f, ok := w.(*os.File)
	if !ok {
		return true
	}
	return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
}

func typeName(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	return v.Type().String()
}
