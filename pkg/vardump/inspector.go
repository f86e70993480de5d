// Package vardump renders any Go value as a collapsible HTML tree for
// debugging. An Inspector holds the process wide caches (template slots,
// message catalog, source index, getter resolutions) and the extension
// hooks; every Dump starts with a fresh identity registry and resource
// budget.
//
// Example:
//
//	vd, err := vardump.New(vardump.WithoutSource())
//	if err != nil {
//		return err
//	}
//	fmt.Fprint(w, vd.Dump(order, "order before checkout"))
package vardump

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/conduit-lang/vardump/internal/analysis"
	"github.com/conduit-lang/vardump/internal/event"
	"github.com/conduit-lang/vardump/internal/messages"
	"github.com/conduit-lang/vardump/internal/render"
	"github.com/conduit-lang/vardump/internal/settings"
	"github.com/conduit-lang/vardump/internal/shape"
	"github.com/conduit-lang/vardump/internal/source"
	"go.uber.org/zap"
)

// Iterator is implemented by values that enumerate their own contents.
type Iterator = shape.Iterator

// IteratorAggregate is implemented by values that hand out an Iterator.
type IteratorAggregate = shape.IteratorAggregate

// Hook is an extension callback. A non-empty fragment replaces the output
// of the stage it is registered for.
type Hook = event.Hook

// HookContext is handed to every Hook.
type HookContext = event.Context

// Extension stages. Hooks are registered for Before(stage) or After(stage).
const (
	StageRouting      = analysis.StageRouting
	StageScalar       = analysis.StageScalar
	StageArray        = analysis.StageArray
	StageObjects      = analysis.StageObjects
	StageProperties   = analysis.StageProperties
	StageMethods      = analysis.StageMethods
	StageConstants    = analysis.StageConstants
	StageGetter       = analysis.StageGetter
	StageTraversable  = analysis.StageTraversable
	StageDebugMethods = analysis.StageDebugMethods
	StageMeta         = analysis.StageMeta
	StageClosure      = analysis.StageClosure
	StageResource     = analysis.StageResource
	StageBacktrace    = analysis.StageBacktrace
)

// Before returns the extension point that runs before stage.
func Before(stage string) string { return event.Before(stage) }

// After returns the extension point that runs after stage.
func After(stage string) string { return event.After(stage) }

// Inspector renders values. It is safe for concurrent use.
type Inspector struct {
	settings    *settings.Settings
	logger      *zap.Logger
	catalog     *messages.Catalog
	skins       *render.Skins
	index       source.Index
	resolver    analysis.Resolver
	hooks       *event.Registry
	interactive *bool
	logDir      string
	now         func() time.Time

	mu         sync.Mutex
	assetsSent bool
	moments    []moment
}

type options struct {
	configFile  string
	overrides   map[string]any
	settings    *settings.Settings
	logger      *zap.Logger
	skinName    string
	skinDir     string
	sourceDir   string
	index       source.Index
	interactive *bool
	logDir      string
	now         func() time.Time
}

// Option configures an Inspector.
type Option func(*options)

// WithConfigFile reads settings from path instead of searching for
// vardump.yml in the working directory.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configFile = path }
}

// WithOverrides sets settings in code. They win over file and environment.
func WithOverrides(values map[string]any) Option {
	return func(o *options) { o.overrides = values }
}

// WithLogger sets the logger for diagnostics of the engine itself.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSkinDir registers a custom skin read from dir. Slots the directory
// does not provide are taken from the built-in skin.
func WithSkinDir(name, dir string) Option {
	return func(o *options) {
		o.skinName = name
		o.skinDir = dir
	}
}

// WithSourceDir sets the directory packages are loaded from for doc
// comments, constants and unexported methods.
func WithSourceDir(dir string) Option {
	return func(o *options) { o.sourceDir = dir }
}

// WithoutSource disables source discovery. Dumps get faster but lose doc
// comments, constants and unexported methods.
func WithoutSource() Option {
	return func(o *options) { o.index = source.Nop{} }
}

// WithInteractive forces HTML output (true) or the plain text transcript
// (false) in Fdump. By default a terminal gets the transcript.
func WithInteractive(interactive bool) Option {
	return func(o *options) { o.interactive = &interactive }
}

// WithLogDir sets where dumps go when the destination setting is "file".
func WithLogDir(dir string) Option {
	return func(o *options) { o.logDir = dir }
}

func withSettings(s *settings.Settings) Option {
	return func(o *options) { o.settings = s }
}

func withIndex(index source.Index) Option {
	return func(o *options) { o.index = index }
}

func withClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates an Inspector.
func New(opts ...Option) (*Inspector, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	s := o.settings
	if s == nil {
		var err error
		s, err = settings.Load(settings.LoadOptions{File: o.configFile})
		if err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
	}
	if len(o.overrides) > 0 {
		var err error
		if s, err = s.With(o.overrides, settings.SourceCode); err != nil {
			return nil, fmt.Errorf("invalid overrides: %w", err)
		}
	}

	catalog, err := messages.LoadBuiltin()
	if err != nil {
		return nil, fmt.Errorf("failed to load message catalog: %w", err)
	}

	skins, err := newSkins(o.skinName, o.skinDir)
	if err != nil {
		return nil, err
	}

	i := &Inspector{
		settings:    s,
		logger:      o.logger,
		catalog:     catalog,
		skins:       skins,
		index:       o.index,
		hooks:       event.NewRegistry(),
		interactive: o.interactive,
		logDir:      o.logDir,
		now:         o.now,
	}
	if i.logger == nil {
		i.logger = zap.NewNop()
	}
	if i.index == nil {
		i.index = source.NewPackages(source.WithDir(o.sourceDir), source.WithLogger(i.logger))
	}
	if i.logDir == "" {
		i.logDir = os.TempDir()
	}
	if i.now == nil {
		i.now = time.Now
	}
	i.resolver = analysis.NewGetterResolver(i.index)
	return i, nil
}

func newSkins(name, dir string) (*render.Skins, error) {
	if dir == "" {
		skins, err := render.DefaultSkins()
		if err != nil {
			return nil, fmt.Errorf("failed to load built-in skins: %w", err)
		}
		return skins, nil
	}

	skins := render.NewSkins()
	if err := render.RegisterBuiltinSkins(skins); err != nil {
		return nil, fmt.Errorf("failed to load built-in skins: %w", err)
	}
	fallback, err := render.NewEmbeddedProvider(render.DefaultSkin)
	if err != nil {
		return nil, err
	}
	if err := skins.Register(name, render.DirProvider{Dir: dir, Fallback: fallback}); err != nil {
		return nil, err
	}
	return skins, nil
}

// On registers hook for an extension point such as Before(StageScalar).
func (i *Inspector) On(point string, hook Hook) error {
	if err := i.hooks.Register(point, hook); err != nil {
		i.logger.Warn("hook registration failed", zap.String("point", point), zap.Error(err))
		return fmt.Errorf("failed to register hook: %w", err)
	}
	i.logger.Debug("hook registered", zap.String("point", point), zap.Int("hooks", i.hooks.Len()))
	return nil
}

// Skins returns the names of the skins a dump may select, sorted.
func (i *Inspector) Skins() []string {
	return i.skins.List()
}

// ForRequest returns an Inspector sharing all caches and hooks with i whose
// settings carry the overrides of the request's settings cookie. A broken
// cookie is reported and ignored.
func (i *Inspector) ForRequest(r *http.Request) (*Inspector, error) {
	s, err := i.settings.FromRequest(r)
	c := &Inspector{
		settings:    s,
		logger:      i.logger,
		catalog:     i.catalog,
		skins:       i.skins,
		index:       i.index,
		resolver:    i.resolver,
		hooks:       i.hooks,
		interactive: i.interactive,
		logDir:      i.logDir,
		now:         i.now,
	}
	if err != nil {
		i.logger.Info("ignoring settings cookie", zap.Error(err))
		return c, fmt.Errorf("invalid settings cookie: %w", err)
	}
	return c, nil
}

// Settings returns the resolved settings with their sources.
func (i *Inspector) Settings() []settings.Resolved {
	return i.settings.All()
}

// claimAssets reports true for the first dump of the inspector, which
// carries the skin's styles and script.
func (i *Inspector) claimAssets() bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.assetsSent {
		return false
	}
	i.assetsSent = true
	return true
}
