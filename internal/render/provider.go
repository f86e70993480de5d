// Package render turns analysed nodes into nested, collapsible markup by
// filling named template slots.
package render

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Slot names every skin provides.
const (
	SlotHeader           = "header"
	SlotFooter           = "footer"
	SlotCSS              = "css"
	SlotJS               = "js"
	SlotSearch           = "search"
	SlotExpandableChild  = "expandableChild"
	SlotSingleChild      = "singleChild"
	SlotRecursion        = "recursion"
	SlotEditableSelect   = "singleEditableChild"
	SlotEditableInput    = "singleInputChild"
	SlotSelectOption     = "selectOption"
	SlotButton           = "button"
	SlotMessage          = "message"
	SlotNotice           = "notice"
	SlotNest             = "nest"
	SlotHelp             = "help"
	SlotHelpRow          = "helpRow"
	SlotConfigSection    = "configSection"
	SlotSourceLine       = "sourceLine"
	SlotSourceLineActive = "sourceLineActive"
)

// Slots lists the slot names in the order they are documented.
var Slots = []string{
	SlotHeader, SlotFooter, SlotCSS, SlotJS, SlotSearch,
	SlotExpandableChild, SlotSingleChild, SlotRecursion,
	SlotEditableSelect, SlotEditableInput, SlotSelectOption, SlotButton,
	SlotMessage, SlotNotice, SlotNest, SlotHelp, SlotHelpRow,
	SlotConfigSection, SlotSourceLine, SlotSourceLineActive,
}

// DefaultSkin is the skin compiled into the binary.
const DefaultSkin = "smokygrey"

const slotExt = ".html"

// ErrSlotNotFound is returned when a provider has no content for a slot.
var ErrSlotNotFound = errors.New("template slot not found")

// TemplateProvider returns the raw markup of a slot. Repeated calls with the
// same name must return identical content for the lifetime of the process.
type TemplateProvider interface {
	Template(name string) (string, error)
}

//go:embed skins
var skins embed.FS

// EmbeddedProvider serves a skin compiled into the binary.
type EmbeddedProvider struct {
	fsys fs.FS
	skin string
}

// NewEmbeddedProvider opens the built-in skin with the given name.
func NewEmbeddedProvider(skin string) (*EmbeddedProvider, error) {
	sub, err := fs.Sub(skins, "skins/"+skin)
	if err != nil {
		return nil, fmt.Errorf("failed to open skin %s: %w", skin, err)
	}
	if _, err := fs.Stat(sub, SlotHeader+slotExt); err != nil {
		return nil, fmt.Errorf("skin %s: %w", skin, ErrSlotNotFound)
	}
	return &EmbeddedProvider{fsys: sub, skin: skin}, nil
}

// Template implements TemplateProvider.
func (p *EmbeddedProvider) Template(name string) (string, error) {
	data, err := fs.ReadFile(p.fsys, name+slotExt)
	if err != nil {
		return "", fmt.Errorf("%s/%s: %w", p.skin, name, ErrSlotNotFound)
	}
	return string(data), nil
}

// BuiltinSkins lists the skins compiled into the binary.
func BuiltinSkins() []string {
	entries, err := fs.ReadDir(skins, "skins")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

// DirProvider reads slots from <Dir>/<slot>.html. Missing slots are taken
// from Fallback when it is set, so a custom skin may override only a few.
type DirProvider struct {
	Dir      string
	Fallback TemplateProvider
}

// Template implements TemplateProvider.
func (p DirProvider) Template(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(p.Dir, name+slotExt))
	if err == nil {
		return string(data), nil
	}
	if p.Fallback != nil && errors.Is(err, fs.ErrNotExist) {
		return p.Fallback.Template(name)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", name, ErrSlotNotFound)
	}
	return "", fmt.Errorf("failed to read slot %s: %w", name, err)
}

// MapProvider serves slots from memory.
type MapProvider map[string]string

// Template implements TemplateProvider.
func (p MapProvider) Template(name string) (string, error) {
	tpl, ok := p[name]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrSlotNotFound)
	}
	return tpl, nil
}

// Missing returns the slot names p cannot serve.
func Missing(p TemplateProvider) []string {
	var missing []string
	for _, name := range Slots {
		if _, err := p.Template(name); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// SlotCache loads each slot once and keeps it for the process lifetime.
// Concurrent first loads of the same slot may both hit the provider; the
// content is identical so the later store is harmless.
type SlotCache struct {
	provider TemplateProvider
	slots    sync.Map
}

// NewSlotCache wraps p.
func NewSlotCache(p TemplateProvider) *SlotCache {
	return &SlotCache{provider: p}
}

// Slot returns the cached content of name. Failed loads are not cached.
func (c *SlotCache) Slot(name string) (string, error) {
	if v, ok := c.slots.Load(name); ok {
		return v.(string), nil
	}
	tpl, err := c.provider.Template(name)
	if err != nil {
		return "", err
	}
	actual, _ := c.slots.LoadOrStore(name, tpl)
	return actual.(string), nil
}
