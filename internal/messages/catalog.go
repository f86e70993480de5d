// Package messages holds the translated help texts and the ordered,
// de-duplicated list of diagnostics collected during one dump.
package messages

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used when a key is missing in the requested language.
const DefaultLanguage = "en"

// ErrUnknownLanguage is returned when a language has no catalog file.
var ErrUnknownLanguage = errors.New("unknown language")

//go:embed lang/*.yaml
var builtin embed.FS

// Catalog maps language -> key -> text.
type Catalog struct {
	mu    sync.RWMutex
	texts map[string]map[string]string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{texts: make(map[string]map[string]string)}
}

// LoadBuiltin loads the catalog files shipped with the binary.
func LoadBuiltin() (*Catalog, error) {
	c := NewCatalog()
	if err := c.LoadFS(builtin, "lang"); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFS reads every <lang>.yaml file of dir.
func (c *Catalog) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to read catalog directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		lang := strings.TrimSuffix(entry.Name(), ".yaml")
		if err := c.Load(lang, data); err != nil {
			return err
		}
	}
	return nil
}

// Load merges the YAML mapping in data into lang.
func (c *Catalog) Load(lang string, data []byte) error {
	var texts map[string]string
	if err := yaml.Unmarshal(data, &texts); err != nil {
		return fmt.Errorf("failed to parse %s catalog: %w", lang, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.texts[lang] == nil {
		c.texts[lang] = make(map[string]string, len(texts))
	}
	for k, v := range texts {
		c.texts[lang][k] = v
	}
	return nil
}

// Has reports whether lang or the default language knows key.
func (c *Catalog) Has(lang, key string) bool {
	_, ok := c.lookup(lang, key)
	return ok
}

// Text returns the translation of key, formatted with args. Missing keys fall
// back to the default language, then to the key itself.
func (c *Catalog) Text(lang, key string, args ...any) string {
	text, ok := c.lookup(lang, key)
	if !ok {
		text = key
	}
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

// Languages lists the loaded languages.
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	langs := make([]string, 0, len(c.texts))
	for lang := range c.texts {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Validate fails for languages without a catalog.
func (c *Catalog) Validate(lang string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.texts[lang]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLanguage, lang)
	}
	return nil
}

func (c *Catalog) lookup(lang, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if text, ok := c.texts[lang][key]; ok {
		return text, true
	}
	text, ok := c.texts[DefaultLanguage][key]
	return text, ok
}
