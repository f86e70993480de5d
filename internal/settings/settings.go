package settings

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: VARDUMP_MAX_CALL_COUNT.
const EnvPrefix = "VARDUMP"

// ConfigName is the base name of the optional config file.
const ConfigName = "vardump"

var (
	// ErrUnknownSetting is returned for keys without a definition.
	ErrUnknownSetting = errors.New("unknown setting")
	// ErrInvalidValue is returned when a value fails validation.
	ErrInvalidValue = errors.New("invalid setting value")
)

// Source tells where a resolved value came from.
type Source string

const (
	SourceFactory Source = "factory"
	SourceFile    Source = "file"
	SourceEnv     Source = "env"
	SourceCookie  Source = "cookie"
	SourceCode    Source = "code"
)

// Provider exposes the resolved settings to the engine.
type Provider interface {
	Bool(key string) bool
	Int(key string) int
	String(key string) string
	Strings(key string) []string
	Source(key string) Source
}

// Resolved is one setting with its final value.
type Resolved struct {
	Definition
	Value  any
	Source Source
}

// Settings is the viper backed Provider. Overrides are layered on top of the
// viper values without mutating them, so one loaded Settings can serve many
// requests with different cookies.
type Settings struct {
	v         *viper.Viper
	overrides map[string]any
	ovSource  map[string]Source
	// env is set when the environment takes part in resolution.
	env bool
}

// LoadOptions control where Load looks for configuration.
type LoadOptions struct {
	// File is an explicit config file; it must exist when set.
	File string
	// Paths are searched for vardump.yml when File is empty.
	Paths []string
	// SkipEnv ignores environment variables.
	SkipEnv bool
}

// Load resolves settings from defaults, config file and environment.
func Load(opts LoadOptions) (*Settings, error) {
	v := newViper()

	if !opts.SkipEnv {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		v.AutomaticEnv()
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		paths := opts.Paths
		if len(paths) == 0 {
			paths = []string{"."}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// Config file not found - use defaults
		}
	}

	s := &Settings{v: v, env: !opts.SkipEnv}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Defaults returns factory settings, ignoring files and the environment.
func Defaults() *Settings {
	return &Settings{v: newViper()}
}

func newViper() *viper.Viper {
	v := viper.New()
	for _, def := range Definitions {
		v.SetDefault(def.Key, def.Default)
	}
	return v
}

// With returns a copy with overrides applied on top. Unknown keys and
// invalid values are rejected.
func (s *Settings) With(overrides map[string]any, source Source) (*Settings, error) {
	next := &Settings{
		v:         s.v,
		env:       s.env,
		overrides: make(map[string]any, len(s.overrides)+len(overrides)),
		ovSource:  make(map[string]Source, len(s.ovSource)+len(overrides)),
	}
	for k, val := range s.overrides {
		next.overrides[k] = val
		next.ovSource[k] = s.ovSource[k]
	}
	for k, raw := range overrides {
		def, ok := Lookup(k)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, k)
		}
		val, err := coerce(def, raw)
		if err != nil {
			return nil, err
		}
		next.overrides[k] = val
		next.ovSource[k] = source
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// MustWith is With for statically known overrides, mostly in tests.
func (s *Settings) MustWith(overrides map[string]any) *Settings {
	next, err := s.With(overrides, SourceCode)
	if err != nil {
		panic(err)
	}
	return next
}

func (s *Settings) get(key string) any {
	if val, ok := s.overrides[key]; ok {
		return val
	}
	return s.v.Get(key)
}

// Bool returns a boolean setting.
func (s *Settings) Bool(key string) bool {
	return cast.ToBool(s.get(key))
}

// Int returns an integer setting.
func (s *Settings) Int(key string) int {
	return cast.ToInt(s.get(key))
}

// String returns a string setting.
func (s *Settings) String(key string) string {
	return cast.ToString(s.get(key))
}

// Strings splits a comma separated setting.
func (s *Settings) Strings(key string) []string {
	var out []string
	for _, part := range strings.Split(s.String(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Source reports where the value of key came from.
func (s *Settings) Source(key string) Source {
	if src, ok := s.ovSource[key]; ok {
		return src
	}
	// The environment outranks the config file.
	if s.env {
		if _, ok := os.LookupEnv(envName(key)); ok {
			return SourceEnv
		}
	}
	if s.v.InConfig(key) {
		return SourceFile
	}
	return SourceFactory
}

// All returns every setting in definition order.
func (s *Settings) All() []Resolved {
	out := make([]Resolved, 0, len(Definitions))
	for _, def := range Definitions {
		var val any
		switch def.Kind {
		case KindBool:
			val = s.Bool(def.Key)
		case KindInt:
			val = s.Int(def.Key)
		default:
			val = s.String(def.Key)
		}
		out = append(out, Resolved{Definition: def, Value: val, Source: s.Source(def.Key)})
	}
	return out
}

// Validate checks limits and choices.
func (s *Settings) Validate() error {
	for _, def := range Definitions {
		raw := s.get(def.Key)
		if _, err := coerce(def, raw); err != nil {
			return err
		}
	}
	return nil
}

func coerce(def Definition, raw any) (any, error) {
	switch def.Kind {
	case KindBool:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, def.Key, err)
		}
		return b, nil
	case KindInt:
		i, err := cast.ToIntE(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, def.Key, err)
		}
		if i < 0 {
			return nil, fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidValue, def.Key, i)
		}
		return i, nil
	default:
		str, err := cast.ToStringE(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, def.Key, err)
		}
		if len(def.Choices) > 0 && !slices.Contains(def.Choices, str) {
			return nil, fmt.Errorf("%w: %s must be one of %s, got %q", ErrInvalidValue, def.Key, strings.Join(def.Choices, ", "), str)
		}
		return str, nil
	}
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// WriteFile stores the given values as a YAML config file.
func WriteFile(path string, values map[string]any) error {
	v := viper.New()
	for k, val := range values {
		def, ok := Lookup(k)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSetting, k)
		}
		coerced, err := coerce(def, val)
		if err != nil {
			return err
		}
		v.Set(k, coerced)
	}
	v.SetConfigType("yaml")
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
