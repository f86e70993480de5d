// Package settings resolves the toggles consumed by the analyzers and the
// resource budget from factory defaults, a config file, the environment and
// per-request cookie overrides.
package settings

// Setting keys.
const (
	AnalyseProtectedProperties = "analyse-protected-properties"
	AnalysePrivateProperties   = "analyse-private-properties"
	AnalyseProtectedMethods    = "analyse-protected-methods"
	AnalysePrivateMethods      = "analyse-private-methods"
	AnalyseConstants           = "analyse-constants"
	AnalyseTraversable         = "analyse-traversable"
	AnalyseGetter              = "analyse-getter"
	AnalyseMeta                = "analyse-meta"
	DebugMethods               = "debug-methods"
	MaxRecursionLevel          = "max-recursion-level"
	MaxCallCount               = "max-call-count"
	MemoryHeadroomMinimum      = "memory-headroom-minimum"
	MemoryLimit                = "memory-limit"
	MaxRuntimeSeconds          = "max-runtime-seconds"
	LargeArrayThreshold        = "large-array-threshold"
	RecursionSentinel          = "recursion-sentinel"
	Language                   = "language"
	Skin                       = "skin"
	Dialect                    = "dialect"
	Destination                = "destination"
	Disabled                   = "disabled"
)

// Kind is the value type of a setting.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindString
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	}
	return "string"
}

// Definition documents one setting.
type Definition struct {
	Key     string
	Kind    Kind
	Default any
	// Editable settings may be overridden per request through the cookie.
	Editable bool
	Section  string
	// Choices restricts string settings.
	Choices []string
}

// Definitions lists every setting with its factory default, in display order.
var Definitions = []Definition{
	{Key: AnalyseProtectedProperties, Kind: KindBool, Default: true, Editable: true, Section: "properties"},
	{Key: AnalysePrivateProperties, Kind: KindBool, Default: true, Editable: true, Section: "properties"},
	{Key: AnalyseProtectedMethods, Kind: KindBool, Default: false, Editable: true, Section: "methods"},
	{Key: AnalysePrivateMethods, Kind: KindBool, Default: false, Editable: true, Section: "methods"},
	{Key: AnalyseConstants, Kind: KindBool, Default: true, Editable: true, Section: "properties"},
	{Key: AnalyseTraversable, Kind: KindBool, Default: true, Editable: true, Section: "properties"},
	{Key: AnalyseGetter, Kind: KindBool, Default: true, Editable: true, Section: "methods"},
	{Key: AnalyseMeta, Kind: KindBool, Default: true, Editable: true, Section: "properties"},
	{Key: DebugMethods, Kind: KindString, Default: "String,GoString,Error", Section: "methods"},
	{Key: MaxRecursionLevel, Kind: KindInt, Default: 5, Editable: true, Section: "pruning"},
	{Key: MaxCallCount, Kind: KindInt, Default: 10000, Editable: true, Section: "emergency"},
	{Key: MemoryHeadroomMinimum, Kind: KindInt, Default: 64, Section: "emergency"},
	{Key: MemoryLimit, Kind: KindInt, Default: 0, Section: "emergency"},
	{Key: MaxRuntimeSeconds, Kind: KindInt, Default: 60, Section: "emergency"},
	{Key: LargeArrayThreshold, Kind: KindInt, Default: 300, Editable: true, Section: "pruning"},
	{Key: RecursionSentinel, Kind: KindString, Default: "", Section: "pruning"},
	{Key: Language, Kind: KindString, Default: "en", Editable: true, Section: "output", Choices: []string{"en", "de"}},
	{Key: Skin, Kind: KindString, Default: "smokygrey", Editable: true, Section: "output"},
	{Key: Dialect, Kind: KindString, Default: "go", Editable: true, Section: "output", Choices: []string{"go", "template"}},
	{Key: Destination, Kind: KindString, Default: "browser", Section: "output", Choices: []string{"browser", "file"}},
	{Key: Disabled, Kind: KindBool, Default: false, Editable: true, Section: "output"},
}

// Lookup returns the definition of key.
func Lookup(key string) (Definition, bool) {
	for _, def := range Definitions {
		if def.Key == key {
			return def, true
		}
	}
	return Definition{}, false
}
