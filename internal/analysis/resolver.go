package analysis

import (
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/conduit-lang/vardump/internal/source"
	utilstrings "github.com/conduit-lang/vardump/internal/util/strings"
)

// getterPrefixes are the method prefixes treated as getters.
var getterPrefixes = []string{"Get", "Is", "Has"}

// maxSourceHops bounds how many delegating getters the source scan follows.
const maxSourceHops = 3

// Resolution names the field a getter returns.
type Resolution struct {
	Field string
	// Index is the field index path from the struct the getter was found on.
	Index []int
	// BySource is set when the field was found by reading the getter body.
	BySource bool
}

// Resolver maps getter methods to their backing fields without calling them.
type Resolver interface {
	Resolve(t reflect.Type, method string) (Resolution, bool)
}

// GetterPrefix returns the getter prefix of name, empty when name is not a
// getter. The prefix must be followed by an upper case letter.
func GetterPrefix(name string) string {
	for _, p := range getterPrefixes {
		if len(name) > len(p) && strings.HasPrefix(name, p) && utilstrings.StartsUpper(name[len(p):]) {
			return p
		}
	}
	return ""
}

type resolverKey struct {
	t      reflect.Type
	method string
}

type resolved struct {
	res Resolution
	ok  bool
}

// GetterResolver resolves getters by field naming conventions first and by
// scanning the method source second. Results are cached per type and
// method; it is safe for concurrent use.
type GetterResolver struct {
	index source.Index
	cache sync.Map
}

// NewGetterResolver creates a resolver reading method bodies from index.
func NewGetterResolver(index source.Index) *GetterResolver {
	if index == nil {
		index = source.Nop{}
	}
	return &GetterResolver{index: index}
}

// Resolve implements Resolver.
func (g *GetterResolver) Resolve(t reflect.Type, method string) (Resolution, bool) {
	t = deref(t)
	if t.Kind() != reflect.Struct {
		return Resolution{}, false
	}
	key := resolverKey{t, method}
	if c, ok := g.cache.Load(key); ok {
		r := c.(resolved)
		return r.res, r.ok
	}
	res, ok := g.resolve(t, method)
	g.cache.Store(key, resolved{res, ok})
	return res, ok
}

func (g *GetterResolver) resolve(t reflect.Type, method string) (Resolution, bool) {
	prefix := GetterPrefix(method)
	if prefix == "" {
		return Resolution{}, false
	}
	candidates := utilstrings.Variants(method[len(prefix):])
	if prefix != "Get" {
		full := utilstrings.LowerFirst(method)
		candidates = append(candidates, full, "_"+full)
	}
	for _, name := range candidates {
		if f, ok := t.FieldByName(name); ok {
			return Resolution{Field: f.Name, Index: f.Index}, true
		}
	}
	return g.bySource(t, nil, method, 0)
}

// bySource looks for "return recv.field" in the body of method, declared
// on t or one of its embedded structs. A returned call of another method
// on the same receiver is followed.
func (g *GetterResolver) bySource(t reflect.Type, prefix []int, method string, hops int) (Resolution, bool) {
	if hops > maxSourceHops {
		return Resolution{}, false
	}
	if info, ok := g.index.Type(t); ok {
		if m, ok := info.Method(method); ok {
			return g.fromBody(t, prefix, m, hops)
		}
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		ft := deref(f.Type)
		if !f.Anonymous || ft.Kind() != reflect.Struct {
			continue
		}
		if res, ok := g.bySource(ft, append(slices.Clone(prefix), i), method, hops); ok {
			return res, true
		}
	}
	return Resolution{}, false
}

func (g *GetterResolver) fromBody(t reflect.Type, prefix []int, m source.Method, hops int) (Resolution, bool) {
	if m.Receiver == "" || m.Receiver == "_" {
		return Resolution{}, false
	}
	re := regexp.MustCompile(`return\s+` + regexp.QuoteMeta(m.Receiver) + `\.(\w+)(\(\s*\))?`)
	match := re.FindStringSubmatch(m.Body)
	if match == nil {
		return Resolution{}, false
	}
	if match[2] != "" {
		return g.bySource(t, prefix, match[1], hops+1)
	}
	f, ok := t.FieldByName(match[1])
	if !ok {
		return Resolution{}, false
	}
	return Resolution{Field: f.Name, Index: append(slices.Clone(prefix), f.Index...), BySource: true}, true
}
