package source

import (
	"bytes"
	"go/ast"
	"go/printer"
	"go/token"
	"go/types"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"
)

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo

// Loader loads the packages matching pattern.
type Loader func(dir, pattern string) ([]*packages.Package, error)

// LoadPackages is the default Loader, backed by the go command.
func LoadPackages(dir, pattern string) ([]*packages.Package, error) {
	cfg := &packages.Config{Mode: loadMode, Dir: dir}
	return packages.Load(cfg, pattern)
}

// cachedPackage holds the parsed types of one package. A nil types map
// records a failed load so it is not retried.
type cachedPackage struct {
	types map[string]*TypeInfo
}

// Packages is an Index that loads packages on first use and caches them for
// the process lifetime.
type Packages struct {
	dir     string
	loader  Loader
	logger  *zap.Logger
	entries map[string]*cachedPackage
	mu      sync.RWMutex
}

// Option customises Packages.
type Option func(*Packages)

// WithDir sets the directory the go command runs in.
func WithDir(dir string) Option {
	return func(p *Packages) { p.dir = dir }
}

// WithLoader replaces the go command loader.
func WithLoader(l Loader) Option {
	return func(p *Packages) { p.loader = l }
}

// WithLogger sets the logger for load failures.
func WithLogger(l *zap.Logger) Option {
	return func(p *Packages) { p.logger = l }
}

// NewPackages creates an empty package index.
func NewPackages(opts ...Option) *Packages {
	p := &Packages{
		loader:  LoadPackages,
		logger:  zap.NewNop(),
		entries: make(map[string]*cachedPackage),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Type implements Index.
func (p *Packages) Type(t reflect.Type) (*TypeInfo, bool) {
	t = named(t)
	if t == nil {
		return nil, false
	}
	pattern := patternFor(t)
	if pattern == "" {
		return nil, false
	}
	entry := p.load(pattern)
	info, ok := entry.types[baseName(t.Name())]
	return info, ok
}

// Size returns the number of cached packages, failed loads included.
func (p *Packages) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.entries)
}

func (p *Packages) load(pattern string) *cachedPackage {
	p.mu.RLock()
	entry, exists := p.entries[pattern]
	p.mu.RUnlock()
	if exists {
		return entry
	}

	entry = &cachedPackage{}
	pkgs, err := p.loader(p.dir, pattern)
	switch {
	case err != nil:
		p.logger.Debug("source index load failed", zap.String("pattern", pattern), zap.Error(err))
	case len(pkgs) == 0 || pkgs[0].Types == nil:
		p.logger.Debug("source index found no package", zap.String("pattern", pattern))
	default:
		for _, e := range pkgs[0].Errors {
			p.logger.Debug("source index package error", zap.String("pattern", pattern), zap.String("error", e.Error()))
		}
		entry.types = Collect(pkgs[0].Fset, pkgs[0].Syntax, pkgs[0].Types)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries[pattern] = entry
	return entry
}

// patternFor returns the go/packages pattern of t's package. Types of the
// main package are found through the file of one of their methods.
func patternFor(t reflect.Type) string {
	if t.PkgPath() != "main" {
		return t.PkgPath()
	}
	for _, rt := range []reflect.Type{t, reflect.PointerTo(t)} {
		for i := range rt.NumMethod() {
			fn := runtime.FuncForPC(rt.Method(i).Func.Pointer())
			if fn == nil {
				continue
			}
			file, _ := fn.FileLine(fn.Entry())
			if strings.HasSuffix(file, ".go") {
				return "file=" + file
			}
		}
	}
	return ""
}

// Collect builds the type information of one parsed and type checked package.
func Collect(fset *token.FileSet, files []*ast.File, pkg *types.Package) map[string]*TypeInfo {
	c := &collector{
		fset:   fset,
		pkg:    pkg,
		types:  make(map[string]*TypeInfo),
		consts: make(map[string]Constant),
		ifaces: make(map[string]map[string]string),
	}
	for _, f := range files {
		c.file(f)
	}
	c.constants()
	c.interfaces()
	return c.types
}

type collector struct {
	fset   *token.FileSet
	pkg    *types.Package
	types  map[string]*TypeInfo
	consts map[string]Constant
	ifaces map[string]map[string]string
}

func (c *collector) info(name string) *TypeInfo {
	info, ok := c.types[name]
	if !ok {
		info = &TypeInfo{
			Name:    name,
			PkgPath: c.pkg.Path(),
			PkgName: c.pkg.Name(),
			Fields:  make(map[string]Field),
			Methods: make(map[string]Method),
		}
		c.types[name] = info
	}
	return info
}

func (c *collector) location(pos token.Pos) Location {
	p := c.fset.Position(pos)
	return Location{File: p.Filename, Line: p.Line}
}

func (c *collector) file(f *ast.File) {
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			c.genDecl(d)
		case *ast.FuncDecl:
			if d.Recv != nil && len(d.Recv.List) == 1 {
				c.method(d)
			}
		}
	}
}

func (c *collector) genDecl(d *ast.GenDecl) {
	for _, spec := range d.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			doc := s.Doc
			if doc == nil && len(d.Specs) == 1 {
				doc = d.Doc
			}
			info := c.info(s.Name.Name)
			info.Doc = strings.TrimSpace(doc.Text())
			info.Location = c.location(s.Pos())
			switch t := s.Type.(type) {
			case *ast.StructType:
				c.fields(info, t)
			case *ast.InterfaceType:
				c.ifaceDocs(s.Name.Name, t)
			}
		case *ast.ValueSpec:
			if d.Tok != token.CONST {
				continue
			}
			doc := s.Doc
			if doc == nil {
				doc = s.Comment
			}
			for _, name := range s.Names {
				c.consts[name.Name] = Constant{
					Name:     name.Name,
					Doc:      strings.TrimSpace(doc.Text()),
					Location: c.location(name.Pos()),
				}
			}
		}
	}
}

func (c *collector) fields(info *TypeInfo, st *ast.StructType) {
	for _, field := range st.Fields.List {
		doc := field.Doc
		if doc == nil {
			doc = field.Comment
		}
		names := make([]string, 0, len(field.Names))
		for _, n := range field.Names {
			names = append(names, n.Name)
		}
		if len(names) == 0 {
			names = append(names, embeddedName(field.Type))
		}
		for _, name := range names {
			info.Fields[name] = Field{
				Name:     name,
				Doc:      strings.TrimSpace(doc.Text()),
				Location: c.location(field.Pos()),
			}
		}
	}
}

func (c *collector) ifaceDocs(name string, it *ast.InterfaceType) {
	docs := make(map[string]string)
	for _, m := range it.Methods.List {
		doc := m.Doc
		if doc == nil {
			doc = m.Comment
		}
		for _, n := range m.Names {
			docs[n.Name] = strings.TrimSpace(doc.Text())
			c.info(name).Methods[n.Name] = Method{
				Name:     n.Name,
				Doc:      docs[n.Name],
				Location: c.location(n.Pos()),
			}
		}
	}
	c.ifaces[name] = docs
}

func (c *collector) method(d *ast.FuncDecl) {
	recv := d.Recv.List[0]
	typeName, pointer := receiverType(recv.Type)
	if typeName == "" {
		return
	}
	m := Method{
		Name:     d.Name.Name,
		Doc:      strings.TrimSpace(d.Doc.Text()),
		Location: c.location(d.Pos()),
		Pointer:  pointer,
		Params:   c.params(d.Type.Params),
		Results:  c.params(d.Type.Results),
	}
	if len(recv.Names) == 1 && recv.Names[0].Name != "_" {
		m.Receiver = recv.Names[0].Name
	}
	if d.Body != nil {
		var buf bytes.Buffer
		if err := printer.Fprint(&buf, c.fset, d.Body); err == nil {
			m.Body = buf.String()
		}
	}
	c.info(typeName).Methods[m.Name] = m
}

func (c *collector) params(fl *ast.FieldList) []Param {
	if fl == nil {
		return nil
	}
	var params []Param
	for _, f := range fl.List {
		typ := types.ExprString(f.Type)
		if len(f.Names) == 0 {
			params = append(params, Param{Type: typ})
			continue
		}
		for _, n := range f.Names {
			params = append(params, Param{Name: n.Name, Type: typ})
		}
	}
	return params
}

// constants attaches typed constants to their named type.
func (c *collector) constants() {
	scope := c.pkg.Scope()
	var found []*types.Const
	for _, name := range scope.Names() {
		if obj, ok := scope.Lookup(name).(*types.Const); ok {
			found = append(found, obj)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Pos() < found[j].Pos() })

	for _, obj := range found {
		nt, ok := obj.Type().(*types.Named)
		if !ok || nt.Obj().Pkg() != c.pkg {
			continue
		}
		info, ok := c.types[nt.Obj().Name()]
		if !ok {
			continue
		}
		k := c.consts[obj.Name()]
		k.Name = obj.Name()
		k.Value = obj.Val()
		info.Constants = append(info.Constants, k)
	}
}

// interfaces records the package interfaces each type implements.
func (c *collector) interfaces() {
	scope := c.pkg.Scope()
	var ifaces []*types.TypeName
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok {
			continue
		}
		if it, ok := tn.Type().Underlying().(*types.Interface); ok && it.NumMethods() > 0 {
			ifaces = append(ifaces, tn)
		}
	}

	for name, info := range c.types {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || types.IsInterface(tn.Type()) {
			continue
		}
		for _, iface := range ifaces {
			it := iface.Type().Underlying().(*types.Interface)
			if types.Implements(tn.Type(), it) || types.Implements(types.NewPointer(tn.Type()), it) {
				info.Interfaces = append(info.Interfaces, Interface{
					Name:    iface.Name(),
					Methods: c.ifaces[iface.Name()],
				})
			}
		}
	}
}

func receiverType(expr ast.Expr) (string, bool) {
	pointer := false
	if star, ok := expr.(*ast.StarExpr); ok {
		pointer = true
		expr = star.X
	}
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name, pointer
	case *ast.IndexExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return id.Name, pointer
		}
	case *ast.IndexListExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return id.Name, pointer
		}
	}
	return "", pointer
}

func embeddedName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(t.X)
	case *ast.IndexListExpr:
		return embeddedName(t.X)
	}
	return ""
}
