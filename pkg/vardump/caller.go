package vardump

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/conduit-lang/vardump/internal/source"
)

// defaultRootName starts generated expressions when the call site cannot
// be read.
const defaultRootName = "value"

var dumpCall = regexp.MustCompile(`\b(Dump|Fdump)\s*\(`)

// callSite is where a dump was requested.
type callSite struct {
	File     string
	Line     int
	Function string
	// Text is the source line, empty when unreadable.
	Text string
}

// caller returns the call site skip frames above the caller of caller.
func caller(skip int) callSite {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return callSite{}
	}
	c := callSite{File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		c.Function = fn.Name()
	}
	c.Text, _ = source.ReadLine(file, line)
	return c
}

// String formats the call site as file:line.
func (c callSite) String() string {
	if c.File == "" {
		return ""
	}
	return c.File + ":" + strconv.Itoa(c.Line)
}

// rootName extracts the dumped expression from the source line, so that
// generated code starts from the caller's variable.
func (c callSite) rootName() string {
	if name := argumentOf(c.Text); name != "" {
		return name
	}
	return defaultRootName
}

// argumentOf parses the first Dump or Fdump call on line and returns its
// value argument when it is a plain selector expression.
func argumentOf(line string) string {
	m := dumpCall.FindStringSubmatchIndex(line)
	if m == nil {
		return ""
	}
	fdump := line[m[2]:m[3]] == "Fdump"
	rest := line[m[1]-1:]

	// The call ends at some closing parenthesis; take the longest prefix
	// that parses.
	for j := len(rest); j > 0; j-- {
		if rest[j-1] != ')' {
			continue
		}
		expr, err := parser.ParseExpr("f" + rest[:j])
		if err != nil {
			continue
		}
		call, ok := expr.(*ast.CallExpr)
		if !ok {
			return ""
		}
		idx := 0
		if fdump {
			idx = 1
		}
		if len(call.Args) <= idx {
			return ""
		}
		return rootExpr(call.Args[idx])
	}
	return ""
}

func rootExpr(e ast.Expr) string {
	if u, ok := e.(*ast.UnaryExpr); ok && u.Op == token.AND {
		e = u.X
	}
	switch e.(type) {
	case *ast.Ident, *ast.SelectorExpr, *ast.IndexExpr:
		s := types.ExprString(e)
		if strings.ContainsAny(s, "\n") {
			return ""
		}
		return s
	}
	return ""
}
