package analysis

import (
	"bytes"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/conduit-lang/vardump/internal/model"
	"github.com/conduit-lang/vardump/internal/shape"
	"github.com/segmentio/encoding/json"
)

// previewRunes is the length of the string preview; longer strings are
// shown in full in the extra area.
const previewRunes = 50

// Unix timestamps between 2001-09-09 and 2286-11-20 have ten digits.
const (
	minTimestamp = 1_000_000_000
	maxTimestamp = 9_999_999_999
)

func (r *Routing) analyseScalar(w *bytes.Buffer, n *model.Node) {
	v := shape.Indirect(n.Value)
	n.Type = typeLabel(n.Value)

	switch n.Tag {
	case shape.Null:
		n.Normal = "nil"
		w.WriteString(r.render.SingleChild(n))
		return
	case shape.Bool:
		n.Normal = strconv.FormatBool(v.Bool())
	case shape.Int:
		r.formatInt(n, v)
	case shape.Float:
		n.Normal = formatFloat(v)
	case shape.String:
		r.formatString(n, v.String())
	}

	if r.opts.Constants && !underConstants(n) {
		if info, ok := r.index.Type(v.Type()); ok && len(info.Constants) > 0 {
			r.namedScalar(w, n, v, info)
			return
		}
	}
	w.WriteString(r.render.SingleChild(n))
}

func (r *Routing) formatInt(n *model.Node, v reflect.Value) {
	if v.CanInt() {
		i := v.Int()
		n.Normal = strconv.FormatInt(i, 10)
		r.timestampHint(n, i)
		return
	}
	u := v.Uint()
	n.Normal = strconv.FormatUint(u, 10)
	if u <= maxTimestamp {
		r.timestampHint(n, int64(u))
	}
}

func formatFloat(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Complex64, reflect.Complex128:
		return strconv.FormatComplex(v.Complex(), 'g', -1, v.Type().Bits())
	}
	return strconv.FormatFloat(v.Float(), 'g', -1, v.Type().Bits())
}

func (r *Routing) timestampHint(n *model.Node, i int64) {
	if i < minTimestamp || i > maxTimestamp {
		return
	}
	n.AddMeta("metaHint", r.text("metaTimestamp", time.Unix(i, 0).UTC().Format(time.RFC3339)))
}

func (r *Routing) formatString(n *model.Node, s string) {
	visible := visibleString(s)
	n.AddMeta("metaLength", strconv.Itoa(len(s)))
	switch {
	case !utf8.ValidString(s):
		n.AddMeta("metaEncoding", "invalid UTF-8")
	case utf8.RuneCountInString(s) != len(s):
		n.AddMeta("metaEncoding", "UTF-8")
	}

	if utf8.RuneCountInString(visible) > previewRunes {
		n.Normal = string([]rune(visible)[:previewRunes]) + " . . ."
		n.Extra = visible
	} else {
		n.Normal = visible
	}
	r.stringHints(n, s)
}

func (r *Routing) stringHints(n *model.Node, s string) {
	if len(s) == 10 && strings.TrimLeft(s, "0123456789") == "" {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			r.timestampHint(n, i)
		}
	}
	if len(s) >= 2 && (s[0] == '{' || s[0] == '[') && json.Valid([]byte(s)) {
		n.AddMeta("metaHint", r.text("metaJSON"))
	}
	if len(s) < 4096 && (strings.HasPrefix(s, "/") || strings.HasPrefix(s, "./")) && !strings.ContainsRune(s, '\n') {
		if _, err := os.Stat(s); err == nil {
			n.AddMeta("metaHint", r.text("metaFilePath"))
		}
	}
}

// visibleString escapes control characters and invalid bytes so that they
// show up in the output instead of disappearing.
func visibleString(s string) string {
	clean := true
	for _, c := range s {
		if c == utf8.RuneError || unicode.IsControl(c) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		c, width := utf8.DecodeRuneInString(s[i:])
		switch {
		case c == utf8.RuneError && width == 1:
			b.WriteString(`\x` + strconv.FormatUint(uint64(s[i])+0x100, 16)[1:])
		case unicode.IsControl(c):
			q := strconv.QuoteRune(c)
			b.WriteString(q[1 : len(q)-1])
		default:
			b.WriteString(s[i : i+width])
		}
		i += width
	}
	return b.String()
}
