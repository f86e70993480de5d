package vardump

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/conduit-lang/vardump/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestInspector(t *testing.T, overrides map[string]any, opts ...Option) *Inspector {
	t.Helper()
	s := settings.Defaults()
	if len(overrides) > 0 {
		s = s.MustWith(overrides)
	}
	opts = append([]Option{withSettings(s), WithoutSource()}, opts...)
	vd, err := New(opts...)
	require.NoError(t, err)
	return vd
}

// ticker returns a clock that advances one second per reading.
func ticker() func() time.Time {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

type order struct {
	ID    int
	Items []string
}

func TestDump(t *testing.T) {
	vd := newTestInspector(t, nil)
	o := order{ID: 7, Items: []string{"apple", "pear"}}

	out := vd.Dump(o)

	assert.Contains(t, out, "<style>")
	assert.Contains(t, out, "Analysis of vardump.order")
	assert.Contains(t, out, `<span class="vd-name">o</span>`)
	assert.Contains(t, out, "apple")
	assert.Contains(t, out, "vardump_test.go:")
}

func TestDumpAssetsOnlyOnce(t *testing.T) {
	vd := newTestInspector(t, nil)

	first := vd.Dump(1)
	second := vd.Dump(2)

	assert.Contains(t, first, "<style>")
	assert.NotContains(t, second, "<style>")
}

func TestDumpHeadline(t *testing.T) {
	vd := newTestInspector(t, nil)

	out := vd.Dump(42, "before", "checkout")

	assert.Contains(t, out, `<span class="vd-title">before checkout</span>`)
}

func TestDumpDisabled(t *testing.T) {
	vd := newTestInspector(t, map[string]any{settings.Disabled: true})

	assert.Empty(t, vd.Dump(order{ID: 1}))
	assert.Empty(t, vd.Backtrace())

	var buf bytes.Buffer
	require.NoError(t, vd.Fdump(&buf, 1))
	assert.Zero(t, buf.Len())
}

func TestDumpLanguage(t *testing.T) {
	vd := newTestInspector(t, map[string]any{settings.Language: "de"})

	out := vd.Dump(1)

	assert.Contains(t, out, "Aufgerufen von")
}

func TestDumpUnknownSkinFallsBack(t *testing.T) {
	vd := newTestInspector(t, map[string]any{settings.Skin: "missing"})

	out := vd.Dump(1)

	assert.Contains(t, out, "vd-root")
	assert.Contains(t, out, "vd-message-error")
	assert.Contains(t, out, "available: ")
	for _, name := range vd.Skins() {
		assert.Contains(t, out, name)
	}
}

func TestDumpToFile(t *testing.T) {
	dir := t.TempDir()
	vd := newTestInspector(t, map[string]any{settings.Destination: DestinationFile}, WithLogDir(dir))

	out := vd.Dump(order{ID: 3})
	assert.Empty(t, out)

	files, err := filepath.Glob(filepath.Join(dir, "vardump-*.html"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "vd-root")
}

func TestFdump(t *testing.T) {
	t.Run("markup", func(t *testing.T) {
		vd := newTestInspector(t, nil, WithInteractive(true))
		var buf bytes.Buffer

		require.NoError(t, vd.Fdump(&buf, "hello"))

		assert.Contains(t, buf.String(), "vd-root")
	})

	t.Run("transcript", func(t *testing.T) {
		vd := newTestInspector(t, map[string]any{settings.MaxCallCount: 1}, WithInteractive(false))
		var buf bytes.Buffer

		require.NoError(t, vd.Fdump(&buf, []int{1, 2, 3}))

		out := buf.String()
		assert.Contains(t, out, "vardump: Analysis of []int")
		assert.Contains(t, out, "Called from")
		assert.Contains(t, out, "[warning]")
		assert.Contains(t, out, "Analysis took")
		assert.NotContains(t, out, "vd-root")
	})
}

func TestOn(t *testing.T) {
	vd := newTestInspector(t, nil)

	err := vd.On("Scalar::during", func(*HookContext) (string, error) { return "", nil })
	assert.Error(t, err)

	err = vd.On(Before(StageScalar), func(ctx *HookContext) (string, error) {
		return "<b>replaced</b>", nil
	})
	require.NoError(t, err)

	assert.Contains(t, vd.Dump(5), "<b>replaced</b>")
}

func TestOnLogsHookCount(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	vd := newTestInspector(t, nil, WithLogger(zap.New(core)))

	require.NoError(t, vd.On(Before(StageScalar), func(*HookContext) (string, error) { return "", nil }))
	require.NoError(t, vd.On(After(StageScalar), func(*HookContext) (string, error) { return "", nil }))

	entries := logs.FilterMessage("hook registered").All()
	require.Len(t, entries, 2)
	assert.EqualValues(t, 2, entries[1].ContextMap()["hooks"])
}

func TestOnFailingHookIsReported(t *testing.T) {
	vd := newTestInspector(t, nil)
	require.NoError(t, vd.On(After(StageScalar), func(*HookContext) (string, error) {
		return "", errors.New("boom")
	}))

	out := vd.Dump(5)

	assert.Contains(t, out, "vd-message-warning")
	assert.Contains(t, out, `<span class="vd-normal">5</span>`)
}

func TestForRequest(t *testing.T) {
	vd := newTestInspector(t, nil)

	t.Run("cookie overrides", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{
			Name:  settings.CookieName,
			Value: settings.EncodeCookie(map[string]any{settings.Language: "de"}),
		})

		c, err := vd.ForRequest(r)
		require.NoError(t, err)

		assert.Equal(t, "de", c.settings.String(settings.Language))
		assert.Equal(t, settings.SourceCookie, c.settings.Source(settings.Language))
		assert.Equal(t, "en", vd.settings.String(settings.Language))
	})

	t.Run("fixed setting rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{
			Name:  settings.CookieName,
			Value: settings.EncodeCookie(map[string]any{settings.Destination: "file"}),
		})

		c, err := vd.ForRequest(r)
		require.Error(t, err)

		assert.Equal(t, DestinationBrowser, c.settings.String(settings.Destination))
	})
}

func TestTimer(t *testing.T) {
	vd := newTestInspector(t, nil, withClock(ticker()))

	vd.TimerMoment("start")
	vd.TimerMoment("query")
	out := vd.TimerEnd()

	assert.Contains(t, out, `<span class="vd-title">Timer</span>`)
	assert.Contains(t, out, "start")
	assert.Contains(t, out, "query")
	assert.Contains(t, out, "1s (+1s)")
	assert.Contains(t, out, "2s (+1s)")
	assert.Empty(t, vd.moments)
}

type link struct {
	Label string
	Next  *link
}

func linkedList(n int, tail string) *link {
	head := &link{Label: tail}
	for i := n - 1; i > 0; i-- {
		head = &link{Label: "node", Next: head}
	}
	return head
}

func TestDumpDeepListIsLinear(t *testing.T) {
	vd := newTestInspector(t, map[string]any{
		settings.MaxRecursionLevel: 10000,
		settings.MaxCallCount:      100000,
	})

	list := linkedList(2000, "tail-of-list")

	start := time.Now()
	out := vd.Dump(list)

	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Contains(t, out, "tail-of-list")
	assert.NotContains(t, out, "Output truncated")
}

func TestDumpDeepListHonoursRuntimeLimit(t *testing.T) {
	vd := newTestInspector(t, map[string]any{
		settings.MaxRecursionLevel: 100000,
		settings.MaxCallCount:      200000,
		settings.MaxRuntimeSeconds: 30,
	}, withClock(ticker()))

	list := linkedList(50000, "tail-of-list")

	start := time.Now()
	out := vd.Dump(list)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Contains(t, out, "Output truncated, analysis stopped here.")
	assert.NotContains(t, out, "tail-of-list")
	assert.Equal(t, 1, strings.Count(out, "Output truncated, analysis stopped here."))
}

func TestBacktrace(t *testing.T) {
	vd := newTestInspector(t, nil)

	out := vd.Backtrace()

	assert.Contains(t, out, "Backtrace")
	assert.Contains(t, out, "TestBacktrace")
	assert.Contains(t, out, "vardump_test.go")
}

type letters []string

func (l letters) Iterate(yield func(key, value any) bool) {
	for i, s := range l {
		if !yield(strings.ToUpper(s), i) {
			return
		}
	}
}

func TestCollect(t *testing.T) {
	assert.Empty(t, Collect(nil))
	assert.Equal(t, map[any]any{"A": 0, "B": 1}, Collect(letters{"a", "b"}))
}

func TestArgumentOf(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{line: `vd.Dump(order)`, want: "order"},
		{line: `	fmt.Fprint(w, vd.Dump(&req.Body, "body"))`, want: "req.Body"},
		{line: `_ = vardump.Dump(items[2])`, want: "items[2]"},
		{line: `vd.Fdump(os.Stdout, cfg.Server)`, want: "cfg.Server"},
		{line: `vd.Dump(load(x))`, want: ""},
		{line: `vd.Dump(a, "b") // call (note)`, want: "a"},
		{line: `log.Println(x)`, want: ""},
		{line: ``, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, argumentOf(tt.line))
		})
	}
}

func TestCallSiteRootName(t *testing.T) {
	assert.Equal(t, "value", callSite{}.rootName())
	assert.Equal(t, "", callSite{}.String())
	assert.Equal(t, "x.go:3", callSite{File: "x.go", Line: 3}.String())
}
