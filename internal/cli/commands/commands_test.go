package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conduit-lang/vardump/internal/render"
	"github.com/conduit-lang/vardump/internal/settings"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "vardump", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"version", "demo", "config", "serve"})
}

func TestVersionCommand(t *testing.T) {
	Version = "1.0.0-test"
	GitCommit = "abc123"

	out, _, err := run(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "vardump version: 1.0.0-test")
	assert.Contains(t, out, "abc123")
}

func TestDemoCommand(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		out, _, err := run(t, "demo", "--no-source")

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
		assert.Contains(t, out, "demo shop")
		assert.Contains(t, out, "Corner Tea Shop")
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "demo.html")

		out, stderr, err := run(t, "demo", "--no-source", "--backtrace", "--language", "de", "-o", path)

		require.NoError(t, err)
		assert.Empty(t, out)
		assert.Contains(t, stderr, "✓ Wrote "+path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Aufgerufen von")
		assert.Contains(t, string(data), "vd-root")
	})

	t.Run("invalid dialect", func(t *testing.T) {
		_, _, err := run(t, "demo", "--no-source", "--dialect", "cobol")

		var cfgErr *configError
		assert.True(t, errors.As(err, &cfgErr))
	})
}

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vardump.yml")
	require.NoError(t, settings.WriteFile(path, map[string]any{settings.Skin: "custom"}))

	out, _, err := run(t, "config", "show", "--no-source", "--config", path)

	require.NoError(t, err)
	sections := strings.Split(strings.TrimSpace(out), "\n\n")
	require.Len(t, sections, 2)

	lines := strings.Split(sections[0], "\n")
	require.Len(t, lines, len(settings.Definitions)+4)
	assert.Equal(t, "Settings", lines[0])
	assert.Equal(t, "────────", lines[1])
	assert.Contains(t, lines[2], "SETTING")

	var skinLine string
	for _, l := range lines {
		if strings.HasPrefix(l, settings.Skin+" ") {
			skinLine = l
		}
	}
	assert.Regexp(t, `^skin\s+custom\s+file\s+true$`, strings.TrimSpace(skinLine))

	skins := strings.Split(sections[1], "\n")
	assert.Equal(t, "Skins", skins[0])
	var names []string
	for _, l := range skins[2:] {
		names = append(names, strings.TrimSpace(l))
	}
	assert.Contains(t, names, render.DefaultSkin)
	assert.ElementsMatch(t, render.BuiltinSkins(), names)
}

func TestExecuteFormatsErrors(t *testing.T) {
	cmd := NewRootCommand()
	var stderr bytes.Buffer
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"bogus"})

	err := execute(cmd)

	require.Error(t, err)
	assert.Contains(t, stderr.String(), "❌ unknown command \"bogus\"")
	assert.Contains(t, stderr.String(), "→ Usage: vardump --help")

	stderr.Reset()
	cmd = NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"config", "show", "--config", filepath.Join(t.TempDir(), "missing.yml")})

	require.Error(t, execute(cmd))
	assert.Contains(t, stderr.String(), "CONFIGURATION ERROR")
}

func TestConfigShowBrokenFile(t *testing.T) {
	_, _, err := run(t, "config", "show", "--config", filepath.Join(t.TempDir(), "missing.yml"))

	var cfgErr *configError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestConfigGet(t *testing.T) {
	out, _, err := run(t, "config", "get", "--no-source", settings.MaxCallCount)
	require.NoError(t, err)
	assert.Equal(t, "10000\n", out)

	_, stderr, err := run(t, "config", "get", "max-cal-count")
	assert.ErrorIs(t, err, settings.ErrUnknownSetting)
	assert.Contains(t, stderr, "UNKNOWN SETTING: max-cal-count")
	assert.Contains(t, stderr, "Did you mean: max-call-count?")
}

func TestConfigInit(t *testing.T) {
	answers := map[string]string{
		settings.Language:          "de",
		settings.MaxRecursionLevel: "3",
	}
	ask := func(def settings.Definition, current string) (string, error) {
		if a, ok := answers[def.Key]; ok {
			return a, nil
		}
		return current, nil
	}

	t.Run("writes answers", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vardump.yml")
		cmd := &cobra.Command{}
		var out bytes.Buffer
		cmd.SetOut(&out)

		require.NoError(t, runConfigInit(cmd, path, false, ask))
		assert.Contains(t, out.String(), "✓ Wrote")

		s, err := settings.Load(settings.LoadOptions{File: path, SkipEnv: true})
		require.NoError(t, err)
		assert.Equal(t, "de", s.String(settings.Language))
		assert.Equal(t, 3, s.Int(settings.MaxRecursionLevel))
		assert.Equal(t, "smokygrey", s.String(settings.Skin))
		assert.Equal(t, settings.SourceFile, s.Source(settings.Language))
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vardump.yml")
		require.NoError(t, os.WriteFile(path, []byte("language: en\n"), 0o644))

		err := runConfigInit(&cobra.Command{}, path, false, ask)
		assert.ErrorContains(t, err, "already exists")

		require.NoError(t, runConfigInit(&cobra.Command{}, path, true, ask))
	})

	t.Run("defaults flag", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vardump.yml")

		_, _, err := run(t, "config", "init", "--yes", "--file", path)

		require.NoError(t, err)
		s, err := settings.Load(settings.LoadOptions{File: path, SkipEnv: true})
		require.NoError(t, err)
		assert.Equal(t, "en", s.String(settings.Language))
	})

	t.Run("invalid answer", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vardump.yml")
		bad := func(def settings.Definition, current string) (string, error) {
			if def.Key == settings.Dialect {
				return "cobol", nil
			}
			return current, nil
		}

		err := runConfigInit(&cobra.Command{}, path, false, bad)
		assert.ErrorIs(t, err, settings.ErrInvalidValue)
	})
}
