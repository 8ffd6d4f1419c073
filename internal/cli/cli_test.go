package cli

import (
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/fpbviz/fpbviz/pkg/cache"
)

func TestParseFormats(t *testing.T) {
	if got := parseFormats(""); !reflect.DeepEqual(got, []string{"json"}) {
		t.Errorf("parseFormats(\"\") = %v, want [json]", got)
	}
	if got := parseFormats("dot,svg"); !reflect.DeepEqual(got, []string{"dot", "svg"}) {
		t.Errorf("parseFormats(\"dot,svg\") = %v, want [dot svg]", got)
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "models/brewing.json", filepath.Join("models", "brewing")},
		{"out.svg", "brewing.json", "out"},
		{"out", "brewing.json", "out"},
		{"diagram.final", "brewing.json", "diagram.final"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestCacheDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-cache", appName) {
		t.Errorf("cacheDir = %s, want under XDG_CACHE_HOME", dir)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := map[string]bool{"layout": false, "render": false, "serve": false, "cache": false, "completion": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("root command missing subcommand %s", name)
		}
	}
}

func TestBuildRunnerScopesServerKeys(t *testing.T) {
	r := buildRunner(cache.NewNullCache(), nil)

	for name, key := range map[string]string{
		"model":  r.Keyer.ModelKey("abc"),
		"layout": r.Keyer.LayoutKey("abc", cache.LayoutKeyOpts{}),
		"export": r.Keyer.ExportKey("abc", cache.ExportKeyOpts{Format: "json"}),
	} {
		if !strings.HasPrefix(key, serverKeyPrefix) {
			t.Errorf("%s cache key %q missing the %q namespace", name, key, serverKeyPrefix)
		}
	}
}
