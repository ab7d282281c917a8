package buildinfo

import (
	"strings"
	"testing"
)

func TestCacheScope(t *testing.T) {
	defer func(v, c string) { Version, Commit = v, c }(Version, Commit)

	Version, Commit = "dev", "none"
	if got := CacheScope(); got != "dev" {
		t.Errorf("CacheScope() = %q, want dev", got)
	}

	Version, Commit = "v1.2.0", "0123456789abcdef"
	if got := CacheScope(); got != "v1.2.0-0123456" {
		t.Errorf("CacheScope() = %q, want v1.2.0-0123456", got)
	}
}

func TestTemplate(t *testing.T) {
	if !strings.Contains(Template(), "{{.Name}} version "+Version) {
		t.Errorf("Template() = %q", Template())
	}
	if !strings.HasPrefix(String(), "version: ") {
		t.Errorf("String() = %q", String())
	}
}
