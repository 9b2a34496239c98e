package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteNote writes a markdown note under dir. When frontmatter is non-empty it
// is wrapped in "---" delimiter lines ahead of body.
func WriteNote(t testing.TB, dir, name, frontmatter, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	var b strings.Builder
	if frontmatter != "" {
		b.WriteString("---\n")
		b.WriteString(frontmatter)
		if !strings.HasSuffix(frontmatter, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("---\n")
	}
	b.WriteString(body)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ReadFile returns the file contents or fails the test.
func ReadFile(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
