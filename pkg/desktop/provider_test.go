package desktop

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testProvider(t *testing.T) *Provider {
	t.Helper()
	p := NewProvider(nil)
	p.base = t.TempDir()
	p.open = func(target string) error { return nil }
	return p
}

func TestListFilesEmpty(t *testing.T) {
	p := testProvider(t)

	result, err := p.ListFiles("")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if result != "The directory is empty." {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestListFilesMarksDirectories(t *testing.T) {
	p := testProvider(t)

	if err := os.Mkdir(filepath.Join(p.base, "docs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(p.base, "note.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := p.ListFiles("")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if !strings.HasPrefix(result, "Contents of directory: \n- ") {
		t.Errorf("unexpected prefix: %q", result)
	}
	if !strings.Contains(result, "docs/") {
		t.Errorf("directories should carry a trailing slash: %q", result)
	}
	if !strings.Contains(result, "note.txt") {
		t.Errorf("missing file entry: %q", result)
	}
}

func TestListFilesTruncates(t *testing.T) {
	p := testProvider(t)

	for i := 0; i < maxListEntries+10; i++ {
		name := filepath.Join(p.base, fmt.Sprintf("f%03d.txt", i))
		if err := os.WriteFile(name, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	result, err := p.ListFiles("")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if !strings.HasSuffix(result, "\n...and more") {
		t.Errorf("oversized listing should end with the truncation marker: %q", result[len(result)-40:])
	}
	if got := strings.Count(result, "\n- "); got != maxListEntries {
		t.Errorf("expected %d entries, got %d", maxListEntries, got)
	}
}

func TestListFilesMissingDir(t *testing.T) {
	p := testProvider(t)

	if _, err := p.ListFiles(filepath.Join(p.base, "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestReadFile(t *testing.T) {
	p := testProvider(t)

	path := filepath.Join(p.base, "a.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	content, err := p.ReadFile("a.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if content != "hello world" {
		t.Errorf("unexpected content: %q", content)
	}
}

func TestReadFileTruncates(t *testing.T) {
	p := testProvider(t)

	path := filepath.Join(p.base, "big.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", maxReadChars+100)), 0o644); err != nil {
		t.Fatal(err)
	}

	content, err := p.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.HasSuffix(content, "... [Truncated]") {
		t.Error("oversized content should end with the truncation marker")
	}
	if len(content) != maxReadChars+len("... [Truncated]") {
		t.Errorf("unexpected truncated length %d", len(content))
	}
}

func TestOpenFile(t *testing.T) {
	p := testProvider(t)

	var opened string
	p.open = func(target string) error {
		opened = target
		return nil
	}

	path := filepath.Join(p.base, "doc.pdf")
	if err := os.WriteFile(path, []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := p.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if result != "Successfully opened: "+path {
		t.Errorf("unexpected result: %q", result)
	}
	if opened != path {
		t.Errorf("opener received %q", opened)
	}
}

func TestOpenFileMissing(t *testing.T) {
	p := testProvider(t)

	if _, err := p.OpenFile(filepath.Join(p.base, "ghost.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestOpenBrowserAddsScheme(t *testing.T) {
	p := testProvider(t)

	var opened string
	p.open = func(target string) error {
		opened = target
		return nil
	}

	result, err := p.OpenBrowser("example.com")
	if err != nil {
		t.Fatalf("OpenBrowser failed: %v", err)
	}
	if opened != "https://example.com" {
		t.Errorf("bare domains should get https, got %q", opened)
	}
	if result != "Opened URL: https://example.com" {
		t.Errorf("unexpected result: %q", result)
	}

	if _, err := p.OpenBrowser("http://plain.example"); err != nil {
		t.Fatal(err)
	}
	if opened != "http://plain.example" {
		t.Errorf("explicit scheme should pass through, got %q", opened)
	}
}

func TestCreateFolderAndFile(t *testing.T) {
	p := testProvider(t)

	if _, err := p.CreateFolder("projects"); err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	result, err := p.CreateFolder("projects")
	if err != nil {
		t.Fatalf("CreateFolder failed: %v", err)
	}
	if result != "Folder already exists." {
		t.Errorf("unexpected result: %q", result)
	}

	if _, err := p.CreateFile("projects/todo.txt"); err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}
	result, err = p.CreateFile("projects/todo.txt")
	if err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}
	if result != "File already exists." {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestListStructured(t *testing.T) {
	p := testProvider(t)

	if err := os.Mkdir(filepath.Join(p.base, "zdir"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(p.base, "afile"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := p.List("")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].IsDir || entries[0].Name != "zdir" {
		t.Errorf("directories should sort first: %+v", entries)
	}
}

func TestToolsResolve(t *testing.T) {
	p := testProvider(t)
	tools := Tools(p)

	if len(tools) != 4 {
		t.Fatalf("expected 4 tools, got %d", len(tools))
	}

	byName := make(map[string]int)
	for i, tool := range tools {
		byName[tool.Name] = i
	}
	for _, name := range []string{"listFiles", "readFile", "openFile", "openBrowser"} {
		if _, ok := byName[name]; !ok {
			t.Errorf("missing tool %q", name)
		}
	}

	// Failures become readable strings, not errors.
	result, err := tools[byName["readFile"]].Handler(map[string]any{"filePath": "/does/not/exist"})
	if err != nil {
		t.Fatalf("handler should not return an error: %v", err)
	}
	if !strings.HasPrefix(result, "Error reading file: ") {
		t.Errorf("unexpected failure phrasing: %q", result)
	}

	result, err = tools[byName["listFiles"]].Handler(map[string]any{"dirPath": "/does/not/exist"})
	if err != nil {
		t.Fatalf("handler should not return an error: %v", err)
	}
	if !strings.HasPrefix(result, "Error: ") || strings.HasPrefix(result, "Error reading file:") {
		t.Errorf("unexpected failure phrasing: %q", result)
	}
}
