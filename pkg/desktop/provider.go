// Package desktop exposes the local filesystem and default applications
// to the companion's tool set. Results are phrased for a language model
// to read back, not for machine parsing.
package desktop

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

const (
	// maxListEntries caps directory listings so a huge folder does not
	// flood the model's context.
	maxListEntries = 50

	// maxReadChars caps file contents for the same reason.
	maxReadChars = 5000
)

// Entry is one item of a structured directory listing.
type Entry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

// Provider performs the desktop-side work behind the companion's tools.
type Provider struct {
	logger *slog.Logger
	base   string

	// open launches the OS default handler for a file or URL.
	// Swappable for tests.
	open func(target string) error
}

// NewProvider creates a provider rooted at the user's Desktop folder.
func NewProvider(logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}

	base := ""
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, "Desktop")
	}

	return &Provider{
		logger: logger,
		base:   base,
		open:   systemOpen,
	}
}

// DesktopPath returns the directory used when a tool call gives no path.
func (p *Provider) DesktopPath() string {
	return p.base
}

// ParentPath returns the directory containing path.
func (p *Provider) ParentPath(path string) string {
	return filepath.Dir(p.resolve(path))
}

// resolve maps empty and relative paths onto the Desktop root.
func (p *Provider) resolve(path string) string {
	if path == "" {
		return p.base
	}
	if !filepath.IsAbs(path) {
		return filepath.Join(p.base, path)
	}
	return path
}

// ListFiles returns a readable summary of a directory. Folders carry a
// trailing slash so the model can tell them apart from files.
func (p *Provider) ListFiles(dirPath string) (string, error) {
	dir := p.resolve(dirPath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read directory %s: %w", dir, err)
	}
	if len(entries) == 0 {
		return "The directory is empty.", nil
	}

	truncated := false
	if len(entries) > maxListEntries {
		entries = entries[:maxListEntries]
		truncated = true
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}

	result := "Contents of directory: \n- " + strings.Join(names, "\n- ")
	if truncated {
		result += "\n...and more"
	}

	p.logger.Debug("listed directory", "path", dir, "entries", len(names))
	return result, nil
}

// List returns the structured form of a directory listing, for the
// dashboard's file browser.
func (p *Provider) List(dirPath string) ([]Entry, error) {
	dir := p.resolve(dirPath)

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, e := range dirEntries {
		entries = append(entries, Entry{
			Name:  e.Name(),
			Path:  filepath.Join(dir, e.Name()),
			IsDir: e.IsDir(),
		})
	}

	// Folders first, then lexical.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// ReadFile returns a file's contents, truncated past the size cap.
func (p *Provider) ReadFile(filePath string) (string, error) {
	path := p.resolve(filePath)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file %s: %w", path, err)
	}

	content := string(data)
	if len(content) > maxReadChars {
		content = content[:maxReadChars] + "... [Truncated]"
	}

	p.logger.Debug("read file", "path", path, "bytes", len(data))
	return content, nil
}

// OpenFile launches a file with its default application.
func (p *Provider) OpenFile(filePath string) (string, error) {
	path := p.resolve(filePath)

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	if err := p.open(path); err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}

	p.logger.Info("opened file", "path", path)
	return "Successfully opened: " + path, nil
}

// OpenBrowser launches a URL in the default browser.
func (p *Provider) OpenBrowser(url string) (string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	if err := p.open(url); err != nil {
		return "", fmt.Errorf("open browser: %w", err)
	}

	p.logger.Info("opened url", "url", url)
	return "Opened URL: " + url, nil
}

// CreateFolder makes a new directory.
func (p *Provider) CreateFolder(path string) (string, error) {
	dir := p.resolve(path)

	if _, err := os.Stat(dir); err == nil {
		return "Folder already exists.", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create folder %s: %w", dir, err)
	}
	return "Created folder: " + dir, nil
}

// CreateFile makes a new empty file.
func (p *Provider) CreateFile(path string) (string, error) {
	file := p.resolve(path)

	if _, err := os.Stat(file); err == nil {
		return "File already exists.", nil
	}
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		return "", fmt.Errorf("create file %s: %w", file, err)
	}
	return "Created file: " + file, nil
}

func systemOpen(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	return cmd.Start()
}
