// Package catalog holds the scan tools a user can pick from, loaded from a
// YAML file and reloaded when that file changes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"reconview/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

type Tool struct {
	Name        string `yaml:"name" json:"name"`
	Label       string `yaml:"label" json:"label"`
	Category    string `yaml:"category" json:"category"`
	Description string `yaml:"description" json:"description"`
	Default     bool   `yaml:"default" json:"default"`
}

type file struct {
	Tools []Tool `yaml:"tools"`
}

// Builtin is the backend's own tool set, used when no catalog file exists.
func Builtin() []Tool {
	return []Tool{
		{Name: "subfinder", Label: "Subfinder", Category: "subdomains", Description: "Passive subdomain discovery", Default: true},
		{Name: "amass", Label: "Amass", Category: "subdomains", Description: "In-depth attack surface mapping"},
		{Name: "sublist3r", Label: "Sublist3r", Category: "subdomains", Description: "Search engine subdomain enumeration"},
		{Name: "assetfinder", Label: "Assetfinder", Category: "subdomains", Description: "Related domains and subdomains"},
		{Name: "crt", Label: "crt.sh", Category: "subdomains", Description: "Certificate transparency logs"},
		{Name: "shuffledns", Label: "ShuffleDNS", Category: "subdomains", Description: "Active DNS bruteforce"},
		{Name: "nmap", Label: "Nmap", Category: "ports", Description: "Port and service scan", Default: true},
		{Name: "gau", Label: "GAU", Category: "urls", Description: "Known URLs from archives"},
		{Name: "gospider", Label: "GoSpider", Category: "urls", Description: "Web crawler"},
		{Name: "subdomainizer", Label: "SubDomainizer", Category: "findings", Description: "Secrets and endpoints in JavaScript"},
	}
}

// Parse decodes and normalises a catalog document.
func Parse(data []byte) ([]Tool, error) {
	var doc file
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	seen := make(map[string]bool, len(doc.Tools))
	tools := make([]Tool, 0, len(doc.Tools))
	for i, t := range doc.Tools {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			return nil, fmt.Errorf("catalog entry %d has no name", i)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("catalog lists %q twice", t.Name)
		}
		seen[t.Name] = true
		if t.Label == "" {
			t.Label = t.Name
		}
		tools = append(tools, t)
	}
	if len(tools) == 0 {
		return nil, errors.New("catalog has no tools")
	}
	return tools, nil
}

type Catalog struct {
	path   string
	logger *logger.Logger

	mu    sync.RWMutex
	tools []Tool
}

// Load reads path. A missing file yields the builtin tool set.
func Load(path string, log *logger.Logger) (*Catalog, error) {
	if log == nil {
		log = logger.Default()
	}
	c := &Catalog{path: path, logger: log}
	if err := c.reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// New returns a catalog serving tools with no backing file.
func New(tools []Tool) *Catalog {
	return &Catalog{tools: tools, logger: logger.Default()}
}

func (c *Catalog) reload() error {
	if c.path == "" {
		c.set(Builtin())
		return nil
	}
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		c.logger.WithField("path", c.path).Info("Tool catalog not found, using builtin tools")
		c.set(Builtin())
		return nil
	}
	if err != nil {
		return fmt.Errorf("read catalog %s: %w", c.path, err)
	}
	tools, err := Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", c.path, err)
	}
	c.set(tools)
	c.logger.WithFields(logger.Fields{"path": c.path, "tools": len(tools)}).Info("Loaded tool catalog")
	return nil
}

func (c *Catalog) set(tools []Tool) {
	c.mu.Lock()
	c.tools = tools
	c.mu.Unlock()
}

func (c *Catalog) Tools() []Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Tool(nil), c.tools...)
}

func (c *Catalog) Lookup(name string) (Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Defaults lists the names preselected on the submission form.
func (c *Catalog) Defaults() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var names []string
	for _, t := range c.tools {
		if t.Default {
			names = append(names, t.Name)
		}
	}
	return names
}

// Unknown returns the requested names that are not in the catalog.
func (c *Catalog) Unknown(names []string) []string {
	var unknown []string
	for _, n := range names {
		if _, ok := c.Lookup(n); !ok {
			unknown = append(unknown, n)
		}
	}
	return unknown
}

// Watch reloads the catalog whenever its file is written, created or renamed
// into place, until ctx is done. A file that fails to parse leaves the
// previous tools in place.
func (c *Catalog) Watch(ctx context.Context, debounce time.Duration) error {
	if c.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()

		ticker := time.NewTicker(debounce)
		defer ticker.Stop()
		pending := false
		target := filepath.Clean(c.path)

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
					pending = true
				}

			case <-ticker.C:
				if !pending {
					continue
				}
				pending = false
				if err := c.reload(); err != nil {
					c.logger.WithError(err).Warn("Keeping previous tool catalog")
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.WithError(err).WithField("path", c.path).Error("Catalog watcher error")

			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}
