package tooling

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Func is a capability function. Expected failures are returned as result
// strings beginning with "Error"; a Go error means the call itself was invalid.
type Func func(ctx context.Context, args ...string) (string, error)

// Capability is a named group of functions.
type Capability struct {
	Name      string
	functions map[string]Func
}

// NewCapability returns an empty capability.
func NewCapability(name string) *Capability {
	return &Capability{Name: name, functions: make(map[string]Func)}
}

// Add registers fn under name and returns the capability for chaining.
func (c *Capability) Add(name string, fn Func) *Capability {
	c.functions[name] = fn
	return c
}

// Lookup returns the named function.
func (c *Capability) Lookup(name string) (Func, bool) {
	fn, ok := c.functions[name]
	return fn, ok
}

// FunctionNames lists the capability's functions, sorted.
func (c *Capability) FunctionNames() []string {
	names := make([]string, 0, len(c.functions))
	for name := range c.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NotFoundError reports an unknown capability or function.
type NotFoundError struct {
	Capability string
	Function   string
}

func (e *NotFoundError) Error() string {
	if e.Function == "" {
		return fmt.Sprintf("capability '%s' not found", e.Capability)
	}
	return fmt.Sprintf("function '%s' not found in capability '%s'", e.Function, e.Capability)
}

// ArgumentError reports a call with the wrong number of arguments.
type ArgumentError struct {
	Function string
	Want     string
	Got      int
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s() takes %s argument(s) but %d were given", e.Function, e.Want, e.Got)
}

func checkArgs(function string, args []string, min, max int) error {
	if len(args) >= min && (max < 0 || len(args) <= max) {
		return nil
	}
	want := fmt.Sprint(min)
	switch {
	case max < 0:
		want = fmt.Sprintf("at least %d", min)
	case max != min:
		want = fmt.Sprintf("%d to %d", min, max)
	}
	return &ArgumentError{Function: function, Want: want, Got: len(args)}
}

// Registry maps capability names to capabilities.
type Registry struct {
	mu   sync.RWMutex
	caps map[string]*Capability
}

func NewRegistry(caps ...*Capability) *Registry {
	r := &Registry{caps: make(map[string]*Capability, len(caps))}
	for _, c := range caps {
		r.Register(c)
	}
	return r
}

// Register adds c, replacing any capability with the same name as a whole.
func (r *Registry) Register(c *Capability) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caps[c.Name] = c
}

func (r *Registry) Lookup(name string) (*Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.caps[name]
	return c, ok
}

// Names lists registered capabilities, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.caps))
	for name := range r.caps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Functions lists the functions of the named capability, or nil when unknown.
func (r *Registry) Functions(name string) []string {
	c, ok := r.Lookup(name)
	if !ok {
		return nil
	}
	return c.FunctionNames()
}

// Invoke calls capability.function with args and returns its raw result.
func (r *Registry) Invoke(ctx context.Context, capability, function string, args ...string) (string, error) {
	c, ok := r.Lookup(capability)
	if !ok {
		return "", &NotFoundError{Capability: capability}
	}
	fn, ok := c.Lookup(function)
	if !ok {
		return "", &NotFoundError{Capability: capability, Function: function}
	}
	return fn(ctx, args...)
}

// Describe renders one "name: fn1, fn2" line per capability.
func (r *Registry) Describe() string {
	names := r.Names()
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, name+": "+strings.Join(r.Functions(name), ", "))
	}
	return strings.Join(lines, "\n")
}

// Options configures the built-in capabilities.
type Options struct {
	WorkspaceRoot string
	HTTPTimeout   time.Duration
	SearchBaseURL string
	SearchResults int
	Logger        zerolog.Logger
}

// DefaultCapabilities builds the four built-in capabilities.
func DefaultCapabilities(opts Options) []*Capability {
	timeout := opts.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	web := newWebClient(timeout, opts.Logger)
	return []*Capability{
		FileOperations(newPathGuard(opts.WorkspaceRoot)),
		WebOperations(web),
		GoogleSearch(web, opts.SearchBaseURL, opts.SearchResults),
		JSONOperations(),
	}
}

// pathGuard confines file names to the workspace root.
type pathGuard struct {
	root string
}

func newPathGuard(root string) pathGuard {
	if strings.TrimSpace(root) == "" {
		root = "workspace"
	}
	return pathGuard{root: filepath.Clean(root)}
}

// sanitize normalizes name and strips leading separators and parent segments.
func sanitize(name string) string {
	cleaned := filepath.Clean(filepath.FromSlash(strings.TrimSpace(name)))
	sep := string(os.PathSeparator)
	for {
		trimmed := strings.TrimLeft(cleaned, sep)
		switch {
		case trimmed == "..":
			trimmed = ""
		case strings.HasPrefix(trimmed, ".."+sep):
			trimmed = trimmed[len(".."+sep):]
		}
		if trimmed == cleaned {
			break
		}
		cleaned = trimmed
	}
	if vol := filepath.VolumeName(cleaned); vol != "" {
		cleaned = strings.TrimLeft(cleaned[len(vol):], sep)
	}
	if cleaned == "." {
		return ""
	}
	return cleaned
}

// Resolve returns the workspace path for name and ensures the root exists.
func (p pathGuard) Resolve(name string) (string, error) {
	if err := os.MkdirAll(p.root, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(p.root, sanitize(name)), nil
}
