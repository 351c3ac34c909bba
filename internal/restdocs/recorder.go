package restdocs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrNoExchange is returned by DocumentLast before anything was observed
var ErrNoExchange = errors.New("no exchange recorded")

// Recorder is an Observer that keeps exchanges and writes snippets for the
// ones a caller chooses to document.
type Recorder struct {
	dir      string
	defaults []Snippet
	pretty   bool

	mu         sync.Mutex
	exchanges  []Exchange
	operations map[string][]string
}

type RecorderOption func(*Recorder)

// WithDefaultSnippets replaces the snippets written for every operation
func WithDefaultSnippets(snippets ...Snippet) RecorderOption {
	return func(r *Recorder) { r.defaults = snippets }
}

// WithoutPrettyPrint keeps payloads exactly as they were exchanged
func WithoutPrettyPrint() RecorderOption {
	return func(r *Recorder) { r.pretty = false }
}

func NewRecorder(dir string, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		dir:        dir,
		defaults:   DefaultSnippets(),
		pretty:     true,
		operations: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) Dir() string { return r.dir }

func (r *Recorder) Observe(ex Exchange) {
	r.mu.Lock()
	r.exchanges = append(r.exchanges, ex)
	r.mu.Unlock()
}

// Last returns the most recent exchange
func (r *Recorder) Last() (Exchange, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.exchanges) == 0 {
		return Exchange{}, false
	}
	return r.exchanges[len(r.exchanges)-1], true
}

// Exchanges returns every observed exchange in arrival order
func (r *Recorder) Exchanges() []Exchange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Exchange(nil), r.exchanges...)
}

// DocumentLast documents the most recent exchange under name
func (r *Recorder) DocumentLast(name string, snippets ...Snippet) error {
	ex, ok := r.Last()
	if !ok {
		return ErrNoExchange
	}
	return r.Document(name, ex, snippets...)
}

// Document writes the default snippets plus the given ones to <dir>/<name>/.
// Nothing is written when any snippet fails.
func (r *Recorder) Document(name string, ex Exchange, snippets ...Snippet) error {
	if r.pretty {
		ex.Request.Body = PrettyPrint(ex.Request.Body)
		ex.Response.Body = PrettyPrint(ex.Response.Body)
	}

	all := mergeSnippets(r.defaults, snippets)
	rendered := make(map[string][]byte, len(all))
	for _, s := range all {
		out, err := s.Render(ex)
		if err != nil {
			return fmt.Errorf("failed to document %s: %w", name, err)
		}
		rendered[s.Name()] = out
	}

	opDir := filepath.Join(r.dir, name)
	if err := os.MkdirAll(opDir, 0755); err != nil {
		return err
	}
	names := make([]string, 0, len(rendered))
	for snippet, out := range rendered {
		if err := os.WriteFile(filepath.Join(opDir, snippet+".adoc"), out, 0644); err != nil {
			return err
		}
		names = append(names, snippet)
	}
	sort.Strings(names)

	r.mu.Lock()
	r.operations[name] = names
	r.mu.Unlock()
	return nil
}

// Operation is one entry of the snippet index
type Operation struct {
	Name     string   `yaml:"name"`
	Snippets []string `yaml:"snippets"`
}

// Index lists documented operations sorted by name
func (r *Recorder) Index() []Operation {
	r.mu.Lock()
	defer r.mu.Unlock()

	ops := make([]Operation, 0, len(r.operations))
	for name, snippets := range r.operations {
		ops = append(ops, Operation{Name: name, Snippets: append([]string(nil), snippets...)})
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	return ops
}

// WriteIndex writes <dir>/index.yaml
func (r *Recorder) WriteIndex() error {
	data, err := yaml.Marshal(struct {
		Operations []Operation `yaml:"operations"`
	}{Operations: r.Index()})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.dir, "index.yaml"), data, 0644)
}

// ReadIndex loads an index written by WriteIndex
func ReadIndex(dir string) ([]Operation, error) {
	data, err := os.ReadFile(filepath.Join(dir, "index.yaml"))
	if err != nil {
		return nil, err
	}
	var index struct {
		Operations []Operation `yaml:"operations"`
	}
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse snippet index: %w", err)
	}
	return index.Operations, nil
}

// mergeSnippets lets extra snippets replace defaults with the same name
func mergeSnippets(defaults, extra []Snippet) []Snippet {
	out := make([]Snippet, 0, len(defaults)+len(extra))
	seen := make(map[string]int)
	for _, s := range append(append([]Snippet(nil), defaults...), extra...) {
		if i, ok := seen[s.Name()]; ok {
			out[i] = s
			continue
		}
		seen[s.Name()] = len(out)
		out = append(out, s)
	}
	return out
}
