// Package importer turns bank statement CSV files into rows for ingestion.
// Parsers are fixed-layout: each one knows the exact columns of one export.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cleared-dev/cartola/internal/model"
)

// ErrUnknownFormat is returned when no parser accepts a file.
var ErrUnknownFormat = errors.New("unknown statement format")

// Parser converts a bank CSV export into rows. Values that cannot be parsed
// are passed through (dates) or left invalid (amounts) rather than failing
// the file.
type Parser interface {
	Parse(r io.Reader) ([]model.Row, error)
	Format() string
	// Accepts reports whether header is this parser's header row.
	Accepts(header []string) bool
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Detect returns the parser whose header matches the first record of data.
func (r *Registry) Detect(data []byte) (Parser, error) {
	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for _, name := range r.Formats() {
		if p := r.parsers[name]; p.Accepts(header) {
			return p, nil
		}
	}
	return nil, ErrUnknownFormat
}

// ParseFile parses the file at path with the named parser, or the parser
// whose header matches when format is empty.
func (r *Registry) ParseFile(path, format string) ([]model.Row, Parser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var p Parser
	if format != "" {
		if p = r.Get(format); p == nil {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
		}
	} else if p, err = r.Detect(data); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	rows, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, p, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return rows, p, nil
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	r.Register(&StandardParser{})
	return r
}

// processedDir is the subdirectory of the import dir for processed CSVs.
const processedDir = "processed"

// Scan returns the CSV files directly inside dir. A missing dir holds none.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from dir to dir/processed/.
func MarkProcessed(dir, fileName string) error {
	dstDir := filepath.Join(dir, processedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	if err := os.Rename(filepath.Join(dir, fileName), filepath.Join(dstDir, fileName)); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
