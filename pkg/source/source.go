package source

import (
	"path/filepath"
	"strings"
)

// File represents a checked source file with its content and metadata.
type File struct {
	Name    string // Display name (e.g., "mod.py", "<fixture>")
	Path    string // Full file path (empty for synthetic fixtures)
	Content string // The source text
	lines   []string
}

// NewFile creates a new source file.
func NewFile(name, path, content string) *File {
	return &File{
		Name:    name,
		Path:    path,
		Content: content,
	}
}

// NewFixture creates a source file for a synthetic test fixture.
func NewFixture(content string) *File {
	return &File{
		Name:    "<fixture>",
		Path:    "",
		Content: content,
	}
}

// FromFile creates a File from a file path and content.
func FromFile(filePath, content string) *File {
	return NewFile(filepath.Base(filePath), filePath, content)
}

// Lines returns the source split into lines (cached).
func (f *File) Lines() []string {
	if f.lines == nil {
		f.lines = strings.Split(f.Content, "\n")
	}
	return f.lines
}

// DisplayPath returns the best path for display (prefers Path, falls back to Name).
func (f *File) DisplayPath() string {
	if f.Path != "" {
		return f.Path
	}
	return f.Name
}

// IsFile returns true if this represents an actual on-disk file.
func (f *File) IsFile() bool {
	return f.Path != ""
}

// Position is a specific location in the source text.
// Line and Column are 1-based for human-readability; the byte offsets are
// 0-based for tooling use.
type Position struct {
	Line     int
	Column   int
	StartPos int // byte offset of the start of the span
	EndPos   int // byte offset of the end of the span (exclusive)
	File     *File
}

// Span is the source extent of a syntax node, as a start/end pair of offsets
// plus the line/column of the start.
type Span struct {
	Position
}

// At builds a span for a line/column pair with no byte-offset information,
// which is all synthetic fixtures need.
func At(line, column int) Span {
	return Span{Position{Line: line, Column: column}}
}

func (s Span) IsZero() bool {
	return s.Line == 0 && s.Column == 0 && s.StartPos == 0 && s.EndPos == 0
}
