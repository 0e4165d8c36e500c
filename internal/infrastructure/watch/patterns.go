package watch

import (
	"path/filepath"
)

// Board files are markdown; atomic writes stage through temp files beside
// the target (index.md123456), editors leave swap and backup files.
var (
	DefaultInclude = []string{"*.md"}
	DefaultExclude = []string{".*", "*~", "*.swp", "*.tmp"}
)

// Filter decides which paths under the board count as changes.
type Filter struct {
	Include []string
	Exclude []string
}

// NewFilter returns a filter; nil slices fall back to the board defaults.
func NewFilter(include, exclude []string) *Filter {
	if include == nil {
		include = DefaultInclude
	}
	if exclude == nil {
		exclude = DefaultExclude
	}
	return &Filter{Include: include, Exclude: exclude}
}

// Matches reports whether path passes. Patterns are tried against both the
// base name and the full path; excludes win.
func (f *Filter) Matches(path string) bool {
	base := filepath.Base(path)
	match := func(patterns []string) bool {
		for _, pattern := range patterns {
			if ok, _ := filepath.Match(pattern, base); ok {
				return true
			}
			if ok, _ := filepath.Match(pattern, path); ok {
				return true
			}
		}
		return false
	}
	if match(f.Exclude) {
		return false
	}
	return len(f.Include) == 0 || match(f.Include)
}
