package board

import "slices"

// DefaultWorkloadTag is applied to tasks that carry no workload tag.
const DefaultWorkloadTag = "Small"

// WorkloadTag is an effort tag and its weight.
type WorkloadTag struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
}

// TagVocabulary decides which tags a task may carry.
type TagVocabulary interface {
	// Validate splits tags into accepted and rejected tags, keeping order.
	Validate(tags []string) (valid, invalid []string)
	// IsWorkload reports whether tag is an effort tag.
	IsWorkload(tag string) bool
	// DefaultWorkload is the effort tag applied when none is present.
	DefaultWorkload() string
	// Catalog lists the vocabulary by category.
	Catalog() TagCatalog
}

// TagCatalog is the tag vocabulary grouped by category.
type TagCatalog struct {
	WorkType   []string      `json:"work_type"`
	Domain     []string      `json:"domain"`
	Management []string      `json:"management"`
	Priority   []string      `json:"priority"`
	Workload   []WorkloadTag `json:"workload"`
}

// DefaultTagCatalog is the built-in vocabulary.
var DefaultTagCatalog = TagCatalog{
	WorkType: []string{
		"feature", "bug", "chore", "refactor", "testing",
		"documentation", "research", "design", "planning", "spike",
	},
	Domain: []string{
		"frontend", "backend", "database", "api", "infrastructure",
		"ci-cd", "security", "performance", "accessibility", "ui-ux",
		"algorithm", "devtools", "config", "logging",
	},
	Management: []string{
		"communication", "training", "review", "devops",
		"maintenance", "meta", "support",
	},
	Priority: []string{
		"urgent", "high-priority", "medium-priority",
		"low-priority", "not-planned", "blocked",
	},
	Workload: []WorkloadTag{
		{Name: "Nothing", Weight: 0},
		{Name: "Tiny", Weight: 1},
		{Name: "Small", Weight: 2},
		{Name: "Medium", Weight: 3},
		{Name: "Large", Weight: 5},
		{Name: "Huge", Weight: 8},
	},
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() TagVocabulary {
	return catalogVocabulary{catalog: DefaultTagCatalog}
}

// NewVocabulary builds a vocabulary from a catalog. An empty defaultWorkload,
// or one the catalog lacks, falls back to Small or the middle workload tag.
func NewVocabulary(c TagCatalog, defaultWorkload string) TagVocabulary {
	return catalogVocabulary{catalog: c, defaultTag: defaultWorkload}
}

type catalogVocabulary struct {
	catalog    TagCatalog
	defaultTag string
}

func (v catalogVocabulary) Validate(tags []string) (valid, invalid []string) {
	for _, tag := range tags {
		if !v.known(tag) {
			invalid = append(invalid, tag)
			continue
		}
		if !slices.Contains(valid, tag) {
			valid = append(valid, tag)
		}
	}
	return valid, invalid
}

func (v catalogVocabulary) known(tag string) bool {
	c := v.catalog
	return slices.Contains(c.WorkType, tag) ||
		slices.Contains(c.Domain, tag) ||
		slices.Contains(c.Management, tag) ||
		slices.Contains(c.Priority, tag) ||
		v.IsWorkload(tag)
}

func (v catalogVocabulary) IsWorkload(tag string) bool {
	return slices.ContainsFunc(v.catalog.Workload, func(w WorkloadTag) bool {
		return w.Name == tag
	})
}

func (v catalogVocabulary) DefaultWorkload() string {
	if v.defaultTag != "" && v.IsWorkload(v.defaultTag) {
		return v.defaultTag
	}
	if v.IsWorkload(DefaultWorkloadTag) || len(v.catalog.Workload) == 0 {
		return DefaultWorkloadTag
	}
	return v.catalog.Workload[len(v.catalog.Workload)/2].Name
}

func (v catalogVocabulary) Catalog() TagCatalog {
	return v.catalog
}

// NormalizeTags validates tags and leaves exactly one workload tag: the
// first one supplied, or the vocabulary default. It returns the kept tags
// and every rejected or surplus tag.
func NormalizeTags(tags []string, vocab TagVocabulary) (kept, dropped []string) {
	valid, dropped := vocab.Validate(tags)
	haveWorkload := false
	for _, tag := range valid {
		if vocab.IsWorkload(tag) {
			if haveWorkload {
				dropped = append(dropped, tag)
				continue
			}
			haveWorkload = true
		}
		kept = append(kept, tag)
	}
	if !haveWorkload {
		kept = append(kept, vocab.DefaultWorkload())
	}
	return kept, dropped
}
