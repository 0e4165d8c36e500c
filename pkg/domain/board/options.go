package board

import (
	"cmp"
	"slices"
	"strings"

	"github.com/felixgeelhaar/kanbn/pkg/document"
)

// Index option keys.
const (
	OptionHiddenColumns       = "hiddenColumns"
	OptionStartedColumns      = "startedColumns"
	OptionCompletedColumns    = "completedColumns"
	OptionDefaultTaskWorkload = "defaultTaskWorkload"
	OptionTaskWorkloadTags    = "taskWorkloadTags"
)

// DefaultColumns are used when a board is created without columns.
var DefaultColumns = []string{"Backlog", "In Progress", "Done", "Archive"}

// DefaultColumn receives new tasks when no column is named.
const DefaultColumn = "Backlog"

// DefaultOptions returns the options every new board starts from.
func DefaultOptions() *document.Header {
	h := document.NewHeader()
	h.SetStrings(OptionHiddenColumns, []string{"Archive"})
	h.SetStrings(OptionStartedColumns, []string{"In Progress"})
	h.SetStrings(OptionCompletedColumns, []string{"Done"})
	_ = h.Set(OptionDefaultTaskWorkload, 2)

	weights := document.NewHeader()
	for _, w := range DefaultTagCatalog.Workload {
		_ = weights.Set(w.Name, w.Weight)
	}
	_ = h.Set(OptionTaskWorkloadTags, weights)
	return h
}

// Vocabulary returns base with its workload tags replaced by the board's
// taskWorkloadTags option, ordered by weight. The defaultTaskWorkload weight
// picks the default workload tag. base is returned when the option is
// missing or is not a name to weight mapping.
func (idx *Index) Vocabulary(base TagVocabulary) TagVocabulary {
	var weights map[string]int
	if err := idx.Options.Decode(OptionTaskWorkloadTags, &weights); err != nil || len(weights) == 0 {
		return base
	}
	c := base.Catalog()
	c.Workload = make([]WorkloadTag, 0, len(weights))
	for name, weight := range weights {
		c.Workload = append(c.Workload, WorkloadTag{Name: name, Weight: weight})
	}
	slices.SortFunc(c.Workload, func(a, b WorkloadTag) int {
		return cmp.Or(cmp.Compare(a.Weight, b.Weight), strings.Compare(a.Name, b.Name))
	})

	var def string
	if w, ok := idx.Options.Float(OptionDefaultTaskWorkload); ok {
		for _, tag := range c.Workload {
			if float64(tag.Weight) == w {
				def = tag.Name
				break
			}
		}
	}
	return NewVocabulary(c, def)
}
