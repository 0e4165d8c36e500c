package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kanbn/pkg/domain/board"
)

func (a *app) newTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List the valid task tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.board(cmd)
			if err != nil {
				return err
			}
			catalog := svc.ValidTags()
			return a.emit(cmd, catalog, func(w io.Writer) {
				printCatalog(w, catalog)
			})
		},
	}
}

func printCatalog(w io.Writer, c board.TagCatalog) {
	groups := []struct {
		title string
		tags  []string
	}{
		{"Work type", c.WorkType},
		{"Domain", c.Domain},
		{"Management", c.Management},
		{"Priority", c.Priority},
	}
	for _, g := range groups {
		fmt.Fprintf(w, "%s: %s\n", columnTitle.Render(g.title), strings.Join(g.tags, ", "))
	}
	workload := make([]string, 0, len(c.Workload))
	for _, tag := range c.Workload {
		workload = append(workload, fmt.Sprintf("%s (%d)", tag.Name, tag.Weight))
	}
	fmt.Fprintf(w, "%s: %s\n", columnTitle.Render("Workload"), strings.Join(workload, ", "))
}
