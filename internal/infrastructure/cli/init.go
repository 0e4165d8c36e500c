package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/kanbn/internal/infrastructure/config"
	"github.com/felixgeelhaar/kanbn/pkg/application"
)

func (a *app) newInitCmd() *cobra.Command {
	var (
		description string
		columns     []string
		options     []string
	)
	cmd := &cobra.Command{
		Use:   "init [name]",
		Short: "Create a board in the board directory",
		Long: `Create index.md with the board name, description and columns, and
kanbn.yaml in the workspace when it does not exist yet.

Options are written to the index header; values are read as YAML:
  kanbn init Roadmap --column Todo --column Doing --column Done \
    --option startedColumns='[Doing]' --option completedColumns='[Done]'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := a.load(cmd)
			if err != nil {
				return err
			}
			name := "Project"
			if len(args) > 0 {
				name = args[0]
			}
			opts, err := parseOptions(options)
			if err != nil {
				return err
			}
			created, err := services.Board.CreateBoard(cmd.Context(), application.CreateBoardInput{
				Name:        name,
				Description: description,
				Columns:     columns,
				Options:     opts,
			})
			if err != nil {
				return MapError(err)
			}
			boardPath, err := filepath.Rel(services.Root, services.Repo.Path())
			if err != nil {
				boardPath = services.Repo.Path()
			}
			if _, err := config.Init(services.Root, boardPath); err != nil {
				return err
			}
			return a.emit(cmd, created, func(w io.Writer) {
				fmt.Fprintf(w, "Initialized board %q in %s\n", created.Name, created.Path)
				fmt.Fprintf(w, "Columns: %s\n", strings.Join(created.Columns, ", "))
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Board description")
	cmd.Flags().StringArrayVarP(&columns, "column", "c", nil, "Column name (repeatable, in order)")
	cmd.Flags().StringArrayVarP(&options, "option", "o", nil, "Board option key=value (repeatable)")
	return cmd
}

// parseOptions reads key=value pairs, decoding each value as YAML so that
// lists and numbers keep their type.
func parseOptions(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	opts := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, NewCLIError(fmt.Sprintf("invalid option %q", pair), "Use --option key=value", nil)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, NewCLIError(fmt.Sprintf("invalid value for option %q", key), "Values are YAML, e.g. '[Done]' or 3", err)
		}
		if value == nil {
			value = raw
		}
		opts[key] = value
	}
	return opts, nil
}
