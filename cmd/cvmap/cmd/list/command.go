// Package list implements the list command.
package list

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/cvmap/cmd/application"
	"github.com/agentstation/cvmap/internal/cmd/output"
	"github.com/agentstation/cvmap/internal/cmd/table"
	"github.com/agentstation/cvmap/pkg/builder"
	"github.com/agentstation/cvmap/pkg/constants"
)

// Flags holds the list command flags.
type Flags struct {
	Archived bool
	Archive  string
	Backend  string
}

// DefinitionSummary describes a vocabulary definition.
type DefinitionSummary struct {
	ID              string         `json:"id" yaml:"id"`
	Authority       string         `json:"authority" yaml:"authority"`
	Mode            string         `json:"mode" yaml:"mode"`
	TermDescription string         `json:"term_description" yaml:"term_description"`
	CreateDate      string         `json:"create_date,omitempty" yaml:"create_date,omitempty"`
	Scopes          []ScopeSummary `json:"scopes" yaml:"scopes"`
}

// ScopeSummary describes a scope of a definition.
type ScopeSummary struct {
	Name        string   `json:"name" yaml:"name"`
	Prefix      string   `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Collections []string `json:"collections" yaml:"collections"`
}

// NewCommand creates the list command.
func NewCommand(app application.Application) *cobra.Command {
	var flags Flags

	cmd := &cobra.Command{
		Use:     "list",
		GroupID: "core",
		Short:   "List built-in vocabulary definitions or archived authorities",
		Example: `  cvmap list
  cvmap list -o yaml
  cvmap list --archived --backend sqlite`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := output.Format(app.OutputFormat())
			formatter := output.NewFormatter(format)

			if flags.Archived {
				store, err := app.ReadArchive(flags.Archive, flags.Backend)
				if err != nil {
					return err
				}
				names, err := store.Names(cmd.Context())
				if err != nil {
					return err
				}
				if names == nil {
					names = []string{}
				}
				app.Logger().Debug().Msgf("Found %d archived authorities", len(names))

				var data any = names
				if format.IsTable() {
					data = table.NamesToTableData("Authority", names)
				}
				return formatter.Format(cmd.OutOrStdout(), data)
			}

			defs, err := app.Definitions()
			if err != nil {
				return err
			}
			app.Logger().Debug().Msgf("Found %d definitions", len(defs))

			var data any = Summarize(defs)
			if format.IsTable() {
				data = table.DefinitionsToTableData(defs, format == output.FormatWide)
			}
			return formatter.Format(cmd.OutOrStdout(), data)
		},
	}

	cmd.Flags().BoolVar(&flags.Archived, "archived", false, "list the authorities in the archive instead")
	cmd.Flags().StringVar(&flags.Archive, "archive", "", "archive directory (default from archive_dir)")
	cmd.Flags().StringVar(&flags.Backend, "backend", "", "archive backend: files or sqlite")

	return cmd
}

// Summarize converts definitions to their serializable summaries.
func Summarize(defs []*builder.Definition) []DefinitionSummary {
	summaries := make([]DefinitionSummary, 0, len(defs))
	for _, def := range defs {
		s := DefinitionSummary{
			ID:              def.ID,
			Authority:       def.Authority.Name,
			Mode:            string(def.Mode),
			TermDescription: string(def.TermDescription),
			Scopes:          []ScopeSummary{},
		}
		if def.CreateDate != nil {
			s.CreateDate = def.CreateDate.Time.Format(constants.CreateDateLayout)
		}
		for _, scope := range def.Scopes {
			ss := ScopeSummary{Name: scope.Name, Prefix: scope.Prefix, Collections: []string{}}
			for _, c := range scope.Collections {
				ss.Collections = append(ss.Collections, c.Type)
			}
			s.Scopes = append(s.Scopes, ss)
		}
		summaries = append(summaries, s)
	}
	return summaries
}
