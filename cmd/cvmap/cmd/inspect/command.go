// Package inspect implements the inspect command, which reads an authority
// back from an archive and summarizes or exports it.
package inspect

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/cvmap/cmd/application"
	"github.com/agentstation/cvmap/internal/cmd/output"
	"github.com/agentstation/cvmap/internal/cmd/table"
	"github.com/agentstation/cvmap/internal/docs"
	"github.com/agentstation/cvmap/pkg/archive"
	"github.com/agentstation/cvmap/pkg/constants"
	"github.com/agentstation/cvmap/pkg/save"
	"github.com/agentstation/cvmap/pkg/vocab"
)

// Flags holds the inspect command flags.
type Flags struct {
	Archive  string
	Backend  string
	Export   bool
	Markdown bool
}

// Summary describes an authority without its term payloads.
type Summary struct {
	Authority  string         `json:"authority" yaml:"authority"`
	UID        string         `json:"uid" yaml:"uid"`
	Namespace  string         `json:"namespace" yaml:"namespace"`
	CreateDate string         `json:"create_date" yaml:"create_date"`
	Scopes     []ScopeSummary `json:"scopes" yaml:"scopes"`
}

// ScopeSummary describes a scope.
type ScopeSummary struct {
	Name        string              `json:"name" yaml:"name"`
	Collections []CollectionSummary `json:"collections" yaml:"collections"`
}

// CollectionSummary describes a collection.
type CollectionSummary struct {
	Name  string `json:"name" yaml:"name"`
	Terms int    `json:"terms" yaml:"terms"`
}

// NewCommand creates the inspect command.
func NewCommand(app application.Application) *cobra.Command {
	var flags Flags

	cmd := &cobra.Command{
		Use:     "inspect <authority>",
		GroupID: "core",
		Short:   "Show an archived authority",
		Long: `Inspect loads an authority from an archive and lists its scopes and
collections with term counts. With --export the complete tree, including
term payloads, is written as YAML or JSON (-o json). --markdown renders a
reference page with one term table per collection.

Point --archive at a write-mode --dest directory to inspect its output.`,
		Example: `  cvmap inspect WCRP --archive ./out
  cvmap inspect GLAMOD-TEAM -o yaml
  cvmap inspect GLAMOD-TEAM --backend sqlite --export -o json
  cvmap inspect WCRP --archive ./out --markdown > WCRP.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.ReadArchive(flags.Archive, flags.Backend)
			if err != nil {
				return err
			}
			authority, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			app.Logger().Debug().Str("authority", authority.Name()).Msg("Loaded authority")

			if flags.Markdown {
				return docs.WriteAuthority(cmd.OutOrStdout(), authority)
			}

			format := output.Format(app.OutputFormat())
			if flags.Export {
				saveFormat := save.FormatYAML
				if format == output.FormatJSON {
					saveFormat = save.FormatJSON
				}
				return archive.Export(authority, save.WithWriter(cmd.OutOrStdout()), save.WithFormat(saveFormat))
			}

			var data any = NewSummary(authority)
			if format.IsTable() {
				data = table.AuthorityToTableData(authority, format == output.FormatWide)
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), data)
		},
	}

	cmd.Flags().StringVar(&flags.Archive, "archive", "", "archive directory (default from archive_dir)")
	cmd.Flags().StringVar(&flags.Backend, "backend", "", "archive backend: files or sqlite")
	cmd.Flags().BoolVar(&flags.Export, "export", false, "write the complete tree including term data")
	cmd.Flags().BoolVar(&flags.Markdown, "markdown", false, "write a Markdown reference page")
	cmd.MarkFlagsMutuallyExclusive("export", "markdown")

	return cmd
}

// NewSummary summarizes an authority.
func NewSummary(authority *vocab.Authority) Summary {
	summary := Summary{
		Authority:  authority.Name(),
		UID:        authority.UID().String(),
		Namespace:  authority.Namespace(),
		CreateDate: authority.CreateDate().Time.Format(constants.CreateDateLayout),
		Scopes:     []ScopeSummary{},
	}
	for _, scope := range authority.Scopes() {
		s := ScopeSummary{Name: scope.Name(), Collections: []CollectionSummary{}}
		for _, c := range scope.Collections() {
			s.Collections = append(s.Collections, CollectionSummary{Name: c.Name(), Terms: c.Len()})
		}
		summary.Scopes = append(summary.Scopes, s)
	}
	return summary
}
