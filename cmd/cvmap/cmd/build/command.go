// Package build implements the build command: it assembles a vocabulary
// tree from CV source files and persists it according to the run mode.
package build

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/cvmap"
	"github.com/agentstation/cvmap/cmd/application"
	"github.com/agentstation/cvmap/internal/cmd/output"
	"github.com/agentstation/cvmap/pkg/archive"
	"github.com/agentstation/cvmap/pkg/builder"
	"github.com/agentstation/cvmap/pkg/constants"
	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/logging"
	"github.com/agentstation/cvmap/pkg/vocab"
)

// Flags holds the build command flags.
type Flags struct {
	Source  string
	Dest    string
	Mode    string
	Archive string
	Backend string
	DryRun  bool
}

// Result summarizes a build.
type Result struct {
	Definition  string `json:"definition" yaml:"definition"`
	Authority   string `json:"authority" yaml:"authority"`
	Mode        string `json:"mode" yaml:"mode"`
	Scopes      int    `json:"scopes" yaml:"scopes"`
	Collections int    `json:"collections" yaml:"collections"`
	Terms       int    `json:"terms" yaml:"terms"`
	CreateDate  string `json:"create_date" yaml:"create_date"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty"`
}

// NewCommand creates the build command.
func NewCommand(app application.Application) *cobra.Command {
	var flags Flags

	cmd := &cobra.Command{
		Use:     "build <vocabulary>",
		GroupID: "core",
		Short:   "Build a vocabulary tree from CV source files",
		Long: `Build reads {prefix}{type}.json for every collection of a vocabulary
definition from --source, assembles the Authority/Scope/Collection/Term
tree and persists it.

Definitions in write mode serialize the tree under --dest, replacing an
earlier version of the same authority. Definitions in archive mode save
it into the shared archive (archive_dir, archive_backend). A failed build
persists nothing.`,
		Example: `  cvmap build wcrp-cmip6 --source ./CMIP6_CVs --dest ./out
  cvmap build glamod --source ./GLAMOD_CVs
  cvmap build ./cordex.yaml --source ./CORDEX_CVs --mode archive --backend sqlite`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.Source, "source", "", "directory holding the CV source files (required)")
	cmd.Flags().StringVar(&flags.Dest, "dest", "", "destination directory (required in write mode)")
	cmd.Flags().StringVar(&flags.Mode, "mode", "", "override the definition's run mode: write or archive")
	cmd.Flags().StringVar(&flags.Archive, "archive", "", "archive directory in archive mode (default from archive_dir)")
	cmd.Flags().StringVar(&flags.Backend, "backend", "", "archive backend in archive mode: files or sqlite")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "build and report without persisting")

	return cmd
}

func run(cmd *cobra.Command, app application.Application, ref string, flags Flags) error {
	def, err := app.Definition(ref)
	if err != nil {
		return err
	}

	mode, err := resolveMode(def, flags.Mode)
	if err != nil {
		return err
	}

	// Directories are checked before any source file is read.
	if err := requireDir("--source", flags.Source); err != nil {
		return err
	}
	if mode == builder.ModeWrite && !flags.DryRun {
		if flags.Dest == "" {
			return errors.NewConfigError("build", "--dest is required in write mode", nil)
		}
		if err := requireDir("--dest", flags.Dest); err != nil {
			return err
		}
	}

	createDate, err := app.CreateDate(def)
	if err != nil {
		return err
	}
	saveOpts, err := app.SaveOptions()
	if err != nil {
		return err
	}

	ctx := logging.WithAuthority(cmd.Context(), def.Authority.Name)
	logger := logging.FromContext(ctx)
	logger.Debug().
		Str("definition", def.ID).
		Str("mode", string(mode)).
		Str("source", flags.Source).
		Msg("Building vocabulary")

	client, err := cvmap.New(
		cvmap.WithMode(mode),
		cvmap.WithCreateDate(createDate),
		cvmap.WithDest(flags.Dest),
		cvmap.WithSaveOptions(saveOpts...),
		cvmap.WithDryRun(flags.DryRun),
		cvmap.WithArchive(func() (archive.Store, error) {
			return app.Archive(flags.Archive, flags.Backend)
		}),
	)
	if err != nil {
		return err
	}
	client.OnAuthoritySaved(func(_ *vocab.Authority, location string) {
		logger.Info().Str("location", location).Msg("Saved vocabulary")
	})

	res, err := client.Run(ctx, def, os.DirFS(flags.Source))
	if err != nil {
		return err
	}

	result := newResult(def, res.Mode, res.Authority)
	result.Location = res.Location
	return render(cmd.OutOrStdout(), output.Format(app.OutputFormat()), result)
}

// resolveMode returns the run mode, honoring a --mode override.
func resolveMode(def *builder.Definition, override string) (builder.Mode, error) {
	if override == "" {
		return def.Mode, nil
	}
	switch mode := builder.Mode(strings.ToLower(override)); mode {
	case builder.ModeWrite, builder.ModeArchive:
		return mode, nil
	}
	return "", errors.NewConfigError("build", fmt.Sprintf("invalid --mode %q: must be write or archive", override), nil)
}

// requireDir fails unless path names an existing directory.
func requireDir(flag, path string) error {
	if path == "" {
		return errors.NewConfigError("build", flag+" is required", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.NewConfigError("build", fmt.Sprintf("%s %s is not an existing directory", flag, path), err)
	}
	if !info.IsDir() {
		return errors.NewConfigError("build", fmt.Sprintf("%s %s is not a directory", flag, path), nil)
	}
	return nil
}

func newResult(def *builder.Definition, mode builder.Mode, authority *vocab.Authority) Result {
	scopes, collections, terms := authority.Counts()
	return Result{
		Definition:  def.ID,
		Authority:   authority.Name(),
		Mode:        string(mode),
		Scopes:      scopes,
		Collections: collections,
		Terms:       terms,
		CreateDate:  authority.CreateDate().Time.Format(constants.CreateDateLayout),
	}
}

func render(w io.Writer, format output.Format, result Result) error {
	if !format.IsTable() {
		return output.NewFormatter(format).Format(w, result)
	}
	_, err := fmt.Fprintf(w, "Built %s: %d scopes, %d collections, %d terms", result.Authority,
		result.Scopes, result.Collections, result.Terms)
	if err != nil {
		return err
	}
	if result.Location != "" {
		_, err = fmt.Fprintf(w, " -> %s", result.Location)
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w)
	return err
}
