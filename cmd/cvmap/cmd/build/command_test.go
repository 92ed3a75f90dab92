package build_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/cvmap/cmd/application"
	"github.com/agentstation/cvmap/cmd/cvmap/cmd/build"
	"github.com/agentstation/cvmap/pkg/archive"
	"github.com/agentstation/cvmap/pkg/builder"
	"github.com/agentstation/cvmap/pkg/constants"
	"github.com/agentstation/cvmap/pkg/errors"
)

const definitionYAML = `
id: test-cmip6
mode: write
collection_description: "WCRP CMIP6 CV collection: "
create_date: "2016-03-21T00:00:00Z"
authority:
  name: WCRP
  description: World Climate Research Program
scopes:
  - name: CMIP6
    prefix: CMIP6_
    collections:
      - type: activity_id
      - type: institution_id
        data:
          wrap: postal_address
  - name: GLOBAL
    collections:
      - type: mip_era
`

var sourceFiles = map[string]string{
	"CMIP6_activity_id.json":    `{"activity_id": {"CMIP": "CMIP DECK", "AerChemMIP": "Aerosols and Chemistry"}}`,
	"CMIP6_institution_id.json": `{"institution_id": {"NCAR": "Boulder, CO 80307, USA"}}`,
	"mip_era.json":              `{"mip_era": {"CMIP6": "Phase 6"}}`,
}

func writeSources(t *testing.T, skip ...string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range sourceFiles {
		skipped := false
		for _, s := range skip {
			skipped = skipped || s == name
		}
		if skipped {
			continue
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), constants.FilePermissions))
	}
	return dir
}

type harness struct {
	mock     *application.Mock
	archives int
	store    archive.Store
}

func newHarness(t *testing.T, mode builder.Mode) *harness {
	t.Helper()
	def, err := builder.ParseDefinition([]byte(definitionYAML))
	require.NoError(t, err)
	def.Mode = mode

	h := &harness{}
	archiveDir := filepath.Join(t.TempDir(), "archive")
	h.mock = &application.Mock{
		DefinitionFunc: func(string) (*builder.Definition, error) { return def, nil },
		ArchiveFunc: func(dir, backend string) (archive.Store, error) {
			h.archives++
			if dir == "" {
				dir = archiveDir
			}
			b, err := archive.ParseBackend(backend)
			if err != nil {
				return nil, err
			}
			store, err := archive.Open(b, dir)
			if err != nil {
				return nil, err
			}
			t.Cleanup(func() { _ = store.Close() })
			h.store = store
			return store, nil
		},
	}
	return h
}

func execute(app application.Application, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := build.NewCommand(app)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuildWriteMode(t *testing.T) {
	h := newHarness(t, builder.ModeWrite)
	source := writeSources(t)
	dest := t.TempDir()

	out, err := execute(h.mock, "test-cmip6", "--source", source, "--dest", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Built WCRP: 2 scopes, 3 collections, 4 terms")
	assert.Contains(t, out, filepath.Join(dest, "WCRP"))
	assert.Zero(t, h.archives, "write mode does not open the archive")

	authority, err := archive.ReadAuthority(dest, "WCRP")
	require.NoError(t, err)
	cmip6, ok := authority.Scope("CMIP6")
	require.True(t, ok)
	activity, ok := cmip6.Collection("activity-id")
	require.True(t, ok)
	assert.Equal(t, "WCRP CMIP6 CV collection: activity-id", activity.Description())
	require.Len(t, activity.Terms(), 2)
	assert.Equal(t, "CMIP", activity.Terms()[0].Name())
	assert.Equal(t, "AerChemMIP", activity.Terms()[1].Name())
	assert.Equal(t, "2016-03-21T00:00:00Z", authority.CreateDate().Time.Format(constants.CreateDateLayout))
}

func TestBuildArchiveMode(t *testing.T) {
	for _, backend := range []string{"files", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			h := newHarness(t, builder.ModeArchive)

			out, err := execute(h.mock, "test-cmip6", "--source", writeSources(t), "--backend", backend)
			require.NoError(t, err)
			assert.Contains(t, out, "Built WCRP")
			require.Equal(t, 1, h.archives)

			names, err := h.store.Names(t.Context())
			require.NoError(t, err)
			assert.Equal(t, []string{"WCRP"}, names)
		})
	}
}

func TestBuildModeOverride(t *testing.T) {
	h := newHarness(t, builder.ModeWrite)
	archiveDir := t.TempDir()

	_, err := execute(h.mock, "test-cmip6", "--source", writeSources(t), "--mode", "archive", "--archive", archiveDir)
	require.NoError(t, err)

	names, err := archive.List(archiveDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"WCRP"}, names)

	_, err = execute(h.mock, "test-cmip6", "--source", writeSources(t), "--mode", "append")
	assert.True(t, errors.IsConfig(err))
}

func TestBuildJSONOutput(t *testing.T) {
	h := newHarness(t, builder.ModeWrite)
	h.mock.OutputFormatFunc = func() string { return "json" }

	out, err := execute(h.mock, "test-cmip6", "--source", writeSources(t), "--dest", t.TempDir())
	require.NoError(t, err)

	var result build.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "test-cmip6", result.Definition)
	assert.Equal(t, "write", result.Mode)
	assert.Equal(t, 4, result.Terms)
	assert.Equal(t, "2016-03-21T00:00:00Z", result.CreateDate)
}

func TestBuildDryRun(t *testing.T) {
	h := newHarness(t, builder.ModeArchive)

	out, err := execute(h.mock, "test-cmip6", "--source", writeSources(t), "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Built WCRP")
	assert.Zero(t, h.archives)
}

func TestBuildInvalidDirectories(t *testing.T) {
	h := newHarness(t, builder.ModeWrite)
	dest := t.TempDir()
	file := filepath.Join(t.TempDir(), "file.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), constants.FilePermissions))

	tests := []struct {
		name string
		args []string
	}{
		{"no source", []string{"--dest", dest}},
		{"missing source", []string{"--source", filepath.Join(dest, "missing"), "--dest", dest}},
		{"source is a file", []string{"--source", file, "--dest", dest}},
		{"no dest in write mode", []string{"--source", writeSources(t)}},
		{"missing dest", []string{"--source", writeSources(t), "--dest", filepath.Join(dest, "missing")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(h.mock, append([]string{"test-cmip6"}, tt.args...)...)
			require.Error(t, err)
			assert.True(t, errors.IsConfig(err), "got %v", err)
			assertEmptyDir(t, dest)
		})
	}
}

func TestBuildPersistsNothingOnFailure(t *testing.T) {
	t.Run("write", func(t *testing.T) {
		h := newHarness(t, builder.ModeWrite)
		dest := t.TempDir()

		_, err := execute(h.mock, "test-cmip6", "--source", writeSources(t, "mip_era.json"), "--dest", dest)
		require.Error(t, err)
		assert.True(t, errors.IsMissingFile(err))
		assert.Contains(t, err.Error(), "mip_era")
		assertEmptyDir(t, dest)
	})

	t.Run("archive", func(t *testing.T) {
		h := newHarness(t, builder.ModeArchive)
		source := writeSources(t)
		require.NoError(t, os.WriteFile(filepath.Join(source, "CMIP6_activity_id.json"),
			[]byte(`{"activity": {"CMIP": "CMIP DECK"}}`), constants.FilePermissions))

		_, err := execute(h.mock, "test-cmip6", "--source", source)
		require.Error(t, err)
		assert.True(t, errors.IsMalformedDocument(err))
		assert.Zero(t, h.archives, "the archive is not opened for a failed build")
	})
}

func TestBuildUnknownDefinition(t *testing.T) {
	mock := &application.Mock{
		DefinitionFunc: func(ref string) (*builder.Definition, error) {
			return nil, errors.NewConfigError("definition", "unknown vocabulary "+ref, nil)
		},
	}
	_, err := execute(mock, "cordex", "--source", t.TempDir())
	assert.True(t, errors.IsConfig(err))

	_, err = execute(mock)
	assert.Error(t, err)
}
