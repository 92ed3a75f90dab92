package archive_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/cvmap/pkg/archive"
	"github.com/agentstation/cvmap/pkg/constants"
	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/save"
	"github.com/agentstation/cvmap/pkg/vocab"
)

var batch = utc.New(time.Date(2016, 3, 21, 0, 0, 0, 0, time.UTC))

// sampleAuthority builds WCRP with a CMIP6 scope holding two collections and
// an empty GLOBAL scope.
func sampleAuthority(t *testing.T, name string) *vocab.Authority {
	t.Helper()

	authority, err := vocab.NewAuthority(vocab.Info{
		Name:        name,
		Description: "World Climate Research Program",
		URL:         "https://www.wcrp-climate.org/wgcm-overview",
		CreateDate:  batch,
	})
	require.NoError(t, err)

	cmip6, err := vocab.NewScope(authority, vocab.Info{
		Name:        "CMIP6",
		Description: "Controlled Vocabularies (CVs) for use in CMIP6",
		URL:         "https://github.com/WCRP-CMIP/CMIP6_CVs",
		CreateDate:  batch,
	})
	require.NoError(t, err)
	_, err = vocab.NewScope(authority, vocab.Info{Name: "GLOBAL", CreateDate: batch})
	require.NoError(t, err)

	institutions, err := vocab.NewCollection(cmip6, vocab.Info{
		Name:        "institution-id",
		Description: "WCRP CMIP6 CV collection: institution-id",
		CreateDate:  batch,
	})
	require.NoError(t, err)
	for _, inst := range []struct{ name, address string }{
		{"NCAR", "Boulder, CO 80307, USA"},
		{"AWI", "Bremerhaven 27570, Germany"},
		{"MPI-M", "Hamburg 20146, Germany"},
	} {
		_, err := vocab.NewTerm(institutions, vocab.Info{Name: inst.name, CreateDate: batch},
			vocab.NewData(map[string]any{"postal_address": inst.address}))
		require.NoError(t, err)
	}

	realms, err := vocab.NewCollection(cmip6, vocab.Info{Name: "realm", CreateDate: batch})
	require.NoError(t, err)
	for _, realm := range []string{"ocean", "atmos", "land/ice", ".."} {
		_, err := vocab.NewTerm(realms, vocab.Info{Name: realm, Description: realm, CreateDate: batch}, nil)
		require.NoError(t, err)
	}

	return authority
}

// flatten lists every entity as "uid namespace description data".
func flatten(a *vocab.Authority) []string {
	lines := []string{a.UID().String() + " " + a.Namespace() + " " + a.Description() + " " + a.URL()}
	for _, s := range a.Scopes() {
		lines = append(lines, s.UID().String()+" "+s.Namespace()+" "+s.Description())
		for _, c := range s.Collections() {
			lines = append(lines, c.UID().String()+" "+c.Namespace()+" "+c.Description())
			for _, term := range c.Terms() {
				line := term.UID().String() + " " + term.Namespace() + " " + term.Description()
				if term.HasData() {
					line += " " + term.Data().Value().(map[string]any)["postal_address"].(string)
				}
				lines = append(lines, line)
			}
		}
	}
	return lines
}

func TestWriteReadRoundTrip(t *testing.T) {
	for _, format := range []save.Format{save.FormatYAML, save.FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			dest := t.TempDir()
			authority := sampleAuthority(t, "WCRP")

			require.NoError(t, archive.WriteAuthority(context.Background(), dest, authority, save.WithFormat(format)))

			root := filepath.Join(dest, "WCRP")
			assert.FileExists(t, filepath.Join(root, "MANIFEST"+format.Extension()))
			assert.FileExists(t, filepath.Join(root, "CMIP6", "institution-id", "AWI"+format.Extension()))
			assert.FileExists(t, filepath.Join(root, "CMIP6", "realm", "land%2Fice"+format.Extension()))
			assert.FileExists(t, filepath.Join(root, "CMIP6", "realm", "%2E%2E"+format.Extension()))
			assert.DirExists(t, filepath.Join(root, "GLOBAL"))

			read, err := archive.ReadAuthority(dest, "WCRP")
			require.NoError(t, err)
			assert.Equal(t, flatten(authority), flatten(read))
			assert.True(t, batch.Time.Equal(read.CreateDate().Time))

			realm, ok := read.Scopes()[0].Collection("realm")
			require.True(t, ok)
			first := realm.Terms()[0]
			assert.False(t, first.HasData())
		})
	}
}

// numericAuthority holds one term whose payload mixes integral and
// fractional numbers, as decoded from a source document.
func numericAuthority(t *testing.T) (*vocab.Authority, any) {
	t.Helper()
	payload := map[string]any{
		"tier":  float64(1),
		"ratio": 0.5,
		"years": []any{float64(1850), float64(-10)},
		"grid":  map[string]any{"nlat": float64(180)},
	}
	authority, err := vocab.NewAuthority(vocab.Info{Name: "WCRP", CreateDate: batch})
	require.NoError(t, err)
	scope, err := vocab.NewScope(authority, vocab.Info{Name: "CMIP6", CreateDate: batch})
	require.NoError(t, err)
	experiments, err := vocab.NewCollection(scope, vocab.Info{Name: "experiment-id", CreateDate: batch})
	require.NoError(t, err)
	_, err = vocab.NewTerm(experiments, vocab.Info{Name: "historical", CreateDate: batch}, vocab.NewData(payload))
	require.NoError(t, err)
	return authority, payload
}

func TestWriteReadKeepsNumberTypes(t *testing.T) {
	for _, format := range []save.Format{save.FormatYAML, save.FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			dest := t.TempDir()
			authority, payload := numericAuthority(t)
			require.NoError(t, archive.WriteAuthority(context.Background(), dest, authority, save.WithFormat(format)))

			read, err := archive.ReadAuthority(dest, "WCRP")
			require.NoError(t, err)
			term, ok := read.Scopes()[0].Collections()[0].Term("historical")
			require.True(t, ok)
			assert.Equal(t, payload, term.Data().Value())
		})
	}
}

func TestWriteAuthorityLayout(t *testing.T) {
	dest := t.TempDir()
	require.NoError(t, archive.WriteAuthority(context.Background(), dest, sampleAuthority(t, "WCRP")))

	data, err := os.ReadFile(filepath.Join(dest, "WCRP", "MANIFEST.yaml"))
	require.NoError(t, err)

	var manifest archive.Manifest
	require.NoError(t, yaml.Unmarshal(data, &manifest))
	assert.Equal(t, "WCRP", manifest.Authority.Name)
	assert.Equal(t, "authority", manifest.Authority.Kind)
	assert.Equal(t, "2016-03-21T00:00:00Z", manifest.Authority.CreateDate)
	require.Len(t, manifest.Scopes, 2)
	require.Len(t, manifest.Scopes[0].Collections, 2)
	assert.Equal(t, []string{"NCAR", "AWI", "MPI-M"}, manifest.Scopes[0].Collections[0].Terms)

	term, err := os.ReadFile(filepath.Join(dest, "WCRP", "CMIP6", "institution-id", "NCAR.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(term), "postal_address:")
	assert.Contains(t, string(term), "Boulder, CO 80307, USA")
	assert.Contains(t, string(term), "wcrp:cmip6:institution-id:ncar")

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	require.Len(t, entries, 1, "staging directories must not be left behind")
}

func TestWriteAuthorityReplaces(t *testing.T) {
	dest := t.TempDir()
	ctx := context.Background()

	require.NoError(t, archive.WriteAuthority(ctx, dest, sampleAuthority(t, "WCRP")))

	smaller, err := vocab.NewAuthority(vocab.Info{Name: "WCRP", CreateDate: batch})
	require.NoError(t, err)
	require.NoError(t, archive.WriteAuthority(ctx, dest, smaller))

	read, err := archive.ReadAuthority(dest, "WCRP")
	require.NoError(t, err)
	assert.Empty(t, read.Scopes())
	assert.NoDirExists(t, filepath.Join(dest, "WCRP", "CMIP6"))

	err = archive.WriteAuthority(ctx, dest, smaller, save.WithOverwrite(false))
	assert.True(t, errors.IsAlreadyExists(err))
}

func TestWriteAuthorityErrors(t *testing.T) {
	ctx := context.Background()
	authority := sampleAuthority(t, "WCRP")

	err := archive.WriteAuthority(ctx, filepath.Join(t.TempDir(), "missing"), authority)
	assert.True(t, errors.IsPersistence(err))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, constants.FilePermissions))
	err = archive.WriteAuthority(ctx, file, authority)
	assert.True(t, errors.IsPersistence(err))

	err = archive.WriteAuthority(ctx, t.TempDir(), nil)
	assert.True(t, errors.IsValidationError(err))

	dest := t.TempDir()
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	err = archive.WriteAuthority(canceled, dest, authority)
	assert.ErrorIs(t, err, context.Canceled)
	entries, _ := os.ReadDir(dest)
	assert.Empty(t, entries, "a failed write must leave the destination untouched")
}

func TestReadAuthorityErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := archive.ReadAuthority(dir, "WCRP")
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, archive.WriteAuthority(context.Background(), dir, sampleAuthority(t, "WCRP")))
	termFile := filepath.Join(dir, "WCRP", "CMIP6", "realm", "ocean.yaml")
	require.NoError(t, os.Remove(termFile))
	_, err = archive.ReadAuthority(dir, "WCRP")
	assert.True(t, errors.IsPersistence(err))
}

func TestReadAuthorityDetectsTampering(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, archive.WriteAuthority(context.Background(), dir, sampleAuthority(t, "WCRP")))

	termFile := filepath.Join(dir, "WCRP", "CMIP6", "realm", "ocean.yaml")
	data, err := os.ReadFile(termFile)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), "name: ocean", "name: sea", 1)
	require.NoError(t, os.WriteFile(termFile, []byte(tampered), constants.FilePermissions))

	_, err = archive.ReadAuthority(dir, "WCRP")
	assert.True(t, errors.IsPersistence(err))
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	names, err := archive.List(dir)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, archive.WriteAuthority(ctx, dir, sampleAuthority(t, "WCRP")))
	require.NoError(t, archive.WriteAuthority(ctx, dir, sampleAuthority(t, "GLAMOD-TEAM"), save.WithFormat(save.FormatJSON)))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "stray"), constants.DirPermissions))
	require.NoError(t, os.Mkdir(filepath.Join(dir, constants.StagingPrefix+"123"), constants.DirPermissions))

	names, err = archive.List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"GLAMOD-TEAM", "WCRP"}, names)

	names, err = archive.List(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestExport(t *testing.T) {
	var buf bytes.Buffer
	authority := sampleAuthority(t, "WCRP")

	require.NoError(t, archive.Export(authority, save.WithWriter(&buf)))

	var tree archive.Tree
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &tree))
	rebuilt, err := tree.Build()
	require.NoError(t, err)
	assert.Equal(t, flatten(authority), flatten(rebuilt))

	err = archive.Export(authority)
	assert.True(t, errors.IsValidationError(err))
}

func TestParseBackend(t *testing.T) {
	backend, err := archive.ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, archive.BackendFiles, backend)

	backend, err = archive.ParseBackend("SQLite")
	require.NoError(t, err)
	assert.Equal(t, archive.BackendSQLite, backend)

	_, err = archive.ParseBackend("postgres")
	assert.True(t, errors.IsValidationError(err))
}
