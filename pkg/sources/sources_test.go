package sources_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/sources"
)

func TestFileName(t *testing.T) {
	assert.Equal(t, "CMIP6_activity_id.json", sources.FileName("CMIP6_", "activity_id"))
	assert.Equal(t, "mip_era.json", sources.FileName("", "mip_era"))
}

func TestParse(t *testing.T) {
	data := []byte(`{
		"version": "6.2.0",
		"institution_id": {
			"NCAR": "National Center for Atmospheric Research, Boulder, CO 80307, USA",
			"AWI": "Alfred Wegener Institute, Bremerhaven 27570, Germany",
			"MPI-M": "Max Planck Institute for Meteorology, Hamburg 20146, Germany"
		}
	}`)

	doc, err := sources.Parse("institution_id", "CMIP6_institution_id.json", data)
	require.NoError(t, err)

	assert.Equal(t, "institution_id", doc.CollectionType())
	assert.Equal(t, "CMIP6_institution_id.json", doc.Path())
	assert.Equal(t, []string{"NCAR", "AWI", "MPI-M"}, doc.Names(), "source order must be kept")
	assert.Equal(t, 3, doc.Len())
	assert.True(t, doc.Has("AWI"))
	assert.False(t, doc.Has("version"))

	value, ok := doc.Value("AWI")
	require.True(t, ok)
	assert.Equal(t, "Alfred Wegener Institute, Bremerhaven 27570, Germany", value)

	_, ok = doc.Value("missing")
	assert.False(t, ok)
}

func TestParseNestedValues(t *testing.T) {
	data := []byte(`{"source_id": {"CanESM5": {"activity_participation": ["CMIP", "ScenarioMIP"], "cohort": ["Registered"], "label": "CanESM5"}}}`)

	doc, err := sources.Parse("source_id", "", data)
	require.NoError(t, err)

	value, ok := doc.Value("CanESM5")
	require.True(t, ok)
	assert.Equal(t, map[string]any{
		"activity_participation": []any{"CMIP", "ScenarioMIP"},
		"cohort":                 []any{"Registered"},
		"label":                  "CanESM5",
	}, value)

	raw, ok := doc.Raw("CanESM5")
	require.True(t, ok)
	assert.Contains(t, raw, `"label": "CanESM5"`)
}

func TestParseDuplicateKeys(t *testing.T) {
	data := []byte(`{"realm": {"ocean": "first", "land": "x", "ocean": "second"}}`)

	doc, err := sources.Parse("realm", "", data)
	require.NoError(t, err)

	assert.Equal(t, []string{"ocean", "land"}, doc.Names())
	value, _ := doc.Value("ocean")
	assert.Equal(t, "second", value)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{"realm": {`},
		{"top level array", `["realm"]`},
		{"missing key", `{"frequency": {"mon": "monthly"}}`},
		{"key is not an object", `{"realm": ["ocean", "land"]}`},
		{"empty input", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sources.Parse("realm", "realm.json", []byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.IsMalformedDocument(err))
			assert.Contains(t, err.Error(), "realm")
		})
	}
}

func TestParseEmptyCollection(t *testing.T) {
	doc, err := sources.Parse("realm", "", []byte(`{"realm": {}}`))
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Len())
	assert.Empty(t, doc.Names())
}

func TestFSLoader(t *testing.T) {
	fsys := fstest.MapFS{
		"CMIP6_activity_id.json": {Data: []byte(`{"activity_id": {"CMIP": "desc"}}`)},
		"mip_era.json":           {Data: []byte(`{"mip_era": {"CMIP6": "desc"}}`)},
		"broken.json":            {Data: []byte(`{"broken": `)},
		"folder.json/readme.txt": {Data: []byte(`x`)},
	}
	loader := sources.NewFSLoader(fsys)
	ctx := context.Background()

	t.Run("prefixed", func(t *testing.T) {
		doc, err := loader.Load(ctx, "CMIP6_", "activity_id")
		require.NoError(t, err)
		assert.Equal(t, []string{"CMIP"}, doc.Names())
		assert.Equal(t, "CMIP6_activity_id.json", doc.Path())
	})

	t.Run("no prefix", func(t *testing.T) {
		doc, err := loader.Load(ctx, "", "mip_era")
		require.NoError(t, err)
		assert.Equal(t, []string{"CMIP6"}, doc.Names())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.Load(ctx, "CMIP6_", "mip_era")
		require.Error(t, err)
		assert.True(t, errors.IsMissingFile(err))
		assert.Contains(t, err.Error(), "CMIP6_mip_era.json")
	})

	t.Run("directory instead of file", func(t *testing.T) {
		_, err := loader.Load(ctx, "", "folder")
		assert.True(t, errors.IsMissingFile(err))
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := loader.Load(ctx, "", "broken")
		assert.True(t, errors.IsMalformedDocument(err))
	})

	t.Run("canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := loader.Load(canceled, "", "mip_era")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDirLoader(t *testing.T) {
	dir := t.TempDir()
	loader := sources.NewDirLoader(dir)

	_, err := loader.Load(context.Background(), "", "realm")
	assert.True(t, errors.IsMissingFile(err))
	assert.Equal(t, 0, loader.Reads())
}
