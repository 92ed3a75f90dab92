package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/go-cmp/cmp"

	"github.com/agentstation/cvmap"
	"github.com/agentstation/cvmap/internal/embedded"
	"github.com/agentstation/cvmap/pkg/archive"
	"github.com/agentstation/cvmap/pkg/builder"
	"github.com/agentstation/cvmap/pkg/vocab"
)

func TestEmbeddedCMIP6(t *testing.T) {
	def, err := embedded.Definition("wcrp-cmip6")
	if err != nil {
		t.Fatalf("Failed to load embedded definition: %v", err)
	}

	dest := t.TempDir()
	client, err := cvmap.New(cvmap.WithDest(dest))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	result, err := client.Run(context.Background(), def, os.DirFS("testdata/cmip6"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Mode != builder.ModeWrite {
		t.Errorf("Expected write mode, got %s", result.Mode)
	}
	if want := filepath.Join(dest, "WCRP"); result.Location != want {
		t.Errorf("Expected location %s, got %s", want, result.Location)
	}

	authority := result.Authority
	scopes, collections, terms := authority.Counts()
	if scopes != 2 || collections != 12 || terms != 47 {
		t.Errorf("Expected 2 scopes, 12 collections, 47 terms; got %d, %d, %d", scopes, collections, terms)
	}

	pinned := time.Date(2016, 3, 21, 0, 0, 0, 0, time.UTC)
	if !authority.CreateDate().Time.Equal(pinned) {
		t.Errorf("Expected create date %s, got %s", pinned, authority.CreateDate())
	}

	cmip6, ok := authority.Scope("CMIP6")
	if !ok {
		t.Fatal("Expected CMIP6 scope")
	}
	activity, ok := cmip6.Collection("activity-id")
	if !ok {
		t.Fatal("Expected activity-id collection")
	}
	if activity.Description() != "WCRP CMIP6 CV collection: activity-id" {
		t.Errorf("Unexpected collection description %q", activity.Description())
	}
	if activity.Namespace() != "wcrp:cmip6:activity-id" {
		t.Errorf("Unexpected collection namespace %q", activity.Namespace())
	}
	want := []string{"AerChemMIP", "C4MIP", "CFMIP", "CMIP", "ScenarioMIP"}
	if diff := cmp.Diff(want, termNames(activity)); diff != "" {
		t.Errorf("Terms out of document order (-want +got):\n%s", diff)
	}

	cmip, _ := activity.Term("CMIP")
	if cmip.Namespace() != "wcrp:cmip6:activity-id:cmip" {
		t.Errorf("Unexpected term namespace %q", cmip.Namespace())
	}
	if cmip.Description() != "" {
		t.Errorf("Expected no term description, got %q", cmip.Description())
	}
	if cmip.HasData() {
		t.Error("Plain collections must not carry term data")
	}

	institutions, _ := cmip6.Collection("institution-id")
	ncar, ok := institutions.Term("NCAR")
	if !ok {
		t.Fatal("Expected NCAR term")
	}
	address, _ := ncar.Data().Value().(map[string]any)
	if address["postal_address"] != "National Center for Atmospheric Research, Climate and Global Dynamics Laboratory, 1850 Table Mesa Drive, Boulder, CO 80305, USA" {
		t.Errorf("Unexpected wrapped data %v", ncar.Data().Value())
	}

	experiments, _ := cmip6.Collection("experiment-id")
	amip, _ := experiments.Term("amip")
	payload, _ := amip.Data().Value().(map[string]any)
	if payload["start_year"] != "1979" || payload["experiment"] != "AMIP" {
		t.Errorf("Unexpected passthrough data %v", payload)
	}

	global, ok := authority.Scope("GLOBAL")
	if !ok {
		t.Fatal("Expected GLOBAL scope")
	}
	mipEra, ok := global.Collection("mip-era")
	if !ok {
		t.Fatal("Expected mip-era collection read without a prefix")
	}
	if mipEra.Description() != "WCRP GLOBAL CV collection: mip-era" {
		t.Errorf("Unexpected collection description %q", mipEra.Description())
	}

	read, err := archive.ReadAuthority(dest, "WCRP")
	if err != nil {
		t.Fatalf("Failed to read written authority: %v", err)
	}
	if read.UID() != authority.UID() {
		t.Error("UIDs must survive a write/read round trip")
	}
	if diff := cmp.Diff(termNames(activity), termNames(mustCollection(t, read, "CMIP6", "activity-id"))); diff != "" {
		t.Errorf("Terms changed after reading back (-written +read):\n%s", diff)
	}
	if _, _, readTerms := read.Counts(); readTerms != terms {
		t.Errorf("Expected %d terms after reading back, got %d", terms, readTerms)
	}
}

func TestEmbeddedGLAMODArchive(t *testing.T) {
	def, err := embedded.Definition("glamod")
	if err != nil {
		t.Fatalf("Failed to load embedded definition: %v", err)
	}

	store, err := archive.Open(archive.BackendSQLite, t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	batch := utc.New(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	client, err := cvmap.New(cvmap.WithStore(store), cvmap.WithCreateDate(batch))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	var saved []string
	client.OnAuthoritySaved(func(a *vocab.Authority, _ string) {
		saved = append(saved, a.Name())
	})

	result, err := client.Run(context.Background(), def, os.DirFS("testdata/glamod"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Mode != builder.ModeArchive {
		t.Errorf("Expected archive mode, got %s", result.Mode)
	}
	if diff := cmp.Diff([]string{"GLAMOD-TEAM"}, saved); diff != "" {
		t.Errorf("Saved hook mismatch (-want +got):\n%s", diff)
	}

	read, err := store.Load(context.Background(), "GLAMOD-TEAM")
	if err != nil {
		t.Fatalf("Failed to load archived authority: %v", err)
	}
	scopes, collections, terms := read.Counts()
	if scopes != 2 || collections != 5 || terms != 14 {
		t.Errorf("Expected 2 scopes, 5 collections, 14 terms; got %d, %d, %d", scopes, collections, terms)
	}
	if !read.CreateDate().Time.Equal(batch.Time) {
		t.Errorf("Expected create date %s, got %s", batch, read.CreateDate())
	}

	scope, _ := read.Scope("GLAMOD")
	for _, c := range scope.Collections() {
		if c.Description() != "GLAMOD CV collection: "+c.Name() {
			t.Errorf("Unexpected collection description %q", c.Description())
		}
		for _, term := range c.Terms() {
			if term.Description() != term.Name() {
				t.Errorf("Expected term description %q, got %q", term.Name(), term.Description())
			}
		}
	}

	global, _ := read.Scope("GLOBAL")
	if len(global.Collections()) != 0 {
		t.Errorf("Expected an empty GLOBAL scope, got %d collections", len(global.Collections()))
	}
}

func TestEmbeddedMissingSource(t *testing.T) {
	def, err := embedded.Definition("wcrp-cmip6")
	if err != nil {
		t.Fatalf("Failed to load embedded definition: %v", err)
	}

	dest := t.TempDir()
	client, err := cvmap.New(cvmap.WithDest(dest))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	// The GLAMOD sources carry none of the CMIP6_ documents.
	if _, err := client.Run(context.Background(), def, os.DirFS("testdata/glamod")); err == nil {
		t.Fatal("Expected an error for missing source files")
	}
	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatalf("Failed to read destination: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected nothing written on failure, found %d entries", len(entries))
	}
}

func termNames(c *vocab.Collection) []string {
	names := make([]string, 0, c.Len())
	for _, term := range c.Terms() {
		names = append(names, term.Name())
	}
	return names
}

func mustCollection(t *testing.T, a *vocab.Authority, scope, collection string) *vocab.Collection {
	t.Helper()
	s, ok := a.Scope(scope)
	if !ok {
		t.Fatalf("Missing scope %s", scope)
	}
	c, ok := s.Collection(collection)
	if !ok {
		t.Fatalf("Missing collection %s", collection)
	}
	return c
}
