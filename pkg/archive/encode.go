package archive

import (
	"encoding/json"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/save"
)

// manifestVersion is bumped when the on-disk layout changes.
const manifestVersion = 1

// Manifest describes an authority directory: every entity except the terms,
// which are listed by name in order and stored one file each.
type Manifest struct {
	Version   int             `yaml:"version" json:"version"`
	Authority Record          `yaml:"authority" json:"authority"`
	Scopes    []ScopeManifest `yaml:"scopes" json:"scopes"`
}

// ScopeManifest lists a scope's collections.
type ScopeManifest struct {
	Scope       Record               `yaml:"scope" json:"scope"`
	Collections []CollectionManifest `yaml:"collections" json:"collections"`
}

// CollectionManifest lists a collection's term names in order.
type CollectionManifest struct {
	Collection Record   `yaml:"collection" json:"collection"`
	Terms      []string `yaml:"terms" json:"terms"`
}

func newManifest(tree Tree) Manifest {
	m := Manifest{Version: manifestVersion, Authority: tree.Authority}
	for _, st := range tree.Scopes {
		sm := ScopeManifest{Scope: st.Scope}
		for _, ct := range st.Collections {
			cm := CollectionManifest{Collection: ct.Collection, Terms: make([]string, 0, len(ct.Terms))}
			for _, r := range ct.Terms {
				cm.Terms = append(cm.Terms, r.Name)
			}
			sm.Collections = append(sm.Collections, cm)
		}
		m.Scopes = append(m.Scopes, sm)
	}
	return m
}

func marshal(format save.Format, v any) ([]byte, error) {
	switch format {
	case save.FormatYAML:
		return yaml.MarshalWithOptions(v,
			yaml.Indent(2),
			yaml.IndentSequence(false),
		)
	case save.FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	return nil, errors.NewValidationError("format", format, "unsupported format")
}

func unmarshal(format save.Format, data []byte, v any) error {
	switch format {
	case save.FormatYAML:
		return yaml.Unmarshal(data, v)
	case save.FormatJSON:
		return json.Unmarshal(data, v)
	}
	return errors.NewValidationError("format", format, "unsupported format")
}
