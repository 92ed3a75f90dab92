// Package embedded ships the built-in vocabulary definitions.
package embedded

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/agentstation/cvmap/pkg/builder"
	"github.com/agentstation/cvmap/pkg/errors"
)

// FS embeds the definition files at build time.
//
//go:embed definitions/*.yaml
var FS embed.FS

const definitionsDir = "definitions"

// Names returns the IDs of the embedded definitions, sorted.
func Names() []string {
	entries, err := fs.ReadDir(FS, definitionsDir)
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Definition parses the embedded definition with the given ID.
func Definition(name string) (*builder.Definition, error) {
	data, err := FS.ReadFile(path.Join(definitionsDir, name+".yaml"))
	if err != nil {
		return nil, &errors.NotFoundError{Resource: "definition", ID: name}
	}
	return builder.ParseDefinition(data)
}

// Definitions parses every embedded definition in name order.
func Definitions() ([]*builder.Definition, error) {
	var defs []*builder.Definition
	for _, name := range Names() {
		def, err := Definition(name)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}
