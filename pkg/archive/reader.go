package archive

import (
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentstation/cvmap/pkg/constants"
	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/save"
	"github.com/agentstation/cvmap/pkg/vocab"
)

// ReadAuthority reads back an authority written under dir.
func ReadAuthority(dir, name string) (*vocab.Authority, error) {
	tree, err := ReadTree(dir, name)
	if err != nil {
		return nil, err
	}
	return tree.Build()
}

// ReadTree reads the serialized form of an authority written under dir.
func ReadTree(dir, name string) (Tree, error) {
	root := AuthorityPath(dir, name)
	format, ok := manifestFormat(root)
	if !ok {
		return Tree{}, &errors.NotFoundError{Resource: string(vocab.KindAuthority), ID: name}
	}
	ext := format.Extension()

	var manifest Manifest
	if err := readFile(filepath.Join(root, constants.ManifestName+ext), format, &manifest); err != nil {
		return Tree{}, err
	}
	if manifest.Version != manifestVersion {
		return Tree{}, errors.NewPersistenceError("read", root,
			errors.New("unsupported manifest version"))
	}

	tree := Tree{Authority: manifest.Authority}
	for _, sm := range manifest.Scopes {
		st := ScopeTree{Scope: sm.Scope}
		for _, cm := range sm.Collections {
			ct := CollectionTree{Collection: cm.Collection}
			dir := filepath.Join(root, segment(sm.Scope.Name), segment(cm.Collection.Name))
			for _, term := range cm.Terms {
				var r Record
				if err := readFile(filepath.Join(dir, segment(term)+ext), format, &r); err != nil {
					return Tree{}, err
				}
				ct.Terms = append(ct.Terms, r)
			}
			st.Collections = append(st.Collections, ct)
		}
		tree.Scopes = append(tree.Scopes, st)
	}
	return tree, nil
}

// List returns the names of the authorities written under dir, sorted.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapPersistence("list", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), constants.StagingPrefix) {
			continue
		}
		if _, ok := manifestFormat(filepath.Join(dir, entry.Name())); !ok {
			continue
		}
		name, err := url.PathUnescape(entry.Name())
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func manifestFormat(root string) (save.Format, bool) {
	for _, format := range []save.Format{save.FormatYAML, save.FormatJSON} {
		if _, err := os.Stat(filepath.Join(root, constants.ManifestName+format.Extension())); err == nil {
			return format, true
		}
	}
	return 0, false
}

func readFile(path string, format save.Format, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapPersistence("read", path, err)
	}
	if err := unmarshal(format, data, v); err != nil {
		return errors.WrapPersistence("decode", path, err)
	}
	return nil
}
