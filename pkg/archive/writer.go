package archive

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/agentstation/cvmap/pkg/constants"
	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/logging"
	"github.com/agentstation/cvmap/pkg/save"
	"github.com/agentstation/cvmap/pkg/vocab"
)

// segment turns an entity name into a single path element.
func segment(name string) string {
	escaped := url.PathEscape(name)
	switch escaped {
	case ".":
		return "%2E"
	case "..":
		return "%2E%2E"
	}
	return escaped
}

// AuthorityPath returns the directory an authority is written to under dest.
func AuthorityPath(dest, name string) string {
	return filepath.Join(dest, segment(name))
}

// WriteAuthority serializes one authority into dest/<authority>. The tree is
// written to a staging directory beside the target and renamed into place,
// so the target is either fully replaced or left untouched.
func WriteAuthority(ctx context.Context, dest string, authority *vocab.Authority, opts ...save.Option) error {
	if authority == nil {
		return errors.NewValidationError("authority", nil, "authority is required")
	}
	o := save.Defaults().Apply(opts...)
	if !o.Format().IsValid() {
		return errors.NewValidationError("format", o.Format(), "unsupported format")
	}

	info, err := os.Stat(dest)
	if err != nil {
		return errors.WrapPersistence("write", dest, err)
	}
	if !info.IsDir() {
		return errors.NewPersistenceError("write", dest, errors.New("destination is not a directory"))
	}

	target := AuthorityPath(dest, authority.Name())
	if _, err := os.Stat(target); err == nil && !o.Overwrite() {
		return &errors.DuplicateError{Kind: string(vocab.KindAuthority), Name: authority.Name(), Parent: dest}
	}

	staging, err := os.MkdirTemp(dest, constants.StagingPrefix+"*")
	if err != nil {
		return errors.WrapPersistence("stage", dest, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(staging)
		}
	}()

	if err := writeTree(ctx, staging, NewTree(authority), o.Format()); err != nil {
		return err
	}
	if err := replaceDir(staging, target); err != nil {
		return errors.WrapPersistence("commit", target, err)
	}
	committed = true

	logging.FromContext(ctx).Debug().
		Str("authority", authority.Name()).
		Str("path", target).
		Str("format", o.Format().String()).
		Msg("Wrote authority")
	return nil
}

func writeTree(ctx context.Context, root string, tree Tree, format save.Format) error {
	ext := format.Extension()

	for _, st := range tree.Scopes {
		for _, ct := range st.Collections {
			if err := ctx.Err(); err != nil {
				return err
			}
			dir := filepath.Join(root, segment(st.Scope.Name), segment(ct.Collection.Name))
			if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
				return errors.WrapPersistence("create", dir, err)
			}
			for _, r := range ct.Terms {
				if err := writeFile(filepath.Join(dir, segment(r.Name)+ext), format, r); err != nil {
					return err
				}
			}
		}
		// Scopes without collections still get a directory.
		if err := os.MkdirAll(filepath.Join(root, segment(st.Scope.Name)), constants.DirPermissions); err != nil {
			return errors.WrapPersistence("create", st.Scope.Name, err)
		}
	}

	return writeFile(filepath.Join(root, constants.ManifestName+ext), format, newManifest(tree))
}

func writeFile(path string, format save.Format, v any) error {
	data, err := marshal(format, v)
	if err != nil {
		return errors.WrapPersistence("encode", path, err)
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapPersistence("write", path, err)
	}
	return nil
}

// replaceDir moves staging to target, restoring the previous target if the
// final rename fails.
func replaceDir(staging, target string) error {
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return os.Rename(staging, target)
	}

	backup := staging + ".old"
	if err := os.Rename(target, backup); err != nil {
		return err
	}
	if err := os.Rename(staging, target); err != nil {
		_ = os.Rename(backup, target)
		return err
	}
	return os.RemoveAll(backup)
}

// Export writes the whole authority as a single document to the configured writer.
func Export(authority *vocab.Authority, opts ...save.Option) error {
	o := save.Defaults().Apply(opts...)
	if o.Writer() == nil {
		return errors.NewValidationError("writer", nil, "writer is required")
	}
	data, err := marshal(o.Format(), NewTree(authority))
	if err != nil {
		return errors.WrapPersistence("encode", authority.Name(), err)
	}
	if _, err := o.Writer().Write(data); err != nil {
		return errors.WrapPersistence("export", authority.Name(), err)
	}
	return nil
}
