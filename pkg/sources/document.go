// Package sources reads raw vocabulary documents.
//
// A raw document for collection type T is a JSON object whose top-level key
// T maps to an object from term name to raw term value:
//
//	{"activity_id": {"CMIP": "CMIP DECK: ...", "ScenarioMIP": "..."}}
//
// Term order follows the source document, which some consumers rely on for
// display. Parsing is done with gjson so key order survives decoding.
package sources

import (
	"slices"

	"github.com/tidwall/gjson"

	"github.com/agentstation/cvmap/pkg/constants"
	"github.com/agentstation/cvmap/pkg/errors"
)

// FileName returns the source file name for a collection type: {prefix}{type}.json.
func FileName(prefix, collectionType string) string {
	return prefix + collectionType + constants.SourceExtension
}

// Document is the inner object of a raw vocabulary document: term names
// mapped to raw term values, in source order.
type Document struct {
	collectionType string
	path           string
	names          []string
	values         map[string]gjson.Result
}

// Parse decodes a raw document and extracts the object stored under the
// collectionType key. The path is only used in error messages.
//
// When a key appears twice the term keeps the position of its first
// occurrence and the value of its last.
func Parse(collectionType, path string, data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.NewDocumentError(collectionType, path, "invalid JSON", nil)
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, errors.NewDocumentError(collectionType, path, "top-level value is not an object", nil)
	}

	var (
		inner gjson.Result
		found bool
	)
	root.ForEach(func(key, value gjson.Result) bool {
		if key.String() == collectionType {
			inner = value
			found = true
		}
		return true
	})
	if !found {
		return nil, errors.NewDocumentError(collectionType, path, `missing top-level key "`+collectionType+`"`, nil)
	}
	if !inner.IsObject() {
		return nil, errors.NewDocumentError(collectionType, path, `value of "`+collectionType+`" is not an object`, nil)
	}

	doc := &Document{
		collectionType: collectionType,
		path:           path,
		values:         make(map[string]gjson.Result),
	}
	inner.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if _, seen := doc.values[name]; !seen {
			doc.names = append(doc.names, name)
		}
		doc.values[name] = value
		return true
	})

	return doc, nil
}

// CollectionType returns the raw collection type the document was parsed for.
func (d *Document) CollectionType() string { return d.collectionType }

// Path returns the file the document was read from, if any.
func (d *Document) Path() string { return d.path }

// Names returns the term names in source order.
func (d *Document) Names() []string {
	return slices.Clone(d.names)
}

// Len returns the number of terms.
func (d *Document) Len() int {
	return len(d.names)
}

// Has reports whether the document contains the term.
func (d *Document) Has(name string) bool {
	_, ok := d.values[name]
	return ok
}

// Value returns the decoded raw value of a term: a string, float64, bool,
// nil, []any or map[string]any.
func (d *Document) Value(name string) (any, bool) {
	v, ok := d.values[name]
	if !ok {
		return nil, false
	}
	return v.Value(), true
}

// Raw returns the raw JSON text of a term value.
func (d *Document) Raw(name string) (string, bool) {
	v, ok := d.values[name]
	if !ok {
		return "", false
	}
	return v.Raw, true
}
