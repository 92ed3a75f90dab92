package builder

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/agentstation/utc"
	"github.com/goccy/go-yaml"

	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/extract"
)

// Mode selects how a built authority is persisted.
type Mode string

// Run modes.
const (
	// ModeWrite serializes the authority directly to a destination directory.
	ModeWrite Mode = "write"
	// ModeArchive registers the authority in the shared archive and saves it.
	ModeArchive Mode = "archive"
)

// TermDescription selects how term descriptions are filled in.
type TermDescription string

// Term description policies.
const (
	// TermDescriptionNone leaves term descriptions empty.
	TermDescriptionNone TermDescription = "none"
	// TermDescriptionName uses the term name as its description.
	TermDescriptionName TermDescription = "name"
)

// CollectionRule binds a raw collection type to its extraction rule.
type CollectionRule struct {
	Type string
	Rule extract.Rule
}

// ScopeDefinition describes one scope and the collections built into it.
// Source files for its collections are named {Prefix}{type}.json.
type ScopeDefinition struct {
	Name        string
	Description string
	URL         string
	Prefix      string
	Collections []CollectionRule

	// CollectionDescription overrides the definition-wide collection description prefix.
	CollectionDescription string
}

// AuthorityDefinition describes the authority at the root of the tree.
type AuthorityDefinition struct {
	Name        string
	Description string
	URL         string
}

// Definition is the declarative table driving a build. Scopes and
// collections are built in declaration order.
type Definition struct {
	// ID names the definition on the command line, e.g. "wcrp-cmip6".
	ID string

	Authority AuthorityDefinition
	Scopes    []ScopeDefinition

	Mode            Mode
	TermDescription TermDescription

	// CollectionDescription is prefixed to the collection name to form its description.
	CollectionDescription string

	// CreateDate pins the batch timestamp; nil lets the caller choose.
	CreateDate *utc.Time
}

// Validate checks the definition for structural errors.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Authority.Name) == "" {
		return errors.NewValidationError("authority.name", d.Authority.Name, "cannot be empty")
	}
	switch d.Mode {
	case ModeWrite, ModeArchive:
	default:
		return errors.NewValidationError("mode", d.Mode, "must be write or archive")
	}
	switch d.TermDescription {
	case TermDescriptionNone, TermDescriptionName:
	default:
		return errors.NewValidationError("term_description", d.TermDescription, "must be none or name")
	}

	scopes := make(map[string]bool, len(d.Scopes))
	for i, scope := range d.Scopes {
		if strings.TrimSpace(scope.Name) == "" {
			return errors.NewValidationError(fmt.Sprintf("scopes[%d].name", i), scope.Name, "cannot be empty")
		}
		if scopes[scope.Name] {
			return errors.NewValidationError(fmt.Sprintf("scopes[%d].name", i), scope.Name, "duplicate scope")
		}
		scopes[scope.Name] = true

		types := make(map[string]bool, len(scope.Collections))
		for j, c := range scope.Collections {
			field := fmt.Sprintf("scopes[%d].collections[%d]", i, j)
			if strings.TrimSpace(c.Type) == "" {
				return errors.NewValidationError(field+".type", c.Type, "cannot be empty")
			}
			if types[c.Type] {
				return errors.NewValidationError(field+".type", c.Type, "duplicate collection type")
			}
			types[c.Type] = true
			if err := c.Rule.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// CollectionOptions returns the per-collection settings of the definition for a batch timestamp.
func (d *Definition) CollectionOptions(createDate utc.Time) CollectionOptions {
	return CollectionOptions{
		CreateDate:        createDate,
		DescriptionPrefix: d.CollectionDescription,
		TermDescription:   d.TermDescription,
	}
}

// definitionFile is the YAML shape of a definition.
type definitionFile struct {
	ID                    string `yaml:"id"`
	Mode                  string `yaml:"mode"`
	TermDescription       string `yaml:"term_description"`
	CollectionDescription string `yaml:"collection_description"`
	CreateDate            string `yaml:"create_date"`
	Authority             struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		URL         string `yaml:"url"`
	} `yaml:"authority"`
	Scopes []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		URL         string `yaml:"url"`
		Prefix      string `yaml:"prefix"`

		CollectionDescription string `yaml:"collection_description"`

		Collections []struct {
			Type string `yaml:"type"`
			Data any    `yaml:"data"`
		} `yaml:"collections"`
	} `yaml:"scopes"`
}

// ParseDefinition decodes a YAML definition:
//
//	id: wcrp-cmip6
//	mode: write
//	authority: {name: WCRP, description: ..., url: ...}
//	scopes:
//	  - name: CMIP6
//	    prefix: CMIP6_
//	    collections:
//	      - type: activity_id
//	      - type: experiment_id
//	        data: passthrough
//	      - type: institution_id
//	        data: {wrap: postal_address}
func ParseDefinition(data []byte) (*Definition, error) {
	var file definitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.NewConfigError("definition", "invalid YAML", err)
	}

	def := &Definition{
		ID: file.ID,
		Authority: AuthorityDefinition{
			Name:        file.Authority.Name,
			Description: file.Authority.Description,
			URL:         file.Authority.URL,
		},
		Mode:                  Mode(defaultString(file.Mode, string(ModeWrite))),
		TermDescription:       TermDescription(defaultString(file.TermDescription, string(TermDescriptionNone))),
		CollectionDescription: file.CollectionDescription,
	}

	if file.CreateDate != "" {
		createDate, err := ParseCreateDate(file.CreateDate)
		if err != nil {
			return nil, errors.WrapConfig("definition", err)
		}
		def.CreateDate = &createDate
	}

	for _, s := range file.Scopes {
		scope := ScopeDefinition{
			Name:        s.Name,
			Description: s.Description,
			URL:         s.URL,
			Prefix:      s.Prefix,

			CollectionDescription: s.CollectionDescription,
		}
		for _, c := range s.Collections {
			rule, err := parseRule(c.Data)
			if err != nil {
				return nil, errors.NewConfigError("definition",
					fmt.Sprintf("collection %s in scope %s", c.Type, s.Name), err)
			}
			scope.Collections = append(scope.Collections, CollectionRule{Type: c.Type, Rule: rule})
		}
		def.Scopes = append(def.Scopes, scope)
	}

	if err := def.Validate(); err != nil {
		return nil, errors.WrapConfig("definition", err)
	}
	return def, nil
}

// LoadDefinitionFile reads and parses a YAML definition from disk.
func LoadDefinitionFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("definition", "cannot read "+path, err)
	}
	return ParseDefinition(data)
}

// parseRule maps the data field of a collection entry onto a rule:
// absent or "none", "passthrough", or {wrap: <field>}.
func parseRule(data any) (extract.Rule, error) {
	switch v := data.(type) {
	case nil:
		return extract.None(), nil
	case string:
		switch v {
		case "", "none":
			return extract.None(), nil
		case "passthrough":
			return extract.Passthrough(), nil
		}
		return extract.Rule{}, fmt.Errorf("unknown data rule %q", v)
	case map[string]any:
		field, ok := v["wrap"].(string)
		if !ok || len(v) != 1 {
			return extract.Rule{}, fmt.Errorf("data rule must be {wrap: <field>}")
		}
		return extract.FieldWrap(field), nil
	}
	return extract.Rule{}, fmt.Errorf("unsupported data rule %v", data)
}

// ParseCreateDate parses a batch timestamp given as RFC 3339 or a plain date.
func ParseCreateDate(s string) (utc.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := utc.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return utc.Time{}, errors.NewValidationError("create_date", s, "expected RFC 3339 or YYYY-MM-DD")
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
