// Package docs renders vocabularies as Markdown reference pages.
package docs

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	md "github.com/nao1215/markdown"

	"github.com/agentstation/cvmap/pkg/constants"
	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/vocab"
)

// WriteAuthority writes a Markdown page for authority: an overview table of
// scopes and collections followed by one term table per collection.
func WriteAuthority(w io.Writer, authority *vocab.Authority) error {
	if authority == nil {
		return errors.NewValidationError("authority", nil, "authority is required")
	}

	m := md.NewMarkdown(w)
	m.H1(authority.Name())
	if authority.Description() != "" {
		m.PlainText(authority.Description()).LF()
	}
	if authority.URL() != "" {
		m.PlainText(md.Link(authority.URL(), authority.URL())).LF()
	}

	scopes, collections, terms := authority.Counts()
	m.BulletList(
		"Namespace: "+md.Code(authority.Namespace()),
		"Created: "+authority.CreateDate().Time.Format(constants.CreateDateLayout),
		fmt.Sprintf("%d scopes, %d collections, %d terms", scopes, collections, terms),
	)

	overview := make([][]string, 0, collections)
	for _, scope := range authority.Scopes() {
		for _, c := range scope.Collections() {
			overview = append(overview, []string{scope.Name(), c.Name(), strconv.Itoa(c.Len())})
		}
	}
	if len(overview) > 0 {
		m.H2("Collections")
		m.Table(md.TableSet{
			Header: []string{"Scope", "Collection", "Terms"},
			Rows:   overview,
		})
	}

	for _, scope := range authority.Scopes() {
		m.H2(scope.Name())
		if scope.Description() != "" {
			m.PlainText(scope.Description()).LF()
		}
		if len(scope.Collections()) == 0 {
			m.PlainText(md.Italic("No collections.")).LF()
			continue
		}
		for _, c := range scope.Collections() {
			m.H3(c.Name())
			if c.Description() != "" {
				m.PlainText(c.Description()).LF()
			}
			rows, err := termRows(c)
			if err != nil {
				return err
			}
			m.Table(md.TableSet{
				Header: []string{"Term", "Description", "Data"},
				Rows:   rows,
			})
		}
	}

	return m.Build()
}

func termRows(c *vocab.Collection) ([][]string, error) {
	rows := make([][]string, 0, c.Len())
	for _, term := range c.Terms() {
		data := ""
		if term.HasData() {
			encoded, err := json.Marshal(term.Data().Value())
			if err != nil {
				return nil, fmt.Errorf("encode data of %s: %w", term.Namespace(), err)
			}
			data = md.Code(string(encoded))
		}
		rows = append(rows, []string{term.Name(), term.Description(), data})
	}
	return rows, nil
}
