// Package table provides common table formatting utilities for CLI commands.
package table

import (
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/cvmap/pkg/builder"
	"github.com/agentstation/cvmap/pkg/constants"
	"github.com/agentstation/cvmap/pkg/vocab"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align
}

const maxDescription = 60

var title = cases.Title(language.English)

// DefinitionsToTableData converts vocabulary definitions to table format.
func DefinitionsToTableData(defs []*builder.Definition, wide bool) Data {
	headers := []string{"ID", "Authority", "Mode", "Scopes", "Collections"}
	align := []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight}
	if wide {
		headers = append(headers, "Term Description", "Create Date")
		align = append(align, AlignLeft, AlignLeft)
	}

	rows := make([][]string, 0, len(defs))
	for _, def := range defs {
		collections := 0
		for _, scope := range def.Scopes {
			collections += len(scope.Collections)
		}
		row := []string{
			def.ID,
			def.Authority.Name,
			title.String(string(def.Mode)),
			strconv.Itoa(len(def.Scopes)),
			strconv.Itoa(collections),
		}
		if wide {
			createDate := "-"
			if def.CreateDate != nil {
				createDate = def.CreateDate.Time.Format(constants.CreateDateLayout)
			}
			row = append(row, title.String(string(def.TermDescription)), createDate)
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// AuthorityToTableData lists every collection of an authority with its term
// count. Scopes without collections get a single row.
func AuthorityToTableData(authority *vocab.Authority, wide bool) Data {
	headers := []string{"Scope", "Collection", "Terms"}
	align := []Align{AlignLeft, AlignLeft, AlignRight}
	if wide {
		headers = append(headers, "Namespace", "Description")
		align = append(align, AlignLeft, AlignLeft)
	}

	var rows [][]string
	for _, scope := range authority.Scopes() {
		collections := scope.Collections()
		if len(collections) == 0 {
			row := []string{scope.Name(), "-", "0"}
			if wide {
				row = append(row, scope.Namespace(), orDash(Truncate(scope.Description(), maxDescription)))
			}
			rows = append(rows, row)
			continue
		}
		for _, c := range collections {
			row := []string{scope.Name(), c.Name(), strconv.Itoa(c.Len())}
			if wide {
				row = append(row, c.Namespace(), orDash(Truncate(c.Description(), maxDescription)))
			}
			rows = append(rows, row)
		}
	}

	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// NamesToTableData converts a list of names to a single column table.
func NamesToTableData(header string, names []string) Data {
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name})
	}
	return Data{Headers: []string{header}, Rows: rows}
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
