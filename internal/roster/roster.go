// Package roster reads player lists exported from spreadsheets and
// groups players into teams.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Entry is one player row. Team is empty when the row leaves team
// assignment to Assign.
type Entry struct {
	Name  string
	Email string
	Team  string
}

var ErrNoRows = errors.New("roster has no player rows")

var headerAliases = map[string]string{
	"name":   "name",
	"player": "name",
	"nombre": "name",
	"email":  "email",
	"e-mail": "email",
	"mail":   "email",
	"correo": "email",
	"team":   "team",
	"equipo": "team",
}

func ParseCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return parseRows(rows)
}

// ParseXLSX reads the first sheet of a workbook.
func ParseXLSX(r io.Reader) ([]Entry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoRows
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]Entry, error) {
	if len(rows) < 2 {
		return nil, ErrNoRows
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if field, ok := headerAliases[h]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	for _, required := range []string{"name", "email"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	cell := func(row []string, field string) string {
		i, ok := cols[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	seen := map[string]int{}
	var entries []Entry
	for n, row := range rows[1:] {
		line := n + 2
		e := Entry{
			Name:  cell(row, "name"),
			Email: cell(row, "email"),
			Team:  cell(row, "team"),
		}
		if e.Name == "" && e.Email == "" && e.Team == "" {
			continue
		}
		if e.Name == "" {
			return nil, fmt.Errorf("row %d: name is required", line)
		}
		// Spreadsheet exports often carry "Name <addr>" cells; only the
		// address is what players log in with.
		addr, err := mail.ParseAddress(e.Email)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid email %q", line, e.Email)
		}
		e.Email = strings.ToLower(addr.Address)
		if prev, ok := seen[e.Email]; ok {
			return nil, fmt.Errorf("row %d: email %s already used on row %d", line, e.Email, prev)
		}
		seen[e.Email] = line
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, ErrNoRows
	}
	return entries, nil
}

// Assign puts every entry without a team into generated teams of
// teamSize, in input order. Generated names are "Team N", skipping names
// already used by the roster or listed in existing, so a second import
// never tops up a team from an earlier one. Entries with a team keep it.
func Assign(entries []Entry, teamSize int, existing []string) []Entry {
	if teamSize < 1 {
		teamSize = 1
	}

	taken := map[string]bool{}
	for _, name := range existing {
		taken[strings.TrimSpace(name)] = true
	}
	for _, e := range entries {
		if e.Team != "" {
			taken[e.Team] = true
		}
	}

	out := make([]Entry, len(entries))
	copy(out, entries)

	n, filled := 0, teamSize
	var current string
	for i := range out {
		if out[i].Team != "" {
			continue
		}
		if filled == teamSize {
			for {
				n++
				current = "Team " + strconv.Itoa(n)
				if !taken[current] {
					break
				}
			}
			filled = 0
		}
		out[i].Team = current
		filled++
	}
	return out
}

// Teams returns the distinct team names in first-seen order.
func Teams(entries []Entry) []string {
	seen := map[string]bool{}
	var names []string
	for _, e := range entries {
		if e.Team == "" || seen[e.Team] {
			continue
		}
		seen[e.Team] = true
		names = append(names, e.Team)
	}
	return names
}
