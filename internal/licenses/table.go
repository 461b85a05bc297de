// Package licenses provides a read-only table of known SPDX license
// identifiers. Codecs use it to decide whether a license string is an SPDX
// id, a free-form name, or a license expression.
package licenses

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// License is one entry of the SPDX license list.
type License struct {
	ID          string `json:"licenseId"`
	Name        string `json:"name"`
	OSIApproved bool   `json:"isOsiApproved"`
}

// KnownLicenses is the built-in subset of the SPDX license list.
var KnownLicenses = []License{
	{ID: "0BSD", Name: "BSD Zero Clause License", OSIApproved: true},
	{ID: "AGPL-3.0-only", Name: "GNU Affero General Public License v3.0 only", OSIApproved: true},
	{ID: "AGPL-3.0-or-later", Name: "GNU Affero General Public License v3.0 or later", OSIApproved: true},
	{ID: "Apache-1.1", Name: "Apache License 1.1", OSIApproved: true},
	{ID: "Apache-2.0", Name: "Apache License 2.0", OSIApproved: true},
	{ID: "Artistic-2.0", Name: "Artistic License 2.0", OSIApproved: true},
	{ID: "BSD-2-Clause", Name: "BSD 2-Clause \"Simplified\" License", OSIApproved: true},
	{ID: "BSD-3-Clause", Name: "BSD 3-Clause \"New\" or \"Revised\" License", OSIApproved: true},
	{ID: "BSL-1.0", Name: "Boost Software License 1.0", OSIApproved: true},
	{ID: "CC-BY-4.0", Name: "Creative Commons Attribution 4.0 International"},
	{ID: "CC-BY-SA-4.0", Name: "Creative Commons Attribution Share Alike 4.0 International"},
	{ID: "CC0-1.0", Name: "Creative Commons Zero v1.0 Universal"},
	{ID: "CDDL-1.0", Name: "Common Development and Distribution License 1.0", OSIApproved: true},
	{ID: "EPL-1.0", Name: "Eclipse Public License 1.0", OSIApproved: true},
	{ID: "EPL-2.0", Name: "Eclipse Public License 2.0", OSIApproved: true},
	{ID: "GPL-2.0-only", Name: "GNU General Public License v2.0 only", OSIApproved: true},
	{ID: "GPL-2.0-or-later", Name: "GNU General Public License v2.0 or later", OSIApproved: true},
	{ID: "GPL-3.0-only", Name: "GNU General Public License v3.0 only", OSIApproved: true},
	{ID: "GPL-3.0-or-later", Name: "GNU General Public License v3.0 or later", OSIApproved: true},
	{ID: "ISC", Name: "ISC License", OSIApproved: true},
	{ID: "LGPL-2.1-only", Name: "GNU Lesser General Public License v2.1 only", OSIApproved: true},
	{ID: "LGPL-2.1-or-later", Name: "GNU Lesser General Public License v2.1 or later", OSIApproved: true},
	{ID: "LGPL-3.0-only", Name: "GNU Lesser General Public License v3.0 only", OSIApproved: true},
	{ID: "LGPL-3.0-or-later", Name: "GNU Lesser General Public License v3.0 or later", OSIApproved: true},
	{ID: "MIT", Name: "MIT License", OSIApproved: true},
	{ID: "MPL-1.1", Name: "Mozilla Public License 1.1", OSIApproved: true},
	{ID: "MPL-2.0", Name: "Mozilla Public License 2.0", OSIApproved: true},
	{ID: "OpenSSL", Name: "OpenSSL License"},
	{ID: "PostgreSQL", Name: "PostgreSQL License", OSIApproved: true},
	{ID: "Python-2.0", Name: "Python License 2.0", OSIApproved: true},
	{ID: "Unlicense", Name: "The Unlicense", OSIApproved: true},
	{ID: "Zlib", Name: "zlib License", OSIApproved: true},
}

// Table answers license lookups. It is built once and never mutated, so one
// table can be shared by concurrent callers.
type Table struct {
	byID   map[string]License
	byName map[string]License
}

// NewTable indexes entries by lower-cased id and name.
func NewTable(entries []License) *Table {
	t := &Table{
		byID:   make(map[string]License, len(entries)),
		byName: make(map[string]License, len(entries)),
	}
	for _, l := range entries {
		if l.ID == "" {
			continue
		}
		t.byID[strings.ToLower(l.ID)] = l
		if l.Name != "" {
			t.byName[strings.ToLower(l.Name)] = l
		}
	}
	return t
}

// Default returns a table over KnownLicenses.
func Default() *Table {
	return NewTable(KnownLicenses)
}

// Load reads a table from the SPDX license-list JSON format
// ({"licenses":[{"licenseId": ..., "name": ..., "isOsiApproved": ...}]}).
func Load(r io.Reader) (*Table, error) {
	var list struct {
		Licenses []License `json:"licenses"`
	}
	if err := json.NewDecoder(r).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode license list: %w", err)
	}
	if len(list.Licenses) == 0 {
		return nil, fmt.Errorf("license list is empty")
	}
	return NewTable(list.Licenses), nil
}

// Len is the number of known license ids.
func (t *Table) Len() int {
	return len(t.byID)
}

// Lookup matches s against known ids first, then full names.
// Returns false if no match is found.
func (t *Table) Lookup(s string) (License, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if l, ok := t.byID[key]; ok {
		return l, true
	}
	l, ok := t.byName[key]
	return l, ok
}

// IsID reports whether s is exactly a known license id (case-insensitive).
func (t *Table) IsID(s string) bool {
	_, ok := t.byID[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Canonical returns the SPDX id for s when known, otherwise s unchanged.
func (t *Table) Canonical(s string) string {
	if l, ok := t.Lookup(s); ok {
		return l.ID
	}
	return s
}

// IsExpression reports whether s is a compound SPDX license expression.
func IsExpression(s string) bool {
	upper := strings.ToUpper(s)
	for _, op := range []string{" AND ", " OR ", " WITH "} {
		if strings.Contains(upper, op) {
			return true
		}
	}
	return strings.ContainsAny(s, "()")
}
