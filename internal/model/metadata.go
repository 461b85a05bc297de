package model

import (
	"sort"
	"strings"
)

// Contact is a person or mailbox. Empty fields are absent.
type Contact struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// Matches reports whether c and other plausibly describe the same contact:
// any identifying field that both carry is equal.
func (c Contact) Matches(other Contact) bool {
	return sameNonEmpty(c.Name, other.Name) ||
		sameNonEmpty(c.Email, other.Email) ||
		sameNonEmpty(c.Phone, other.Phone)
}

func (c Contact) String() string {
	parts := make([]string, 0, 3)
	if c.Name != "" {
		parts = append(parts, c.Name)
	}
	if c.Email != "" {
		parts = append(parts, "<"+c.Email+">")
	}
	if c.Phone != "" {
		parts = append(parts, "("+c.Phone+")")
	}
	return strings.Join(parts, " ")
}

// IsZero reports whether no field is set.
func (c Contact) IsZero() bool {
	return c == Contact{}
}

// Organization is a supplier or manufacturer.
type Organization struct {
	Name     string    `json:"name,omitempty" yaml:"name,omitempty"`
	URL      string    `json:"url,omitempty" yaml:"url,omitempty"`
	Contacts []Contact `json:"contacts,omitempty" yaml:"contacts,omitempty"`
}

// Matches pairs organizations known by name on one side and by name or url on
// the other. Records with no shared identifying field never match.
func (o *Organization) Matches(other *Organization) bool {
	if o == nil || other == nil {
		return false
	}
	return sameNonEmpty(o.Name, other.Name) || sameNonEmpty(o.URL, other.URL)
}

func (o *Organization) String() string {
	if o == nil {
		return ""
	}
	switch {
	case o.Name != "" && o.URL != "":
		return o.Name + " (" + o.URL + ")"
	case o.Name != "":
		return o.Name
	default:
		return o.URL
	}
}

// Clone deep-copies o.
func (o *Organization) Clone() *Organization {
	if o == nil {
		return nil
	}
	out := *o
	out.Contacts = cloneContacts(o.Contacts)
	return &out
}

// MergeContacts returns a copy of o whose contacts also include other's
// contacts that o does not already know.
func (o *Organization) MergeContacts(other *Organization) *Organization {
	out := o.Clone()
	if out == nil || other == nil {
		return out
	}
	out.Contacts = UnionContacts(out.Contacts, other.Contacts)
	return out
}

// CreationTool is a tool that produced the document.
type CreationTool struct {
	Vendor  string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Hashes  Hashes `json:"hashes,omitempty" yaml:"hashes,omitempty"`
}

// Matches reports whether t and other share at least one field and disagree
// on none of the fields both carry.
func (t CreationTool) Matches(other CreationTool) bool {
	shared := 0
	for _, pair := range [][2]string{
		{t.Vendor, other.Vendor},
		{t.Name, other.Name},
		{t.Version, other.Version},
	} {
		if pair[0] == "" || pair[1] == "" {
			continue
		}
		if pair[0] != pair[1] {
			return false
		}
		shared++
	}
	return shared > 0
}

func (t CreationTool) String() string {
	return joinNonEmpty(" ", t.Vendor, t.Name, t.Version)
}

// Clone deep-copies t.
func (t CreationTool) Clone() CreationTool {
	t.Hashes = t.Hashes.Clone()
	return t
}

// ExternalReference points at a resource outside the document.
type ExternalReference struct {
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Comment  string `json:"comment,omitempty" yaml:"comment,omitempty"`
	Hashes   Hashes `json:"hashes,omitempty" yaml:"hashes,omitempty"`
}

// Matches pairs references of the same type and category whose urls agree
// when both are known.
func (r ExternalReference) Matches(other ExternalReference) bool {
	if r.Type != other.Type || r.Category != other.Category {
		return false
	}
	if r.URL != "" && other.URL != "" && r.URL != other.URL {
		return false
	}
	return true
}

// Equal is strict field equality.
func (r ExternalReference) Equal(other ExternalReference) bool {
	return r.URL == other.URL && r.Type == other.Type && r.Category == other.Category &&
		r.Comment == other.Comment && r.Hashes.Equal(other.Hashes)
}

func (r ExternalReference) String() string {
	label := joinNonEmpty("/", r.Category, r.Type)
	if label == "" {
		return r.URL
	}
	if r.URL == "" {
		return label
	}
	return label + ": " + r.URL
}

// Clone deep-copies r.
func (r ExternalReference) Clone() ExternalReference {
	r.Hashes = r.Hashes.Clone()
	return r
}

// LicenseCollection groups license strings by how they were established.
type LicenseCollection struct {
	Concluded     []string `json:"concluded,omitempty" yaml:"concluded,omitempty"`
	Declared      []string `json:"declared,omitempty" yaml:"declared,omitempty"`
	InfoFromFiles []string `json:"infoFromFiles,omitempty" yaml:"infoFromFiles,omitempty"`
}

// Clone returns a normalized copy, or nil when every set is empty.
func (l *LicenseCollection) Clone() *LicenseCollection {
	if l == nil {
		return nil
	}
	out := &LicenseCollection{
		Concluded:     Set(l.Concluded...),
		Declared:      Set(l.Declared...),
		InfoFromFiles: Set(l.InfoFromFiles...),
	}
	if out.Concluded == nil && out.Declared == nil && out.InfoFromFiles == nil {
		return nil
	}
	return out
}

// Union merges both collections set by set.
func (l *LicenseCollection) Union(other *LicenseCollection) *LicenseCollection {
	if l == nil {
		return other.Clone()
	}
	if other == nil {
		return l.Clone()
	}
	out := &LicenseCollection{
		Concluded:     UnionSet(l.Concluded, other.Concluded),
		Declared:      UnionSet(l.Declared, other.Declared),
		InfoFromFiles: UnionSet(l.InfoFromFiles, other.InfoFromFiles),
	}
	return out.Clone()
}

// All returns every license string in the collection.
func (l *LicenseCollection) All() []string {
	if l == nil {
		return nil
	}
	return Set(append(append(append([]string{}, l.Concluded...), l.Declared...), l.InfoFromFiles...)...)
}

// Description is a short summary plus longer details.
type Description struct {
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
}

func (d *Description) String() string {
	if d == nil {
		return ""
	}
	return joinNonEmpty("\n", d.Summary, d.Details)
}

// Relationship is one outgoing edge of a component.
type Relationship struct {
	OtherUID string `json:"otherUID" yaml:"otherUID"`
	Type     string `json:"type" yaml:"type"`
	Comment  string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// Common relationship types.
const (
	RelDependsOn = "DEPENDS_ON"
	RelContains  = "CONTAINS"
	RelDescribes = "DESCRIBES"
)

// CreationData describes who and what produced a document.
type CreationData struct {
	CreationTime   string         `json:"creationTime,omitempty" yaml:"creationTime,omitempty"`
	Authors        []Contact      `json:"authors,omitempty" yaml:"authors,omitempty"`
	Manufacture    *Organization  `json:"manufacture,omitempty" yaml:"manufacture,omitempty"`
	Supplier       *Organization  `json:"supplier,omitempty" yaml:"supplier,omitempty"`
	Licenses       []string       `json:"licenses,omitempty" yaml:"licenses,omitempty"`
	Properties     Properties     `json:"properties,omitempty" yaml:"properties,omitempty"`
	CreationTools  []CreationTool `json:"creationTools,omitempty" yaml:"creationTools,omitempty"`
	CreatorComment string         `json:"creatorComment,omitempty" yaml:"creatorComment,omitempty"`
}

// Clone deep-copies c.
func (c *CreationData) Clone() *CreationData {
	if c == nil {
		return nil
	}
	out := *c
	out.Authors = cloneContacts(c.Authors)
	out.Manufacture = c.Manufacture.Clone()
	out.Supplier = c.Supplier.Clone()
	out.Licenses = CloneSet(c.Licenses)
	out.Properties = c.Properties.Clone()
	out.CreationTools = cloneTools(c.CreationTools)
	return &out
}

// UnionContacts appends to a the contacts of b that match nothing in a.
func UnionContacts(a, b []Contact) []Contact {
	out := cloneContacts(a)
	for _, candidate := range b {
		found := false
		for _, existing := range out {
			if existing.Matches(candidate) {
				found = true
				break
			}
		}
		if !found && !candidate.IsZero() {
			out = append(out, candidate)
		}
	}
	return out
}

// UnionTools appends to a the tools of b that match nothing in a.
func UnionTools(a, b []CreationTool) []CreationTool {
	out := cloneTools(a)
	for _, candidate := range b {
		found := false
		for _, existing := range out {
			if existing.Matches(candidate) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, candidate.Clone())
		}
	}
	return out
}

// UnionReferences appends to a the references of b not already present.
func UnionReferences(a, b []ExternalReference) []ExternalReference {
	out := cloneReferences(a)
	for _, candidate := range b {
		found := false
		for _, existing := range out {
			if existing.Equal(candidate) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, candidate.Clone())
		}
	}
	return out
}

func cloneContacts(in []Contact) []Contact {
	if len(in) == 0 {
		return nil
	}
	return append([]Contact(nil), in...)
}

func cloneTools(in []CreationTool) []CreationTool {
	if len(in) == 0 {
		return nil
	}
	out := make([]CreationTool, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}

func cloneReferences(in []ExternalReference) []ExternalReference {
	if len(in) == 0 {
		return nil
	}
	out := make([]ExternalReference, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

func cloneRelationships(in map[string][]Relationship) map[string][]Relationship {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string][]Relationship, len(in))
	for k, rels := range in {
		out[k] = append([]Relationship(nil), rels...)
	}
	return out
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sameNonEmpty(a, b string) bool {
	return a != "" && a == b
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
