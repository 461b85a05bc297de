// Package compare finds the structural differences between two canonical
// SBOM objects and reports them as typed Conflicts.
package compare

// MismatchKind classifies a Conflict.
type MismatchKind string

const (
	Missing               MismatchKind = "MISSING"
	MissingComponent      MismatchKind = "MISSING_COMPONENT"
	NameMismatch          MismatchKind = "NAME_MISMATCH"
	VersionMismatch       MismatchKind = "VERSION_MISMATCH"
	LicenseMismatch       MismatchKind = "LICENSE_MISMATCH"
	HashMismatch          MismatchKind = "HASH_MISMATCH"
	AuthorMismatch        MismatchKind = "AUTHOR_MISMATCH"
	TimestampMismatch     MismatchKind = "TIMESTAMP_MISMATCH"
	OriginFormatMismatch  MismatchKind = "ORIGIN_FORMAT_MISMATCH"
	SchemaVersionMismatch MismatchKind = "SCHEMA_VERSION_MISMATCH"
	PublisherMismatch     MismatchKind = "PUBLISHER_MISMATCH"
	SupplierMismatch      MismatchKind = "SUPPLIER_MISMATCH"
	MiscMismatch          MismatchKind = "MISC_MISMATCH"
	PurlMismatch          MismatchKind = "PURL_MISMATCH"
	CpeMismatch           MismatchKind = "CPE_MISMATCH"
)

// Conflict is one reported difference. Target and Other are nil when the
// value is absent on that side. The JSON shape is stable for report
// consumers.
type Conflict struct {
	MismatchKind MismatchKind `json:"mismatchKind" yaml:"mismatchKind"`
	Field        string       `json:"field" yaml:"field"`
	Target       *string      `json:"target" yaml:"target"`
	Other        *string      `json:"other" yaml:"other"`
}

// New builds a conflict for field. It returns false when there is nothing to
// report: both sides absent, or both present and equal. Empty strings count
// as absent. Exactly one side absent yields Missing; otherwise kind.
func New(field string, kind MismatchKind, target, other *string) (Conflict, bool) {
	target, other = presence(target), presence(other)
	switch {
	case target == nil && other == nil:
		return Conflict{}, false
	case target == nil || other == nil:
		return Conflict{MismatchKind: Missing, Field: field, Target: target, Other: other}, true
	case *target == *other:
		return Conflict{}, false
	default:
		return Conflict{MismatchKind: kind, Field: field, Target: target, Other: other}, true
	}
}

// Message is a one-line human rendering.
func (c Conflict) Message() string {
	switch c.MismatchKind {
	case Missing, MissingComponent:
		return c.Field + " is missing"
	default:
		return c.Field + " doesn't match"
	}
}

func presence(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
