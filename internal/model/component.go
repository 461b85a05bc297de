// Package model defines the internal data structures used by the SBOM engine.
package model

// Kind tags which schema-specific shape a Component has.
type Kind string

const (
	KindCDX14Package  Kind = "cdx14-package"
	KindSPDX23Package Kind = "spdx23-package"
	KindSPDX23File    Kind = "spdx23-file"
	KindSVIP          Kind = "svip"
)

// FieldGroup is a family of component fields that schemas support together.
type FieldGroup int

const (
	GroupGeneric FieldGroup = iota
	GroupPackage
	GroupCDX
	GroupSPDX
	GroupSPDXPackage
	GroupFile
)

var kindGroups = map[Kind][]FieldGroup{
	KindCDX14Package:  {GroupGeneric, GroupPackage, GroupCDX},
	KindSPDX23Package: {GroupGeneric, GroupPackage, GroupSPDX, GroupSPDXPackage},
	KindSPDX23File:    {GroupGeneric, GroupSPDX, GroupFile},
	KindSVIP:          {GroupGeneric, GroupPackage, GroupCDX, GroupSPDX, GroupSPDXPackage, GroupFile},
}

// Supports reports whether components of kind k carry the fields of group g.
func (k Kind) Supports(g FieldGroup) bool {
	for _, group := range kindGroups[k] {
		if group == g {
			return true
		}
	}
	return false
}

// Component is a single software element of a Document. A nil pointer or nil
// slice means the field is absent; a pointer to "" is present but empty.
type Component struct {
	Kind Kind `json:"kind"`
	// File marks a canonical component that describes a single file.
	File bool `json:"file,omitempty"`

	// generic
	Type      *string            `json:"type,omitempty"`
	UID       *string            `json:"uid,omitempty"`
	Author    *string            `json:"author,omitempty"`
	Name      *string            `json:"name,omitempty"`
	Licenses  *LicenseCollection `json:"licenses,omitempty"`
	Copyright *string            `json:"copyright,omitempty"`
	Hashes    Hashes             `json:"hashes,omitempty"`

	// package
	Supplier           *Organization       `json:"supplier,omitempty"`
	Version            *string             `json:"version,omitempty"`
	Description        *Description        `json:"description,omitempty"`
	CPEs               []string            `json:"cpes,omitempty"`
	PURLs              []string            `json:"purls,omitempty"`
	ExternalReferences []ExternalReference `json:"externalReferences,omitempty"`

	// CycloneDX
	MimeType   *string    `json:"mimeType,omitempty"`
	Publisher  *string    `json:"publisher,omitempty"`
	Scope      *string    `json:"scope,omitempty"`
	Group      *string    `json:"group,omitempty"`
	Properties Properties `json:"properties,omitempty"`

	// SPDX
	Comment          *string `json:"comment,omitempty"`
	AttributionText  *string `json:"attributionText,omitempty"`
	DownloadLocation *string `json:"downloadLocation,omitempty"`
	FileName         *string `json:"fileName,omitempty"`
	FilesAnalyzed    *bool   `json:"filesAnalyzed,omitempty"`
	VerificationCode *string `json:"verificationCode,omitempty"`
	HomePage         *string `json:"homePage,omitempty"`
	SourceInfo       *string `json:"sourceInfo,omitempty"`
	ReleaseDate      *string `json:"releaseDate,omitempty"`
	BuildDate        *string `json:"buildDate,omitempty"`
	ValidUntilDate   *string `json:"validUntilDate,omitempty"`
	FileNotice       *string `json:"fileNotice,omitempty"`
}

// Key returns a normalized pairing key for the component.
// It uses the normalized name (lowercase, _ and . replaced with -)
// combined with the version, so that:
//   - "nlohmann_json@3.11.2" and "nlohmann-json@3.11.2" collapse to the same key
//   - "openssl@1.1.1" and "openssl@3.1.4" remain distinct keys
func (c *Component) Key() string {
	return c.NameKey() + "@" + Deref(c.Version)
}

// NameKey is the normalized name alone.
func (c *Component) NameKey() string {
	return normalizeKey(Deref(c.Name))
}

// Label is a short human-readable handle: the name, else the uid.
func (c *Component) Label() string {
	if c.Name != nil && *c.Name != "" {
		return *c.Name
	}
	return Deref(c.UID)
}

// normalizeKey returns a normalized map key for a name string:
// lowercase, with underscores and dots replaced by hyphens.
func normalizeKey(name string) string {
	result := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		b := name[i]
		if b >= 'A' && b <= 'Z' {
			b += 32
		}
		if b == '_' || b == '.' {
			b = '-'
		}
		result = append(result, b)
	}
	return string(result)
}

// Clone deep-copies the component and normalizes its sets.
func (c *Component) Clone() *Component {
	if c == nil {
		return nil
	}
	out := *c
	out.Type = clonePtr(c.Type)
	out.UID = clonePtr(c.UID)
	out.Author = clonePtr(c.Author)
	out.Name = clonePtr(c.Name)
	out.Licenses = c.Licenses.Clone()
	out.Copyright = clonePtr(c.Copyright)
	out.Hashes = c.Hashes.Clone()

	out.Supplier = c.Supplier.Clone()
	out.Version = clonePtr(c.Version)
	out.Description = clonePtr(c.Description)
	out.CPEs = CloneSet(c.CPEs)
	out.PURLs = CloneSet(c.PURLs)
	out.ExternalReferences = cloneReferences(c.ExternalReferences)

	out.MimeType = clonePtr(c.MimeType)
	out.Publisher = clonePtr(c.Publisher)
	out.Scope = clonePtr(c.Scope)
	out.Group = clonePtr(c.Group)
	out.Properties = c.Properties.Clone()

	out.Comment = clonePtr(c.Comment)
	out.AttributionText = clonePtr(c.AttributionText)
	out.DownloadLocation = clonePtr(c.DownloadLocation)
	out.FileName = clonePtr(c.FileName)
	out.FilesAnalyzed = clonePtr(c.FilesAnalyzed)
	out.VerificationCode = clonePtr(c.VerificationCode)
	out.HomePage = clonePtr(c.HomePage)
	out.SourceInfo = clonePtr(c.SourceInfo)
	out.ReleaseDate = clonePtr(c.ReleaseDate)
	out.BuildDate = clonePtr(c.BuildDate)
	out.ValidUntilDate = clonePtr(c.ValidUntilDate)
	out.FileNotice = clonePtr(c.FileNotice)
	return &out
}

// Project returns a copy of c re-tagged as kind, with every field group that
// kind does not support cleared to absent.
func (c *Component) Project(kind Kind) *Component {
	out := c.Clone()
	if out == nil {
		return nil
	}
	out.Kind = kind
	if kind != KindSVIP {
		out.File = false
	}
	if !kind.Supports(GroupPackage) {
		out.Supplier = nil
		out.Version = nil
		out.Description = nil
		out.CPEs = nil
		out.PURLs = nil
		out.ExternalReferences = nil
	}
	if !kind.Supports(GroupCDX) {
		out.MimeType = nil
		out.Publisher = nil
		out.Scope = nil
		out.Group = nil
		out.Properties = nil
	}
	if !kind.Supports(GroupSPDX) {
		out.Comment = nil
		out.AttributionText = nil
	}
	if !kind.Supports(GroupSPDXPackage) {
		out.DownloadLocation = nil
		out.FileName = nil
		out.FilesAnalyzed = nil
		out.VerificationCode = nil
		out.HomePage = nil
		out.SourceInfo = nil
		out.ReleaseDate = nil
		out.BuildDate = nil
		out.ValidUntilDate = nil
	}
	if !kind.Supports(GroupFile) {
		out.FileNotice = nil
	}
	return out
}

// IsFile reports whether the component describes a single file.
func (c *Component) IsFile() bool {
	switch c.Kind {
	case KindSPDX23File:
		return true
	case KindCDX14Package:
		return c.Type != nil && *c.Type == "file"
	default:
		return c.File
	}
}
