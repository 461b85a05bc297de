package compare

import (
	"github.com/StinkyLord/sbomkit/internal/model"
)

// Documents returns every conflict between target and other in a fixed
// order: document fields, creation data, external references, the root
// component, then components. Components are paired by Key() and, failing
// that, by normalized name. Equal inputs yield no conflicts.
func Documents(target, other *model.Document) []Conflict {
	if target == nil || other == nil {
		return nil
	}
	c := newCollector()
	compareDocument(c, target, other)
	return c.conflicts()
}

// Components diffs two components of the same kind. Components of
// different kinds are not comparable and yield nothing.
func Components(target, other *model.Component) []Conflict {
	if target == nil || other == nil || target.Kind != other.Kind {
		return nil
	}
	c := newCollector()
	compareComponent(c, target, other)
	return c.conflicts()
}

// CreationData diffs two creation-data blocks.
func CreationData(target, other *model.CreationData) []Conflict {
	c := newCollector()
	guard(c, "Creation Data", target, other, creationDataString, compareCreationData)
	return c.conflicts()
}

// Organizations diffs two organizations.
func Organizations(target, other *model.Organization) []Conflict {
	c := newCollector()
	c.organization("Organization", NameMismatch, target, other)
	return c.conflicts()
}

// Contacts diffs two contacts.
func Contacts(target, other model.Contact) []Conflict {
	c := newCollector()
	compareContact(c, target, other)
	return c.conflicts()
}

// CreationTools diffs two creation tools.
func CreationTools(target, other model.CreationTool) []Conflict {
	c := newCollector()
	compareTool(c, target, other)
	return c.conflicts()
}

// ExternalReferences diffs two external references.
func ExternalReferences(target, other model.ExternalReference) []Conflict {
	c := newCollector()
	compareReference(c, target, other)
	return c.conflicts()
}

func compareDocument(c *collector, a, b *model.Document) {
	c.scalar("Format", OriginFormatMismatch, a.Format, b.Format)
	c.scalar("Name", NameMismatch, a.Name, b.Name)
	c.scalar("UID", MiscMismatch, a.UID, b.UID)
	c.scalar("Version", VersionMismatch, a.Version, b.Version)
	c.scalar("Spec Version", SchemaVersionMismatch, a.SpecVersion, b.SpecVersion)
	c.scalar("Document Comment", MiscMismatch, a.DocumentComment, b.DocumentComment)
	c.stringSet("License", LicenseMismatch, a.Licenses, b.Licenses)
	guard(c, "Creation Data", a.CreationData, b.CreationData, creationDataString, compareCreationData)
	compareSet(c, "External Reference", a.ExternalReferences, b.ExternalReferences, compareReference)
	guard(c, "Root Component", a.RootComponent, b.RootComponent, componentString, func(c *collector, x, y *model.Component) {
		if x.Kind == y.Kind {
			compareComponent(c, x, y)
		}
	})
	compareComponentSets(c, a.Components, b.Components)
}

// compareComponentSets pairs components and diffs each pair under a
// "<name>:" label. Unpaired components are reported as MissingComponent.
func compareComponentSets(c *collector, target, other []*model.Component) {
	pairs := pairComponents(target, other)
	used := make([]bool, len(other))
	for i, t := range target {
		j := pairs[i]
		if j < 0 {
			c.addRaw("Component", MissingComponent, strPtr(componentString(t)), nil)
			continue
		}
		used[j] = true
		if o := other[j]; t.Kind == o.Kind {
			compareComponent(c.nested(t.Label()+":"), t, o)
		}
	}
	for j, o := range other {
		if !used[j] {
			c.addRaw("Component", MissingComponent, nil, strPtr(componentString(o)))
		}
	}
}

// pairComponents maps each target index to its partner in other, or -1.
// Every exact Key match is claimed before any NameKey fallback runs.
func pairComponents(target, other []*model.Component) []int {
	pairs := make([]int, len(target))
	used := make([]bool, len(other))
	for i, t := range target {
		pairs[i] = claim(other, used, t.Key(), (*model.Component).Key)
	}
	for i, t := range target {
		if pairs[i] < 0 {
			pairs[i] = claim(other, used, t.NameKey(), (*model.Component).NameKey)
		}
	}
	return pairs
}

// claim marks and returns the first unused component whose key matches.
func claim(other []*model.Component, used []bool, want string, key func(*model.Component) string) int {
	for j, o := range other {
		if !used[j] && key(o) == want {
			used[j] = true
			return j
		}
	}
	return -1
}

// compareComponent walks the field groups the shared kind supports.
// Identifiers are document-local and never compared.
func compareComponent(c *collector, a, b *model.Component) {
	kind := a.Kind

	c.scalar("Type", MiscMismatch, a.Type, b.Type)
	c.scalar("Name", NameMismatch, a.Name, b.Name)
	c.scalar("Author", AuthorMismatch, a.Author, b.Author)
	guard(c, "License", a.Licenses, b.Licenses, licenseString, compareLicenses)
	c.scalar("Copyright", MiscMismatch, a.Copyright, b.Copyright)
	c.hashes("Hash", a.Hashes, b.Hashes)
	if kind == model.KindSVIP {
		c.boolean("File", MiscMismatch, fileFlag(a), fileFlag(b))
	}

	if kind.Supports(model.GroupPackage) {
		c.organization("Supplier", SupplierMismatch, a.Supplier, b.Supplier)
		c.scalar("Version", VersionMismatch, a.Version, b.Version)
		guard(c, "Description", a.Description, b.Description, (*model.Description).String, compareDescription)
		c.stringSet("PURL", PurlMismatch, a.PURLs, b.PURLs)
		c.stringSet("CPE", CpeMismatch, a.CPEs, b.CPEs)
		compareSet(c, "External Reference", a.ExternalReferences, b.ExternalReferences, compareReference)
	}
	if kind.Supports(model.GroupCDX) {
		c.scalar("Mime Type", MiscMismatch, a.MimeType, b.MimeType)
		c.scalar("Publisher", PublisherMismatch, a.Publisher, b.Publisher)
		c.scalar("Scope", MiscMismatch, a.Scope, b.Scope)
		c.scalar("Group", MiscMismatch, a.Group, b.Group)
		c.stringSet("Property", MiscMismatch, a.Properties.Flatten(), b.Properties.Flatten())
	}
	if kind.Supports(model.GroupSPDX) {
		c.scalar("Comment", MiscMismatch, a.Comment, b.Comment)
		c.scalar("Attribution Text", MiscMismatch, a.AttributionText, b.AttributionText)
	}
	if kind.Supports(model.GroupSPDXPackage) {
		c.scalar("Download Location", MiscMismatch, a.DownloadLocation, b.DownloadLocation)
		c.scalar("File Name", MiscMismatch, a.FileName, b.FileName)
		c.boolean("Files Analyzed", MiscMismatch, a.FilesAnalyzed, b.FilesAnalyzed)
		c.scalar("Verification Code", MiscMismatch, a.VerificationCode, b.VerificationCode)
		c.scalar("Home Page", MiscMismatch, a.HomePage, b.HomePage)
		c.scalar("Source Info", MiscMismatch, a.SourceInfo, b.SourceInfo)
		c.scalar("Release Date", TimestampMismatch, a.ReleaseDate, b.ReleaseDate)
		c.scalar("Built Date", TimestampMismatch, a.BuildDate, b.BuildDate)
		c.scalar("Valid Until Date", TimestampMismatch, a.ValidUntilDate, b.ValidUntilDate)
	}
	if kind.Supports(model.GroupFile) {
		c.scalar("File Notice", MiscMismatch, a.FileNotice, b.FileNotice)
	}
}

func compareLicenses(c *collector, a, b *model.LicenseCollection) {
	c.stringSet("Concluded", LicenseMismatch, a.Concluded, b.Concluded)
	c.stringSet("Declared", LicenseMismatch, a.Declared, b.Declared)
	c.stringSet("Info From Files", LicenseMismatch, a.InfoFromFiles, b.InfoFromFiles)
}

func compareDescription(c *collector, a, b *model.Description) {
	c.str("Summary", MiscMismatch, a.Summary, b.Summary)
	c.str("Details", MiscMismatch, a.Details, b.Details)
}

func compareCreationData(c *collector, a, b *model.CreationData) {
	c.str("Timestamp", TimestampMismatch, a.CreationTime, b.CreationTime)
	c.str("Creator Comment", MiscMismatch, a.CreatorComment, b.CreatorComment)
	c.stringSet("License", LicenseMismatch, a.Licenses, b.Licenses)
	compareSet(c, "Author", a.Authors, b.Authors, compareContact)
	compareSet(c, "Tool", a.CreationTools, b.CreationTools, compareTool)
	c.organization("Manufacture", NameMismatch, a.Manufacture, b.Manufacture)
	c.organization("Supplier", SupplierMismatch, a.Supplier, b.Supplier)
	c.stringSet("Property", MiscMismatch, a.Properties.Flatten(), b.Properties.Flatten())
}

// organization compares two optional organizations. Organizations that do
// not match are different entities: each is reported missing from the other
// side instead of field by field.
func (c *collector) organization(field string, nameKind MismatchKind, a, b *model.Organization) {
	switch {
	case a == nil && b == nil:
	case a == nil:
		c.addRaw(field, Missing, nil, strPtr(b.String()))
	case b == nil:
		c.addRaw(field, Missing, strPtr(a.String()), nil)
	case !a.Matches(b):
		c.addRaw(field, Missing, strPtr(a.String()), nil)
		c.addRaw(field, Missing, nil, strPtr(b.String()))
	default:
		n := c.nested(field)
		n.str("Name", nameKind, a.Name, b.Name)
		n.str("URL", MiscMismatch, a.URL, b.URL)
		compareSet(n, "Contact", a.Contacts, b.Contacts, compareContact)
	}
}

func compareContact(c *collector, a, b model.Contact) {
	c.str("Name", NameMismatch, a.Name, b.Name)
	c.str("Email", MiscMismatch, a.Email, b.Email)
	c.str("Phone", MiscMismatch, a.Phone, b.Phone)
}

func compareTool(c *collector, a, b model.CreationTool) {
	c.str("Vendor", MiscMismatch, a.Vendor, b.Vendor)
	c.str("Name", NameMismatch, a.Name, b.Name)
	c.str("Version", VersionMismatch, a.Version, b.Version)
	c.hashes("Hash", a.Hashes, b.Hashes)
}

func compareReference(c *collector, a, b model.ExternalReference) {
	c.str("URL", MiscMismatch, a.URL, b.URL)
	c.str("Type", MiscMismatch, a.Type, b.Type)
	c.str("Category", MiscMismatch, a.Category, b.Category)
	c.str("Comment", MiscMismatch, a.Comment, b.Comment)
	c.hashes("Hash", a.Hashes, b.Hashes)
}

func fileFlag(c *model.Component) *bool {
	if !c.File {
		return nil
	}
	return model.Ptr(true)
}

func componentString(c *model.Component) string {
	if c.Version != nil && *c.Version != "" {
		return c.Label() + "@" + *c.Version
	}
	return c.Label()
}

func creationDataString(c *model.CreationData) string {
	if c.CreationTime != "" {
		return "created " + c.CreationTime
	}
	return "creation data"
}
