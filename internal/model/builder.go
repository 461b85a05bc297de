package model

// ComponentBuilder is the field contract every schema's components share.
//
// Build returns a frozen copy and leaves the builder untouched, so the same
// builder can keep accumulating. Reset clears it for the next component.
type ComponentBuilder interface {
	SetType(t string)
	SetUID(uid string)
	SetAuthor(author string)
	SetName(name string)
	AddConcludedLicense(license string)
	AddDeclaredLicense(license string)
	AddLicenseFromFile(license string)
	SetCopyright(copyright string)
	AddHash(alg Algorithm, value string)
	Build() *Component
	Reset()
}

// PackageBuilder adds the fields of package-manager style components.
type PackageBuilder interface {
	ComponentBuilder
	SetSupplier(org Organization)
	SetVersion(version string)
	SetDescription(d Description)
	AddCPE(cpe string)
	AddPURL(purl string)
	AddExternalReference(ref ExternalReference)
}

// CDX14PackageBuilder builds CycloneDX 1.4 components.
type CDX14PackageBuilder interface {
	PackageBuilder
	SetMimeType(mimeType string)
	SetPublisher(publisher string)
	SetScope(scope string)
	SetGroup(group string)
	AddProperty(name, value string)
}

// SPDX23ComponentBuilder holds what SPDX packages and files have in common.
type SPDX23ComponentBuilder interface {
	ComponentBuilder
	SetComment(comment string)
	SetAttributionText(text string)
}

// SPDX23PackageBuilder builds SPDX 2.3 packages.
type SPDX23PackageBuilder interface {
	PackageBuilder
	SPDX23ComponentBuilder
	SetDownloadLocation(location string)
	SetFileName(name string)
	SetFilesAnalyzed(analyzed bool)
	SetVerificationCode(code string)
	SetHomePage(url string)
	SetSourceInfo(info string)
	SetReleaseDate(date string)
	SetBuildDate(date string)
	SetValidUntilDate(date string)
}

// SPDX23FileBuilder builds SPDX 2.3 files.
type SPDX23FileBuilder interface {
	SPDX23ComponentBuilder
	SetFileNotice(notice string)
}

// UnifiedComponentBuilder satisfies every component builder contract. The
// kind it was created with decides which fields survive Build.
type UnifiedComponentBuilder struct {
	kind Kind
	c    Component
}

var (
	_ CDX14PackageBuilder  = (*UnifiedComponentBuilder)(nil)
	_ SPDX23PackageBuilder = (*UnifiedComponentBuilder)(nil)
	_ SPDX23FileBuilder    = (*UnifiedComponentBuilder)(nil)
)

// NewComponentBuilder returns a builder producing components of kind.
func NewComponentBuilder(kind Kind) *UnifiedComponentBuilder {
	return &UnifiedComponentBuilder{kind: kind}
}

func NewCDX14PackageBuilder() CDX14PackageBuilder {
	return NewComponentBuilder(KindCDX14Package)
}

func NewSPDX23PackageBuilder() SPDX23PackageBuilder {
	return NewComponentBuilder(KindSPDX23Package)
}

func NewSPDX23FileBuilder() SPDX23FileBuilder {
	return NewComponentBuilder(KindSPDX23File)
}

func NewSVIPComponentBuilder() *UnifiedComponentBuilder {
	return NewComponentBuilder(KindSVIP)
}

// Kind reports the kind Build will produce.
func (b *UnifiedComponentBuilder) Kind() Kind { return b.kind }

// Build returns a frozen copy of the accumulated component.
func (b *UnifiedComponentBuilder) Build() *Component {
	return b.c.Project(b.kind)
}

// Reset clears every field; the kind is kept.
func (b *UnifiedComponentBuilder) Reset() {
	b.c = Component{}
}

func (b *UnifiedComponentBuilder) SetType(t string) { b.c.Type = &t }
func (b *UnifiedComponentBuilder) SetUID(uid string) { b.c.UID = &uid }
func (b *UnifiedComponentBuilder) SetAuthor(author string) { b.c.Author = &author }
func (b *UnifiedComponentBuilder) SetName(name string) { b.c.Name = &name }
func (b *UnifiedComponentBuilder) SetCopyright(c string) { b.c.Copyright = &c }

func (b *UnifiedComponentBuilder) licenses() *LicenseCollection {
	if b.c.Licenses == nil {
		b.c.Licenses = &LicenseCollection{}
	}
	return b.c.Licenses
}

func (b *UnifiedComponentBuilder) AddConcludedLicense(license string) {
	l := b.licenses()
	l.Concluded = append(l.Concluded, license)
}

func (b *UnifiedComponentBuilder) AddDeclaredLicense(license string) {
	l := b.licenses()
	l.Declared = append(l.Declared, license)
}

func (b *UnifiedComponentBuilder) AddLicenseFromFile(license string) {
	l := b.licenses()
	l.InfoFromFiles = append(l.InfoFromFiles, license)
}

func (b *UnifiedComponentBuilder) AddHash(alg Algorithm, value string) {
	if b.c.Hashes == nil {
		b.c.Hashes = Hashes{}
	}
	b.c.Hashes[NormalizeAlgorithm(string(alg))] = value
}

func (b *UnifiedComponentBuilder) SetSupplier(org Organization) { b.c.Supplier = org.Clone() }
func (b *UnifiedComponentBuilder) SetVersion(version string) { b.c.Version = &version }
func (b *UnifiedComponentBuilder) SetDescription(d Description) { b.c.Description = &d }
func (b *UnifiedComponentBuilder) AddCPE(cpe string) { b.c.CPEs = append(b.c.CPEs, cpe) }
func (b *UnifiedComponentBuilder) AddPURL(purl string) { b.c.PURLs = append(b.c.PURLs, purl) }

func (b *UnifiedComponentBuilder) AddExternalReference(ref ExternalReference) {
	b.c.ExternalReferences = append(b.c.ExternalReferences, ref.Clone())
}

func (b *UnifiedComponentBuilder) SetMimeType(mimeType string) { b.c.MimeType = &mimeType }
func (b *UnifiedComponentBuilder) SetPublisher(publisher string) { b.c.Publisher = &publisher }
func (b *UnifiedComponentBuilder) SetScope(scope string) { b.c.Scope = &scope }
func (b *UnifiedComponentBuilder) SetGroup(group string) { b.c.Group = &group }

func (b *UnifiedComponentBuilder) AddProperty(name, value string) {
	if b.c.Properties == nil {
		b.c.Properties = Properties{}
	}
	b.c.Properties[name] = append(b.c.Properties[name], value)
}

func (b *UnifiedComponentBuilder) SetComment(comment string) { b.c.Comment = &comment }
func (b *UnifiedComponentBuilder) SetAttributionText(text string) { b.c.AttributionText = &text }
func (b *UnifiedComponentBuilder) SetDownloadLocation(loc string) { b.c.DownloadLocation = &loc }
func (b *UnifiedComponentBuilder) SetFileName(name string) { b.c.FileName = &name }
func (b *UnifiedComponentBuilder) SetFilesAnalyzed(analyzed bool) { b.c.FilesAnalyzed = &analyzed }
func (b *UnifiedComponentBuilder) SetVerificationCode(code string) { b.c.VerificationCode = &code }
func (b *UnifiedComponentBuilder) SetHomePage(url string) { b.c.HomePage = &url }
func (b *UnifiedComponentBuilder) SetSourceInfo(info string) { b.c.SourceInfo = &info }
func (b *UnifiedComponentBuilder) SetReleaseDate(date string) { b.c.ReleaseDate = &date }
func (b *UnifiedComponentBuilder) SetBuildDate(date string) { b.c.BuildDate = &date }
func (b *UnifiedComponentBuilder) SetValidUntilDate(date string) { b.c.ValidUntilDate = &date }
func (b *UnifiedComponentBuilder) SetFileNotice(notice string) { b.c.FileNotice = &notice }
func (b *UnifiedComponentBuilder) SetFile(file bool) { b.c.File = file }

// DocumentBuilder accumulates a Document.
type DocumentBuilder struct {
	d Document
}

func NewDocumentBuilder() *DocumentBuilder {
	return &DocumentBuilder{}
}

// ForSchema presets the format tag and spec version of s.
func (b *DocumentBuilder) ForSchema(s Schema) {
	b.SetFormat(s.FormatName())
	b.SetSpecVersion(s.SpecVersion())
}

func (b *DocumentBuilder) SetFormat(format string) { b.d.Format = &format }
func (b *DocumentBuilder) SetName(name string) { b.d.Name = &name }
func (b *DocumentBuilder) SetUID(uid string) { b.d.UID = &uid }
func (b *DocumentBuilder) SetVersion(version string) { b.d.Version = &version }
func (b *DocumentBuilder) SetSpecVersion(specVersion string) { b.d.SpecVersion = &specVersion }
func (b *DocumentBuilder) AddLicense(license string) { b.d.Licenses = append(b.d.Licenses, license) }
func (b *DocumentBuilder) SetCreationData(c *CreationData) { b.d.CreationData = c.Clone() }
func (b *DocumentBuilder) SetDocumentComment(comment string) { b.d.DocumentComment = &comment }
func (b *DocumentBuilder) SetRootComponent(c *Component) { b.d.RootComponent = c.Clone() }

func (b *DocumentBuilder) AddComponent(c *Component) {
	b.d.Components = append(b.d.Components, c.Clone())
}

func (b *DocumentBuilder) AddRelationship(sourceUID string, rel Relationship) {
	if b.d.Relationships == nil {
		b.d.Relationships = map[string][]Relationship{}
	}
	for _, existing := range b.d.Relationships[sourceUID] {
		if existing == rel {
			return
		}
	}
	b.d.Relationships[sourceUID] = append(b.d.Relationships[sourceUID], rel)
}

func (b *DocumentBuilder) AddExternalReference(ref ExternalReference) {
	b.d.ExternalReferences = append(b.d.ExternalReferences, ref.Clone())
}

// Build returns a frozen copy of the accumulated document.
func (b *DocumentBuilder) Build() *Document {
	return b.d.Clone()
}

func (b *DocumentBuilder) Reset() {
	b.d = Document{}
}

// CreationDataBuilder accumulates CreationData.
type CreationDataBuilder struct {
	c CreationData
}

func NewCreationDataBuilder() *CreationDataBuilder {
	return &CreationDataBuilder{}
}

func (b *CreationDataBuilder) SetCreationTime(t string) { b.c.CreationTime = t }
func (b *CreationDataBuilder) AddAuthor(c Contact) { b.c.Authors = append(b.c.Authors, c) }
func (b *CreationDataBuilder) SetManufacture(org Organization) { b.c.Manufacture = org.Clone() }
func (b *CreationDataBuilder) SetSupplier(org Organization) { b.c.Supplier = org.Clone() }
func (b *CreationDataBuilder) AddLicense(license string) { b.c.Licenses = append(b.c.Licenses, license) }
func (b *CreationDataBuilder) AddCreationTool(t CreationTool) { b.c.CreationTools = append(b.c.CreationTools, t.Clone()) }
func (b *CreationDataBuilder) SetCreatorComment(comment string) { b.c.CreatorComment = comment }

func (b *CreationDataBuilder) AddProperty(name, value string) {
	if b.c.Properties == nil {
		b.c.Properties = Properties{}
	}
	b.c.Properties[name] = append(b.c.Properties[name], value)
}

func (b *CreationDataBuilder) Build() *CreationData {
	return b.c.Clone()
}

func (b *CreationDataBuilder) Reset() {
	b.c = CreationData{}
}
