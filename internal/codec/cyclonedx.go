package codec

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/StinkyLord/sbomkit/internal/convert"
	"github.com/StinkyLord/sbomkit/internal/licenses"
	"github.com/StinkyLord/sbomkit/internal/model"
)

// Reserved CycloneDX property names.
const (
	propCreatorComment = "creatorComment"
	propCPE            = "sbomkit:cpe"
	propPURL           = "sbomkit:purl"
)

var cdxHashNames = map[model.Algorithm]cdx.HashAlgorithm{
	model.AlgMD5:        "MD5",
	model.AlgSHA1:       "SHA-1",
	model.AlgSHA256:     "SHA-256",
	model.AlgSHA384:     "SHA-384",
	model.AlgSHA512:     "SHA-512",
	model.AlgSHA3_256:   "SHA3-256",
	model.AlgSHA3_384:   "SHA3-384",
	model.AlgSHA3_512:   "SHA3-512",
	model.AlgBLAKE2b256: "BLAKE2b-256",
	model.AlgBLAKE2b384: "BLAKE2b-384",
	model.AlgBLAKE2b512: "BLAKE2b-512",
	model.AlgBLAKE3:     "BLAKE3",
}

func cdxFileFormat(f Format) cdx.BOMFileFormat {
	if f == FormatXML {
		return cdx.BOMFileFormatXML
	}
	return cdx.BOMFileFormatJSON
}

// ---- reading ----

func (c *Codec) readCycloneDX(raw []byte, format Format) (*model.Document, error) {
	bom := new(cdx.BOM)
	if err := cdx.NewBOMDecoder(bytes.NewReader(raw), cdxFileFormat(format)).Decode(bom); err != nil {
		return nil, convert.DeserializeError(model.CDX14, "%v", err)
	}

	b := model.NewDocumentBuilder()
	b.ForSchema(model.CDX14)
	if bom.SerialNumber != "" {
		b.SetUID(bom.SerialNumber)
	}
	if bom.Version > 0 {
		b.SetVersion(strconv.Itoa(bom.Version))
	}

	ids := map[string]bool{}
	// walk flattens nested components; a parent CONTAINS its children.
	var walk func(parent string, comps *[]cdx.Component)
	walk = func(parent string, comps *[]cdx.Component) {
		if comps == nil {
			return
		}
		for i := range *comps {
			cc := &(*comps)[i]
			b.AddComponent(cdxComponent(cc))
			if cc.BOMRef != "" {
				ids[cc.BOMRef] = true
				if parent != "" {
					b.AddRelationship(parent, model.Relationship{OtherUID: cc.BOMRef, Type: model.RelContains})
				}
			}
			walk(cc.BOMRef, cc.Components)
		}
	}

	if md := bom.Metadata; md != nil {
		if cd := cdxCreationData(md); cd != nil {
			b.SetCreationData(cd)
		}
		for _, l := range licenseValues(md.Licenses) {
			b.AddLicense(l)
		}
		if md.Component != nil {
			b.SetRootComponent(cdxComponent(md.Component))
			if md.Component.BOMRef != "" {
				ids[md.Component.BOMRef] = true
			}
			walk(md.Component.BOMRef, md.Component.Components)
		}
	}
	walk("", bom.Components)

	if bom.ExternalReferences != nil {
		for _, r := range *bom.ExternalReferences {
			b.AddExternalReference(refFromCDX(r))
		}
	}

	skipped := 0
	if bom.Dependencies != nil {
		for _, dep := range *bom.Dependencies {
			if dep.Dependencies == nil {
				continue
			}
			for _, target := range *dep.Dependencies {
				if !ids[dep.Ref] || !ids[target] {
					skipped++
					continue
				}
				b.AddRelationship(dep.Ref, model.Relationship{OtherUID: target, Type: model.RelDependsOn})
			}
		}
	}
	if skipped > 0 {
		log.Debug().Int("count", skipped).Msg("skipped dependencies on unknown bom-refs")
	}
	return b.Build(), nil
}

func cdxComponent(cc *cdx.Component) *model.Component {
	pb := model.NewCDX14PackageBuilder()
	set(pb.SetUID, cc.BOMRef)
	set(pb.SetType, strings.ToLower(string(cc.Type)))
	set(pb.SetName, cc.Name)
	set(pb.SetVersion, cc.Version)
	set(pb.SetAuthor, cc.Author)
	set(pb.SetPublisher, cc.Publisher)
	set(pb.SetGroup, cc.Group)
	set(pb.SetMimeType, cc.MIMEType)
	set(pb.SetCopyright, cc.Copyright)
	set(pb.SetScope, string(cc.Scope))
	set(pb.AddCPE, cc.CPE)
	set(pb.AddPURL, cc.PackageURL)
	if cc.Description != "" {
		pb.SetDescription(model.Description{Summary: cc.Description})
	}
	if cc.Supplier != nil {
		pb.SetSupplier(*orgFromCDX(cc.Supplier))
	}
	for alg, v := range hashesFromCDX(cc.Hashes) {
		pb.AddHash(alg, v)
	}
	for _, l := range licenseValues(cc.Licenses) {
		pb.AddConcludedLicense(l)
	}
	if cc.ExternalReferences != nil {
		for _, r := range *cc.ExternalReferences {
			pb.AddExternalReference(refFromCDX(r))
		}
	}
	if cc.Properties != nil {
		for _, p := range *cc.Properties {
			switch p.Name {
			case propCPE:
				pb.AddCPE(p.Value)
			case propPURL:
				pb.AddPURL(p.Value)
			default:
				pb.AddProperty(p.Name, p.Value)
			}
		}
	}
	return pb.Build()
}

func cdxCreationData(md *cdx.Metadata) *model.CreationData {
	cb := model.NewCreationDataBuilder()
	cb.SetCreationTime(md.Timestamp)
	if md.Authors != nil {
		for _, a := range *md.Authors {
			cb.AddAuthor(model.Contact{Name: a.Name, Email: a.Email, Phone: a.Phone})
		}
	}
	if md.Tools != nil {
		if md.Tools.Tools != nil {
			for _, t := range *md.Tools.Tools {
				cb.AddCreationTool(model.CreationTool{Vendor: t.Vendor, Name: t.Name, Version: t.Version, Hashes: hashesFromCDX(t.Hashes)})
			}
		}
		if md.Tools.Components != nil {
			for _, t := range *md.Tools.Components {
				cb.AddCreationTool(model.CreationTool{Vendor: t.Publisher, Name: t.Name, Version: t.Version, Hashes: hashesFromCDX(t.Hashes)})
			}
		}
	}
	if md.Manufacture != nil {
		cb.SetManufacture(*orgFromCDX(md.Manufacture))
	}
	if md.Supplier != nil {
		cb.SetSupplier(*orgFromCDX(md.Supplier))
	}
	if md.Properties != nil {
		for _, p := range *md.Properties {
			if p.Name == propCreatorComment {
				cb.SetCreatorComment(p.Value)
				continue
			}
			cb.AddProperty(p.Name, p.Value)
		}
	}
	return nonEmpty(cb.Build())
}

func orgFromCDX(e *cdx.OrganizationalEntity) *model.Organization {
	org := &model.Organization{Name: e.Name}
	if e.URL != nil && len(*e.URL) > 0 {
		org.URL = (*e.URL)[0]
	}
	if e.Contact != nil {
		for _, ct := range *e.Contact {
			org.Contacts = append(org.Contacts, model.Contact{Name: ct.Name, Email: ct.Email, Phone: ct.Phone})
		}
	}
	return org
}

func refFromCDX(r cdx.ExternalReference) model.ExternalReference {
	return model.ExternalReference{
		URL:     r.URL,
		Type:    string(r.Type),
		Comment: r.Comment,
		Hashes:  hashesFromCDX(r.Hashes),
	}
}

func hashesFromCDX(hashes *[]cdx.Hash) model.Hashes {
	if hashes == nil || len(*hashes) == 0 {
		return nil
	}
	out := model.Hashes{}
	for _, h := range *hashes {
		if h.Value != "" {
			out[model.NormalizeAlgorithm(string(h.Algorithm))] = h.Value
		}
	}
	return out.Clone()
}

func licenseValues(l *cdx.Licenses) []string {
	if l == nil {
		return nil
	}
	var out []string
	for _, choice := range *l {
		switch {
		case choice.Expression != "":
			out = append(out, choice.Expression)
		case choice.License != nil && choice.License.ID != "":
			out = append(out, choice.License.ID)
		case choice.License != nil && choice.License.Name != "":
			out = append(out, choice.License.Name)
		}
	}
	return out
}

// ---- writing ----

func (c *Codec) writeCycloneDX(doc *model.Document, format Format) ([]byte, error) {
	bom := cdx.NewBOM()
	bom.SerialNumber = model.Deref(doc.UID)
	if bom.SerialNumber == "" {
		bom.SerialNumber = "urn:uuid:" + uuid.NewString()
	}
	bom.Version = 1
	if v, err := strconv.Atoi(model.Deref(doc.Version)); err == nil && v > 0 {
		bom.Version = v
	}

	md, hasMetadata := c.cdxMetadata(doc)
	if hasMetadata {
		bom.Metadata = md
	}

	if len(doc.Components) > 0 {
		comps := make([]cdx.Component, 0, len(doc.Components))
		for _, comp := range doc.Components {
			comps = append(comps, c.toCDXComponent(comp))
		}
		bom.Components = &comps
	}

	if len(doc.ExternalReferences) > 0 {
		refs := refsToCDX(doc.ExternalReferences)
		bom.ExternalReferences = &refs
	}

	var deps []cdx.Dependency
	dropped := 0
	for _, source := range sortedRelationshipKeys(doc) {
		var targets []string
		for _, rel := range doc.Relationships[source] {
			if rel.Type != model.RelDependsOn {
				dropped++
				continue
			}
			targets = append(targets, rel.OtherUID)
		}
		if len(targets) > 0 {
			deps = append(deps, cdx.Dependency{Ref: source, Dependencies: &targets})
		}
	}
	if len(deps) > 0 {
		bom.Dependencies = &deps
	}
	if dropped > 0 {
		log.Debug().Int("count", dropped).Msg("CycloneDX dependencies carry DEPENDS_ON only; dropped other relationships")
	}

	var buf bytes.Buffer
	enc := cdx.NewBOMEncoder(&buf, cdxFileFormat(format))
	enc.SetPretty(true)
	if err := enc.EncodeVersion(bom, cdx.SpecVersion1_4); err != nil {
		return nil, convert.SerializeError(model.CDX14, "%v", err)
	}
	return buf.Bytes(), nil
}

func (c *Codec) cdxMetadata(doc *model.Document) (*cdx.Metadata, bool) {
	md := &cdx.Metadata{}
	has := false

	if cd := doc.CreationData; cd != nil {
		has = true
		md.Timestamp = cd.CreationTime
		if len(cd.Authors) > 0 {
			authors := make([]cdx.OrganizationalContact, 0, len(cd.Authors))
			for _, a := range cd.Authors {
				authors = append(authors, cdx.OrganizationalContact{Name: a.Name, Email: a.Email, Phone: a.Phone})
			}
			md.Authors = &authors
		}
		if len(cd.CreationTools) > 0 {
			tools := make([]cdx.Tool, 0, len(cd.CreationTools))
			for _, t := range cd.CreationTools {
				tools = append(tools, cdx.Tool{Vendor: t.Vendor, Name: t.Name, Version: t.Version, Hashes: hashesToCDX(t.Hashes)})
			}
			md.Tools = &cdx.ToolsChoice{Tools: &tools}
		}
		if cd.Manufacture != nil {
			md.Manufacture = orgToCDX(cd.Manufacture)
		}
		if cd.Supplier != nil {
			md.Supplier = orgToCDX(cd.Supplier)
		}
		var props []cdx.Property
		if cd.CreatorComment != "" {
			props = append(props, cdx.Property{Name: propCreatorComment, Value: cd.CreatorComment})
		}
		props = append(props, propertiesToCDX(cd.Properties)...)
		if len(props) > 0 {
			md.Properties = &props
		}
	}
	if len(doc.Licenses) > 0 {
		has = true
		md.Licenses = c.cdxLicenses(doc.Licenses)
	}
	if doc.RootComponent != nil {
		has = true
		root := c.toCDXComponent(doc.RootComponent)
		md.Component = &root
	}
	return md, has
}

func (c *Codec) toCDXComponent(comp *model.Component) cdx.Component {
	typ := model.Deref(comp.Type)
	if typ == "" {
		typ = string(cdx.ComponentTypeLibrary)
	}
	cc := cdx.Component{
		BOMRef:    model.Deref(comp.UID),
		Type:      cdx.ComponentType(typ),
		Name:      model.Deref(comp.Name),
		Version:   model.Deref(comp.Version),
		Author:    model.Deref(comp.Author),
		Publisher: model.Deref(comp.Publisher),
		Group:     model.Deref(comp.Group),
		MIMEType:  model.Deref(comp.MimeType),
		Copyright: model.Deref(comp.Copyright),
		Scope:     cdx.Scope(model.Deref(comp.Scope)),
	}
	if d := comp.Description; d != nil {
		cc.Description = d.Summary
		if cc.Description == "" {
			cc.Description = d.Details
		}
	}
	if comp.Supplier != nil {
		cc.Supplier = orgToCDX(comp.Supplier)
	}
	cc.Hashes = hashesToCDX(comp.Hashes)
	if all := comp.Licenses.All(); len(all) > 0 {
		cc.Licenses = c.cdxLicenses(all)
	}

	var props []cdx.Property
	for i, cpe := range comp.CPEs {
		if i == 0 {
			cc.CPE = cpe
			continue
		}
		props = append(props, cdx.Property{Name: propCPE, Value: cpe})
	}
	for i, purl := range comp.PURLs {
		if i == 0 {
			cc.PackageURL = purl
			continue
		}
		props = append(props, cdx.Property{Name: propPURL, Value: purl})
	}
	props = append(props, propertiesToCDX(comp.Properties)...)
	if len(props) > 0 {
		cc.Properties = &props
	}

	if len(comp.ExternalReferences) > 0 {
		refs := refsToCDX(comp.ExternalReferences)
		cc.ExternalReferences = &refs
	}
	return cc
}

// cdxLicenses writes known SPDX ids as ids, expressions as expressions and
// anything else as a free-form name.
func (c *Codec) cdxLicenses(values []string) *cdx.Licenses {
	out := make(cdx.Licenses, 0, len(values))
	for _, v := range values {
		switch {
		case licenses.IsExpression(v):
			out = append(out, cdx.LicenseChoice{Expression: v})
		case c.licenses.IsID(v):
			out = append(out, cdx.LicenseChoice{License: &cdx.License{ID: c.licenses.Canonical(v)}})
		default:
			out = append(out, cdx.LicenseChoice{License: &cdx.License{Name: v}})
		}
	}
	return &out
}

func orgToCDX(o *model.Organization) *cdx.OrganizationalEntity {
	e := &cdx.OrganizationalEntity{Name: o.Name}
	if o.URL != "" {
		e.URL = &[]string{o.URL}
	}
	if len(o.Contacts) > 0 {
		contacts := make([]cdx.OrganizationalContact, 0, len(o.Contacts))
		for _, ct := range o.Contacts {
			contacts = append(contacts, cdx.OrganizationalContact{Name: ct.Name, Email: ct.Email, Phone: ct.Phone})
		}
		e.Contact = &contacts
	}
	return e
}

func refsToCDX(refs []model.ExternalReference) []cdx.ExternalReference {
	out := make([]cdx.ExternalReference, 0, len(refs))
	for _, r := range refs {
		typ := r.Type
		if typ == "" {
			typ = string(cdx.ERTypeOther)
		}
		out = append(out, cdx.ExternalReference{
			URL:     r.URL,
			Type:    cdx.ExternalReferenceType(typ),
			Comment: r.Comment,
			Hashes:  hashesToCDX(r.Hashes),
		})
	}
	return out
}

func hashesToCDX(h model.Hashes) *[]cdx.Hash {
	var out []cdx.Hash
	for _, alg := range h.Algorithms() {
		name, ok := cdxHashNames[alg]
		if !ok {
			continue
		}
		out = append(out, cdx.Hash{Algorithm: name, Value: h[alg]})
	}
	if len(out) == 0 {
		return nil
	}
	return &out
}

func propertiesToCDX(p model.Properties) []cdx.Property {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []cdx.Property
	for _, k := range keys {
		for _, v := range p[k] {
			out = append(out, cdx.Property{Name: k, Value: v})
		}
	}
	return out
}
