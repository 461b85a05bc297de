package codec

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
	spdxjson "github.com/spdx/tools-golang/json"
	"github.com/spdx/tools-golang/spdx/v2/common"
	"github.com/spdx/tools-golang/spdx/v2/v2_3"
	"github.com/spdx/tools-golang/tagvalue"

	"github.com/StinkyLord/sbomkit/internal/convert"
	"github.com/StinkyLord/sbomkit/internal/model"
)

const (
	spdxVersion     = "SPDX-2.3"
	spdxDataLicense = "CC0-1.0"
	spdxDocumentID  = "DOCUMENT"
	noAssertion     = "NOASSERTION"
	none            = "NONE"
)

// present maps the SPDX placeholders to absent.
func present(s string) string {
	s = strings.TrimSpace(s)
	if s == noAssertion || s == none {
		return ""
	}
	return s
}

func orNoAssertion(s *string) string {
	if s == nil || *s == "" {
		return noAssertion
	}
	return *s
}

func elementUID(id common.ElementID) string {
	return model.SPDX23.IDPrefix() + string(id)
}

func elementID(uid string) common.ElementID {
	return common.ElementID(strings.TrimPrefix(uid, model.SPDX23.IDPrefix()))
}

// ---- reading ----

func (c *Codec) readSPDX(raw []byte, format Format) (*model.Document, error) {
	var (
		sdoc *v2_3.Document
		err  error
	)
	if format == FormatTagValue {
		sdoc, err = tagvalue.Read(bytes.NewReader(raw))
	} else {
		sdoc, err = spdxjson.Read(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, convert.DeserializeError(model.SPDX23, "%v", err)
	}
	if sdoc == nil {
		return nil, convert.DeserializeError(model.SPDX23, "empty document")
	}

	b := model.NewDocumentBuilder()
	b.ForSchema(model.SPDX23)
	set(b.SetName, sdoc.DocumentName)
	set(b.SetUID, sdoc.DocumentNamespace)
	set(b.SetSpecVersion, strings.TrimPrefix(sdoc.SPDXVersion, "SPDX-"))
	set(b.AddLicense, present(sdoc.DataLicense))
	set(b.SetDocumentComment, sdoc.DocumentComment)
	if sdoc.CreationInfo != nil {
		if cd := spdxCreationData(sdoc.CreationInfo); cd != nil {
			b.SetCreationData(cd)
		}
	}

	rootID := describedRoot(sdoc)
	ids := map[string]bool{}
	add := func(comp *model.Component) {
		uid := model.Deref(comp.UID)
		if ids[uid] {
			return
		}
		ids[uid] = true
		if uid == rootID {
			b.SetRootComponent(comp)
		} else {
			b.AddComponent(comp)
		}
	}
	for _, p := range sdoc.Packages {
		if p != nil {
			add(spdxPackage(p))
		}
	}
	for _, p := range sdoc.Packages {
		if p == nil {
			continue
		}
		for _, f := range p.Files {
			if f != nil {
				add(spdxFile(f))
			}
		}
	}
	for _, f := range sdoc.Files {
		if f != nil {
			add(spdxFile(f))
		}
	}

	skipped := 0
	for _, r := range sdoc.Relationships {
		if r == nil {
			continue
		}
		if r.RefA.DocumentRefID != "" || r.RefB.DocumentRefID != "" ||
			r.RefA.SpecialID != "" || r.RefB.SpecialID != "" ||
			r.RefA.ElementRefID == spdxDocumentID || r.RefB.ElementRefID == spdxDocumentID {
			skipped++
			continue
		}
		src, dst := elementUID(r.RefA.ElementRefID), elementUID(r.RefB.ElementRefID)
		if !ids[src] || !ids[dst] {
			skipped++
			continue
		}
		b.AddRelationship(src, model.Relationship{OtherUID: dst, Type: r.Relationship, Comment: r.RelationshipComment})
	}
	if skipped > 0 {
		log.Debug().Int("count", skipped).Msg("skipped document-level and external SPDX relationships")
	}
	return b.Build(), nil
}

// describedRoot finds the element the document describes, if any.
func describedRoot(sdoc *v2_3.Document) string {
	for _, r := range sdoc.Relationships {
		if r == nil {
			continue
		}
		switch {
		case r.RefA.ElementRefID == spdxDocumentID && strings.EqualFold(r.Relationship, "DESCRIBES"):
			return elementUID(r.RefB.ElementRefID)
		case r.RefB.ElementRefID == spdxDocumentID && strings.EqualFold(r.Relationship, "DESCRIBED_BY"):
			return elementUID(r.RefA.ElementRefID)
		}
	}
	return ""
}

func spdxPackage(p *v2_3.Package) *model.Component {
	pb := model.NewSPDX23PackageBuilder()
	pb.SetUID(elementUID(p.PackageSPDXIdentifier))
	set(pb.SetName, p.PackageName)
	set(pb.SetVersion, p.PackageVersion)
	set(pb.SetFileName, p.PackageFileName)
	set(pb.SetType, strings.ToLower(p.PrimaryPackagePurpose))
	if s := p.PackageSupplier; s != nil && present(s.Supplier) != "" {
		pb.SetSupplier(parseOrganization(s.Supplier))
	}
	if o := p.PackageOriginator; o != nil {
		name, _ := splitEmail(present(o.Originator))
		set(pb.SetAuthor, name)
	}
	set(pb.SetDownloadLocation, present(p.PackageDownloadLocation))
	if p.IsFilesAnalyzedTagPresent {
		pb.SetFilesAnalyzed(p.FilesAnalyzed)
	}
	if vc := p.PackageVerificationCode; vc != nil {
		set(pb.SetVerificationCode, vc.Value)
	}
	for _, cs := range p.PackageChecksums {
		pb.AddHash(model.NormalizeAlgorithm(string(cs.Algorithm)), cs.Value)
	}
	set(pb.SetHomePage, present(p.PackageHomePage))
	set(pb.SetSourceInfo, p.PackageSourceInfo)
	for _, l := range splitConjunction(p.PackageLicenseConcluded) {
		pb.AddConcludedLicense(l)
	}
	for _, l := range splitConjunction(p.PackageLicenseDeclared) {
		pb.AddDeclaredLicense(l)
	}
	for _, l := range p.PackageLicenseInfoFromFiles {
		set(pb.AddLicenseFromFile, present(l))
	}
	set(pb.SetCopyright, present(p.PackageCopyrightText))
	if p.PackageSummary != "" || p.PackageDescription != "" {
		pb.SetDescription(model.Description{Summary: p.PackageSummary, Details: p.PackageDescription})
	}
	set(pb.SetComment, p.PackageComment)
	set(pb.SetAttributionText, strings.Join(p.PackageAttributionTexts, "\n"))
	set(pb.SetReleaseDate, p.ReleaseDate)
	set(pb.SetBuildDate, p.BuiltDate)
	set(pb.SetValidUntilDate, p.ValidUntilDate)

	for _, ref := range p.PackageExternalReferences {
		if ref == nil {
			continue
		}
		switch strings.ToLower(ref.RefType) {
		case "cpe22type", "cpe23type":
			pb.AddCPE(ref.Locator)
		case "purl":
			pb.AddPURL(ref.Locator)
		default:
			pb.AddExternalReference(model.ExternalReference{
				URL:      ref.Locator,
				Type:     ref.RefType,
				Category: ref.Category,
				Comment:  ref.ExternalRefComment,
			})
		}
	}
	return pb.Build()
}

func spdxFile(f *v2_3.File) *model.Component {
	fb := model.NewSPDX23FileBuilder()
	fb.SetUID(elementUID(f.FileSPDXIdentifier))
	set(fb.SetName, f.FileName)
	if len(f.FileTypes) > 0 {
		fb.SetType(strings.ToLower(f.FileTypes[0]))
	}
	for _, cs := range f.Checksums {
		fb.AddHash(model.NormalizeAlgorithm(string(cs.Algorithm)), cs.Value)
	}
	for _, l := range splitConjunction(f.LicenseConcluded) {
		fb.AddConcludedLicense(l)
	}
	for _, l := range f.LicenseInfoInFiles {
		set(fb.AddLicenseFromFile, present(l))
	}
	set(fb.SetCopyright, present(f.FileCopyrightText))
	set(fb.SetComment, f.FileComment)
	set(fb.SetFileNotice, f.FileNotice)
	set(fb.SetAttributionText, strings.Join(f.FileAttributionTexts, "\n"))
	set(fb.SetAuthor, strings.Join(f.FileContributors, ", "))
	return fb.Build()
}

func spdxCreationData(ci *v2_3.CreationInfo) *model.CreationData {
	cb := model.NewCreationDataBuilder()
	cb.SetCreationTime(ci.Created)
	cb.SetCreatorComment(ci.CreatorComment)
	manufacture := false
	for _, cr := range ci.Creators {
		switch cr.CreatorType {
		case "Person":
			name, email := splitEmail(cr.Creator)
			cb.AddAuthor(model.Contact{Name: name, Email: email})
		case "Organization":
			if !manufacture {
				cb.SetManufacture(parseOrganization(cr.Creator))
				manufacture = true
			}
		case "Tool":
			cb.AddCreationTool(parseTool(cr.Creator))
		}
	}
	return nonEmpty(cb.Build())
}

// splitEmail splits "Jane Doe (jane@example.com)".
func splitEmail(s string) (name, email string) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ")") {
		if i := strings.LastIndex(s, "("); i >= 0 {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1 : len(s)-1])
		}
	}
	return s, ""
}

func joinEmail(name, email string) string {
	switch {
	case email == "":
		return name
	case name == "":
		return "(" + email + ")"
	default:
		return name + " (" + email + ")"
	}
}

func parseOrganization(s string) model.Organization {
	name, email := splitEmail(s)
	org := model.Organization{Name: name}
	if email != "" {
		org.Contacts = []model.Contact{{Email: email}}
	}
	return org
}

// parseTool splits "syft-0.90.0" into name and version.
func parseTool(s string) model.CreationTool {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "-"); i > 0 && i < len(s)-1 && unicode.IsDigit(rune(s[i+1])) {
		return model.CreationTool{Name: s[:i], Version: s[i+1:]}
	}
	return model.CreationTool{Name: s}
}

// ---- writing ----

func (c *Codec) writeSPDX(doc *model.Document, format Format) ([]byte, error) {
	sdoc := &v2_3.Document{
		SPDXVersion:       spdxVersion,
		DataLicense:       spdxDataLicense,
		SPDXIdentifier:    spdxDocumentID,
		DocumentName:      model.Deref(doc.Name),
		DocumentNamespace: model.Deref(doc.UID),
		DocumentComment:   model.Deref(doc.DocumentComment),
		CreationInfo:      spdxCreationInfo(doc.CreationData),
	}
	if len(doc.Licenses) > 0 {
		sdoc.DataLicense = doc.Licenses[0]
		if len(doc.Licenses) > 1 {
			log.Debug().Strs("dropped", doc.Licenses[1:]).Msg("SPDX carries a single data license; dropped the rest")
		}
	}

	if root := doc.RootComponent; root != nil {
		sdoc.Packages = append(sdoc.Packages, spdxPackageOut(root))
		sdoc.Relationships = append(sdoc.Relationships, &v2_3.Relationship{
			RefA:         common.DocElementID{ElementRefID: spdxDocumentID},
			RefB:         common.DocElementID{ElementRefID: elementID(model.Deref(root.UID))},
			Relationship: model.RelDescribes,
		})
	}
	for _, comp := range doc.Components {
		if comp.Kind == model.KindSPDX23File {
			sdoc.Files = append(sdoc.Files, spdxFileOut(comp))
			continue
		}
		sdoc.Packages = append(sdoc.Packages, spdxPackageOut(comp))
	}
	for _, source := range sortedRelationshipKeys(doc) {
		for _, rel := range doc.Relationships[source] {
			sdoc.Relationships = append(sdoc.Relationships, &v2_3.Relationship{
				RefA:                common.DocElementID{ElementRefID: elementID(source)},
				RefB:                common.DocElementID{ElementRefID: elementID(rel.OtherUID)},
				Relationship:        rel.Type,
				RelationshipComment: rel.Comment,
			})
		}
	}

	var buf bytes.Buffer
	if format == FormatTagValue {
		if err := tagvalue.Write(sdoc, &buf); err != nil {
			return nil, convert.SerializeError(model.SPDX23, "%v", err)
		}
		return buf.Bytes(), nil
	}

	var compact bytes.Buffer
	if err := spdxjson.Write(sdoc, &compact); err != nil {
		return nil, convert.SerializeError(model.SPDX23, "%v", err)
	}
	if err := json.Indent(&buf, bytes.TrimSpace(compact.Bytes()), "", "  "); err != nil {
		return nil, convert.SerializeError(model.SPDX23, "%v", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func spdxCreationInfo(cd *model.CreationData) *v2_3.CreationInfo {
	ci := &v2_3.CreationInfo{Created: time.Now().UTC().Format(time.RFC3339)}
	if cd != nil {
		if cd.CreationTime != "" {
			ci.Created = cd.CreationTime
		}
		ci.CreatorComment = cd.CreatorComment
		for _, a := range cd.Authors {
			ci.Creators = append(ci.Creators, common.Creator{CreatorType: "Person", Creator: joinEmail(a.Name, a.Email)})
		}
		if m := cd.Manufacture; m != nil {
			ci.Creators = append(ci.Creators, common.Creator{CreatorType: "Organization", Creator: joinEmail(m.Name, firstEmail(m))})
		}
		for _, t := range cd.CreationTools {
			name := t.Name
			if t.Version != "" {
				name += "-" + t.Version
			}
			ci.Creators = append(ci.Creators, common.Creator{CreatorType: "Tool", Creator: name})
		}
	}
	if len(ci.Creators) == 0 {
		ci.Creators = []common.Creator{{CreatorType: "Tool", Creator: "sbomkit"}}
	}
	return ci
}

func firstEmail(o *model.Organization) string {
	for _, ct := range o.Contacts {
		if ct.Email != "" {
			return ct.Email
		}
	}
	return ""
}

func spdxChecksums(h model.Hashes) []common.Checksum {
	var out []common.Checksum
	for _, alg := range h.Algorithms() {
		out = append(out, common.Checksum{Algorithm: common.ChecksumAlgorithm(alg), Value: h[alg]})
	}
	return out
}

// licenseConjunction joins a license set into one expression. Compound
// members are parenthesized so splitConjunction can take them apart again.
func licenseConjunction(values []string) string {
	switch len(values) {
	case 0:
		return noAssertion
	case 1:
		return values[0]
	}
	parts := make([]string, len(values))
	for i, v := range values {
		if strings.ContainsAny(v, " ") && !wrapped(v) {
			v = "(" + v + ")"
		}
		parts[i] = v
	}
	return strings.Join(parts, " AND ")
}

// splitConjunction splits a top-level AND expression into its members,
// unwrapping parenthesized ones. Anything else is a single license.
func splitConjunction(expr string) []string {
	expr = present(expr)
	if expr == "" {
		return nil
	}
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ' ':
			if depth == 0 && strings.HasPrefix(expr[i:], " AND ") {
				parts = append(parts, expr[start:i])
				start = i + len(" AND ")
				i = start - 1
			}
		}
	}
	if len(parts) == 0 {
		return []string{expr}
	}
	parts = append(parts, expr[start:])
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if wrapped(part) {
			part = strings.TrimSpace(part[1 : len(part)-1])
		}
		parts[i] = part
	}
	return parts
}

// wrapped reports whether one pair of parentheses encloses all of s.
func wrapped(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	depth := 0
	for i := 0; i < len(s)-1; i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 {
			return false
		}
	}
	return true
}

func spdxPackageOut(comp *model.Component) *v2_3.Package {
	p := &v2_3.Package{
		PackageName:             model.Deref(comp.Name),
		PackageSPDXIdentifier:   elementID(model.Deref(comp.UID)),
		PackageVersion:          model.Deref(comp.Version),
		PackageFileName:         model.Deref(comp.FileName),
		PackageDownloadLocation: orNoAssertion(comp.DownloadLocation),
		PackageChecksums:        spdxChecksums(comp.Hashes),
		PackageHomePage:         model.Deref(comp.HomePage),
		PackageSourceInfo:       model.Deref(comp.SourceInfo),
		PackageCopyrightText:    orNoAssertion(comp.Copyright),
		PackageComment:          model.Deref(comp.Comment),
		PrimaryPackagePurpose:   strings.ToUpper(model.Deref(comp.Type)),
		ReleaseDate:             model.Deref(comp.ReleaseDate),
		BuiltDate:               model.Deref(comp.BuildDate),
		ValidUntilDate:          model.Deref(comp.ValidUntilDate),
	}

	if l := comp.Licenses; l != nil {
		p.PackageLicenseConcluded = licenseConjunction(l.Concluded)
		p.PackageLicenseDeclared = licenseConjunction(l.Declared)
		p.PackageLicenseInfoFromFiles = append([]string(nil), l.InfoFromFiles...)
	} else {
		p.PackageLicenseConcluded = noAssertion
		p.PackageLicenseDeclared = noAssertion
	}
	if comp.FilesAnalyzed != nil {
		p.IsFilesAnalyzedTagPresent = true
		p.FilesAnalyzed = *comp.FilesAnalyzed
	}
	if comp.VerificationCode != nil {
		p.PackageVerificationCode = &common.PackageVerificationCode{Value: *comp.VerificationCode}
	}
	if s := comp.Supplier; s != nil {
		p.PackageSupplier = &common.Supplier{SupplierType: "Organization", Supplier: joinEmail(s.Name, firstEmail(s))}
	}
	if comp.Author != nil {
		p.PackageOriginator = &common.Originator{OriginatorType: "Person", Originator: *comp.Author}
	}
	if d := comp.Description; d != nil {
		p.PackageSummary = d.Summary
		p.PackageDescription = d.Details
	}
	if comp.AttributionText != nil {
		p.PackageAttributionTexts = []string{*comp.AttributionText}
	}

	for _, cpe := range comp.CPEs {
		refType := "cpe23Type"
		if strings.HasPrefix(cpe, "cpe:/") {
			refType = "cpe22Type"
		}
		p.PackageExternalReferences = append(p.PackageExternalReferences, &v2_3.PackageExternalReference{
			Category: "SECURITY", RefType: refType, Locator: cpe,
		})
	}
	for _, purl := range comp.PURLs {
		p.PackageExternalReferences = append(p.PackageExternalReferences, &v2_3.PackageExternalReference{
			Category: "PACKAGE-MANAGER", RefType: "purl", Locator: purl,
		})
	}
	for _, ref := range comp.ExternalReferences {
		category := ref.Category
		if category == "" {
			category = "OTHER"
		}
		p.PackageExternalReferences = append(p.PackageExternalReferences, &v2_3.PackageExternalReference{
			Category: category, RefType: ref.Type, Locator: ref.URL, ExternalRefComment: ref.Comment,
		})
	}
	return p
}

func spdxFileOut(comp *model.Component) *v2_3.File {
	f := &v2_3.File{
		FileName:           model.Deref(comp.Name),
		FileSPDXIdentifier: elementID(model.Deref(comp.UID)),
		Checksums:          spdxChecksums(comp.Hashes),
		LicenseConcluded:   noAssertion,
		FileCopyrightText:  orNoAssertion(comp.Copyright),
		FileComment:        model.Deref(comp.Comment),
		FileNotice:         model.Deref(comp.FileNotice),
	}
	if comp.Type != nil {
		f.FileTypes = []string{strings.ToUpper(*comp.Type)}
	}
	if l := comp.Licenses; l != nil {
		f.LicenseConcluded = licenseConjunction(l.Concluded)
		f.LicenseInfoInFiles = append([]string(nil), l.InfoFromFiles...)
	}
	if comp.AttributionText != nil {
		f.FileAttributionTexts = []string{*comp.AttributionText}
	}
	if comp.Author != nil {
		f.FileContributors = []string{*comp.Author}
	}
	return f
}
