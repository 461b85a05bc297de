package convert

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StinkyLord/sbomkit/internal/model"
	"github.com/StinkyLord/sbomkit/internal/testutil/testlog"
)

// makeCDXDocument builds a CycloneDX document with a root, two libraries and
// a dependency chain root -> left-pad -> lodash.
func makeCDXDocument() *model.Document {
	b := model.NewDocumentBuilder()
	b.ForSchema(model.CDX14)
	b.SetUID("urn:uuid:3e671687-395b-41f5-a30f-a58921a69b79")
	b.SetVersion("1")
	b.AddLicense("CC0-1.0")

	cd := model.NewCreationDataBuilder()
	cd.SetCreationTime("2023-01-01T00:00:00Z")
	cd.AddAuthor(model.Contact{Name: "Jane Doe", Email: "jane@example.com"})
	cd.AddCreationTool(model.CreationTool{Vendor: "anchore", Name: "syft", Version: "0.90.0"})
	cd.SetManufacture(model.Organization{Name: "ACME", URL: "https://acme.example"})
	cd.SetCreatorComment("generated in CI")
	cd.AddProperty("build", "42")
	b.SetCreationData(cd.Build())

	pb := model.NewCDX14PackageBuilder()
	pb.SetUID("root-ref")
	pb.SetType("application")
	pb.SetName("app")
	pb.SetVersion("2.0.0")
	b.SetRootComponent(pb.Build())
	pb.Reset()

	pb.SetUID("left-pad-ref")
	pb.SetType("library")
	pb.SetName("left-pad")
	pb.SetVersion("1.0.0")
	pb.AddHash(model.AlgSHA256, "abc")
	pb.AddConcludedLicense("MIT")
	pb.AddPURL("pkg:npm/left-pad@1.0.0")
	pb.SetScope("required")
	pb.SetGroup("npm")
	pb.AddProperty("origin", "registry")
	pb.SetSupplier(model.Organization{Name: "npm"})
	b.AddComponent(pb.Build())
	pb.Reset()

	pb.SetUID("lodash-ref")
	pb.SetType("library")
	pb.SetName("lodash")
	pb.SetVersion("4.17.21")
	pb.SetDescription(model.Description{Summary: "utility belt"})
	pb.AddExternalReference(model.ExternalReference{URL: "https://lodash.com", Type: "website"})
	b.AddComponent(pb.Build())

	b.AddRelationship("root-ref", model.Relationship{OtherUID: "left-pad-ref", Type: model.RelDependsOn})
	b.AddRelationship("left-pad-ref", model.Relationship{OtherUID: "lodash-ref", Type: model.RelDependsOn})
	return b.Build()
}

// makeSPDXDocument builds an SPDX document whose ids already follow the
// name-version convention, so a round trip reproduces it exactly.
func makeSPDXDocument() *model.Document {
	b := model.NewDocumentBuilder()
	b.ForSchema(model.SPDX23)
	b.SetName("app-sbom")
	b.SetUID("https://example.com/spdxdocs/app-sbom")
	b.AddLicense("CC0-1.0")
	b.SetDocumentComment("demo")

	cd := model.NewCreationDataBuilder()
	cd.SetCreationTime("2023-01-01T00:00:00Z")
	cd.AddAuthor(model.Contact{Name: "Jane Doe"})
	cd.AddCreationTool(model.CreationTool{Name: "spdx-sbom-generator", Version: "0.0.15"})
	b.SetCreationData(cd.Build())

	pb := model.NewSPDX23PackageBuilder()
	pb.SetUID("SPDXRef-app-1.0")
	pb.SetName("app")
	pb.SetVersion("1.0")
	b.SetRootComponent(pb.Build())
	pb.Reset()

	pb.SetUID("SPDXRef-zlib-1.2.13")
	pb.SetName("zlib")
	pb.SetVersion("1.2.13")
	pb.SetType("library")
	pb.AddHash(model.AlgSHA1, "deadbeef")
	pb.AddDeclaredLicense("Zlib")
	pb.SetDownloadLocation("https://zlib.net/zlib-1.2.13.tar.gz")
	pb.SetFilesAnalyzed(false)
	pb.SetHomePage("https://zlib.net")
	pb.SetComment("vendored")
	pb.AddCPE("cpe:2.3:a:zlib:zlib:1.2.13:*:*:*:*:*:*:*")
	pb.SetReleaseDate("2022-10-13T00:00:00Z")
	b.AddComponent(pb.Build())

	fb := model.NewSPDX23FileBuilder()
	fb.SetUID("SPDXRef-main.c")
	fb.SetName("main.c")
	fb.SetType("source")
	fb.AddHash(model.AlgSHA1, "cafebabe")
	fb.SetFileNotice("Copyright notice")
	b.AddComponent(fb.Build())

	b.AddRelationship("SPDXRef-app-1.0", model.Relationship{OtherUID: "SPDXRef-zlib-1.2.13", Type: model.RelDependsOn})
	b.AddRelationship("SPDXRef-app-1.0", model.Relationship{OtherUID: "SPDXRef-main.c", Type: model.RelContains, Comment: "sources"})
	return b.Build()
}

// keyedByName replaces every component id with the component name so that
// documents with re-minted ids can be compared field by field.
func keyedByName(t *testing.T, doc *model.Document) *model.Document {
	t.Helper()
	out := doc.Clone()
	names := map[string]string{}
	for _, c := range out.AllComponents() {
		require.NotNil(t, c.UID)
		names[*c.UID] = *c.Name
		c.UID = model.Ptr(*c.Name)
	}
	rels := map[string][]model.Relationship{}
	for source, list := range out.Relationships {
		for _, rel := range list {
			rel.OtherUID = names[rel.OtherUID]
			rels[names[source]] = append(rels[names[source]], rel)
		}
	}
	if len(rels) == 0 {
		rels = nil
	}
	out.Relationships = rels
	return out
}

func TestRoundTripCDX(t *testing.T) {
	testlog.Start(t)
	ctrl := NewController(nil)
	doc := makeCDXDocument()

	canonical, err := ctrl.Convert(doc, model.CDX14, model.SVIP)
	require.NoError(t, err)
	assert.Equal(t, "SVIP", *canonical.Format)
	for _, c := range canonical.AllComponents() {
		assert.Equal(t, model.KindSVIP, c.Kind)
		assert.True(t, strings.HasPrefix(*c.UID, "SVIPComponent-"), *c.UID)
	}

	back, err := ctrl.Convert(canonical, model.SVIP, model.CDX14)
	require.NoError(t, err)
	assert.Equal(t, keyedByName(t, doc), keyedByName(t, back))
}

func TestRoundTripSPDXIsExact(t *testing.T) {
	testlog.Start(t)
	ctrl := NewController(nil)
	doc := makeSPDXDocument()

	canonical, err := ctrl.Convert(doc, model.SPDX23, model.SVIP)
	require.NoError(t, err)
	back, err := ctrl.Convert(canonical, model.SVIP, model.SPDX23)
	require.NoError(t, err)

	assert.Equal(t, doc, back)
}

func TestRoundTripSVIP(t *testing.T) {
	testlog.Start(t)
	ctrl := NewController(nil)
	canonical, err := ctrl.Canonicalize(makeSPDXDocument())
	require.NoError(t, err)

	again, err := ctrl.Convert(canonical, model.SVIP, model.SVIP)
	require.NoError(t, err)
	assert.Equal(t, keyedByName(t, canonical), keyedByName(t, again))
}

func TestConvertCDXToSPDX(t *testing.T) {
	testlog.Start(t)
	ctrl := NewController(nil)
	doc := makeCDXDocument()
	before := doc.Clone()

	out, err := ctrl.Convert(doc, model.CDX14, model.SPDX23)
	require.NoError(t, err)
	assert.Equal(t, before, doc, "input must not be modified")

	assert.Equal(t, "SPDX", *out.Format)
	assert.Equal(t, "2.3", *out.SpecVersion)
	assert.Nil(t, out.Version, "SPDX has no document version")
	require.NotNil(t, out.CreationData)
	assert.Nil(t, out.CreationData.Properties)

	require.NoError(t, out.Validate())
	assert.Equal(t, "SPDXRef-app-2.0.0", *out.RootComponent.UID)

	leftPad := out.ComponentByUID("SPDXRef-left-pad-1.0.0")
	require.NotNil(t, leftPad)
	assert.Equal(t, model.KindSPDX23Package, leftPad.Kind)
	assert.Nil(t, leftPad.Scope, "scope is CycloneDX only")
	assert.Nil(t, leftPad.Properties)
	assert.Equal(t, []string{"pkg:npm/left-pad@1.0.0"}, leftPad.PURLs)

	assert.Equal(t, []model.Relationship{{OtherUID: "SPDXRef-left-pad-1.0.0", Type: model.RelDependsOn}},
		out.Relationships["SPDXRef-app-2.0.0"])
	assert.Equal(t, []model.Relationship{{OtherUID: "SPDXRef-lodash-4.17.21", Type: model.RelDependsOn}},
		out.Relationships["SPDXRef-left-pad-1.0.0"])
}

func TestConvertSVIPFilesBecomeSPDXFiles(t *testing.T) {
	testlog.Start(t)
	ctrl := NewController(nil)
	canonical, err := ctrl.Canonicalize(makeSPDXDocument())
	require.NoError(t, err)

	asCDX, err := ctrl.Convert(canonical, model.SVIP, model.CDX14)
	require.NoError(t, err)
	for _, c := range asCDX.Components {
		assert.Equal(t, model.KindCDX14Package, c.Kind)
		assert.Nil(t, c.FileNotice)
	}

	asSPDX, err := ctrl.Convert(canonical, model.SVIP, model.SPDX23)
	require.NoError(t, err)
	file := asSPDX.ComponentByUID("SPDXRef-main.c")
	require.NotNil(t, file)
	assert.Equal(t, model.KindSPDX23File, file.Kind)
	assert.Equal(t, "Copyright notice", model.Deref(file.FileNotice))
}

func TestSPDXIDCollision(t *testing.T) {
	testlog.Start(t)
	b := model.NewDocumentBuilder()
	b.ForSchema(model.SVIP)
	cb := model.NewSVIPComponentBuilder()
	for _, uid := range []string{"a", "b", "c"} {
		cb.SetUID(uid)
		cb.SetName("dup lib")
		cb.SetVersion("1.0")
		b.AddComponent(cb.Build())
	}
	b.AddRelationship("c", model.Relationship{OtherUID: "a", Type: model.RelDependsOn})

	out, err := NewController(nil).Convert(b.Build(), model.SVIP, model.SPDX23)
	require.NoError(t, err)

	var ids []string
	for _, c := range out.Components {
		ids = append(ids, *c.UID)
	}
	assert.Equal(t, []string{"SPDXRef-dup-lib-1.0", "SPDXRef-dup-lib-1.0-2", "SPDXRef-dup-lib-1.0-3"}, ids)
	assert.Equal(t, "SPDXRef-dup-lib-1.0", out.Relationships["SPDXRef-dup-lib-1.0-3"][0].OtherUID)
}

func TestConvertErrors(t *testing.T) {
	testlog.Start(t)
	ctrl := NewController(nil)

	_, err := ctrl.Convert(makeCDXDocument(), model.Schema("SWID"), model.SVIP)
	assert.ErrorIs(t, err, ErrUnsupportedSchema)

	_, err = ctrl.Convert(makeCDXDocument(), model.CDX14, model.Schema("SWID"))
	assert.ErrorIs(t, err, ErrUnsupportedSchema)

	_, err = ctrl.Convert(makeSPDXDocument(), model.CDX14, model.SVIP)
	assert.ErrorIs(t, err, ErrDeserialize, "format tag says SPDX")

	wrongKind := makeCDXDocument()
	wrongKind.Components[0].Kind = model.KindSPDX23File
	_, err = ctrl.Convert(wrongKind, model.CDX14, model.SVIP)
	assert.ErrorIs(t, err, ErrDeserialize)

	dangling := makeCDXDocument()
	dangling.Relationships["lodash-ref"] = []model.Relationship{{OtherUID: "ghost", Type: model.RelDependsOn}}
	_, err = ctrl.Convert(dangling, model.CDX14, model.SPDX23)
	assert.ErrorIs(t, err, ErrDanglingReference)
	var dre *model.DanglingReferenceError
	require.True(t, errors.As(err, &dre))
	assert.Equal(t, "ghost", dre.Target)

	nameless := makeCDXDocument()
	nameless.Components[1].Name = nil
	_, err = ctrl.Convert(nameless, model.CDX14, model.SPDX23)
	assert.ErrorIs(t, err, ErrSerialize)

	var convErr *ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, model.SPDX23, convErr.Schema)
}

func TestCanonicalizeUnknownFormat(t *testing.T) {
	testlog.Start(t)
	doc := makeCDXDocument()
	doc.Format = model.Ptr("SWID")
	_, err := NewController(nil).Canonicalize(doc)
	assert.ErrorIs(t, err, ErrUnsupportedSchema)
}

func TestRelabel(t *testing.T) {
	testlog.Start(t)
	ctrl := NewController(nil)
	canonical, err := ctrl.Canonicalize(makeCDXDocument())
	require.NoError(t, err)

	out, err := ctrl.Relabel(canonical, model.SPDX23)
	require.NoError(t, err)

	assert.Equal(t, "SPDX", *out.Format)
	assert.Equal(t, "2.3", *out.SpecVersion)
	assert.Equal(t, "SPDXRef-app-2.0.0", *out.RootComponent.UID)
	require.NoError(t, out.Validate())

	leftPad := out.ComponentByUID("SPDXRef-left-pad-1.0.0")
	require.NotNil(t, leftPad)
	assert.Equal(t, model.KindSVIP, leftPad.Kind, "relabel does not project")
	assert.Equal(t, "required", model.Deref(leftPad.Scope))
	assert.Equal(t, keyedByName(t, canonical).Components, keyedByName(t, out).Components)

	for _, schema := range []model.Schema{model.CDX14, model.SPDX23} {
		relabelled, err := ctrl.Relabel(canonical, schema)
		require.NoError(t, err)
		back, err := ctrl.Canonicalize(relabelled)
		require.NoError(t, err, "relabelled %s document", schema)
		assert.Equal(t, "SVIP", *back.Format)
		assert.Equal(t, keyedByName(t, canonical).Components, keyedByName(t, back).Components)
	}
}

func TestRegistry(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry(SVIPAdapter{})
	assert.Equal(t, []model.Schema{model.SVIP}, r.Schemas())

	_, err := r.Lookup(model.CDX14)
	assert.ErrorIs(t, err, ErrUnsupportedSchema)

	r.Register(CDX14Adapter{})
	a, err := r.Lookup(model.CDX14)
	require.NoError(t, err)
	assert.Equal(t, model.CDX14, a.Schema())
}
