package codec

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StinkyLord/sbomkit/internal/compare"
	"github.com/StinkyLord/sbomkit/internal/convert"
	"github.com/StinkyLord/sbomkit/internal/model"
)

func cdxDocument() *model.Document {
	b := model.NewDocumentBuilder()
	b.ForSchema(model.CDX14)
	b.SetUID("urn:uuid:0d5f5e44-2b0d-4a4c-8f7e-1d7d9b5d9a11")
	b.SetVersion("3")
	b.AddLicense("CC0-1.0")

	cb := model.NewCreationDataBuilder()
	cb.SetCreationTime("2023-05-01T10:00:00Z")
	cb.AddAuthor(model.Contact{Name: "Jane Doe", Email: "jane@example.com"})
	cb.AddCreationTool(model.CreationTool{Vendor: "anchore", Name: "syft", Version: "0.90.0"})
	cb.SetSupplier(model.Organization{Name: "ACME", URL: "https://acme.example"})
	cb.SetCreatorComment("nightly")
	cb.AddProperty("build", "42")
	b.SetCreationData(cb.Build())

	root := model.NewCDX14PackageBuilder()
	root.SetUID("app")
	root.SetType("application")
	root.SetName("app")
	root.SetVersion("2.0.0")
	b.SetRootComponent(root.Build())

	lp := model.NewCDX14PackageBuilder()
	lp.SetUID("pkg:npm/left-pad@1.0.0")
	lp.SetType("library")
	lp.SetName("left-pad")
	lp.SetVersion("1.0.0")
	lp.SetAuthor("Steve Mao")
	lp.SetGroup("npm")
	lp.SetScope("required")
	lp.SetCopyright("Copyright Steve Mao")
	lp.SetDescription(model.Description{Summary: "String left pad"})
	lp.SetSupplier(model.Organization{Name: "npm", URL: "https://npmjs.com"})
	lp.AddHash(model.AlgSHA256, "abc")
	lp.AddHash(model.AlgSHA1, "def")
	lp.AddConcludedLicense("MIT")
	lp.AddConcludedLicense("MIT OR Apache-2.0")
	lp.AddPURL("pkg:npm/left-pad@1.0.0")
	lp.AddPURL("pkg:github/stevemao/left-pad@1.0.0")
	lp.AddCPE("cpe:2.3:a:left-pad:left-pad:1.0.0:*:*:*:*:*:*:*")
	lp.AddExternalReference(model.ExternalReference{URL: "https://github.com/stevemao/left-pad", Type: "vcs"})
	lp.AddProperty("license-scan", "clean")
	b.AddComponent(lp.Build())

	lodash := model.NewCDX14PackageBuilder()
	lodash.SetUID("pkg:npm/lodash@4.17.21")
	lodash.SetType("library")
	lodash.SetName("lodash")
	lodash.SetVersion("4.17.21")
	b.AddComponent(lodash.Build())

	b.AddRelationship("app", model.Relationship{OtherUID: "pkg:npm/left-pad@1.0.0", Type: model.RelDependsOn})
	b.AddRelationship("app", model.Relationship{OtherUID: "pkg:npm/lodash@4.17.21", Type: model.RelDependsOn})
	b.AddExternalReference(model.ExternalReference{URL: "https://example.com/app", Type: "website"})
	return b.Build()
}

func spdxDocument() *model.Document {
	b := model.NewDocumentBuilder()
	b.ForSchema(model.SPDX23)
	b.SetName("app")
	b.SetUID("https://example.com/spdxdocs/app-2.0.0")
	b.AddLicense("CC0-1.0")
	b.SetDocumentComment("generated for tests")

	cb := model.NewCreationDataBuilder()
	cb.SetCreationTime("2023-05-01T10:00:00Z")
	cb.AddAuthor(model.Contact{Name: "Jane Doe", Email: "jane@example.com"})
	cb.AddCreationTool(model.CreationTool{Name: "syft", Version: "0.90.0"})
	cb.SetManufacture(model.Organization{Name: "ACME"})
	b.SetCreationData(cb.Build())

	root := model.NewSPDX23PackageBuilder()
	root.SetUID("SPDXRef-app-2.0.0")
	root.SetName("app")
	root.SetVersion("2.0.0")
	b.SetRootComponent(root.Build())

	zlib := model.NewSPDX23PackageBuilder()
	zlib.SetUID("SPDXRef-zlib-1.2.13")
	zlib.SetName("zlib")
	zlib.SetVersion("1.2.13")
	zlib.AddHash(model.AlgSHA1, "4f2e3b0d")
	zlib.AddDeclaredLicense("Zlib")
	zlib.SetDownloadLocation("https://zlib.net/zlib-1.2.13.tar.gz")
	zlib.SetHomePage("https://zlib.net")
	zlib.SetComment("vendored")
	zlib.SetSupplier(model.Organization{Name: "Jean-loup Gailly"})
	zlib.SetDescription(model.Description{Summary: "compression library", Details: "A massively spiffy yet delicately unobtrusive compression library."})
	zlib.AddCPE("cpe:2.3:a:zlib:zlib:1.2.13:*:*:*:*:*:*:*")
	zlib.AddPURL("pkg:generic/zlib@1.2.13")
	zlib.SetReleaseDate("2022-10-13T00:00:00Z")
	b.AddComponent(zlib.Build())

	src := model.NewSPDX23FileBuilder()
	src.SetUID("SPDXRef-main.c")
	src.SetName("./src/main.c")
	src.SetType("source")
	src.AddHash(model.AlgSHA1, "0a1b2c")
	src.SetFileNotice("see NOTICE")
	b.AddComponent(src.Build())

	b.AddRelationship("SPDXRef-app-2.0.0", model.Relationship{OtherUID: "SPDXRef-zlib-1.2.13", Type: model.RelDependsOn})
	b.AddRelationship("SPDXRef-app-2.0.0", model.Relationship{OtherUID: "SPDXRef-main.c", Type: model.RelContains, Comment: "sources"})
	return b.Build()
}

func svipDocument() *model.Document {
	b := model.NewDocumentBuilder()
	b.ForSchema(model.SVIP)
	b.SetName("app")
	b.SetUID("urn:uuid:7c3c2d7e-64b8-4d0c-9e59-8d6ad6f1b2a4")
	b.AddLicense("CC0-1.0")

	c := model.NewSVIPComponentBuilder()
	c.SetUID("SVIPComponent-zlib-1.2.13")
	c.SetName("zlib")
	c.SetVersion("1.2.13")
	c.SetScope("required")
	c.SetDownloadLocation("https://zlib.net/zlib-1.2.13.tar.gz")
	c.SetFilesAnalyzed(false)
	c.AddHash(model.AlgSHA256, "aa")
	c.AddProperty("origin", "vendored")
	b.AddComponent(c.Build())
	return b.Build()
}

func TestDetect(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		schema model.Schema
		format Format
	}{
		{"cdx json", `{"bomFormat":"CycloneDX","specVersion":"1.4"}`, model.CDX14, FormatJSON},
		{"cdx xml", `<?xml version="1.0"?><bom xmlns="http://cyclonedx.org/schema/bom/1.4"></bom>`, model.CDX14, FormatXML},
		{"spdx json", `{"spdxVersion":"SPDX-2.3"}`, model.SPDX23, FormatJSON},
		{"spdx tag-value", "SPDXVersion: SPDX-2.3\nDataLicense: CC0-1.0\n", model.SPDX23, FormatTagValue},
		{"spdx tag-value after comment", "# generated\nSPDXVersion: SPDX-2.3\n", model.SPDX23, FormatTagValue},
		{"svip", `{"format":"SVIP","specVersion":"1.0-a"}`, model.SVIP, FormatJSON},
		{"byte order mark", "\xef\xbb\xbf" + `{"bomFormat":"CycloneDX"}`, model.CDX14, FormatJSON},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			schema, format, err := Detect([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.schema, schema)
			assert.Equal(t, tc.format, format)
		})
	}

	for _, raw := range []string{"", "   ", `{"name":"x"}`, `{not json`, "hello"} {
		_, _, err := Detect([]byte(raw))
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, convert.ErrDeserialize), raw)
	}
}

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "xml": FormatXML, "tv": FormatTagValue, "tag-value": FormatTagValue} {
		got, err := ParseFormat(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("protobuf")
	assert.Error(t, err)
}

func TestCycloneDXRoundTrip(t *testing.T) {
	c := New(nil)
	for _, format := range []Format{FormatJSON, FormatXML} {
		t.Run(string(format), func(t *testing.T) {
			original := cdxDocument()
			raw, err := c.Serialize(original, model.CDX14, format)
			require.NoError(t, err)

			schema, detected, err := Detect(raw)
			require.NoError(t, err)
			assert.Equal(t, model.CDX14, schema)
			assert.Equal(t, format, detected)

			parsed, err := c.Decode(raw)
			require.NoError(t, err)
			assert.Empty(t, compare.Documents(original, parsed))
			assert.Equal(t, original.Relationships, parsed.Relationships)
		})
	}
}

func TestCycloneDXNested(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "nested.cdx.json"))
	require.NoError(t, err)

	doc, err := New(nil).Parse(raw, model.CDX14)
	require.NoError(t, err)

	assert.Equal(t, "urn:uuid:1b671687-395b-41f5-a30f-a58921a69b79", *doc.UID)
	assert.Equal(t, "2", *doc.Version)
	assert.Equal(t, []string{"CC0-1.0"}, doc.Licenses)

	require.NotNil(t, doc.CreationData)
	assert.Equal(t, "nightly", doc.CreationData.CreatorComment)
	assert.Equal(t, model.Properties{"build": {"42"}}, doc.CreationData.Properties)
	require.Len(t, doc.CreationData.CreationTools, 1)
	assert.Equal(t, "syft", doc.CreationData.CreationTools[0].Name)

	require.NotNil(t, doc.RootComponent)
	assert.Equal(t, "app", *doc.RootComponent.UID)

	require.Len(t, doc.Components, 3)
	lp := doc.Components[0]
	assert.Equal(t, []string{"pkg:github/stevemao/left-pad@1.0.0", "pkg:npm/left-pad@1.0.0"}, lp.PURLs)
	assert.Equal(t, []string{"MIT OR Apache-2.0"}, lp.Licenses.Concluded)
	assert.Equal(t, "abc", lp.Hashes[model.AlgSHA256])
	assert.Equal(t, "index.js", *doc.Components[1].Name)
	assert.Nil(t, doc.Components[2].UID)

	assert.Equal(t, map[string][]model.Relationship{
		"pkg:npm/left-pad@1.0.0": {{OtherUID: "left-pad-index", Type: model.RelContains}},
		"app":                    {{OtherUID: "pkg:npm/left-pad@1.0.0", Type: model.RelDependsOn}},
	}, doc.Relationships)
}

func TestCycloneDXDropsNonDependencyRelationships(t *testing.T) {
	doc := cdxDocument()
	doc.Relationships["pkg:npm/left-pad@1.0.0"] = []model.Relationship{{OtherUID: "pkg:npm/lodash@4.17.21", Type: model.RelContains}}

	raw, err := New(nil).Serialize(doc, model.CDX14, FormatJSON)
	require.NoError(t, err)

	parsed, err := New(nil).Decode(raw)
	require.NoError(t, err)
	_, ok := parsed.Relationships["pkg:npm/left-pad@1.0.0"]
	assert.False(t, ok)
	assert.Len(t, parsed.Relationships["app"], 2)
}

func TestCycloneDXLicenses(t *testing.T) {
	got := *New(nil).cdxLicenses([]string{"mit", "MIT OR Apache-2.0", "Proprietary"})
	require.Len(t, got, 3)
	require.NotNil(t, got[0].License)
	assert.Equal(t, "MIT", got[0].License.ID)
	assert.Equal(t, "MIT OR Apache-2.0", got[1].Expression)
	require.NotNil(t, got[2].License)
	assert.Equal(t, "Proprietary", got[2].License.Name)
	assert.Empty(t, got[2].License.ID)
}

func TestCycloneDXMintsSerial(t *testing.T) {
	doc := cdxDocument()
	doc.UID = nil
	doc.Version = nil

	raw, err := New(nil).Serialize(doc, model.CDX14, FormatJSON)
	require.NoError(t, err)

	bom := new(cdx.BOM)
	require.NoError(t, cdx.NewBOMDecoder(bytes.NewReader(raw), cdx.BOMFileFormatJSON).Decode(bom))
	assert.Regexp(t, `^urn:uuid:[0-9a-f-]{36}$`, bom.SerialNumber)
	assert.Equal(t, 1, bom.Version)
}

func assertSPDXRoundTrip(t *testing.T, original, parsed *model.Document) {
	t.Helper()
	assert.Equal(t, *original.Name, *parsed.Name)
	assert.Equal(t, *original.UID, *parsed.UID)
	assert.Equal(t, "2.3", *parsed.SpecVersion)
	assert.Equal(t, original.Licenses, parsed.Licenses)
	assert.Equal(t, *original.DocumentComment, *parsed.DocumentComment)

	require.NotNil(t, parsed.CreationData)
	assert.Equal(t, original.CreationData.CreationTime, parsed.CreationData.CreationTime)
	assert.Equal(t, original.CreationData.Authors, parsed.CreationData.Authors)
	assert.Equal(t, original.CreationData.CreationTools, parsed.CreationData.CreationTools)
	assert.Equal(t, "ACME", parsed.CreationData.Manufacture.Name)

	require.NotNil(t, parsed.RootComponent)
	assert.Equal(t, "SPDXRef-app-2.0.0", *parsed.RootComponent.UID)
	assert.Equal(t, original.Relationships, parsed.Relationships)

	require.Len(t, parsed.Components, 2)
	zlib := parsed.ComponentByUID("SPDXRef-zlib-1.2.13")
	require.NotNil(t, zlib)
	assert.Equal(t, model.KindSPDX23Package, zlib.Kind)
	assert.Equal(t, "4f2e3b0d", zlib.Hashes[model.AlgSHA1])
	assert.Equal(t, []string{"Zlib"}, zlib.Licenses.Declared)
	assert.Equal(t, "https://zlib.net/zlib-1.2.13.tar.gz", *zlib.DownloadLocation)
	assert.Equal(t, "https://zlib.net", *zlib.HomePage)
	assert.Equal(t, "vendored", *zlib.Comment)
	assert.Equal(t, "Jean-loup Gailly", zlib.Supplier.Name)
	assert.Equal(t, *original.Components[0].Description, *zlib.Description)
	assert.Equal(t, []string{"cpe:2.3:a:zlib:zlib:1.2.13:*:*:*:*:*:*:*"}, zlib.CPEs)
	assert.Equal(t, []string{"pkg:generic/zlib@1.2.13"}, zlib.PURLs)
	assert.Equal(t, "2022-10-13T00:00:00Z", *zlib.ReleaseDate)

	file := parsed.ComponentByUID("SPDXRef-main.c")
	require.NotNil(t, file)
	assert.Equal(t, model.KindSPDX23File, file.Kind)
	assert.Equal(t, "./src/main.c", *file.Name)
	assert.Equal(t, "source", *file.Type)
	assert.Equal(t, "see NOTICE", *file.FileNotice)
	assert.Equal(t, "0a1b2c", file.Hashes[model.AlgSHA1])
}

func TestSPDXRoundTrip(t *testing.T) {
	c := New(nil)
	for _, format := range []Format{FormatJSON, FormatTagValue} {
		t.Run(string(format), func(t *testing.T) {
			original := spdxDocument()
			raw, err := c.Serialize(original, model.SPDX23, format)
			require.NoError(t, err)

			_, detected, err := Detect(raw)
			require.NoError(t, err)
			assert.Equal(t, format, detected)

			parsed, err := c.Parse(raw, model.SPDX23)
			require.NoError(t, err)
			assertSPDXRoundTrip(t, original, parsed)
		})
	}
}

func TestSPDXLicenseSets(t *testing.T) {
	c := New(nil)
	for _, format := range []Format{FormatJSON, FormatTagValue} {
		t.Run(string(format), func(t *testing.T) {
			doc := spdxDocument()
			doc.Licenses = []string{"CC0-1.0", "MIT"}
			doc.Components[0].Licenses.Declared = []string{"MIT OR Apache-2.0", "Zlib"}

			raw, err := c.Serialize(doc, model.SPDX23, format)
			require.NoError(t, err)
			parsed, err := c.Parse(raw, model.SPDX23)
			require.NoError(t, err)

			assert.Equal(t, []string{"CC0-1.0"}, parsed.Licenses, "only one data license fits")
			var zlib *model.Component
			for _, comp := range parsed.Components {
				if *comp.Name == "zlib" {
					zlib = comp
				}
			}
			require.NotNil(t, zlib)
			assert.Equal(t, []string{"MIT OR Apache-2.0", "Zlib"}, zlib.Licenses.Declared)
		})
	}
}

func TestSPDXDefaultsCreator(t *testing.T) {
	doc := spdxDocument()
	doc.CreationData = nil

	raw, err := New(nil).Serialize(doc, model.SPDX23, FormatTagValue)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Creator: Tool: sbomkit")
}

func TestSPDXHelpers(t *testing.T) {
	name, email := splitEmail("Jane Doe (jane@example.com)")
	assert.Equal(t, "Jane Doe", name)
	assert.Equal(t, "jane@example.com", email)
	assert.Equal(t, "Jane Doe (jane@example.com)", joinEmail(name, email))
	assert.Equal(t, "Jane Doe", joinEmail("Jane Doe", ""))

	assert.Equal(t, model.CreationTool{Name: "syft", Version: "0.90.0"}, parseTool("syft-0.90.0"))
	assert.Equal(t, model.CreationTool{Name: "go-licenses"}, parseTool("go-licenses"))

	assert.Equal(t, "", present("NOASSERTION"))
	assert.Equal(t, "", present("NONE"))
	assert.Equal(t, "MIT", present("MIT"))

	assert.Equal(t, "NOASSERTION", licenseConjunction(nil))
	assert.Equal(t, "MIT AND Zlib", licenseConjunction([]string{"MIT", "Zlib"}))
	assert.Equal(t, "(MIT OR Apache-2.0) AND Zlib", licenseConjunction([]string{"MIT OR Apache-2.0", "Zlib"}))
	assert.Equal(t, []string{"MIT OR Apache-2.0", "Zlib"}, splitConjunction("(MIT OR Apache-2.0) AND Zlib"))
	assert.Equal(t, []string{"MIT", "Zlib"}, splitConjunction("MIT AND Zlib"))
	assert.Equal(t, []string{"(MIT AND Zlib) OR BSD-3-Clause"}, splitConjunction("(MIT AND Zlib) OR BSD-3-Clause"))
	assert.Equal(t, []string{"GPL-2.0-only WITH Classpath-exception-2.0"}, splitConjunction("GPL-2.0-only WITH Classpath-exception-2.0"))
	assert.Nil(t, splitConjunction("NOASSERTION"))

	assert.Equal(t, "SPDXRef-zlib", elementUID(elementID("SPDXRef-zlib")))
}

func TestSVIPRoundTrip(t *testing.T) {
	original := svipDocument()
	raw, err := New(nil).Serialize(original, model.SVIP, "")
	require.NoError(t, err)

	parsed, err := New(nil).Parse(raw, model.SVIP)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestParseRejectsSchemaMismatch(t *testing.T) {
	raw, err := New(nil).Serialize(svipDocument(), model.SVIP, FormatJSON)
	require.NoError(t, err)

	_, err = New(nil).Parse(raw, model.CDX14)
	require.Error(t, err)
	assert.True(t, errors.Is(err, convert.ErrDeserialize))
}

func TestSerializeErrors(t *testing.T) {
	c := New(nil)

	_, err := c.Serialize(nil, model.CDX14, FormatJSON)
	assert.True(t, errors.Is(err, convert.ErrSerialize))

	_, err = c.Serialize(cdxDocument(), "SWID", FormatJSON)
	assert.True(t, errors.Is(err, convert.ErrUnsupportedSchema))

	_, err = c.Serialize(svipDocument(), model.SVIP, FormatXML)
	assert.True(t, errors.Is(err, convert.ErrUnsupportedSchema))

	_, err = c.Serialize(spdxDocument(), model.CDX14, FormatJSON)
	assert.True(t, errors.Is(err, convert.ErrSerialize))
}

func TestReadFileCompressed(t *testing.T) {
	raw, err := New(nil).Serialize(svipDocument(), model.SVIP, FormatJSON)
	require.NoError(t, err)
	dir := t.TempDir()

	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	_, err = gw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	gzPath := filepath.Join(dir, "sbom.svip.json.gz")
	require.NoError(t, os.WriteFile(gzPath, gzBuf.Bytes(), 0o600))

	var zstBuf bytes.Buffer
	zw, err := zstd.NewWriter(&zstBuf)
	require.NoError(t, err)
	_, err = zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	zstPath := filepath.Join(dir, "sbom.svip.json.zst")
	require.NoError(t, os.WriteFile(zstPath, zstBuf.Bytes(), 0o600))

	plainPath := filepath.Join(dir, "sbom.svip.json")
	require.NoError(t, os.WriteFile(plainPath, raw, 0o600))

	for _, path := range []string{plainPath, gzPath, zstPath} {
		doc, err := New(nil).ReadFile(path)
		require.NoError(t, err, path)
		assert.Equal(t, svipDocument(), doc, path)
	}

	_, err = New(nil).ReadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
