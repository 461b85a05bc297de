// Package codec reads and writes SBOM documents in their wire formats:
// CycloneDX 1.4 (JSON, XML), SPDX 2.3 (JSON, tag-value) and SVIP (JSON).
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/StinkyLord/sbomkit/internal/convert"
	"github.com/StinkyLord/sbomkit/internal/licenses"
	"github.com/StinkyLord/sbomkit/internal/model"
)

// Format is a wire encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatXML      Format = "xml"
	FormatTagValue Format = "tag-value"
)

// ParseFormat resolves a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json", "":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	case "tag-value", "tagvalue", "tv", "spdx":
		return FormatTagValue, nil
	default:
		return "", fmt.Errorf("unknown format %q (supported: json, xml, tag-value)", name)
	}
}

// Formats lists the wire formats a schema can be written in; the first is
// the default.
func Formats(s model.Schema) []Format {
	switch s {
	case model.CDX14:
		return []Format{FormatJSON, FormatXML}
	case model.SPDX23:
		return []Format{FormatJSON, FormatTagValue}
	case model.SVIP:
		return []Format{FormatJSON}
	default:
		return nil
	}
}

func supports(s model.Schema, f Format) bool {
	for _, candidate := range Formats(s) {
		if candidate == f {
			return true
		}
	}
	return false
}

// Codec converts between bytes and canonical documents. The license table
// decides how license strings are written to CycloneDX.
type Codec struct {
	licenses *licenses.Table
}

// New creates a codec; a nil table means licenses.Default().
func New(table *licenses.Table) *Codec {
	if table == nil {
		table = licenses.Default()
	}
	return &Codec{licenses: table}
}

// Detect sniffs the schema and wire format of raw.
func Detect(raw []byte) (model.Schema, Format, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")))
	if len(trimmed) == 0 {
		return "", "", convert.DeserializeError("", "empty input")
	}

	switch trimmed[0] {
	case '{':
		var probe struct {
			BOMFormat   string `json:"bomFormat"`
			SPDXVersion string `json:"spdxVersion"`
			Format      string `json:"format"`
		}
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return "", "", convert.DeserializeError("", "invalid JSON: %v", err)
		}
		switch {
		case probe.BOMFormat != "":
			return model.CDX14, FormatJSON, nil
		case probe.SPDXVersion != "":
			return model.SPDX23, FormatJSON, nil
		case strings.EqualFold(probe.Format, model.SVIP.FormatName()):
			return model.SVIP, FormatJSON, nil
		}
	case '<':
		if bytes.Contains(trimmed, []byte("cyclonedx.org/schema/bom")) || bytes.Contains(trimmed, []byte("<bom")) {
			return model.CDX14, FormatXML, nil
		}
	default:
		if bytes.HasPrefix(trimmed, []byte("SPDXVersion:")) || bytes.Contains(trimmed, []byte("\nSPDXVersion:")) {
			return model.SPDX23, FormatTagValue, nil
		}
	}
	return "", "", convert.DeserializeError("", "unrecognized SBOM format")
}

// Decode detects the schema of raw and parses it.
func (c *Codec) Decode(raw []byte) (*model.Document, error) {
	return c.Parse(raw, "")
}

// Parse reads raw as a document of schema. An empty schema accepts whatever
// Detect finds.
func (c *Codec) Parse(raw []byte, schema model.Schema) (*model.Document, error) {
	detected, format, err := Detect(raw)
	if err != nil {
		return nil, err
	}
	if schema != "" && schema != detected {
		return nil, convert.DeserializeError(schema, "input is %s, not %s", detected, schema)
	}

	var doc *model.Document
	switch detected {
	case model.CDX14:
		doc, err = c.readCycloneDX(raw, format)
	case model.SPDX23:
		doc, err = c.readSPDX(raw, format)
	case model.SVIP:
		doc, err = readSVIP(raw)
	}
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, convert.DeserializeError(detected, "%v", err)
	}

	log.Debug().
		Str("schema", string(detected)).
		Str("format", string(format)).
		Int("components", len(doc.Components)).
		Msg("parsed document")
	return doc, nil
}

// Serialize writes doc, which must be of schema, in format.
func (c *Codec) Serialize(doc *model.Document, schema model.Schema, format Format) ([]byte, error) {
	if doc == nil {
		return nil, convert.SerializeError(schema, "nil document")
	}
	if !schema.Known() {
		return nil, &convert.ConversionError{Kind: convert.ErrUnsupportedSchema, Schema: schema}
	}
	if format == "" {
		format = Formats(schema)[0]
	}
	if !supports(schema, format) {
		return nil, &convert.ConversionError{
			Kind:   convert.ErrUnsupportedSchema,
			Schema: schema,
			Err:    fmt.Errorf("format %q is not available", format),
		}
	}
	if got, ok := model.SchemaOf(doc); !ok || got != schema {
		return nil, convert.SerializeError(schema, "document format is %q", model.Deref(doc.Format))
	}

	switch schema {
	case model.CDX14:
		return c.writeCycloneDX(doc, format)
	case model.SPDX23:
		return c.writeSPDX(doc, format)
	default:
		return writeSVIP(doc)
	}
}

// ReadFile reads path ("-" for stdin), decompressing .gz and .zst inputs,
// and parses the result.
func (c *Codec) ReadFile(path string) (*model.Document, error) {
	raw, err := ReadRaw(path)
	if err != nil {
		return nil, err
	}
	doc, err := c.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ReadRaw returns the decompressed contents of path.
func ReadRaw(path string) ([]byte, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read gzip stream %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read zstd stream %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
