package model

import (
	"fmt"
	"strings"
)

// Schema identifies one of the supported SBOM schemas.
type Schema string

const (
	CDX14  Schema = "CDX14"
	SPDX23 Schema = "SPDX23"
	SVIP   Schema = "SVIP"
)

type schemaInfo struct {
	format      string
	specVersion string
	idPrefix    string
	kinds       []Kind
	algorithms  map[Algorithm]bool // nil accepts every algorithm
}

var cdxAlgorithms = map[Algorithm]bool{
	AlgMD5: true, AlgSHA1: true, AlgSHA256: true, AlgSHA384: true, AlgSHA512: true,
	AlgSHA3_256: true, AlgSHA3_384: true, AlgSHA3_512: true,
	AlgBLAKE2b256: true, AlgBLAKE2b384: true, AlgBLAKE2b512: true, AlgBLAKE3: true,
}

var spdxAlgorithms = map[Algorithm]bool{
	AlgMD2: true, AlgMD4: true, AlgMD5: true, AlgMD6: true,
	AlgSHA1: true, AlgSHA224: true, AlgSHA256: true, AlgSHA384: true, AlgSHA512: true,
	AlgSHA3_256: true, AlgSHA3_384: true, AlgSHA3_512: true,
	AlgBLAKE2b256: true, AlgBLAKE2b384: true, AlgBLAKE2b512: true, AlgBLAKE3: true,
	AlgADLER32: true,
}

var schemas = map[Schema]schemaInfo{
	CDX14: {
		format:      "CycloneDX",
		specVersion: "1.4",
		idPrefix:    "",
		kinds:       []Kind{KindCDX14Package},
		algorithms:  cdxAlgorithms,
	},
	SPDX23: {
		format:      "SPDX",
		specVersion: "2.3",
		idPrefix:    "SPDXRef-",
		kinds:       []Kind{KindSPDX23Package, KindSPDX23File},
		algorithms:  spdxAlgorithms,
	},
	SVIP: {
		format:      "SVIP",
		specVersion: "1.0-a",
		idPrefix:    "SVIPComponent-",
		kinds:       []Kind{KindSVIP},
	},
}

// Schemas returns every supported schema in a stable order.
func Schemas() []Schema {
	return []Schema{CDX14, SPDX23, SVIP}
}

func (s Schema) String() string { return string(s) }

// Known reports whether s is a supported schema.
func (s Schema) Known() bool {
	_, ok := schemas[s]
	return ok
}

// FormatName is the value carried in Document.Format.
func (s Schema) FormatName() string { return schemas[s].format }

// SpecVersion is the value carried in Document.SpecVersion.
func (s Schema) SpecVersion() string { return schemas[s].specVersion }

// IDPrefix is prepended to every minted component id.
func (s Schema) IDPrefix() string { return schemas[s].idPrefix }

// AllowsKind reports whether components of kind k belong in schema s.
func (s Schema) AllowsKind(k Kind) bool {
	for _, kind := range schemas[s].kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// SupportsAlgorithm reports whether the schema can carry a hash of alg.
func (s Schema) SupportsAlgorithm(alg Algorithm) bool {
	info, ok := schemas[s]
	if !ok {
		return false
	}
	if info.algorithms == nil {
		return true
	}
	return info.algorithms[alg]
}

// ParseSchema resolves a user-supplied schema name.
func ParseSchema(name string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cdx", "cdx14", "cyclonedx", "cyclonedx14", "cyclonedx-1.4":
		return CDX14, nil
	case "spdx", "spdx23", "spdx-2.3":
		return SPDX23, nil
	case "svip":
		return SVIP, nil
	default:
		return "", fmt.Errorf("unknown schema %q (supported: cdx14, spdx23, svip)", name)
	}
}

// SchemaForFormat maps a Document.Format tag back to its schema.
func SchemaForFormat(format string) (Schema, bool) {
	for _, s := range Schemas() {
		if strings.EqualFold(s.FormatName(), strings.TrimSpace(format)) {
			return s, true
		}
	}
	return "", false
}

// SchemaOf returns the schema named by the document's format tag.
func SchemaOf(doc *Document) (Schema, bool) {
	if doc == nil || doc.Format == nil {
		return "", false
	}
	return SchemaForFormat(*doc.Format)
}
