// Package convert maps documents between schemas through the canonical
// (SVIP) form and keeps component identifiers consistent while doing so.
package convert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/StinkyLord/sbomkit/internal/model"
)

// Adapter maps documents of one schema to and from the canonical form.
type Adapter interface {
	// Schema is the schema this adapter reads and writes.
	Schema() model.Schema

	// ToCanonical lifts a document of Schema() into the canonical form,
	// field by field, preserving absence.
	ToCanonical(doc *model.Document) (*model.Document, error)

	// FromCanonical projects a canonical document onto Schema(), dropping
	// fields the schema cannot carry.
	FromCanonical(doc *model.Document) (*model.Document, error)

	// MintID returns a fresh component id following the schema's
	// convention. taken holds the ids already handed out in this call.
	MintID(c *model.Component, taken map[string]bool) string
}

// lift is the ToCanonical step shared by all adapters.
func lift(doc *model.Document, schema model.Schema) (*model.Document, error) {
	if doc == nil {
		return nil, DeserializeError(schema, "nil document")
	}
	if doc.Format != nil {
		if got, ok := model.SchemaForFormat(*doc.Format); !ok || got != schema {
			return nil, DeserializeError(schema, "document format %q is not %s", *doc.Format, schema.FormatName())
		}
	}

	out := doc.Clone()
	// Canonical components are accepted under any label, which lets a
	// relabelled document be canonicalized again.
	liftOne := func(c *model.Component) (*model.Component, error) {
		if c.Kind != model.KindSVIP && !schema.AllowsKind(c.Kind) {
			return nil, DeserializeError(schema, "component %q has kind %q", c.Label(), c.Kind)
		}
		file := c.IsFile()
		lifted := c.Project(c.Kind).Project(model.KindSVIP)
		lifted.File = file
		return lifted, nil
	}

	if out.RootComponent != nil {
		root, err := liftOne(out.RootComponent)
		if err != nil {
			return nil, err
		}
		out.RootComponent = root
	}
	for i, c := range out.Components {
		lifted, err := liftOne(c)
		if err != nil {
			return nil, err
		}
		out.Components[i] = lifted
	}

	out.Format = model.Ptr(model.SVIP.FormatName())
	out.SpecVersion = model.Ptr(model.SVIP.SpecVersion())
	return out, nil
}

// project is the FromCanonical step shared by all adapters. kindFor picks
// the target kind of each component; trim drops document-level fields the
// target does not support.
func project(doc *model.Document, schema model.Schema, kindFor func(*model.Component) model.Kind, trim func(*model.Document)) (*model.Document, error) {
	if doc == nil {
		return nil, SerializeError(schema, "nil document")
	}
	out := doc.Clone()
	projectOne := func(c *model.Component) (*model.Component, error) {
		if c.Kind != model.KindSVIP {
			return nil, SerializeError(schema, "component %q is not canonical (kind %q)", c.Label(), c.Kind)
		}
		if c.Name == nil || *c.Name == "" {
			return nil, SerializeError(schema, "component %q has no name", model.Deref(c.UID))
		}
		p := c.Project(kindFor(c))
		p.Hashes = p.Hashes.Filter(schema.SupportsAlgorithm)
		for i := range p.ExternalReferences {
			p.ExternalReferences[i].Hashes = p.ExternalReferences[i].Hashes.Filter(schema.SupportsAlgorithm)
		}
		return p, nil
	}

	if out.RootComponent != nil {
		root, err := projectOne(out.RootComponent)
		if err != nil {
			return nil, err
		}
		out.RootComponent = root
	}
	for i, c := range out.Components {
		p, err := projectOne(c)
		if err != nil {
			return nil, err
		}
		out.Components[i] = p
	}
	if out.CreationData != nil {
		for i := range out.CreationData.CreationTools {
			tool := &out.CreationData.CreationTools[i]
			tool.Hashes = tool.Hashes.Filter(schema.SupportsAlgorithm)
		}
	}

	out.Format = model.Ptr(schema.FormatName())
	out.SpecVersion = model.Ptr(schema.SpecVersion())
	if trim != nil {
		trim(out)
	}
	return out, nil
}

// randomID mints prefix + a random UUID.
func randomID(prefix string, taken map[string]bool) string {
	for {
		id := prefix + uuid.NewString()
		if !taken[id] {
			return id
		}
	}
}

var spdxIDUnsafe = regexp.MustCompile(`[^A-Za-z0-9.\-]+`)

// spdxID mints "SPDXRef-<name>-<version>", sanitized to the SPDX id
// alphabet and suffixed with -2, -3, ... on collision.
func spdxID(c *model.Component, taken map[string]bool) string {
	name := strings.Trim(spdxIDUnsafe.ReplaceAllString(model.Deref(c.Name), "-"), "-")
	if name == "" {
		name = "Component"
	}
	base := model.SPDX23.IDPrefix() + name
	if v := strings.Trim(spdxIDUnsafe.ReplaceAllString(model.Deref(c.Version), "-"), "-"); v != "" {
		base += "-" + v
	}
	id := base
	for n := 2; taken[id]; n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	return id
}

func describe(doc *model.Document) string {
	return fmt.Sprintf("%s %s", model.Deref(doc.Format), model.Deref(doc.SpecVersion))
}
