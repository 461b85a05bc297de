package convert

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/StinkyLord/sbomkit/internal/model"
)

// Registry maps each schema to its adapter. Register adapters during setup;
// lookups are safe to share afterwards.
type Registry struct {
	adapters map[model.Schema]Adapter
}

// NewRegistry creates a registry holding adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[model.Schema]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// DefaultRegistry knows CycloneDX 1.4, SPDX 2.3 and SVIP.
func DefaultRegistry() *Registry {
	return NewRegistry(CDX14Adapter{}, SPDX23Adapter{}, SVIPAdapter{})
}

// Register adds or replaces the adapter for a.Schema().
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Schema()] = a
}

// Lookup returns the adapter for s, or an ErrUnsupportedSchema error.
func (r *Registry) Lookup(s model.Schema) (Adapter, error) {
	a, ok := r.adapters[s]
	if !ok {
		return nil, unsupportedSchema(s)
	}
	return a, nil
}

// Schemas lists the registered schemas, sorted.
func (r *Registry) Schemas() []model.Schema {
	out := make([]model.Schema, 0, len(r.adapters))
	for s := range r.adapters {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Controller drives conversions between registered schemas.
type Controller struct {
	registry *Registry
}

// NewController creates a controller; a nil registry means DefaultRegistry.
func NewController(registry *Registry) *Controller {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Controller{registry: registry}
}

// Registry exposes the adapters the controller uses.
func (c *Controller) Registry() *Registry {
	return c.registry
}

// Convert translates doc from src to tgt:
//  1. lift into the canonical form with the source adapter
//  2. mint new ids for root and every component with the target convention
//  3. rewrite every relationship key and target through the id map
//  4. project onto the target schema
//
// The input is never modified.
func (c *Controller) Convert(doc *model.Document, src, tgt model.Schema) (*model.Document, error) {
	from, err := c.registry.Lookup(src)
	if err != nil {
		return nil, err
	}
	to, err := c.registry.Lookup(tgt)
	if err != nil {
		return nil, err
	}

	canonical, err := from.ToCanonical(doc)
	if err != nil {
		return nil, err
	}

	if err := remap(canonical, to); err != nil {
		return nil, err
	}

	out, err := to.FromCanonical(canonical)
	if err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, danglingReference(tgt, err)
	}

	log.Debug().
		Str("from", string(src)).
		Str("to", describe(out)).
		Int("components", len(out.Components)).
		Int("relationships", out.RelationshipCount()).
		Msg("converted document")
	return out, nil
}

// Canonicalize converts doc from the schema named by its format tag into
// the internal schema.
func (c *Controller) Canonicalize(doc *model.Document) (*model.Document, error) {
	if doc == nil {
		return nil, DeserializeError("", "nil document")
	}
	src, ok := model.SchemaOf(doc)
	if !ok {
		return nil, unsupportedSchema(model.Schema(model.Deref(doc.Format)))
	}
	return c.Convert(doc, src, model.SVIP)
}

// Relabel rewrites only the schema-identifying metadata of doc: the format
// tag, the spec version and the component ids (minted by tgt's convention,
// relationships rewritten to match). Fields are not projected, so the data
// stays exactly as it was and every component keeps its canonical kind. The
// result can be canonicalized again but not serialized to tgt's wire
// formats; use Convert for that.
func (c *Controller) Relabel(doc *model.Document, tgt model.Schema) (*model.Document, error) {
	to, err := c.registry.Lookup(tgt)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, DeserializeError(tgt, "nil document")
	}
	out := doc.Clone()
	if err := remap(out, to); err != nil {
		return nil, err
	}
	out.Format = model.Ptr(tgt.FormatName())
	out.SpecVersion = model.Ptr(tgt.SpecVersion())
	if err := out.Validate(); err != nil {
		return nil, danglingReference(tgt, err)
	}
	return out, nil
}

// remap mints new ids on doc in place and rewrites its relationships. doc
// must be a private copy.
func remap(doc *model.Document, to Adapter) error {
	ids := make(map[string]string, len(doc.Components)+1)
	taken := make(map[string]bool, len(doc.Components)+1)

	for _, comp := range doc.AllComponents() {
		newID := to.MintID(comp, taken)
		taken[newID] = true
		if comp.UID != nil {
			if _, dup := ids[*comp.UID]; dup {
				return DeserializeError(to.Schema(), "duplicate component id %q", *comp.UID)
			}
			ids[*comp.UID] = newID
		}
		comp.UID = model.Ptr(newID)
	}

	if len(doc.Relationships) == 0 {
		doc.Relationships = nil
		return nil
	}

	sources := make([]string, 0, len(doc.Relationships))
	for k := range doc.Relationships {
		sources = append(sources, k)
	}
	sort.Strings(sources)

	rewritten := make(map[string][]model.Relationship, len(doc.Relationships))
	for _, source := range sources {
		newSource, ok := ids[source]
		if !ok {
			return danglingReference(to.Schema(), &model.DanglingReferenceError{Source: source})
		}
		for _, rel := range doc.Relationships[source] {
			newTarget, ok := ids[rel.OtherUID]
			if !ok {
				return danglingReference(to.Schema(), &model.DanglingReferenceError{Source: source, Target: rel.OtherUID})
			}
			rel.OtherUID = newTarget
			rewritten[newSource] = append(rewritten[newSource], rel)
		}
	}
	doc.Relationships = rewritten

	log.Debug().
		Str("schema", string(to.Schema())).
		Int("ids", len(ids)).
		Msg("re-minted component ids")
	return nil
}

// MintFor returns a fresh id for c under schema s, avoiding taken.
func (c *Controller) MintFor(s model.Schema, comp *model.Component, taken map[string]bool) (string, error) {
	a, err := c.registry.Lookup(s)
	if err != nil {
		return "", err
	}
	return a.MintID(comp, taken), nil
}
