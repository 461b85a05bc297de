// Package merge combines SBOM documents. The first document of a merge is
// the primary: its metadata, root component and relationships are kept, and
// its values win wherever both documents carry a scalar.
package merge

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/StinkyLord/sbomkit/internal/convert"
	"github.com/StinkyLord/sbomkit/internal/model"
)

// Merger merges documents, converting through the canonical schema when the
// inputs disagree on schema.
type Merger struct {
	ctrl *convert.Controller
}

// New creates a merger; a nil controller means the default adapters.
func New(ctrl *convert.Controller) *Merger {
	if ctrl == nil {
		ctrl = convert.NewController(nil)
	}
	return &Merger{ctrl: ctrl}
}

// Merge combines primary and secondary. Documents of the same schema merge in
// that schema; documents of different schemas are canonicalized first and the
// result is canonical. Neither input is modified.
func (m *Merger) Merge(primary, secondary *model.Document) (*model.Document, error) {
	if primary == nil || secondary == nil {
		return nil, &MergeError{Primary: name(primary), Secondary: name(secondary), Err: errors.New("nil document")}
	}
	fail := func(err error) error {
		return &MergeError{Primary: name(primary), Secondary: name(secondary), Err: err}
	}

	sa, okA := model.SchemaOf(primary)
	sb, okB := model.SchemaOf(secondary)
	if !okA || !okB {
		return nil, fail(fmt.Errorf("%w: %q and %q", ErrUnsupportedSchemaPair,
			model.Deref(primary.Format), model.Deref(secondary.Format)))
	}

	target := sa
	a, b := primary, secondary
	if sa != sb {
		target = model.SVIP
		var err error
		if a, err = m.ctrl.Convert(primary, sa, target); err != nil {
			return nil, fail(err)
		}
		if b, err = m.ctrl.Convert(secondary, sb, target); err != nil {
			return nil, fail(err)
		}
	}
	if _, err := m.ctrl.Registry().Lookup(target); err != nil {
		return nil, fail(fmt.Errorf("%w: %v", ErrUnsupportedSchemaPair, err))
	}

	out, err := m.mergeDocuments(a, b, target)
	if err != nil {
		return nil, fail(err)
	}

	log.Debug().
		Str("schema", string(target)).
		Int("components", len(out.Components)).
		Msg("merged documents")
	return out, nil
}

// MergeAll folds docs from the left; docs[0] is the primary of the result.
func (m *Merger) MergeAll(docs []*model.Document) (*model.Document, error) {
	if len(docs) == 0 {
		return nil, errors.New("merge: no documents")
	}
	acc := docs[0].Clone()
	if acc == nil {
		return nil, &MergeError{Primary: "<nil>", Secondary: "-", Err: errors.New("nil document")}
	}
	for _, doc := range docs[1:] {
		next, err := m.Merge(acc, doc)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return acc, nil
}

func (m *Merger) mergeDocuments(a, b *model.Document, target model.Schema) (*model.Document, error) {
	out := a.Clone()
	out.Licenses = model.UnionSet(a.Licenses, b.Licenses)
	out.ExternalReferences = model.UnionReferences(a.ExternalReferences, b.ExternalReferences)
	out.CreationData = mergeCreationData(a.CreationData, b.CreationData)

	rootKey := ""
	if out.RootComponent != nil {
		rootKey = Identity(out.RootComponent)
	}
	index := make(map[string]int, len(out.Components))
	for i, c := range out.Components {
		if _, seen := index[Identity(c)]; !seen {
			index[Identity(c)] = i
		}
	}

	taken := out.ComponentIDs()
	merged, reminted := 0, 0
	for _, c := range b.Components {
		key := Identity(c)
		if key == rootKey {
			out.RootComponent = mergeComponent(out.RootComponent, c)
			merged++
			continue
		}
		if i, ok := index[key]; ok {
			out.Components[i] = mergeComponent(out.Components[i], c)
			merged++
			continue
		}

		added := c.Clone()
		if added.UID == nil || taken[*added.UID] {
			id, err := m.ctrl.MintFor(target, added, taken)
			if err != nil {
				return nil, err
			}
			added.UID = model.Ptr(id)
			reminted++
		}
		taken[*added.UID] = true
		index[key] = len(out.Components)
		out.Components = append(out.Components, added)
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Int("merged", merged).
		Int("reminted", reminted).
		Int("droppedRelationships", b.RelationshipCount()).
		Msg("reconciled components")
	return out, nil
}

// mergeComponent keeps every value of p and fills in from s: absent scalars
// take s's value and set-valued fields become unions.
func mergeComponent(p, s *model.Component) *model.Component {
	out := p.Clone()
	dst, src := scalars(out), scalars(s)
	for i := range dst {
		if *dst[i] == nil && *src[i] != nil {
			v := **src[i]
			*dst[i] = &v
		}
	}
	if out.FilesAnalyzed == nil && s.FilesAnalyzed != nil {
		v := *s.FilesAnalyzed
		out.FilesAnalyzed = &v
	}
	if out.Description == nil && s.Description != nil {
		d := *s.Description
		out.Description = &d
	}
	out.Supplier = mergeOrganization(out.Supplier, s.Supplier)
	out.Licenses = out.Licenses.Union(s.Licenses)
	out.Hashes = out.Hashes.Union(s.Hashes)
	out.CPEs = model.UnionSet(out.CPEs, s.CPEs)
	out.PURLs = model.UnionSet(out.PURLs, s.PURLs)
	out.ExternalReferences = model.UnionReferences(out.ExternalReferences, s.ExternalReferences)
	out.Properties = out.Properties.Union(s.Properties)
	out.File = out.File || s.File
	return out
}

// scalars lists the optional string fields of c in a fixed order. The uid
// is left out: merged components keep the primary's id.
func scalars(c *model.Component) []**string {
	return []**string{
		&c.Type, &c.Author, &c.Name, &c.Copyright, &c.Version,
		&c.MimeType, &c.Publisher, &c.Scope, &c.Group,
		&c.Comment, &c.AttributionText, &c.DownloadLocation, &c.FileName,
		&c.VerificationCode, &c.HomePage, &c.SourceInfo,
		&c.ReleaseDate, &c.BuildDate, &c.ValidUntilDate, &c.FileNotice,
	}
}

func mergeCreationData(a, b *model.CreationData) *model.CreationData {
	switch {
	case a == nil:
		return b.Clone()
	case b == nil:
		return a.Clone()
	}
	out := a.Clone()
	if out.CreationTime == "" {
		out.CreationTime = b.CreationTime
	}
	if out.CreatorComment == "" {
		out.CreatorComment = b.CreatorComment
	}
	out.Authors = model.UnionContacts(a.Authors, b.Authors)
	out.CreationTools = model.UnionTools(a.CreationTools, b.CreationTools)
	out.Licenses = model.UnionSet(a.Licenses, b.Licenses)
	out.Properties = a.Properties.Union(b.Properties)
	out.Manufacture = mergeOrganization(a.Manufacture, b.Manufacture)
	out.Supplier = mergeOrganization(a.Supplier, b.Supplier)
	return out
}

// mergeOrganization prefers a; when both describe the same organization its
// contacts are combined.
func mergeOrganization(a, b *model.Organization) *model.Organization {
	switch {
	case a == nil:
		return b.Clone()
	case a.Matches(b):
		return a.MergeContacts(b)
	default:
		return a.Clone()
	}
}

func name(doc *model.Document) string {
	if doc == nil {
		return "<nil>"
	}
	if doc.Name != nil && *doc.Name != "" {
		return *doc.Name
	}
	if doc.UID != nil && *doc.UID != "" {
		return *doc.UID
	}
	return describeFormat(doc)
}

func describeFormat(doc *model.Document) string {
	if doc.Format == nil {
		return "document"
	}
	return *doc.Format + " document"
}
