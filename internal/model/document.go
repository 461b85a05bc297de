package model

import (
	"errors"
	"fmt"
)

// Document is a canonical SBOM. Values are treated as frozen once built:
// every operation in this module returns a new Document rather than
// mutating its input.
type Document struct {
	Format             *string                   `json:"format,omitempty"`
	Name               *string                   `json:"name,omitempty"`
	UID                *string                   `json:"uid,omitempty"`
	Version            *string                   `json:"version,omitempty"`
	SpecVersion        *string                   `json:"specVersion,omitempty"`
	Licenses           []string                  `json:"licenses,omitempty"`
	CreationData       *CreationData             `json:"creationData,omitempty"`
	DocumentComment    *string                   `json:"documentComment,omitempty"`
	RootComponent      *Component                `json:"rootComponent,omitempty"`
	Components         []*Component              `json:"components,omitempty"`
	Relationships      map[string][]Relationship `json:"relationships,omitempty"`
	ExternalReferences []ExternalReference       `json:"externalReferences,omitempty"`
}

var (
	// ErrDanglingReference marks a relationship whose key or target names no
	// component of the document.
	ErrDanglingReference = errors.New("dangling component reference")

	// ErrDuplicateID marks two components sharing one uid.
	ErrDuplicateID = errors.New("duplicate component id")
)

// DanglingReferenceError names the offending relationship.
type DanglingReferenceError struct {
	Source string
	Target string // empty when the relationship key itself is unknown
}

func (e *DanglingReferenceError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%v: relationship source %q", ErrDanglingReference, e.Source)
	}
	return fmt.Sprintf("%v: %q -> %q", ErrDanglingReference, e.Source, e.Target)
}

func (e *DanglingReferenceError) Is(target error) bool {
	return target == ErrDanglingReference
}

// AllComponents returns the root component (if any) followed by Components.
func (d *Document) AllComponents() []*Component {
	all := make([]*Component, 0, len(d.Components)+1)
	if d.RootComponent != nil {
		all = append(all, d.RootComponent)
	}
	return append(all, d.Components...)
}

// ComponentByUID finds a component (root included) by uid.
func (d *Document) ComponentByUID(uid string) *Component {
	for _, c := range d.AllComponents() {
		if c.UID != nil && *c.UID == uid {
			return c
		}
	}
	return nil
}

// ComponentIDs returns the set of uids present in the document.
func (d *Document) ComponentIDs() map[string]bool {
	ids := make(map[string]bool, len(d.Components)+1)
	for _, c := range d.AllComponents() {
		if c.UID != nil {
			ids[*c.UID] = true
		}
	}
	return ids
}

// Validate checks that component uids are unique and that every relationship
// key and target resolves to a component of the document.
func (d *Document) Validate() error {
	ids := make(map[string]bool, len(d.Components)+1)
	for _, c := range d.AllComponents() {
		if c.UID == nil {
			continue
		}
		if ids[*c.UID] {
			return fmt.Errorf("%w: %q", ErrDuplicateID, *c.UID)
		}
		ids[*c.UID] = true
	}
	for _, source := range sortedKeys(d.Relationships) {
		if !ids[source] {
			return &DanglingReferenceError{Source: source}
		}
		for _, rel := range d.Relationships[source] {
			if !ids[rel.OtherUID] {
				return &DanglingReferenceError{Source: source, Target: rel.OtherUID}
			}
		}
	}
	return nil
}

// RelationshipCount is the number of edges across all sources.
func (d *Document) RelationshipCount() int {
	n := 0
	for _, rels := range d.Relationships {
		n += len(rels)
	}
	return n
}

// Clone deep-copies the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Format:             clonePtr(d.Format),
		Name:               clonePtr(d.Name),
		UID:                clonePtr(d.UID),
		Version:            clonePtr(d.Version),
		SpecVersion:        clonePtr(d.SpecVersion),
		Licenses:           CloneSet(d.Licenses),
		CreationData:       d.CreationData.Clone(),
		DocumentComment:    clonePtr(d.DocumentComment),
		RootComponent:      d.RootComponent.Clone(),
		Relationships:      cloneRelationships(d.Relationships),
		ExternalReferences: cloneReferences(d.ExternalReferences),
	}
	if len(d.Components) > 0 {
		out.Components = make([]*Component, len(d.Components))
		for i, c := range d.Components {
			out.Components[i] = c.Clone()
		}
	}
	return out
}
