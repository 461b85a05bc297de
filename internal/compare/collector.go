package compare

import (
	"strconv"
	"strings"

	"github.com/StinkyLord/sbomkit/internal/model"
)

// collector accumulates conflicts in discovery order. Nested collectors share
// the same output slice and prefix their field labels.
type collector struct {
	prefix string
	out    *[]Conflict
}

func newCollector() *collector {
	return &collector{out: &[]Conflict{}}
}

func (c *collector) conflicts() []Conflict {
	return *c.out
}

func (c *collector) label(field string) string {
	if c.prefix == "" {
		return field
	}
	return c.prefix + " " + field
}

func (c *collector) nested(prefix string) *collector {
	return &collector{prefix: c.label(prefix), out: c.out}
}

func (c *collector) add(field string, kind MismatchKind, target, other *string) {
	if conflict, ok := New(c.label(field), kind, target, other); ok {
		*c.out = append(*c.out, conflict)
	}
}

// addRaw appends without going through the constructor.
func (c *collector) addRaw(field string, kind MismatchKind, target, other *string) {
	*c.out = append(*c.out, Conflict{MismatchKind: kind, Field: c.label(field), Target: target, Other: other})
}

func (c *collector) scalar(field string, kind MismatchKind, target, other *string) {
	c.add(field, kind, target, other)
}

// str compares sub-entity fields, where "" means absent.
func (c *collector) str(field string, kind MismatchKind, target, other string) {
	c.add(field, kind, strPtr(target), strPtr(other))
}

func (c *collector) boolean(field string, kind MismatchKind, target, other *bool) {
	c.add(field, kind, boolStr(target), boolStr(other))
}

// stringSet reports the symmetric difference of two primitive sets, one
// conflict per element. When a whole set is absent on one side the elements
// are Missing; otherwise they carry kind.
func (c *collector) stringSet(field string, kind MismatchKind, target, other []string) {
	target, other = model.Set(target...), model.Set(other...)
	if target == nil && other == nil {
		return
	}
	if target == nil || other == nil {
		kind = Missing
	}
	inOther := make(map[string]bool, len(other))
	for _, v := range other {
		inOther[v] = true
	}
	inTarget := make(map[string]bool, len(target))
	for _, v := range target {
		inTarget[v] = true
		if !inOther[v] {
			c.addRaw(field, kind, strPtr(v), nil)
		}
	}
	for _, v := range other {
		if !inTarget[v] {
			c.addRaw(field, kind, nil, strPtr(v))
		}
	}
}

// hashes compares algorithm -> digest maps key by key, in algorithm order.
func (c *collector) hashes(field string, target, other model.Hashes) {
	algs := model.Hashes{}.Union(target).Union(other).Algorithms()
	for _, alg := range algs {
		c.add(string(alg)+" "+field, HashMismatch, strPtr(target[alg]), strPtr(other[alg]))
	}
}

// matchable is satisfied by entities compared with partial equality.
type matchable[T any] interface {
	Matches(T) bool
	String() string
}

// compareSet runs the two-pass comparison. Pass one diffs every target
// element against the first other element it matches, or reports it Missing.
// Pass two reports the other elements that match nothing in target.
func compareSet[T matchable[T]](c *collector, field string, target, other []T, diff func(*collector, T, T)) {
	for _, t := range target {
		matched := false
		for _, o := range other {
			if t.Matches(o) {
				diff(c.nested(field), t, o)
				matched = true
				break
			}
		}
		if !matched {
			c.addRaw(field, Missing, strPtr(t.String()), nil)
		}
	}
	for _, o := range other {
		matched := false
		for _, t := range target {
			if t.Matches(o) {
				matched = true
				break
			}
		}
		if !matched {
			c.addRaw(field, Missing, nil, strPtr(o.String()))
		}
	}
}

// guard compares two optional sub-objects: nothing when both are absent, a
// single Missing when one is, diff otherwise.
func guard[T any](c *collector, field string, target, other *T, str func(*T) string, diff func(*collector, *T, *T)) {
	switch {
	case target == nil && other == nil:
	case target == nil:
		c.addRaw(field, Missing, nil, strPtr(str(other)))
	case other == nil:
		c.addRaw(field, Missing, strPtr(str(target)), nil)
	default:
		diff(c.nested(field), target, other)
	}
}

func boolStr(b *bool) *string {
	if b == nil {
		return nil
	}
	s := strconv.FormatBool(*b)
	return &s
}

func licenseString(l *model.LicenseCollection) string {
	return strings.Join(l.All(), ", ")
}
