package compare

import (
	"sort"

	"github.com/StinkyLord/sbomkit/internal/model"
)

// Comparison is the result of diffing one named document against another.
type Comparison struct {
	Target    string     `json:"target" yaml:"target"`
	Other     string     `json:"other" yaml:"other"`
	Conflicts []Conflict `json:"conflicts" yaml:"conflicts"`
}

// Compare diffs target against other and labels the result with the given
// document names.
func Compare(targetName, otherName string, target, other *model.Document) *Comparison {
	conflicts := Documents(target, other)
	if conflicts == nil {
		conflicts = []Conflict{}
	}
	return &Comparison{Target: targetName, Other: otherName, Conflicts: conflicts}
}

// Identical reports whether no conflicts were found.
func (c *Comparison) Identical() bool {
	return len(c.Conflicts) == 0
}

// KindCount is how many conflicts of one kind a comparison holds.
type KindCount struct {
	Kind  MismatchKind `json:"kind" yaml:"kind"`
	Count int          `json:"count" yaml:"count"`
}

// Summary counts conflicts per kind, most frequent first, ties by name.
func (c *Comparison) Summary() []KindCount {
	counts := make(map[MismatchKind]int)
	for _, conflict := range c.Conflicts {
		counts[conflict.MismatchKind]++
	}
	out := make([]KindCount, 0, len(counts))
	for kind, n := range counts {
		out = append(out, KindCount{Kind: kind, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
