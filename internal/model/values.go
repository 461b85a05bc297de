package model

import (
	"sort"
	"strings"
)

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns the string s points to, or "" when s is absent.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Set returns values sorted with duplicates and empty strings removed.
// An empty result is nil, which the model treats as "absent".
func Set(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	uniq := out[:1]
	for _, v := range out[1:] {
		if v != uniq[len(uniq)-1] {
			uniq = append(uniq, v)
		}
	}
	return uniq
}

// CloneSet is Set for a stored field: nil stays absent, and a present set
// that normalizes to nothing stays present but empty.
func CloneSet(values []string) []string {
	if values == nil {
		return nil
	}
	if out := Set(values...); out != nil {
		return out
	}
	return []string{}
}

// UnionSet returns the sorted union of a and b.
func UnionSet(a, b []string) []string {
	all := make([]string, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	return Set(all...)
}

// Properties maps a property name to its set of values.
type Properties map[string][]string

// Clone returns a deep copy, or nil when p is empty.
func (p Properties) Clone() Properties {
	if len(p) == 0 {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		if vals := Set(v...); vals != nil {
			out[k] = vals
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Union merges other into a copy of p.
func (p Properties) Union(other Properties) Properties {
	out := p.Clone()
	for k, v := range other {
		if out == nil {
			out = Properties{}
		}
		out[k] = UnionSet(out[k], v)
		if out[k] == nil {
			delete(out, k)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Flatten renders every value as "name=value", sorted.
func (p Properties) Flatten() []string {
	var out []string
	for k, vals := range p {
		for _, v := range vals {
			out = append(out, k+"="+v)
		}
	}
	return Set(out...)
}

// Algorithm is a normalized hash algorithm name.
type Algorithm string

const (
	AlgMD2        Algorithm = "MD2"
	AlgMD4        Algorithm = "MD4"
	AlgMD5        Algorithm = "MD5"
	AlgMD6        Algorithm = "MD6"
	AlgSHA1       Algorithm = "SHA1"
	AlgSHA224     Algorithm = "SHA224"
	AlgSHA256     Algorithm = "SHA256"
	AlgSHA384     Algorithm = "SHA384"
	AlgSHA512     Algorithm = "SHA512"
	AlgSHA3_256   Algorithm = "SHA3-256"
	AlgSHA3_384   Algorithm = "SHA3-384"
	AlgSHA3_512   Algorithm = "SHA3-512"
	AlgBLAKE2b256 Algorithm = "BLAKE2b-256"
	AlgBLAKE2b384 Algorithm = "BLAKE2b-384"
	AlgBLAKE2b512 Algorithm = "BLAKE2b-512"
	AlgBLAKE3     Algorithm = "BLAKE3"
	AlgADLER32    Algorithm = "ADLER32"
)

// algorithmAliases is keyed by the upper-cased name with separators removed,
// so "SHA-256", "sha256" and "SHA_256" all land on AlgSHA256.
var algorithmAliases = map[string]Algorithm{
	"MD2":        AlgMD2,
	"MD4":        AlgMD4,
	"MD5":        AlgMD5,
	"MD6":        AlgMD6,
	"SHA1":       AlgSHA1,
	"SHA224":     AlgSHA224,
	"SHA256":     AlgSHA256,
	"SHA384":     AlgSHA384,
	"SHA512":     AlgSHA512,
	"SHA3256":    AlgSHA3_256,
	"SHA3384":    AlgSHA3_384,
	"SHA3512":    AlgSHA3_512,
	"BLAKE2B256": AlgBLAKE2b256,
	"BLAKE2B384": AlgBLAKE2b384,
	"BLAKE2B512": AlgBLAKE2b512,
	"BLAKE3":     AlgBLAKE3,
	"ADLER32":    AlgADLER32,
}

var algorithmSeparators = strings.NewReplacer("-", "", "_", "", " ", "")

// NormalizeAlgorithm maps any schema's spelling of a hash algorithm onto the
// canonical name. Unknown names are upper-cased and kept.
func NormalizeAlgorithm(name string) Algorithm {
	key := strings.ToUpper(algorithmSeparators.Replace(strings.TrimSpace(name)))
	if alg, ok := algorithmAliases[key]; ok {
		return alg
	}
	return Algorithm(strings.ToUpper(strings.TrimSpace(name)))
}

// Hashes maps an algorithm to a hex digest.
type Hashes map[Algorithm]string

// Clone returns a copy with empty values dropped, or nil when nothing is left.
func (h Hashes) Clone() Hashes {
	if len(h) == 0 {
		return nil
	}
	out := make(Hashes, len(h))
	for alg, v := range h {
		if v != "" {
			out[alg] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Union returns a copy of h extended with the algorithms only other carries.
// Values already in h win.
func (h Hashes) Union(other Hashes) Hashes {
	out := h.Clone()
	for alg, v := range other {
		if v == "" {
			continue
		}
		if out == nil {
			out = Hashes{}
		}
		if _, ok := out[alg]; !ok {
			out[alg] = v
		}
	}
	return out
}

// Algorithms returns the algorithm keys in sorted order.
func (h Hashes) Algorithms() []Algorithm {
	algs := make([]Algorithm, 0, len(h))
	for alg := range h {
		algs = append(algs, alg)
	}
	sort.Slice(algs, func(i, j int) bool { return algs[i] < algs[j] })
	return algs
}

// Equal reports whether both maps hold the same digests.
func (h Hashes) Equal(other Hashes) bool {
	if len(h) != len(other) {
		return false
	}
	for alg, v := range h {
		if other[alg] != v {
			return false
		}
	}
	return true
}

// Filter keeps only the algorithms keep accepts.
func (h Hashes) Filter(keep func(Algorithm) bool) Hashes {
	out := Hashes{}
	for alg, v := range h {
		if keep(alg) {
			out[alg] = v
		}
	}
	return out.Clone()
}
