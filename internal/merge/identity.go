package merge

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/StinkyLord/sbomkit/internal/model"
)

// hashStrength orders algorithms from strongest to weakest for identity keys.
var hashStrength = []model.Algorithm{
	model.AlgSHA512,
	model.AlgSHA384,
	model.AlgSHA256,
	model.AlgSHA3_512,
	model.AlgSHA3_256,
	model.AlgSHA1,
	model.AlgMD5,
}

// strongestHash picks the preferred digest of h. Algorithms outside
// hashStrength are considered in sorted order after it.
func strongestHash(h model.Hashes) (model.Algorithm, string, bool) {
	for _, alg := range hashStrength {
		if v := h[alg]; v != "" {
			return alg, v, true
		}
	}
	for _, alg := range h.Algorithms() {
		if v := h[alg]; v != "" {
			return alg, v, true
		}
	}
	return "", "", false
}

// Identity is the content key two components must share to be merged: a
// SHA3-256 digest over the kind, the normalized name and version, and the
// strongest hash the component carries.
func Identity(c *model.Component) string {
	var b strings.Builder
	b.WriteString(string(c.Kind))
	b.WriteByte(0)
	b.WriteString(c.Key())
	b.WriteByte(0)
	if alg, v, ok := strongestHash(c.Hashes); ok {
		b.WriteString(string(alg))
		b.WriteByte(':')
		b.WriteString(strings.ToLower(v))
	}
	sum := sha3.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
