package codec

import (
	"sort"

	"github.com/StinkyLord/sbomkit/internal/model"
)

// set calls f only for present values.
func set(f func(string), v string) {
	if v != "" {
		f(v)
	}
}

// nonEmpty turns creation data that carries nothing into nil.
func nonEmpty(cd *model.CreationData) *model.CreationData {
	if cd == nil {
		return nil
	}
	if cd.CreationTime == "" && cd.CreatorComment == "" &&
		len(cd.Authors) == 0 && len(cd.CreationTools) == 0 &&
		cd.Manufacture == nil && cd.Supplier == nil &&
		len(cd.Licenses) == 0 && len(cd.Properties) == 0 {
		return nil
	}
	return cd
}

func sortedRelationshipKeys(doc *model.Document) []string {
	keys := make([]string, 0, len(doc.Relationships))
	for k := range doc.Relationships {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
