package codec

import (
	"encoding/json"

	"github.com/StinkyLord/sbomkit/internal/convert"
	"github.com/StinkyLord/sbomkit/internal/model"
)

// SVIP documents are the canonical model's own JSON shape.

func readSVIP(raw []byte) (*model.Document, error) {
	var doc model.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, convert.DeserializeError(model.SVIP, "%v", err)
	}
	for _, c := range doc.AllComponents() {
		if c.Kind == "" {
			c.Kind = model.KindSVIP
		}
	}
	return doc.Clone(), nil
}

func writeSVIP(doc *model.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, convert.SerializeError(model.SVIP, "%v", err)
	}
	return append(data, '\n'), nil
}
