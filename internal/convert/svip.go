package convert

import "github.com/StinkyLord/sbomkit/internal/model"

// SVIPAdapter handles the internal schema, which carries every field.
type SVIPAdapter struct{}

func (SVIPAdapter) Schema() model.Schema { return model.SVIP }

func (SVIPAdapter) ToCanonical(doc *model.Document) (*model.Document, error) {
	return lift(doc, model.SVIP)
}

func (SVIPAdapter) FromCanonical(doc *model.Document) (*model.Document, error) {
	return project(doc, model.SVIP,
		func(*model.Component) model.Kind { return model.KindSVIP },
		nil)
}

func (SVIPAdapter) MintID(_ *model.Component, taken map[string]bool) string {
	return randomID(model.SVIP.IDPrefix(), taken)
}
