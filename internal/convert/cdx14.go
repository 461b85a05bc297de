package convert

import "github.com/StinkyLord/sbomkit/internal/model"

// CDX14Adapter handles CycloneDX 1.4 documents. Bom-refs are random UUIDs.
type CDX14Adapter struct{}

func (CDX14Adapter) Schema() model.Schema { return model.CDX14 }

func (CDX14Adapter) ToCanonical(doc *model.Document) (*model.Document, error) {
	return lift(doc, model.CDX14)
}

func (CDX14Adapter) FromCanonical(doc *model.Document) (*model.Document, error) {
	return project(doc, model.CDX14,
		func(*model.Component) model.Kind { return model.KindCDX14Package },
		func(d *model.Document) {
			// CycloneDX 1.4 has no document name or comment.
			d.Name = nil
			d.DocumentComment = nil
			if d.CreationData != nil {
				d.CreationData.Licenses = nil
			}
		})
}

func (CDX14Adapter) MintID(_ *model.Component, taken map[string]bool) string {
	return randomID(model.CDX14.IDPrefix(), taken)
}
