package convert

import "github.com/StinkyLord/sbomkit/internal/model"

// SPDX23Adapter handles SPDX 2.3 documents. Element ids are derived from the
// component name and version.
type SPDX23Adapter struct{}

func (SPDX23Adapter) Schema() model.Schema { return model.SPDX23 }

func (SPDX23Adapter) ToCanonical(doc *model.Document) (*model.Document, error) {
	return lift(doc, model.SPDX23)
}

func (SPDX23Adapter) FromCanonical(doc *model.Document) (*model.Document, error) {
	return project(doc, model.SPDX23,
		func(c *model.Component) model.Kind {
			if c.IsFile() {
				return model.KindSPDX23File
			}
			return model.KindSPDX23Package
		},
		func(d *model.Document) {
			d.Version = nil
			d.ExternalReferences = nil
			if cd := d.CreationData; cd != nil {
				cd.Supplier = nil
				cd.Licenses = nil
				cd.Properties = nil
			}
		})
}

func (SPDX23Adapter) MintID(c *model.Component, taken map[string]bool) string {
	return spdxID(c, taken)
}
