package output

import (
	"github.com/StinkyLord/sbomkit/internal/model"
)

// WriteDependencyTree unfolds the relationships of doc into a dependency tree
// and writes it as JSON to the given output path. If outputPath is "-", it
// writes to stdout.
//
// The output is a JSON array of root nodes: the document's root component
// when it has one, otherwise every component no relationship points at. Each
// node carries the edge type from its parent and a "children" array that
// recursively contains what it relates to.
//
// Example output:
//
//	[
//	  {
//	    "uid": "SPDXRef-app-2.0.0",
//	    "name": "app",
//	    "version": "2.0.0",
//	    "children": [
//	      {
//	        "uid": "SPDXRef-openssl-3.1.4",
//	        "name": "openssl",
//	        "version": "3.1.4",
//	        "relationship": "DEPENDS_ON",
//	        "children": [
//	          {
//	            "uid": "SPDXRef-zlib-1.2.13",
//	            "name": "zlib",
//	            "version": "1.2.13",
//	            "relationship": "DEPENDS_ON"
//	          }
//	        ]
//	      }
//	    ]
//	  }
//	]
func WriteDependencyTree(doc *model.Document, outputPath string) error {
	if doc == nil {
		return writeJSON(outputPath, []struct{}{})
	}
	tree := model.BuildDependencyTree(doc)
	if len(tree.Roots) == 0 {
		// Emit an empty array rather than null
		return writeJSON(outputPath, []struct{}{})
	}
	return writeJSON(outputPath, tree.Roots)
}
