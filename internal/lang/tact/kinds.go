package tact

import "github.com/trailofbits/muton/internal/catalog"

// Mutations is Tact's dialect-specific extension to the common catalog,
// grounded on original_source/src/mutations/tact/kinds.rs.
var Mutations = []catalog.Mutation{
	{Slug: "RZ", Description: "Replace a repeat-count with 0", Severity: catalog.Low},
	{Slug: "UF", Description: "Replace a do-until condition with false", Severity: catalog.Low},
	{Slug: "TT", Description: "Replace a ternary condition with true", Severity: catalog.Low},
	{Slug: "TF", Description: "Replace a ternary condition with false", Severity: catalog.Low},
}
