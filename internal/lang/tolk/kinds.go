package tolk

import "github.com/trailofbits/muton/internal/catalog"

// Mutations is Tolk's dialect-specific extension to the common catalog.
// Tolk's grammar has a repeat_statement (unlike the do-until/until forms
// FunC and Tact mutate with UF), so it extends the common catalog with
// only RZ.
var Mutations = []catalog.Mutation{
	{Slug: "RZ", Description: "Replace a repeat-count with 0", Severity: catalog.Low},
}
