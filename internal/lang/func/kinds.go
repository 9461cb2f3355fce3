package func_

import "github.com/trailofbits/muton/internal/catalog"

// Mutations is FunC's dialect-specific extension to the common catalog,
// grounded on original_source/src/mutations/func/kinds.rs.
var Mutations = []catalog.Mutation{
	{Slug: "INF", Description: "Replace an ifnot-condition with false", Severity: catalog.Medium},
	{Slug: "INT", Description: "Replace an ifnot-condition with true", Severity: catalog.Medium},
	{Slug: "RZ", Description: "Replace a repeat-count with 0", Severity: catalog.Low},
	{Slug: "UF", Description: "Replace an until-condition with false", Severity: catalog.Low},
	{Slug: "SU", Description: "Zero the first argument of store_uint", Severity: catalog.Low},
	{Slug: "SI", Description: "Zero the first argument of store_int", Severity: catalog.Low},
	{Slug: "SC", Description: "Zero the first argument of store_coins", Severity: catalog.Low},
	{Slug: "DOS", Description: "Shuffle division operators (/ ~/ ^/)", Severity: catalog.Low},
	{Slug: "DAOS", Description: "Shuffle division-assign operators (/= ~/= ^/=)", Severity: catalog.Low},
	{Slug: "MOS", Description: "Shuffle modulo operators (% ~% ^%)", Severity: catalog.Low},
	{Slug: "MAOS", Description: "Shuffle modulo-assign operators (%= ~%= ^%=)", Severity: catalog.Low},
}
