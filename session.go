package quarry

// A Session carries per-query configuration consulted by optimizer passes.
// The zero value disables all optional behaviour.
type Session struct {
	QueryID string

	// PushdownSubfields enables the subfield pushdown optimizer pass
	PushdownSubfields bool
	// LegacyUnnest preserves the historical unnest behaviour in which
	// unnested struct fields cannot be pruned independently
	LegacyUnnest bool
	// PushdownSubfieldsFromArrayLambdas enables subfield collection
	// inside lambda arguments of higher-order array/map functions
	PushdownSubfieldsFromArrayLambdas bool
	// PushSubfieldsForMapFunctions enables recognition of map_subset and
	// constant-key map_filter calls as enumerable key accesses
	PushSubfieldsForMapFunctions bool
}
