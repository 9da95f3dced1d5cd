package sort

import "varsearch/api/models/constants"

// Undefined falls back to Ascending when a query is compiled.
const (
	Undefined constants.SortDirection = ""
	Ascending constants.SortDirection = "asc"
)
