package familyStatus

import "varsearch/api/models/constants"

const (
	Loaded    constants.FamilyStatus = "loaded"
	NotLoaded constants.FamilyStatus = "not_loaded"
)
