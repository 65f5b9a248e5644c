package utils

const (
	// UserIdParamKey is the key for user ID used in routing parameters.
	UserIdParamKey = "userId"

	// SkillIdParamKey is the key for skill ID used in routing parameters.
	SkillIdParamKey = "skillId"

	// SwapIdParamKey is the key for swap ID used in routing parameters.
	SwapIdParamKey = "swapId"

	// RatingIdParamKey is the key for rating ID used in routing parameters.
	RatingIdParamKey = "ratingId"

	// OffsetParamKey is the key for offset used in pagination query parameters.
	OffsetParamKey = "offset"

	// LimitParamKey is the key for limit used in pagination query parameters.
	LimitParamKey = "limit"

	// CategoryParamKey is the key for the category filter in skill listings.
	CategoryParamKey = "category"

	// SkillTypeParamKey is the key for the type filter in skill listings.
	SkillTypeParamKey = "type"
)
