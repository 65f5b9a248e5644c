package schemas

import "github.com/google/uuid"

// ErrorDTO is a struct that represents an error response
// Error is the custom error, see CustomError
type ErrorDTO struct {
	Error CustomError `json:"error"`
}

// MetadataDTO is a struct that represents the version metadata of the API
type MetadataDTO struct {
	ApiVersion  string `json:"apiVersion"`
	ApiName     string `json:"apiName"`
	PullRequest string `json:"pullRequest,omitempty"`
}

// UserDTO is a struct that represents a user response
type UserDTO struct {
	UserId string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// UserProfileDTO is a struct that represents the caller's full profile
type UserProfileDTO struct {
	UserId          string      `json:"userId"`
	Email           string      `json:"email"`
	Name            string      `json:"name"`
	Location        string      `json:"location"`
	Bio             string      `json:"bio"`
	Availability    []TimeSlot  `json:"availability"`
	IsPublic        bool        `json:"isPublic"`
	ProfilePhotoUrl string      `json:"profilePhotoUrl,omitempty"`
	Skills          []SkillDTO  `json:"skills"`
	Ratings         []RatingDTO `json:"ratings"`
}

// TokenPairDTO is a struct that represents a token response
// Token is the main JWT token used for auth
// RefreshToken is the refresh token used to get a new token
type TokenPairDTO struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// ProfilePhotoDTO is a struct that represents a presigned profile photo URL
type ProfilePhotoDTO struct {
	ProfilePhotoUrl string `json:"profilePhotoUrl"`
}

// SkillDTO is a struct that represents a skill response
type SkillDTO struct {
	SkillId     string      `json:"skillId"`
	UserId      string      `json:"userId"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Level       string      `json:"level"`
	SkillType   SkillType   `json:"skillType"`
	Status      SkillStatus `json:"status"`
	CreatedAt   string      `json:"createdAt"`
}

// SwapDTO is a struct that represents a swap response
type SwapDTO struct {
	SwapId            string     `json:"swapId"`
	RequesterId       string     `json:"requesterId"`
	ReceiverId        string     `json:"receiverId"`
	RequesterSkillId  string     `json:"requesterSkillId"`
	ReceiverSkillId   string     `json:"receiverSkillId"`
	Status            SwapStatus `json:"status"`
	ProposedTimeSlots []TimeSlot `json:"proposedTimeSlots"`
	ActualTime        string     `json:"actualTime,omitempty"`
	CreatedAt         string     `json:"createdAt"`
}

// RatingDTO is a struct that represents a rating response
type RatingDTO struct {
	RatingId  string `json:"ratingId"`
	SwapId    string `json:"swapId"`
	RaterId   string `json:"raterId"`
	RatedId   string `json:"ratedId"`
	Score     int    `json:"score"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"createdAt"`
}

// AdminUserDTO is a struct that represents a user row in the admin listing
type AdminUserDTO struct {
	UserId        string `json:"userId"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	IsBanned      bool   `json:"isBanned"`
	IsAdmin       bool   `json:"isAdmin"`
	EmailVerified bool   `json:"emailVerified"`
	CreatedAt     string `json:"createdAt"`
}

// AdminActionDTO is a struct that represents an audit record response
type AdminActionDTO struct {
	ActionId   uuid.UUID  `json:"actionId"`
	AdminId    string     `json:"adminId"`
	ActionType string     `json:"actionType"`
	TargetKind TargetKind `json:"targetKind"`
	TargetId   string     `json:"targetId"`
	Reason     string     `json:"reason,omitempty"`
}

// BroadcastResultDTO reports how many recipients a broadcast reached
type BroadcastResultDTO struct {
	Message   string `json:"message"`
	Delivered int    `json:"delivered"`
}

// MessageDTO is a struct that represents a plain confirmation message
type MessageDTO struct {
	Message string `json:"message"`
}

// PaginatedResponse is a struct that represents a paginated response
// Records is the records of the response
// Pagination is the pagination of the response
type PaginatedResponse struct {
	Records    interface{} `json:"records"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination is a struct that represents a pagination
// Offset is the given offset of the pagination
// Limit is the given limit of the pagination
// Records is the total records of the pagination
type Pagination struct {
	Offset  int `json:"offset"`
	Limit   int `json:"limit"`
	Records int `json:"records"`
}
