package schemas

// RegistrationRequest is a struct that represents a registration request
// Email is required and must be a valid email
// Password is required and must be at least 8 characters
// Name is required and must be less than 255 characters
// Availability is optional and must consist of valid weekly time slots
type RegistrationRequest struct {
	Email        string     `json:"email" validate:"required,email"`
	Password     string     `json:"password" validate:"required,min=8,password_validation"`
	Name         string     `json:"name" validate:"required,max=255"`
	Location     string     `json:"location" validate:"max=255"`
	Bio          string     `json:"bio" validate:"max=1024"`
	Availability []TimeSlot `json:"availability" validate:"omitempty,time_slot_validation"`
	IsPublic     bool       `json:"is_public"`
}

// VerificationRequest is a struct that represents an email verification request
// Otp is required and must be a 6-digit number
type VerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
	Otp   string `json:"otp" validate:"required,numeric,len=6"`
}

// LoginRequest is a struct that represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RefreshTokenRequest is a struct that represents a RefreshToken request
// RefreshToken is required and must be a valid refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// CreateSkillRequest is a struct that represents a create skill request
// SkillType must be either offer or request; all text fields are required
type CreateSkillRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=1024"`
	Category    string `json:"category" validate:"required,max=100"`
	Level       string `json:"level" validate:"required,max=50"`
	SkillType   string `json:"skill_type" validate:"required,oneof=offer request"`
}

// UpdateSkillRequest is a struct that represents a skill update request.
// Only content fields can change, never the moderation status.
type UpdateSkillRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=1024"`
	Category    string `json:"category" validate:"required,max=100"`
	Level       string `json:"level" validate:"required,max=50"`
}

// CreateSwapRequest is a struct that represents a swap proposal
// RequesterSkillId must belong to the caller and ReceiverSkillId to the receiver
type CreateSwapRequest struct {
	ReceiverId        string     `json:"receiver_id" validate:"required,uuid"`
	RequesterSkillId  string     `json:"requester_skill_id" validate:"required,uuid"`
	ReceiverSkillId   string     `json:"receiver_skill_id" validate:"required,uuid"`
	ProposedTimeSlots []TimeSlot `json:"proposed_time_slots" validate:"omitempty,time_slot_validation"`
}

// CreateRatingRequest is a struct that represents a rating submission
// Score must be between 1 and 5 inclusive
type CreateRatingRequest struct {
	SwapId  string `json:"swap_id" validate:"required,uuid"`
	RatedId string `json:"rated_id" validate:"required,uuid"`
	Score   int    `json:"score" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1024"`
}

// UpdateRatingRequest is a struct that represents a rating update by its author
type UpdateRatingRequest struct {
	Score   int    `json:"score" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1024"`
}

// BanUserRequest is a struct that represents an admin ban/unban request
type BanUserRequest struct {
	IsBanned *bool `json:"is_banned" validate:"required"`
}

// RejectSkillRequest is a struct that represents an admin skill rejection
// Reason is required so the audit trail stays meaningful
type RejectSkillRequest struct {
	Reason string `json:"reason" validate:"required,max=1024"`
}

// BroadcastRequest is a struct that represents an admin broadcast message
type BroadcastRequest struct {
	Message string `json:"message" validate:"required,max=2048"`
}
