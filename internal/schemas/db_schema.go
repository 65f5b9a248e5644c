// Package schemas defines the data structures
package schemas

import (
	"time"

	"github.com/google/uuid"
)

// SkillType distinguishes skills a user offers to teach from skills they want to learn.
type SkillType string

const (
	SkillTypeOffer   SkillType = "offer"
	SkillTypeRequest SkillType = "request"
)

// SkillStatus is the moderation state of a skill listing.
type SkillStatus string

const (
	SkillStatusPending  SkillStatus = "pending"
	SkillStatusApproved SkillStatus = "approved"
	SkillStatusRejected SkillStatus = "rejected"
)

// SwapStatus is the lifecycle state of a swap.
type SwapStatus string

const (
	SwapStatusPending   SwapStatus = "pending"
	SwapStatusAccepted  SwapStatus = "accepted"
	SwapStatusRejected  SwapStatus = "rejected"
	SwapStatusCompleted SwapStatus = "completed"
)

// CanTransitionTo reports whether a swap may move from its current status to the
// target status. The only legal moves are pending->accepted, pending->rejected
// and accepted->completed; rejected and completed are terminal.
func (s SwapStatus) CanTransitionTo(target SwapStatus) bool {
	switch s {
	case SwapStatusPending:
		return target == SwapStatusAccepted || target == SwapStatusRejected
	case SwapStatusAccepted:
		return target == SwapStatusCompleted
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s SwapStatus) IsTerminal() bool {
	return s == SwapStatusRejected || s == SwapStatusCompleted
}

// TargetKind tags the polymorphic target of an admin action.
type TargetKind string

const (
	TargetKindUser  TargetKind = "user"
	TargetKindSkill TargetKind = "skill"
)

// TimeSlot is a single proposed meeting window, e.g. {"day": "Saturday", "start": "10:00", "end": "12:00"}.
type TimeSlot struct {
	Day   string `json:"day" validate:"required"`
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// User represents the data model for a user in the system.
type User struct {
	ID                       *uuid.UUID `json:"id"`                         // Unique identifier for the user.
	Email                    string     `json:"email"`                      // Email address, unique per user.
	Password                 string     `json:"password"`                   // Password hash of the user.
	Name                     string     `json:"name"`                       // Display name of the user.
	Location                 string     `json:"location"`                   // Free-text location.
	ProfilePhoto             string     `json:"profile_photo"`              // Object storage key of the profile photo.
	Bio                      string     `json:"bio"`                        // Free-text biography.
	Availability             []TimeSlot `json:"availability"`               // Weekly availability slots.
	IsPublic                 bool       `json:"is_public"`                  // Whether the profile is publicly listed.
	IsBanned                 bool       `json:"is_banned"`                  // Whether an admin banned the user.
	IsAdmin                  bool       `json:"is_admin"`                   // Whether the user has the admin role.
	EmailVerified            bool       `json:"email_verified"`             // Whether the email was verified via OTP.
	VerificationToken        string     `json:"verification_token"`         // Pending OTP, empty once verified.
	VerificationTokenExpires *time.Time `json:"verification_token_expires"` // OTP expiry timestamp.
	CreatedAt                *time.Time `json:"created_at"`                 // Timestamp when the user was created.
}

// Skill represents a capability a user offers to teach or requests to learn.
// Status starts at pending on creation and only moderation moves it to
// approved or rejected.
type Skill struct {
	ID          *uuid.UUID  `json:"id"`
	UserID      *uuid.UUID  `json:"user_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Level       string      `json:"level"`
	SkillType   SkillType   `json:"skill_type"`
	Status      SkillStatus `json:"status"`
	CreatedAt   *time.Time  `json:"created_at"`
}

// Swap is a proposed exchange of two users' skills. The requester offers
// RequesterSkill and asks the receiver to teach ReceiverSkill in return.
type Swap struct {
	ID                *uuid.UUID `json:"id"`
	RequesterID       *uuid.UUID `json:"requester_id"`
	ReceiverID        *uuid.UUID `json:"receiver_id"`
	RequesterSkillID  *uuid.UUID `json:"requester_skill_id"`
	ReceiverSkillID   *uuid.UUID `json:"receiver_skill_id"`
	Status            SwapStatus `json:"status"`
	ProposedTimeSlots []TimeSlot `json:"proposed_time_slots"`
	ActualTime        *time.Time `json:"actual_time"`
	CreatedAt         *time.Time `json:"created_at"`
}

// Rating is post-swap feedback from one party about the other. At most one
// rating per (swap, rater) pair exists.
type Rating struct {
	ID        *uuid.UUID `json:"id"`
	SwapID    *uuid.UUID `json:"swap_id"`
	RaterID   *uuid.UUID `json:"rater_id"`
	RatedID   *uuid.UUID `json:"rated_id"`
	Score     int        `json:"score"`
	Comment   string     `json:"comment"`
	CreatedAt *time.Time `json:"created_at"`
}

// AdminAction is an append-only audit record of a moderation decision.
type AdminAction struct {
	ID         *uuid.UUID `json:"id"`
	AdminID    *uuid.UUID `json:"admin_id"`
	ActionType string     `json:"action_type"`
	TargetKind TargetKind `json:"target_kind"`
	TargetID   *uuid.UUID `json:"target_id"`
	Reason     string     `json:"reason"`
	CreatedAt  *time.Time `json:"created_at"`
}
