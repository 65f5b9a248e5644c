package schemas

// CustomError is a machine-readable error code paired with a human-readable
// message. Every error response carries exactly one of the variables below.
type CustomError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	// 400 Bad Request
	BadRequest       = &CustomError{"ERR-001", "The request body is invalid. Please check the request body and try again."}
	InvalidTimeSlots = &CustomError{"ERR-002", "The proposed time slots are invalid. Each slot needs a weekday name and HH:MM times with start before end."}
	SelfSwap         = &CustomError{"ERR-003", "You cannot propose a swap with yourself."}
	SkillNotApproved = &CustomError{"ERR-004", "The referenced skill has not been approved yet."}
	InvalidToken     = &CustomError{"ERR-005", "The verification code is invalid or has expired."}

	// 401 Unauthorized
	Unauthorized       = &CustomError{"ERR-010", "The request is unauthorized. Please login to your account."}
	InvalidCredentials = &CustomError{"ERR-011", "The email or password is incorrect."}

	// 403 Forbidden
	Forbidden            = &CustomError{"ERR-020", "You are not allowed to perform this action."}
	NotSkillOwner        = &CustomError{"ERR-021", "You can only modify your own skills."}
	SkillOwnerMismatch   = &CustomError{"ERR-022", "Each offered skill must belong to the party offering it."}
	NotSwapReceiver      = &CustomError{"ERR-023", "Only the receiver of a swap can accept or reject it."}
	NotSwapParty         = &CustomError{"ERR-024", "Only the two parties of a swap can perform this action."}
	NotRatingParties     = &CustomError{"ERR-025", "Ratings can only be exchanged between the two parties of the swap."}
	AdminRoleRequired    = &CustomError{"ERR-026", "This action requires the admin role."}
	EmailNotVerified     = &CustomError{"ERR-027", "The email address has not been verified yet."}
	UserBanned           = &CustomError{"ERR-028", "This account has been banned."}

	// 404 Not Found
	UserNotFound   = &CustomError{"ERR-030", "The user was not found."}
	SkillNotFound  = &CustomError{"ERR-031", "The skill was not found."}
	SwapNotFound   = &CustomError{"ERR-032", "The swap was not found."}
	RatingNotFound = &CustomError{"ERR-033", "The rating was not found."}
	PhotoNotFound  = &CustomError{"ERR-034", "The user has no profile photo."}

	// 409 Conflict
	EmailTaken            = &CustomError{"ERR-040", "The email is already taken. Please try another email."}
	InvalidSwapTransition = &CustomError{"ERR-041", "The swap is not in a state that allows this transition."}
	SwapNotCompleted      = &CustomError{"ERR-042", "Ratings can only be submitted for completed swaps."}
	RatingAlreadyExists   = &CustomError{"ERR-043", "You have already rated this swap."}
	SkillNotPending       = &CustomError{"ERR-044", "Only pending skills can be moderated."}

	// 500 Internal Server Error
	DatabaseError       = &CustomError{"ERR-097", "A database error occurred. Please try again later."}
	StorageError        = &CustomError{"ERR-098", "The file storage is currently unavailable. Please try again later."}
	InternalServerError = &CustomError{"ERR-099", "An internal error occurred. Please try again later."}
)
