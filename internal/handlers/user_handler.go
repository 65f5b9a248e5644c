package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/skillswap-project/server-beta/internal/managers"
	"github.com/skillswap-project/server-beta/internal/schemas"
	"github.com/skillswap-project/server-beta/internal/utils"
)

// UserHdl defines the interface for handling user-related HTTP requests.
type UserHdl interface {
	RegisterUser(c *gin.Context)
	VerifyEmail(c *gin.Context)
	LoginUser(c *gin.Context)
	RefreshToken(c *gin.Context)
	GetProfile(c *gin.Context)
	UploadProfilePicture(c *gin.Context)
	GetProfilePicture(c *gin.Context)
}

// UserHandler provides methods to handle user-related HTTP requests.
type UserHandler struct {
	DatabaseManager managers.DatabaseMgr
	JWTManager      managers.JWTMgr
	MailManager     managers.MailMgr
	StorageManager  managers.StorageMgr
}

// NewUserHandler returns a new UserHandler with the provided managers.
func NewUserHandler(databaseManager *managers.DatabaseMgr, jwtManager *managers.JWTMgr,
	mailManager *managers.MailMgr, storageManager *managers.StorageMgr) UserHdl {
	return &UserHandler{
		DatabaseManager: *databaseManager,
		JWTManager:      *jwtManager,
		MailManager:     *mailManager,
		StorageManager:  *storageManager,
	}
}

const (
	otpValidity       = 10 * time.Minute
	presignedURLValid = 15 * time.Minute
)

// RegisterUser creates a new account and mails a one-time verification code.
// The account cannot log in until the email address is verified.
func (handler *UserHandler) RegisterUser(ctx *gin.Context) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer utils.RollbackTransaction(ctx, tx)

	registrationRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.RegistrationRequest)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registrationRequest.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	availability := registrationRequest.Availability
	if availability == nil {
		availability = []schemas.TimeSlot{}
	}
	availabilityJson, err := json.Marshal(availability)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	userId := uuid.New()
	otp := generateOtp()
	otpExpiresAt := time.Now().Add(otpValidity)
	createdAt := time.Now()

	queryString := `INSERT INTO swap_schema.users
					(user_id, email, password, name, location, bio, availability, is_public,
					 is_banned, is_admin, email_verified, verification_token, verification_token_expires, created_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, false, false, $9, $10, $11)`
	if _, err = tx.Exec(ctx, queryString, userId, registrationRequest.Email, hashedPassword,
		registrationRequest.Name, registrationRequest.Location, registrationRequest.Bio,
		availabilityJson, registrationRequest.IsPublic, otp, otpExpiresAt, createdAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			utils.WriteAndLogError(ctx, schemas.EmailTaken, http.StatusConflict, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	// The account exists either way, a lost mail is resolved by re-requesting the code.
	if err = handler.MailManager.SendVerificationMail(registrationRequest.Email, registrationRequest.Name, otp); err != nil {
		utils.LogMessageWithFieldsAndError(ctx, "warn", "Error sending verification mail", err)
	}

	userDto := &schemas.UserDTO{
		UserId: userId.String(),
		Email:  registrationRequest.Email,
		Name:   registrationRequest.Name,
	}

	utils.WriteAndLogResponse(ctx, userDto, http.StatusCreated)
}

// VerifyEmail checks the one-time code and marks the account as verified.
func (handler *UserHandler) VerifyEmail(ctx *gin.Context) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer utils.RollbackTransaction(ctx, tx)

	verificationRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.VerificationRequest)

	var userId uuid.UUID
	var name, verificationToken string
	var tokenExpiresAt time.Time
	var emailVerified bool
	queryString := `SELECT user_id, name, email_verified, verification_token, verification_token_expires
					FROM swap_schema.users WHERE email = $1`
	if err = tx.QueryRow(ctx, queryString, verificationRequest.Email).
		Scan(&userId, &name, &emailVerified, &verificationToken, &tokenExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if emailVerified {
		utils.WriteAndLogResponse(ctx, &schemas.MessageDTO{Message: "Email already verified"}, http.StatusOK)
		return
	}

	if verificationToken != verificationRequest.Otp || time.Now().After(tokenExpiresAt) {
		err = errors.New("verification code invalid or expired")
		utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusBadRequest, err)
		return
	}

	queryString = `UPDATE swap_schema.users
				   SET email_verified = true, verification_token = '', verification_token_expires = $1
				   WHERE user_id = $2`
	if _, err = tx.Exec(ctx, queryString, time.Now(), userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	if err = handler.MailManager.SendWelcomeMail(verificationRequest.Email, name); err != nil {
		utils.LogMessageWithFieldsAndError(ctx, "warn", "Error sending welcome mail", err)
	}

	utils.WriteAndLogResponse(ctx, &schemas.MessageDTO{Message: "Email verified"}, http.StatusOK)
}

// LoginUser authenticates by email and password and issues a token pair.
// Banned and unverified accounts are rejected before the tokens are minted.
func (handler *UserHandler) LoginUser(ctx *gin.Context) {
	loginRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.LoginRequest)

	var userId uuid.UUID
	var hashedPassword []byte
	var emailVerified, isBanned, isAdmin bool
	queryString := `SELECT user_id, password, email_verified, is_banned, is_admin
					FROM swap_schema.users WHERE email = $1`
	err := handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, loginRequest.Email).
		Scan(&userId, &hashedPassword, &emailVerified, &isBanned, &isAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.InvalidCredentials, http.StatusUnauthorized, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = bcrypt.CompareHashAndPassword(hashedPassword, []byte(loginRequest.Password)); err != nil {
		utils.WriteAndLogError(ctx, schemas.InvalidCredentials, http.StatusUnauthorized, err)
		return
	}

	if isBanned {
		utils.WriteAndLogError(ctx, schemas.UserBanned, http.StatusForbidden, errors.New("account is banned"))
		return
	}

	if !emailVerified {
		utils.WriteAndLogError(ctx, schemas.EmailNotVerified, http.StatusForbidden, errors.New("email not verified"))
		return
	}

	tokenPair, err := handler.generateTokenPair(userId.String(), loginRequest.Email, isAdmin)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(ctx, tokenPair, http.StatusOK)
}

// RefreshToken exchanges a valid refresh token for a fresh token pair.
func (handler *UserHandler) RefreshToken(ctx *gin.Context) {
	refreshRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.RefreshTokenRequest)

	claims, err := handler.JWTManager.ValidateJWT(refreshRequest.RefreshToken)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.Unauthorized, http.StatusUnauthorized, err)
		return
	}

	mapClaims := claims.(jwt.MapClaims)
	if isRefresh, ok := mapClaims["refresh"].(bool); !ok || !isRefresh {
		err = errors.New("token is not a refresh token")
		utils.WriteAndLogError(ctx, schemas.Unauthorized, http.StatusUnauthorized, err)
		return
	}
	userId := mapClaims["sub"].(string)

	var email string
	var isBanned, isAdmin bool
	queryString := "SELECT email, is_banned, is_admin FROM swap_schema.users WHERE user_id = $1"
	if err = handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, userId).
		Scan(&email, &isBanned, &isAdmin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if isBanned {
		utils.WriteAndLogError(ctx, schemas.UserBanned, http.StatusForbidden, errors.New("account is banned"))
		return
	}

	tokenPair, err := handler.generateTokenPair(userId, email, isAdmin)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(ctx, tokenPair, http.StatusOK)
}

// GetProfile returns the caller's full profile including their skills, the
// ratings they received and a presigned photo URL if a photo exists.
func (handler *UserHandler) GetProfile(ctx *gin.Context) {
	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	userId := claims["sub"].(string)
	pool := handler.DatabaseManager.GetPool()

	profileDto := &schemas.UserProfileDTO{UserId: userId}
	var availabilityJson []byte
	var profilePhoto string
	queryString := `SELECT email, name, location, bio, availability, is_public, profile_photo
					FROM swap_schema.users WHERE user_id = $1`
	err := pool.QueryRow(ctx, queryString, userId).Scan(&profileDto.Email, &profileDto.Name,
		&profileDto.Location, &profileDto.Bio, &availabilityJson, &profileDto.IsPublic, &profilePhoto)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = json.Unmarshal(availabilityJson, &profileDto.Availability); err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	if profilePhoto != "" {
		url, presignErr := handler.StorageManager.PresignURL(ctx, profilePhoto, presignedURLValid)
		if presignErr != nil {
			utils.LogMessageWithFieldsAndError(ctx, "warn", "Could not presign profile photo", presignErr)
		} else {
			profileDto.ProfilePhotoUrl = url
		}
	}

	skills, err := handler.loadSkills(ctx, userId)
	if err != nil {
		return
	}
	profileDto.Skills = skills

	ratings, err := handler.loadReceivedRatings(ctx, userId)
	if err != nil {
		return
	}
	profileDto.Ratings = ratings

	utils.WriteAndLogResponse(ctx, profileDto, http.StatusOK)
}

// UploadProfilePicture stores the uploaded image in the object store and
// records its key on the user row.
func (handler *UserHandler) UploadProfilePicture(ctx *gin.Context) {
	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	userId := claims["sub"].(string)

	fileHeader, err := ctx.FormFile("picture")
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" {
		err = fmt.Errorf("unsupported content type %q", contentType)
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	extension := ".jpg"
	if contentType == "image/png" {
		extension = ".png"
	}
	key := "profile-pictures/" + userId + extension

	if err = handler.StorageManager.Upload(ctx, key, file, fileHeader.Size, contentType); err != nil {
		utils.WriteAndLogError(ctx, schemas.StorageError, http.StatusInternalServerError, err)
		return
	}

	queryString := "UPDATE swap_schema.users SET profile_photo = $1 WHERE user_id = $2"
	if _, err = handler.DatabaseManager.GetPool().Exec(ctx, queryString, key, userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	url, err := handler.StorageManager.PresignURL(ctx, key, presignedURLValid)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.StorageError, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(ctx, &schemas.ProfilePhotoDTO{ProfilePhotoUrl: url}, http.StatusOK)
}

// GetProfilePicture returns a presigned URL for another user's photo.
func (handler *UserHandler) GetProfilePicture(ctx *gin.Context) {
	userId := ctx.Param(utils.UserIdParamKey)
	if _, err := uuid.Parse(userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	var profilePhoto string
	queryString := "SELECT profile_photo FROM swap_schema.users WHERE user_id = $1"
	err := handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, userId).Scan(&profilePhoto)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if profilePhoto == "" {
		utils.WriteAndLogError(ctx, schemas.PhotoNotFound, http.StatusNotFound, errors.New("no profile photo set"))
		return
	}

	url, err := handler.StorageManager.PresignURL(ctx, profilePhoto, presignedURLValid)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.StorageError, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(ctx, &schemas.ProfilePhotoDTO{ProfilePhotoUrl: url}, http.StatusOK)
}

// loadSkills fetches all skills of a user, writing the error response on
// failure.
func (handler *UserHandler) loadSkills(ctx *gin.Context, userId string) ([]schemas.SkillDTO, error) {
	queryString := `SELECT skill_id, user_id, name, description, category, level, skill_type, status, created_at
					FROM swap_schema.skills WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := handler.DatabaseManager.GetPool().Query(ctx, queryString, userId)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return nil, err
	}
	defer rows.Close()

	skills := make([]schemas.SkillDTO, 0)
	for rows.Next() {
		skillDto, err := scanSkill(rows)
		if err != nil {
			utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
			return nil, err
		}
		skills = append(skills, *skillDto)
	}

	return skills, nil
}

// loadReceivedRatings fetches the ratings a user received, writing the error
// response on failure.
func (handler *UserHandler) loadReceivedRatings(ctx *gin.Context, userId string) ([]schemas.RatingDTO, error) {
	queryString := `SELECT rating_id, swap_id, rater_id, rated_id, score, comment, created_at
					FROM swap_schema.ratings WHERE rated_id = $1 ORDER BY created_at DESC`
	rows, err := handler.DatabaseManager.GetPool().Query(ctx, queryString, userId)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return nil, err
	}
	defer rows.Close()

	ratings := make([]schemas.RatingDTO, 0)
	for rows.Next() {
		ratingDto, err := scanRating(rows)
		if err != nil {
			utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
			return nil, err
		}
		ratings = append(ratings, *ratingDto)
	}

	return ratings, nil
}

// generateTokenPair mints an access and a refresh token for the given user.
func (handler *UserHandler) generateTokenPair(userId, email string, isAdmin bool) (*schemas.TokenPairDTO, error) {
	accessClaims := handler.JWTManager.GenerateClaims(userId, email, isAdmin)
	token, err := handler.JWTManager.GenerateJWT(accessClaims)
	if err != nil {
		return nil, err
	}

	refreshClaims := handler.JWTManager.GenerateRefreshClaims(userId)
	refreshToken, err := handler.JWTManager.GenerateJWT(refreshClaims)
	if err != nil {
		return nil, err
	}

	return &schemas.TokenPairDTO{
		Token:        token,
		RefreshToken: refreshToken,
	}, nil
}

// generateOtp returns a random 6-digit verification code.
func generateOtp() string {
	return strconv.Itoa(rand.Intn(900000) + 100000)
}
