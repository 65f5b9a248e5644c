package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/skillswap-project/server-beta/internal/managers"
	"github.com/skillswap-project/server-beta/internal/schemas"
	"github.com/skillswap-project/server-beta/internal/utils"
)

// RatingHdl defines the interface for handling rating-related HTTP requests.
type RatingHdl interface {
	CreateRating(c *gin.Context)
	GetRating(c *gin.Context)
	UpdateRating(c *gin.Context)
	DeleteRating(c *gin.Context)
	ListRatingsForUser(c *gin.Context)
}

// RatingHandler provides methods to handle rating-related HTTP requests.
type RatingHandler struct {
	DatabaseManager managers.DatabaseMgr
}

// NewRatingHandler returns a new RatingHandler with the provided managers.
func NewRatingHandler(databaseManager *managers.DatabaseMgr) RatingHdl {
	return &RatingHandler{
		DatabaseManager: *databaseManager,
	}
}

// CreateRating stores post-swap feedback. The referenced swap must be
// completed, the caller and the rated user must be its two parties, and each
// party can rate a swap at most once.
func (handler *RatingHandler) CreateRating(ctx *gin.Context) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer utils.RollbackTransaction(ctx, tx)

	createRatingRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.CreateRatingRequest)
	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	raterId := claims["sub"].(string)

	var requesterId, receiverId string
	var status schemas.SwapStatus
	queryString := "SELECT requester_id, receiver_id, status FROM swap_schema.swaps WHERE swap_id = $1"
	if err = tx.QueryRow(ctx, queryString, createRatingRequest.SwapId).Scan(&requesterId, &receiverId, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.SwapNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if status != schemas.SwapStatusCompleted {
		err = errors.New("swap is not completed")
		utils.WriteAndLogError(ctx, schemas.SwapNotCompleted, http.StatusConflict, err)
		return
	}

	// Rater and rated must be exactly the two parties of the swap.
	ratedId := createRatingRequest.RatedId
	validPair := (raterId == requesterId && ratedId == receiverId) ||
		(raterId == receiverId && ratedId == requesterId)
	if !validPair {
		err = errors.New("rater and rated are not the parties of the swap")
		utils.WriteAndLogError(ctx, schemas.NotRatingParties, http.StatusForbidden, err)
		return
	}

	ratingId := uuid.New()
	createdAt := time.Now()

	queryString = `INSERT INTO swap_schema.ratings (rating_id, swap_id, rater_id, rated_id, score, comment, created_at)
				   VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err = tx.Exec(ctx, queryString, ratingId, createRatingRequest.SwapId, raterId, ratedId,
		createRatingRequest.Score, createRatingRequest.Comment, createdAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			utils.WriteAndLogError(ctx, schemas.RatingAlreadyExists, http.StatusConflict, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	ratingDto := &schemas.RatingDTO{
		RatingId:  ratingId.String(),
		SwapId:    createRatingRequest.SwapId,
		RaterId:   raterId,
		RatedId:   ratedId,
		Score:     createRatingRequest.Score,
		Comment:   createRatingRequest.Comment,
		CreatedAt: createdAt.Format(time.RFC3339),
	}

	utils.WriteAndLogResponse(ctx, ratingDto, http.StatusCreated)
}

// GetRating returns a single rating by id.
func (handler *RatingHandler) GetRating(ctx *gin.Context) {
	ratingId := ctx.Param(utils.RatingIdParamKey)
	if _, err := uuid.Parse(ratingId); err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	queryString := `SELECT rating_id, swap_id, rater_id, rated_id, score, comment, created_at
					FROM swap_schema.ratings WHERE rating_id = $1`
	row := handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, ratingId)

	ratingDto, err := scanRating(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.RatingNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(ctx, ratingDto, http.StatusOK)
}

// UpdateRating lets the author revise score and comment of their own rating.
func (handler *RatingHandler) UpdateRating(ctx *gin.Context) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer utils.RollbackTransaction(ctx, tx)

	updateRatingRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.UpdateRatingRequest)
	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	userId := claims["sub"].(string)

	ratingId := ctx.Param(utils.RatingIdParamKey)
	if _, err = uuid.Parse(ratingId); err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	raterId, err := lockRating(ctx, tx, ratingId)
	if err != nil {
		return
	}

	if raterId != userId {
		err = errors.New("user is not the author of the rating")
		utils.WriteAndLogError(ctx, schemas.Forbidden, http.StatusForbidden, err)
		return
	}

	queryString := "UPDATE swap_schema.ratings SET score = $1, comment = $2 WHERE rating_id = $3"
	if _, err = tx.Exec(ctx, queryString, updateRatingRequest.Score, updateRatingRequest.Comment, ratingId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	utils.WriteAndLogResponse(ctx, &schemas.MessageDTO{Message: "Rating updated"}, http.StatusOK)
}

// DeleteRating removes the caller's own rating.
func (handler *RatingHandler) DeleteRating(ctx *gin.Context) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer utils.RollbackTransaction(ctx, tx)

	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	userId := claims["sub"].(string)

	ratingId := ctx.Param(utils.RatingIdParamKey)
	if _, err = uuid.Parse(ratingId); err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	raterId, err := lockRating(ctx, tx, ratingId)
	if err != nil {
		return
	}

	if raterId != userId {
		err = errors.New("user is not the author of the rating")
		utils.WriteAndLogError(ctx, schemas.Forbidden, http.StatusForbidden, err)
		return
	}

	queryString := "DELETE FROM swap_schema.ratings WHERE rating_id = $1"
	if _, err = tx.Exec(ctx, queryString, ratingId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	ctx.Status(http.StatusNoContent)
}

// ListRatingsForUser returns the ratings a user has received, newest first.
func (handler *RatingHandler) ListRatingsForUser(ctx *gin.Context) {
	userId := ctx.Param(utils.UserIdParamKey)
	if _, err := uuid.Parse(userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	offset, limit := utils.ParsePaginationParams(ctx)
	pool := handler.DatabaseManager.GetPool()

	var totalRecords int
	countQuery := "SELECT COUNT(*) FROM swap_schema.ratings WHERE rated_id = $1"
	if err := pool.QueryRow(ctx, countQuery, userId).Scan(&totalRecords); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString := `SELECT rating_id, swap_id, rater_id, rated_id, score, comment, created_at
					FROM swap_schema.ratings WHERE rated_id = $1
					ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := pool.Query(ctx, queryString, userId, limit, offset)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	ratings := make([]schemas.RatingDTO, 0)
	for rows.Next() {
		ratingDto, err := scanRating(rows)
		if err != nil {
			utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		ratings = append(ratings, *ratingDto)
	}

	utils.SendPaginatedResponse(ctx, ratings, offset, limit, totalRecords)
}

// lockRating fetches the rating author under a row lock, writing the error
// response on failure.
func lockRating(ctx *gin.Context, tx pgx.Tx, ratingId string) (string, error) {
	var raterId string
	queryString := "SELECT rater_id FROM swap_schema.ratings WHERE rating_id = $1 FOR UPDATE"
	if err := tx.QueryRow(ctx, queryString, ratingId).Scan(&raterId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.RatingNotFound, http.StatusNotFound, err)
			return "", err
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return "", err
	}

	return raterId, nil
}

// scanRating reads one rating row into a DTO.
func scanRating(row pgx.Row) (*schemas.RatingDTO, error) {
	var ratingId, swapId, raterId, ratedId uuid.UUID
	var createdAt time.Time
	ratingDto := &schemas.RatingDTO{}

	if err := row.Scan(&ratingId, &swapId, &raterId, &ratedId, &ratingDto.Score, &ratingDto.Comment, &createdAt); err != nil {
		return nil, err
	}

	ratingDto.RatingId = ratingId.String()
	ratingDto.SwapId = swapId.String()
	ratingDto.RaterId = raterId.String()
	ratingDto.RatedId = ratedId.String()
	ratingDto.CreatedAt = createdAt.Format(time.RFC3339)
	return ratingDto, nil
}
