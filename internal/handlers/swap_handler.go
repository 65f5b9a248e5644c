package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/skillswap-project/server-beta/internal/managers"
	"github.com/skillswap-project/server-beta/internal/schemas"
	"github.com/skillswap-project/server-beta/internal/utils"
)

// SwapHdl defines the interface for handling swap-related HTTP requests.
type SwapHdl interface {
	CreateSwap(c *gin.Context)
	ListSwaps(c *gin.Context)
	AcceptSwap(c *gin.Context)
	RejectSwap(c *gin.Context)
	CompleteSwap(c *gin.Context)
}

// SwapHandler provides methods to handle swap-related HTTP requests. All
// status transitions run as a transactional read-modify-write with the swap
// row locked, so two racing transitions cannot both succeed.
type SwapHandler struct {
	DatabaseManager managers.DatabaseMgr
}

// NewSwapHandler returns a new SwapHandler with the provided managers.
func NewSwapHandler(databaseManager *managers.DatabaseMgr) SwapHdl {
	return &SwapHandler{
		DatabaseManager: *databaseManager,
	}
}

// CreateSwap validates and stores a new swap proposal. The requester is bound
// to the caller, both referenced skills must exist, be approved, and belong to
// the party offering them.
func (handler *SwapHandler) CreateSwap(ctx *gin.Context) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer utils.RollbackTransaction(ctx, tx)

	createSwapRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.CreateSwapRequest)
	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	requesterId := claims["sub"].(string)

	if requesterId == createSwapRequest.ReceiverId {
		utils.WriteAndLogError(ctx, schemas.SelfSwap, http.StatusBadRequest,
			errors.New("requester and receiver are the same user"))
		return
	}

	// The receiver must exist before we look at the skills.
	var receiverName string
	queryString := "SELECT name FROM swap_schema.users WHERE user_id = $1"
	if err = tx.QueryRow(ctx, queryString, createSwapRequest.ReceiverId).Scan(&receiverName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = checkOfferedSkill(ctx, tx, createSwapRequest.RequesterSkillId, requesterId); err != nil {
		return
	}
	if err = checkOfferedSkill(ctx, tx, createSwapRequest.ReceiverSkillId, createSwapRequest.ReceiverId); err != nil {
		return
	}

	slots := createSwapRequest.ProposedTimeSlots
	if slots == nil {
		slots = []schemas.TimeSlot{}
	}
	slotsJson, err := json.Marshal(slots)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	swapId := uuid.New()
	createdAt := time.Now()

	queryString = `INSERT INTO swap_schema.swaps
				   (swap_id, requester_id, receiver_id, requester_skill_id, receiver_skill_id, status, proposed_time_slots, created_at)
				   VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err = tx.Exec(ctx, queryString, swapId, requesterId, createSwapRequest.ReceiverId,
		createSwapRequest.RequesterSkillId, createSwapRequest.ReceiverSkillId, schemas.SwapStatusPending,
		slotsJson, createdAt); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	swapDto := &schemas.SwapDTO{
		SwapId:            swapId.String(),
		RequesterId:       requesterId,
		ReceiverId:        createSwapRequest.ReceiverId,
		RequesterSkillId:  createSwapRequest.RequesterSkillId,
		ReceiverSkillId:   createSwapRequest.ReceiverSkillId,
		Status:            schemas.SwapStatusPending,
		ProposedTimeSlots: slots,
		CreatedAt:         createdAt.Format(time.RFC3339),
	}

	utils.WriteAndLogResponse(ctx, swapDto, http.StatusCreated)
}

// checkOfferedSkill verifies that the skill exists, belongs to the given owner
// and has passed moderation. It writes the error response itself.
func checkOfferedSkill(ctx *gin.Context, tx pgx.Tx, skillId, expectedOwner string) error {
	var ownerId string
	var status schemas.SkillStatus

	queryString := "SELECT user_id, status FROM swap_schema.skills WHERE skill_id = $1"
	if err := tx.QueryRow(ctx, queryString, skillId).Scan(&ownerId, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.SkillNotFound, http.StatusNotFound, err)
			return err
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return err
	}

	if ownerId != expectedOwner {
		err := fmt.Errorf("skill %s does not belong to user %s", skillId, expectedOwner)
		utils.WriteAndLogError(ctx, schemas.SkillOwnerMismatch, http.StatusForbidden, err)
		return err
	}

	if status != schemas.SkillStatusApproved {
		err := fmt.Errorf("skill %s has moderation status %s", skillId, status)
		utils.WriteAndLogError(ctx, schemas.SkillNotApproved, http.StatusBadRequest, err)
		return err
	}

	return nil
}

// ListSwaps returns the swaps the caller takes part in, newest first.
func (handler *SwapHandler) ListSwaps(ctx *gin.Context) {
	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	userId := claims["sub"].(string)
	offset, limit := utils.ParsePaginationParams(ctx)

	pool := handler.DatabaseManager.GetPool()

	var totalRecords int
	countQuery := "SELECT COUNT(*) FROM swap_schema.swaps WHERE requester_id = $1 OR receiver_id = $1"
	if err := pool.QueryRow(ctx, countQuery, userId).Scan(&totalRecords); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString := `SELECT swap_id, requester_id, receiver_id, requester_skill_id, receiver_skill_id, status, proposed_time_slots, actual_time, created_at
					FROM swap_schema.swaps WHERE requester_id = $1 OR receiver_id = $1
					ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := pool.Query(ctx, queryString, userId, limit, offset)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	swaps := make([]schemas.SwapDTO, 0)
	for rows.Next() {
		swapDto, err := scanSwap(rows)
		if err != nil {
			utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		swaps = append(swaps, *swapDto)
	}

	utils.SendPaginatedResponse(ctx, swaps, offset, limit, totalRecords)
}

// AcceptSwap transitions a pending swap to accepted. Only the receiver may accept.
func (handler *SwapHandler) AcceptSwap(ctx *gin.Context) {
	handler.transitionSwap(ctx, schemas.SwapStatusAccepted, receiverOnly)
}

// RejectSwap transitions a pending swap to rejected. Only the receiver may reject.
func (handler *SwapHandler) RejectSwap(ctx *gin.Context) {
	handler.transitionSwap(ctx, schemas.SwapStatusRejected, receiverOnly)
}

// CompleteSwap transitions an accepted swap to completed and records the
// actual time. Either party may complete.
func (handler *SwapHandler) CompleteSwap(ctx *gin.Context) {
	handler.transitionSwap(ctx, schemas.SwapStatusCompleted, eitherParty)
}

type transitionPolicy int

const (
	receiverOnly transitionPolicy = iota
	eitherParty
)

// transitionSwap applies one state transition under a row lock: read the
// current status FOR UPDATE, check the caller and the transition table, then
// write. A second conflicting transition serializes on the lock and fails the
// status check.
func (handler *SwapHandler) transitionSwap(ctx *gin.Context, target schemas.SwapStatus, policy transitionPolicy) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer utils.RollbackTransaction(ctx, tx)

	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	userId := claims["sub"].(string)

	swapId := ctx.Param(utils.SwapIdParamKey)
	if _, err = uuid.Parse(swapId); err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	var requesterId, receiverId string
	var status schemas.SwapStatus
	queryString := "SELECT requester_id, receiver_id, status FROM swap_schema.swaps WHERE swap_id = $1 FOR UPDATE"
	if err = tx.QueryRow(ctx, queryString, swapId).Scan(&requesterId, &receiverId, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.SwapNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	switch policy {
	case receiverOnly:
		if userId != receiverId {
			err = errors.New("caller is not the receiver of the swap")
			utils.WriteAndLogError(ctx, schemas.NotSwapReceiver, http.StatusForbidden, err)
			return
		}
	case eitherParty:
		if userId != requesterId && userId != receiverId {
			err = errors.New("caller is not a party of the swap")
			utils.WriteAndLogError(ctx, schemas.NotSwapParty, http.StatusForbidden, err)
			return
		}
	}

	if !status.CanTransitionTo(target) {
		err = fmt.Errorf("illegal transition from %s to %s", status, target)
		utils.WriteAndLogError(ctx, schemas.InvalidSwapTransition, http.StatusConflict, err)
		return
	}

	if target == schemas.SwapStatusCompleted {
		actualTime := time.Now()
		queryString = "UPDATE swap_schema.swaps SET status = $1, actual_time = $2 WHERE swap_id = $3"
		_, err = tx.Exec(ctx, queryString, target, actualTime, swapId)
	} else {
		queryString = "UPDATE swap_schema.swaps SET status = $1 WHERE swap_id = $2"
		_, err = tx.Exec(ctx, queryString, target, swapId)
	}
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	messageDto := &schemas.MessageDTO{
		Message: fmt.Sprintf("Swap %s", target),
	}

	utils.WriteAndLogResponse(ctx, messageDto, http.StatusOK)
}

// scanSwap reads one swap row into a DTO, decoding the jsonb time slots.
func scanSwap(row pgx.Row) (*schemas.SwapDTO, error) {
	var swapId, requesterId, receiverId, requesterSkillId, receiverSkillId uuid.UUID
	var slotsJson []byte
	var actualTime *time.Time
	var createdAt time.Time
	swapDto := &schemas.SwapDTO{}

	if err := row.Scan(&swapId, &requesterId, &receiverId, &requesterSkillId, &receiverSkillId,
		&swapDto.Status, &slotsJson, &actualTime, &createdAt); err != nil {
		return nil, err
	}

	slots := make([]schemas.TimeSlot, 0)
	if len(slotsJson) > 0 {
		if err := json.Unmarshal(slotsJson, &slots); err != nil {
			return nil, err
		}
	}

	swapDto.SwapId = swapId.String()
	swapDto.RequesterId = requesterId.String()
	swapDto.ReceiverId = receiverId.String()
	swapDto.RequesterSkillId = requesterSkillId.String()
	swapDto.ReceiverSkillId = receiverSkillId.String()
	swapDto.ProposedTimeSlots = slots
	swapDto.CreatedAt = createdAt.Format(time.RFC3339)
	if actualTime != nil {
		swapDto.ActualTime = actualTime.Format(time.RFC3339)
	}

	return swapDto, nil
}
