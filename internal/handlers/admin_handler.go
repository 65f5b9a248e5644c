package handlers

import (
	"errors"
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

// AdminHdl defines the interface for handling moderation HTTP requests.
type AdminHdl interface {
	ListUsers(c *gin.Context)
	BanUser(c *gin.Context)
	ListPendingSkills(c *gin.Context)
	ApproveSkill(c *gin.Context)
	RejectSkill(c *gin.Context)
	BroadcastMessage(c *gin.Context)
}

// AdminHandler provides methods to handle moderation HTTP requests. Every
// route behind it requires the admin role, enforced by middleware.
type AdminHandler struct {
	DatabaseManager     managers.DatabaseMgr
	NotificationManager managers.NotificationMgr
}

// NewAdminHandler returns a new AdminHandler with the provided managers.
func NewAdminHandler(databaseManager *managers.DatabaseMgr, notificationManager *managers.NotificationMgr) AdminHdl {
	return &AdminHandler{
		DatabaseManager:     *databaseManager,
		NotificationManager: *notificationManager,
	}
}

// ListUsers returns all accounts, newest first.
func (handler *AdminHandler) ListUsers(ctx *gin.Context) {
	offset, limit := utils.ParsePaginationParams(ctx)
	pool := handler.DatabaseManager.GetPool()

	var totalRecords int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM swap_schema.users").Scan(&totalRecords); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString := `SELECT user_id, email, name, is_banned, is_admin, email_verified, created_at
					FROM swap_schema.users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := pool.Query(ctx, queryString, limit, offset)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	users := make([]schemas.AdminUserDTO, 0)
	for rows.Next() {
		var userId uuid.UUID
		var createdAt time.Time
		userDto := schemas.AdminUserDTO{}
		if err := rows.Scan(&userId, &userDto.Email, &userDto.Name, &userDto.IsBanned,
			&userDto.IsAdmin, &userDto.EmailVerified, &createdAt); err != nil {
			utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		userDto.UserId = userId.String()
		userDto.CreatedAt = createdAt.Format(time.RFC3339)
		users = append(users, userDto)
	}

	utils.SendPaginatedResponse(ctx, users, offset, limit, totalRecords)
}

// BanUser sets or clears the ban flag on an account and records the decision
// in the audit trail.
func (handler *AdminHandler) BanUser(ctx *gin.Context) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer utils.RollbackTransaction(ctx, tx)

	banRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.BanUserRequest)
	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	adminId := claims["sub"].(string)

	userId := ctx.Param(utils.UserIdParamKey)
	if _, err = uuid.Parse(userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	queryString := "UPDATE swap_schema.users SET is_banned = $1 WHERE user_id = $2"
	commandTag, err := tx.Exec(ctx, queryString, *banRequest.IsBanned, userId)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	if commandTag.RowsAffected() == 0 {
		err = errors.New("user not found")
		utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
		return
	}

	actionType := "ban"
	if !*banRequest.IsBanned {
		actionType = "unban"
	}
	actionDto, err := recordAdminAction(ctx, tx, adminId, actionType, schemas.TargetKindUser, userId, "")
	if err != nil {
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	utils.WriteAndLogResponse(ctx, actionDto, http.StatusOK)
}

// ListPendingSkills returns the moderation queue, oldest first so the queue
// drains in submission order.
func (handler *AdminHandler) ListPendingSkills(ctx *gin.Context) {
	offset, limit := utils.ParsePaginationParams(ctx)
	pool := handler.DatabaseManager.GetPool()

	var totalRecords int
	countQuery := "SELECT COUNT(*) FROM swap_schema.skills WHERE status = $1"
	if err := pool.QueryRow(ctx, countQuery, schemas.SkillStatusPending).Scan(&totalRecords); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryString := `SELECT skill_id, user_id, name, description, category, level, skill_type, status, created_at
					FROM swap_schema.skills WHERE status = $1
					ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := pool.Query(ctx, queryString, schemas.SkillStatusPending, limit, offset)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	skills := make([]schemas.SkillDTO, 0)
	for rows.Next() {
		skillDto, err := scanSkill(rows)
		if err != nil {
			utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		skills = append(skills, *skillDto)
	}

	utils.SendPaginatedResponse(ctx, skills, offset, limit, totalRecords)
}

// ApproveSkill moves a pending skill into the public catalog.
func (handler *AdminHandler) ApproveSkill(ctx *gin.Context) {
	handler.moderateSkill(ctx, schemas.SkillStatusApproved, "approve", "")
}

// RejectSkill declines a pending skill with a reason for the audit trail.
func (handler *AdminHandler) RejectSkill(ctx *gin.Context) {
	rejectRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.RejectSkillRequest)
	handler.moderateSkill(ctx, schemas.SkillStatusRejected, "reject", rejectRequest.Reason)
}

// moderateSkill applies a moderation decision to a pending skill under a row
// lock and appends the audit record in the same transaction.
func (handler *AdminHandler) moderateSkill(ctx *gin.Context, target schemas.SkillStatus, actionType, reason string) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer utils.RollbackTransaction(ctx, tx)

	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	adminId := claims["sub"].(string)

	skillId := ctx.Param(utils.SkillIdParamKey)
	if _, err = uuid.Parse(skillId); err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	var status schemas.SkillStatus
	queryString := "SELECT status FROM swap_schema.skills WHERE skill_id = $1 FOR UPDATE"
	if err = tx.QueryRow(ctx, queryString, skillId).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.SkillNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if status != schemas.SkillStatusPending {
		err = errors.New("skill has already been moderated")
		utils.WriteAndLogError(ctx, schemas.SkillNotPending, http.StatusConflict, err)
		return
	}

	queryString = "UPDATE swap_schema.skills SET status = $1 WHERE skill_id = $2"
	if _, err = tx.Exec(ctx, queryString, target, skillId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	actionDto, err := recordAdminAction(ctx, tx, adminId, actionType, schemas.TargetKindSkill, skillId, reason)
	if err != nil {
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	utils.WriteAndLogResponse(ctx, actionDto, http.StatusOK)
}

// BroadcastMessage notifies every registered user. Individual delivery
// failures are logged and skipped, the response reports how many went out.
func (handler *AdminHandler) BroadcastMessage(ctx *gin.Context) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer utils.RollbackTransaction(ctx, tx)

	broadcastRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.BroadcastRequest)
	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	adminId := claims["sub"].(string)

	queryString := "SELECT email, name FROM swap_schema.users WHERE is_banned = false"
	rows, err := tx.Query(ctx, queryString)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	type recipient struct {
		email string
		name  string
	}
	recipients := make([]recipient, 0)
	for rows.Next() {
		var r recipient
		if err = rows.Scan(&r.email, &r.name); err != nil {
			rows.Close()
			utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}
		recipients = append(recipients, r)
	}
	rows.Close()

	if _, err = recordAdminAction(ctx, tx, adminId, "broadcast", schemas.TargetKindUser, adminId, broadcastRequest.Message); err != nil {
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	delivered := 0
	for _, r := range recipients {
		if notifyErr := handler.NotificationManager.Notify(ctx, r.email, r.name, broadcastRequest.Message); notifyErr != nil {
			utils.LogMessageWithFieldsAndError(ctx, "warn", "Broadcast delivery failed for "+r.email, notifyErr)
			continue
		}
		delivered++
	}

	resultDto := &schemas.BroadcastResultDTO{
		Message:   broadcastRequest.Message,
		Delivered: delivered,
	}

	utils.WriteAndLogResponse(ctx, resultDto, http.StatusOK)
}

// recordAdminAction appends one audit row and returns its DTO, writing the
// error response on failure.
func recordAdminAction(ctx *gin.Context, tx pgx.Tx, adminId, actionType string,
	targetKind schemas.TargetKind, targetId, reason string) (*schemas.AdminActionDTO, error) {
	actionId := uuid.New()

	queryString := `INSERT INTO swap_schema.admin_actions (action_id, admin_id, action_type, target_kind, target_id, reason, created_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.Exec(ctx, queryString, actionId, adminId, actionType, targetKind, targetId, reason, time.Now()); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return nil, err
	}

	return &schemas.AdminActionDTO{
		ActionId:   actionId,
		AdminId:    adminId,
		ActionType: actionType,
		TargetKind: targetKind,
		TargetId:   targetId,
		Reason:     reason,
	}, nil
}
