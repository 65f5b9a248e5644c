// Package handlers implements the handlers for the different routes of the server to handle the incoming HTTP requests.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/skillswap-project/server-beta/internal/managers"
	"github.com/skillswap-project/server-beta/internal/schemas"
	"github.com/skillswap-project/server-beta/internal/utils"
)

// SkillHdl defines the interface for handling skill-related HTTP requests.
type SkillHdl interface {
	CreateSkill(c *gin.Context)
	GetSkill(c *gin.Context)
	ListSkills(c *gin.Context)
	UpdateSkill(c *gin.Context)
	DeleteSkill(c *gin.Context)
}

// SkillHandler provides methods to handle skill-related HTTP requests.
type SkillHandler struct {
	DatabaseManager managers.DatabaseMgr
}

var errTransaction = errors.New("error beginning transaction")

// NewSkillHandler returns a new SkillHandler with the provided managers.
func NewSkillHandler(databaseManager *managers.DatabaseMgr) SkillHdl {
	return &SkillHandler{
		DatabaseManager: *databaseManager,
	}
}

// CreateSkill inserts a new skill owned by the caller. New skills always start
// in the pending moderation state regardless of the request payload.
func (handler *SkillHandler) CreateSkill(ctx *gin.Context) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer utils.RollbackTransaction(ctx, tx)

	createSkillRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.CreateSkillRequest)
	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	userId := claims["sub"].(string)

	skillId := uuid.New()
	createdAt := time.Now()

	queryString := `INSERT INTO swap_schema.skills
					(skill_id, user_id, name, description, category, level, skill_type, status, created_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err = tx.Exec(ctx, queryString, skillId, userId, createSkillRequest.Name, createSkillRequest.Description,
		createSkillRequest.Category, createSkillRequest.Level, createSkillRequest.SkillType,
		schemas.SkillStatusPending, createdAt); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	skillDto := &schemas.SkillDTO{
		SkillId:     skillId.String(),
		UserId:      userId,
		Name:        createSkillRequest.Name,
		Description: createSkillRequest.Description,
		Category:    createSkillRequest.Category,
		Level:       createSkillRequest.Level,
		SkillType:   schemas.SkillType(createSkillRequest.SkillType),
		Status:      schemas.SkillStatusPending,
		CreatedAt:   createdAt.Format(time.RFC3339),
	}

	utils.WriteAndLogResponse(ctx, skillDto, http.StatusCreated)
}

// GetSkill returns a single skill by id. The route is public.
func (handler *SkillHandler) GetSkill(ctx *gin.Context) {
	skillId := ctx.Param(utils.SkillIdParamKey)
	if _, err := uuid.Parse(skillId); err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	queryString := `SELECT skill_id, user_id, name, description, category, level, skill_type, status, created_at
					FROM swap_schema.skills WHERE skill_id = $1`
	row := handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, skillId)

	skillDto, err := scanSkill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.SkillNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(ctx, skillDto, http.StatusOK)
}

// ListSkills returns approved skills with pagination and optional category and
// type filters. Pending and rejected skills never show up in the public listing.
func (handler *SkillHandler) ListSkills(ctx *gin.Context) {
	offset, limit := utils.ParsePaginationParams(ctx)

	conditions := []string{"status = $1"}
	queryArgs := []interface{}{schemas.SkillStatusApproved}

	if category := ctx.Query(utils.CategoryParamKey); category != "" {
		queryArgs = append(queryArgs, category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(queryArgs)))
	}

	if skillType := ctx.Query(utils.SkillTypeParamKey); skillType != "" {
		queryArgs = append(queryArgs, skillType)
		conditions = append(conditions, fmt.Sprintf("skill_type = $%d", len(queryArgs)))
	}

	whereClause := strings.Join(conditions, " AND ")
	pool := handler.DatabaseManager.GetPool()

	var totalRecords int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM swap_schema.skills WHERE %s", whereClause)
	if err := pool.QueryRow(ctx, countQuery, queryArgs...).Scan(&totalRecords); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	queryArgs = append(queryArgs, limit, offset)
	queryString := fmt.Sprintf(`SELECT skill_id, user_id, name, description, category, level, skill_type, status, created_at
								FROM swap_schema.skills WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		whereClause, len(queryArgs)-1, len(queryArgs))

	rows, err := pool.Query(ctx, queryString, queryArgs...)
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

// UpdateSkill changes the content fields of a skill. Only the owner may update
// it, and the moderation status is never touched here.
func (handler *SkillHandler) UpdateSkill(ctx *gin.Context) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer utils.RollbackTransaction(ctx, tx)

	updateSkillRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.UpdateSkillRequest)
	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	userId := claims["sub"].(string)

	skillId := ctx.Param(utils.SkillIdParamKey)
	if _, err = uuid.Parse(skillId); err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	var ownerId string
	var status schemas.SkillStatus
	var skillType schemas.SkillType
	var createdAt time.Time
	queryString := "SELECT user_id, skill_type, status, created_at FROM swap_schema.skills WHERE skill_id = $1 FOR UPDATE"
	if err = tx.QueryRow(ctx, queryString, skillId).Scan(&ownerId, &skillType, &status, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.SkillNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if ownerId != userId {
		utils.WriteAndLogError(ctx, schemas.NotSkillOwner, http.StatusForbidden,
			errors.New("user is not the owner of the skill"))
		return
	}

	queryString = `UPDATE swap_schema.skills SET name = $1, description = $2, category = $3, level = $4
				   WHERE skill_id = $5`
	if _, err = tx.Exec(ctx, queryString, updateSkillRequest.Name, updateSkillRequest.Description,
		updateSkillRequest.Category, updateSkillRequest.Level, skillId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	skillDto := &schemas.SkillDTO{
		SkillId:     skillId,
		UserId:      ownerId,
		Name:        updateSkillRequest.Name,
		Description: updateSkillRequest.Description,
		Category:    updateSkillRequest.Category,
		Level:       updateSkillRequest.Level,
		SkillType:   skillType,
		Status:      status,
		CreatedAt:   createdAt.Format(time.RFC3339),
	}

	utils.WriteAndLogResponse(ctx, skillDto, http.StatusOK)
}

// DeleteSkill removes a skill owned by the caller. Swaps referencing the skill
// are removed by the database cascade, so listings never return a swap whose
// skill is gone.
func (handler *SkillHandler) DeleteSkill(ctx *gin.Context) {
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer utils.RollbackTransaction(ctx, tx)

	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	userId := claims["sub"].(string)

	skillId := ctx.Param(utils.SkillIdParamKey)
	if _, err = uuid.Parse(skillId); err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	var ownerId string
	queryString := "SELECT user_id FROM swap_schema.skills WHERE skill_id = $1 FOR UPDATE"
	if err = tx.QueryRow(ctx, queryString, skillId).Scan(&ownerId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.SkillNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if ownerId != userId {
		utils.WriteAndLogError(ctx, schemas.NotSkillOwner, http.StatusForbidden,
			errors.New("user is not the owner of the skill"))
		return
	}

	queryString = "DELETE FROM swap_schema.skills WHERE skill_id = $1"
	if _, err = tx.Exec(ctx, queryString, skillId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	ctx.Status(http.StatusNoContent)
}

// scanSkill reads one skill row into a DTO.
func scanSkill(row pgx.Row) (*schemas.SkillDTO, error) {
	var skillId, userId uuid.UUID
	var createdAt time.Time
	skillDto := &schemas.SkillDTO{}

	if err := row.Scan(&skillId, &userId, &skillDto.Name, &skillDto.Description, &skillDto.Category,
		&skillDto.Level, &skillDto.SkillType, &skillDto.Status, &createdAt); err != nil {
		return nil, err
	}

	skillDto.SkillId = skillId.String()
	skillDto.UserId = userId.String()
	skillDto.CreatedAt = createdAt.Format(time.RFC3339)
	return skillDto, nil
}
