package routing

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/skillswap-project/server-beta/internal/managers"
	"github.com/skillswap-project/server-beta/internal/managers/mocks"
	"github.com/skillswap-project/server-beta/internal/schemas"
)

func setupMocks(t *testing.T) (*mocks.MockDatabaseManager, managers.JWTMgr, *mocks.MockMailManager, *managers.MemoryNotificationManager) {
	poolMock, err := pgxmock.NewPool()
	if err != nil {
		log.Errorf("Error creating mock database pool: %v", err)
	}

	databaseMgrMock := &mocks.MockDatabaseManager{}
	databaseMgrMock.On("GetPool").Return(poolMock)

	t.Setenv("ENVIRONMENT", "test")
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		log.Errorf("Error generating key pair: %v", err)
	}
	jwtMgr := managers.NewJWTManager(privateKey, publicKey)

	mailMgrMock := &mocks.MockMailManager{}
	mailMgrMock.On("SendVerificationMail", mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.Anything).Return(nil)
	mailMgrMock.On("SendWelcomeMail", mock.AnythingOfType("string"), mock.AnythingOfType("string")).Return(nil)

	notificationMgr := managers.NewMemoryNotificationManager()

	return databaseMgrMock, jwtMgr, mailMgrMock, notificationMgr
}

func startTestServer(t *testing.T) (*httptest.Server, pgxmock.PgxPoolIface, managers.JWTMgr, *managers.MemoryNotificationManager) {
	databaseMgrMock, jwtMgr, mailMgrMock, notificationMgr := setupMocks(t)

	router := InitRouter(databaseMgrMock, mailMgrMock, jwtMgr, notificationMgr, managers.NewDisabledStorage())

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
	return server, poolMock, jwtMgr, notificationMgr
}

func accessToken(jwtMgr managers.JWTMgr, userId, email string, isAdmin bool) string {
	claims := jwtMgr.GenerateClaims(userId, email, isAdmin)
	token, _ := jwtMgr.GenerateJWT(claims)
	return token
}

func errorBody(customErr *schemas.CustomError) map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"code":    customErr.Code,
			"message": customErr.Message,
		},
	}
}

func TestSwapTransitions(t *testing.T) {
	requesterId := uuid.New()
	receiverId := uuid.New()
	swapId := uuid.New()

	testCases := []struct {
		name          string
		action        string
		callerId      string
		currentStatus schemas.SwapStatus
		targetStatus  schemas.SwapStatus
		status        int
		responseBody  map[string]interface{}
	}{
		{
			"AcceptByReceiver",
			"accept",
			receiverId.String(),
			schemas.SwapStatusPending,
			schemas.SwapStatusAccepted,
			http.StatusOK,
			map[string]interface{}{"message": "Swap accepted"},
		},
		{
			"RejectByReceiver",
			"reject",
			receiverId.String(),
			schemas.SwapStatusPending,
			schemas.SwapStatusRejected,
			http.StatusOK,
			map[string]interface{}{"message": "Swap rejected"},
		},
		{
			"AcceptByRequester",
			"accept",
			requesterId.String(),
			schemas.SwapStatusPending,
			schemas.SwapStatusAccepted,
			http.StatusForbidden,
			errorBody(schemas.NotSwapReceiver),
		},
		{
			"SecondAccept",
			"accept",
			receiverId.String(),
			schemas.SwapStatusAccepted,
			schemas.SwapStatusAccepted,
			http.StatusConflict,
			errorBody(schemas.InvalidSwapTransition),
		},
		{
			"RejectAfterAccept",
			"reject",
			receiverId.String(),
			schemas.SwapStatusAccepted,
			schemas.SwapStatusRejected,
			http.StatusConflict,
			errorBody(schemas.InvalidSwapTransition),
		},
		{
			"CompleteOnPending",
			"complete",
			requesterId.String(),
			schemas.SwapStatusPending,
			schemas.SwapStatusCompleted,
			http.StatusConflict,
			errorBody(schemas.InvalidSwapTransition),
		},
		{
			"CompleteByRequester",
			"complete",
			requesterId.String(),
			schemas.SwapStatusAccepted,
			schemas.SwapStatusCompleted,
			http.StatusOK,
			map[string]interface{}{"message": "Swap completed"},
		},
		{
			"CompleteByOutsider",
			"complete",
			uuid.New().String(),
			schemas.SwapStatusAccepted,
			schemas.SwapStatusCompleted,
			http.StatusForbidden,
			errorBody(schemas.NotSwapParty),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server, poolMock, jwtMgr, _ := startTestServer(t)

			poolMock.ExpectBegin()
			poolMock.ExpectQuery("SELECT requester_id, receiver_id, status FROM swap_schema.swaps").
				WithArgs(swapId.String()).
				WillReturnRows(pgxmock.NewRows([]string{"requester_id", "receiver_id", "status"}).
					AddRow(requesterId.String(), receiverId.String(), tc.currentStatus))

			if tc.status == http.StatusOK {
				if tc.targetStatus == schemas.SwapStatusCompleted {
					poolMock.ExpectExec("UPDATE swap_schema.swaps").
						WithArgs(tc.targetStatus, pgxmock.AnyArg(), swapId.String()).
						WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				} else {
					poolMock.ExpectExec("UPDATE swap_schema.swaps").
						WithArgs(tc.targetStatus, swapId.String()).
						WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				}
				poolMock.ExpectCommit()
			}
			// The deferred rollback fires on every path, releasing the row lock after a denied transition.
			poolMock.ExpectRollback()

			token := accessToken(jwtMgr, tc.callerId, "caller@example.com", false)

			expect := httpexpect.Default(t, server.URL)
			request := expect.PUT("/api/swaps/"+swapId.String()+"/"+tc.action).
				WithHeader("Authorization", "Bearer "+token)
			response := request.Expect().Status(tc.status)
			response.JSON().IsEqual(tc.responseBody)

			if err := poolMock.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

func TestSwapTransitionNotFound(t *testing.T) {
	server, poolMock, jwtMgr, _ := startTestServer(t)
	swapId := uuid.New()

	poolMock.ExpectBegin()
	poolMock.ExpectQuery("SELECT requester_id, receiver_id, status FROM swap_schema.swaps").
		WithArgs(swapId.String()).
		WillReturnRows(pgxmock.NewRows([]string{"requester_id", "receiver_id", "status"}))
	poolMock.ExpectRollback()

	token := accessToken(jwtMgr, uuid.New().String(), "caller@example.com", false)

	expect := httpexpect.Default(t, server.URL)
	request := expect.PUT("/api/swaps/" + swapId.String() + "/accept").
		WithHeader("Authorization", "Bearer "+token)
	response := request.Expect().Status(http.StatusNotFound)
	response.JSON().IsEqual(errorBody(schemas.SwapNotFound))

	if err := poolMock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCreateSwap(t *testing.T) {
	requesterId := uuid.New()
	receiverId := uuid.New()
	requesterSkillId := uuid.New()
	receiverSkillId := uuid.New()

	payload := func(receiver string) map[string]interface{} {
		return map[string]interface{}{
			"receiver_id":        receiver,
			"requester_skill_id": requesterSkillId.String(),
			"receiver_skill_id":  receiverSkillId.String(),
			"proposed_time_slots": []map[string]string{
				{"day": "Monday", "start": "18:00", "end": "19:30"},
			},
		}
	}

	t.Run("Valid", func(t *testing.T) {
		server, poolMock, jwtMgr, _ := startTestServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT name FROM swap_schema.users").
			WithArgs(receiverId.String()).
			WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("Receiver"))
		poolMock.ExpectQuery("SELECT user_id, status FROM swap_schema.skills").
			WithArgs(requesterSkillId.String()).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "status"}).
				AddRow(requesterId.String(), schemas.SkillStatusApproved))
		poolMock.ExpectQuery("SELECT user_id, status FROM swap_schema.skills").
			WithArgs(receiverSkillId.String()).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "status"}).
				AddRow(receiverId.String(), schemas.SkillStatusApproved))
		poolMock.ExpectExec("INSERT INTO swap_schema.swaps").
			WithArgs(pgxmock.AnyArg(), requesterId.String(), receiverId.String(),
				requesterSkillId.String(), receiverSkillId.String(), schemas.SwapStatusPending,
				pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		poolMock.ExpectCommit()
		poolMock.ExpectRollback()

		token := accessToken(jwtMgr, requesterId.String(), "requester@example.com", false)

		expect := httpexpect.Default(t, server.URL)
		request := expect.POST("/api/swaps").
			WithHeader("Authorization", "Bearer "+token).
			WithJSON(payload(receiverId.String()))
		response := request.Expect().Status(http.StatusCreated)
		responseObject := response.JSON().Object()
		responseObject.HasValue("status", "pending")
		responseObject.HasValue("requesterId", requesterId.String())
		responseObject.HasValue("receiverId", receiverId.String())

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("SelfSwap", func(t *testing.T) {
		server, poolMock, jwtMgr, _ := startTestServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectRollback()

		token := accessToken(jwtMgr, requesterId.String(), "requester@example.com", false)

		expect := httpexpect.Default(t, server.URL)
		request := expect.POST("/api/swaps").
			WithHeader("Authorization", "Bearer "+token).
			WithJSON(payload(requesterId.String()))
		response := request.Expect().Status(http.StatusBadRequest)
		response.JSON().IsEqual(errorBody(schemas.SelfSwap))

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("UnownedRequesterSkill", func(t *testing.T) {
		server, poolMock, jwtMgr, _ := startTestServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT name FROM swap_schema.users").
			WithArgs(receiverId.String()).
			WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("Receiver"))
		poolMock.ExpectQuery("SELECT user_id, status FROM swap_schema.skills").
			WithArgs(requesterSkillId.String()).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "status"}).
				AddRow(uuid.New().String(), schemas.SkillStatusApproved))
		poolMock.ExpectRollback()

		token := accessToken(jwtMgr, requesterId.String(), "requester@example.com", false)

		expect := httpexpect.Default(t, server.URL)
		request := expect.POST("/api/swaps").
			WithHeader("Authorization", "Bearer "+token).
			WithJSON(payload(receiverId.String()))
		response := request.Expect().Status(http.StatusForbidden)
		response.JSON().IsEqual(errorBody(schemas.SkillOwnerMismatch))

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("UnapprovedSkill", func(t *testing.T) {
		server, poolMock, jwtMgr, _ := startTestServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT name FROM swap_schema.users").
			WithArgs(receiverId.String()).
			WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("Receiver"))
		poolMock.ExpectQuery("SELECT user_id, status FROM swap_schema.skills").
			WithArgs(requesterSkillId.String()).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "status"}).
				AddRow(requesterId.String(), schemas.SkillStatusPending))
		poolMock.ExpectRollback()

		token := accessToken(jwtMgr, requesterId.String(), "requester@example.com", false)

		expect := httpexpect.Default(t, server.URL)
		request := expect.POST("/api/swaps").
			WithHeader("Authorization", "Bearer "+token).
			WithJSON(payload(receiverId.String()))
		response := request.Expect().Status(http.StatusBadRequest)
		response.JSON().IsEqual(errorBody(schemas.SkillNotApproved))

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("InvalidTimeSlot", func(t *testing.T) {
		server, poolMock, jwtMgr, _ := startTestServer(t)

		token := accessToken(jwtMgr, requesterId.String(), "requester@example.com", false)

		body := payload(receiverId.String())
		body["proposed_time_slots"] = []map[string]string{
			{"day": "Funday", "start": "18:00", "end": "19:30"},
		}

		expect := httpexpect.Default(t, server.URL)
		request := expect.POST("/api/swaps").
			WithHeader("Authorization", "Bearer "+token).
			WithJSON(body)
		response := request.Expect().Status(http.StatusBadRequest)
		response.JSON().IsEqual(errorBody(schemas.InvalidTimeSlots))

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}

func TestCreateRating(t *testing.T) {
	requesterId := uuid.New()
	receiverId := uuid.New()
	swapId := uuid.New()

	payload := func(ratedId string, score int) map[string]interface{} {
		return map[string]interface{}{
			"swap_id":  swapId.String(),
			"rated_id": ratedId,
			"score":    score,
			"comment":  "Great exchange",
		}
	}

	swapRow := func(status schemas.SwapStatus) *pgxmock.Rows {
		return pgxmock.NewRows([]string{"requester_id", "receiver_id", "status"}).
			AddRow(requesterId.String(), receiverId.String(), status)
	}

	t.Run("Valid", func(t *testing.T) {
		server, poolMock, jwtMgr, _ := startTestServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT requester_id, receiver_id, status FROM swap_schema.swaps").
			WithArgs(swapId.String()).
			WillReturnRows(swapRow(schemas.SwapStatusCompleted))
		poolMock.ExpectExec("INSERT INTO swap_schema.ratings").
			WithArgs(pgxmock.AnyArg(), swapId.String(), requesterId.String(), receiverId.String(),
				5, "Great exchange", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		poolMock.ExpectCommit()
		poolMock.ExpectRollback()

		token := accessToken(jwtMgr, requesterId.String(), "requester@example.com", false)

		expect := httpexpect.Default(t, server.URL)
		request := expect.POST("/api/ratings").
			WithHeader("Authorization", "Bearer "+token).
			WithJSON(payload(receiverId.String(), 5))
		response := request.Expect().Status(http.StatusCreated)
		responseObject := response.JSON().Object()
		responseObject.HasValue("swapId", swapId.String())
		responseObject.HasValue("score", 5)

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("SwapNotCompleted", func(t *testing.T) {
		server, poolMock, jwtMgr, _ := startTestServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT requester_id, receiver_id, status FROM swap_schema.swaps").
			WithArgs(swapId.String()).
			WillReturnRows(swapRow(schemas.SwapStatusAccepted))
		poolMock.ExpectRollback()

		token := accessToken(jwtMgr, requesterId.String(), "requester@example.com", false)

		expect := httpexpect.Default(t, server.URL)
		request := expect.POST("/api/ratings").
			WithHeader("Authorization", "Bearer "+token).
			WithJSON(payload(receiverId.String(), 4))
		response := request.Expect().Status(http.StatusConflict)
		response.JSON().IsEqual(errorBody(schemas.SwapNotCompleted))

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("RatingByOutsider", func(t *testing.T) {
		server, poolMock, jwtMgr, _ := startTestServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT requester_id, receiver_id, status FROM swap_schema.swaps").
			WithArgs(swapId.String()).
			WillReturnRows(swapRow(schemas.SwapStatusCompleted))
		poolMock.ExpectRollback()

		token := accessToken(jwtMgr, uuid.New().String(), "outsider@example.com", false)

		expect := httpexpect.Default(t, server.URL)
		request := expect.POST("/api/ratings").
			WithHeader("Authorization", "Bearer "+token).
			WithJSON(payload(receiverId.String(), 4))
		response := request.Expect().Status(http.StatusForbidden)
		response.JSON().IsEqual(errorBody(schemas.NotRatingParties))

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("DuplicateRating", func(t *testing.T) {
		server, poolMock, jwtMgr, _ := startTestServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT requester_id, receiver_id, status FROM swap_schema.swaps").
			WithArgs(swapId.String()).
			WillReturnRows(swapRow(schemas.SwapStatusCompleted))
		poolMock.ExpectExec("INSERT INTO swap_schema.ratings").
			WithArgs(pgxmock.AnyArg(), swapId.String(), requesterId.String(), receiverId.String(),
				4, "Great exchange", pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
		poolMock.ExpectRollback()

		token := accessToken(jwtMgr, requesterId.String(), "requester@example.com", false)

		expect := httpexpect.Default(t, server.URL)
		request := expect.POST("/api/ratings").
			WithHeader("Authorization", "Bearer "+token).
			WithJSON(payload(receiverId.String(), 4))
		response := request.Expect().Status(http.StatusConflict)
		response.JSON().IsEqual(errorBody(schemas.RatingAlreadyExists))

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("ScoreOutOfRange", func(t *testing.T) {
		server, poolMock, jwtMgr, _ := startTestServer(t)

		token := accessToken(jwtMgr, requesterId.String(), "requester@example.com", false)

		expect := httpexpect.Default(t, server.URL)
		request := expect.POST("/api/ratings").
			WithHeader("Authorization", "Bearer "+token).
			WithJSON(payload(receiverId.String(), 6))
		response := request.Expect().Status(http.StatusBadRequest)
		response.JSON().IsEqual(errorBody(schemas.BadRequest))

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}

func TestUpdateSkillByNonOwner(t *testing.T) {
	server, poolMock, jwtMgr, _ := startTestServer(t)
	skillId := uuid.New()
	ownerId := uuid.New()

	poolMock.ExpectBegin()
	poolMock.ExpectQuery("SELECT user_id, skill_type, status, created_at FROM swap_schema.skills").
		WithArgs(skillId.String()).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "skill_type", "status", "created_at"}).
			AddRow(ownerId.String(), schemas.SkillTypeOffer, schemas.SkillStatusApproved, time.Now()))
	poolMock.ExpectRollback()

	token := accessToken(jwtMgr, uuid.New().String(), "other@example.com", false)

	expect := httpexpect.Default(t, server.URL)
	request := expect.PUT("/api/skills/"+skillId.String()).
		WithHeader("Authorization", "Bearer "+token).
		WithJSON(map[string]string{
			"name":        "Guitar lessons",
			"description": "Acoustic guitar for beginners",
			"category":    "Music",
			"level":       "beginner",
		})
	response := request.Expect().Status(http.StatusForbidden)
	response.JSON().IsEqual(errorBody(schemas.NotSkillOwner))

	if err := poolMock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestSkillModeration(t *testing.T) {
	adminId := uuid.New()
	skillId := uuid.New()

	t.Run("ApproveAsNonAdmin", func(t *testing.T) {
		server, poolMock, jwtMgr, _ := startTestServer(t)

		token := accessToken(jwtMgr, uuid.New().String(), "user@example.com", false)

		expect := httpexpect.Default(t, server.URL)
		request := expect.PUT("/api/admin/skills/"+skillId.String()+"/approve").
			WithHeader("Authorization", "Bearer "+token)
		response := request.Expect().Status(http.StatusForbidden)
		response.JSON().IsEqual(errorBody(schemas.AdminRoleRequired))

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("ApprovePendingSkill", func(t *testing.T) {
		server, poolMock, jwtMgr, _ := startTestServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT status FROM swap_schema.skills").
			WithArgs(skillId.String()).
			WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(schemas.SkillStatusPending))
		poolMock.ExpectExec("UPDATE swap_schema.skills").
			WithArgs(schemas.SkillStatusApproved, skillId.String()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		poolMock.ExpectExec("INSERT INTO swap_schema.admin_actions").
			WithArgs(pgxmock.AnyArg(), adminId.String(), "approve", schemas.TargetKindSkill,
				skillId.String(), "", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		poolMock.ExpectCommit()
		poolMock.ExpectRollback()

		token := accessToken(jwtMgr, adminId.String(), "admin@example.com", true)

		expect := httpexpect.Default(t, server.URL)
		request := expect.PUT("/api/admin/skills/"+skillId.String()+"/approve").
			WithHeader("Authorization", "Bearer "+token)
		response := request.Expect().Status(http.StatusOK)
		responseObject := response.JSON().Object()
		responseObject.HasValue("actionType", "approve")
		responseObject.HasValue("targetKind", "skill")
		responseObject.HasValue("targetId", skillId.String())

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("ApproveAlreadyModerated", func(t *testing.T) {
		server, poolMock, jwtMgr, _ := startTestServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT status FROM swap_schema.skills").
			WithArgs(skillId.String()).
			WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(schemas.SkillStatusApproved))
		poolMock.ExpectRollback()

		token := accessToken(jwtMgr, adminId.String(), "admin@example.com", true)

		expect := httpexpect.Default(t, server.URL)
		request := expect.PUT("/api/admin/skills/"+skillId.String()+"/approve").
			WithHeader("Authorization", "Bearer "+token)
		response := request.Expect().Status(http.StatusConflict)
		response.JSON().IsEqual(errorBody(schemas.SkillNotPending))

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("RejectWithReason", func(t *testing.T) {
		server, poolMock, jwtMgr, _ := startTestServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT status FROM swap_schema.skills").
			WithArgs(skillId.String()).
			WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(schemas.SkillStatusPending))
		poolMock.ExpectExec("UPDATE swap_schema.skills").
			WithArgs(schemas.SkillStatusRejected, skillId.String()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		poolMock.ExpectExec("INSERT INTO swap_schema.admin_actions").
			WithArgs(pgxmock.AnyArg(), adminId.String(), "reject", schemas.TargetKindSkill,
				skillId.String(), "Spam listing", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		poolMock.ExpectCommit()
		poolMock.ExpectRollback()

		token := accessToken(jwtMgr, adminId.String(), "admin@example.com", true)

		expect := httpexpect.Default(t, server.URL)
		request := expect.PUT("/api/admin/skills/"+skillId.String()+"/reject").
			WithHeader("Authorization", "Bearer "+token).
			WithJSON(map[string]string{"reason": "Spam listing"})
		response := request.Expect().Status(http.StatusOK)
		responseObject := response.JSON().Object()
		responseObject.HasValue("actionType", "reject")
		responseObject.HasValue("reason", "Spam listing")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}

func TestBroadcastMessage(t *testing.T) {
	server, poolMock, jwtMgr, notificationMgr := startTestServer(t)
	adminId := uuid.New()

	poolMock.ExpectBegin()
	poolMock.ExpectQuery("SELECT email, name FROM swap_schema.users").
		WillReturnRows(pgxmock.NewRows([]string{"email", "name"}).
			AddRow("alice@example.com", "Alice").
			AddRow("bob@example.com", "Bob"))
	poolMock.ExpectExec("INSERT INTO swap_schema.admin_actions").
		WithArgs(pgxmock.AnyArg(), adminId.String(), "broadcast", schemas.TargetKindUser,
			adminId.String(), "Maintenance window tonight", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	poolMock.ExpectCommit()
	poolMock.ExpectRollback()

	token := accessToken(jwtMgr, adminId.String(), "admin@example.com", true)

	expect := httpexpect.Default(t, server.URL)
	request := expect.POST("/api/admin/messages/broadcast").
		WithHeader("Authorization", "Bearer "+token).
		WithJSON(map[string]string{"message": "Maintenance window tonight"})
	response := request.Expect().Status(http.StatusOK)
	response.JSON().IsEqual(map[string]interface{}{
		"message":   "Maintenance window tonight",
		"delivered": 2,
	})

	if len(notificationMgr.Deliveries()) != 2 {
		t.Errorf("expected 2 deliveries, got %d", len(notificationMgr.Deliveries()))
	}

	if err := poolMock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestRegisterUserMailFailure(t *testing.T) {
	databaseMgrMock, jwtMgr, _, notificationMgr := setupMocks(t)

	mailMgrMock := &mocks.MockMailManager{}
	mailMgrMock.On("SendVerificationMail", mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.Anything).
		Return(errors.New("mail provider unavailable"))

	router := InitRouter(databaseMgrMock, mailMgrMock, jwtMgr, notificationMgr, managers.NewDisabledStorage())
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// The account is committed before the mail goes out, a failed send must not fail the request.
	poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
	poolMock.ExpectBegin()
	poolMock.ExpectExec("INSERT INTO swap_schema.users").
		WithArgs(pgxmock.AnyArg(), "carol@example.com", pgxmock.AnyArg(), "Carol", "", "",
			pgxmock.AnyArg(), false, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	poolMock.ExpectCommit()
	poolMock.ExpectRollback()

	expect := httpexpect.Default(t, server.URL)
	request := expect.POST("/api/users").
		WithJSON(map[string]interface{}{
			"email":    "carol@example.com",
			"password": "test.Password123",
			"name":     "Carol",
		})
	response := request.Expect().Status(http.StatusCreated)
	response.JSON().Object().HasValue("email", "carol@example.com")

	mailMgrMock.AssertCalled(t, "SendVerificationMail", "carol@example.com", "Carol", mock.Anything)

	if err := poolMock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestSwapRoutesUnauthorized(t *testing.T) {
	server, _, _, _ := startTestServer(t)

	expect := httpexpect.Default(t, server.URL)
	request := expect.GET("/api/swaps").WithHeader("Authorization", "Bearer "+"NonsenseToken")
	response := request.Expect().Status(http.StatusUnauthorized)
	response.JSON().IsEqual(errorBody(schemas.Unauthorized))
}
