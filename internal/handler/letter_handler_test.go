package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akademika-dev/letter-office-api/internal/dto"
	"github.com/akademika-dev/letter-office-api/internal/middleware"
	"github.com/akademika-dev/letter-office-api/internal/models"
	appErrors "github.com/akademika-dev/letter-office-api/pkg/errors"
)

type letterServiceMock struct {
	submitResp  *models.LetterRequest
	decideResp  *models.LetterRequest
	decideErr   error
	forwardErr  error
	forwardResp *models.LetterRequest
	lastDecide  dto.DecideLetterRequest
}

func (m *letterServiceMock) Submit(ctx context.Context, req dto.SubmitLetterRequest, actor *models.JWTClaims) (*models.LetterRequest, error) {
	return m.submitResp, nil
}

func (m *letterServiceMock) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.LetterRequest, error) {
	return m.submitResp, nil
}

func (m *letterServiceMock) List(ctx context.Context, query dto.LetterQuery, actor *models.JWTClaims) ([]models.LetterRequest, error) {
	return nil, nil
}

func (m *letterServiceMock) History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.LetterHistoryEntry, error) {
	return nil, nil
}

func (m *letterServiceMock) Forward(ctx context.Context, id string, req dto.ForwardLetterRequest, actor *models.JWTClaims) (*models.LetterRequest, error) {
	if m.forwardErr != nil {
		return nil, m.forwardErr
	}
	return m.forwardResp, nil
}

func (m *letterServiceMock) Decide(ctx context.Context, id string, req dto.DecideLetterRequest, actor *models.JWTClaims) (*models.LetterRequest, error) {
	m.lastDecide = req
	if m.decideErr != nil {
		return nil, m.decideErr
	}
	return m.decideResp, nil
}

func testContext(t *testing.T, method, path string, payload interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestLetterHandlerSubmitRequiresAuth(t *testing.T) {
	handler := NewLetterHandler(&letterServiceMock{}, nil)
	c, w := testContext(t, http.MethodPost, "/letters", dto.SubmitLetterRequest{
		Category: "SKL",
		Subject:  "Surat keterangan lulus",
	})

	handler.Submit(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLetterHandlerSubmitInvalidPayload(t *testing.T) {
	handler := NewLetterHandler(&letterServiceMock{}, nil)
	c, w := testContext(t, http.MethodPost, "/letters", map[string]string{"subject": "missing category"})
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Submit(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLetterHandlerSubmit(t *testing.T) {
	mock := &letterServiceMock{submitResp: &models.LetterRequest{ID: "letter-1", Stage: models.StageInReview}}
	handler := NewLetterHandler(mock, nil)
	c, w := testContext(t, http.MethodPost, "/letters", dto.SubmitLetterRequest{
		Category: "SKL",
		Subject:  "Surat keterangan lulus",
	})
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestLetterHandlerDecideConflictStatus(t *testing.T) {
	mock := &letterServiceMock{decideErr: appErrors.ErrConflict}
	handler := NewLetterHandler(mock, nil)
	c, w := testContext(t, http.MethodPost, "/letters/letter-1/decide", dto.DecideLetterRequest{
		ExpectedStage: models.StageUnitApproval,
		Outcome:       models.OutcomeApprove,
	})
	c.Params = gin.Params{{Key: "id", Value: "letter-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "head-1", Role: models.RoleUnitHead})

	handler.Decide(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestLetterHandlerDecideHeaderIdempotencyKey(t *testing.T) {
	mock := &letterServiceMock{decideResp: &models.LetterRequest{ID: "letter-1", Stage: models.StageCompleted}}
	handler := NewLetterHandler(mock, nil)
	c, w := testContext(t, http.MethodPost, "/letters/letter-1/decide", dto.DecideLetterRequest{
		ExpectedStage: models.StageUnitApproval,
		Outcome:       models.OutcomeApprove,
	})
	c.Request.Header.Set("Idempotency-Key", "retry-7")
	c.Params = gin.Params{{Key: "id", Value: "letter-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "head-1", Role: models.RoleUnitHead})

	handler.Decide(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "retry-7", mock.lastDecide.IdempotencyKey)
}

func TestLetterHandlerForwardInvalidTransitionStatus(t *testing.T) {
	mock := &letterServiceMock{forwardErr: appErrors.ErrInvalidTransition}
	handler := NewLetterHandler(mock, nil)
	c, w := testContext(t, http.MethodPost, "/letters/letter-1/forward", dto.ForwardLetterRequest{
		ExpectedStage: models.StageCompleted,
	})
	c.Params = gin.Params{{Key: "id", Value: "letter-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Forward(c)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
