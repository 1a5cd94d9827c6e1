package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"social-service/internal/auth"
	"social-service/internal/mocks"
	"social-service/internal/models"
	"social-service/internal/repositories"
)

func setupAuthHandlerRouter(profiles *mocks.ProfileRepositoryMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	handler := NewAuthHandler(profiles, tokens, zap.NewNop())
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	return r
}

func TestRegisterSuccess(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	router := setupAuthHandlerRouter(profiles)

	profiles.On("CreateProfile", mock.Anything, "alice", "alice@example.com", mock.AnythingOfType("string"), "Alice", "Smith").
		Return(models.Profile{ID: 1, Username: "alice", Role: models.RoleUser}, nil).Once()

	body := `{"username":"alice","email":"alice@example.com","password":"password123","first_name":"Alice","last_name":"Smith"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)
	profiles.AssertExpectations(t)
}

func TestRegisterUsernameTaken(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	router := setupAuthHandlerRouter(profiles)

	profiles.On("CreateProfile", mock.Anything, "alice", "alice@example.com", mock.AnythingOfType("string"), "", "").
		Return(models.Profile{}, repositories.ErrUsernameTaken).Once()

	body := `{"username":"alice","email":"alice@example.com","password":"password123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterShortPasswordRejected(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	router := setupAuthHandlerRouter(profiles)

	body := `{"username":"alice","email":"alice@example.com","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	profiles.AssertNotCalled(t, "CreateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginSuccess(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	router := setupAuthHandlerRouter(profiles)

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	profiles.On("GetProfileByEmail", mock.Anything, "alice@example.com").
		Return(models.Profile{ID: 1, Username: "alice", PasswordHash: hash, Role: models.RoleUser}, nil).Once()

	body := `{"email":"alice@example.com","password":"password123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	router := setupAuthHandlerRouter(profiles)

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	profiles.On("GetProfileByEmail", mock.Anything, "alice@example.com").
		Return(models.Profile{ID: 1, PasswordHash: hash}, nil).Once()

	body := `{"email":"alice@example.com","password":"not-the-password"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginBlockedAccount(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	router := setupAuthHandlerRouter(profiles)

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	profiles.On("GetProfileByEmail", mock.Anything, "alice@example.com").
		Return(models.Profile{ID: 1, PasswordHash: hash, Blocked: true}, nil).Once()

	body := `{"email":"alice@example.com","password":"password123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
