package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"social-service/internal/directory"
	"social-service/internal/mocks"
	"social-service/internal/models"
	"social-service/internal/repositories"
)

func setupProfileRouter(profiles *mocks.ProfileRepositoryMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewProfileHandler(profiles, directory.New(profiles, zap.NewNop()))
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/users", handler.BulkUsers)
	r.GET("/users/search", handler.SearchUsers)
	r.GET("/users/:user_id", handler.GetUser)
	r.GET("/me", handler.Me)
	return r
}

func TestGetUserMissingProfileFallsBack(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	router := setupProfileRouter(profiles)

	profiles.On("GetProfile", mock.Anything, 404).Return(models.Profile{}, repositories.ErrProfileNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/users/404", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var identity models.Identity
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&identity))
	assert.Equal(t, 404, identity.UserID)
	assert.Equal(t, "Unknown", identity.FirstName)
	assert.Equal(t, "User", identity.LastName)
}

func TestBulkUsersInvalidIDList(t *testing.T) {
	router := setupProfileRouter(new(mocks.ProfileRepositoryMock))

	req := httptest.NewRequest(http.MethodGet, "/users?ids=1,abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchUsersEmptyQueryShortCircuits(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	router := setupProfileRouter(profiles)

	req := httptest.NewRequest(http.MethodGet, "/users/search?q=", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	profiles.AssertNotCalled(t, "SearchProfiles", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchUsersByPrefix(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	router := setupProfileRouter(profiles)

	profiles.On("SearchProfiles", mock.Anything, "ali", searchLimit).Return([]models.Profile{
		{ID: 1, Username: "alice"},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/users/search?q=ali", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	profiles.AssertExpectations(t)
}

func TestMeReturnsOwnProfile(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	router := setupProfileRouter(profiles)

	profiles.On("GetProfile", mock.Anything, 1).Return(models.Profile{ID: 1, Username: "alice"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var profile models.Profile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&profile))
	assert.Equal(t, "alice", profile.Username)
}
