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

	"social-service/internal/directory"
	"social-service/internal/mocks"
	"social-service/internal/models"
	"social-service/internal/repositories"
)

func setupConversationRouter(handler *ConversationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/conversations", handler.ListConversations)
	r.POST("/conversations/start", handler.StartConversation)
	r.GET("/conversations/:conversation_id/messages", handler.GetMessages)
	r.POST("/conversations/:conversation_id/messages", handler.SendMessage)
	r.POST("/conversations/:conversation_id/read", handler.MarkRead)
	return r
}

func newConversationHandler(convRepo *mocks.ConversationRepositoryMock, msgRepo *mocks.MessageRepositoryMock, profileRepo *mocks.ProfileRepositoryMock, publisher *mocks.ChangePublisherMock) *ConversationHandler {
	dir := directory.New(profileRepo, zap.NewNop())
	return NewConversationHandler(convRepo, msgRepo, dir, publisher, zap.NewNop())
}

func TestListConversationsSuccess(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := newConversationHandler(convRepo, new(mocks.MessageRepositoryMock), profileRepo, new(mocks.ChangePublisherMock))
	router := setupConversationRouter(handler)

	last := models.Message{ID: 9, ConversationID: 3, SenderID: 2, Content: "hey", CreatedAt: time.Now()}
	convRepo.On("ListConversations", mock.Anything, 1).Return([]repositories.ConversationEntry{
		{Conversation: models.Conversation{ID: 3, UserLow: 1, UserHigh: 2}, LastMessage: &last, UnreadCount: 1},
	}, nil).Once()
	profileRepo.On("BulkProfiles", mock.Anything, []int{2}).Return([]models.Profile{{ID: 2, Username: "bob"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Conversations []models.ConversationSummary `json:"conversations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Conversations, 1)
	assert.Equal(t, "bob", resp.Conversations[0].Peer.Username)
	assert.Equal(t, 1, resp.Conversations[0].UnreadCount)
	convRepo.AssertExpectations(t)
	profileRepo.AssertExpectations(t)
}

func TestListConversationsPeerProfileMissing(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := newConversationHandler(convRepo, new(mocks.MessageRepositoryMock), profileRepo, new(mocks.ChangePublisherMock))
	router := setupConversationRouter(handler)

	convRepo.On("ListConversations", mock.Anything, 1).Return([]repositories.ConversationEntry{
		{Conversation: models.Conversation{ID: 3, UserLow: 1, UserHigh: 7}},
	}, nil).Once()
	profileRepo.On("BulkProfiles", mock.Anything, []int{7}).Return(([]models.Profile)(nil), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Conversations []models.ConversationSummary `json:"conversations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Conversations, 1)
	assert.Equal(t, "Unknown", resp.Conversations[0].Peer.FirstName)
	assert.Equal(t, "User", resp.Conversations[0].Peer.LastName)
}

func TestStartConversationSuccess(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := newConversationHandler(convRepo, new(mocks.MessageRepositoryMock), new(mocks.ProfileRepositoryMock), new(mocks.ChangePublisherMock))
	router := setupConversationRouter(handler)

	convRepo.On("StartConversation", mock.Anything, 1, 2).Return(models.Conversation{ID: 10, UserLow: 1, UserHigh: 2}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/start", bytes.NewBufferString(`{"peer_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	convRepo.AssertExpectations(t)
}

func TestStartConversationWithSelf(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := newConversationHandler(convRepo, new(mocks.MessageRepositoryMock), new(mocks.ProfileRepositoryMock), new(mocks.ChangePublisherMock))
	router := setupConversationRouter(handler)

	convRepo.On("StartConversation", mock.Anything, 1, 1).Return(models.Conversation{}, repositories.ErrSelfConversation).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/start", bytes.NewBufferString(`{"peer_id":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMessagesOrdering(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := newConversationHandler(convRepo, msgRepo, profileRepo, new(mocks.ChangePublisherMock))
	router := setupConversationRouter(handler)

	base := time.Now()
	convRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	msgRepo.On("ListMessages", mock.Anything, 5).Return([]models.Message{
		{ID: 1, ConversationID: 5, SenderID: 1, Content: "a", CreatedAt: base},
		{ID: 2, ConversationID: 5, SenderID: 2, Content: "b", CreatedAt: base.Add(time.Second)},
	}, nil).Once()
	profileRepo.On("BulkProfiles", mock.Anything, []int{1, 2}).Return([]models.Profile{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations/5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []struct {
			models.Message
			Sender models.Identity `json:"sender"`
		} `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Messages, 2)
	for i := 1; i < len(resp.Messages); i++ {
		assert.False(t, resp.Messages[i].CreatedAt.Before(resp.Messages[i-1].CreatedAt))
	}
	assert.Equal(t, "alice", resp.Messages[0].Sender.Username)
}

func TestGetMessagesNotParticipant(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := newConversationHandler(convRepo, new(mocks.MessageRepositoryMock), new(mocks.ProfileRepositoryMock), new(mocks.ChangePublisherMock))
	router := setupConversationRouter(handler)

	convRepo.On("IsParticipant", mock.Anything, 5, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations/5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSendMessagePublishesChange(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	publisher := new(mocks.ChangePublisherMock)
	handler := newConversationHandler(convRepo, msgRepo, new(mocks.ProfileRepositoryMock), publisher)
	router := setupConversationRouter(handler)

	msg := models.Message{ID: 7, ConversationID: 5, SenderID: 1, Content: "hello"}
	convRepo.On("GetConversation", mock.Anything, 5).Return(models.Conversation{ID: 5, UserLow: 1, UserHigh: 2}, nil).Once()
	msgRepo.On("CreateMessage", mock.Anything, 5, 1, "hello").Return(msg, nil).Once()
	convRepo.On("TouchConversation", mock.Anything, 5).Return(nil).Once()
	publisher.On("PublishChange", mock.Anything, mock.MatchedBy(func(e models.ChangeEvent) bool {
		return e.Table == models.TableMessages && e.Type == models.EventInsert && e.Scope == 5
	})).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/5/messages", bytes.NewBufferString(`{"content":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	convRepo.AssertExpectations(t)
	msgRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestSendMessageWhitespaceRejected(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	publisher := new(mocks.ChangePublisherMock)
	handler := newConversationHandler(convRepo, msgRepo, new(mocks.ProfileRepositoryMock), publisher)
	router := setupConversationRouter(handler)

	convRepo.On("GetConversation", mock.Anything, 5).Return(models.Conversation{ID: 5, UserLow: 1, UserHigh: 2}, nil).Once()
	msgRepo.On("CreateMessage", mock.Anything, 5, 1, "   ").Return(models.Message{}, repositories.ErrEmptyMessage).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/5/messages", bytes.NewBufferString(`{"content":"   "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	publisher.AssertNotCalled(t, "PublishChange", mock.Anything, mock.Anything)
}

func TestSendMessageNotParticipant(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	handler := newConversationHandler(convRepo, new(mocks.MessageRepositoryMock), new(mocks.ProfileRepositoryMock), new(mocks.ChangePublisherMock))
	router := setupConversationRouter(handler)

	convRepo.On("GetConversation", mock.Anything, 5).Return(models.Conversation{ID: 5, UserLow: 2, UserHigh: 3}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/5/messages", bytes.NewBufferString(`{"content":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMarkReadSuccess(t *testing.T) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	handler := newConversationHandler(convRepo, msgRepo, new(mocks.ProfileRepositoryMock), new(mocks.ChangePublisherMock))
	router := setupConversationRouter(handler)

	convRepo.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	msgRepo.On("MarkRead", mock.Anything, 5, 1).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/5/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	msgRepo.AssertExpectations(t)
}
