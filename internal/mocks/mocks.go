package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"social-service/internal/models"
	"social-service/internal/repositories"
)

type ProfileRepositoryMock struct {
	mock.Mock
}

func (m *ProfileRepositoryMock) CreateProfile(ctx context.Context, username, email, passwordHash, firstName, lastName string) (models.Profile, error) {
	args := m.Called(ctx, username, email, passwordHash, firstName, lastName)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) GetProfile(ctx context.Context, userID int) (models.Profile, error) {
	args := m.Called(ctx, userID)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) GetProfileByEmail(ctx context.Context, email string) (models.Profile, error) {
	args := m.Called(ctx, email)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) BulkProfiles(ctx context.Context, userIDs []int) ([]models.Profile, error) {
	args := m.Called(ctx, userIDs)
	var profiles []models.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]models.Profile)
	}
	return profiles, args.Error(1)
}

func (m *ProfileRepositoryMock) SearchProfiles(ctx context.Context, usernamePrefix string, limit int) ([]models.Profile, error) {
	args := m.Called(ctx, usernamePrefix, limit)
	var profiles []models.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]models.Profile)
	}
	return profiles, args.Error(1)
}

func (m *ProfileRepositoryMock) UpdateProfile(ctx context.Context, userID int, firstName, lastName string, avatarURL, bio *string) (models.Profile, error) {
	args := m.Called(ctx, userID, firstName, lastName, avatarURL, bio)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) SetRole(ctx context.Context, userID int, role string) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *ProfileRepositoryMock) SetBlocked(ctx context.Context, userID int, blocked bool) error {
	args := m.Called(ctx, userID, blocked)
	return args.Error(0)
}

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) StartConversation(ctx context.Context, userID, peerID int) (models.Conversation, error) {
	args := m.Called(ctx, userID, peerID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) GetConversation(ctx context.Context, conversationID int) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) IsParticipant(ctx context.Context, conversationID, userID int) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ConversationRepositoryMock) ListConversations(ctx context.Context, userID int) ([]repositories.ConversationEntry, error) {
	args := m.Called(ctx, userID)
	var entries []repositories.ConversationEntry
	if val := args.Get(0); val != nil {
		entries = val.([]repositories.ConversationEntry)
	}
	return entries, args.Error(1)
}

func (m *ConversationRepositoryMock) TouchConversation(ctx context.Context, conversationID int) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, conversationID, senderID int, content string) (models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, conversationID int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, conversationID, readerID int) error {
	args := m.Called(ctx, conversationID, readerID)
	return args.Error(0)
}

type SocialRepositoryMock struct {
	mock.Mock
}

func (m *SocialRepositoryMock) Follow(ctx context.Context, followerID, followeeID int) (models.Follow, bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	var follow models.Follow
	if val := args.Get(0); val != nil {
		follow = val.(models.Follow)
	}
	return follow, args.Bool(1), args.Error(2)
}

func (m *SocialRepositoryMock) Unfollow(ctx context.Context, followerID, followeeID int) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

func (m *SocialRepositoryMock) IsFollowing(ctx context.Context, followerID, followeeID int) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

func (m *SocialRepositoryMock) ListFollowers(ctx context.Context, followeeID, limit int) ([]models.Follow, error) {
	args := m.Called(ctx, followeeID, limit)
	var follows []models.Follow
	if val := args.Get(0); val != nil {
		follows = val.([]models.Follow)
	}
	return follows, args.Error(1)
}

func (m *SocialRepositoryMock) ListFollowing(ctx context.Context, followerID, limit int) ([]models.Follow, error) {
	args := m.Called(ctx, followerID, limit)
	var follows []models.Follow
	if val := args.Get(0); val != nil {
		follows = val.([]models.Follow)
	}
	return follows, args.Error(1)
}

func (m *SocialRepositoryMock) SendFriendRequest(ctx context.Context, senderID, receiverID int) (models.FriendRequest, error) {
	args := m.Called(ctx, senderID, receiverID)
	var req models.FriendRequest
	if val := args.Get(0); val != nil {
		req = val.(models.FriendRequest)
	}
	return req, args.Error(1)
}

func (m *SocialRepositoryMock) ResolveFriendRequest(ctx context.Context, requestID, receiverID int, accept bool) (models.FriendRequest, error) {
	args := m.Called(ctx, requestID, receiverID, accept)
	var req models.FriendRequest
	if val := args.Get(0); val != nil {
		req = val.(models.FriendRequest)
	}
	return req, args.Error(1)
}

func (m *SocialRepositoryMock) GetFriendRequest(ctx context.Context, requestID int) (models.FriendRequest, error) {
	args := m.Called(ctx, requestID)
	var req models.FriendRequest
	if val := args.Get(0); val != nil {
		req = val.(models.FriendRequest)
	}
	return req, args.Error(1)
}

func (m *SocialRepositoryMock) ActiveRequestForPair(ctx context.Context, userA, userB int) (models.FriendRequest, error) {
	args := m.Called(ctx, userA, userB)
	var req models.FriendRequest
	if val := args.Get(0); val != nil {
		req = val.(models.FriendRequest)
	}
	return req, args.Error(1)
}

func (m *SocialRepositoryMock) ListFriendRequests(ctx context.Context, receiverID, limit int) ([]models.FriendRequest, error) {
	args := m.Called(ctx, receiverID, limit)
	var reqs []models.FriendRequest
	if val := args.Get(0); val != nil {
		reqs = val.([]models.FriendRequest)
	}
	return reqs, args.Error(1)
}

func (m *SocialRepositoryMock) CountPendingRequests(ctx context.Context, receiverID int) (int, error) {
	args := m.Called(ctx, receiverID)
	return args.Int(0), args.Error(1)
}

type ChangePublisherMock struct {
	mock.Mock
}

func (m *ChangePublisherMock) PublishChange(ctx context.Context, event models.ChangeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type TrackerMock struct {
	mock.Mock
}

func (m *TrackerMock) Track(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *TrackerMock) Refresh(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *TrackerMock) Untrack(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *TrackerMock) Snapshot(ctx context.Context) ([]models.PresenceEntry, error) {
	args := m.Called(ctx)
	var entries []models.PresenceEntry
	if val := args.Get(0); val != nil {
		entries = val.([]models.PresenceEntry)
	}
	return entries, args.Error(1)
}
