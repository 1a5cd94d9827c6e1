package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"social-service/internal/models"
)

var (
	ErrRequestNotFound   = errors.New("friend request not found")
	ErrRequestNotPending = errors.New("friend request is not pending")
	ErrNotReceiver       = errors.New("only the receiver may act on a friend request")
	ErrDuplicateRequest  = errors.New("an active friend request already exists for this pair")
	ErrSelfRelation      = errors.New("cannot relate a user to themselves")
)

// SocialRepository covers follow edges and the friend-request state machine.
type SocialRepository interface {
	Follow(ctx context.Context, followerID, followeeID int) (models.Follow, bool, error)
	Unfollow(ctx context.Context, followerID, followeeID int) (bool, error)
	IsFollowing(ctx context.Context, followerID, followeeID int) (bool, error)
	ListFollowers(ctx context.Context, followeeID, limit int) ([]models.Follow, error)
	ListFollowing(ctx context.Context, followerID, limit int) ([]models.Follow, error)

	SendFriendRequest(ctx context.Context, senderID, receiverID int) (models.FriendRequest, error)
	ResolveFriendRequest(ctx context.Context, requestID, receiverID int, accept bool) (models.FriendRequest, error)
	GetFriendRequest(ctx context.Context, requestID int) (models.FriendRequest, error)
	ActiveRequestForPair(ctx context.Context, userA, userB int) (models.FriendRequest, error)
	ListFriendRequests(ctx context.Context, receiverID, limit int) ([]models.FriendRequest, error)
	CountPendingRequests(ctx context.Context, receiverID int) (int, error)
}

// SocialRepo is a sqlx implementation of SocialRepository.
type SocialRepo struct {
	db *sqlx.DB
}

// NewSocialRepo constructs a SocialRepo.
func NewSocialRepo(db *sqlx.DB) *SocialRepo {
	return &SocialRepo{db: db}
}

const followColumns = `id, follower_id, followee_id, created_at`
const requestColumns = `id, sender_id, receiver_id, status, created_at, updated_at`

// Follow inserts the edge if absent. The bool reports whether a new edge
// was created; a repeated follow is a no-op, never a duplicate.
func (r *SocialRepo) Follow(ctx context.Context, followerID, followeeID int) (models.Follow, bool, error) {
	if followerID == followeeID {
		return models.Follow{}, false, ErrSelfRelation
	}
	var follow models.Follow
	err := r.db.GetContext(ctx, &follow,
		`INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2)
         ON CONFLICT (follower_id, followee_id) DO NOTHING
         RETURNING `+followColumns, followerID, followeeID)
	if errors.Is(err, sql.ErrNoRows) {
		// Edge already existed; fetch it so callers still get the row.
		err = r.db.GetContext(ctx, &follow,
			`SELECT `+followColumns+` FROM follows WHERE follower_id=$1 AND followee_id=$2`,
			followerID, followeeID)
		return follow, false, err
	}
	if err != nil {
		return models.Follow{}, false, err
	}
	return follow, true, nil
}

// Unfollow deletes the edge; reports whether one existed.
func (r *SocialRepo) Unfollow(ctx context.Context, followerID, followeeID int) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id=$1 AND followee_id=$2`, followerID, followeeID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	return count > 0, err
}

// IsFollowing checks for the edge.
func (r *SocialRepo) IsFollowing(ctx context.Context, followerID, followeeID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id=$1 AND followee_id=$2)`,
		followerID, followeeID)
	return exists, err
}

// ListFollowers returns the most recent follow edges toward the followee.
func (r *SocialRepo) ListFollowers(ctx context.Context, followeeID, limit int) ([]models.Follow, error) {
	var follows []models.Follow
	err := r.db.SelectContext(ctx, &follows,
		`SELECT `+followColumns+` FROM follows WHERE followee_id=$1
         ORDER BY created_at DESC, id DESC LIMIT $2`, followeeID, limit)
	return follows, err
}

// ListFollowing returns the most recent follow edges from the follower.
func (r *SocialRepo) ListFollowing(ctx context.Context, followerID, limit int) ([]models.Follow, error) {
	var follows []models.Follow
	err := r.db.SelectContext(ctx, &follows,
		`SELECT `+followColumns+` FROM follows WHERE follower_id=$1
         ORDER BY created_at DESC, id DESC LIMIT $2`, followerID, limit)
	return follows, err
}

// SendFriendRequest creates a pending request. The partial unique index
// on the canonical pair (excluding rejected rows) turns a concurrent or
// repeated send into ErrDuplicateRequest.
func (r *SocialRepo) SendFriendRequest(ctx context.Context, senderID, receiverID int) (models.FriendRequest, error) {
	if senderID == receiverID {
		return models.FriendRequest{}, ErrSelfRelation
	}
	var req models.FriendRequest
	err := r.db.GetContext(ctx, &req,
		`INSERT INTO friend_requests (sender_id, receiver_id) VALUES ($1, $2)
         RETURNING `+requestColumns, senderID, receiverID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.FriendRequest{}, ErrDuplicateRequest
		}
		return models.FriendRequest{}, err
	}
	return req, nil
}

// ResolveFriendRequest transitions a pending request to accepted or
// rejected. Only the receiver may resolve it; the guard is in the WHERE
// clause so the read-check-update is a single statement.
func (r *SocialRepo) ResolveFriendRequest(ctx context.Context, requestID, receiverID int, accept bool) (models.FriendRequest, error) {
	status := models.FriendRequestRejected
	if accept {
		status = models.FriendRequestAccepted
	}
	var req models.FriendRequest
	err := r.db.GetContext(ctx, &req,
		`UPDATE friend_requests SET status=$3, updated_at=NOW()
         WHERE id=$1 AND receiver_id=$2 AND status='pending'
         RETURNING `+requestColumns, requestID, receiverID, status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendRequest{}, r.classifyResolveFailure(ctx, requestID, receiverID)
	}
	return req, err
}

func (r *SocialRepo) classifyResolveFailure(ctx context.Context, requestID, receiverID int) error {
	req, err := r.GetFriendRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.ReceiverID != receiverID {
		return ErrNotReceiver
	}
	return ErrRequestNotPending
}

// GetFriendRequest fetches a request by id.
func (r *SocialRepo) GetFriendRequest(ctx context.Context, requestID int) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.GetContext(ctx, &req,
		`SELECT `+requestColumns+` FROM friend_requests WHERE id=$1`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendRequest{}, ErrRequestNotFound
	}
	return req, err
}

// ActiveRequestForPair returns the single non-rejected request between
// two users, in either direction. ErrRequestNotFound means the effective
// state is none and a fresh send is allowed.
func (r *SocialRepo) ActiveRequestForPair(ctx context.Context, userA, userB int) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.GetContext(ctx, &req,
		`SELECT `+requestColumns+` FROM friend_requests
         WHERE ((sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1))
           AND status <> 'rejected'`, userA, userB)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendRequest{}, ErrRequestNotFound
	}
	return req, err
}

// ListFriendRequests returns the most recent requests toward the receiver,
// rejected history included. Callers filter by status where relevant.
func (r *SocialRepo) ListFriendRequests(ctx context.Context, receiverID, limit int) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.SelectContext(ctx, &reqs,
		`SELECT `+requestColumns+` FROM friend_requests WHERE receiver_id=$1
         ORDER BY created_at DESC, id DESC LIMIT $2`, receiverID, limit)
	return reqs, err
}

// CountPendingRequests is the unread counter for the notification feed.
func (r *SocialRepo) CountPendingRequests(ctx context.Context, receiverID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM friend_requests WHERE receiver_id=$1 AND status='pending'`, receiverID)
	return count, err
}
