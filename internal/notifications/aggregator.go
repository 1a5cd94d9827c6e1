package notifications

import (
	"context"
	"sort"

	"social-service/internal/directory"
	"social-service/internal/models"
	"social-service/internal/repositories"
)

// DefaultLookback is how many rows of each source feed the merge.
const DefaultLookback = 25

// Aggregator synthesizes a recipient's notification feed at read time by
// merging follow edges and friend requests. Nothing is persisted; the
// client re-runs the full fetch on every change-feed event.
type Aggregator struct {
	social    repositories.SocialRepository
	directory *directory.Directory
	lookback  int
}

// NewAggregator constructs an Aggregator.
func NewAggregator(social repositories.SocialRepository, dir *directory.Directory, lookback int) *Aggregator {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Aggregator{social: social, directory: dir, lookback: lookback}
}

// Feed builds the merged feed for the recipient: both sources sorted by
// creation time descending, unread count = pending friend requests.
func (a *Aggregator) Feed(ctx context.Context, recipientID int) (models.NotificationFeed, error) {
	follows, err := a.social.ListFollowers(ctx, recipientID, a.lookback)
	if err != nil {
		return models.NotificationFeed{}, err
	}
	requests, err := a.social.ListFriendRequests(ctx, recipientID, a.lookback)
	if err != nil {
		return models.NotificationFeed{}, err
	}

	actorIDs := make([]int, 0, len(follows)+len(requests))
	for _, f := range follows {
		actorIDs = append(actorIDs, f.FollowerID)
	}
	for _, r := range requests {
		actorIDs = append(actorIDs, r.SenderID)
	}
	identities := a.directory.BulkResolve(ctx, actorIDs)

	feed := Merge(follows, requests, identities)

	unread, err := a.social.CountPendingRequests(ctx, recipientID)
	if err != nil {
		return models.NotificationFeed{}, err
	}
	feed.UnreadCount = unread
	return feed, nil
}

// Merge combines the two sources into one list sorted by creation time
// descending. Pure function, separated from Feed for testability.
func Merge(follows []models.Follow, requests []models.FriendRequest, identities map[int]models.Identity) models.NotificationFeed {
	notifications := make([]models.Notification, 0, len(follows)+len(requests))

	for _, f := range follows {
		notifications = append(notifications, models.Notification{
			Kind:      models.NotificationFollow,
			Actor:     actorOf(identities, f.FollowerID),
			CreatedAt: f.CreatedAt,
		})
	}
	for _, r := range requests {
		r := r
		notifications = append(notifications, models.Notification{
			Kind:      models.NotificationFriendRequest,
			Actor:     actorOf(identities, r.SenderID),
			RequestID: &r.ID,
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
		})
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})

	return models.NotificationFeed{Notifications: notifications}
}

func actorOf(identities map[int]models.Identity, userID int) models.Identity {
	if identity, ok := identities[userID]; ok {
		return identity
	}
	return models.FallbackIdentity(userID)
}
