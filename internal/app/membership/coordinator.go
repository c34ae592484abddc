// Package membership coordinates the writes that span more than one
// collection: joining and leaving communities, cascade deletes of
// communities and accounts, and the event point payout. Membership is
// denormalized on both sides (community members list, user joined list)
// and this package is the only writer allowed to touch both.
package membership

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	communitystore "github.com/aktivio/aktivio-server/internal/app/store/communities"
	eventstore "github.com/aktivio/aktivio-server/internal/app/store/events"
	poststore "github.com/aktivio/aktivio-server/internal/app/store/posts"
	userstore "github.com/aktivio/aktivio-server/internal/app/store/users"
	"github.com/aktivio/aktivio-server/internal/app/system/apperr"
	"github.com/aktivio/aktivio-server/internal/app/system/search"
	"github.com/aktivio/aktivio-server/internal/app/system/txn"
)

type Coordinator struct {
	db          *mongo.Database
	users       *userstore.Store
	communities *communitystore.Store
	posts       *poststore.Store
	events      *eventstore.Store
	index       search.Index
	log         *zap.Logger
}

func New(db *mongo.Database, users *userstore.Store, communities *communitystore.Store, posts *poststore.Store, events *eventstore.Store, index search.Index, log *zap.Logger) *Coordinator {
	return &Coordinator{
		db:          db,
		users:       users,
		communities: communities,
		posts:       posts,
		events:      events,
		index:       index,
		log:         log,
	}
}

// Join adds the user to a community on both sides of the denormalized
// membership. The two writes run autocommit: each is an idempotent set
// operation, so a crash between them is healed by retrying the join.
func (c *Coordinator) Join(ctx context.Context, userID string, communityID primitive.ObjectID) error {
	if err := c.communities.AddMember(ctx, communityID, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFoundf("community", communityID.Hex())
		}
		return err
	}
	if err := c.users.JoinCommunity(ctx, userID, communityID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFoundf("user", userID)
		}
		return err
	}
	return nil
}

// Leave removes the user from both sides of the membership and prunes
// them from every event of that community, atomically.
func (c *Coordinator) Leave(ctx context.Context, userID string, communityID primitive.ObjectID) error {
	err := txn.Run(ctx, c.db, c.log, func(ctx context.Context) error {
		if err := c.communities.RemoveMember(ctx, communityID, userID); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return apperr.NotFoundf("community", communityID.Hex())
			}
			return err
		}
		if err := c.users.LeaveCommunity(ctx, userID, communityID); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return apperr.NotFoundf("user", userID)
			}
			return err
		}
		_, err := c.events.RemoveParticipantFromCommunity(ctx, userID, communityID)
		return err
	})
	return c.wrapTxnErr(err)
}

// IsMember reports whether the user belongs to the community, reading
// the community-side member list.
func (c *Coordinator) IsMember(ctx context.Context, userID string, communityID primitive.ObjectID) (bool, error) {
	return c.communities.HasMember(ctx, communityID, userID)
}

// DeleteCommunity removes a community and everything that hangs off it:
// its posts, its events, and its entry in every member's joined list.
// The collection writes commit atomically; the search index removal runs
// after commit and is only logged on failure, since the sweep that
// rebuilds the index will converge it.
func (c *Coordinator) DeleteCommunity(ctx context.Context, communityID primitive.ObjectID) error {
	if _, err := c.communities.GetByID(ctx, communityID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFoundf("community", communityID.Hex())
		}
		return err
	}

	err := txn.Run(ctx, c.db, c.log, func(ctx context.Context) error {
		if _, err := c.posts.DeleteByCommunity(ctx, communityID); err != nil {
			return err
		}
		if _, err := c.events.DeleteByCommunity(ctx, communityID); err != nil {
			return err
		}
		if _, err := c.users.RemoveCommunityFromAll(ctx, communityID); err != nil {
			return err
		}
		_, err := c.communities.DeleteByID(ctx, communityID)
		return err
	})
	if err != nil {
		return c.wrapTxnErr(err)
	}

	if err := c.index.Delete(ctx, communityID); err != nil {
		c.log.Warn("failed to remove community from search index",
			zap.String("community_id", communityID.Hex()),
			zap.Error(err))
	}
	return nil
}

// DeleteUser removes an account and every trace of it: memberships,
// event participations, and everything the user authored. Events the
// user created are deleted outright, including their participant lists.
func (c *Coordinator) DeleteUser(ctx context.Context, userID string) error {
	u, err := c.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFoundf("user", userID)
		}
		return err
	}

	err = txn.Run(ctx, c.db, c.log, func(ctx context.Context) error {
		for _, communityID := range u.JoinedCommunities {
			if err := c.communities.RemoveMember(ctx, communityID, userID); err != nil {
				// A membership pointing at a community deleted since the
				// read is stale, not fatal.
				if !errors.Is(err, mongo.ErrNoDocuments) {
					return err
				}
			}
		}
		if _, err := c.posts.DeleteByAuthor(ctx, userID); err != nil {
			return err
		}
		if _, err := c.events.DeleteByCreator(ctx, userID); err != nil {
			return err
		}
		if _, err := c.events.RemoveParticipantFromAll(ctx, userID); err != nil {
			return err
		}
		_, err := c.users.DeleteByID(ctx, userID)
		return err
	})
	return c.wrapTxnErr(err)
}

// FinishDueEvents marks every ongoing event whose end time has passed as
// finished and pays its points to the participants. Each event is its
// own transaction; the status flip gates the payout, so a retried sweep
// never pays twice. Returns the number of events finished.
func (c *Coordinator) FinishDueEvents(ctx context.Context, now time.Time) (int, error) {
	due, err := c.events.ListDueOngoing(ctx, now)
	if err != nil {
		return 0, err
	}

	finished := 0
	for _, e := range due {
		var marked bool
		err := txn.Run(ctx, c.db, c.log, func(ctx context.Context) error {
			ok, err := c.events.MarkFinished(ctx, e.ID)
			if err != nil {
				return err
			}
			marked = ok
			if !ok {
				// Another sweep got here first.
				return nil
			}
			_, err = c.users.AddPoints(ctx, e.Participants, e.Points)
			return err
		})
		if err == nil && marked {
			finished++
		}
		if err != nil {
			c.log.Error("failed to finish event",
				zap.String("event_id", e.ID.Hex()),
				zap.Error(err))
		}
	}
	return finished, nil
}

// wrapTxnErr passes taxonomy errors through and marks everything else
// as a retriable transaction conflict.
func (c *Coordinator) wrapTxnErr(err error) error {
	if err == nil {
		return nil
	}
	if apperr.IsNotFound(err) || apperr.IsForbidden(err) || apperr.IsValidation(err) {
		return err
	}
	return &apperr.Conflict{Err: err}
}
