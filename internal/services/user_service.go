package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

// IUserService defines the interface for public profiles.
type IUserService interface {
	FindByID(ctx context.Context, userID utils.SixID) (*models.User, error)
	GetProfile(ctx context.Context, userID utils.SixID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, actor models.Actor, patch models.ProfilePatch) (*models.Profile, error)
}

// userService implements IUserService.
type userService struct {
	db      *mongo.Database
	reviews IReviewService
	log     logrus.FieldLogger
}

// NewUserService creates a new UserService.
func NewUserService(database *mongo.Database, reviews IReviewService, log logrus.FieldLogger) IUserService {
	return &userService{db: database, reviews: reviews, log: log}
}

// FindByID returns the stored profile of a user. Users who never saved one
// get an empty default profile rather than an error, because identities live
// with the identity provider.
func (s *userService) FindByID(ctx context.Context, userID utils.SixID) (*models.User, error) {
	var user models.User
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.DefaultProfile(userID), nil
		}
		return nil, lifecycle.Upstream("find user "+userID.String(), err)
	}
	return &user, nil
}

// GetProfile returns a user's profile with the summary of reviews they received.
func (s *userService) GetProfile(ctx context.Context, userID utils.SixID) (*models.Profile, error) {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary, err := s.reviews.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Profile{User: *user, Reviews: *summary}, nil
}

// UpdateProfile changes actor's own profile, creating it on first save.
func (s *userService) UpdateProfile(ctx context.Context, actor models.Actor, patch models.ProfilePatch) (*models.Profile, error) {
	patch, err := lifecycle.NormalizeProfilePatch(patch)
	if err != nil {
		return nil, record("update_profile", err)
	}

	ts := now()
	set := bson.M{"updated_at": ts}
	if patch.DisplayName != nil {
		set["display_name"] = *patch.DisplayName
	}
	if patch.PhotoURL != nil {
		set["photo_url"] = *patch.PhotoURL
	}
	if patch.Prefecture != nil {
		set["prefecture"] = *patch.Prefecture
	}
	if patch.Bio != nil {
		set["bio"] = *patch.Bio
	}
	update := bson.M{"$set": set, "$setOnInsert": bson.M{"created_at": ts}}
	if patch.DisplayName == nil {
		update["$setOnInsert"] = bson.M{"created_at": ts, "display_name": actor.DisplayName}
	}

	_, err = s.db.Collection(usersCollection).UpdateOne(ctx, bson.M{"_id": actor.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return nil, record("update_profile", lifecycle.Upstream("update profile", err))
	}
	s.log.WithField("actor_id", actor.ID.String()).Info("Profile updated")
	return s.GetProfile(ctx, actor.ID)
}
