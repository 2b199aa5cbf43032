package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"inmoback/apperr"
	"inmoback/models"
)

// UserStore is the Mongo-backed user directory.
type UserStore struct{}

func NewUserStore() *UserStore { return &UserStore{} }

func (s *UserStore) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := UserCollection().FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "user %s not found", id.Hex())
	}
	if err != nil {
		return nil, apperr.Storage(err, "failed to load user %s", id.Hex())
	}
	return &user, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := UserCollection().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage(err, "failed to look up user by email")
	}
	return &user, nil
}
