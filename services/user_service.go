package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"inmoback/apperr"
	"inmoback/models"
)

// UserService is the narrow user-directory facade: existence checks, DTO
// enrichment and the admin login behind the protected surfaces.
type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// GetUser resolves a directory entry by id.
func (us *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return us.users.Get(ctx, id)
}

// Authenticate verifies credentials and returns the matching user.
func (us *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := us.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "invalid credentials")
	}
	return user, nil
}
