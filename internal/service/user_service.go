package service

import (
	"context"

	"classifieds-service/internal/database"
	"classifieds-service/internal/entity"
	"classifieds-service/internal/events"
	"classifieds-service/internal/repository"
)

type UserService struct {
	publisher events.Publisher
}

// NewUserService creates a new instance of UserService. A nil publisher disables events.
func NewUserService(publisher events.Publisher) *UserService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &UserService{publisher: publisher}
}

// CreateUser stores a new user and commits the session.
// A name that is already taken fails with ErrUserExists and nothing is written.
func (s *UserService) CreateUser(ctx context.Context, sess *database.Session, user *entity.User) (*entity.User, error) {
	createdUser, err := repository.NewUserRepository(sess).CreateUser(ctx, user)
	if err == nil {
		err = sess.Commit()
	}
	if err != nil {
		if database.IsDuplicateKey(err) {
			logger.Warn().Str("name", user.Name).Msg("User already exists")
			return nil, ErrUserExists
		}
		logger.Error().Err(err).Msg("Error creating user")
		return nil, err
	}

	publish(ctx, s.publisher, "user", "created", createdUser.ID, createdUser)
	return createdUser, nil
}
