package repository

import (
	"context"
	"fmt"

	"classifieds-service/internal/database"
	"classifieds-service/internal/entity"
)

type UserRepository struct {
	q database.Querier
}

func NewUserRepository(q database.Querier) *UserRepository {
	return &UserRepository{q}
}

func (r *UserRepository) table() string { return r.q.Dialect().Quote("user") }

// CreateUser inserts the user and returns the stored row.
// A taken name fails with database.ErrDuplicateKey.
func (r *UserRepository) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	query := fmt.Sprintf(`INSERT INTO %s (name, password) VALUES (?, ?)`, r.table())
	id, err := insertID(ctx, r.q, query, user.Name, user.Password)
	if err != nil {
		return nil, err
	}
	return r.GetUserByID(ctx, id)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*entity.User, error) {
	user := &entity.User{}
	query := fmt.Sprintf(`SELECT id, name, password, registration_time FROM %s WHERE id = ?`, r.table())
	err := r.q.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.Password, &user.RegistrationTime)
	if err != nil {
		return nil, database.Classify(err)
	}
	return user, nil
}
