package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"classifieds-service/internal/database"
	"classifieds-service/internal/entity"
)

type AdRepository struct {
	q database.Querier
}

func NewAdRepository(q database.Querier) *AdRepository {
	return &AdRepository{q}
}

func (r *AdRepository) table() string { return r.q.Dialect().Quote("ad") }

// CreateAd inserts ad. A zero RegistrationTime leaves the column to its storage default.
func (r *AdRepository) CreateAd(ctx context.Context, ad *entity.Ad) (*entity.Ad, error) {
	query := fmt.Sprintf(`INSERT INTO %s (title, description, owner_id) VALUES (?, ?, ?)`, r.table())
	args := []any{ad.Title, ad.Description, nullableInt(ad.OwnerID)}
	if !ad.RegistrationTime.IsZero() {
		query = fmt.Sprintf(`INSERT INTO %s (title, description, owner_id, registration_time) VALUES (?, ?, ?, ?)`, r.table())
		args = append(args, ad.RegistrationTime.UTC())
	}
	id, err := insertID(ctx, r.q, query, args...)
	if err != nil {
		return nil, err
	}
	return r.GetAdByID(ctx, id)
}

// GetAdByID returns database.ErrNotFound when no ad has the id.
func (r *AdRepository) GetAdByID(ctx context.Context, id int64) (*entity.Ad, error) {
	ad := &entity.Ad{}
	var owner sql.NullInt64
	query := fmt.Sprintf(`SELECT id, title, description, registration_time, owner_id FROM %s WHERE id = ?`, r.table())
	err := r.q.QueryRowContext(ctx, query, id).Scan(&ad.ID, &ad.Title, &ad.Description, &ad.RegistrationTime, &owner)
	if err != nil {
		return nil, database.Classify(err)
	}
	if owner.Valid {
		ad.OwnerID = &owner.Int64
	}
	return ad, nil
}

// UpdateAdColumns writes only the named columns of ad, so concurrent updates
// touching different fields do not overwrite each other.
func (r *AdRepository) UpdateAdColumns(ctx context.Context, ad *entity.Ad, columns []string) error {
	if len(columns) == 0 {
		return nil
	}

	setClauses := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns)+1)
	for _, col := range columns {
		switch col {
		case "title":
			args = append(args, ad.Title)
		case "description":
			args = append(args, ad.Description)
		case "owner_id":
			args = append(args, nullableInt(ad.OwnerID))
		case "registration_time":
			args = append(args, ad.RegistrationTime)
		default:
			return fmt.Errorf("repository: ad has no writable column %q", col)
		}
		setClauses = append(setClauses, col+" = ?")
	}
	args = append(args, ad.ID)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, r.table(), strings.Join(setClauses, ", "))
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func (r *AdRepository) DeleteAd(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table())
	res, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}
