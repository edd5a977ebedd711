package migrations

import (
	"context"
	"fmt"
	"time"

	"classifieds-service/internal/database"
)

// AutoMigrate creates every table the service needs, in dependency order.
func AutoMigrate(ctx context.Context, retries int, db *database.DB) error {
	if err := AutoMigrateUsers(ctx, retries, db); err != nil {
		return err
	}
	return AutoMigrateAds(ctx, retries, db)
}

// AutoMigrateUsers creates the user table if it does not exist.
func AutoMigrateUsers(ctx context.Context, retries int, db *database.DB) error {
	d := db.Dialect
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id %s,
			name VARCHAR(100) NOT NULL UNIQUE,
			password VARCHAR(100) NOT NULL,
			registration_time %s
		)%s`,
		d.Quote("user"), d.AutoID(), d.Timestamp(), d.TableOptions())
	return execWithRetry(ctx, retries, db, query)
}

// AutoMigrateAds creates the ad table if it does not exist.
func AutoMigrateAds(ctx context.Context, retries int, db *database.DB) error {
	d := db.Dialect
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id %s,
			title VARCHAR(50) NOT NULL,
			description VARCHAR(255) NOT NULL,
			registration_time %s,
			owner_id INTEGER,
			FOREIGN KEY (owner_id) REFERENCES %s(id)
		)%s`,
		d.Quote("ad"), d.AutoID(), d.Timestamp(), d.Quote("user"), d.TableOptions())
	return execWithRetry(ctx, retries, db, query)
}

var retryDelay = func() <-chan time.Time { return time.After(time.Second) }

func execWithRetry(ctx context.Context, retries int, db *database.DB, query string) error {
	_, err := db.ExecContext(ctx, query)
	for i := 0; err != nil && i < retries; i++ {
		// Retry creating the table
		select {
		case <-ctx.Done():
			return fmt.Errorf("migrations: %w", ctx.Err())
		case <-retryDelay():
		}
		_, err = db.ExecContext(ctx, query)
	}
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}
