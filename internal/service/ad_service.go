package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"classifieds-service/internal/cache"
	"classifieds-service/internal/database"
	"classifieds-service/internal/entity"
	"classifieds-service/internal/events"
	"classifieds-service/internal/repository"
)

type AdService struct {
	cache     AdCache
	publisher events.Publisher
}

// NewAdService creates a new instance of AdService. Either dependency may be nil:
// a nil cache always reads storage and a nil publisher drops events.
func NewAdService(adCache AdCache, publisher events.Publisher) *AdService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AdService{cache: adCache, publisher: publisher}
}

// CreateAd stores a new ad and commits the session.
func (s *AdService) CreateAd(ctx context.Context, sess *database.Session, ad *entity.Ad) (*entity.Ad, error) {
	createdAd, err := repository.NewAdRepository(sess).CreateAd(ctx, ad)
	if err == nil {
		err = sess.Commit()
	}
	if err != nil {
		if database.IsDuplicateKey(err) {
			logger.Warn().Msg("Ad already exists")
			return nil, ErrAdExists
		}
		logger.Error().Err(err).Msg("Error creating ad")
		return nil, err
	}

	publish(ctx, s.publisher, "ad", "created", createdAd.ID, createdAd)
	return createdAd, nil
}

// GetAdByID returns the ad, from cache when possible. A missing ad fails with ErrAdNotFound.
func (s *AdService) GetAdByID(ctx context.Context, sess *database.Session, id int64) (*entity.Ad, error) {
	fill, version := false, int64(0)
	if s.cache != nil {
		ad, err := s.cache.Get(ctx, id)
		if err == nil {
			return ad, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			logger.Error().Err(err).Msgf("Error getting ad %d from cache", id)
		}

		// The version is read before storage so a concurrent write invalidates this fill.
		if version, err = s.cache.Version(ctx, id); err != nil {
			logger.Error().Err(err).Msgf("Error getting cache version of ad %d", id)
		} else {
			fill = true
		}
	}

	ad, err := s.loadAd(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	if fill {
		if err := s.cache.SetIfVersion(ctx, ad, version); err != nil && !errors.Is(err, cache.ErrStale) {
			logger.Error().Err(err).Msgf("Error setting ad %d in cache", id)
		}
	}
	return ad, nil
}

// UpdateAd overwrites the ad with the writable fields present in fields and
// commits. Only the columns named in fields are written.
func (s *AdService) UpdateAd(ctx context.Context, sess *database.Session, id int64, fields map[string]json.RawMessage) (*entity.Ad, error) {
	repo := repository.NewAdRepository(sess)

	ad, err := s.loadAd(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	columns, err := ad.Apply(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(columns) == 0 {
		return ad, nil
	}

	if err := repo.UpdateAdColumns(ctx, ad, columns); err != nil {
		return nil, s.storageError(err, id, "Error updating ad")
	}
	updatedAd, err := repo.GetAdByID(ctx, id)
	if err != nil {
		return nil, s.storageError(err, id, "Error reading updated ad")
	}
	if err := sess.Commit(); err != nil {
		logger.Error().Err(err).Msgf("Error committing update of ad %d", id)
		return nil, err
	}

	s.invalidate(ctx, id)
	publish(ctx, s.publisher, "ad", "updated", id, updatedAd)
	return updatedAd, nil
}

// DeleteAd removes the ad, commits, and returns the deleted id.
func (s *AdService) DeleteAd(ctx context.Context, sess *database.Session, id int64) (int64, error) {
	ad, err := s.loadAd(ctx, sess, id)
	if err != nil {
		return 0, err
	}

	if err := repository.NewAdRepository(sess).DeleteAd(ctx, ad.ID); err != nil {
		return 0, s.storageError(err, id, "Error deleting ad")
	}
	if err := sess.Commit(); err != nil {
		logger.Error().Err(err).Msgf("Error committing delete of ad %d", id)
		return 0, err
	}

	s.invalidate(ctx, id)
	publish(ctx, s.publisher, "ad", "deleted", id, ad)
	return ad.ID, nil
}

func (s *AdService) loadAd(ctx context.Context, sess *database.Session, id int64) (*entity.Ad, error) {
	ad, err := repository.NewAdRepository(sess).GetAdByID(ctx, id)
	if err != nil {
		return nil, s.storageError(err, id, "Error getting ad")
	}
	return ad, nil
}

func (s *AdService) storageError(err error, id int64, msg string) error {
	if database.IsNotFound(err) {
		return fmt.Errorf("%w: id %d", ErrAdNotFound, id)
	}
	logger.Error().Err(err).Msgf("%s %d", msg, id)
	return err
}

func (s *AdService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		logger.Error().Err(err).Msgf("Error invalidating ad %d in cache", id)
	}
}
