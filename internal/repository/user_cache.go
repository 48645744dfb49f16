package repository

import (
	"context"

	"askaway/internal/cache"
	"askaway/internal/models"
)

// cachedUserRepository serves GetByID from Redis and invalidates on writes.
type cachedUserRepository struct {
	UserRepository
}

// NewCachedUserRepository decorates inner with a cache-aside profile cache.
func NewCachedUserRepository(inner UserRepository) UserRepository {
	return &cachedUserRepository{UserRepository: inner}
}

// userCacheEntry keeps the fields models.User hides from JSON so a cached
// user can be written back without losing them.
type userCacheEntry struct {
	models.User
	Password string  `json:"password"`
	GoogleID *string `json:"google_id,omitempty"`
}

func (r *cachedUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var entry userCacheEntry
	err := cache.Aside(ctx, cache.UserKey(id), &entry, cache.UserTTL, func() error {
		found, err := r.UserRepository.GetByID(ctx, id)
		if err != nil {
			return err
		}
		entry = userCacheEntry{User: *found, Password: found.Password, GoogleID: found.GoogleID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	user := entry.User
	user.Password = entry.Password
	user.GoogleID = entry.GoogleID
	return &user, nil
}

func (r *cachedUserRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.UserRepository.Update(ctx, user); err != nil {
		return err
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *cachedUserRepository) Delete(ctx context.Context, id string) error {
	if err := r.UserRepository.Delete(ctx, id); err != nil {
		return err
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *cachedUserRepository) IncrementCounters(ctx context.Context, id string, questions, answers int) error {
	if err := r.UserRepository.IncrementCounters(ctx, id, questions, answers); err != nil {
		return err
	}
	cache.InvalidateUser(ctx, id)
	return nil
}
