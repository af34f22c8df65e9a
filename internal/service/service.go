package service

import (
	"context"

	"cinebook/internal/cache"
	"cinebook/internal/external"
	"cinebook/internal/logger"
	"cinebook/internal/models"
	"cinebook/internal/news"
	"cinebook/internal/repository"
	"cinebook/internal/session"
)

type Services struct {
	Catalog  *CatalogService
	Accounts *AccountService
	Booking  *BookingService
	Admin    *AdminService
}

func NewServices(client *external.MovieAPIClient, repos *repository.Repositories, sessions *session.Manager, catalogCache *cache.CatalogCache, feed *news.Feed) *Services {
	if feed == nil {
		feed, _ = news.Parse(nil)
	}
	return &Services{
		Catalog:  NewCatalogService(client, catalogCache, feed),
		Accounts: NewAccountService(client, sessions),
		Booking:  NewBookingService(client, repos.Visits),
		Admin:    NewAdminService(client, catalogCache, repos.Audit),
	}
}

// clientFor returns the upstream client acting for sess. Anonymous requests
// go out without a bearer token.
func clientFor(base *external.MovieAPIClient, sess *models.Session) *external.MovieAPIClient {
	if sess.IsLoggedIn() {
		return base.WithToken(sess.AccessToken)
	}
	return base
}

// catalogSource reads the public catalog through the read-through cache.
type catalogSource struct {
	client *external.MovieAPIClient
	cache  *cache.CatalogCache
}

func (s catalogSource) movies(ctx context.Context, sess *models.Session) ([]models.Movie, error) {
	return cache.Remember(ctx, s.cache, cache.KeyMovies, clientFor(s.client, sess).ListMovies)
}

func (s catalogSource) systems(ctx context.Context, sess *models.Session) ([]models.CinemaSystem, error) {
	return cache.Remember(ctx, s.cache, cache.KeyCinemaSystems, clientFor(s.client, sess).ListCinemaSystems)
}

// schedules caches the listing of every system under one key.
func (s catalogSource) schedules(ctx context.Context, sess *models.Session) ([]models.SystemSchedule, error) {
	c := clientFor(s.client, sess)
	return cache.Remember(ctx, s.cache, cache.KeySchedules, func(ctx context.Context) ([]models.SystemSchedule, error) {
		return c.ListSchedules(ctx, "")
	})
}

// invalidate drops cached catalog entries after an admin mutation.
func (s catalogSource) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		logger.WithContext(ctx).Warn("Failed to invalidate catalog cache", "keys", keys, "error", err)
	}
}
