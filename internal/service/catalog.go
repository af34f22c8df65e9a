package service

import (
	"context"
	"fmt"

	"cinebook/internal/cache"
	apperrors "cinebook/internal/errors"
	"cinebook/internal/external"
	"cinebook/internal/listing"
	"cinebook/internal/models"
	"cinebook/internal/news"
	"cinebook/internal/resource"
)

// Фильтры списка фильмов
const (
	StatusAll        = ""
	StatusNowShowing = "now_showing"
	StatusComingSoon = "coming_soon"
)

type CatalogService struct {
	src  catalogSource
	feed *news.Feed
}

func NewCatalogService(client *external.MovieAPIClient, catalogCache *cache.CatalogCache, feed *news.Feed) *CatalogService {
	return &CatalogService{src: catalogSource{client: client, cache: catalogCache}, feed: feed}
}

// HomePage - главная страница: три независимых ресурса
type HomePage struct {
	Movies    resource.Snapshot[[]models.Movie]          `json:"movies"`
	Systems   resource.Snapshot[[]models.CinemaSystem]   `json:"cinema_systems"`
	Schedules resource.Snapshot[[]models.SystemSchedule] `json:"schedules"`
}

// Home loads the movies, the cinema systems and the schedules in parallel.
// Each part of the page reaches its own state; the error joins the failures.
func (s *CatalogService) Home(ctx context.Context, sess *models.Session) (HomePage, error) {
	movies := resource.New(func(ctx context.Context) ([]models.Movie, error) {
		return s.src.movies(ctx, sess)
	}, resource.WithTransform(models.NormalizeMovies))
	systems := resource.New(func(ctx context.Context) ([]models.CinemaSystem, error) {
		return s.src.systems(ctx, sess)
	})
	schedules := resource.New(func(ctx context.Context) ([]models.SystemSchedule, error) {
		return s.src.schedules(ctx, sess)
	})

	err := resource.LoadAll(ctx, movies, systems, schedules)

	return HomePage{
		Movies:    movies.Snapshot().Describe(describe),
		Systems:   systems.Snapshot().Describe(describe),
		Schedules: schedules.Snapshot().Describe(describe),
	}, err
}

func describe(err error) string {
	return apperrors.Classify(err).Message
}

// MovieListPage - страница списка фильмов
type MovieListPage struct {
	Status string `json:"status,omitempty"`
	listing.Page[models.Movie]
}

// MovieList filters movies by status, then by title, and returns one page.
func (s *CatalogService) MovieList(ctx context.Context, sess *models.Session, status string, st listing.State) (MovieListPage, error) {
	movies, err := s.src.movies(ctx, sess)
	if err != nil {
		return MovieListPage{}, fmt.Errorf("failed to list movies: %w", err)
	}

	filtered := make([]models.Movie, 0, len(movies))
	for _, m := range movies {
		switch status {
		case StatusNowShowing:
			if !m.NowShowing {
				continue
			}
		case StatusComingSoon:
			if !m.ComingSoon {
				continue
			}
		}
		filtered = append(filtered, m)
	}

	page := listing.Apply(filtered, st, listing.MoviesPageSize, movieFields)
	return MovieListPage{Status: status, Page: page}, nil
}

func movieFields(m models.Movie) []string {
	return []string{m.Title, m.Alias}
}

// Movie returns a movie with its showtimes. Never cached.
func (s *CatalogService) Movie(ctx context.Context, sess *models.Session, movieID int64) (models.MovieDetail, error) {
	detail, err := clientFor(s.src.client, sess).MovieSchedule(ctx, movieID)
	if err != nil {
		return models.MovieDetail{}, fmt.Errorf("failed to get movie %d: %w", movieID, err)
	}
	return detail, nil
}

// CinemasPage - страница кинотеатров
type CinemasPage struct {
	Systems        []models.CinemaSystem   `json:"systems"`
	SelectedSystem string                  `json:"selected_system"`
	Schedules      []models.SystemSchedule `json:"schedules"`
}

// Cinemas lists the cinema systems and the schedule of one of them. An empty
// systemID selects the first system.
func (s *CatalogService) Cinemas(ctx context.Context, sess *models.Session, systemID string) (CinemasPage, error) {
	systems, err := s.src.systems(ctx, sess)
	if err != nil {
		return CinemasPage{}, fmt.Errorf("failed to list cinema systems: %w", err)
	}

	page := CinemasPage{Systems: systems, SelectedSystem: systemID, Schedules: []models.SystemSchedule{}}
	if page.SelectedSystem == "" && len(systems) > 0 {
		page.SelectedSystem = systems[0].ID
	}
	if page.SelectedSystem == "" {
		return page, nil
	}

	schedules, err := s.src.schedules(ctx, sess)
	if err != nil {
		return CinemasPage{}, fmt.Errorf("failed to list schedules: %w", err)
	}
	for _, sch := range schedules {
		if sch.System.ID == page.SelectedSystem {
			page.Schedules = append(page.Schedules, sch)
		}
	}
	return page, nil
}

func (s *CatalogService) News(st listing.State) listing.Page[news.Article] {
	return listing.Apply(s.feed.All(), st, listing.NewsPageSize, func(a news.Article) []string {
		return []string{a.Title, a.Summary, a.Category}
	})
}

func (s *CatalogService) Article(id string) (news.Article, error) {
	a, ok := s.feed.Get(id)
	if !ok {
		return news.Article{}, fmt.Errorf("article %q: %w", id, apperrors.ErrNotFound)
	}
	return a, nil
}
