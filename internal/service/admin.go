package service

import (
	"context"
	"fmt"

	"cinebook/internal/cache"
	apperrors "cinebook/internal/errors"
	"cinebook/internal/external"
	"cinebook/internal/listing"
	"cinebook/internal/logger"
	"cinebook/internal/models"
	"cinebook/internal/repository"
	"cinebook/internal/resource"
)

// Сколько последних переходов сессий показывать на дашборде
const recentSessionEvents = 10

// AdminService backs the admin subtree. Every call is made with the admin's
// token; list screens always read fresh data from the upstream.
type AdminService struct {
	src   catalogSource
	audit *repository.SessionAuditLog
}

func NewAdminService(client *external.MovieAPIClient, catalogCache *cache.CatalogCache, audit *repository.SessionAuditLog) *AdminService {
	return &AdminService{src: catalogSource{client: client, cache: catalogCache}, audit: audit}
}

func (s *AdminService) client(sess *models.Session) *external.MovieAPIClient {
	return clientFor(s.src.client, sess)
}

// MovieStats - статистика фильмов
type MovieStats struct {
	Total      int `json:"total"`
	NowShowing int `json:"now_showing"`
	ComingSoon int `json:"coming_soon"`
	Hot        int `json:"hot"`
}

// UserStats - статистика пользователей по ролям
type UserStats struct {
	Total     int `json:"total"`
	Admins    int `json:"admins"`
	Customers int `json:"customers"`
}

// SessionStats - переходы сессий из журнала аудита
type SessionStats struct {
	Counts map[string]int64             `json:"counts"`
	Recent []models.SessionEventMessage `json:"recent"`
}

type Dashboard struct {
	Movies   resource.Snapshot[MovieStats]   `json:"movies"`
	Users    resource.Snapshot[UserStats]    `json:"users"`
	Sessions resource.Snapshot[SessionStats] `json:"sessions"`
}

// Dashboard loads movies, users and session activity independently; one
// failing leaves the others' statistics intact.
func (s *AdminService) Dashboard(ctx context.Context, sess *models.Session) (Dashboard, error) {
	client := s.client(sess)

	movies := resource.New(func(ctx context.Context) (MovieStats, error) {
		list, err := client.ListMovies(ctx)
		if err != nil {
			return MovieStats{}, err
		}
		stats := MovieStats{Total: len(list)}
		for _, m := range list {
			if m.NowShowing {
				stats.NowShowing++
			}
			if m.ComingSoon {
				stats.ComingSoon++
			}
			if m.Hot {
				stats.Hot++
			}
		}
		return stats, nil
	})

	users := resource.New(func(ctx context.Context) (UserStats, error) {
		list, err := client.ListUsers(ctx)
		if err != nil {
			return UserStats{}, err
		}
		stats := UserStats{Total: len(list)}
		for _, u := range list {
			if u.IsAdmin() {
				stats.Admins++
			} else {
				stats.Customers++
			}
		}
		return stats, nil
	})

	sessions := resource.New(func(ctx context.Context) (SessionStats, error) {
		counts, err := s.audit.Counts(ctx)
		if err != nil {
			return SessionStats{}, err
		}
		recent, err := s.audit.Recent(ctx, recentSessionEvents)
		if err != nil {
			return SessionStats{}, err
		}
		return SessionStats{Counts: counts, Recent: recent}, nil
	})

	err := resource.LoadAll(ctx, movies, users, sessions)
	return Dashboard{
		Movies:   movies.Snapshot().Describe(describe),
		Users:    users.Snapshot().Describe(describe),
		Sessions: sessions.Snapshot().Describe(describe),
	}, err
}

func (s *AdminService) Films(ctx context.Context, sess *models.Session, st listing.State) (listing.Page[models.Movie], error) {
	movies, err := s.client(sess).ListMovies(ctx)
	if err != nil {
		return listing.Page[models.Movie]{}, fmt.Errorf("failed to list movies: %w", err)
	}
	return listing.Apply(movies, st, listing.AdminFilmsPageSize, movieFields), nil
}

// CreateFilm uploads a new movie. A poster is mandatory on create.
func (s *AdminService) CreateFilm(ctx context.Context, sess *models.Session, in models.MovieInput, poster *models.Upload) (models.Movie, error) {
	if poster == nil || len(poster.Data) == 0 {
		return models.Movie{}, apperrors.ErrPosterRequired
	}

	movie, err := s.client(sess).CreateMovie(ctx, in, poster)
	if err != nil {
		return models.Movie{}, fmt.Errorf("failed to create movie: %w", err)
	}

	s.src.invalidate(ctx, cache.KeyMovies)
	logger.WithContext(ctx).Info("Movie created", "movie_id", movie.ID, "title", movie.Title)
	return movie, nil
}

func (s *AdminService) FilmForEdit(ctx context.Context, sess *models.Session, movieID int64) (models.Movie, error) {
	movie, err := s.client(sess).GetMovie(ctx, movieID)
	if err != nil {
		return models.Movie{}, fmt.Errorf("failed to get movie %d: %w", movieID, err)
	}
	return movie, nil
}

// UpdateFilm updates a movie; poster may be nil to keep the current one.
func (s *AdminService) UpdateFilm(ctx context.Context, sess *models.Session, movieID int64, in models.MovieInput, poster *models.Upload) error {
	if poster != nil && len(poster.Data) == 0 {
		poster = nil
	}
	if err := s.client(sess).UpdateMovie(ctx, movieID, in, poster); err != nil {
		return fmt.Errorf("failed to update movie %d: %w", movieID, err)
	}

	s.src.invalidate(ctx, cache.KeyMovies, cache.KeySchedules)
	return nil
}

func (s *AdminService) DeleteFilm(ctx context.Context, sess *models.Session, movieID int64) error {
	if err := s.client(sess).DeleteMovie(ctx, movieID); err != nil {
		return fmt.Errorf("failed to delete movie %d: %w", movieID, err)
	}

	s.src.invalidate(ctx, cache.KeyMovies, cache.KeySchedules)
	logger.WithContext(ctx).Info("Movie deleted", "movie_id", movieID)
	return nil
}

// ShowtimeForm - данные формы создания сеанса
type ShowtimeForm struct {
	Movie          models.Movie           `json:"movie"`
	Systems        []models.CinemaSystem  `json:"systems"`
	SelectedSystem string                 `json:"selected_system,omitempty"`
	Complexes      []models.CinemaComplex `json:"complexes"`
}

// ShowtimeForm returns the movie and the cinema choices. Complexes are listed
// only once a system is picked.
func (s *AdminService) ShowtimeForm(ctx context.Context, sess *models.Session, movieID int64, systemID string) (ShowtimeForm, error) {
	client := s.client(sess)

	movie, err := client.GetMovie(ctx, movieID)
	if err != nil {
		return ShowtimeForm{}, fmt.Errorf("failed to get movie %d: %w", movieID, err)
	}

	systems, err := s.src.systems(ctx, sess)
	if err != nil {
		return ShowtimeForm{}, fmt.Errorf("failed to list cinema systems: %w", err)
	}

	form := ShowtimeForm{Movie: movie, Systems: systems, SelectedSystem: systemID, Complexes: []models.CinemaComplex{}}
	if systemID != "" {
		complexes, err := client.ListComplexes(ctx, systemID)
		if err != nil {
			return ShowtimeForm{}, fmt.Errorf("failed to list complexes of %s: %w", systemID, err)
		}
		form.Complexes = complexes
	}
	return form, nil
}

func (s *AdminService) CreateShowtime(ctx context.Context, sess *models.Session, movieID int64, in models.ShowtimeInput) error {
	if err := s.client(sess).CreateShowtime(ctx, movieID, in); err != nil {
		return fmt.Errorf("failed to create showtime: %w", err)
	}

	s.src.invalidate(ctx, cache.KeySchedules)
	logger.WithContext(ctx).Info("Showtime created", "movie_id", movieID, "complex_id", in.ComplexID, "starts_at", in.StartsAt)
	return nil
}

func (s *AdminService) Users(ctx context.Context, sess *models.Session, st listing.State) (listing.Page[models.User], error) {
	users, err := s.client(sess).ListUsers(ctx)
	if err != nil {
		return listing.Page[models.User]{}, fmt.Errorf("failed to list users: %w", err)
	}
	return listing.Apply(users, st, listing.AdminUsersPageSize, func(u models.User) []string {
		return []string{u.Account, u.Name, u.Email}
	}), nil
}

func (s *AdminService) CreateUser(ctx context.Context, sess *models.Session, in models.UserInput) error {
	if in.Password == "" || in.Password == models.PasswordPlaceholder {
		return apperrors.ErrPasswordRequired
	}

	if err := s.client(sess).CreateUser(ctx, userFromInput(in)); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	logger.WithContext(ctx).Info("User created", "target", in.Account, "role", in.Role)
	return nil
}

// UserForEdit returns the user with the password masked.
func (s *AdminService) UserForEdit(ctx context.Context, sess *models.Session, account string) (models.UserForm, error) {
	user, err := s.client(sess).GetUser(ctx, account)
	if err != nil {
		return models.UserForm{}, fmt.Errorf("failed to get user %s: %w", account, err)
	}
	user.Password = ""
	return models.NewUserForm(user), nil
}

// UpdateUser saves an edited user. An empty or masked password keeps the
// stored one.
func (s *AdminService) UpdateUser(ctx context.Context, sess *models.Session, account string, in models.UserInput) error {
	client := s.client(sess)

	in.Account = account
	user := userFromInput(in)
	if in.Password == "" || in.Password == models.PasswordPlaceholder {
		current, err := client.GetUser(ctx, account)
		if err != nil {
			return fmt.Errorf("failed to get user %s: %w", account, err)
		}
		user.Password = current.Password
		user.Group = current.Group
	}

	if err := client.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to update user %s: %w", account, err)
	}
	return nil
}

func (s *AdminService) DeleteUser(ctx context.Context, sess *models.Session, account string) error {
	if err := s.client(sess).DeleteUser(ctx, account); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", account, err)
	}
	logger.WithContext(ctx).Info("User deleted", "target", account)
	return nil
}

func userFromInput(in models.UserInput) models.User {
	return models.User{
		Account:  in.Account,
		Password: in.Password,
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Role:     in.Role,
	}
}
