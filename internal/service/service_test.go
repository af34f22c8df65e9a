package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinebook/internal/booking"
	"cinebook/internal/cache"
	apperrors "cinebook/internal/errors"
	"cinebook/internal/external"
	"cinebook/internal/external/upstreamtest"
	"cinebook/internal/listing"
	"cinebook/internal/models"
	"cinebook/internal/news"
	"cinebook/internal/repository"
	"cinebook/internal/resource"
	"cinebook/internal/session"
)

type testEnv struct {
	services *Services
	upstream *upstreamtest.Server
	sessions *session.Manager
	repos    *repository.Repositories
	redis    *miniredis.Miniredis
}

const testFeed = `
articles:
  - id: review-dune
    title: "Dune: Part Two review"
    summary: Sand and spice
    category: review
    published_at: 2024-03-01T00:00:00Z
  - id: promo-tuesday
    title: Half price Tuesdays
    summary: Every Tuesday
    body: Tickets are half price on Tuesdays.
    category: promotion
    published_at: 2024-05-01T00:00:00Z
`

func setup(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	up := upstreamtest.New(t)
	client := external.NewMovieAPIClient(external.MovieAPIConfig{
		BaseURL:        up.URL,
		CybersoftToken: upstreamtest.CybersoftToken,
		Group:          upstreamtest.Group,
		Timeout:        5 * time.Second,
	}, nil)

	repos := repository.NewRepositories(rdb, 15*time.Minute)
	sessions := session.NewManager(session.Config{Secret: "test-secret", TTL: time.Hour}, repos.Sessions, repos.Visits, nil)
	feed, err := news.Parse([]byte(testFeed))
	require.NoError(t, err)

	return &testEnv{
		services: NewServices(client, repos, sessions, cache.NewCatalogCache(rdb, time.Minute, nil), feed),
		upstream: up,
		sessions: sessions,
		repos:    repos,
		redis:    mr,
	}
}

func (e *testEnv) login(t *testing.T, account, password string) *models.Session {
	t.Helper()
	sess, _, err := e.services.Accounts.Login(context.Background(), nil, models.LoginRequest{Account: account, Password: password})
	require.NoError(t, err)
	return sess
}

func TestHomeLoadsResourcesIndependently(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	env.upstream.Fail("QuanLyRap/LayThongTinHeThongRap", http.StatusInternalServerError, "Lỗi máy chủ")

	page, err := env.services.Catalog.Home(ctx, nil)
	require.Error(t, err)

	assert.Equal(t, resource.Success, page.Movies.State)
	assert.Len(t, page.Movies.Data, 3)
	assert.Equal(t, resource.Failed, page.Systems.State)
	assert.Equal(t, "Lỗi máy chủ", page.Systems.Error)
	assert.Equal(t, resource.Success, page.Schedules.State)

	for _, m := range page.Movies.Data {
		assert.False(t, m.NowShowing && m.ComingSoon)
	}
}

func TestCatalogIsCached(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	_, err := env.services.Catalog.MovieList(ctx, nil, StatusAll, listing.State{Page: 1})
	require.NoError(t, err)
	_, err = env.services.Catalog.MovieList(ctx, nil, StatusAll, listing.State{Page: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, env.upstream.Calls("QuanLyPhim/LayDanhSachPhim"))
	assert.True(t, env.redis.Exists("catalog:"+cache.KeyMovies))
}

func TestMovieListFilters(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		status string
		query  string
		want   []string
	}{
		{"all", StatusAll, "", []string{"Avengers: Endgame", "Dune: Part Two", "Lật Mặt 7"}},
		{"now showing", StatusNowShowing, "", []string{"Avengers: Endgame", "Lật Mặt 7"}},
		{"coming soon", StatusComingSoon, "", []string{"Dune: Part Two"}},
		{"search ignores case", StatusAll, "DUNE", []string{"Dune: Part Two"}},
		{"search by alias", StatusAll, "lat-mat", []string{"Lật Mặt 7"}},
		{"no match", StatusAll, "matrix", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := listing.ParseState(tt.query, "", "1")
			page, err := env.services.Catalog.MovieList(ctx, nil, tt.status, st)
			require.NoError(t, err)

			var titles []string
			for _, m := range page.Items {
				titles = append(titles, m.Title)
			}
			assert.Equal(t, tt.want, titles)
			assert.Equal(t, 1, page.Page.Page)
		})
	}
}

func TestCinemasSelectsFirstSystem(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	page, err := env.services.Catalog.Cinemas(ctx, nil, "")
	require.NoError(t, err)
	assert.Equal(t, upstreamtest.SystemID, page.SelectedSystem)
	require.Len(t, page.Schedules, 1)

	page, err = env.services.Catalog.Cinemas(ctx, nil, "CGV")
	require.NoError(t, err)
	assert.Empty(t, page.Schedules)
	assert.Equal(t, 1, env.upstream.Calls("QuanLyRap/LayThongTinLichChieuHeThongRap"))
}

func TestNews(t *testing.T) {
	env := setup(t)

	page := env.services.Catalog.News(listing.State{Page: 1})
	require.Len(t, page.Items, 2)
	assert.Equal(t, "promo-tuesday", page.Items[0].ID)
	assert.Empty(t, page.Items[0].Body)

	page = env.services.Catalog.News(listing.State{Query: "review", Page: 1})
	require.Len(t, page.Items, 1)

	a, err := env.services.Catalog.Article("promo-tuesday")
	require.NoError(t, err)
	assert.NotEmpty(t, a.Body)

	_, err = env.services.Catalog.Article("missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAdminLoginRejectsCustomer(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	_, _, err := env.services.Accounts.AdminLogin(ctx, nil, models.LoginRequest{Account: upstreamtest.CustomerAccount, Password: upstreamtest.CustomerPassword})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Empty(t, env.redis.Keys(), "no session may be created")

	sess, cookie, err := env.services.Accounts.AdminLogin(ctx, nil, models.LoginRequest{Account: upstreamtest.AdminAccount, Password: upstreamtest.AdminPassword})
	require.NoError(t, err)
	assert.True(t, sess.IsAdmin())
	assert.NotEmpty(t, cookie)
}

func TestLoginEndsPreviousSession(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	first := env.login(t, upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)

	_, err := env.services.Booking.Start(ctx, first, upstreamtest.ShowtimeID)
	require.NoError(t, err)

	_, _, err = env.services.Accounts.Login(ctx, first, models.LoginRequest{Account: upstreamtest.CustomerAccount, Password: "wrong"})
	require.Error(t, err)
	_, err = env.repos.Sessions.Get(ctx, first.ID)
	require.NoError(t, err, "a rejected login keeps the current session")

	second, _, err := env.services.Accounts.Login(ctx, first, models.LoginRequest{Account: upstreamtest.AdminAccount, Password: upstreamtest.AdminPassword})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = env.repos.Sessions.Get(ctx, first.ID)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	_, err = env.repos.Visits.Get(ctx, first.ID, upstreamtest.ShowtimeID)
	assert.ErrorIs(t, err, apperrors.ErrVisitNotFound)

	_, err = env.repos.Sessions.Get(ctx, second.ID)
	assert.NoError(t, err)
}

func TestUpdateProfileKeepsPassword(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	sess := env.login(t, upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)

	user, err := env.services.Accounts.UpdateProfile(ctx, sess, models.ProfileInput{
		Name:     "Khách Mới",
		Email:    "moi@cinebook.vn",
		Phone:    "0911111111",
		Password: models.PasswordPlaceholder,
	})
	require.NoError(t, err)
	assert.Equal(t, "Khách Mới", user.Name)
	assert.Empty(t, user.Password)

	stored, ok := env.upstream.User(upstreamtest.CustomerAccount)
	require.True(t, ok)
	assert.Equal(t, upstreamtest.CustomerPassword, stored.MatKhau)
	assert.Equal(t, "0911111111", stored.SoDt)

	got, err := env.repos.Sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Khách Mới", got.User.Name)
}

func TestProfileUnauthorized(t *testing.T) {
	env := setup(t)
	sess := env.login(t, upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)
	env.upstream.ExpireTokens()

	_, err := env.services.Accounts.Profile(context.Background(), sess)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestBookingFlow(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	sess := env.login(t, upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)
	svc := env.services.Booking

	view, err := svc.Start(ctx, sess, upstreamtest.VIPShowtimeID)
	require.NoError(t, err)
	assert.Equal(t, booking.PhaseReady, view.Phase)
	assert.Len(t, view.Seats, 4)
	assert.Empty(t, view.Selected)
	assert.False(t, view.CanSubmit)

	_, err = svc.Submit(ctx, sess, upstreamtest.VIPShowtimeID)
	assert.ErrorIs(t, err, apperrors.ErrEmptySelection)

	_, err = svc.Toggle(ctx, sess, upstreamtest.VIPShowtimeID, 101)
	require.NoError(t, err)
	view, err = svc.Toggle(ctx, sess, upstreamtest.VIPShowtimeID, 103)
	require.NoError(t, err)
	assert.Equal(t, int64(165000), view.Total)
	assert.True(t, view.CanSubmit)

	view, err = svc.Submit(ctx, sess, upstreamtest.VIPShowtimeID)
	require.NoError(t, err)
	assert.Equal(t, booking.PhaseSuccess, view.Phase)
	assert.Empty(t, view.Selected)
	assert.Zero(t, view.Total)

	booked := map[int64]bool{}
	for _, s := range view.Seats {
		booked[s.ID] = s.Booked
	}
	assert.Equal(t, map[int64]bool{101: true, 102: false, 103: true, 104: false}, booked)

	bookings := env.upstream.Bookings()
	require.Len(t, bookings, 1)
	assert.Equal(t, []upstreamtest.Ticket{{MaGhe: 101, GiaVe: 75000}, {MaGhe: 103, GiaVe: 90000}}, bookings[0].DanhSachVe)
}

func TestBookingFailureKeepsSelection(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	sess := env.login(t, upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)
	svc := env.services.Booking

	_, err := svc.Start(ctx, sess, upstreamtest.ShowtimeID)
	require.NoError(t, err)

	view, err := svc.Toggle(ctx, sess, upstreamtest.ShowtimeID, 2)
	require.NoError(t, err)
	assert.Empty(t, view.Selected, "booked seat is not selectable")

	_, err = svc.Toggle(ctx, sess, upstreamtest.ShowtimeID, 1)
	require.NoError(t, err)

	env.upstream.Fail("QuanLyDatVe/DatVe", http.StatusBadRequest, "Ghế đã có người đặt!")
	view, err = svc.Submit(ctx, sess, upstreamtest.ShowtimeID)
	require.Error(t, err)
	assert.Equal(t, booking.PhaseFailed, view.Phase)
	assert.Equal(t, "Ghế đã có người đặt!", view.Error)
	require.Len(t, view.Selected, 1)
	assert.Equal(t, int64(1), view.Selected[0].ID)

	view, err = svc.Submit(ctx, sess, upstreamtest.ShowtimeID)
	require.NoError(t, err)
	assert.Equal(t, booking.PhaseSuccess, view.Phase)
}

func TestBookingCancelledSubmitCanBeRetried(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	sess := env.login(t, upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)
	svc := env.services.Booking

	_, err := svc.Start(ctx, sess, upstreamtest.ShowtimeID)
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, sess, upstreamtest.ShowtimeID, 1)
	require.NoError(t, err)

	env.upstream.Delay("QuanLyDatVe/DatVe", 5*time.Second)
	reqCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()

	view, err := svc.Submit(reqCtx, sess, upstreamtest.ShowtimeID)
	require.Error(t, err)
	assert.Equal(t, booking.PhaseFailed, view.Phase)

	stored, err := env.repos.Visits.Get(ctx, sess.ID, upstreamtest.ShowtimeID)
	require.NoError(t, err)
	assert.Equal(t, booking.PhaseFailed, stored.Phase)
	assert.Len(t, stored.Selection.Items, 1)

	view, err = svc.Submit(ctx, sess, upstreamtest.ShowtimeID)
	require.NoError(t, err)
	assert.Equal(t, booking.PhaseSuccess, view.Phase)
	assert.Len(t, env.upstream.Bookings(), 1)
}

func TestBookingStartDiscardsPreviousVisit(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	sess := env.login(t, upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)
	svc := env.services.Booking

	_, err := svc.Start(ctx, sess, upstreamtest.VIPShowtimeID)
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, sess, upstreamtest.VIPShowtimeID, 104)
	require.NoError(t, err)

	view, err := svc.Start(ctx, sess, upstreamtest.VIPShowtimeID)
	require.NoError(t, err)
	assert.Empty(t, view.Selected)
	assert.Equal(t, 2, env.upstream.Calls("QuanLyDatVe/LayDanhSachPhongVe"))
}

func TestBookingWithoutVisit(t *testing.T) {
	env := setup(t)
	sess := env.login(t, upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)

	_, err := env.services.Booking.Toggle(context.Background(), sess, upstreamtest.ShowtimeID, 1)
	assert.ErrorIs(t, err, apperrors.ErrVisitNotFound)
}

func TestBookingStartUnknownShowtime(t *testing.T) {
	env := setup(t)
	sess := env.login(t, upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)

	view, err := env.services.Booking.Start(context.Background(), sess, 999)
	require.Error(t, err)
	assert.Equal(t, booking.PhaseFailed, view.Phase)
	assert.Equal(t, "Mã lịch chiếu không hợp lệ!", view.Error)
}

func TestAdminDashboard(t *testing.T) {
	env := setup(t)
	sess := env.login(t, upstreamtest.AdminAccount, upstreamtest.AdminPassword)

	d, err := env.services.Admin.Dashboard(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, MovieStats{Total: 3, NowShowing: 2, ComingSoon: 1, Hot: 1}, d.Movies.Data)
	assert.Equal(t, UserStats{Total: 2, Admins: 1, Customers: 1}, d.Users.Data)

	env.upstream.Fail("QuanLyNguoiDung/LayDanhSachNguoiDung", http.StatusInternalServerError, "Lỗi máy chủ")
	d, err = env.services.Admin.Dashboard(context.Background(), sess)
	require.Error(t, err)
	assert.Equal(t, resource.Success, d.Movies.State)
	assert.Equal(t, 3, d.Movies.Data.Total)
	assert.Equal(t, resource.Failed, d.Users.State)
	assert.Equal(t, "Lỗi máy chủ", d.Users.Error)
}

func TestAdminDashboardSessionActivity(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	admin := env.login(t, upstreamtest.AdminAccount, upstreamtest.AdminPassword)

	for _, ev := range []models.SessionEventMessage{
		{Type: "login", SessionID: "s1", Account: upstreamtest.CustomerAccount},
		{Type: "logout", SessionID: "s1", Account: upstreamtest.CustomerAccount},
		{Type: "login", SessionID: "s2", Account: upstreamtest.AdminAccount},
	} {
		_, err := env.repos.Audit.Append(ctx, ev)
		require.NoError(t, err)
	}

	d, err := env.services.Admin.Dashboard(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, resource.Success, d.Sessions.State)
	assert.Equal(t, map[string]int64{"login": 2, "logout": 1}, d.Sessions.Data.Counts)
	require.Len(t, d.Sessions.Data.Recent, 3)
	assert.Equal(t, "s2", d.Sessions.Data.Recent[0].SessionID)
}

func TestAdminFilmMutationsInvalidateCache(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	admin := env.login(t, upstreamtest.AdminAccount, upstreamtest.AdminPassword)

	_, err := env.services.Catalog.MovieList(ctx, nil, StatusAll, listing.State{Page: 1})
	require.NoError(t, err)
	require.True(t, env.redis.Exists("catalog:"+cache.KeyMovies))

	in := models.MovieInput{Title: "Inside Out 2", ReleaseDate: "2024-06-14", Rating: 8, ComingSoon: true}
	_, err = env.services.Admin.CreateFilm(ctx, admin, in, nil)
	assert.ErrorIs(t, err, apperrors.ErrPosterRequired)

	created, err := env.services.Admin.CreateFilm(ctx, admin, in, &models.Upload{Filename: "poster.png", Data: []byte("png")})
	require.NoError(t, err)
	assert.False(t, env.redis.Exists("catalog:"+cache.KeyMovies))

	page, err := env.services.Catalog.MovieList(ctx, nil, StatusComingSoon, listing.State{Page: 1})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	require.NoError(t, env.services.Admin.DeleteFilm(ctx, admin, created.ID))
	page, err = env.services.Catalog.MovieList(ctx, nil, StatusComingSoon, listing.State{Page: 1})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestAdminFilmsRequiresAdmin(t *testing.T) {
	env := setup(t)
	customer := env.login(t, upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)

	err := env.services.Admin.DeleteFilm(context.Background(), customer, 1)
	assert.Equal(t, apperrors.KindForbidden, apperrors.Classify(err).Kind)
}

func TestAdminShowtime(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	admin := env.login(t, upstreamtest.AdminAccount, upstreamtest.AdminPassword)

	form, err := env.services.Admin.ShowtimeForm(ctx, admin, 2, "")
	require.NoError(t, err)
	assert.Equal(t, "Dune: Part Two", form.Movie.Title)
	assert.Len(t, form.Systems, 2)
	assert.Empty(t, form.Complexes)

	form, err = env.services.Admin.ShowtimeForm(ctx, admin, 2, upstreamtest.SystemID)
	require.NoError(t, err)
	require.Len(t, form.Complexes, 1)

	_, err = env.services.Catalog.Cinemas(ctx, nil, "")
	require.NoError(t, err)

	err = env.services.Admin.CreateShowtime(ctx, admin, 2, models.ShowtimeInput{
		ComplexID: form.Complexes[0].ID,
		StartsAt:  "2024-06-20T18:00",
		Price:     90000,
	})
	require.NoError(t, err)
	assert.False(t, env.redis.Exists("catalog:"+cache.KeySchedules))

	detail, err := env.services.Catalog.Movie(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, detail.Schedules, 1)
	assert.Len(t, detail.Schedules[0].Complexes[0].Movies[0].Showtimes, 1)
}

func TestAdminUsers(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	admin := env.login(t, upstreamtest.AdminAccount, upstreamtest.AdminPassword)
	svc := env.services.Admin

	in := models.UserInput{Account: "khach02", Name: "Khách Hai", Email: "k2@cinebook.vn", Role: models.RoleCustomer}
	assert.ErrorIs(t, svc.CreateUser(ctx, admin, in), apperrors.ErrPasswordRequired)

	in.Password = "secret1"
	require.NoError(t, svc.CreateUser(ctx, admin, in))

	page, err := svc.Users(ctx, admin, listing.State{Query: "khach0", Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalItems)
	for _, u := range page.Items {
		assert.Empty(t, u.Password)
	}

	form, err := svc.UserForEdit(ctx, admin, "khach02")
	require.NoError(t, err)
	assert.Equal(t, models.PasswordPlaceholder, form.Password)
	assert.Empty(t, form.User.Password)

	in.Name = "Khách Hai Sửa"
	in.Password = models.PasswordPlaceholder
	require.NoError(t, svc.UpdateUser(ctx, admin, "khach02", in))

	stored, ok := env.upstream.User("khach02")
	require.True(t, ok)
	assert.Equal(t, "Khách Hai Sửa", stored.HoTen)
	assert.Equal(t, "secret1", stored.MatKhau)

	require.NoError(t, svc.DeleteUser(ctx, admin, "khach02"))
	_, ok = env.upstream.User("khach02")
	assert.False(t, ok)
}
