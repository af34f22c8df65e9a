package external

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cinebook/internal/models"
)

// movieDTO - фильм в формате апстрима
type movieDTO struct {
	MaPhim        int64   `json:"maPhim"`
	TenPhim       string  `json:"tenPhim"`
	BiDanh        string  `json:"biDanh"`
	Trailer       string  `json:"trailer"`
	HinhAnh       string  `json:"hinhAnh"`
	MoTa          string  `json:"moTa"`
	MaNhom        string  `json:"maNhom"`
	NgayKhoiChieu string  `json:"ngayKhoiChieu"`
	DanhGia       float64 `json:"danhGia"`
	Hot           bool    `json:"hot"`
	DangChieu     bool    `json:"dangChieu"`
	SapChieu      bool    `json:"sapChieu"`
}

// toModel converts and normalizes; every movie leaving this package has
// mutually exclusive status flags.
func (d movieDTO) toModel() models.Movie {
	m := models.Movie{
		ID:          d.MaPhim,
		Title:       d.TenPhim,
		Alias:       d.BiDanh,
		Description: d.MoTa,
		PosterURL:   d.HinhAnh,
		TrailerURL:  d.Trailer,
		ReleaseDate: d.NgayKhoiChieu,
		Rating:      d.DanhGia,
		NowShowing:  d.DangChieu,
		ComingSoon:  d.SapChieu,
		Hot:         d.Hot,
	}
	m.Normalize()
	return m
}

func (c *MovieAPIClient) ListMovies(ctx context.Context) ([]models.Movie, error) {
	var dtos []movieDTO
	query := url.Values{"maNhom": {c.group}}
	if err := c.getJSON(ctx, "QuanLyPhim/LayDanhSachPhim", query, &dtos); err != nil {
		return nil, err
	}

	movies := make([]models.Movie, 0, len(dtos))
	for _, d := range dtos {
		movies = append(movies, d.toModel())
	}
	return movies, nil
}

func (c *MovieAPIClient) GetMovie(ctx context.Context, movieID int64) (models.Movie, error) {
	var dto movieDTO
	query := url.Values{"MaPhim": {strconv.FormatInt(movieID, 10)}}
	if err := c.getJSON(ctx, "QuanLyPhim/LayThongTinPhim", query, &dto); err != nil {
		return models.Movie{}, err
	}
	return dto.toModel(), nil
}

// CreateMovie uploads a new movie together with its poster.
func (c *MovieAPIClient) CreateMovie(ctx context.Context, in models.MovieInput, poster *models.Upload) (models.Movie, error) {
	var dto movieDTO
	fields := c.movieFields(in)
	if err := c.sendMultipart(ctx, "QuanLyPhim/ThemPhimUploadHinh", fields, "File", poster, &dto); err != nil {
		return models.Movie{}, err
	}
	return dto.toModel(), nil
}

// UpdateMovie rewrites a movie. A nil poster keeps the current image.
func (c *MovieAPIClient) UpdateMovie(ctx context.Context, movieID int64, in models.MovieInput, poster *models.Upload) error {
	fields := c.movieFields(in)
	fields["maPhim"] = strconv.FormatInt(movieID, 10)
	return c.sendMultipart(ctx, "QuanLyPhim/CapNhatPhimUpload", fields, "File", poster, nil)
}

func (c *MovieAPIClient) DeleteMovie(ctx context.Context, movieID int64) error {
	query := url.Values{"MaPhim": {strconv.FormatInt(movieID, 10)}}
	return c.sendJSON(ctx, http.MethodDelete, "QuanLyPhim/XoaPhim", query, nil, nil)
}

func (c *MovieAPIClient) movieFields(in models.MovieInput) map[string]string {
	// same rule as Movie.Normalize, applied on write
	comingSoon := in.ComingSoon && !in.NowShowing

	return map[string]string{
		"tenPhim":       in.Title,
		"trailer":       in.TrailerURL,
		"moTa":          in.Description,
		"maNhom":        c.group,
		"ngayKhoiChieu": formatDate(in.ReleaseDate),
		"danhGia":       strconv.FormatFloat(in.Rating, 'f', -1, 64),
		"dangChieu":     strconv.FormatBool(in.NowShowing),
		"sapChieu":      strconv.FormatBool(comingSoon),
		"hot":           strconv.FormatBool(in.Hot),
	}
}

// formatDate turns an ISO date into the dd/mm/yyyy form the upstream
// expects. Anything else is passed through untouched.
func formatDate(value string) string {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return value
}

// formatDateTime turns an HTML datetime-local value into the
// dd/mm/yyyy hh:mm:ss form used for showtimes.
func formatDateTime(value string) string {
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02 15:04", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("02/01/2006 15:04:05")
		}
	}
	return value
}
