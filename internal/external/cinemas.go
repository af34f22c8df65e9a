package external

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"cinebook/internal/models"
)

type cinemaSystemDTO struct {
	MaHeThongRap  string `json:"maHeThongRap"`
	TenHeThongRap string `json:"tenHeThongRap"`
	BiDanh        string `json:"biDanh"`
	Logo          string `json:"logo"`
}

func (d cinemaSystemDTO) toModel() models.CinemaSystem {
	return models.CinemaSystem{ID: d.MaHeThongRap, Name: d.TenHeThongRap, Alias: d.BiDanh, LogoURL: d.Logo}
}

type roomDTO struct {
	MaRap  json.Number `json:"maRap"`
	TenRap string      `json:"tenRap"`
}

type cinemaComplexDTO struct {
	MaCumRap    string    `json:"maCumRap"`
	TenCumRap   string    `json:"tenCumRap"`
	DiaChi      string    `json:"diaChi"`
	DanhSachRap []roomDTO `json:"danhSachRap"`
}

type showtimeDTO struct {
	MaLichChieu       int64       `json:"maLichChieu"`
	MaRap             json.Number `json:"maRap"`
	TenRap            string      `json:"tenRap"`
	NgayChieuGioChieu string      `json:"ngayChieuGioChieu"`
	GiaVe             int64       `json:"giaVe"`
	ThoiLuong         int         `json:"thoiLuong"`
}

func (d showtimeDTO) toModel() models.Showtime {
	return models.Showtime{
		ID:          d.MaLichChieu,
		RoomID:      d.MaRap.String(),
		RoomName:    d.TenRap,
		StartsAt:    d.NgayChieuGioChieu,
		Price:       d.GiaVe,
		DurationMin: d.ThoiLuong,
		BookingLink: models.BookingPath(d.MaLichChieu),
	}
}

func showtimesToModel(dtos []showtimeDTO) []models.Showtime {
	out := make([]models.Showtime, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toModel())
	}
	return out
}

type scheduleMovieDTO struct {
	movieDTO
	LstLichChieuTheoPhim []showtimeDTO `json:"lstLichChieuTheoPhim"`
}

type scheduleComplexDTO struct {
	MaCumRap     string             `json:"maCumRap"`
	TenCumRap    string             `json:"tenCumRap"`
	HinhAnh      string             `json:"hinhAnh"`
	DiaChi       string             `json:"diaChi"`
	DanhSachPhim []scheduleMovieDTO `json:"danhSachPhim"`
}

type scheduleSystemDTO struct {
	cinemaSystemDTO
	LstCumRap []scheduleComplexDTO `json:"lstCumRap"`
}

type movieComplexDTO struct {
	MaCumRap      string        `json:"maCumRap"`
	TenCumRap     string        `json:"tenCumRap"`
	HinhAnh       string        `json:"hinhAnh"`
	DiaChi        string        `json:"diaChi"`
	LichChieuPhim []showtimeDTO `json:"lichChieuPhim"`
}

type movieSystemDTO struct {
	cinemaSystemDTO
	CumRapChieu []movieComplexDTO `json:"cumRapChieu"`
}

type movieScheduleDTO struct {
	movieDTO
	HeThongRapChieu []movieSystemDTO `json:"heThongRapChieu"`
}

func (c *MovieAPIClient) ListCinemaSystems(ctx context.Context) ([]models.CinemaSystem, error) {
	var dtos []cinemaSystemDTO
	if err := c.getJSON(ctx, "QuanLyRap/LayThongTinHeThongRap", nil, &dtos); err != nil {
		return nil, err
	}

	systems := make([]models.CinemaSystem, 0, len(dtos))
	for _, d := range dtos {
		systems = append(systems, d.toModel())
	}
	return systems, nil
}

// ListComplexes returns the complexes of one cinema system with their rooms.
func (c *MovieAPIClient) ListComplexes(ctx context.Context, systemID string) ([]models.CinemaComplex, error) {
	var dtos []cinemaComplexDTO
	query := url.Values{"maHeThongRap": {systemID}}
	if err := c.getJSON(ctx, "QuanLyRap/LayThongTinCumRapTheoHeThong", query, &dtos); err != nil {
		return nil, err
	}

	complexes := make([]models.CinemaComplex, 0, len(dtos))
	for _, d := range dtos {
		cx := models.CinemaComplex{ID: d.MaCumRap, Name: d.TenCumRap, Address: d.DiaChi}
		for _, r := range d.DanhSachRap {
			cx.Rooms = append(cx.Rooms, models.Room{ID: r.MaRap.String(), Name: r.TenRap})
		}
		complexes = append(complexes, cx)
	}
	return complexes, nil
}

// ListSchedules returns the system → complex → movie → showtime tree. An
// empty systemID returns every system.
func (c *MovieAPIClient) ListSchedules(ctx context.Context, systemID string) ([]models.SystemSchedule, error) {
	var dtos []scheduleSystemDTO
	query := url.Values{"maNhom": {c.group}}
	if systemID != "" {
		query.Set("maHeThongRap", systemID)
	}
	if err := c.getJSON(ctx, "QuanLyRap/LayThongTinLichChieuHeThongRap", query, &dtos); err != nil {
		return nil, err
	}

	schedules := make([]models.SystemSchedule, 0, len(dtos))
	for _, sys := range dtos {
		s := models.SystemSchedule{System: sys.toModel(), Complexes: make([]models.ComplexSchedule, 0, len(sys.LstCumRap))}
		for _, cx := range sys.LstCumRap {
			cs := models.ComplexSchedule{
				ID:       cx.MaCumRap,
				Name:     cx.TenCumRap,
				Address:  cx.DiaChi,
				ImageURL: cx.HinhAnh,
				Movies:   make([]models.MovieSchedule, 0, len(cx.DanhSachPhim)),
			}
			for _, mv := range cx.DanhSachPhim {
				m := mv.toModel()
				cs.Movies = append(cs.Movies, models.MovieSchedule{
					MovieID:    m.ID,
					Title:      m.Title,
					PosterURL:  m.PosterURL,
					NowShowing: m.NowShowing,
					ComingSoon: m.ComingSoon,
					Hot:        m.Hot,
					Showtimes:  showtimesToModel(mv.LstLichChieuTheoPhim),
				})
			}
			s.Complexes = append(s.Complexes, cs)
		}
		schedules = append(schedules, s)
	}
	return schedules, nil
}

// MovieSchedule returns a movie with all its showtimes grouped by system.
func (c *MovieAPIClient) MovieSchedule(ctx context.Context, movieID int64) (models.MovieDetail, error) {
	var dto movieScheduleDTO
	query := url.Values{"MaPhim": {strconv.FormatInt(movieID, 10)}}
	if err := c.getJSON(ctx, "QuanLyRap/LayThongTinLichChieuPhim", query, &dto); err != nil {
		return models.MovieDetail{}, err
	}

	detail := models.MovieDetail{Movie: dto.toModel(), Schedules: make([]models.SystemSchedule, 0, len(dto.HeThongRapChieu))}
	for _, sys := range dto.HeThongRapChieu {
		s := models.SystemSchedule{System: sys.toModel(), Complexes: make([]models.ComplexSchedule, 0, len(sys.CumRapChieu))}
		for _, cx := range sys.CumRapChieu {
			s.Complexes = append(s.Complexes, models.ComplexSchedule{
				ID:       cx.MaCumRap,
				Name:     cx.TenCumRap,
				Address:  cx.DiaChi,
				ImageURL: cx.HinhAnh,
				Movies: []models.MovieSchedule{{
					MovieID:    detail.Movie.ID,
					Title:      detail.Movie.Title,
					PosterURL:  detail.Movie.PosterURL,
					NowShowing: detail.Movie.NowShowing,
					ComingSoon: detail.Movie.ComingSoon,
					Hot:        detail.Movie.Hot,
					Showtimes:  showtimesToModel(cx.LichChieuPhim),
				}},
			})
		}
		detail.Schedules = append(detail.Schedules, s)
	}
	return detail, nil
}
