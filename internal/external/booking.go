package external

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"cinebook/internal/models"
)

type showtimeInfoDTO struct {
	MaLichChieu int64  `json:"maLichChieu"`
	TenCumRap   string `json:"tenCumRap"`
	TenRap      string `json:"tenRap"`
	DiaChi      string `json:"diaChi"`
	TenPhim     string `json:"tenPhim"`
	HinhAnh     string `json:"hinhAnh"`
	NgayChieu   string `json:"ngayChieu"`
	GioChieu    string `json:"gioChieu"`
}

// seatDTO - место в формате апстрима, loaiGhe is "Vip" or "Thuong"
type seatDTO struct {
	MaGhe            int64  `json:"maGhe"`
	TenGhe           string `json:"tenGhe"`
	LoaiGhe          string `json:"loaiGhe"`
	GiaVe            int64  `json:"giaVe"`
	DaDat            bool   `json:"daDat"`
	TaiKhoanNguoiDat string `json:"taiKhoanNguoiDat"`
}

func (d seatDTO) toModel() models.Seat {
	seatType := models.SeatStandard
	if strings.EqualFold(d.LoaiGhe, "vip") {
		seatType = models.SeatVIP
	}
	return models.Seat{
		ID:       d.MaGhe,
		Label:    d.TenGhe,
		Type:     seatType,
		Booked:   d.DaDat,
		Price:    d.GiaVe,
		BookedBy: d.TaiKhoanNguoiDat,
	}
}

type seatMapDTO struct {
	ThongTinPhim showtimeInfoDTO `json:"thongTinPhim"`
	DanhSachGhe  []seatDTO       `json:"danhSachGhe"`
}

type ticketRequestDTO struct {
	MaGhe int64 `json:"maGhe"`
	GiaVe int64 `json:"giaVe"`
}

type bookingRequestDTO struct {
	MaLichChieu int64              `json:"maLichChieu"`
	DanhSachVe  []ticketRequestDTO `json:"danhSachVe"`
}

type showtimeRequestDTO struct {
	MaPhim            int64  `json:"maPhim"`
	NgayChieuGioChieu string `json:"ngayChieuGioChieu"`
	MaRap             string `json:"maRap"`
	GiaVe             int64  `json:"giaVe"`
}

// SeatMap fetches the whole seat map of a showtime. Never cached.
func (c *MovieAPIClient) SeatMap(ctx context.Context, showtimeID int64) (models.SeatMap, error) {
	var dto seatMapDTO
	query := url.Values{"MaLichChieu": {strconv.FormatInt(showtimeID, 10)}}
	if err := c.getJSON(ctx, "QuanLyDatVe/LayDanhSachPhongVe", query, &dto); err != nil {
		return models.SeatMap{}, err
	}

	info := dto.ThongTinPhim
	m := models.SeatMap{
		Info: models.ShowtimeInfo{
			ShowtimeID: info.MaLichChieu,
			Complex:    info.TenCumRap,
			Room:       info.TenRap,
			Address:    info.DiaChi,
			MovieTitle: info.TenPhim,
			PosterURL:  info.HinhAnh,
			Date:       info.NgayChieu,
			Time:       info.GioChieu,
		},
		Seats: make([]models.Seat, 0, len(dto.DanhSachGhe)),
	}
	if m.Info.ShowtimeID == 0 {
		m.Info.ShowtimeID = showtimeID
	}
	for _, s := range dto.DanhSachGhe {
		m.Seats = append(m.Seats, s.toModel())
	}
	return m, nil
}

// Book submits the selected seats in one request. The client must carry the
// token of the booking user.
func (c *MovieAPIClient) Book(ctx context.Context, req models.BookingRequest) error {
	payload := bookingRequestDTO{MaLichChieu: req.ShowtimeID, DanhSachVe: make([]ticketRequestDTO, 0, len(req.Seats))}
	for _, s := range req.Seats {
		payload.DanhSachVe = append(payload.DanhSachVe, ticketRequestDTO{MaGhe: s.ID, GiaVe: s.Price})
	}
	return c.sendJSON(ctx, http.MethodPost, "QuanLyDatVe/DatVe", nil, payload, nil)
}

// CreateShowtime schedules a movie in a cinema complex.
func (c *MovieAPIClient) CreateShowtime(ctx context.Context, movieID int64, in models.ShowtimeInput) error {
	payload := showtimeRequestDTO{
		MaPhim:            movieID,
		NgayChieuGioChieu: formatDateTime(in.StartsAt),
		MaRap:             in.ComplexID,
		GiaVe:             in.Price,
	}
	return c.sendJSON(ctx, http.MethodPost, "QuanLyDatVe/TaoLichChieu", nil, payload, nil)
}
