package external

import (
	"context"
	"net/http"
	"net/url"

	"cinebook/internal/models"
)

// userDTO - пользователь в формате апстрима. Decoding is case-insensitive, so
// soDT also matches the soDt spelling some endpoints use.
type userDTO struct {
	TaiKhoan        string `json:"taiKhoan"`
	MatKhau         string `json:"matKhau"`
	HoTen           string `json:"hoTen"`
	Email           string `json:"email"`
	SoDT            string `json:"soDT"`
	MaNhom          string `json:"maNhom"`
	MaLoaiNguoiDung string `json:"maLoaiNguoiDung"`
}

func (d userDTO) toModel() models.User {
	return models.User{
		Account:  d.TaiKhoan,
		Name:     d.HoTen,
		Email:    d.Email,
		Phone:    d.SoDT,
		Role:     d.MaLoaiNguoiDung,
		Group:    d.MaNhom,
		Password: d.MatKhau,
	}
}

// userWriteDTO is the body of every user create/update call.
type userWriteDTO struct {
	TaiKhoan        string `json:"taiKhoan"`
	MatKhau         string `json:"matKhau"`
	Email           string `json:"email"`
	SoDt            string `json:"soDt"`
	MaNhom          string `json:"maNhom"`
	MaLoaiNguoiDung string `json:"maLoaiNguoiDung"`
	HoTen           string `json:"hoTen"`
}

type loginDTO struct {
	userDTO
	AccessToken string `json:"accessToken"`
}

type ticketSeatDTO struct {
	TenHeThongRap string `json:"tenHeThongRap"`
	TenCumRap     string `json:"tenCumRap"`
	TenGhe        string `json:"tenGhe"`
}

type ticketDTO struct {
	MaVe          int64           `json:"maVe"`
	NgayDat       string          `json:"ngayDat"`
	TenPhim       string          `json:"tenPhim"`
	HinhAnh       string          `json:"hinhAnh"`
	GiaVe         int64           `json:"giaVe"`
	ThoiLuongPhim int             `json:"thoiLuongPhim"`
	DanhSachGhe   []ticketSeatDTO `json:"danhSachGhe"`
}

type accountDTO struct {
	userDTO
	ThongTinDatVe []ticketDTO `json:"thongTinDatVe"`
}

// Login exchanges credentials for the user record and a bearer token.
func (c *MovieAPIClient) Login(ctx context.Context, account, password string) (models.User, string, error) {
	var dto loginDTO
	payload := map[string]string{"taiKhoan": account, "matKhau": password}
	if err := c.sendJSON(ctx, http.MethodPost, "QuanLyNguoiDung/DangNhap", nil, payload, &dto); err != nil {
		return models.User{}, "", err
	}
	user := dto.toModel()
	user.Password = ""
	return user, dto.AccessToken, nil
}

// Register creates a customer account in the client group.
func (c *MovieAPIClient) Register(ctx context.Context, in models.RegisterRequest) (models.User, error) {
	var dto userDTO
	payload := userWriteDTO{
		TaiKhoan:        in.Account,
		MatKhau:         in.Password,
		Email:           in.Email,
		SoDt:            in.Phone,
		MaNhom:          c.group,
		MaLoaiNguoiDung: models.RoleCustomer,
		HoTen:           in.Name,
	}
	if err := c.sendJSON(ctx, http.MethodPost, "QuanLyNguoiDung/DangKy", nil, payload, &dto); err != nil {
		return models.User{}, err
	}
	user := dto.toModel()
	user.Password = ""
	return user, nil
}

// AccountInfo returns the token owner together with their booking history.
// The password is kept on the model for profile updates; it is never
// serialized.
func (c *MovieAPIClient) AccountInfo(ctx context.Context) (models.Account, error) {
	var dto accountDTO
	if err := c.sendJSON(ctx, http.MethodPost, "QuanLyNguoiDung/ThongTinTaiKhoan", nil, nil, &dto); err != nil {
		return models.Account{}, err
	}

	acc := models.Account{User: dto.toModel(), Tickets: make([]models.TicketRecord, 0, len(dto.ThongTinDatVe))}
	for _, t := range dto.ThongTinDatVe {
		rec := models.TicketRecord{
			ID:         t.MaVe,
			BookedAt:   t.NgayDat,
			MovieTitle: t.TenPhim,
			PosterURL:  t.HinhAnh,
			Price:      t.GiaVe,
			Duration:   t.ThoiLuongPhim,
			Seats:      make([]models.TicketSeat, 0, len(t.DanhSachGhe)),
		}
		for _, s := range t.DanhSachGhe {
			rec.Seats = append(rec.Seats, models.TicketSeat{
				CinemaSystem:  s.TenHeThongRap,
				CinemaComplex: s.TenCumRap,
				SeatLabel:     s.TenGhe,
			})
		}
		acc.Tickets = append(acc.Tickets, rec)
	}
	return acc, nil
}

// UpdateProfile updates the token owner. The upstream requires the password
// on every update.
func (c *MovieAPIClient) UpdateProfile(ctx context.Context, user models.User) error {
	return c.sendJSON(ctx, http.MethodPut, "QuanLyNguoiDung/CapNhatThongTinNguoiDung", nil, c.userPayload(user), nil)
}

func (c *MovieAPIClient) ListUsers(ctx context.Context) ([]models.User, error) {
	var dtos []userDTO
	query := url.Values{"MaNhom": {c.group}}
	if err := c.getJSON(ctx, "QuanLyNguoiDung/LayDanhSachNguoiDung", query, &dtos); err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(dtos))
	for _, d := range dtos {
		u := d.toModel()
		u.Password = ""
		users = append(users, u)
	}
	return users, nil
}

// GetUser returns a user including the stored password. Only the admin
// edit flow needs it, to resend an unchanged password.
func (c *MovieAPIClient) GetUser(ctx context.Context, account string) (models.User, error) {
	var dto userDTO
	query := url.Values{"taiKhoan": {account}}
	if err := c.sendJSON(ctx, http.MethodPost, "QuanLyNguoiDung/LayThongTinNguoiDung", query, nil, &dto); err != nil {
		return models.User{}, err
	}
	return dto.toModel(), nil
}

func (c *MovieAPIClient) CreateUser(ctx context.Context, user models.User) error {
	return c.sendJSON(ctx, http.MethodPost, "QuanLyNguoiDung/ThemNguoiDung", nil, c.userPayload(user), nil)
}

// UpdateUser is the admin update of any user.
func (c *MovieAPIClient) UpdateUser(ctx context.Context, user models.User) error {
	return c.sendJSON(ctx, http.MethodPost, "QuanLyNguoiDung/CapNhatThongTinNguoiDung", nil, c.userPayload(user), nil)
}

func (c *MovieAPIClient) DeleteUser(ctx context.Context, account string) error {
	query := url.Values{"TaiKhoan": {account}}
	return c.sendJSON(ctx, http.MethodDelete, "QuanLyNguoiDung/XoaNguoiDung", query, nil, nil)
}

func (c *MovieAPIClient) userPayload(u models.User) userWriteDTO {
	group := u.Group
	if group == "" {
		group = c.group
	}
	return userWriteDTO{
		TaiKhoan:        u.Account,
		MatKhau:         u.Password,
		Email:           u.Email,
		SoDt:            u.Phone,
		MaNhom:          group,
		MaLoaiNguoiDung: u.Role,
		HoTen:           u.Name,
	}
}
