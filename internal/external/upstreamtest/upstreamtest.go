// Package upstreamtest runs an in-memory fake of the upstream movie API for
// tests. It speaks the same envelope, headers and field names as the real
// service and keeps its data in memory, so a test can log in, book seats and
// inspect what the client sent.
package upstreamtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	CybersoftToken = "test-cybersoft-token"
	Group          = "GP01"

	AdminAccount     = "admin01"
	AdminPassword    = "123456"
	CustomerAccount  = "khach01"
	CustomerPassword = "123456"

	RoleCustomer = "KhachHang"
	RoleAdmin    = "QuanTri"

	// ShowtimeID has seat 1 (A1, free) and seat 2 (A2, booked), both 75000.
	ShowtimeID int64 = 44010
	// VIPShowtimeID has a mix of standard and VIP seats, all free.
	VIPShowtimeID int64 = 44011

	SystemID  = "BHDStar"
	ComplexID = "bhd-star-cineplex-3-2"
)

type Movie struct {
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

type User struct {
	TaiKhoan        string `json:"taiKhoan"`
	MatKhau         string `json:"matKhau"`
	HoTen           string `json:"hoTen"`
	Email           string `json:"email"`
	SoDt            string `json:"soDt"`
	MaNhom          string `json:"maNhom"`
	MaLoaiNguoiDung string `json:"maLoaiNguoiDung"`
}

type Seat struct {
	MaGhe            int64  `json:"maGhe"`
	TenGhe           string `json:"tenGhe"`
	LoaiGhe          string `json:"loaiGhe"`
	GiaVe            int64  `json:"giaVe"`
	DaDat            bool   `json:"daDat"`
	TaiKhoanNguoiDat string `json:"taiKhoanNguoiDat"`
}

type Showtime struct {
	ID        int64
	MovieID   int64
	ComplexID string
	StartsAt  string
	Price     int64
	Seats     []Seat
}

type Ticket struct {
	MaGhe int64 `json:"maGhe"`
	GiaVe int64 `json:"giaVe"`
}

// Booking is one accepted DatVe request.
type Booking struct {
	Account     string   `json:"taiKhoan"`
	MaLichChieu int64    `json:"maLichChieu"`
	DanhSachVe  []Ticket `json:"danhSachVe"`
}

// Upload is one accepted multipart movie request.
type Upload struct {
	Fields   map[string]string
	Filename string
}

type failure struct {
	status  int
	message string
}

// Server is the fake upstream. Its data is read through the accessor methods.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	movies    []Movie
	users     []User
	showtimes map[int64]*Showtime
	tokens    map[string]string
	bookings  []Booking
	uploads   []Upload
	calls     map[string]int
	failures  map[string]failure
	delays    map[string]time.Duration
	headers   map[string]http.Header
	nextID    int64
}

// New starts a seeded fake upstream closed at test cleanup.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		movies: []Movie{
			{MaPhim: 1, TenPhim: "Avengers: Endgame", BiDanh: "avengers-endgame", MaNhom: Group, NgayKhoiChieu: "2024-05-01T00:00:00", DanhGia: 9, Hot: true, DangChieu: true, SapChieu: true},
			{MaPhim: 2, TenPhim: "Dune: Part Two", BiDanh: "dune-part-two", MaNhom: Group, NgayKhoiChieu: "2024-06-01T00:00:00", DanhGia: 8, SapChieu: true},
			{MaPhim: 3, TenPhim: "Lật Mặt 7", BiDanh: "lat-mat-7", MaNhom: Group, NgayKhoiChieu: "2024-04-26T00:00:00", DanhGia: 7, DangChieu: true},
		},
		users: []User{
			{TaiKhoan: AdminAccount, MatKhau: AdminPassword, HoTen: "Quản Trị", Email: "admin@cinebook.vn", SoDt: "0900000001", MaNhom: Group, MaLoaiNguoiDung: RoleAdmin},
			{TaiKhoan: CustomerAccount, MatKhau: CustomerPassword, HoTen: "Khách Hàng", Email: "khach@cinebook.vn", SoDt: "0900000002", MaNhom: Group, MaLoaiNguoiDung: RoleCustomer},
		},
		showtimes: map[int64]*Showtime{
			ShowtimeID: {
				ID: ShowtimeID, MovieID: 1, ComplexID: ComplexID, StartsAt: "2024-05-10T19:30:00", Price: 75000,
				Seats: []Seat{
					{MaGhe: 1, TenGhe: "A1", LoaiGhe: "Thuong", GiaVe: 75000},
					{MaGhe: 2, TenGhe: "A2", LoaiGhe: "Thuong", GiaVe: 75000, DaDat: true, TaiKhoanNguoiDat: "someone"},
				},
			},
			VIPShowtimeID: {
				ID: VIPShowtimeID, MovieID: 3, ComplexID: ComplexID, StartsAt: "2024-05-11T21:00:00", Price: 75000,
				Seats: []Seat{
					{MaGhe: 101, TenGhe: "A1", LoaiGhe: "Thuong", GiaVe: 75000},
					{MaGhe: 102, TenGhe: "A2", LoaiGhe: "Thuong", GiaVe: 75000},
					{MaGhe: 103, TenGhe: "E1", LoaiGhe: "Vip", GiaVe: 90000},
					{MaGhe: 104, TenGhe: "E2", LoaiGhe: "Vip", GiaVe: 90000},
				},
			},
		},
		tokens:   make(map[string]string),
		calls:    make(map[string]int),
		failures: make(map[string]failure),
		delays:   make(map[string]time.Duration),
		headers:  make(map[string]http.Header),
		nextID:   1000,
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(s.record, s.checkCybersoft, s.injectFailure)

	api := r.Group("/api")
	{
		phim := api.Group("/QuanLyPhim")
		phim.GET("/LayDanhSachPhim", s.listMovies)
		phim.GET("/LayThongTinPhim", s.getMovie)
		phim.POST("/ThemPhimUploadHinh", s.requireAdmin, s.createMovie)
		phim.POST("/CapNhatPhimUpload", s.requireAdmin, s.updateMovie)
		phim.DELETE("/XoaPhim", s.requireAdmin, s.deleteMovie)

		nguoiDung := api.Group("/QuanLyNguoiDung")
		nguoiDung.POST("/DangNhap", s.login)
		nguoiDung.POST("/DangKy", s.register)
		nguoiDung.POST("/ThongTinTaiKhoan", s.requireUser, s.accountInfo)
		nguoiDung.PUT("/CapNhatThongTinNguoiDung", s.requireUser, s.updateSelf)
		nguoiDung.POST("/CapNhatThongTinNguoiDung", s.requireAdmin, s.updateUser)
		nguoiDung.GET("/LayDanhSachNguoiDung", s.listUsers)
		nguoiDung.POST("/LayThongTinNguoiDung", s.requireAdmin, s.getUser)
		nguoiDung.POST("/ThemNguoiDung", s.requireAdmin, s.createUser)
		nguoiDung.DELETE("/XoaNguoiDung", s.requireAdmin, s.deleteUser)

		rap := api.Group("/QuanLyRap")
		rap.GET("/LayThongTinHeThongRap", s.listSystems)
		rap.GET("/LayThongTinCumRapTheoHeThong", s.listComplexes)
		rap.GET("/LayThongTinLichChieuHeThongRap", s.listSchedules)
		rap.GET("/LayThongTinLichChieuPhim", s.movieSchedule)

		datVe := api.Group("/QuanLyDatVe")
		datVe.GET("/LayDanhSachPhongVe", s.seatMap)
		datVe.POST("/DatVe", s.requireUser, s.book)
		datVe.POST("/TaoLichChieu", s.requireAdmin, s.createShowtime)
	}

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Fail makes the next call of endpoint (e.g. "QuanLyDatVe/DatVe") answer
// with status and message.
func (s *Server) Fail(endpoint string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[endpoint] = failure{status: status, message: message}
}

// Delay holds the next call of endpoint for d or until the client gives up.
func (s *Server) Delay(endpoint string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[endpoint] = d
}

// ExpireTokens invalidates every issued bearer token.
func (s *Server) ExpireTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

// Calls returns how many requests reached endpoint.
func (s *Server) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

// LastHeader returns the headers of the latest request to endpoint.
func (s *Server) LastHeader(endpoint string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[endpoint].Clone()
}

func (s *Server) Bookings() []Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Booking(nil), s.bookings...)
}

func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

func (s *Server) Movies() []Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Movie(nil), s.movies...)
}

// User returns the stored user record, password included.
func (s *Server) User(account string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.TaiKhoan == account {
			return u, true
		}
	}
	return User{}, false
}

func (s *Server) Showtime(id int64) (Showtime, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.showtimes[id]
	if !ok {
		return Showtime{}, false
	}
	cp := *st
	cp.Seats = append([]Seat(nil), st.Seats...)
	return cp, true
}

// AddShowtime registers a showtime with the given seats.
func (s *Server) AddShowtime(st Showtime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := st
	s.showtimes[st.ID] = &cp
}

func endpointOf(c *gin.Context) string {
	return strings.TrimPrefix(c.Request.URL.Path, "/api/")
}

func ok(c *gin.Context, content any) {
	c.JSON(http.StatusOK, gin.H{"statusCode": http.StatusOK, "message": "Xử lý thành công!", "content": content})
}

func fail(c *gin.Context, status int, content string) {
	c.AbortWithStatusJSON(status, gin.H{"statusCode": status, "message": "Không tìm thấy tài nguyên!", "content": content})
}

func (s *Server) record(c *gin.Context) {
	s.mu.Lock()
	ep := endpointOf(c)
	s.calls[ep]++
	s.headers[ep] = c.Request.Header.Clone()
	s.mu.Unlock()
	c.Next()
}

func (s *Server) checkCybersoft(c *gin.Context) {
	if c.GetHeader("TokenCybersoft") != CybersoftToken {
		fail(c, http.StatusForbidden, "Token cybersoft không hợp lệ")
		return
	}
	c.Next()
}

func (s *Server) injectFailure(c *gin.Context) {
	s.mu.Lock()
	ep := endpointOf(c)
	f, found := s.failures[ep]
	delete(s.failures, ep)
	delay, delayed := s.delays[ep]
	delete(s.delays, ep)
	s.mu.Unlock()

	if delayed {
		select {
		case <-time.After(delay):
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}

	if found {
		fail(c, f.status, f.message)
		return
	}
	c.Next()
}

func (s *Server) caller(c *gin.Context) (User, bool) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	s.mu.Lock()
	defer s.mu.Unlock()

	account, found := s.tokens[token]
	if !found {
		return User{}, false
	}
	for _, u := range s.users {
		if u.TaiKhoan == account {
			return u, true
		}
	}
	return User{}, false
}

func (s *Server) requireUser(c *gin.Context) {
	u, found := s.caller(c)
	if !found {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Set("caller", u)
	c.Next()
}

func (s *Server) requireAdmin(c *gin.Context) {
	u, found := s.caller(c)
	if !found {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if u.MaLoaiNguoiDung != RoleAdmin {
		fail(c, http.StatusForbidden, "Không đủ quyền truy cập!")
		return
	}
	c.Set("caller", u)
	c.Next()
}

func callerOf(c *gin.Context) User {
	u, _ := c.Get("caller")
	return u.(User)
}

func queryInt(c *gin.Context, name string) int64 {
	v, _ := strconv.ParseInt(c.Query(name), 10, 64)
	return v
}

func (s *Server) listMovies(c *gin.Context) {
	ok(c, s.Movies())
}

func (s *Server) getMovie(c *gin.Context) {
	id := queryInt(c, "MaPhim")
	for _, m := range s.Movies() {
		if m.MaPhim == id {
			ok(c, m)
			return
		}
	}
	fail(c, http.StatusBadRequest, "Mã phim không hợp lệ!")
}

func (s *Server) movieFromForm(c *gin.Context) (Movie, Upload, error) {
	if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
		return Movie{}, Upload{}, err
	}

	up := Upload{Fields: make(map[string]string)}
	for name, values := range c.Request.MultipartForm.Value {
		up.Fields[name] = values[0]
	}
	if fh, err := c.FormFile("File"); err == nil {
		up.Filename = fh.Filename
	}

	rating, _ := strconv.ParseFloat(up.Fields["danhGia"], 64)
	m := Movie{
		TenPhim:       up.Fields["tenPhim"],
		Trailer:       up.Fields["trailer"],
		MoTa:          up.Fields["moTa"],
		MaNhom:        up.Fields["maNhom"],
		NgayKhoiChieu: up.Fields["ngayKhoiChieu"],
		DanhGia:       rating,
		DangChieu:     up.Fields["dangChieu"] == "true",
		SapChieu:      up.Fields["sapChieu"] == "true",
		Hot:           up.Fields["hot"] == "true",
	}
	if up.Filename != "" {
		m.HinhAnh = "https://img.example/" + up.Filename
	}
	return m, up, nil
}

func (s *Server) createMovie(c *gin.Context) {
	m, up, err := s.movieFromForm(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if up.Filename == "" {
		fail(c, http.StatusBadRequest, "Chưa chọn hình ảnh!")
		return
	}

	s.mu.Lock()
	s.nextID++
	m.MaPhim = s.nextID
	s.movies = append(s.movies, m)
	s.uploads = append(s.uploads, up)
	s.mu.Unlock()

	ok(c, m)
}

func (s *Server) updateMovie(c *gin.Context) {
	m, up, err := s.movieFromForm(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	id, _ := strconv.ParseInt(up.Fields["maPhim"], 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, up)
	for i := range s.movies {
		if s.movies[i].MaPhim == id {
			m.MaPhim = id
			if m.HinhAnh == "" {
				m.HinhAnh = s.movies[i].HinhAnh
			}
			s.movies[i] = m
			ok(c, m)
			return
		}
	}
	fail(c, http.StatusBadRequest, "Mã phim không hợp lệ!")
}

func (s *Server) deleteMovie(c *gin.Context) {
	id := queryInt(c, "MaPhim")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.movies {
		if s.movies[i].MaPhim == id {
			s.movies = append(s.movies[:i], s.movies[i+1:]...)
			ok(c, "Xóa thành công")
			return
		}
	}
	fail(c, http.StatusBadRequest, "Mã phim không hợp lệ!")
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		TaiKhoan string `json:"taiKhoan"`
		MatKhau  string `json:"matKhau"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	u, found := s.User(req.TaiKhoan)
	if !found || u.MatKhau != req.MatKhau {
		fail(c, http.StatusNotFound, "Tài khoản hoặc mật khẩu không đúng!")
		return
	}

	s.mu.Lock()
	s.nextID++
	token := fmt.Sprintf("token-%s-%d", u.TaiKhoan, s.nextID)
	s.tokens[token] = u.TaiKhoan
	s.mu.Unlock()

	ok(c, gin.H{
		"taiKhoan":        u.TaiKhoan,
		"hoTen":           u.HoTen,
		"email":           u.Email,
		"soDT":            u.SoDt,
		"maNhom":          u.MaNhom,
		"maLoaiNguoiDung": u.MaLoaiNguoiDung,
		"accessToken":     token,
	})
}

func (s *Server) bindUser(c *gin.Context) (User, bool) {
	var u User
	body, err := io.ReadAll(c.Request.Body)
	if err == nil {
		err = json.Unmarshal(body, &u)
	}
	if err != nil || u.TaiKhoan == "" {
		fail(c, http.StatusBadRequest, "Dữ liệu không hợp lệ!")
		return User{}, false
	}
	return u, true
}

func (s *Server) register(c *gin.Context) {
	u, valid := s.bindUser(c)
	if !valid {
		return
	}
	if _, exists := s.User(u.TaiKhoan); exists {
		fail(c, http.StatusBadRequest, "Tài khoản đã tồn tại!")
		return
	}
	u.MaLoaiNguoiDung = RoleCustomer

	s.mu.Lock()
	s.users = append(s.users, u)
	s.mu.Unlock()
	ok(c, u)
}

func (s *Server) accountInfo(c *gin.Context) {
	u := callerOf(c)

	s.mu.Lock()
	var history []gin.H
	for i, b := range s.bookings {
		if b.Account != u.TaiKhoan {
			continue
		}
		var seats []gin.H
		var total int64
		for _, v := range b.DanhSachVe {
			seats = append(seats, gin.H{"tenHeThongRap": "BHD Star Cineplex", "tenCumRap": "BHD Star - 3/2", "tenGhe": strconv.FormatInt(v.MaGhe, 10)})
			total += v.GiaVe
		}
		history = append(history, gin.H{"maVe": i + 1, "ngayDat": "2024-05-10T10:00:00", "tenPhim": "Avengers: Endgame", "giaVe": total, "thoiLuongPhim": 120, "danhSachGhe": seats})
	}
	s.mu.Unlock()

	ok(c, gin.H{
		"taiKhoan":        u.TaiKhoan,
		"matKhau":         u.MatKhau,
		"hoTen":           u.HoTen,
		"email":           u.Email,
		"soDT":            u.SoDt,
		"maNhom":          u.MaNhom,
		"maLoaiNguoiDung": u.MaLoaiNguoiDung,
		"thongTinDatVe":   history,
	})
}

func (s *Server) replaceUser(c *gin.Context, u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].TaiKhoan == u.TaiKhoan {
			s.users[i] = u
			ok(c, u)
			return
		}
	}
	fail(c, http.StatusBadRequest, "Tài khoản không tồn tại!")
}

func (s *Server) updateSelf(c *gin.Context) {
	u, valid := s.bindUser(c)
	if !valid {
		return
	}
	if u.TaiKhoan != callerOf(c).TaiKhoan {
		fail(c, http.StatusForbidden, "Không đủ quyền truy cập!")
		return
	}
	if u.MatKhau == "" {
		fail(c, http.StatusBadRequest, "Mật khẩu không được bỏ trống!")
		return
	}
	s.replaceUser(c, u)
}

func (s *Server) updateUser(c *gin.Context) {
	u, valid := s.bindUser(c)
	if !valid {
		return
	}
	if u.MatKhau == "" {
		fail(c, http.StatusBadRequest, "Mật khẩu không được bỏ trống!")
		return
	}
	s.replaceUser(c, u)
}

func (s *Server) listUsers(c *gin.Context) {
	s.mu.Lock()
	users := make([]gin.H, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, gin.H{
			"taiKhoan": u.TaiKhoan, "hoTen": u.HoTen, "email": u.Email,
			"soDt": u.SoDt, "matKhau": u.MatKhau, "maLoaiNguoiDung": u.MaLoaiNguoiDung,
		})
	}
	s.mu.Unlock()
	ok(c, users)
}

func (s *Server) getUser(c *gin.Context) {
	u, found := s.User(c.Query("taiKhoan"))
	if !found {
		fail(c, http.StatusBadRequest, "Tài khoản không tồn tại!")
		return
	}
	ok(c, u)
}

func (s *Server) createUser(c *gin.Context) {
	u, valid := s.bindUser(c)
	if !valid {
		return
	}
	if _, exists := s.User(u.TaiKhoan); exists {
		fail(c, http.StatusBadRequest, "Tài khoản đã tồn tại!")
		return
	}

	s.mu.Lock()
	s.users = append(s.users, u)
	s.mu.Unlock()
	ok(c, u)
}

func (s *Server) deleteUser(c *gin.Context) {
	account := c.Query("TaiKhoan")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].TaiKhoan == account {
			s.users = append(s.users[:i], s.users[i+1:]...)
			ok(c, "Xóa thành công!")
			return
		}
	}
	fail(c, http.StatusBadRequest, "Tài khoản không tồn tại!")
}

func (s *Server) listSystems(c *gin.Context) {
	ok(c, []gin.H{
		{"maHeThongRap": SystemID, "tenHeThongRap": "BHD Star Cineplex", "biDanh": "bhd-star-cineplex", "logo": "https://img.example/bhd.png"},
		{"maHeThongRap": "CGV", "tenHeThongRap": "cgv", "biDanh": "cgv", "logo": "https://img.example/cgv.png"},
	})
}

func (s *Server) listComplexes(c *gin.Context) {
	if c.Query("maHeThongRap") != SystemID {
		ok(c, []gin.H{})
		return
	}
	ok(c, []gin.H{{
		"maCumRap": ComplexID, "tenCumRap": "BHD Star Cineplex - 3/2", "diaChi": "L5-Vincom 3/2, 3C Đường 3/2, Q.10",
		"danhSachRap": []gin.H{{"maRap": 451, "tenRap": "Rạp 1"}, {"maRap": 452, "tenRap": "Rạp 2"}},
	}})
}

func (s *Server) showtimeJSON(st *Showtime) gin.H {
	return gin.H{"maLichChieu": st.ID, "maRap": "451", "tenRap": "Rạp 1", "ngayChieuGioChieu": st.StartsAt, "giaVe": st.Price, "thoiLuong": 120}
}

func (s *Server) listSchedules(c *gin.Context) {
	system := c.Query("maHeThongRap")
	if system != "" && system != SystemID {
		ok(c, []gin.H{})
		return
	}

	s.mu.Lock()
	var movies []gin.H
	for _, m := range s.movies {
		var showtimes []gin.H
		for _, st := range s.showtimes {
			if st.MovieID == m.MaPhim {
				showtimes = append(showtimes, s.showtimeJSON(st))
			}
		}
		if len(showtimes) == 0 {
			continue
		}
		movies = append(movies, gin.H{
			"maPhim": m.MaPhim, "tenPhim": m.TenPhim, "hinhAnh": m.HinhAnh,
			"hot": m.Hot, "dangChieu": m.DangChieu, "sapChieu": m.SapChieu,
			"lstLichChieuTheoPhim": showtimes,
		})
	}
	s.mu.Unlock()

	ok(c, []gin.H{{
		"maHeThongRap": SystemID, "tenHeThongRap": "BHD Star Cineplex", "logo": "https://img.example/bhd.png",
		"lstCumRap": []gin.H{{
			"maCumRap": ComplexID, "tenCumRap": "BHD Star Cineplex - 3/2", "diaChi": "L5-Vincom 3/2",
			"danhSachPhim": movies,
		}},
	}})
}

func (s *Server) movieSchedule(c *gin.Context) {
	id := queryInt(c, "MaPhim")

	s.mu.Lock()
	defer s.mu.Unlock()

	var movie *Movie
	for i := range s.movies {
		if s.movies[i].MaPhim == id {
			movie = &s.movies[i]
		}
	}
	if movie == nil {
		fail(c, http.StatusBadRequest, "Mã phim không hợp lệ!")
		return
	}

	var showtimes []gin.H
	for _, st := range s.showtimes {
		if st.MovieID == id {
			showtimes = append(showtimes, s.showtimeJSON(st))
		}
	}

	ok(c, gin.H{
		"maPhim": movie.MaPhim, "tenPhim": movie.TenPhim, "biDanh": movie.BiDanh, "moTa": movie.MoTa,
		"hinhAnh": movie.HinhAnh, "trailer": movie.Trailer, "ngayKhoiChieu": movie.NgayKhoiChieu,
		"danhGia": movie.DanhGia, "hot": movie.Hot, "dangChieu": movie.DangChieu, "sapChieu": movie.SapChieu,
		"heThongRapChieu": []gin.H{{
			"maHeThongRap": SystemID, "tenHeThongRap": "BHD Star Cineplex", "logo": "https://img.example/bhd.png",
			"cumRapChieu": []gin.H{{
				"maCumRap": ComplexID, "tenCumRap": "BHD Star Cineplex - 3/2", "diaChi": "L5-Vincom 3/2",
				"lichChieuPhim": showtimes,
			}},
		}},
	})
}

func (s *Server) seatMap(c *gin.Context) {
	id := queryInt(c, "MaLichChieu")
	st, found := s.Showtime(id)
	if !found {
		fail(c, http.StatusBadRequest, "Mã lịch chiếu không hợp lệ!")
		return
	}

	ok(c, gin.H{
		"thongTinPhim": gin.H{
			"maLichChieu": st.ID, "tenCumRap": "BHD Star Cineplex - 3/2", "tenRap": "Rạp 1",
			"diaChi": "L5-Vincom 3/2", "tenPhim": "Avengers: Endgame", "hinhAnh": "https://img.example/avengers.png",
			"ngayChieu": "10/05/2024", "gioChieu": "19:30",
		},
		"danhSachGhe": st.Seats,
	})
}

func (s *Server) book(c *gin.Context) {
	var b Booking
	if err := c.ShouldBindJSON(&b); err != nil || len(b.DanhSachVe) == 0 {
		fail(c, http.StatusBadRequest, "Danh sách vé không hợp lệ!")
		return
	}
	b.Account = callerOf(c).TaiKhoan

	s.mu.Lock()
	defer s.mu.Unlock()

	st, found := s.showtimes[b.MaLichChieu]
	if !found {
		fail(c, http.StatusBadRequest, "Mã lịch chiếu không hợp lệ!")
		return
	}
	for _, v := range b.DanhSachVe {
		for i := range st.Seats {
			if st.Seats[i].MaGhe == v.MaGhe {
				st.Seats[i].DaDat = true
				st.Seats[i].TaiKhoanNguoiDat = b.Account
			}
		}
	}
	s.bookings = append(s.bookings, b)
	ok(c, "Đặt vé thành công!")
}

func (s *Server) createShowtime(c *gin.Context) {
	var req struct {
		MaPhim            int64  `json:"maPhim"`
		NgayChieuGioChieu string `json:"ngayChieuGioChieu"`
		MaRap             string `json:"maRap"`
		GiaVe             int64  `json:"giaVe"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.GiaVe < 75000 || req.GiaVe > 200000 {
		fail(c, http.StatusBadRequest, "Giá từ 75.000 - 200.000")
		return
	}

	s.mu.Lock()
	s.nextID++
	s.showtimes[s.nextID] = &Showtime{
		ID: s.nextID, MovieID: req.MaPhim, ComplexID: req.MaRap, StartsAt: req.NgayChieuGioChieu, Price: req.GiaVe,
	}
	s.mu.Unlock()
	ok(c, "Thêm lịch chiếu thành công!")
}
