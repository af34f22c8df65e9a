package models

import (
	"strconv"
	"time"
)

// Коды ролей апстрима
const (
	RoleCustomer = "KhachHang"
	RoleAdmin    = "QuanTri"
)

// PasswordPlaceholder is echoed in edit forms instead of the real password.
const PasswordPlaceholder = "********"

// Movie - фильм
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Alias       string  `json:"alias,omitempty"`
	Description string  `json:"description"`
	PosterURL   string  `json:"poster_url"`
	TrailerURL  string  `json:"trailer_url"`
	ReleaseDate string  `json:"release_date"`
	Rating      float64 `json:"rating"`
	NowShowing  bool    `json:"now_showing"`
	ComingSoon  bool    `json:"coming_soon"`
	Hot         bool    `json:"hot"`
}

// Normalize keeps NowShowing and ComingSoon mutually exclusive; NowShowing wins.
func (m *Movie) Normalize() {
	if m.NowShowing && m.ComingSoon {
		m.ComingSoon = false
	}
}

// NormalizeMovies normalizes every movie in place and returns the slice.
func NormalizeMovies(movies []Movie) []Movie {
	for i := range movies {
		movies[i].Normalize()
	}
	return movies
}

// MovieInput - данные формы создания/редактирования фильма
type MovieInput struct {
	Title       string  `form:"title" json:"title" binding:"required"`
	Description string  `form:"description" json:"description"`
	TrailerURL  string  `form:"trailer_url" json:"trailer_url"`
	ReleaseDate string  `form:"release_date" json:"release_date" binding:"required"`
	Rating      float64 `form:"rating" json:"rating" binding:"gte=0,lte=10"`
	NowShowing  bool    `form:"now_showing" json:"now_showing"`
	ComingSoon  bool    `form:"coming_soon" json:"coming_soon"`
	Hot         bool    `form:"hot" json:"hot"`
}

// Upload is a file attached to an upstream multipart request.
type Upload struct {
	Filename string
	Data     []byte
}

// User - учетная запись
type User struct {
	Account  string `json:"account"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Group    string `json:"group,omitempty"`
	Password string `json:"-"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserForm is a user as shown in an edit form; the password is always masked.
type UserForm struct {
	User
	Password string `json:"password"`
}

func NewUserForm(u User) UserForm {
	return UserForm{User: u, Password: PasswordPlaceholder}
}

// UserInput - данные формы пользователя в админке
type UserInput struct {
	Account  string `json:"account" binding:"required"`
	Password string `json:"password"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Role     string `json:"role" binding:"required,oneof=KhachHang QuanTri"`
}

// Account is the current user together with their ticket history.
type Account struct {
	User    User           `json:"user"`
	Tickets []TicketRecord `json:"tickets"`
}

// TicketRecord - запись о купленном билете
type TicketRecord struct {
	ID         int64        `json:"id"`
	BookedAt   string       `json:"booked_at"`
	MovieTitle string       `json:"movie_title"`
	PosterURL  string       `json:"poster_url"`
	Price      int64        `json:"price"`
	Duration   int          `json:"duration_min"`
	Seats      []TicketSeat `json:"seats"`
}

type TicketSeat struct {
	CinemaSystem  string `json:"cinema_system"`
	CinemaComplex string `json:"cinema_complex"`
	SeatLabel     string `json:"seat_label"`
}

// LoginRequest - модель для входа
type LoginRequest struct {
	Account  string `json:"account" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest - модель для регистрации
type RegisterRequest struct {
	Account  string `json:"account" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
}

// ProfileInput - данные формы профиля
type ProfileInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// CinemaSystem - сеть кинотеатров
type CinemaSystem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Alias   string `json:"alias,omitempty"`
	LogoURL string `json:"logo_url"`
}

// CinemaComplex - кинотеатр сети
type CinemaComplex struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Rooms   []Room `json:"rooms,omitempty"`
}

type Room struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SystemSchedule is the nested system → complex → movie → showtime listing.
type SystemSchedule struct {
	System    CinemaSystem      `json:"system"`
	Complexes []ComplexSchedule `json:"complexes"`
}

type ComplexSchedule struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Address  string          `json:"address"`
	ImageURL string          `json:"image_url,omitempty"`
	Movies   []MovieSchedule `json:"movies"`
}

type MovieSchedule struct {
	MovieID    int64      `json:"movie_id"`
	Title      string     `json:"title"`
	PosterURL  string     `json:"poster_url"`
	NowShowing bool       `json:"now_showing"`
	ComingSoon bool       `json:"coming_soon"`
	Hot        bool       `json:"hot"`
	Showtimes  []Showtime `json:"showtimes"`
}

// Showtime - сеанс
type Showtime struct {
	ID          int64  `json:"id"`
	RoomID      string `json:"room_id"`
	RoomName    string `json:"room_name"`
	StartsAt    string `json:"starts_at"`
	Price       int64  `json:"price"`
	DurationMin int    `json:"duration_min,omitempty"`
	BookingLink string `json:"booking_link"`
}

// BookingPath is the public route of the seat selection page for a showtime.
func BookingPath(showtimeID int64) string {
	return "/dat-ve/" + strconv.FormatInt(showtimeID, 10)
}

// MovieDetail is a movie with every showtime grouped by cinema system.
type MovieDetail struct {
	Movie     Movie            `json:"movie"`
	Schedules []SystemSchedule `json:"schedules"`
}

// ShowtimeInput - данные формы создания сеанса
type ShowtimeInput struct {
	ComplexID string `json:"complex_id" binding:"required"`
	StartsAt  string `json:"starts_at" binding:"required"`
	Price     int64  `json:"price" binding:"required,gte=75000,lte=200000"`
}

type SeatType string

const (
	SeatStandard SeatType = "standard"
	SeatVIP      SeatType = "vip"
)

// Seat - место в зале
type Seat struct {
	ID       int64    `json:"id"`
	Label    string   `json:"label"`
	Type     SeatType `json:"type"`
	Booked   bool     `json:"booked"`
	Price    int64    `json:"price"`
	BookedBy string   `json:"-"`
}

// ShowtimeInfo describes the screening a seat map belongs to.
type ShowtimeInfo struct {
	ShowtimeID int64  `json:"showtime_id"`
	Complex    string `json:"complex"`
	Room       string `json:"room"`
	Address    string `json:"address"`
	MovieTitle string `json:"movie_title"`
	PosterURL  string `json:"poster_url"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

// SeatMap - полный список мест сеанса
type SeatMap struct {
	Info  ShowtimeInfo `json:"info"`
	Seats []Seat       `json:"seats"`
}

// Seat returns the seat with the given id.
func (m SeatMap) Seat(id int64) (Seat, bool) {
	for _, s := range m.Seats {
		if s.ID == id {
			return s, true
		}
	}
	return Seat{}, false
}

// SeatPrice - место и его цена в запросе бронирования
type SeatPrice struct {
	ID    int64 `json:"id"`
	Price int64 `json:"price"`
}

// BookingRequest - запрос бронирования
type BookingRequest struct {
	ShowtimeID int64       `json:"showtime_id"`
	Seats      []SeatPrice `json:"seats"`
}

// ToggleSeatRequest - модель для выбора/снятия места
type ToggleSeatRequest struct {
	SeatID int64 `json:"seat_id" binding:"required"`
}

// Session is the authenticated user plus the upstream bearer token.
type Session struct {
	ID          string    `json:"id"`
	User        User      `json:"user"`
	AccessToken string    `json:"access_token"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsLoggedIn reports whether both the user record and the token are present.
func (s *Session) IsLoggedIn() bool {
	return s != nil && s.User.Account != "" && s.AccessToken != ""
}

func (s *Session) IsAdmin() bool {
	return s.IsLoggedIn() && s.User.IsAdmin()
}

// Темы оформления
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ThemeRequest - смена темы оформления
type ThemeRequest struct {
	Theme string `json:"theme" binding:"required,oneof=light dark"`
}
