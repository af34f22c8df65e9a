// Package booking holds the seat selection state of one booking page visit.
//
// A visit moves Loading → Ready → (toggle)* → Submitting → Success | Failed.
// The upstream API is the only arbiter of seat availability: nothing here
// locks or holds seats, two visits may select and submit the same seat.
package booking

import (
	"time"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/models"
)

type Phase string

const (
	PhaseLoading    Phase = "loading"
	PhaseReady      Phase = "ready"
	PhaseSubmitting Phase = "submitting"
	PhaseSuccess    Phase = "success"
	PhaseFailed     Phase = "failed"
)

// Selection - выбранные места, в порядке выбора
type Selection struct {
	Items []models.Seat `json:"items"`
}

// Toggle adds the seat or removes it when already selected. Booked seats
// are ignored. Reports whether the selection changed.
func (s *Selection) Toggle(seat models.Seat) bool {
	if seat.Booked {
		return false
	}

	for i, item := range s.Items {
		if item.ID == seat.ID {
			s.Items = append(s.Items[:i:i], s.Items[i+1:]...)
			return true
		}
	}

	s.Items = append(s.Items, seat)
	return true
}

func (s Selection) Contains(seatID int64) bool {
	for _, item := range s.Items {
		if item.ID == seatID {
			return true
		}
	}
	return false
}

// Total is the sum of seat prices; an empty selection costs 0.
func (s Selection) Total() int64 {
	var total int64
	for _, item := range s.Items {
		total += item.Price
	}
	return total
}

func (s Selection) CanSubmit() bool {
	return len(s.Items) > 0
}

func (s *Selection) Clear() {
	s.Items = nil
}

// Request builds the upstream booking payload for the selection.
func (s Selection) Request(showtimeID int64) models.BookingRequest {
	seats := make([]models.SeatPrice, 0, len(s.Items))
	for _, item := range s.Items {
		seats = append(seats, models.SeatPrice{ID: item.ID, Price: item.Price})
	}
	return models.BookingRequest{ShowtimeID: showtimeID, Seats: seats}
}

// Visit - состояние страницы выбора мест для одного сеанса
type Visit struct {
	SessionID  string          `json:"session_id"`
	ShowtimeID int64           `json:"showtime_id"`
	Phase      Phase           `json:"phase"`
	SeatMap    *models.SeatMap `json:"seat_map,omitempty"`
	Selection  Selection       `json:"selection"`
	Error      string          `json:"error,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewVisit starts a visit with an empty selection, waiting for its seat map.
func NewVisit(sessionID string, showtimeID int64) *Visit {
	return &Visit{
		SessionID:  sessionID,
		ShowtimeID: showtimeID,
		Phase:      PhaseLoading,
		UpdatedAt:  time.Now(),
	}
}

// Loaded stores the fetched seat map and makes the visit ready for selection.
func (v *Visit) Loaded(m models.SeatMap) {
	v.Refresh(m)
	v.Phase = PhaseReady
	v.Error = ""
}

func (v *Visit) LoadFailed(message string) {
	v.Phase = PhaseFailed
	v.Error = message
	v.touch()
}

// Refresh replaces the seat map without changing the phase. Selected seats
// that disappeared or got booked meanwhile are dropped from the selection.
func (v *Visit) Refresh(m models.SeatMap) {
	v.SeatMap = &m

	kept := v.Selection.Items[:0]
	for _, item := range v.Selection.Items {
		if seat, ok := m.Seat(item.ID); ok && !seat.Booked {
			kept = append(kept, seat)
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	v.Selection.Items = kept
	v.touch()
}

// Toggle flips the selection of a seat of the loaded seat map. Toggling a
// booked seat is a no-op, not an error.
func (v *Visit) Toggle(seatID int64) (bool, error) {
	if v.Phase == PhaseSubmitting {
		return false, apperrors.ErrSubmitInProgress
	}
	if v.SeatMap == nil {
		return false, apperrors.ErrSeatMapNotLoaded
	}

	seat, ok := v.SeatMap.Seat(seatID)
	if !ok {
		return false, apperrors.ErrSeatNotFound
	}

	changed := v.Selection.Toggle(seat)
	if changed {
		v.touch()
	}
	return changed, nil
}

// BeginSubmit moves the visit to Submitting and returns the payload to send.
func (v *Visit) BeginSubmit() (models.BookingRequest, error) {
	switch {
	case v.Phase == PhaseSubmitting:
		return models.BookingRequest{}, apperrors.ErrSubmitInProgress
	case v.SeatMap == nil:
		return models.BookingRequest{}, apperrors.ErrSeatMapNotLoaded
	case !v.Selection.CanSubmit():
		return models.BookingRequest{}, apperrors.ErrEmptySelection
	}

	v.Phase = PhaseSubmitting
	v.Error = ""
	v.touch()
	return v.Selection.Request(v.ShowtimeID), nil
}

// SubmitSucceeded clears the selection. The caller re-fetches the seat map
// and passes it to Refresh.
func (v *Visit) SubmitSucceeded() {
	v.Selection.Clear()
	v.Phase = PhaseSuccess
	v.Error = ""
	v.touch()
}

// SubmitFailed keeps the selection so the user can retry.
func (v *Visit) SubmitFailed(message string) {
	v.Phase = PhaseFailed
	v.Error = message
	v.touch()
}

func (v *Visit) touch() {
	v.UpdatedAt = time.Now()
}

// SeatView - место с отметкой выбора для отрисовки схемы зала
type SeatView struct {
	models.Seat
	Selected bool `json:"selected"`
}

// View is the booking page view model.
type View struct {
	ShowtimeID int64                `json:"showtime_id"`
	Phase      Phase                `json:"phase"`
	Info       *models.ShowtimeInfo `json:"info,omitempty"`
	Seats      []SeatView           `json:"seats"`
	Selected   []models.Seat        `json:"selected"`
	Total      int64                `json:"total"`
	CanSubmit  bool                 `json:"can_submit"`
	Error      string               `json:"error,omitempty"`
}

func (v *Visit) View() View {
	view := View{
		ShowtimeID: v.ShowtimeID,
		Phase:      v.Phase,
		Seats:      []SeatView{},
		Selected:   []models.Seat{},
		Total:      v.Selection.Total(),
		CanSubmit:  v.Selection.CanSubmit() && v.Phase != PhaseSubmitting && v.SeatMap != nil,
		Error:      v.Error,
	}

	if v.SeatMap != nil {
		info := v.SeatMap.Info
		view.Info = &info
		view.Seats = make([]SeatView, 0, len(v.SeatMap.Seats))
		for _, seat := range v.SeatMap.Seats {
			view.Seats = append(view.Seats, SeatView{Seat: seat, Selected: v.Selection.Contains(seat.ID)})
		}
	}
	view.Selected = append(view.Selected, v.Selection.Items...)

	return view
}
