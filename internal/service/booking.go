package service

import (
	"context"
	"fmt"

	"cinebook/internal/booking"
	apperrors "cinebook/internal/errors"
	"cinebook/internal/external"
	"cinebook/internal/logger"
	"cinebook/internal/models"
	"cinebook/internal/repository"
)

type BookingService struct {
	client *external.MovieAPIClient
	visits *repository.VisitRepository
}

func NewBookingService(client *external.MovieAPIClient, visits *repository.VisitRepository) *BookingService {
	return &BookingService{client: client, visits: visits}
}

// Start opens a fresh visit of the booking page: the seat map is fetched
// anew and the selection starts empty, whatever an earlier visit held.
func (s *BookingService) Start(ctx context.Context, sess *models.Session, showtimeID int64) (booking.View, error) {
	v := booking.NewVisit(sess.ID, showtimeID)

	m, err := clientFor(s.client, sess).SeatMap(ctx, showtimeID)
	if err != nil {
		v.LoadFailed(apperrors.Classify(err).Message)
		if saveErr := s.visits.Save(ctx, v); saveErr != nil {
			logger.WithContext(ctx).Error("Failed to save visit", "showtime_id", showtimeID, "error", saveErr)
		}
		return v.View(), fmt.Errorf("failed to load seat map: %w", err)
	}

	v.Loaded(m)
	if err := s.visits.Save(ctx, v); err != nil {
		return booking.View{}, err
	}
	return v.View(), nil
}

// Toggle selects or deselects a seat of the current visit.
func (s *BookingService) Toggle(ctx context.Context, sess *models.Session, showtimeID, seatID int64) (booking.View, error) {
	v, err := s.visits.Get(ctx, sess.ID, showtimeID)
	if err != nil {
		return booking.View{}, err
	}

	changed, err := v.Toggle(seatID)
	if err != nil {
		return v.View(), err
	}
	if changed {
		if err := s.visits.Save(ctx, v); err != nil {
			return booking.View{}, err
		}
	}
	return v.View(), nil
}

// Submit books the selected seats. The visit is stored as Submitting before
// the upstream call, so a second submit of the same visit is rejected.
// On failure the selection is kept; on success it is cleared and the seat
// map re-fetched. The state after the upstream call is saved even when ctx
// is already done, otherwise the visit would stay Submitting until it expires.
func (s *BookingService) Submit(ctx context.Context, sess *models.Session, showtimeID int64) (booking.View, error) {
	log := logger.WithContext(ctx)

	v, err := s.visits.Get(ctx, sess.ID, showtimeID)
	if err != nil {
		return booking.View{}, err
	}

	req, err := v.BeginSubmit()
	if err != nil {
		return v.View(), err
	}
	if err := s.visits.Save(ctx, v); err != nil {
		return booking.View{}, err
	}

	saveCtx := context.WithoutCancel(ctx)
	client := clientFor(s.client, sess)
	if err := client.Book(ctx, req); err != nil {
		v.SubmitFailed(apperrors.Classify(err).Message)
		if saveErr := s.visits.Save(saveCtx, v); saveErr != nil {
			log.Error("Failed to save visit", "showtime_id", showtimeID, "error", saveErr)
		}
		return v.View(), fmt.Errorf("failed to book seats: %w", err)
	}

	log.Info("Seats booked", "showtime_id", showtimeID, "seats", len(req.Seats), "total", v.Selection.Total())
	v.SubmitSucceeded()

	m, err := client.SeatMap(ctx, showtimeID)
	if err != nil {
		log.Warn("Failed to reload seat map after booking", "showtime_id", showtimeID, "error", err)
	} else {
		v.Refresh(m)
	}

	if err := s.visits.Save(saveCtx, v); err != nil {
		return booking.View{}, err
	}
	return v.View(), nil
}
