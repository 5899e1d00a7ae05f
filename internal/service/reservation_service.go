// Package service holds the reservation engine: validation of ticket
// requests and their all-or-nothing persistence.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/database"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/logger"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/model"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/queue"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/repository"
)

// ValidationError is the error returned for rejected ticket requests.
type ValidationError = repository.ValidationError

// TicketRequest asks for one seat of one session.
type TicketRequest struct {
	Row       int
	Seat      int
	SessionID uint64
}

// ReservationService creates reservations.  Seat uniqueness is enforced by
// the tickets unique index alone; the service never locks.
type ReservationService struct {
	repo *repository.ReservationRepo
	pub  Publisher
	log  *logger.Logger
	now  func() time.Time
}

func NewReservationService(repo *repository.ReservationRepo, pub Publisher, log *logger.Logger) *ReservationService {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &ReservationService{repo: repo, pub: pub, log: log, now: time.Now}
}

func rangeError(field string, max, index int) *ValidationError {
	i := index
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("%s number must be in available range: (1, %d)", field, max),
		Range:   []int{1, max},
		Index:   &i,
	}
}

// Create books every requested seat in a single transaction and returns the
// reservation with its ticket ids.  Nothing is persisted on error.
func (s *ReservationService) Create(ctx context.Context, userID uint64, reqs []TicketRequest) (*model.Reservation, error) {
	if len(reqs) == 0 {
		return nil, repository.NewValidationError("tickets", "this list may not be empty")
	}

	tx, err := s.repo.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reservation: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	sessions := make(map[uint64]repository.SessionRow, len(reqs))
	for i, r := range reqs {
		sess, ok := sessions[r.SessionID]
		if !ok {
			if sess, err = s.repo.SessionForBookingTx(ctx, tx, r.SessionID); err != nil {
				return nil, err
			}
			sessions[r.SessionID] = sess
		}
		if r.Row < 1 || r.Row > sess.Dome.Rows {
			return nil, rangeError("row", sess.Dome.Rows, i)
		}
		if r.Seat < 1 || r.Seat > sess.Dome.SeatsInRow {
			return nil, rangeError("seat", sess.Dome.SeatsInRow, i)
		}
	}

	createdAt := s.now().UTC()
	rid, err := s.repo.InsertReservationTx(ctx, tx, userID, createdAt)
	if err != nil {
		return nil, fmt.Errorf("insert reservation: %w", classify(err, ""))
	}

	res := &model.Reservation{ID: rid, UserID: userID, CreatedAt: createdAt, Tickets: make([]model.Ticket, 0, len(reqs))}
	for _, r := range reqs {
		t := model.Ticket{Row: r.Row, Seat: r.Seat, SessionID: r.SessionID, ReservationID: rid}
		if err := s.repo.InsertTicketTx(ctx, tx, &t); err != nil {
			return nil, classify(err, fmt.Sprintf("%s for show session %d", t.Label(), t.SessionID))
		}
		res.Tickets = append(res.Tickets, t)
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err, "")
	}
	committed = true
	s.log.LogReservation("CREATE", rid, fmt.Sprintf("user=%d tickets=%d", userID, len(res.Tickets)))

	s.publish(ctx, res, sessions)
	return res, nil
}

// classify maps driver errors onto the repository sentinels.
func classify(err error, seat string) error {
	switch {
	case database.IsUniqueViolation(err):
		if seat == "" {
			return fmt.Errorf("seat already taken: %w", repository.ErrConflict)
		}
		return fmt.Errorf("%s is already taken: %w", seat, repository.ErrConflict)
	case database.IsDeadlock(err):
		return fmt.Errorf("concurrent booking, retry: %w", repository.ErrConflict)
	case database.IsForeignKeyViolation(err):
		return fmt.Errorf("show session no longer exists: %w", repository.ErrNotFound)
	}
	return err
}

// publish emits the reservation.created event.  Failures are logged and
// never reach the caller.
func (s *ReservationService) publish(ctx context.Context, res *model.Reservation, sessions map[uint64]repository.SessionRow) {
	ev := queue.ReservationCreatedEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		CreatedAt:     res.CreatedAt,
		Tickets:       make([]queue.EventTicket, 0, len(res.Tickets)),
	}
	for _, t := range res.Tickets {
		sess := sessions[t.SessionID]
		ev.Tickets = append(ev.Tickets, queue.EventTicket{
			TicketID:  t.ID,
			SessionID: t.SessionID,
			ShowTitle: sess.ShowTitle,
			DomeName:  sess.Dome.Name,
			ShowTime:  sess.Session.ShowTime,
			Row:       t.Row,
			Seat:      t.Seat,
		})
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.pub.PublishReservationCreated(pctx, ev); err != nil {
		s.log.Warn("QUEUE", fmt.Sprintf("publish reservation %d failed: %v", res.ID, err))
	}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
