package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/config"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/database/dbtest"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/logger"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/model"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/queue"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/repository"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/service"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationCreatedEvent
	err    error
}

func (p *recordingPublisher) PublishReservationCreated(_ context.Context, ev queue.ReservationCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type env struct {
	svc      *service.ReservationService
	pub      *recordingPublisher
	sessions *repository.SessionRepo
	res      *repository.ReservationRepo
	userID   uint64
	session  model.Session
	dome     model.Dome
}

func setup(t *testing.T, policy config.EmptyReservationPolicy) env {
	t.Helper()
	ctx := context.Background()
	db := dbtest.Open(t)

	users := repository.NewUserRepo(db)
	uid, err := users.Create(ctx, "user@example.com", "pass1234", model.RoleUser, bcrypt.MinCost)
	require.NoError(t, err)

	show, err := repository.NewShowRepo(db, policy).Create(ctx, model.Show{Title: "Cosmos", Description: "d"}, nil)
	require.NoError(t, err)
	dome, err := repository.NewDomeRepo(db, policy).Create(ctx, model.Dome{Name: "Main", Rows: 5, SeatsInRow: 10})
	require.NoError(t, err)
	sessions := repository.NewSessionRepo(db, policy)
	sess, err := sessions.Create(ctx, model.Session{ShowID: show.ID, DomeID: dome.ID, ShowTime: time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	resRepo := repository.NewReservationRepo(db)
	pub := &recordingPublisher{}
	return env{
		svc:      service.NewReservationService(resRepo, pub, logger.Discard()),
		pub:      pub,
		sessions: sessions,
		res:      resRepo,
		userID:   uid,
		session:  sess,
		dome:     dome,
	}
}

func (e env) available(t *testing.T) int {
	t.Helper()
	d, err := e.sessions.List(context.Background(), repository.SessionFilter{})
	require.NoError(t, err)
	require.Len(t, d, 1)
	return d[0].TicketsAvailable()
}

func (e env) reservationCount(t *testing.T) int {
	t.Helper()
	n, err := e.res.CountByUser(context.Background(), e.userID)
	require.NoError(t, err)
	return n
}

func TestBookingScenario(t *testing.T) {
	e := setup(t, config.KeepEmptyReservations)
	ctx := context.Background()
	assert.Equal(t, 50, e.available(t))

	res, err := e.svc.Create(ctx, e.userID, []service.TicketRequest{{Row: 1, Seat: 1, SessionID: e.session.ID}})
	require.NoError(t, err)
	require.Len(t, res.Tickets, 1)
	assert.NotZero(t, res.ID)
	assert.NotZero(t, res.Tickets[0].ID)
	assert.Equal(t, 49, e.available(t))

	_, err = e.svc.Create(ctx, e.userID, []service.TicketRequest{{Row: 1, Seat: 1, SessionID: e.session.ID}})
	require.ErrorIs(t, err, repository.ErrConflict)
	assert.Contains(t, err.Error(), "row 1, seat 1")
	assert.Equal(t, 49, e.available(t))
	assert.Equal(t, 1, e.reservationCount(t))
}

func TestRowOutOfRange(t *testing.T) {
	e := setup(t, config.KeepEmptyReservations)

	_, err := e.svc.Create(context.Background(), e.userID, []service.TicketRequest{
		{Row: 1, Seat: 2, SessionID: e.session.ID},
		{Row: 6, Seat: 1, SessionID: e.session.ID},
	})
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "row", ve.Field)
	assert.Equal(t, []int{1, 5}, ve.Range)
	require.NotNil(t, ve.Index)
	assert.Equal(t, 1, *ve.Index)
	assert.Equal(t, "row number must be in available range: (1, 5)", ve.Message)

	assert.Equal(t, 50, e.available(t))
	assert.Equal(t, 0, e.reservationCount(t))
}

func TestBoundsAreNeverClamped(t *testing.T) {
	e := setup(t, config.KeepEmptyReservations)
	tests := []struct {
		name      string
		row, seat int
		field     string
		max       int
	}{
		{"row zero", 0, 1, "row", 5},
		{"negative row", -1, 1, "row", 5},
		{"seat zero", 1, 0, "seat", 10},
		{"seat past end", 1, 11, "seat", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Create(context.Background(), e.userID, []service.TicketRequest{{Row: tt.row, Seat: tt.seat, SessionID: e.session.ID}})
			var ve *service.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, []int{1, tt.max}, ve.Range)
		})
	}
	_, err := e.svc.Create(context.Background(), e.userID, []service.TicketRequest{{Row: 5, Seat: 10, SessionID: e.session.ID}})
	assert.NoError(t, err)
}

func TestEmptyTicketList(t *testing.T) {
	e := setup(t, config.KeepEmptyReservations)
	_, err := e.svc.Create(context.Background(), e.userID, nil)
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "tickets", ve.Field)
	assert.True(t, service.IsValidation(err))
	assert.Equal(t, 0, e.reservationCount(t))
}

func TestUnknownSession(t *testing.T) {
	e := setup(t, config.KeepEmptyReservations)
	_, err := e.svc.Create(context.Background(), e.userID, []service.TicketRequest{{Row: 1, Seat: 1, SessionID: 999}})
	require.ErrorIs(t, err, repository.ErrNotFound)
	assert.Contains(t, err.Error(), "999")
	assert.Equal(t, 0, e.reservationCount(t))
}

func TestDuplicateSeatInOneRequestRollsBack(t *testing.T) {
	e := setup(t, config.KeepEmptyReservations)
	_, err := e.svc.Create(context.Background(), e.userID, []service.TicketRequest{
		{Row: 2, Seat: 2, SessionID: e.session.ID},
		{Row: 2, Seat: 2, SessionID: e.session.ID},
	})
	require.ErrorIs(t, err, repository.ErrConflict)
	assert.Equal(t, 50, e.available(t))
	assert.Equal(t, 0, e.reservationCount(t))
	assert.Empty(t, e.pub.events)
}

// TestConcurrentSameSeat checks the outcome of two racing bookings.  The
// SQLite pool has a single connection, so the transactions serialize and
// the loser hits the unique index after the winner commits.  A true
// interleaved insert race only happens on MySQL, where the same index
// reports 1062 or 1213 and both map to ErrConflict (see database/errors_test.go).
func TestConcurrentSameSeat(t *testing.T) {
	e := setup(t, config.KeepEmptyReservations)
	req := []service.TicketRequest{{Row: 3, Seat: 3, SessionID: e.session.ID}}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.Create(context.Background(), e.userID, req)
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, repository.ErrConflict):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflict)
	assert.Equal(t, 49, e.available(t))
}

func TestEventPublishedAfterCommit(t *testing.T) {
	e := setup(t, config.KeepEmptyReservations)
	res, err := e.svc.Create(context.Background(), e.userID, []service.TicketRequest{
		{Row: 1, Seat: 1, SessionID: e.session.ID},
		{Row: 1, Seat: 2, SessionID: e.session.ID},
	})
	require.NoError(t, err)

	require.Len(t, e.pub.events, 1)
	ev := e.pub.events[0]
	assert.Equal(t, res.ID, ev.ReservationID)
	assert.Equal(t, e.userID, ev.UserID)
	require.Len(t, ev.Tickets, 2)
	assert.Equal(t, "Cosmos", ev.Tickets[0].ShowTitle)
	assert.Equal(t, "Main", ev.Tickets[0].DomeName)
	assert.True(t, e.session.ShowTime.Equal(ev.Tickets[0].ShowTime))
}

func TestPublishFailureDoesNotFailBooking(t *testing.T) {
	e := setup(t, config.KeepEmptyReservations)
	e.pub.err = errors.New("broker down")

	_, err := e.svc.Create(context.Background(), e.userID, []service.TicketRequest{{Row: 4, Seat: 4, SessionID: e.session.ID}})
	require.NoError(t, err)
	assert.Equal(t, 49, e.available(t))
}

func TestSessionDeleteCascade(t *testing.T) {
	for _, policy := range []config.EmptyReservationPolicy{config.KeepEmptyReservations, config.DeleteEmptyReservations} {
		t.Run(string(policy), func(t *testing.T) {
			e := setup(t, policy)
			ctx := context.Background()
			res, err := e.svc.Create(ctx, e.userID, []service.TicketRequest{{Row: 1, Seat: 1, SessionID: e.session.ID}})
			require.NoError(t, err)

			require.NoError(t, e.sessions.Delete(ctx, e.session.ID))

			got, err := e.res.GetForUser(ctx, e.userID, res.ID)
			if policy == config.KeepEmptyReservations {
				require.NoError(t, err)
				assert.Empty(t, got.Tickets)
				assert.Equal(t, 1, e.reservationCount(t))
			} else {
				assert.ErrorIs(t, err, repository.ErrNotFound)
				assert.Equal(t, 0, e.reservationCount(t))
			}
		})
	}
}
