package handler

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/logger"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/model"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/repository"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/storage"
)

// action selects the representation of an entity in a response.
type action int

const (
	actionList action = iota
	actionRetrieve
	actionWrite
)

func (a action) String() string {
	switch a {
	case actionList:
		return "list"
	case actionRetrieve:
		return "retrieve"
	case actionWrite:
		return "write"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// shapeTable maps each action to the response shape of one entity.
type shapeTable[T any] map[action]func(T) any

func (t shapeTable[T]) render(a action, v T) (any, error) {
	f, ok := t[a]
	if !ok {
		return nil, fmt.Errorf("no %s shape registered", a)
	}
	return f(v), nil
}

// respond renders v for action a and writes it with status code.
func respond[T any](c echo.Context, log *logger.Logger, code int, t shapeTable[T], a action, v T) error {
	body, err := t.render(a, v)
	if err != nil {
		return writeError(c, log, err)
	}
	return c.JSON(code, body)
}

// Response bodies.

type themeOut struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type domeOut struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Rows       int    `json:"rows"`
	SeatsInRow int    `json:"seats_in_row"`
	Capacity   int    `json:"capacity"`
}

type showListOut struct {
	ID          uint64   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ShowThemes  []string `json:"show_themes"`
	Image       *string  `json:"image"`
}

type showDetailOut struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ShowThemes  []themeOut `json:"show_themes"`
	Image       *string    `json:"image"`
}

type showWriteOut struct {
	ID          uint64   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ShowThemes  []uint64 `json:"show_themes"`
	Image       *string  `json:"image"`
}

type showImageOut struct {
	ID    uint64  `json:"id"`
	Image *string `json:"image"`
}

type sessionListOut struct {
	ID                      uint64    `json:"id"`
	ShowTime                time.Time `json:"show_time"`
	AstronomyShow           string    `json:"astronomy_show"`
	AstronomyShowImage      *string   `json:"astronomy_show_image"`
	PlanetariumDome         string    `json:"planetarium_dome"`
	PlanetariumDomeCapacity int       `json:"planetarium_dome_capacity"`
	TicketsAvailable        int       `json:"tickets_available"`
}

type placeOut struct {
	Row  int `json:"row"`
	Seat int `json:"seat"`
}

type sessionDetailOut struct {
	ID              uint64        `json:"id"`
	ShowTime        time.Time     `json:"show_time"`
	AstronomyShow   showDetailOut `json:"astronomy_show"`
	PlanetariumDome domeOut       `json:"planetarium_dome"`
	TakenPlaces     []placeOut    `json:"taken_places"`
}

type sessionWriteOut struct {
	ID              uint64    `json:"id"`
	AstronomyShow   uint64    `json:"astronomy_show"`
	PlanetariumDome uint64    `json:"planetarium_dome"`
	ShowTime        time.Time `json:"show_time"`
}

type sessionSummaryOut struct {
	ID              uint64    `json:"id"`
	AstronomyShow   string    `json:"astronomy_show"`
	PlanetariumDome string    `json:"planetarium_dome"`
	ShowTime        time.Time `json:"show_time"`
}

type ticketListOut struct {
	ID          uint64            `json:"id"`
	Row         int               `json:"row"`
	Seat        int               `json:"seat"`
	ShowSession sessionSummaryOut `json:"show_session"`
}

type ticketWriteOut struct {
	ID          uint64 `json:"id"`
	Row         int    `json:"row"`
	Seat        int    `json:"seat"`
	ShowSession uint64 `json:"show_session"`
}

type reservationListOut struct {
	ID        uint64          `json:"id"`
	Tickets   []ticketListOut `json:"tickets"`
	CreatedAt time.Time       `json:"created_at"`
	User      uint64          `json:"user"`
}

type reservationWriteOut struct {
	ID        uint64           `json:"id"`
	Tickets   []ticketWriteOut `json:"tickets"`
	CreatedAt time.Time        `json:"created_at"`
	User      uint64           `json:"user"`
}

// Serializer renders domain values.  Image values are turned into public
// URLs through the configured store.
type Serializer struct {
	images storage.ImageStore

	shows        shapeTable[model.Show]
	reservations shapeTable[repository.ReservationView]
}

func NewSerializer(images storage.ImageStore) *Serializer {
	s := &Serializer{images: images}
	s.shows = shapeTable[model.Show]{
		actionList:     func(v model.Show) any { return s.showList(v) },
		actionRetrieve: func(v model.Show) any { return s.showDetail(v) },
		actionWrite:    func(v model.Show) any { return s.showWrite(v) },
	}
	s.reservations = shapeTable[repository.ReservationView]{
		actionList:     func(v repository.ReservationView) any { return s.reservationList(v) },
		actionRetrieve: func(v repository.ReservationView) any { return s.reservationList(v) },
		actionWrite:    func(v repository.ReservationView) any { return s.reservationWrite(v) },
	}
	return s
}

func (s *Serializer) imageURL(stored *string) *string {
	if stored == nil || s.images == nil {
		return stored
	}
	u := s.images.URL(*stored)
	return &u
}

func (s *Serializer) theme(t model.Theme) themeOut {
	return themeOut{ID: t.ID, Name: t.Name}
}

func (s *Serializer) dome(d model.Dome) domeOut {
	return domeOut{ID: d.ID, Name: d.Name, Rows: d.Rows, SeatsInRow: d.SeatsInRow, Capacity: d.Capacity()}
}

func (s *Serializer) showList(v model.Show) showListOut {
	return showListOut{ID: v.ID, Title: v.Title, Description: v.Description, ShowThemes: v.ThemeNames(), Image: s.imageURL(v.Image)}
}

func (s *Serializer) showDetail(v model.Show) showDetailOut {
	themes := make([]themeOut, 0, len(v.Themes))
	for _, t := range v.Themes {
		themes = append(themes, s.theme(t))
	}
	return showDetailOut{ID: v.ID, Title: v.Title, Description: v.Description, ShowThemes: themes, Image: s.imageURL(v.Image)}
}

func (s *Serializer) showWrite(v model.Show) showWriteOut {
	return showWriteOut{ID: v.ID, Title: v.Title, Description: v.Description, ShowThemes: v.ThemeIDs(), Image: s.imageURL(v.Image)}
}

func (s *Serializer) showImage(v model.Show) showImageOut {
	return showImageOut{ID: v.ID, Image: s.imageURL(v.Image)}
}

// Sessions do not go through a shapeTable: list rows carry booking counts
// and the detail carries taken places, so each action has its own input.

func (s *Serializer) sessionList(r repository.SessionRow) sessionListOut {
	return sessionListOut{
		ID:                      r.Session.ID,
		ShowTime:                r.Session.ShowTime,
		AstronomyShow:           r.ShowTitle,
		AstronomyShowImage:      s.imageURL(r.ShowImage),
		PlanetariumDome:         r.Dome.Name,
		PlanetariumDomeCapacity: r.Dome.Capacity(),
		TicketsAvailable:        r.TicketsAvailable(),
	}
}

func (s *Serializer) sessionDetail(d repository.SessionDetail) sessionDetailOut {
	places := make([]placeOut, 0, len(d.TakenPlaces))
	for _, p := range d.TakenPlaces {
		places = append(places, placeOut{Row: p.Row, Seat: p.Seat})
	}
	return sessionDetailOut{
		ID:              d.Session.ID,
		ShowTime:        d.Session.ShowTime,
		AstronomyShow:   s.showDetail(d.Show),
		PlanetariumDome: s.dome(d.Dome),
		TakenPlaces:     places,
	}
}

func (s *Serializer) sessionWrite(v model.Session) sessionWriteOut {
	return sessionWriteOut{ID: v.ID, AstronomyShow: v.ShowID, PlanetariumDome: v.DomeID, ShowTime: v.ShowTime}
}

func (s *Serializer) reservationList(v repository.ReservationView) reservationListOut {
	tickets := make([]ticketListOut, 0, len(v.Tickets))
	for _, t := range v.Tickets {
		tickets = append(tickets, ticketListOut{
			ID:   t.Ticket.ID,
			Row:  t.Ticket.Row,
			Seat: t.Ticket.Seat,
			ShowSession: sessionSummaryOut{
				ID:              t.Session.ID,
				AstronomyShow:   t.Session.ShowTitle,
				PlanetariumDome: t.Session.DomeName,
				ShowTime:        t.Session.ShowTime,
			},
		})
	}
	return reservationListOut{ID: v.ID, Tickets: tickets, CreatedAt: v.CreatedAt, User: v.UserID}
}

func (s *Serializer) reservationWrite(v repository.ReservationView) reservationWriteOut {
	tickets := make([]ticketWriteOut, 0, len(v.Tickets))
	for _, t := range v.Tickets {
		tickets = append(tickets, ticketWriteOut{ID: t.Ticket.ID, Row: t.Ticket.Row, Seat: t.Ticket.Seat, ShowSession: t.Ticket.SessionID})
	}
	return reservationWriteOut{ID: v.ID, Tickets: tickets, CreatedAt: v.CreatedAt, User: v.UserID}
}

// viewOf wraps a freshly created reservation so it can go through the
// reservation shape table.
func viewOf(r *model.Reservation) repository.ReservationView {
	v := repository.ReservationView{ID: r.ID, UserID: r.UserID, CreatedAt: r.CreatedAt}
	for _, t := range r.Tickets {
		v.Tickets = append(v.Tickets, repository.TicketView{Ticket: t})
	}
	return v
}
