package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/logger"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/middleware"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/repository"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/service"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/utils"
)

const qrSize = 256

// ReservationHandler lets authenticated users book tickets and read back
// their own reservations.
type ReservationHandler struct {
	Reservations *repository.ReservationRepo
	Service      *service.ReservationService
	Pages        Paginator

	ser *Serializer
	log *logger.Logger
}

func NewReservationHandler(repo *repository.ReservationRepo, svc *service.ReservationService, pages Paginator, log *logger.Logger) *ReservationHandler {
	if repo == nil || svc == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: repo, Service: svc, Pages: pages, ser: NewSerializer(nil), log: log}
}

type ticketBody struct {
	Row         *int    `json:"row" validate:"required"`
	Seat        *int    `json:"seat" validate:"required"`
	ShowSession *uint64 `json:"show_session" validate:"required"`
}

type reservationBody struct {
	Tickets []ticketBody `json:"tickets" validate:"dive"`
}

// currentUser reads the id JWTAuth stored; its absence means the route
// was mounted without the middleware.
func currentUser(c echo.Context) (uint64, error) {
	uid, ok := middleware.UserID(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
	}
	return uid, nil
}

// ListReservations returns the caller's reservations, newest first, one
// page at a time.
func (h *ReservationHandler) ListReservations(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	page, err := h.Pages.parse(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	ctx := c.Request().Context()
	count, err := h.Reservations.CountByUser(ctx, uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	list, err := h.Reservations.ListByUser(ctx, uid, page.Size, page.Offset())
	if err != nil {
		return writeError(c, h.log, err)
	}
	results := make([]any, 0, len(list))
	for _, v := range list {
		body, err := h.ser.reservations.render(actionList, v)
		if err != nil {
			return writeError(c, h.log, err)
		}
		results = append(results, body)
	}
	out, err := build(c, page, count, results)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// CreateReservation books every requested ticket or none of them.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req reservationBody
	if err := bindValid(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	if req.Tickets == nil {
		return writeError(c, h.log, required("tickets"))
	}
	reqs := make([]service.TicketRequest, 0, len(req.Tickets))
	for _, t := range req.Tickets {
		reqs = append(reqs, service.TicketRequest{Row: *t.Row, Seat: *t.Seat, SessionID: *t.ShowSession})
	}
	res, err := h.Service.Create(c.Request().Context(), uid, reqs)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, h.log, http.StatusCreated, h.ser.reservations, actionWrite, viewOf(res))
}

// GetReservation returns one reservation of the caller.  Reservations of
// other users are reported as missing.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	v, err := h.Reservations.GetForUser(c.Request().Context(), uid, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return respond(c, h.log, http.StatusOK, h.ser.reservations, actionRetrieve, v)
}

// TicketQR renders a PNG QR code for one ticket of the caller.
func (h *ReservationHandler) TicketQR(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	rid, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	tid, err := pathID(c, "ticket_id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	tv, err := h.Reservations.TicketForUser(c.Request().Context(), uid, rid, tid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	payload := utils.TicketQRPayload(rid, tv.Ticket.ID, tv.Session.ID, tv.Ticket.Row, tv.Ticket.Seat, tv.Session.ShowTime)
	png, err := utils.QRCodePNG(payload, qrSize)
	if err != nil {
		return writeError(c, h.log, fmt.Errorf("render ticket qr: %w", err))
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "image/png", png)
}
