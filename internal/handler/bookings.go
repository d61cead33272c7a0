package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/repository"
)

// BookingHandler serves booking writes and reads.  Writes propagate
// failures as 500s; a booking the user believes exists must actually be
// on disk.
type BookingHandler struct {
	Bookings *repository.BookingRepo
}

func NewBookingHandler(b *repository.BookingRepo) *BookingHandler {
	return &BookingHandler{Bookings: b}
}

type createBookingReq struct {
	SpotID    string  `json:"spotId"`
	Date      string  `json:"date"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
	Price     float64 `json:"price"`
}

// bookingResp is a Booking plus its derived status.
type bookingResp struct {
	model.Booking
	Status string `json:"status"`
}

func toResp(b model.Booking, now time.Time) bookingResp {
	return bookingResp{Booking: b, Status: b.StatusAt(now)}
}

// Create stores a booking and decrements the spot's availability in the
// same transaction.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SpotID == "" || req.Date == "" || req.StartTime == "" || req.EndTime == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "spotId, date, startTime and endTime required"})
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	b := model.Booking{
		UserID:    uid,
		SpotID:    req.SpotID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Price:     req.Price,
	}
	if err := h.Bookings.Create(c.Request().Context(), &b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking could not be saved"})
	}
	return c.JSON(http.StatusCreated, toResp(b, time.Now()))
}

// ListMine returns the authenticated user's bookings with their derived
// status.
func (h *BookingHandler) ListMine(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	now := time.Now()
	bookings := h.Bookings.ListByUser(c.Request().Context(), uid)
	out := make([]bookingResp, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toResp(b, now))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one booking, restricted to its owner.
func (h *BookingHandler) Get(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	b, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	if b.UserID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, toResp(b, time.Now()))
}
