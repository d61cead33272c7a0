package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/repository"
)

// PaymentHandler records simulated payments against bookings.
type PaymentHandler struct {
	Payments *repository.PaymentRepo
	Bookings *repository.BookingRepo
}

func NewPaymentHandler(p *repository.PaymentRepo, b *repository.BookingRepo) *PaymentHandler {
	return &PaymentHandler{Payments: p, Bookings: b}
}

type createPaymentReq struct {
	BookingID int64   `json:"bookingId"`
	Status    string  `json:"status"`
	Method    string  `json:"method"`
	Amount    float64 `json:"amount"`
}

// Create appends a payment record for one of the caller's bookings.
func (h *PaymentHandler) Create(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	var req createPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.BookingID == 0 || req.Method == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bookingId and method required"})
	}
	if req.Status == "" {
		req.Status = "completed"
	}

	ctx := c.Request().Context()
	b, err := h.Bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	if b.UserID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	p := model.Payment{
		BookingID: req.BookingID,
		Status:    req.Status,
		Method:    req.Method,
		Amount:    req.Amount,
	}
	if err := h.Payments.Create(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment could not be saved"})
	}
	return c.JSON(http.StatusCreated, p)
}

// ListByBooking returns the payments recorded against one booking.
func (h *PaymentHandler) ListByBooking(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx := c.Request().Context()
	b, err := h.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	if b.UserID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	payments, err := h.Payments.ListByBooking(ctx, bookingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, payments)
}
