package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Domenick1991/flightseats/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	UserID   userID `json:"user_id"`
	FlightID int64  `json:"flight_id"`
}

// userID takes the requester as a JSON string or number; web clients send
// numeric ids.
type userID string

func (u *userID) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = userID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*u = userID(n.String())
	return nil
}

type createBookingResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

// Register mounts the booking routes. The user listing and the cancel
// route share the :id wildcard because gin allows one name per segment.
func (h *BookingHandler) Register(router *gin.RouterGroup, create ...gin.HandlerFunc) {
	router.POST("", append(create, h.create)...)
	router.GET("/:id", h.listByUser)
	router.PUT("/:id/cancel", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		UserID:   string(req.UserID),
		FlightID: req.FlightID,
	})
	if err != nil {
		writeError(c, err, "Flight not found", "An error occurred while booking the flight")
		return
	}

	c.JSON(http.StatusCreated, createBookingResponse{ID: created.ID, Message: "Booking successful"})
}

func (h *BookingHandler) listByUser(c *gin.Context) {
	bookings, err := h.service.ListUserBookings(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "User not found", "An error occurred while fetching bookings")
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid booking id"})
		return
	}

	if _, err := h.service.CancelBooking(c.Request.Context(), id); err != nil {
		writeError(c, err, "Booking not found", "An error occurred while cancelling the booking")
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Booking cancelled successfully"})
}
