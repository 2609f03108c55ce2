package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/flightseats/internal/domain"
	"github.com/Domenick1991/flightseats/internal/service/flights"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type FlightHandler struct {
	service flights.FlightUseCase
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/cities", h.cities)
	router.GET("/flights", h.list)
	router.GET("/flights/:id", h.get)
}

func (h *FlightHandler) cities(c *gin.Context) {
	cities, err := h.service.ListCities(c.Request.Context())
	if err != nil {
		writeError(c, err, "Cities not found", "An error occurred while fetching cities")
		return
	}
	c.JSON(http.StatusOK, cities)
}

func (h *FlightHandler) list(c *gin.Context) {
	filter := domain.FlightFilter{
		Departure:   strings.TrimSpace(c.Query("departure")),
		Destination: strings.TrimSpace(c.Query("destination")),
	}
	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid date, expected YYYY-MM-DD"})
			return
		}
		filter.Date = &date
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err, "Flights not found", "An error occurred while fetching flights")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "Flight not found", "An error occurred while fetching the flight")
		return
	}
	c.JSON(http.StatusOK, flight)
}
