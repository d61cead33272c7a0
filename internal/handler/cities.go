package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parkease/parkease/internal/repository"
)

// CityHandler serves the seed-only city list.
type CityHandler struct {
	Cities *repository.CityRepo
}

func NewCityHandler(cities *repository.CityRepo) *CityHandler {
	return &CityHandler{Cities: cities}
}

// List returns every supported city, optionally narrowed to one state.
func (h *CityHandler) List(c echo.Context) error {
	if state := c.QueryParam("state"); state != "" {
		cities, err := h.Cities.ListByState(c.Request().Context(), state)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
		}
		return c.JSON(http.StatusOK, cities)
	}
	return c.JSON(http.StatusOK, h.Cities.GetAll(c.Request().Context()))
}

// Get returns one city by id.
func (h *CityHandler) Get(c echo.Context) error {
	city, err := h.Cities.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "city not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, city)
}
