package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"tripplanner/internal/geo"
	"tripplanner/internal/geocode"
	"tripplanner/internal/model"
	"tripplanner/internal/repository"
	"tripplanner/internal/route"
	"tripplanner/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler структурирует зависимости сервисов для обработки HTTP-запросов.
type Handler struct {
	TripService     *service.TripService
	LocationService *service.LocationService
	RouteService    *service.RouteService
}

// NewHandler создает новый Handler с внедрением зависимостей (сервисов).
func NewHandler(ts *service.TripService, ls *service.LocationService, rs *service.RouteService) *Handler {
	return &Handler{
		TripService:     ts,
		LocationService: ls,
		RouteService:    rs,
	}
}

// Register регистрирует маршруты API в группе.
func (h *Handler) Register(api *gin.RouterGroup) {
	api.GET("/trips", h.ListTrips)
	api.POST("/trips", h.CreateTrip)
	api.GET("/trips/:id", h.GetTrip)
	api.POST("/trips/:id/cities", h.CreateCity)
	api.POST("/trips/:id/optimize", h.OptimizeTrip)
	api.POST("/route/preview", h.PreviewRoute)
	api.GET("/transport/suggest", h.SuggestTransport)
	api.GET("/places/search", h.SearchPlaces)
	api.GET("/places/reverse", h.ReversePlace)
}

// ListTrips обработчик для GET /api/trips?owner_id= - возвращает поездки пользователя.
func (h *Handler) ListTrips(c *gin.Context) {
	ownerID, err := strconv.ParseInt(c.Query("owner_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный owner_id"})
		return
	}
	trips, err := h.TripService.ListTrips(c.Request.Context(), ownerID)
	if err != nil {
		log.Printf("Ошибка получения поездок пользователя %d: %v", ownerID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить поездки"})
		return
	}
	c.JSON(http.StatusOK, trips)
}

// CreateTrip обработчик для POST /api/trips - создает поездку.
func (h *Handler) CreateTrip(c *gin.Context) {
	var in model.TripInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные поездки"})
		return
	}
	trip, err := h.TripService.CreateTrip(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err, "Не удалось создать поездку")
		return
	}
	c.JSON(http.StatusCreated, trip)
}

// GetTrip обработчик для GET /api/trips/:id - возвращает поездку с городами.
func (h *Handler) GetTrip(c *gin.Context) {
	id, ok := tripID(c)
	if !ok {
		return
	}
	trip, err := h.TripService.GetTrip(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Не удалось получить поездку")
		return
	}
	c.JSON(http.StatusOK, trip)
}

// CreateCity обработчик для POST /api/trips/:id/cities - добавляет город в поездку.
func (h *Handler) CreateCity(c *gin.Context) {
	id, ok := tripID(c)
	if !ok {
		return
	}
	var in model.CityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные города"})
		return
	}
	city, err := h.TripService.CreateCity(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err, "Не удалось добавить город")
		return
	}
	c.JSON(http.StatusCreated, city)
}

// OptimizeTrip обработчик для POST /api/trips/:id/optimize - упорядочивает города по близости.
func (h *Handler) OptimizeTrip(c *gin.Context) {
	id, ok := tripID(c)
	if !ok {
		return
	}
	cities, err := h.TripService.OptimizeTrip(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Не удалось оптимизировать маршрут")
		return
	}
	c.JSON(http.StatusOK, cities)
}

type previewRequest struct {
	Cities   []model.City       `json:"cities"`
	Home     *model.Coordinates `json:"home"`
	Optimize bool               `json:"optimize"`
}

// PreviewRoute обработчик для POST /api/route/preview - рассчитывает перегоны без сохранения.
func (h *Handler) PreviewRoute(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный маршрут"})
		return
	}
	preview, err := h.RouteService.Preview(req.Cities, req.Home, req.Optimize)
	if err != nil {
		h.respondError(c, err, "Не удалось рассчитать маршрут")
		return
	}
	c.JSON(http.StatusOK, preview)
}

// SuggestTransport обработчик для GET /api/transport/suggest?distance_km=&from_country=&to_country=.
// Без distance_km расстояние считается неизвестным.
func (h *Handler) SuggestTransport(c *gin.Context) {
	var distance *float64
	if raw := c.Query("distance_km"); raw != "" {
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil || d < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректное расстояние"})
			return
		}
		distance = &d
	}
	from := model.Point{Country: c.Query("from_country")}
	to := model.Point{Country: c.Query("to_country")}
	modes := h.RouteService.Suggest(distance, from, to)

	type suggestion struct {
		Mode  model.TransportMode `json:"mode"`
		Label string              `json:"label"`
	}
	out := make([]suggestion, len(modes))
	for i, m := range modes {
		out[i] = suggestion{Mode: m, Label: m.Label()}
	}
	c.JSON(http.StatusOK, gin.H{"distance_km": distance, "default": modes[0], "suggestions": out})
}

// SearchPlaces обработчик для GET /api/places/search?q=&limit= - поиск городов.
func (h *Handler) SearchPlaces(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	places, err := h.LocationService.SearchCities(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		log.Printf("Ошибка поиска городов: %v", err)
		c.JSON(http.StatusOK, []model.Place{})
		return
	}
	c.JSON(http.StatusOK, places)
}

// ReversePlace обработчик для GET /api/places/reverse?lat=&lon= - город по координатам.
func (h *Handler) ReversePlace(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные координаты"})
		return
	}
	place, err := h.LocationService.ReverseGeocode(c.Request.Context(), lat, lon)
	if err != nil {
		h.respondError(c, err, "Не удалось определить город")
		return
	}
	c.JSON(http.StatusOK, place)
}

func tripID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный идентификатор поездки"})
		return 0, false
	}
	return id, true
}

// respondError переводит ошибки сервисов в HTTP-статусы.
func (h *Handler) respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Поездка не найдена"})
	case errors.Is(err, geocode.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Место не найдено"})
	case isValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("%s: %v", message, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		service.ErrEmptyName, service.ErrInvalidDates, service.ErrNegativeBudget,
		service.ErrInvalidMode, service.ErrInvalidLocation, service.ErrInvalidOrderSlot,
		route.ErrDuplicateCity, geo.ErrInvalidCoordinate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
