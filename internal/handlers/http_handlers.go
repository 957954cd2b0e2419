package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"santa/internal/models"
	"santa/internal/notify"
	"santa/internal/services"
	"santa/internal/storage"
	"santa/internal/ticket"
)

const eventIDKey = "eventID"

// HTTPHandler holds the dependencies for the HTTP handlers, like the santa service.
type HTTPHandler struct {
	service *services.SantaService
	version string
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.SantaService, version string) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		version: version,
	}
}

type ticketRequest struct {
	Name       string `json:"n" binding:"required"`
	Email      string `json:"e" binding:"required,email"`
	Group      string `json:"g"`
	Department string `json:"d"`
	Wishlist   string `json:"w"`
}

type detailsRequest struct {
	ID             string `json:"id"`
	EventName      string `json:"eventName" binding:"required"`
	OrganizerName  string `json:"organizerName"`
	OrganizerEmail string `json:"organizerEmail" binding:"required,email"`
	Budget         string `json:"budget"`
	ExchangeDate   string `json:"exchangeDate"`
	DrawDate       string `json:"drawDate"`
	Message        string `json:"message"`
}

func (r detailsRequest) details() models.EventDetails {
	return models.EventDetails{
		ID:             r.ID,
		EventName:      r.EventName,
		OrganizerName:  r.OrganizerName,
		OrganizerEmail: r.OrganizerEmail,
		Budget:         r.Budget,
		ExchangeDate:   r.ExchangeDate,
		DrawDate:       r.DrawDate,
		Message:        r.Message,
	}
}

type participantRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Group      string `json:"group"`
	Department string `json:"department"`
	Wishlist   string `json:"wishlist"`
}

type ticketImportRequest struct {
	Code string `json:"code" binding:"required"`
}

// statusFor maps service and storage errors onto HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, services.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidID),
		errors.Is(err, services.ErrInvalidEvent),
		errors.Is(err, services.ErrInvalidParticipant),
		errors.Is(err, ticket.ErrInvalidTicket):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrEventExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrInsufficientParticipants),
		errors.Is(err, services.ErrDrawExhausted),
		errors.Is(err, services.ErrNoDraw),
		errors.Is(err, services.ErrStaleDraw):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *HTTPHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// RegisterPublicRoutes registers the routes that are not scoped to one event.
func (h *HTTPHandler) RegisterPublicRoutes(router gin.IRouter) {
	for _, path := range []string{"/health", "/api/health", "/api/version"} {
		router.GET(path, h.Health)
	}
	router.POST("/api/save", h.SaveBundle)
	router.GET("/api/get", h.GetBundle)
	router.POST("/api/tickets", h.CreateTicket)
	router.POST("/api/events", h.CreateEvent)
}

// RegisterEventRoutes registers the routes of a group mounted at /api/events/:id.
func (h *HTTPHandler) RegisterEventRoutes(router gin.IRouter) {
	router.GET("", h.GetEvent)
	router.PUT("/details", h.UpdateDetails)
	router.POST("/participants", h.AddParticipant)
	router.DELETE("/participants/:pid", h.RemoveParticipant)
	router.POST("/participants/ticket", h.ImportTicket)
	router.POST("/participants/csv", h.UploadParticipantsCSV)
	router.POST("/draw", h.PerformDraw)
	router.GET("/pairings", h.GetPairings)
	router.GET("/pairings/export", h.ExportPairingsCSV)
	router.GET("/reveal/:giverId", h.Reveal)
	router.POST("/notify", h.Notify)
}

// EventMiddleware resolves the :id path parameter into a sanitized event id.
func (h *HTTPHandler) EventMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := storage.SanitizeID(c.Param("id"))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.Set(eventIDKey, id)
		c.Next()
	}
}

// Health reports the service version and the storage tier in use.
func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"version": h.version,
		"storage": h.service.StorageKind(),
	})
}

// SaveBundle stores a whole event bundle sent by the browser client.
func (h *HTTPHandler) SaveBundle(c *gin.Context) {
	var bundle models.EventBundle
	if err := c.ShouldBindJSON(&bundle); err != nil || bundle.Details.ID == "" {
		status := http.StatusBadRequest
		if err != nil && statusFor(err) == http.StatusRequestEntityTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"success": false, "message": "Invalid data structure"})
		return
	}

	mode, err := h.service.SaveBundle(c.Request.Context(), &bundle)
	if err != nil {
		if statusFor(err) == http.StatusBadRequest {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}
		// A 500 tells the client to keep its local copy.
		logger.Errorf("Error saving event %s: %v", bundle.Details.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "mode": mode})
}

// GetBundle returns the bundle of the event named by the id query parameter.
func (h *HTTPHandler) GetBundle(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing ID"})
		return
	}

	bundle, err := h.service.GetEvent(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}

// CreateTicket encodes a join form into a ticket code.
func (h *HTTPHandler) CreateTicket(c *gin.Context) {
	var req ticketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	code, err := ticket.Encode(models.TicketData{
		Name:       req.Name,
		Email:      req.Email,
		Group:      req.Group,
		Department: req.Department,
		Wishlist:   req.Wishlist,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": code})
}

// CreateEvent registers a new event.
func (h *HTTPHandler) CreateEvent(c *gin.Context) {
	var req detailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bundle, mode, err := h.service.CreateEvent(c.Request.Context(), req.details())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": bundle, "mode": mode})
}

// GetEvent returns the full bundle, including the master list.
func (h *HTTPHandler) GetEvent(c *gin.Context) {
	bundle, err := h.service.GetEvent(c.Request.Context(), c.GetString(eventIDKey))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}

// UpdateDetails replaces the event details.
func (h *HTTPHandler) UpdateDetails(c *gin.Context) {
	var req detailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bundle, mode, err := h.service.UpdateDetails(c.Request.Context(), c.GetString(eventIDKey), req.details())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": bundle, "mode": mode})
}

// AddParticipant handles the form submission for adding a new participant.
func (h *HTTPHandler) AddParticipant(c *gin.Context) {
	var req participantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, mode, err := h.service.AddParticipant(c.Request.Context(), c.GetString(eventIDKey), models.Participant{
		Name:       req.Name,
		Email:      req.Email,
		Group:      req.Group,
		Department: req.Department,
		Wishlist:   req.Wishlist,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"participant": p, "mode": mode})
}

// RemoveParticipant deletes a participant by id.
func (h *HTTPHandler) RemoveParticipant(c *gin.Context) {
	mode, err := h.service.RemoveParticipant(c.Request.Context(), c.GetString(eventIDKey), c.Param("pid"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode})
}

// ImportTicket adds the participant encoded in a ticket code.
func (h *HTTPHandler) ImportTicket(c *gin.Context) {
	var req ticketImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, mode, err := h.service.ImportTicket(c.Request.Context(), c.GetString(eventIDKey), req.Code)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"participant": p, "mode": mode})
}

// UploadParticipantsCSV imports participants from a multipart "file" field
// or, failing that, from the raw request body.
func (h *HTTPHandler) UploadParticipantsCSV(c *gin.Context) {
	var src io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, _, err := c.Request.FormFile("file")
		if err != nil {
			status := http.StatusBadRequest
			if statusFor(err) == http.StatusRequestEntityTooLarge {
				status = http.StatusRequestEntityTooLarge
			}
			c.JSON(status, gin.H{"error": "Error retrieving file: " + err.Error()})
			return
		}
		defer file.Close()
		src = file
	}

	added, mode, err := h.service.ImportCSV(c.Request.Context(), c.GetString(eventIDKey), src)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"participants": added, "mode": mode})
}

// PerformDraw runs the pairing draw for the event.
func (h *HTTPHandler) PerformDraw(c *gin.Context) {
	pairings, mode, err := h.service.Draw(c.Request.Context(), c.GetString(eventIDKey))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pairings": pairings, "mode": mode})
}

// GetPairings returns the organizer's master list.
func (h *HTTPHandler) GetPairings(c *gin.Context) {
	pairings, err := h.service.Pairings(c.Request.Context(), c.GetString(eventIDKey))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pairings": pairings})
}

// ExportPairingsCSV handles the request to download the master list as a CSV file.
func (h *HTTPHandler) ExportPairingsCSV(c *gin.Context) {
	id := c.GetString(eventIDKey)
	pairings, err := h.service.Pairings(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment;filename=secret_santa_"+id+".csv")
	if err := services.WritePairingsCSV(c.Writer, pairings); err != nil {
		logger.Infof("Error writing pairings CSV for event %s: %v", id, err)
	}
}

// Reveal shows one giver their assignment.
func (h *HTTPHandler) Reveal(c *gin.Context) {
	tag := notify.ResolveTag(c.Query("lang"), c.GetHeader("Accept-Language"))
	rev, err := h.service.Reveal(c.Request.Context(), c.GetString(eventIDKey), c.Param("giverId"), tag)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rev)
}

// Notify emails every giver their assignment.
func (h *HTTPHandler) Notify(c *gin.Context) {
	tag := notify.ResolveTag(c.Query("lang"), c.GetHeader("Accept-Language"))
	sent, err := h.service.Notify(c.Request.Context(), c.GetString(eventIDKey), tag)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}
