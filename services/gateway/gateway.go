// Package gateway is the HTTP front door. Clients authenticate with
// portal credentials via basic auth on every request; the session
// manager behind the student API keeps that from turning into a login
// per request.
package gateway

import (
	"errors"
	"net/http"
	"univer-backend/services/notify"
	"univer-backend/services/univer"
	"univer-backend/services/univer/student"

	"github.com/gin-gonic/gin"
)

type Options struct {
	// VapidPublicKey is handed to clients so they can subscribe to
	// push. Empty disables the push endpoints.
	VapidPublicKey string
}

type Handler struct {
	students map[string]*student.Service
	store    *notify.Store
	opts     Options
}

func NewHandler(students map[string]*student.Service, store *notify.Store, opts Options) *Handler {
	return &Handler{students: students, store: store, opts: opts}
}

// Router builds the gin engine with every route attached.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/api/institutions", h.Institutions)

	api := router.Group("/", h.withCredential)
	api.POST("/auth/login", h.Login)
	api.GET("/api/attestation", h.Attestation)
	api.GET("/api/attendance", h.Attendance)
	api.GET("/api/schedule", h.Schedule)
	api.GET("/api/exams", h.Exams)
	api.GET("/api/transcript", h.Transcript)
	api.GET("/api/materials", h.Materials)
	api.GET("/api/translations", h.Translations)

	if h.opts.VapidPublicKey != "" {
		router.GET("/push/key", h.PushKey)
		api.POST("/push/subscribe", h.Subscribe)
		router.POST("/push/unsubscribe", h.Unsubscribe)
	}

	return router
}

const (
	ctxCredential  = "credential"
	ctxInstitution = "institution"
)

// withCredential pulls the institution and portal credentials off the
// request and resolves the matching student service.
func (h *Handler) withCredential(c *gin.Context) {
	username, password, ok := c.Request.BasicAuth()
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
		return
	}
	institution := c.GetHeader("X-Institution")
	if institution == "" {
		institution = c.Query("institution")
	}
	if _, ok := h.students[institution]; !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown institution"})
		return
	}

	c.Set(ctxInstitution, institution)
	c.Set(ctxCredential, univer.Credential{Username: username, Password: password})
	c.Next()
}

func (h *Handler) request(c *gin.Context) (*student.Service, univer.Credential, string) {
	institution := c.GetString(ctxInstitution)
	cred := c.MustGet(ctxCredential).(univer.Credential)
	return h.students[institution], cred, institution
}

func lang(c *gin.Context) string {
	if l := c.Query("lang"); l != "" {
		return l
	}
	return "ru"
}

// respond writes the payload or maps a scraper error onto a status
// code.
func respond(c *gin.Context, payload any, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, payload)
	case errors.Is(err, univer.ErrInvalidCredential):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, univer.ErrAuthorizationExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
	case errors.Is(err, univer.ErrAuthorizationTimeout):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "login queue is full, retry later"})
	case errors.Is(err, univer.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "portal did not answer"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) Institutions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"institutions": univer.Institutions()})
}

func (h *Handler) Login(c *gin.Context) {
	service, cred, _ := h.request(c)
	err := service.CheckCredential(c.Request.Context(), cred)
	respond(c, gin.H{"status": "ok"}, err)
}

func (h *Handler) Attestation(c *gin.Context) {
	service, cred, _ := h.request(c)
	records, err := service.Attestation(c.Request.Context(), cred, lang(c))
	respond(c, records, err)
}

func (h *Handler) Attendance(c *gin.Context) {
	service, cred, _ := h.request(c)
	records, err := service.Attendance(c.Request.Context(), cred, lang(c))
	respond(c, records, err)
}

func (h *Handler) Schedule(c *gin.Context) {
	service, cred, _ := h.request(c)
	schedule, err := service.Schedule(c.Request.Context(), cred, lang(c))
	respond(c, schedule, err)
}

func (h *Handler) Exams(c *gin.Context) {
	service, cred, _ := h.request(c)
	exams, err := service.Exams(c.Request.Context(), cred, lang(c))
	respond(c, exams, err)
}

func (h *Handler) Transcript(c *gin.Context) {
	service, cred, _ := h.request(c)
	transcript, err := service.Transcript(c.Request.Context(), cred, lang(c))
	respond(c, transcript, err)
}

func (h *Handler) Materials(c *gin.Context) {
	service, cred, _ := h.request(c)
	materials, err := service.Materials(c.Request.Context(), cred, lang(c))
	respond(c, materials, err)
}

func (h *Handler) Translations(c *gin.Context) {
	service, cred, _ := h.request(c)
	translations, err := service.Translations(c.Request.Context(), cred)
	respond(c, translations, err)
}

func (h *Handler) PushKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"key": h.opts.VapidPublicKey})
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
	Lang string `json:"lang"`
}

// Subscribe verifies the credentials actually work before persisting
// them: the notify daemon must never sit on credentials it cannot log
// in with.
func (h *Handler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Lang == "" {
		req.Lang = "ru"
	}

	service, cred, institution := h.request(c)
	if err := service.CheckCredential(c.Request.Context(), cred); err != nil {
		respond(c, nil, err)
		return
	}

	id, err := h.store.Subscribe(c.Request.Context(), notify.Subscriber{
		Institution: institution,
		Credential:  cred,
		Endpoint:    req.Endpoint,
		KeyP256dh:   req.Keys.P256dh,
		KeyAuth:     req.Keys.Auth,
		Lang:        req.Lang,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

func (h *Handler) Unsubscribe(c *gin.Context) {
	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.Unsubscribe(c.Request.Context(), req.Endpoint); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
