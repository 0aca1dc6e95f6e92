package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quizrush/internal/app"
	"quizrush/internal/domain"
	"quizrush/internal/logger"
)

// Handler exposes the quiz over REST and websockets.
type Handler struct {
	quiz     *app.QuizService
	rounds   *app.RoundService
	board    *app.LeaderboardService
	control  app.ControlChannel
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewHandler(quiz *app.QuizService, rounds *app.RoundService, board *app.LeaderboardService, control app.ControlChannel, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		quiz:    quiz,
		rounds:  rounds,
		board:   board,
		control: control,
		log:     log.With("component", "http"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := router.Group("/api")
	{
		quiz := api.Group("/quiz")
		{
			quiz.POST("/verify", h.Verify)
			quiz.GET("/status", h.PublicStatus)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/quiz/start", h.StartRound)
			admin.POST("/quiz/close", h.CloseRound)
			admin.GET("/quiz/status", h.AdminStatus)
			admin.GET("/leaderboard", h.Leaderboard)
			admin.GET("/results/:id", h.Result)
		}
	}

	router.GET("/ws/play", h.ServePlay)
	router.GET("/ws/admin", h.ServeAdmin)
	return router
}

type verifyRequest struct {
	Email string `json:"email"`
}

func (h *Handler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	participant, err := h.quiz.Verify(c.Request.Context(), req.Email)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, participant)
}

func (h *Handler) PublicStatus(c *gin.Context) {
	settings, err := h.rounds.Settings(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isActive": settings.IsActive, "round": settings.Round})
}

func (h *Handler) StartRound(c *gin.Context) {
	settings, err := h.rounds.StartRound(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) CloseRound(c *gin.Context) {
	settings, err := h.rounds.CloseRound(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) AdminStatus(c *gin.Context) {
	status, err := h.rounds.Status(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Leaderboard serves the ranked board, optionally filtered by ?q= and cut to ?top=.
func (h *Handler) Leaderboard(c *gin.Context) {
	board, err := h.board.Refresh(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	entries := board.Search(c.Query("q"))
	if raw := strings.TrimSpace(c.Query("top")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top must be a non-negative integer"})
			return
		}
		if n < len(entries) {
			entries = entries[:n]
		}
	}
	c.JSON(http.StatusOK, domain.Leaderboard{Entries: entries, UpdatedAt: board.UpdatedAt})
}

func (h *Handler) Result(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result id"})
		return
	}
	board, err := h.board.Refresh(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	entry, ok := board.Find(id)
	if !ok {
		h.writeError(c, domain.ErrResultNotFound)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrVerificationFailed),
		errors.Is(err, domain.ErrResultNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSettingsNotFound):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrSessionNotActive), errors.Is(err, domain.ErrInvalidOption):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
