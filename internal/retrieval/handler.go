package retrieval

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/ragomesh/internal/domain"
	"github.com/liliang-cn/ragomesh/internal/httpmw"
)

// Handler adapts Service to gin's HTTP surface.
type Handler struct {
	svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the retrieval routes onto r.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/api/v1/retrieve", h.retrieve)
	r.GET("/health", h.health)
}

func (h *Handler) retrieve(c *gin.Context) {
	var req domain.RetrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpmw.AbortWithError(c, domain.NewValidation("Invalid request body."))
		return
	}

	resp, err := h.svc.Retrieve(c.Request.Context(), req.Query)
	if err != nil {
		httpmw.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, domain.HealthResponse{Status: "ok"})
}
