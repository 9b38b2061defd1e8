package orchestrator

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/ragomesh/internal/domain"
	"github.com/liliang-cn/ragomesh/internal/httpmw"
)

// Handler adapts Service to the public gin HTTP surface.
type Handler struct {
	svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the orchestrator's public routes onto r.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/api/v1/chat", h.chat)
	r.POST("/api/v1/documents/upload", h.upload)
	r.GET("/api/v1/documents", h.listDocuments)
	r.DELETE("/api/v1/documents", h.deleteDocuments)
	r.GET("/api/v1/ingestion/status", h.ingestionStatus)
	r.GET("/health", h.health)
}

func (h *Handler) chat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpmw.AbortWithError(c, domain.NewValidation("Invalid request body."))
		return
	}

	resp, err := h.svc.Chat(c.Request.Context(), req.Message)
	if err != nil {
		httpmw.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpmw.AbortWithError(c, domain.NewValidation("No filename provided with the uploaded file."))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		httpmw.AbortWithError(c, domain.NewInternal("Failed to read uploaded file.", err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		httpmw.AbortWithError(c, domain.NewInternal("Failed to read uploaded file.", err))
		return
	}

	resp, err := h.svc.UploadDocument(c.Request.Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), content)
	if err != nil {
		httpmw.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *Handler) listDocuments(c *gin.Context) {
	resp, err := h.svc.ListDocuments(c.Request.Context())
	if err != nil {
		httpmw.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) deleteDocuments(c *gin.Context) {
	resp, err := h.svc.DeleteAllDocuments(c.Request.Context())
	if err != nil {
		httpmw.AbortWithError(c, err)
		return
	}
	status := http.StatusOK
	if !resp.CollectionDeleted || !resp.SourceFilesCleared {
		status = http.StatusMultiStatus
	}
	c.JSON(status, resp)
}

func (h *Handler) ingestionStatus(c *gin.Context) {
	resp, err := h.svc.GetIngestionStatus(c.Request.Context())
	if err != nil {
		httpmw.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, domain.HealthResponse{Status: "ok"})
}
