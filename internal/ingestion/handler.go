package ingestion

import (
	"fmt"
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

// Register mounts the ingestion routes onto r.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/api/v1/documents/upload", h.upload)
	r.POST("/api/v1/ingest", h.trigger)
	r.GET("/api/v1/ingestion/status", h.status)
	r.GET("/api/v1/documents", h.list)
	r.DELETE("/api/v1/collection", h.clear)
	r.GET("/health", h.health)
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

	overwritten, err := h.svc.UploadDocument(c.Request.Context(), fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		httpmw.AbortWithError(c, err)
		return
	}

	action := "uploaded"
	if overwritten {
		action = "overwritten"
	}

	autoIngest := c.DefaultQuery("auto_ingest", "true") == "true"
	resp := domain.UploadResponse{
		Status:   fmt.Sprintf("File %s successfully.", action),
		Filename: fileHeader.Filename,
		Message:  fmt.Sprintf("File %s successfully.", action),
	}

	if autoIngest {
		started, found, noNew, err := h.svc.TriggerIngestion(c.Request.Context())
		switch {
		case err == domain.ErrAlreadyIngesting:
			resp.Message = fmt.Sprintf("File %s successfully. Ingestion is already running.", action)
		case err != nil:
			resp.Message = fmt.Sprintf("File %s but failed to start ingestion.", action)
		case noNew:
			resp.Message = fmt.Sprintf("File %s. No new documents to ingest.", action)
		case started:
			resp.Status = fmt.Sprintf("File %s and ingestion started.", action)
			resp.Message = fmt.Sprintf("File %s and ingestion started in the background.", action)
			resp.DocumentsFound = &found
		}
	}

	c.JSON(http.StatusAccepted, resp)
}

func (h *Handler) trigger(c *gin.Context) {
	started, found, noNew, err := h.svc.TriggerIngestion(c.Request.Context())
	if err == domain.ErrAlreadyIngesting {
		httpmw.AbortWithError(c, domain.NewConflict("An ingestion process is already running. Please wait for it to complete."))
		return
	}
	if err != nil {
		httpmw.AbortWithError(c, err)
		return
	}

	if noNew {
		c.JSON(http.StatusOK, domain.TriggerIngestionResponse{
			Status:         "No new files to process.",
			DocumentsFound: found,
			Message:        "All documents have already been processed. No ingestion needed.",
		})
		return
	}

	_ = started
	c.JSON(http.StatusAccepted, domain.TriggerIngestionResponse{
		Status:         "Ingestion task started.",
		DocumentsFound: found,
		Message:        "Processing documents in the background.",
	})
}

func (h *Handler) status(c *gin.Context) {
	state := h.svc.GetStatus()

	resp := domain.StatusResponse{
		IsProcessing: state.IsRunning,
		Status:       string(state.Status),
		Errors:       state.Errors,
	}
	if state.LastCompletedAt != nil {
		s := state.LastCompletedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.LastCompleted = &s
	}
	if state.Status == domain.StatusCompleted || state.Status == domain.StatusCompletedWithErrors {
		dp, ca := state.DocumentsProcessed, state.ChunksAdded
		resp.DocumentsProcessed = &dp
		resp.ChunksAdded = &ca
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) list(c *gin.Context) {
	docs, err := h.svc.ListDocuments()
	if err != nil {
		httpmw.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.DocumentListResponse{Count: len(docs), Documents: docs})
}

func (h *Handler) clear(c *gin.Context) {
	resp := h.svc.ClearCollection(c.Request.Context())

	status := http.StatusOK
	switch {
	case !resp.CollectionDeleted && !resp.SourceFilesCleared:
		status = http.StatusInternalServerError
	case !resp.CollectionDeleted || !resp.SourceFilesCleared:
		status = http.StatusMultiStatus
	}
	c.JSON(status, resp)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, domain.HealthResponse{Status: "ok"})
}
