package carousel

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"apexcarousel/pkg/models"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/fetch-url", h.fetchURL)
	rg.POST("/generate-carousel", h.generate)
}

type fetchReq struct {
	URL string `json:"url"`
}

func (h *Handler) fetchURL(c *gin.Context) {
	var req fetchReq
	if err := bindBody(c, &req); err != nil {
		writeError(c, internal("Internal server error: "+err.Error(), err))
		return
	}

	res, err := h.Svc.FetchURL(c.Request.Context(), req.URL)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"text":    res.Text,
		"title":   res.Title,
		"url":     res.URL,
	})
}

func (h *Handler) generate(c *gin.Context) {
	var req models.GenerationRequest
	if err := bindBody(c, &req); err != nil {
		writeError(c, internal(MsgInternal, err))
		return
	}

	content, err := h.Svc.Generate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "content": content})
}

// bindBody decodes the JSON body into v. An empty body leaves v zero so the
// service reports the missing fields.
func bindBody(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeError(c *gin.Context, err error) {
	var ce *Error
	if !errors.As(err, &ce) {
		ce = internal(MsgInternal, err)
	}
	c.JSON(ce.Status, gin.H{"success": false, "error": ce.Message})
}
