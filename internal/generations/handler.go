package generations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"apexcarousel/internal/auth"
	"apexcarousel/internal/carousel"
	"apexcarousel/internal/storage"
	"apexcarousel/pkg/models"
)

const MaxPDFBytes = 25 << 20

// Accounts is the slice of the user store this package needs.
type Accounts interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
	Subscription(ctx context.Context, id string, freeLimit int) (*models.Subscription, error)
}

type Publisher interface {
	Publish(userID string, v any)
}

type Handler struct {
	Repo      *Repo
	Store     *storage.Local
	Accounts  Accounts
	FreeLimit int
	Events    Publisher
	Log       *zap.Logger
}

func NewHandler(repo *Repo, store *storage.Local, accounts Accounts, freeLimit int, events Publisher, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Repo: repo, Store: store, Accounts: accounts, FreeLimit: freeLimit, Events: events, Log: log}
}

// RegisterRoutes expects rg to already carry auth.AuthMiddleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/generations", h.create)
	rg.GET("/generations", h.list)
	rg.GET("/generations/:id", h.get)
	rg.PATCH("/generations/:id", h.update)
	rg.DELETE("/generations/:id", h.delete)
	rg.PUT("/generations/:id/pdf", h.uploadPDF)
	rg.GET("/generations/:id/pdf", h.pdf)
	rg.GET("/generations/:id/export", h.export)
}

type createReq struct {
	InputText     string                 `json:"input_text"`
	Style         models.Style           `json:"style"`
	Slides        []models.CarouselSlide `json:"slides"`
	Caption       string                 `json:"caption"`
	PinnedComment string                 `json:"pinned_comment"`
	Hooks         []string               `json:"hooks"`
}

func (h *Handler) create(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := carousel.Validate(models.GenerationRequest{InputText: req.InputText, Style: req.Style}); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	content := models.CarouselContent{Slides: req.Slides, Caption: req.Caption, PinnedComment: req.PinnedComment, Hooks: req.Hooks}
	if err := checkContent(content); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.Accounts.Subscription(c.Request.Context(), claims.UserID, h.FreeLimit)
	if err != nil || sub == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load subscription failed"})
		return
	}
	if !sub.CanGenerate {
		c.JSON(http.StatusForbidden, gin.H{"error": "free plan limit reached", "subscription": sub})
		return
	}

	g := &models.Generation{
		ID:            uuid.NewString(),
		Owner:         claims.UserID,
		InputText:     req.InputText,
		Style:         req.Style,
		Slides:        content.Slides,
		Caption:       content.Caption,
		PinnedComment: content.PinnedComment,
		Hooks:         content.Hooks,
	}
	limit := Unlimited
	if sub.GenerationsLimit != nil {
		limit = *sub.GenerationsLimit
	}
	if err := h.Repo.Create(c.Request.Context(), g, limit); err != nil {
		if errors.Is(err, ErrLimitReached) {
			c.JSON(http.StatusForbidden, gin.H{"error": "free plan limit reached"})
			return
		}
		h.Log.Error("create generation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	if g.Slides == nil {
		g.Slides = []models.CarouselSlide{}
	}
	if g.Hooks == nil {
		g.Hooks = []string{}
	}

	h.publish(models.EventGenerationCreated, g)
	c.JSON(http.StatusCreated, g)
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	q := ListQuery{
		Page:    parseInt(c.Query("page"), 1),
		PerPage: parseInt(c.Query("per_page"), DefaultPerPage),
		Style:   models.Style(strings.TrimSpace(c.Query("style"))),
		Q:       c.Query("q"),
		Sort:    strings.TrimSpace(c.Query("sort")),
	}
	if q.Style != "" && !q.Style.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": carousel.MsgInvalidStyle})
		return
	}
	if q.Sort != "" {
		if _, ok := sortColumns[q.Sort]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sort must be one of: created, -created, updated, -updated"})
			return
		}
	}

	page, err := h.Repo.List(c.Request.Context(), claims.UserID, q)
	if err != nil {
		h.Log.Error("list generations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) get(c *gin.Context) {
	g, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) update(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var p Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if p.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	if p.InputText != nil && *p.InputText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "input_text must not be empty"})
		return
	}
	if p.Style != nil && !p.Style.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": carousel.MsgInvalidStyle})
		return
	}

	current, err := h.Repo.Get(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load failed"})
		return
	}
	if current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err := checkContent(applyContent(current.Content(), p)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, err := h.Repo.Update(c.Request.Context(), current.ID, claims.UserID, p)
	if err != nil {
		h.Log.Error("update generation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if g == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.publish(models.EventGenerationUpdated, g)
	c.JSON(http.StatusOK, g)
}

func (h *Handler) delete(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	g, err := h.Repo.Delete(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if g == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err := h.Store.Delete(g.CarouselPDF); err != nil {
		h.Log.Warn("delete carousel pdf", zap.String("key", g.CarouselPDF), zap.Error(err))
	}

	h.publish(models.EventGenerationDeleted, &models.Generation{ID: g.ID, Owner: g.Owner})
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) uploadPDF(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxPDFBytes+1<<20)
	fh, err := c.FormFile("carousel_pdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"carousel_pdf\" required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read upload failed"})
		return
	}
	defer f.Close()

	key, _, err := h.Store.Save("pdf", f, MaxPDFBytes, "application/pdf")
	switch {
	case errors.Is(err, storage.ErrContentType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "file must be a PDF"})
		return
	case errors.Is(err, storage.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "PDF must be at most 25 MB"})
		return
	case err != nil:
		h.Log.Error("save pdf", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	old, found, err := h.Repo.SetPDF(c.Request.Context(), c.Param("id"), claims.UserID, key)
	if err != nil || !found {
		_ = h.Store.Delete(key)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		} else {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		}
		return
	}
	if err := h.Store.Delete(old); err != nil {
		h.Log.Warn("delete replaced pdf", zap.String("key", old), zap.Error(err))
	}

	g, err := h.Repo.Get(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil || g == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load failed"})
		return
	}
	h.publish(models.EventGenerationUpdated, g)
	c.JSON(http.StatusOK, g)
}

func (h *Handler) pdf(c *gin.Context) {
	g, ok := h.load(c)
	if !ok {
		return
	}
	if g.CarouselPDF == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pdf attached"})
		return
	}
	f, err := h.Store.Open(g.CarouselPDF)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pdf attached"})
		return
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "open failed"})
		return
	}
	c.DataFromReader(http.StatusOK, st.Size(), "application/pdf", f, map[string]string{
		"Content-Disposition": `attachment; filename="carousel-` + g.ID + `.pdf"`,
	})
}

func (h *Handler) export(c *gin.Context) {
	g, ok := h.load(c)
	if !ok {
		return
	}

	var kit *models.BrandKit
	if p, err := h.Accounts.Get(c.Request.Context(), g.Owner); err == nil && p != nil {
		kit = &p.BrandKit
	}

	switch format := c.DefaultQuery("format", FormatMarkdown); format {
	case FormatMarkdown:
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.Status(http.StatusOK)
		if err := WriteMarkdown(c.Writer, g, kit); err != nil {
			h.Log.Error("export markdown", zap.Error(err))
		}
	case FormatHTML:
		b, err := RenderHTML(g, kit)
		if err != nil {
			h.Log.Error("export html", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", b)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be markdown or html"})
	}
}

// load fetches the owner's generation named by :id, writing the error response itself.
func (h *Handler) load(c *gin.Context) (*models.Generation, bool) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	g, err := h.Repo.Get(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load failed"})
		return nil, false
	}
	if g == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return g, true
}

func (h *Handler) publish(eventType string, g *models.Generation) {
	if h.Events == nil {
		return
	}
	ev := models.GenerationEvent{Type: eventType, GenerationID: g.ID, At: time.Now().UTC()}
	if eventType != models.EventGenerationDeleted {
		ev.Generation = g
	}
	h.Events.Publish(g.Owner, ev)
}

// checkContent runs stored content through the same gate as AI output.
func checkContent(content models.CarouselContent) error {
	b, err := json.Marshal(content)
	if err != nil {
		return err
	}
	_, err = carousel.Parse(string(b))
	return err
}

func applyContent(c models.CarouselContent, p Patch) models.CarouselContent {
	if p.Slides != nil {
		c.Slides = *p.Slides
	}
	if p.Caption != nil {
		c.Caption = *p.Caption
	}
	if p.PinnedComment != nil {
		c.PinnedComment = *p.PinnedComment
	}
	if p.Hooks != nil {
		c.Hooks = *p.Hooks
	}
	return c
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
