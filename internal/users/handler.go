package users

import (
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"apexcarousel/internal/auth"
	"apexcarousel/internal/storage"
)

const (
	MaxAssetBytes    = 5 << 20
	MaxTaglineLength = 120
	MaxVoiceLength   = 20000
)

var (
	colorRe    = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	languages  = []string{"en", "pt-BR", "es"}
	imageTypes = []string{"image/png", "image/jpeg", "image/webp"}
)

type Handler struct {
	Repo      *Repo
	Store     *storage.Local
	FreeLimit int
	Log       *zap.Logger
}

func NewHandler(repo *Repo, store *storage.Local, freeLimit int, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Repo: repo, Store: store, FreeLimit: freeLimit, Log: log}
}

// RegisterRoutes expects rg to already carry auth.AuthMiddleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.PATCH("/me", h.update)
	rg.GET("/me/brand-kit", h.brandKit)
	rg.PUT("/me/brand-kit", h.setBrandKit)
	rg.PUT("/me/assets/:field", h.uploadAsset)
	rg.GET("/me/assets/:field", h.asset)
	rg.DELETE("/me/assets/:field", h.deleteAsset)
	rg.PUT("/me/voice", h.setVoice)
	rg.GET("/me/subscription", h.subscription)
}

func (h *Handler) me(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	p, err := h.Repo.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load profile failed"})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) update(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req Patch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if utf8.RuneCountInString(name) > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name must be at most 100 chars"})
			return
		}
		req.Name = &name
	}
	if req.PreferredLanguage != nil && !validLanguage(*req.PreferredLanguage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "preferred_language must be one of: " + strings.Join(languages, ", ")})
		return
	}

	if err := h.Repo.Update(c.Request.Context(), claims.UserID, req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.me(c)
}

func (h *Handler) brandKit(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	p, err := h.Repo.Get(c.Request.Context(), claims.UserID)
	if err != nil || p == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load brand kit failed"})
		return
	}
	c.JSON(http.StatusOK, p.BrandKit)
}

type brandKitReq struct {
	Color   string `json:"color"`
	Tagline string `json:"tagline"`
}

func (h *Handler) setBrandKit(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req brandKitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.Color = strings.TrimSpace(req.Color)
	req.Tagline = strings.TrimSpace(req.Tagline)
	if req.Color != "" && !colorRe.MatchString(req.Color) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "color must look like #RRGGBB"})
		return
	}
	if utf8.RuneCountInString(req.Tagline) > MaxTaglineLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tagline must be at most 120 chars"})
		return
	}

	if err := h.Repo.UpdateBrandKit(c.Request.Context(), claims.UserID, strings.ToUpper(req.Color), req.Tagline); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.brandKit(c)
}

func (h *Handler) uploadAsset(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	field := c.Param("field")
	if _, ok := assetColumns[field]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown asset"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxAssetBytes+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read upload failed"})
		return
	}
	defer f.Close()

	key, _, err := h.Store.Save(field, f, MaxAssetBytes, imageTypes...)
	switch {
	case errors.Is(err, storage.ErrContentType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "image must be png, jpeg or webp"})
		return
	case errors.Is(err, storage.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image must be at most 5 MB"})
		return
	case err != nil:
		h.Log.Error("save asset", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	old, err := h.Repo.SetAsset(c.Request.Context(), claims.UserID, field, key)
	if err != nil {
		_ = h.Store.Delete(key)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	if err := h.Store.Delete(old); err != nil {
		h.Log.Warn("delete replaced asset", zap.String("key", old), zap.Error(err))
	}
	h.brandKit(c)
}

func (h *Handler) asset(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	p, err := h.Repo.Get(c.Request.Context(), claims.UserID)
	if err != nil || p == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load failed"})
		return
	}

	var key string
	switch c.Param("field") {
	case "headshot":
		key = p.BrandKit.Headshot
	case "logo":
		key = p.BrandKit.Logo
	}
	if key == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	serveFile(c, h.Store, key)
}

func (h *Handler) deleteAsset(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	field := c.Param("field")
	if _, ok := assetColumns[field]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown asset"})
		return
	}
	old, err := h.Repo.SetAsset(c.Request.Context(), claims.UserID, field, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	_ = h.Store.Delete(old)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type voiceReq struct {
	Samples string `json:"samples"`
}

func (h *Handler) setVoice(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req voiceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	samples := strings.TrimSpace(req.Samples)
	if utf8.RuneCountInString(samples) > MaxVoiceLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "voice samples must be at most 20000 chars"})
		return
	}
	if err := h.Repo.SetVoiceSamples(c.Request.Context(), claims.UserID, samples); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"samples": samples})
}

func (h *Handler) subscription(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	sub, err := h.Repo.Subscription(c.Request.Context(), claims.UserID, h.FreeLimit)
	if err != nil || sub == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load subscription failed"})
		return
	}
	c.JSON(http.StatusOK, sub)
}

func validLanguage(s string) bool {
	for _, l := range languages {
		if s == l {
			return true
		}
	}
	return false
}

// serveFile streams a stored file with its content type.
func serveFile(c *gin.Context, store *storage.Local, key string) {
	f, err := store.Open(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "open failed"})
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "open failed"})
		return
	}
	c.DataFromReader(http.StatusOK, st.Size(), storage.ContentType(key), io.Reader(f), nil)
}
