package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/yelinaung/sushi-bot/internal/catalog"
	"gitlab.com/yelinaung/sushi-bot/internal/logger"
	"gitlab.com/yelinaung/sushi-bot/internal/models"
	"gitlab.com/yelinaung/sushi-bot/internal/pricing"
	"gitlab.com/yelinaung/sushi-bot/internal/storage"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listBrands(c *gin.Context) {
	brands, err := s.catalog.Templates(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]brandDTO, len(brands))
	for i := range brands {
		out[i] = toBrandDTO(&brands[i])
	}
	c.JSON(http.StatusOK, gin.H{"brands": out})
}

func (s *Server) getBrand(c *gin.Context) {
	brand, err := s.catalog.Get(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toBrandDTO(brand))
}

func (s *Server) createBrand(c *gin.Context) {
	var req brandDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	brand := req.toModel()
	if brand.ID != "" {
		if _, err := s.catalog.Get(c.Request.Context(), identity(c), brand.ID); err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "brand already exists"})
			return
		}
	}

	saved, err := s.catalog.SaveTemplate(c.Request.Context(), identity(c), brand)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBrandDTO(saved))
}

func (s *Server) updateBrand(c *gin.Context) {
	var req brandDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := s.catalog.Get(ctx, identity(c), id); err != nil {
		s.fail(c, err)
		return
	}

	brand := req.toModel()
	brand.ID = id
	saved, err := s.catalog.SaveTemplate(ctx, identity(c), brand)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toBrandDTO(saved))
}

func (s *Server) deleteBrand(c *gin.Context) {
	if err := s.catalog.Delete(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) uploadLogo(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return
	}
	if header.Size > storage.MaxObjectSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	defer f.Close()

	brand, err := s.catalog.UploadLogo(c.Request.Context(), identity(c), c.Param("id"),
		header.Filename, header.Header.Get("Content-Type"), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toBrandDTO(brand))
}

func (s *Server) reorderBrands(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.catalog.Reorder(c.Request.Context(), identity(c), req.IDs); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// previewPrice resolves one item's price for a region, the way the
// calculator would show it.
func (s *Server) previewPrice(c *gin.Context) {
	brand, err := s.catalog.Get(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	region := models.DefaultRegion
	if v := c.Query("region"); v != "" {
		r, ok := models.ParseRegion(v)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown region"})
			return
		}
		region = r
	}

	itemType := models.ItemTypePlate
	switch c.DefaultQuery("type", "plate") {
	case "plate", "p":
	case "side", "s":
		itemType = models.ItemTypeSide
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be plate or side"})
		return
	}

	item, ok := brand.Item(models.ItemKey{Type: itemType, ID: c.Query("item")})
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	price := pricing.ResolvePrice(item, region)
	symbol := region.CurrencySymbol()
	c.JSON(http.StatusOK, priceResponse{
		BrandID:  brand.ID,
		Item:     item.ID,
		Type:     itemType,
		Region:   region,
		Price:    price,
		Currency: symbol,
		Display:  pricing.Format(price, symbol),
	})
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "brand not found"})
	case errors.Is(err, catalog.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrInvalidBrand):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, catalog.ErrNoObjectStore):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
	default:
		logger.Log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Admin request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
