package handler

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/application/media"
	"github.com/draheim/zoho-sync/internal/infrastructure/logger"
)

// MediaAttacher stores product media.
type MediaAttacher interface {
	Attach(ctx context.Context, in media.AttachInput) (*media.AttachResult, error)
}

// MediaHandler attaches images and external URLs to storefront products.
type MediaHandler struct {
	BaseHandler
	service MediaAttacher
}

func NewMediaHandler(service MediaAttacher) *MediaHandler {
	return &MediaHandler{service: service}
}

// RegisterRoutes registers the media endpoints.
func (h *MediaHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/products/:id/media", h.AttachMedia)
}

// attachMediaRequest is the JSON body of an attach request. Image uploads
// use multipart form fields of the same names instead.
type attachMediaRequest struct {
	Alt       string   `json:"alt" form:"alt"`
	MediaURL  string   `json:"media_url" form:"media_url"`
	MediaURLs []string `json:"media_urls" form:"media_urls"`
	VariantID *int64   `json:"variant_id" form:"variant_id"`
}

// AttachMedia creates media rows for a product from an uploaded image or
// remote URL(s).
func (h *MediaHandler) AttachMedia(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.BadRequest(c, "product id must be an integer")
		return
	}

	input := media.AttachInput{ProductID: productID}
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := h.bindMultipart(c, &input); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	} else {
		var req attachMediaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "invalid request body")
			return
		}
		input.Alt = req.Alt
		input.MediaURL = req.MediaURL
		input.MediaURLs = req.MediaURLs
		input.VariantID = req.VariantID
	}

	result, err := h.service.Attach(c.Request.Context(), input)
	if err != nil {
		var verr *media.ValidationError
		if errors.As(err, &verr) {
			h.ErrorWithCode(c, verr.Code, verr.Message)
			return
		}
		logger.FromGin(c).Error("Failed to attach media",
			zap.Int64("product_id", productID),
			zap.Error(err),
		)
		h.Internal(c, "failed to attach media")
		return
	}

	h.Created(c, result)
}

func (h *MediaHandler) bindMultipart(c *gin.Context, input *media.AttachInput) error {
	var req attachMediaRequest
	if err := c.ShouldBind(&req); err != nil {
		return errors.New("invalid form data")
	}
	input.Alt = req.Alt
	input.MediaURL = req.MediaURL
	input.MediaURLs = req.MediaURLs
	input.VariantID = req.VariantID

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		// No image part; URL fields may still carry the request.
		return nil
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return errors.New("failed to read uploaded image")
	}
	input.Image = data
	input.ImageName = header.Filename
	return nil
}
