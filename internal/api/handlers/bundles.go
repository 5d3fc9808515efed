package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/otadrift/otadrift/internal/api/dto/common"
	"github.com/otadrift/otadrift/internal/api/dto/v1/bundles"
	"github.com/otadrift/otadrift/internal/api/mapper"
	"github.com/otadrift/otadrift/internal/api/validation"
	"github.com/otadrift/otadrift/internal/bundle"
	"github.com/otadrift/otadrift/internal/repository"
	"github.com/otadrift/otadrift/internal/service"
	"github.com/otadrift/otadrift/internal/utils"
)

type BundleHandler struct {
	bundleService *service.BundleService
}

func NewBundleHandler(bundleService *service.BundleService) *BundleHandler {
	// Custom tags used in the request DTOs must live on gin's binding engine
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.RegisterValidators(v)
	}
	return &BundleHandler{
		bundleService: bundleService,
	}
}

// bindJSON decodes the body and turns validator failures into a structured
// validation response
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			c.JSON(400, common.NewErrorResponse(common.ErrCodeValidation, "Validation failed", validation.FormatValidationError(verrs)))
			return false
		}
		utils.HandleAPIError(c, err, common.ErrCodeBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *BundleHandler) CreateBundle(c *gin.Context) {
	var req bundles.CreateRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := mapper.CreateRequestToBundle(&req)
	if err != nil {
		utils.HandleAPIError(c, err, common.ErrCodeBadRequest, "Invalid bundle payload")
		return
	}

	created, err := h.bundleService.Create(c.Request.Context(), b)
	if err != nil {
		utils.HandleAPIError(c, err, common.ErrCodeInternalServer, "Failed to create bundle")
		return
	}

	utils.HandleCreated(c, mapper.BundleToResponse(created))
}

func (h *BundleHandler) ListBundles(c *gin.Context) {
	filter := repository.BundleFilter{
		Platform: bundle.Platform(c.Query("platform")),
		Channel:  c.Query("channel"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			utils.HandleAPIError(c, err, common.ErrCodeBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			utils.HandleAPIError(c, err, common.ErrCodeBadRequest, "Invalid offset")
			return
		}
		filter.Offset = offset
	}

	items, err := h.bundleService.List(c.Request.Context(), filter)
	if err != nil {
		utils.HandleAPIError(c, err, common.ErrCodeInternalServer, "Failed to list bundles")
		return
	}

	utils.HandleSuccess(c, mapper.BundlesToListResponse(items))
}

func (h *BundleHandler) GetBundle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.HandleAPIError(c, err, common.ErrCodeBadRequest, "Invalid bundle ID")
		return
	}

	b, err := h.bundleService.Get(c.Request.Context(), id)
	if err != nil {
		utils.HandleAPIError(c, err, common.ErrCodeInternalServer, "Failed to get bundle")
		return
	}

	utils.HandleSuccess(c, mapper.BundleToResponse(b))
}

func (h *BundleHandler) UpdateBundle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.HandleAPIError(c, err, common.ErrCodeBadRequest, "Invalid bundle ID")
		return
	}

	var req bundles.UpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.bundleService.Update(c.Request.Context(), id, mapper.UpdateRequestToPatch(&req))
	if err != nil {
		utils.HandleAPIError(c, err, common.ErrCodeInternalServer, "Failed to update bundle")
		return
	}

	utils.HandleSuccess(c, mapper.BundleToResponse(updated))
}

func (h *BundleHandler) DeleteBundle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.HandleAPIError(c, err, common.ErrCodeBadRequest, "Invalid bundle ID")
		return
	}

	if err := h.bundleService.Delete(c.Request.Context(), id); err != nil {
		utils.HandleAPIError(c, err, common.ErrCodeInternalServer, "Failed to delete bundle")
		return
	}

	utils.HandleNoContent(c)
}

func (h *BundleHandler) ListChannels(c *gin.Context) {
	channels, err := h.bundleService.Channels(c.Request.Context())
	if err != nil {
		utils.HandleAPIError(c, err, common.ErrCodeInternalServer, "Failed to list channels")
		return
	}

	utils.HandleSuccess(c, bundles.ChannelsResponse{Channels: channels})
}
