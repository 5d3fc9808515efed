package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/otadrift/otadrift/internal/api/dto/common"
	"github.com/otadrift/otadrift/internal/bundle"
	"github.com/otadrift/otadrift/internal/service"
	"github.com/otadrift/otadrift/internal/update"
	"github.com/otadrift/otadrift/internal/utils"
)

// Headers of the client update protocol. Devices send these on every check.
const (
	HeaderAppPlatform     = "x-app-platform"
	HeaderAppVersion      = "x-app-version"
	HeaderFingerprintHash = "x-fingerprint-hash"
	HeaderBundleID        = "x-bundle-id"
	HeaderMinBundleID     = "x-min-bundle-id"
	HeaderChannel         = "x-channel"
	HeaderDeviceID        = "x-device-id"
)

type UpdateHandler struct {
	updateService  *service.UpdateService
	defaultChannel string
}

func NewUpdateHandler(updateService *service.UpdateService, defaultChannel string) *UpdateHandler {
	return &UpdateHandler{
		updateService:  updateService,
		defaultChannel: defaultChannel,
	}
}

// Check answers a device update poll. Unlike the management API this endpoint
// returns the bare decision payload: that shape is fixed by the client SDK.
func (h *UpdateHandler) Check(c *gin.Context) {
	req, err := h.parseRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.ErrCodeValidation, err.Error(), nil))
		return
	}

	resp, err := h.updateService.CheckForUpdate(c.Request.Context(), req)
	if err != nil {
		utils.HandleAPIError(c, err, common.ErrCodeInternalServer, "Update check failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// parseRequest maps the protocol headers onto an update request. A missing
// x-bundle-id means first run: the client still ships its embedded bundle.
func (h *UpdateHandler) parseRequest(c *gin.Context) (*update.Request, error) {
	req := &update.Request{
		Platform:        bundle.Platform(c.GetHeader(HeaderAppPlatform)),
		Channel:         c.GetHeader(HeaderChannel),
		AppVersion:      c.GetHeader(HeaderAppVersion),
		FingerprintHash: c.GetHeader(HeaderFingerprintHash),
		DeviceID:        c.GetHeader(HeaderDeviceID),
	}
	if req.Channel == "" {
		req.Channel = h.defaultChannel
	}

	if raw := c.GetHeader(HeaderBundleID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		req.CurrentBundleID = id
	}
	if raw := c.GetHeader(HeaderMinBundleID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		req.MinBundleID = id
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}
