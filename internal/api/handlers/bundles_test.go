package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otadrift/otadrift/internal/api/dto/common"
	"github.com/otadrift/otadrift/internal/api/dto/v1/bundles"
	"github.com/otadrift/otadrift/internal/cache"
	"github.com/otadrift/otadrift/internal/repository"
	"github.com/otadrift/otadrift/internal/service"
)

func newBundleRouter(t *testing.T) (*gin.Engine, *repository.MemoryRepository) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	bundleCache := cache.New(repo, time.Minute, time.Second)
	handler := NewBundleHandler(service.NewBundleService(repo, bundleCache))

	router := gin.New()
	router.POST("/bundles", handler.CreateBundle)
	router.GET("/bundles", handler.ListBundles)
	router.GET("/bundles/:id", handler.GetBundle)
	router.PATCH("/bundles/:id", handler.UpdateBundle)
	router.DELETE("/bundles/:id", handler.DeleteBundle)
	router.GET("/channels", handler.ListChannels)
	return router, repo
}

func createPayload() map[string]interface{} {
	return map[string]interface{}{
		"platform":           "ios",
		"channel":            "production",
		"target_app_version": "1.x",
		"file_hash":          "a3f5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293",
		"storage_uri":        "s3://bundles/app.zip",
	}
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)

	var out T
	require.NoError(t, json.Unmarshal(envelope.Data, &out))
	return out
}

func TestBundleHandler_Create(t *testing.T) {
	router, _ := newBundleRouter(t)

	w := doJSON(router, http.MethodPost, "/bundles", createPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeData[bundles.Response](t, w)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "production", resp.Channel)
	assert.True(t, resp.Enabled)
	assert.Equal(t, 100, resp.RolloutPercentage)
}

func TestBundleHandler_Create_ValidationFailures(t *testing.T) {
	router, _ := newBundleRouter(t)

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{"unknown platform", func(p map[string]interface{}) { p["platform"] = "windows" }},
		{"missing channel", func(p map[string]interface{}) { delete(p, "channel") }},
		{"bad semver range", func(p map[string]interface{}) { p["target_app_version"] = "not-a-range" }},
		{"bad file hash", func(p map[string]interface{}) { p["file_hash"] = "zz" }},
		{"rollout out of range", func(p map[string]interface{}) { p["rollout_percentage"] = 150 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := createPayload()
			tt.mutate(payload)

			w := doJSON(router, http.MethodPost, "/bundles", payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestBundleHandler_Create_BothStrategiesRejected(t *testing.T) {
	router, _ := newBundleRouter(t)

	payload := createPayload()
	payload["fingerprint_hash"] = "fp-1"

	w := doJSON(router, http.MethodPost, "/bundles", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBundleHandler_GetAndList(t *testing.T) {
	router, _ := newBundleRouter(t)

	created := decodeData[bundles.Response](t, doJSON(router, http.MethodPost, "/bundles", createPayload()))

	w := doJSON(router, http.MethodGet, "/bundles/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeData[bundles.Response](t, w)
	assert.Equal(t, created.ID, got.ID)

	w = doJSON(router, http.MethodGet, "/bundles?platform=ios&channel=production", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeData[bundles.ListResponse](t, w)
	assert.Equal(t, 1, list.Count)
}

func TestBundleHandler_Get_NotFound(t *testing.T) {
	router, _ := newBundleRouter(t)

	w := doJSON(router, http.MethodGet, "/bundles/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var envelope common.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, string(common.ErrCodeNotFound), envelope.Error.Code)
}

func TestBundleHandler_Patch(t *testing.T) {
	router, repo := newBundleRouter(t)

	created := decodeData[bundles.Response](t, doJSON(router, http.MethodPost, "/bundles", createPayload()))

	w := doJSON(router, http.MethodPatch, "/bundles/"+created.ID, map[string]interface{}{
		"enabled":            false,
		"rollout_percentage": 25,
	})
	require.Equal(t, http.StatusOK, w.Code)

	patched := decodeData[bundles.Response](t, w)
	assert.False(t, patched.Enabled)
	assert.Equal(t, 25, patched.RolloutPercentage)

	stored, err := repo.Get(context.Background(), uuid.MustParse(created.ID))
	require.NoError(t, err)
	assert.False(t, stored.Enabled)
}

func TestBundleHandler_Delete(t *testing.T) {
	router, _ := newBundleRouter(t)

	created := decodeData[bundles.Response](t, doJSON(router, http.MethodPost, "/bundles", createPayload()))

	w := doJSON(router, http.MethodDelete, "/bundles/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodGet, "/bundles/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBundleHandler_Channels(t *testing.T) {
	router, _ := newBundleRouter(t)

	doJSON(router, http.MethodPost, "/bundles", createPayload())
	staging := createPayload()
	staging["channel"] = "staging"
	doJSON(router, http.MethodPost, "/bundles", staging)

	w := doJSON(router, http.MethodGet, "/channels", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeData[bundles.ChannelsResponse](t, w)
	assert.ElementsMatch(t, []string{"production", "staging"}, resp.Channels)
}

// guard against an invalid bundle id reaching the store layer
func TestBundleHandler_InvalidID(t *testing.T) {
	router, _ := newBundleRouter(t)

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		w := doJSON(router, method, "/bundles/not-a-uuid", map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, w.Code, method)
	}
}

// rollout and device targeting settings must survive creation unchanged
func TestBundleHandler_ValidRolloutPassesThrough(t *testing.T) {
	router, _ := newBundleRouter(t)

	payload := createPayload()
	payload["rollout_percentage"] = 30
	payload["target_device_ids"] = []string{"device-a"}

	w := doJSON(router, http.MethodPost, "/bundles", payload)
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeData[bundles.Response](t, w)
	assert.Equal(t, 30, resp.RolloutPercentage)
	assert.Equal(t, []string{"device-a"}, resp.TargetDeviceIDs)
}

func TestBundleHandler_RolloutDefaultsAndExplicitZero(t *testing.T) {
	router, _ := newBundleRouter(t)

	// omitting rollout_percentage means a full rollout
	w := doJSON(router, http.MethodPost, "/bundles", createPayload())
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeData[bundles.Response](t, w)
	assert.Equal(t, 100, resp.RolloutPercentage)

	// an explicit 0 gates the bundle off and must not be treated as unset
	payload := createPayload()
	payload["rollout_percentage"] = 0
	w = doJSON(router, http.MethodPost, "/bundles", payload)
	require.Equal(t, http.StatusCreated, w.Code)
	resp = decodeData[bundles.Response](t, w)
	assert.Equal(t, 0, resp.RolloutPercentage)
}
