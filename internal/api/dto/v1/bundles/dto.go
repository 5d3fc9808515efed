package bundles

import "time"

// CreateRequest represents the request for publishing a bundle.
// Exactly one of target_app_version and fingerprint_hash must be set.
type CreateRequest struct {
	ID                string                 `json:"id"` // Optional: generated if empty
	Platform          string                 `json:"platform" binding:"required,platform"`
	Channel           string                 `json:"channel" binding:"required,channel"`
	TargetAppVersion  string                 `json:"target_app_version" binding:"omitempty,semver_range"`
	FingerprintHash   string                 `json:"fingerprint_hash"`
	FileHash          string                 `json:"file_hash" binding:"required,sha256"`
	StorageURI        string                 `json:"storage_uri" binding:"required"`
	GitCommitHash     string                 `json:"git_commit_hash"`
	Message           string                 `json:"message"`
	Enabled           *bool                  `json:"enabled"`
	ShouldForceUpdate bool                   `json:"should_force_update"`
	RolloutPercentage *int                   `json:"rollout_percentage" binding:"omitempty,min=0,max=100"`
	TargetDeviceIDs   []string               `json:"target_device_ids"`
	Metadata          map[string]interface{} `json:"metadata"`
}

// UpdateRequest represents the request for patching a bundle.
// Only the fields present in the body are applied.
type UpdateRequest struct {
	Enabled           *bool                  `json:"enabled,omitempty"`
	ShouldForceUpdate *bool                  `json:"should_force_update,omitempty"`
	Message           *string                `json:"message,omitempty"`
	RolloutPercentage *int                   `json:"rollout_percentage,omitempty" binding:"omitempty,min=0,max=100"`
	TargetDeviceIDs   *[]string              `json:"target_device_ids,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}

// Response represents a bundle as seen by operators
type Response struct {
	ID                string                 `json:"id"`
	Platform          string                 `json:"platform"`
	Channel           string                 `json:"channel"`
	TargetAppVersion  string                 `json:"target_app_version,omitempty"`
	FingerprintHash   string                 `json:"fingerprint_hash,omitempty"`
	FileHash          string                 `json:"file_hash"`
	StorageURI        string                 `json:"storage_uri"`
	GitCommitHash     string                 `json:"git_commit_hash,omitempty"`
	Message           string                 `json:"message,omitempty"`
	Enabled           bool                   `json:"enabled"`
	ShouldForceUpdate bool                   `json:"should_force_update"`
	RolloutPercentage int                    `json:"rollout_percentage"`
	TargetDeviceIDs   []string               `json:"target_device_ids,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
}

// ListResponse wraps a page of bundles
type ListResponse struct {
	Bundles []Response `json:"bundles"`
	Count   int        `json:"count"`
}

// ChannelsResponse lists the distinct release channels in the store
type ChannelsResponse struct {
	Channels []string `json:"channels"`
}
