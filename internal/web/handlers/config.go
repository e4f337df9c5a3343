package handlers

import (
	"net/http"
	"net/url"

	"github.com/kozaktomas/best-smile/internal/config"
)

// ConfigHandler exposes the limits clients need to build valid requests.
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	MaxImagesPerRequest int    `json:"max_images_per_request"`
	MaxGroupFaces       int    `json:"max_group_faces"`
	FaceAPIHost         string `json:"face_api_host,omitempty"`
	FaceAPIConfigured   bool   `json:"face_api_configured"`
}

// Get returns the public part of the configuration. The credential and the
// base path are never exposed.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	response := ConfigResponse{
		MaxImagesPerRequest: h.config.Images.MaxPerRequest,
		MaxGroupFaces:       h.config.FaceAPI.MaxGroupIDs,
		FaceAPIConfigured:   h.config.FaceAPI.Key != "",
	}
	if u, err := url.Parse(h.config.FaceAPI.Endpoint); err == nil {
		response.FaceAPIHost = u.Host
	}

	respondJSON(w, http.StatusOK, response)
}
