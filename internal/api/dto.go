package api

import (
	"github.com/starford/jera/internal/models"
	"github.com/starford/jera/internal/store"
)

// CreateTopicRequest is the request body for creating a topic. ID is
// optional; when empty the store generates one.
type CreateTopicRequest struct {
	ID string `json:"id,omitempty"`
	models.TopicPayload
}

// ImportRequest selects one import source: a file path on the local
// machine, or raw export content pasted by the caller.
type ImportRequest struct {
	Path    string `json:"path,omitempty"`
	Content string `json:"content,omitempty"`
}

// PathResponse wraps operations that produce a file on disk.
type PathResponse struct {
	Path string `json:"path"`
}

// SystemPaths mirrors the resolved storage locations.
type SystemPaths = store.Paths
