// Package models holds the request and response bodies of the HTTP API.
package models

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.2.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"3f2c1ab" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	Modified  bool   `json:"modified,omitempty" doc:"Built from a dirty tree"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go toolchain version"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"OS and architecture"`
}

type VersionResponse struct {
	Body VersionData
}

// MessageData is a plain acknowledgement.
type MessageData struct {
	Message string `json:"message" example:"ok" doc:"Human-readable result"`
}

// StreamConnectedEvent is the first message on every event stream.
type StreamConnectedEvent struct {
	Message   string `json:"message" example:"SSE connection established" doc:"Greeting"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Connection time"`
}
