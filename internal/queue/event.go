// Package queue moves post-processing jobs between the API server and the
// worker over RabbitMQ.
package queue

// Queue names. Both are durable and carry persistent JSON messages.
const (
	ThumbnailQueue = "files.thumbnail"
	WelcomeQueue   = "users.welcome"
)

// ThumbnailJob asks the worker to derive the thumbnails of an image.
type ThumbnailJob struct {
	FileID string `json:"fileId"`
	UserID string `json:"userId"`
}

// WelcomeJob is emitted once per successful registration.
type WelcomeJob struct {
	UserID string `json:"userId"`
}
