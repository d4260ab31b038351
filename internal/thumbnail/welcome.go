package thumbnail

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/iliyamo/file-manager/internal/logging"
	"github.com/iliyamo/file-manager/internal/model"
	"github.com/iliyamo/file-manager/internal/queue"
	"github.com/iliyamo/file-manager/internal/repository"
)

// WelcomeHandler consumes registration events. Delivery of the greeting
// itself is left to an external mailer; the worker logs it.
type WelcomeHandler struct {
	users UserStore
	log   logging.Logger
}

func NewWelcomeHandler(users UserStore, log logging.Logger) *WelcomeHandler {
	return &WelcomeHandler{users: users, log: log.With("component", "welcome")}
}

// Handle processes one WelcomeJob body.
func (h *WelcomeHandler) Handle(ctx context.Context, body []byte) error {
	var job queue.WelcomeJob
	if err := json.Unmarshal(body, &job); err != nil {
		return permanent("malformed job: %v", err)
	}
	if job.UserID == "" {
		return permanent("missing userId")
	}
	id, err := model.ParseID(job.UserID)
	if err != nil {
		return permanent("userId %q: %v", job.UserID, err)
	}
	u, err := h.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return permanent("user %s not found", id)
	}
	if err != nil {
		return err
	}
	h.log.Info(ctx, "welcome", "user_id", u.ID.String(), "email", u.Email)
	return nil
}
