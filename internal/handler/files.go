package handler

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/file-manager/internal/middleware"
	"github.com/iliyamo/file-manager/internal/model"
	"github.com/iliyamo/file-manager/internal/service"
)

// FileAPI is the file registry surface the handlers need.
type FileAPI interface {
	Create(ctx context.Context, ownerID model.ID, in service.CreateFileInput) (*service.CreateResult, error)
	Get(ctx context.Context, rawID string, requester model.ID) (*model.File, error)
	List(ctx context.Context, requester model.ID, rawParent string, page int) ([]model.File, error)
	SetVisibility(ctx context.Context, rawID string, requester model.ID, public bool) (*model.File, error)
	Content(ctx context.Context, rawID string, requester model.ID, size int) (io.ReadSeekCloser, *model.File, error)
}

// FilesHandler serves the /files routes.
type FilesHandler struct {
	Files FileAPI
}

func NewFilesHandler(files FileAPI) *FilesHandler { return &FilesHandler{Files: files} }

// createFileReq accepts parentId as either a string id or the number 0.
type createFileReq struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsPublic bool   `json:"isPublic"`
	ParentID any    `json:"parentId"`
	Data     string `json:"data"`
}

// fileResp is the public shape of a record. The root parent is rendered as
// the number 0; localPath is never exposed.
type fileResp struct {
	ID              string `json:"id"`
	UserID          string `json:"userId"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	IsPublic        bool   `json:"isPublic"`
	ParentID        any    `json:"parentId"`
	ThumbnailStatus string `json:"thumbnailStatus,omitempty"`
	Warning         string `json:"warning,omitempty"`
}

func toFileResp(f *model.File) fileResp {
	var parent any = f.ParentID.String()
	if f.ParentID.IsRoot() {
		parent = 0
	}
	r := fileResp{
		ID:       f.ID.String(),
		UserID:   f.UserID.String(),
		Name:     f.Name,
		Type:     string(f.Type),
		IsPublic: f.IsPublic,
		ParentID: parent,
	}
	if f.Type == model.FileTypeImage {
		r.ThumbnailStatus = string(f.ThumbnailStatus)
	}
	return r
}

func rawParent(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == 0 {
			return string(model.RootID)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Create stores a new record: POST /files.
func (h *FilesHandler) Create(c echo.Context) error {
	var req createFileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Files.Create(ctx, middleware.CurrentUserID(c), service.CreateFileInput{
		Name:     req.Name,
		Type:     req.Type,
		IsPublic: req.IsPublic,
		ParentID: rawParent(req.ParentID),
		Data:     req.Data,
	})
	if err != nil {
		return respondError(c, err)
	}
	out := toFileResp(res.File)
	if res.EnqueueErr != nil {
		out.Warning = "File stored but post-processing could not be scheduled"
	}
	return c.JSON(http.StatusCreated, out)
}

// Show returns one record: GET /files/:id.
func (h *FilesHandler) Show(c echo.Context) error {
	f, err := h.Files.Get(c.Request().Context(), c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toFileResp(f))
}

// Index lists the caller's records under parentId: GET /files.
func (h *FilesHandler) Index(c echo.Context) error {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil {
		page = 0
	}
	files, err := h.Files.List(c.Request().Context(), middleware.CurrentUserID(c), c.QueryParam("parentId"), page)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]fileResp, 0, len(files))
	for i := range files {
		out = append(out, toFileResp(&files[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Publish makes a record public: PUT /files/:id/publish.
func (h *FilesHandler) Publish(c echo.Context) error { return h.setVisibility(c, true) }

// Unpublish makes a record private: PUT /files/:id/unpublish.
func (h *FilesHandler) Unpublish(c echo.Context) error { return h.setVisibility(c, false) }

func (h *FilesHandler) setVisibility(c echo.Context, public bool) error {
	f, err := h.Files.SetVisibility(c.Request().Context(), c.Param("id"), middleware.CurrentUserID(c), public)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toFileResp(f))
}

// Data streams the payload or one thumbnail: GET /files/:id/data?size=.
// Public records are readable without a token.
func (h *FilesHandler) Data(c echo.Context) error {
	size := 0
	if raw := c.QueryParam("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid size"})
		}
		size = n
	}

	blob, f, err := h.Files.Content(c.Request().Context(), c.Param("id"), middleware.CurrentUserID(c), size)
	if err != nil {
		return respondError(c, err)
	}
	defer blob.Close()

	ctype := mime.TypeByExtension(filepath.Ext(f.Name))
	if size != 0 {
		// variants may be re-encoded, so trust the bytes over the name
		head := make([]byte, 512)
		n, _ := io.ReadFull(blob, head)
		ctype = http.DetectContentType(head[:n])
		if _, err := blob.Seek(0, io.SeekStart); err != nil {
			return respondError(c, err)
		}
	}
	if ctype == "" {
		ctype = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, ctype, blob)
}
