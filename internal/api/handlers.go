package api

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/kdimtricp/fairyland/internal/auth"
	"github.com/kdimtricp/fairyland/internal/catalog"
	"github.com/kdimtricp/fairyland/internal/models"
	"github.com/kdimtricp/fairyland/internal/storage"
)

// multipartMemory is how much of a multipart form is held in memory before
// parts spill to temporary files.
const multipartMemory = 32 << 20

// Catalog is the part of catalog.Coordinator the handlers use.
type Catalog interface {
	Resync(ctx context.Context) ([]models.Video, error)
	CreateVideo(ctx context.Context, title, stagedPath string) (models.Video, error)
	RenameOrUpdate(ctx context.Context, filename, newTitle, stagedPath string) (models.Video, error)
	DeleteVideo(ctx context.Context, filename string) error
	IncrementViews(ctx context.Context, filename string) (int64, error)
	IncrementLikes(ctx context.Context, filename string) (int64, error)
	ListAll(ctx context.Context) ([]models.Video, error)
	GetByFilename(ctx context.Context, filename string) (models.Video, error)
}

type App struct {
	Catalog       Catalog
	Storage       storage.Storage
	Auth          auth.Authenticator
	Tokens        *auth.TokenIssuer
	MaxUploadSize int64
	PublicDir     string
	Logger        zerolog.Logger
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (app *App) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	role, err := app.Auth.Authenticate(req.Username, req.Password)
	if err != nil {
		hlog.FromRequest(r).Warn().Str("username", req.Username).Msg("login failed")
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := app.Tokens.Issue(req.Username, role)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to issue token")
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (app *App) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"username": claims.Username,
		"role":     claims.Role,
	})
}

func (app *App) ListVideosHandler(w http.ResponseWriter, r *http.Request) {
	videos, err := app.Catalog.ListAll(r.Context())
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (app *App) GetVideoHandler(w http.ResponseWriter, r *http.Request) {
	video, err := app.Catalog.GetByFilename(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, video)
}

func (app *App) LikeHandler(w http.ResponseWriter, r *http.Request) {
	likes, err := app.Catalog.IncrementLikes(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"likes": likes})
}

func (app *App) ViewHandler(w http.ResponseWriter, r *http.Request) {
	views, err := app.Catalog.IncrementViews(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"views": views})
}

func (app *App) CreateVideoHandler(w http.ResponseWriter, r *http.Request) {
	if !app.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	title := r.FormValue("title")
	if strings.TrimSpace(title) == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	staged, ok := app.stageUpload(w, r, true)
	if !ok {
		return
	}

	video, err := app.Catalog.CreateVideo(r.Context(), title, staged)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Video created",
		"video":   video,
	})
}

type updateRequest struct {
	Title string `json:"title"`
}

// UpdateVideoHandler accepts either a JSON body with a new title or a
// multipart form with an optional title and an optional replacement file.
func (app *App) UpdateVideoHandler(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	var title, staged string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var req updateRequest
		r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		title = req.Title
	case "multipart/form-data":
		if !app.parseUpload(w, r) {
			return
		}
		defer r.MultipartForm.RemoveAll()

		title = r.FormValue("title")
		var ok bool
		if staged, ok = app.stageUpload(w, r, false); !ok {
			return
		}
	default:
		title = r.FormValue("title")
	}

	video, err := app.Catalog.RenameOrUpdate(r.Context(), filename, title, staged)
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Video updated",
		"video":   video,
	})
}

func (app *App) DeleteVideoHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.Catalog.DeleteVideo(r.Context(), chi.URLParam(r, "filename")); err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Video deleted"})
}

func (app *App) ResyncHandler(w http.ResponseWriter, r *http.Request) {
	videos, err := app.Catalog.Resync(r.Context())
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": len(videos)})
}

func (app *App) StreamVideoHandler(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	video, err := app.Catalog.GetByFilename(r.Context(), filename)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	file, err := app.Storage.Open(video.Filename)
	if err != nil {
		http.Error(w, "Video file not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	// A zero modtime makes ServeContent skip Last-Modified.
	var modTime time.Time
	if f, ok := file.(interface{ Stat() (os.FileInfo, error) }); ok {
		stat, err := f.Stat()
		if err != nil {
			http.Error(w, "Error accessing video file", http.StatusInternalServerError)
			return
		}
		modTime = stat.ModTime()
	}

	w.Header().Set("Content-Type", "video/mp4")

	// ServeContent handles Range requests, Accept-Ranges and 206 responses.
	http.ServeContent(w, r, video.Filename, modTime, file)
}

// parseUpload reads a size-limited multipart form. It writes the error
// response itself and reports whether the handler should continue.
func (app *App) parseUpload(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return false
	}
	return true
}

// stageUpload copies the "video" form file into staging. An absent file is
// an error only when required.
func (app *App) stageUpload(w http.ResponseWriter, r *http.Request, required bool) (string, bool) {
	file, header, err := r.FormFile("video")
	if errors.Is(err, http.ErrMissingFile) && !required {
		return "", true
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Video file is required")
		return "", false
	}
	defer file.Close()

	if !isMP4Upload(header) {
		writeError(w, http.StatusBadRequest, "Only MP4 video files are allowed")
		return "", false
	}

	staged, err := app.Storage.Stage(file)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to stage upload")
		writeError(w, http.StatusInternalServerError, "Failed to save file")
		return "", false
	}
	return staged, true
}

func isMP4Upload(header *multipart.FileHeader) bool {
	contentType := header.Header.Get("Content-Type")
	if contentType == "video/mp4" {
		return true
	}
	if contentType == "" || contentType == "application/octet-stream" || strings.HasPrefix(contentType, "video/") {
		return strings.EqualFold(filepath.Ext(header.Filename), ".mp4")
	}
	return false
}

// writeCatalogError maps catalog failures to HTTP statuses.
func writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrDuplicateName):
		writeError(w, http.StatusConflict, "A video with this name already exists")
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, catalog.ErrValidation):
		writeError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), catalog.ErrValidation.Error()+": "))
	case errors.Is(err, catalog.ErrStorage):
		hlog.FromRequest(r).Error().Err(err).Msg("storage failure; catalog may need a resync")
		writeError(w, http.StatusInternalServerError, "Storage failure")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("unexpected catalog error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
