package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kdimtricp/fairyland/internal/auth"
	"github.com/kdimtricp/fairyland/internal/catalog"
	"github.com/kdimtricp/fairyland/internal/storage"
)

type TestServer struct {
	Server     *httptest.Server
	App        *App
	Storage    *storage.LocalStorage
	MediaDir   string
	StagingDir string
	AdminToken string
}

func setupTestServer(t *testing.T, existing ...string) *TestServer {
	t.Helper()

	tempDir := t.TempDir()
	mediaDir := filepath.Join(tempDir, "public", "videos")
	stagingDir := filepath.Join(tempDir, "staging")
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		t.Fatalf("Failed to create media dir: %v", err)
	}
	for _, name := range existing {
		if err := os.WriteFile(filepath.Join(mediaDir, name), []byte("existing "+name), 0644); err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
	}

	localStorage, err := storage.NewLocalStorage(mediaDir, stagingDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	coord := catalog.NewCoordinator(catalog.NewMemoryStore(), localStorage, zerolog.Nop())
	if _, err := coord.Resync(context.Background()); err != nil {
		t.Fatalf("Failed to scan media dir: %v", err)
	}

	authenticator := auth.NewStaticAuthenticator()
	authenticator.AddAccount("admin", "admin-pass", auth.RoleAdmin)
	authenticator.AddAccount("viewer", "viewer-pass", auth.RoleViewer)

	app := &App{
		Catalog:       coord,
		Storage:       localStorage,
		Auth:          authenticator,
		Tokens:        auth.NewTokenIssuer("test-secret", time.Hour),
		MaxUploadSize: 1024 * 1024,
		PublicDir:     filepath.Join(tempDir, "public"),
		Logger:        zerolog.Nop(),
	}

	server := httptest.NewServer(NewRouter(app))
	t.Cleanup(server.Close)

	ts := &TestServer{
		Server:     server,
		App:        app,
		Storage:    localStorage,
		MediaDir:   mediaDir,
		StagingDir: stagingDir,
	}
	ts.AdminToken = ts.login(t, "admin", "admin-pass")
	return ts
}

func (ts *TestServer) login(t *testing.T, username, password string) string {
	t.Helper()

	body, _ := json.Marshal(loginRequest{Username: username, Password: password})
	resp, err := http.Post(ts.Server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Login failed with status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode login response: %v", err)
	}
	return out.Token
}

func (ts *TestServer) do(t *testing.T, method, path, token, contentType string, body io.Reader) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, ts.Server.URL+path, body)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// createMultipartUpload builds a form with an optional title and an optional
// video part; a nil content skips the file.
func createMultipartUpload(title, filename string, content []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if content != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="video"; filename="`+filename+`"`)
		h.Set("Content-Type", "video/mp4")
		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(content); err != nil {
			return nil, "", err
		}
	}

	if title != "" {
		if err := writer.WriteField("title", title); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

func (ts *TestServer) upload(t *testing.T, method, path, title string, content []byte) *http.Response {
	t.Helper()

	body, contentType, err := createMultipartUpload(title, "clip.mp4", content)
	if err != nil {
		t.Fatalf("Failed to create multipart upload: %v", err)
	}
	return ts.do(t, method, path, ts.AdminToken, contentType, body)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status %d, got %d. Body: %s", want, resp.StatusCode, body)
	}
}

func stagingEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read staging dir: %v", err)
	}
	return len(entries)
}
