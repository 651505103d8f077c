package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kaizen/internal/config"
	"kaizen/internal/models"
	"kaizen/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const refreshPath = "/api/access/token/refresh/"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:                      "0",
		Env:                       "test",
		AllowedOrigins:            "http://localhost:5173",
		FeatureFlags:              "realtime_notifications=on,image_webp_variants=off",
		JWTSecret:                 "test-secret-test-secret-test-secret!",
		JWTIssuer:                 "kaizen-api",
		JWTAudience:               "kaizen-client",
		JWTAccessTTL:              15 * time.Minute,
		JWTRefreshTTL:             7 * 24 * time.Hour,
		JWTBlacklistAfterRotation: true,
		RefreshCookieName:         "refresh_token",
		RefreshCookiePath:         refreshPath,
		SurveyHourlyRate:          "60.00",
		UploadDir:                 t.TempDir(),
		MediaURLPrefix:            "/media",
		MaxUploadMB:               10,
	}
}

// harness is a full server over SQLite and miniredis with a small board:
// an author, a reader, a staff member, one active category and one post.
type harness struct {
	t        *testing.T
	db       *gorm.DB
	mr       *miniredis.Miniredis
	srv      *Server
	app      *fiber.App
	author   *models.User
	reader   *models.User
	staff    *models.User
	category *models.Category
	post     *models.Post
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.SQLiteDB(t)
	mr, rdb := testutil.Redis(t)

	srv, err := NewServerWithDeps(testConfig(t), db, rdb)
	require.NoError(t, err)

	h := &harness{t: t, db: db, mr: mr, srv: srv, app: srv.App()}
	h.author = testutil.SeedUser(t, db, "author", false)
	h.reader = testutil.SeedUser(t, db, "reader", false)
	h.staff = testutil.SeedUser(t, db, "staff", true)
	h.category = testutil.SeedCategory(t, db, "BHP", true)
	h.post = testutil.SeedPost(t, db, h.author, h.category, "Label the shelves")
	return h
}

// login returns the access token and refresh cookie of username.
func (h *harness) login(username string) (string, *http.Cookie) {
	h.t.Helper()
	resp := h.do(http.MethodPost, "/api/access/token/", map[string]string{
		"username": username,
		"password": testutil.Password,
	}, "")
	require.Equal(h.t, http.StatusOK, resp.StatusCode)

	var body loginResponse
	decode(h.t, resp, &body)
	require.NotEmpty(h.t, body.Access)
	return body.Access, findCookie(resp, "refresh_token")
}

func (h *harness) token(username string) string {
	h.t.Helper()
	access, _ := h.login(username)
	return access
}

// do sends a JSON request. A nil body sends no body.
func (h *harness) do(method, path string, body any, token string, cookies ...*http.Cookie) *http.Response {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return h.send(req)
}

func (h *harness) send(req *http.Request) *http.Response {
	h.t.Helper()
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func errorBody(t *testing.T, resp *http.Response) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	decode(t, resp, &body)
	return body
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (h *harness) notificationCount(recipientID uint) int64 {
	h.t.Helper()
	var n int64
	require.NoError(h.t, h.db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID).Count(&n).Error)
	return n
}
