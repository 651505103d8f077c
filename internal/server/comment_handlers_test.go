package server

import (
	"fmt"
	"net/http"
	"testing"

	"kaizen/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) comment(token, text string) commentResponse {
	h.t.Helper()
	resp := h.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments/", h.post.ID), map[string]string{"text": text}, token)
	require.Equal(h.t, http.StatusCreated, resp.StatusCode)
	var out commentResponse
	decode(h.t, resp, &out)
	return out
}

func TestCreateComment_NotifiesPostAuthor(t *testing.T) {
	h := newHarness(t)

	created := h.comment(h.token("reader"), "  Use colour codes too  ")
	assert.Equal(t, "Use colour codes too", created.Text)
	assert.Equal(t, h.post.ID, created.Post)
	assert.Equal(t, authorSummary{ID: h.reader.ID, Nickname: "nick_reader"}, created.Author)
	assert.Equal(t, int64(1), h.notificationCount(h.author.ID))

	h.comment(h.token("author"), "Thanks")
	assert.Equal(t, int64(1), h.notificationCount(h.author.ID))

	resp := h.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", h.post.ID), nil, "")
	var post postResponse
	decode(t, resp, &post)
	assert.Equal(t, int64(2), post.CommentsCount)
}

func TestCreateComment_Rejects(t *testing.T) {
	h := newHarness(t)
	token := h.token("reader")

	tests := []struct {
		name   string
		path   string
		body   any
		token  string
		status int
	}{
		{"anonymous", fmt.Sprintf("/api/posts/%d/comments/", h.post.ID), map[string]string{"text": "hi"}, "", http.StatusUnauthorized},
		{"blank text", fmt.Sprintf("/api/posts/%d/comments/", h.post.ID), map[string]string{"text": "   "}, token, http.StatusBadRequest},
		{"missing post", "/api/posts/9999/comments/", map[string]string{"text": "hi"}, token, http.StatusNotFound},
		{"bad id", "/api/posts/abc/comments/", map[string]string{"text": "hi"}, token, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.do(http.MethodPost, tt.path, tt.body, tt.token)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestListComments_OldestFirstAndPublic(t *testing.T) {
	h := newHarness(t)
	first := h.comment(h.token("reader"), "first")
	second := h.comment(h.token("staff"), "second")

	resp := h.do(http.MethodGet, fmt.Sprintf("/api/posts/%d/comments/", h.post.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var comments []commentResponse
	decode(t, resp, &comments)
	require.Len(t, comments, 2)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Equal(t, second.ID, comments[1].ID)

	missing := h.do(http.MethodGet, "/api/posts/9999/comments/", nil, "")
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestUpdateComment_OnlyAuthor(t *testing.T) {
	h := newHarness(t)
	created := h.comment(h.token("reader"), "draft")
	path := fmt.Sprintf("/api/comments/%d", created.ID)

	resp := h.do(http.MethodPut, path, map[string]string{"text": "staff edit"}, h.token("staff"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, models.CodeForbidden, errorBody(t, resp).Code)

	resp = h.do(http.MethodPut, path, map[string]string{"text": "final"}, h.token("reader"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated commentResponse
	decode(t, resp, &updated)
	assert.Equal(t, "final", updated.Text)

	resp = h.do(http.MethodGet, path, nil, "")
	var fetched commentResponse
	decode(t, resp, &fetched)
	assert.Equal(t, "final", fetched.Text)
}

func TestDeleteComment_AuthorOrStaff(t *testing.T) {
	h := newHarness(t)
	mine := h.comment(h.token("reader"), "mine")
	other := h.comment(h.token("reader"), "other")

	assert.Equal(t, http.StatusForbidden,
		h.do(http.MethodDelete, fmt.Sprintf("/api/comments/%d", mine.ID), nil, h.token("author")).StatusCode)
	assert.Equal(t, http.StatusNoContent,
		h.do(http.MethodDelete, fmt.Sprintf("/api/comments/%d", mine.ID), nil, h.token("reader")).StatusCode)
	assert.Equal(t, http.StatusNoContent,
		h.do(http.MethodDelete, fmt.Sprintf("/api/comments/%d", other.ID), nil, h.token("staff")).StatusCode)
	assert.Equal(t, http.StatusNotFound,
		h.do(http.MethodGet, fmt.Sprintf("/api/comments/%d", mine.ID), nil, "").StatusCode)
}
