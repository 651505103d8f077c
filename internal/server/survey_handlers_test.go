package server

import (
	"fmt"
	"net/http"
	"testing"

	"kaizen/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func surveyBody(value int, unit string, people, minutes int) map[string]any {
	return map[string]any{
		"frequency_value":   value,
		"frequency_unit":    unit,
		"affected_people":   people,
		"time_lost_minutes": minutes,
	}
}

func TestSurvey_CreateComputesSavings(t *testing.T) {
	h := newHarness(t)
	path := fmt.Sprintf("/api/posts/%d/survey/", h.post.ID)

	resp := h.do(http.MethodPost, path, surveyBody(2, "WEEK", 3, 30), h.token("author"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Survey
	decode(t, resp, &created)
	assert.Equal(t, h.post.ID, created.PostID)
	assert.Equal(t, models.FrequencyWeek, created.FrequencyUnit)
	assert.True(t, decimal.NewFromInt(12).Equal(created.EstimatedTimeSavingsHours), created.EstimatedTimeSavingsHours.String())
	assert.True(t, decimal.NewFromInt(720).Equal(created.EstimatedFinancialSavings), created.EstimatedFinancialSavings.String())

	t.Run("public read", func(t *testing.T) {
		resp := h.do(http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var fetched models.Survey
		decode(t, resp, &fetched)
		assert.Equal(t, created.ID, fetched.ID)
	})

	t.Run("embedded in post", func(t *testing.T) {
		resp := h.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", h.post.ID), nil, "")
		var post postResponse
		decode(t, resp, &post)
		require.NotNil(t, post.Survey)
		assert.Equal(t, created.ID, post.Survey.ID)
	})

	t.Run("second create", func(t *testing.T) {
		resp := h.do(http.MethodPost, path, surveyBody(1, "DAY", 1, 1), h.token("author"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, models.CodeAlreadyExists, errorBody(t, resp).Code)
	})

	t.Run("update recomputes", func(t *testing.T) {
		resp := h.do(http.MethodPut, path, surveyBody(1, "DAY", 1, 60), h.token("author"))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var updated models.Survey
		decode(t, resp, &updated)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, models.FrequencyDay, updated.FrequencyUnit)
		assert.False(t, updated.EstimatedTimeSavingsHours.Equal(created.EstimatedTimeSavingsHours))
	})
}

func TestSurvey_Rejects(t *testing.T) {
	h := newHarness(t)
	path := fmt.Sprintf("/api/posts/%d/survey/", h.post.ID)

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		user     string
		status   int
		wantCode string
	}{
		{"not the author", http.MethodPost, path, surveyBody(1, "DAY", 1, 1), "reader", http.StatusForbidden, models.CodeForbidden},
		{"staff is not the author", http.MethodPost, path, surveyBody(1, "DAY", 1, 1), "staff", http.StatusForbidden, models.CodeForbidden},
		{"update before create", http.MethodPut, path, surveyBody(1, "DAY", 1, 1), "author", http.StatusNotFound, models.CodeNotFound},
		{"unknown unit", http.MethodPost, path, surveyBody(1, "YEAR", 1, 1), "author", http.StatusBadRequest, models.CodeValidation},
		{"negative people", http.MethodPost, path, surveyBody(1, "DAY", -1, 1), "author", http.StatusBadRequest, models.CodeValidation},
		{"lowercase unit", http.MethodPost, path, surveyBody(1, "day", 1, 1), "author", http.StatusBadRequest, models.CodeValidation},
		{"estimates too large", http.MethodPost, path, surveyBody(2000000000, "DAY", 2000000000, 2000000000), "author", http.StatusBadRequest, models.CodeValidation},
		{"missing field", http.MethodPost, path, map[string]any{"frequency_value": 1, "frequency_unit": "DAY"}, "author", http.StatusBadRequest, models.CodeValidation},
		{"missing post", http.MethodPost, "/api/posts/9999/survey/", surveyBody(1, "DAY", 1, 1), "author", http.StatusNotFound, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.do(tt.method, tt.path, tt.body, h.token(tt.user))
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.wantCode, errorBody(t, resp).Code)
		})
	}

	t.Run("no survey yet", func(t *testing.T) {
		resp := h.do(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
