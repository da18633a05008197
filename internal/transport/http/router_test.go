package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"contest-scoring-service/internal/app"
	"contest-scoring-service/internal/domain"
	"contest-scoring-service/internal/infra/memory"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyEndpoints(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/keys/CAT%202", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var key keyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &key))
	assert.True(t, key.Placeholder)
	assert.Len(t, key.Key, domain.QuestionCount)

	rec = do(t, h, http.MethodPut, "/api/keys/2", keyRequest{Answers: letters("B", 20)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/keys/cat2", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &key))
	assert.False(t, key.Placeholder)
	assert.Equal(t, "B", key.Key[0])

	rec = do(t, h, http.MethodGet, "/api/keys/history?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []domain.KeyChangeEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, domain.Category2, history[0].Category)
}

func TestKeyEndpointsRejectBadInput(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPut, "/api/keys/CAT%201", keyRequest{Answers: letters("A", 19)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/keys/CAT%207", keyRequest{Answers: letters("A", 20)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/keys/history?limit=-3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScoreEndpoint(t *testing.T) {
	h := newTestRouter(t)

	answers := append(letters("A", 2), "B")
	answers = append(answers, letters("", 17)...)
	rec := do(t, h, http.MethodPost, "/api/score", scoreRequest{Answers: answers, Key: letters("A", 20)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var b domain.ScoreBreakdown
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	assert.Equal(t, domain.ScoreBreakdown{Correct: 2, Incorrect: 1, Blank: 17, Points: 8}, b)
}

func TestRegisterAndQueryEndpoints(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/participants", app.Registration{
		ID: "41000001", Name: "Ana", Institution: "IE Alfa", Grade: "5to",
		Teacher: "Prof. Quispe", SubmittedAt: "10:05", Answers: letters("A", 20),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/participants", app.Registration{
		ID: "41000002", Name: "Luis", Grade: "1ro", Answers: letters("A", 20),
	})
	assert.Equal(t, http.StatusConflict, rec.Code, "CAT 3 key is not configured")

	rec = do(t, h, http.MethodGet, "/api/participants/41000001", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/participants/41000002", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/ranking?grade=5to&category=CAT%201", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var lb domain.Leaderboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lb))
	require.Len(t, lb.Entries, 1)
	assert.Equal(t, 100, lb.Entries[0].Score.Points)

	rec = do(t, h, http.MethodGet, "/api/ranking?grade=9", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/standings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var standings []domain.InstitutionStanding
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &standings))
	require.Len(t, standings, 1)
	assert.Equal(t, "IE Alfa", standings[0].Institution)

	rec = do(t, h, http.MethodGet, "/api/recognitions?top=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var recs []domain.TeacherRecognition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "Prof. Quispe", recs[0].Teacher)

	rec = do(t, h, http.MethodGet, "/api/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Summary.Evaluated)
	require.NotNil(t, report.Champion)
}

func TestRescoreEndpoint(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/participants", app.Registration{
		ID: "41000003", Name: "Rosa", Grade: "5", Answers: letters("C", 20),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/api/keys/CAT%201", keyRequest{Answers: letters("C", 20)})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/categories/CAT%201/rescore", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp rescoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Rescored)
}

func TestHealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "# metrics")
	})
	h := NewRouter(newTestService(t), logrus.New(), metrics)

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, "ok", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, "# metrics", rec.Body.String())
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewRouter(newTestService(t), log, nil)
}

func newTestService(t *testing.T) *app.ContestService {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	keys := app.NewAnswerKeyStore(memory.NewKeyRepository(), app.WithLogger(log))
	if _, err := keys.SetKey(context.Background(), domain.Category1, uniformKey(domain.ChoiceA)); err != nil {
		t.Fatalf("seed key: %v", err)
	}
	participants := memory.NewParticipantCache(memory.NewParticipantRepository(), time.Minute)
	return app.NewContestService(keys, participants, app.WithLogger(log))
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func letters(l string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = l
	}
	return out
}

func uniformKey(c domain.Choice) domain.AnswerKey {
	key := make(domain.AnswerKey, domain.QuestionCount)
	for i := range key {
		key[i] = c
	}
	return key
}
