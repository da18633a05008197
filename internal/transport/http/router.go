package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"contest-scoring-service/internal/app"
	"contest-scoring-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// API exposes the contest use cases over JSON.
type API struct {
	service  *app.ContestService
	validate *validator.Validate
	log      logrus.FieldLogger
}

type keyRequest struct {
	Answers []string `json:"answers" validate:"required,len=20"`
}

type scoreRequest struct {
	Answers []string `json:"answers" validate:"required,len=20"`
	Key     []string `json:"key" validate:"required,len=20"`
}

type keyResponse struct {
	Category    domain.Category `json:"category"`
	Key         []string        `json:"key"`
	Placeholder bool            `json:"placeholder"`
}

type rescoreResponse struct {
	Category domain.Category `json:"category"`
	Rescored int             `json:"rescored"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func NewAPI(service *app.ContestService, log logrus.FieldLogger) *API {
	return &API{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

// NewRouter mounts the JSON API, the leaderboard stream, health and metrics.
// metrics may be nil.
func NewRouter(service *app.ContestService, log logrus.FieldLogger, metrics http.Handler) http.Handler {
	api := NewAPI(service, log)
	ws := NewWSHandler(service, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/keys/history", api.History)
		r.Get("/keys/{category}", api.GetKey)
		r.Put("/keys/{category}", api.SetKey)
		r.Post("/score", api.Score)
		r.Post("/participants", api.Register)
		r.Get("/participants/{id}", api.Participant)
		r.Post("/categories/{category}/rescore", api.Rescore)
		r.Get("/ranking", api.Ranking)
		r.Get("/standings", api.Standings)
		r.Get("/recognitions", api.Recognitions)
		r.Get("/report", api.Report)
	})
	return r
}

func (a *API) GetKey(w http.ResponseWriter, r *http.Request) {
	category, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	key, err := a.service.Keys().GetKey(r.Context(), category)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, keyResponse{Category: category, Key: key.Strings(), Placeholder: key.IsPlaceholder()})
}

func (a *API) SetKey(w http.ResponseWriter, r *http.Request) {
	category, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	var req keyRequest
	if err := a.decode(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}
	key, err := domain.ParseKey(req.Answers)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	event, err := a.service.Keys().SetKey(r.Context(), category, key)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, event)
}

func (a *API) History(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	events, err := a.service.Keys().History(r.Context(), limit)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if events == nil {
		events = []domain.KeyChangeEvent{}
	}
	respond(w, http.StatusOK, events)
}

// Score runs the scorer on an ad-hoc sheet and key without storing anything.
func (a *API) Score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := a.decode(r, &req); err != nil {
		a.respondError(w, r, err)
		return
	}
	sheet, err := domain.ParseSheet(req.Answers)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	key, err := domain.ParseKey(req.Key)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	breakdown, err := app.Score(sheet, key)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, breakdown)
}

func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var reg app.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		a.respondError(w, r, domain.Invalid("body", "malformed JSON: %v", err))
		return
	}
	p, err := a.service.Register(r.Context(), reg)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, p)
}

func (a *API) Participant(w http.ResponseWriter, r *http.Request) {
	p, err := a.service.Participant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (a *API) Rescore(w http.ResponseWriter, r *http.Request) {
	category, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	n, err := a.service.RescoreCategory(r.Context(), category)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, rescoreResponse{Category: category, Rescored: n})
}

func (a *API) Ranking(w http.ResponseWriter, r *http.Request) {
	filter, err := rankFilter(r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	lb, err := a.service.Leaderboard(r.Context(), filter)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, lb)
}

func (a *API) Standings(w http.ResponseWriter, r *http.Request) {
	standings, err := a.service.Standings(r.Context())
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, standings)
}

func (a *API) Recognitions(w http.ResponseWriter, r *http.Request) {
	top, err := queryInt(r, "top")
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	recs, err := a.service.Recognitions(r.Context(), top)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, recs)
}

func (a *API) Report(w http.ResponseWriter, r *http.Request) {
	report, err := a.service.Report(r.Context())
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, report)
}

func (a *API) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Invalid("body", "malformed JSON: %v", err)
	}
	if err := a.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domain.Invalid(strings.ToLower(verrs[0].Field()), "failed %q rule", verrs[0].Tag())
		}
		return domain.Invalid("body", "%v", err)
	}
	return nil
}

func (a *API) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorResponse{Error: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body.Field = verr.Field
	}
	if status == http.StatusInternalServerError {
		a.log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("request failed")
		body.Error = "internal error"
	}
	respond(w, status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusConflict
	case errors.Is(err, domain.ErrParticipantNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.Invalid(name, "must be a non-negative integer, got %q", raw)
	}
	return n, nil
}

func rankFilter(r *http.Request) (domain.RankFilter, error) {
	var filter domain.RankFilter
	q := r.URL.Query()
	if raw := q.Get("grade"); raw != "" {
		grade, err := domain.ParseGrade(raw)
		if err != nil {
			return filter, err
		}
		filter.Grade = grade
	}
	if raw := q.Get("category"); raw != "" {
		category, err := domain.ParseCategory(raw)
		if err != nil {
			return filter, err
		}
		filter.Category = category
	}
	return filter, nil
}
