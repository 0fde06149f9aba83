package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/akarpov/shortly/internal/database"
	"github.com/akarpov/shortly/internal/models"
	"github.com/akarpov/shortly/internal/service"
	"github.com/akarpov/shortly/pkg/response"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

type shortenRequest struct {
	URL        string `json:"url" validate:"required,url"`
	CustomCode string `json:"custom_code" validate:"omitempty,alphanum,min=3,max=10"`
}

type urlResponse struct {
	ID        int64     `json:"id"`
	ShortCode string    `json:"short_code"`
	ShortURL  string    `json:"short_url"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func toURLResponse(url *models.URL, baseURL string) urlResponse {
	return urlResponse{
		ID:        url.ID,
		ShortCode: url.ShortCode,
		ShortURL:  shortURLFor(baseURL, url.ShortCode),
		URL:       url.OriginalURL,
		CreatedAt: url.CreatedAt,
	}
}

type urlStatsResponse struct {
	ID           int64       `json:"id"`
	ShortCode    string      `json:"short_code"`
	URL          string      `json:"url"`
	TotalClicks  int64       `json:"total_clicks"`
	RecentClicks []time.Time `json:"recent_clicks"`
	CreatedAt    time.Time   `json:"created_at"`
}

func toURLStatsResponse(stats *models.URLStats) urlStatsResponse {
	return urlStatsResponse{
		ID:           stats.ID,
		ShortCode:    stats.ShortCode,
		URL:          stats.OriginalURL,
		TotalClicks:  stats.TotalClicks,
		RecentClicks: stats.RecentClicks,
		CreatedAt:    stats.CreatedAt,
	}
}

func handleShortenURL(svc URLService, validate *validator.Validate, baseURL string) http.HandlerFunc {
	const op = "api.http.handleShortenURL"
	const successMsg = "The URL has been shortened successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		url, err := svc.ShortenURL(r.Context(), req.URL, req.CustomCode)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidURL), errors.Is(err, service.ErrInvalidCustomCode):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.ErrorResponse(err.Error()))
			case errors.Is(err, service.ErrCustomCodeTaken):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.ErrorResponse("Custom short code already in use."))
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponse(url, baseURL)))
	}
}

func handleGetURLStats(svc URLService) http.HandlerFunc {
	const op = "api.http.handleGetURLStats"
	const successMsg = "The URL statistics retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		stats, err := svc.GetURLStats(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLStatsResponse(stats)))
	}
}
