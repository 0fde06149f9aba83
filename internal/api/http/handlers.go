package http

import (
	"embed"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/akarpov/shortly/internal/database"
	"github.com/akarpov/shortly/internal/service"
	"github.com/akarpov/shortly/pkg/render"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

const qrImageSize = 200

// indexPage holds the data for the creation form page. Error and ShortURL are
// mutually exclusive: a failed submission re-renders the form with an inline
// message, a successful one renders the short URL block.
type indexPage struct {
	Error     string
	ShortURL  string
	ShortCode string
	QRCode    template.URL
}

func shortURLFor(baseURL, shortCode string) string {
	return strings.TrimRight(baseURL, "/") + "/r/" + shortCode
}

func handleHomePage() http.HandlerFunc {
	const op = "api.http.handleHomePage"

	return func(w http.ResponseWriter, r *http.Request) {
		if err := render.HTML(w, http.StatusOK, templates, "index.html", indexPage{}); err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
		}
	}
}

func handleCreateURL(svc URLService, baseURL string) http.HandlerFunc {
	const op = "api.http.handleCreateURL"

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		originalURL := r.PostFormValue("url")
		customCode := r.PostFormValue("custom_code")

		url, err := svc.ShortenURL(r.Context(), originalURL, customCode)
		if err != nil {
			if msg, ok := inlineErrorMessage(err); ok {
				page := indexPage{Error: msg}
				if err := render.HTML(w, http.StatusOK, templates, "index.html", page); err != nil {
					httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
				}
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		shortURL := shortURLFor(baseURL, url.ShortCode)

		png, err := qrcode.Encode(shortURL, qrcode.Medium, qrImageSize)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		page := indexPage{
			ShortURL:  shortURL,
			ShortCode: url.ShortCode,
			QRCode:    template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
		}
		if err := render.HTML(w, http.StatusOK, templates, "index.html", page); err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
		}
	}
}

// inlineErrorMessage maps user-recoverable creation errors to the messages
// rendered inline in the form. Anything else is a server-side failure.
func inlineErrorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		return "Invalid URL", true
	case errors.Is(err, service.ErrInvalidCustomCode):
		return "Custom short code must be alphanumeric and between 3 to 10 characters", true
	case errors.Is(err, service.ErrCustomCodeTaken):
		return "Custom short code already in use", true
	}
	return "", false
}

func handleRedirect(svc URLService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.ResolveShortCode(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, "URL not found")
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, url.OriginalURL, http.StatusFound)
	}
}

func handleStatsPage(svc URLService) http.HandlerFunc {
	const op = "api.http.handleStatsPage"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		stats, err := svc.GetURLStats(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, "URL not found")
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if err := render.HTML(w, http.StatusOK, templates, "stats.html", stats); err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
		}
	}
}
