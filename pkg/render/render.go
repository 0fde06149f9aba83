package render

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
)

// HTML executes the named template into a buffer and writes it with the given
// status code. Buffering keeps a half-written page off the wire when the
// template fails mid-execution.
func HTML(w http.ResponseWriter, statusCode int, t *template.Template, name string, data any) error {
	const op = "render.HTML"

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("%s: failed to execute template %q: %w", op, name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("%s: failed to write response: %w", op, err)
	}

	return nil
}
