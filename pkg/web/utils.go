package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/getzep/ducks/pkg/models"
)

func handleError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		log.Debugf("%s: %s", message, err)
		renderNotFound(w, r)
		return
	case errors.Is(err, models.ErrBadRequest):
		http.Error(w, message, http.StatusBadRequest)
	default:
		http.Error(w, message, http.StatusInternalServerError)
	}
	log.Errorf("%s: %s", message, err)
}

// idParam parses a numeric chi URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, models.NewNotFoundError(name + " " + raw)
	}
	return id, nil
}

func duckPath(duckID int64) string {
	return "/" + strconv.FormatInt(duckID, 10) + "/"
}
