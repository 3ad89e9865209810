package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/getzep/ducks/pkg/models"
)

const msgVoteFailed = "Unable to process your vote."

type DuckDetails struct {
	Duck *models.Duck
}

func GetDuckDetailsHandler(appState *models.AppState, messenger *Messenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		duckID, err := idParam(r, "duckID")
		if err != nil {
			handleError(w, r, err, "invalid duck id")
			return
		}

		duck, err := appState.DuckStore.GetDuck(r.Context(), duckID)
		if err != nil {
			handleError(w, r, err, "failed to get duck")
			return
		}

		renderDuckDetailsPage(w, r, duck, messenger.Pop(w, r))
	}
}

func GetDuckByNameHandler(appState *models.AppState, messenger *Messenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		duck, err := appState.DuckStore.GetDuckByName(r.Context(), name)
		if err != nil {
			handleError(w, r, err, "failed to get duck")
			return
		}

		renderDuckDetailsPage(w, r, duck, messenger.Pop(w, r))
	}
}

// PostRateFactHandler applies an up or down vote to one of the duck's facts.
// Malformed votes re-render the duck page with an error rather than failing.
func PostRateFactHandler(appState *models.AppState, messenger *Messenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		duckID, err := idParam(r, "duckID")
		if err != nil {
			handleError(w, r, err, "invalid duck id")
			return
		}

		duck, err := appState.DuckStore.GetDuck(r.Context(), duckID)
		if err != nil {
			handleError(w, r, err, "failed to get duck")
			return
		}

		voteFailed := func(reason error) {
			log.Debugf("vote on duck %d rejected: %s", duckID, reason)
			messages := append(messenger.Pop(w, r), Error(msgVoteFailed))
			renderDuckDetailsPage(w, r, duck, messages)
		}

		if err := r.ParseForm(); err != nil {
			voteFailed(err)
			return
		}

		factID, err := strconv.ParseInt(r.PostForm.Get("fact_id"), 10, 64)
		if err != nil {
			voteFailed(models.NewBadRequestError("invalid fact_id"))
			return
		}

		direction, err := models.ParseDirection(r.PostForm.Get("direction"))
		if err != nil {
			voteFailed(err)
			return
		}

		_, err = appState.DuckStore.RateFact(r.Context(), duckID, factID, direction)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrBadRequest) {
				voteFailed(err)
				return
			}
			handleError(w, r, err, "failed to rate fact")
			return
		}

		msg := Success("Thanks for upvoting!")
		if direction == models.DirectionDown {
			msg = Error("Thanks for downvoting!")
		}

		messenger.Redirect(w, r, duckPath(duckID), msg)
	}
}

func renderDuckDetailsPage(
	w http.ResponseWriter,
	r *http.Request,
	duck *models.Duck,
	messages []StatusMessage,
) {
	path := duckPath(duck.ID)

	page := NewPage(
		duck.Name,
		duck.Description,
		path,
		[]string{
			"templates/pages/duck_details.html",
		},
		[]BreadCrumb{
			{
				Title: "Ducks",
				Path:  "/",
			},
			{
				Title: duck.Name,
				Path:  path,
			},
		},
		&DuckDetails{
			Duck: duck,
		},
	)

	page.WithMessages(messages...).Render(w, r)
}
