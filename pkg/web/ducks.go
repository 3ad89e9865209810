package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getzep/ducks/pkg/forms"
	"github.com/getzep/ducks/pkg/models"
)

type DuckList struct {
	Ducks []*models.Duck
	Form  *forms.DuckForm
}

func GetDuckListHandler(appState *models.AppState, messenger *Messenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderDuckListPage(w, r, appState, forms.NewDuckForm(), messenger.Pop(w, r))
	}
}

func PostDuckListHandler(appState *models.AppState, messenger *Messenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			handleError(w, r, models.NewBadRequestError(err.Error()), "failed to parse form")
			return
		}

		form := forms.BindDuckForm(r.PostForm)
		if !form.Validate() {
			renderDuckListPage(w, r, appState, form, messenger.Pop(w, r))
			return
		}

		_, err := appState.DuckStore.CreateDuck(r.Context(), form.Request())
		if err != nil {
			if errors.Is(err, models.ErrValidation) {
				form.SetErrors(err)
				renderDuckListPage(w, r, appState, form, messenger.Pop(w, r))
				return
			}
			handleError(w, r, err, "failed to create duck")
			return
		}

		messenger.Redirect(w, r, "/", Success("Duck added successfully!"))
	}
}

func renderDuckListPage(
	w http.ResponseWriter,
	r *http.Request,
	appState *models.AppState,
	form *forms.DuckForm,
	messages []StatusMessage,
) {
	const path = "/"

	ducks, err := appState.DuckStore.ListDucks(r.Context())
	if err != nil {
		handleError(w, r, err, "failed to list ducks")
		return
	}

	page := NewPage(
		"Ducks",
		"Every duck we know about.",
		path,
		[]string{
			"templates/pages/index.html",
		},
		[]BreadCrumb{
			{
				Title: "Ducks",
				Path:  path,
			},
		},
		&DuckList{
			Ducks: ducks,
			Form:  form,
		},
	)

	page.WithMessages(messages...).Render(w, r)
}

// GetDeleteDuckHandler refuses to delete on GET, but still 404s for unknown ducks.
func GetDeleteDuckHandler(appState *models.AppState, messenger *Messenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		duckID, err := idParam(r, "duckID")
		if err != nil {
			handleError(w, r, err, "invalid duck id")
			return
		}

		if _, err := appState.DuckStore.GetDuck(r.Context(), duckID); err != nil {
			handleError(w, r, err, "failed to get duck")
			return
		}

		messenger.Redirect(w, r, "/", Error("Invalid Request"))
	}
}

func PostDeleteDuckHandler(appState *models.AppState, messenger *Messenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		duckID, err := idParam(r, "duckID")
		if err != nil {
			handleError(w, r, err, "invalid duck id")
			return
		}

		duck, err := appState.DuckStore.DeleteDuck(r.Context(), duckID)
		if err != nil {
			handleError(w, r, err, "failed to delete duck")
			return
		}

		messenger.Redirect(
			w, r, "/",
			Success(fmt.Sprintf("Duck - `%s' - deleted successfully!", duck.Name)),
		)
	}
}
