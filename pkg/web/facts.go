package web

import (
	"errors"
	"net/http"

	"github.com/getzep/ducks/pkg/forms"
	"github.com/getzep/ducks/pkg/models"
)

type AddFactData struct {
	Duck *models.Duck
	Form *forms.FactForm
}

func GetAddFactHandler(appState *models.AppState, messenger *Messenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		duck, ok := lookupDuck(w, r, appState)
		if !ok {
			return
		}

		renderAddFactPage(w, r, duck, forms.NewFactForm(), messenger.Pop(w, r))
	}
}

func PostAddFactHandler(appState *models.AppState, messenger *Messenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		duck, ok := lookupDuck(w, r, appState)
		if !ok {
			return
		}

		if err := r.ParseForm(); err != nil {
			handleError(w, r, models.NewBadRequestError(err.Error()), "failed to parse form")
			return
		}

		form := forms.BindFactForm(r.PostForm)
		if !form.Validate() {
			renderAddFactPage(w, r, duck, form, messenger.Pop(w, r))
			return
		}

		_, err := appState.DuckStore.CreateFact(r.Context(), duck.ID, form.Request())
		if err != nil {
			if errors.Is(err, models.ErrValidation) {
				form.SetErrors(err)
				renderAddFactPage(w, r, duck, form, messenger.Pop(w, r))
				return
			}
			handleError(w, r, err, "failed to create fact")
			return
		}

		messenger.Redirect(w, r, duckPath(duck.ID), Success("Fact added successfully!"))
	}
}

// GetDeleteFactHandler refuses to delete on GET and sends the user back to the fact's duck.
func GetDeleteFactHandler(appState *models.AppState, messenger *Messenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		factID, err := idParam(r, "factID")
		if err != nil {
			handleError(w, r, err, "invalid fact id")
			return
		}

		fact, err := appState.DuckStore.GetFact(r.Context(), factID)
		if err != nil {
			handleError(w, r, err, "failed to get fact")
			return
		}

		messenger.Redirect(w, r, duckPath(fact.DuckID), Error("Invalid Request"))
	}
}

func PostDeleteFactHandler(appState *models.AppState, messenger *Messenger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		factID, err := idParam(r, "factID")
		if err != nil {
			handleError(w, r, err, "invalid fact id")
			return
		}

		fact, err := appState.DuckStore.DeleteFact(r.Context(), factID)
		if err != nil {
			handleError(w, r, err, "failed to delete fact")
			return
		}

		messenger.Redirect(w, r, duckPath(fact.DuckID), Success("Fact deleted successfully"))
	}
}

func lookupDuck(w http.ResponseWriter, r *http.Request, appState *models.AppState) (*models.Duck, bool) {
	duckID, err := idParam(r, "duckID")
	if err != nil {
		handleError(w, r, err, "invalid duck id")
		return nil, false
	}

	duck, err := appState.DuckStore.GetDuck(r.Context(), duckID)
	if err != nil {
		handleError(w, r, err, "failed to get duck")
		return nil, false
	}

	return duck, true
}

func renderAddFactPage(
	w http.ResponseWriter,
	r *http.Request,
	duck *models.Duck,
	form *forms.FactForm,
	messages []StatusMessage,
) {
	path := duckPath(duck.ID) + "facts/add/"

	page := NewPage(
		"Add Fact",
		"Add a fact about "+duck.Name+".",
		path,
		[]string{
			"templates/pages/add_fact.html",
		},
		[]BreadCrumb{
			{
				Title: "Ducks",
				Path:  "/",
			},
			{
				Title: duck.Name,
				Path:  duckPath(duck.ID),
			},
			{
				Title: "Add Fact",
				Path:  path,
			},
		},
		&AddFactData{
			Duck: duck,
			Form: form,
		},
	)

	page.WithMessages(messages...).Render(w, r)
}
