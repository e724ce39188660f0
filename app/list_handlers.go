package app

import (
	"context"
	"net/http"

	"geoconsole/errs"
	"geoconsole/log"
	"geoconsole/models"
	"geoconsole/presenter"

	"github.com/go-chi/chi"
	"github.com/lancer-kit/armory/api/render"
	"github.com/pkg/errors"
)

const geoJSONContentType = "application/geo+json"

func (h handler) listKeys(w http.ResponseWriter, r *http.Request) {
	view, err := h.presenter.Keys(r.Context(), sessionFrom(r).ID, pageParam(r))
	if err != nil {
		h.renderPresenterError(w, r, err)
		return
	}
	render.Success(w, view)
}

func (h handler) listDatasets(w http.ResponseWriter, r *http.Request) {
	view, err := h.presenter.Datasets(r.Context(), sessionFrom(r).ID, pageParam(r))
	if err != nil {
		h.renderPresenterError(w, r, err)
		return
	}
	render.Success(w, view)
}

func (h handler) createKey(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.presenter.CreateKey)
}

func (h handler) createDataset(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.presenter.CreateDataset)
}

type createFunc func(ctx context.Context, sid, name string) (presenter.CreateOutcome, error)

// create runs a creation dialog. A failure reported by the backend is not
// an HTTP error: the outcome carries the inline message of the dialog.
func (h handler) create(w http.ResponseWriter, r *http.Request, fn createFunc) {
	req := models.CreateRequest{}
	if err := readJSON(r, &req); err != nil {
		render.BadRequest(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		render.BadRequest(w, err.Error())
		return
	}

	outcome, err := fn(r.Context(), sessionFrom(r).ID, req.Name)
	if err != nil {
		h.renderPresenterError(w, r, err)
		return
	}
	render.Success(w, outcome)
}

func (h handler) download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	body, err := h.presenter.Download(r.Context(), sessionFrom(r).ID, id)
	if err != nil {
		h.renderPresenterError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", geoJSONContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.geojson"`)
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write(body); err != nil {
		reqLog := log.IncludeRequest(h.log, r)
		reqLog.Debug().Err(err).Msg("unable to write dataset")
	}
}

func (h handler) renderPresenterError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, presenter.ErrNoTeam):
		renderError(w, http.StatusConflict, errs.Unknown, "No team selected.")
	case errors.Is(err, presenter.ErrNoSession):
		renderError(w, http.StatusUnauthorized, errs.UnAuthorized, errs.Message(errs.UnAuthorized))
	case errors.Is(err, presenter.ErrUnknownDataset):
		renderError(w, http.StatusNotFound, errs.Unknown, "Dataset not found.")
	case errors.Is(err, presenter.ErrDownloadUnavailable):
		renderError(w, http.StatusForbidden, errs.Unknown, "Dataset is not public.")
	default:
		reqLog := log.IncludeRequest(h.log, r)
		reqLog.Warn().Err(err).Msg("upstream request failed")
		renderUpstreamError(w, err)
	}
}
