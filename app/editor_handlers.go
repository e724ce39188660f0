package app

import (
	"context"
	"net/http"

	"geoconsole/app/stream"
	"geoconsole/draft"
	"geoconsole/errs"
	"geoconsole/models"
	"geoconsole/origin"
	"geoconsole/store"

	"github.com/go-chi/chi"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/lancer-kit/armory/api/render"
	"github.com/pkg/errors"
)

var errInvalidStatus = errors.New("must be draft or published")

func (c *Console) editorOptions(sid, event string) draft.Options {
	return draft.Options{
		MessageDisplay: c.cfg.Editor.MessageDisplay,
		OnChange: func(snapshot interface{}) {
			c.hub.Publish(sid, &models.Message{Channel: stream.ChannelEditor, Event: event, Data: snapshot})
		},
	}
}

func selectedTeam(w http.ResponseWriter, state store.State) (models.Team, bool) {
	team, ok := state.SelectedTeam()
	if !ok {
		renderError(w, http.StatusConflict, errs.Unknown, "No team selected.")
	}
	return team, ok
}

func editorNotMounted(w http.ResponseWriter) {
	renderError(w, http.StatusNotFound, errs.Unknown, "Editor is not mounted.")
}

// Key editor.

type keyPatch struct {
	Name           *string `json:"name"`
	AllowedOrigins *string `json:"allowedOrigins"`
}

func (p keyPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.NilOrNotEmpty, validation.Length(1, 128)),
	)
}

func (h handler) mountKeyEditor(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	id := chi.URLParam(r, "id")

	state, _ := h.store.State(session.ID)
	team, ok := selectedTeam(w, state)
	if !ok {
		return
	}
	key, ok := state.FindKey(team.TeamID, id)
	if !ok {
		renderError(w, http.StatusNotFound, errs.Unknown, "Key not found.")
		return
	}

	teamID := team.TeamID
	editor, created := h.keyEditors.mount(draft.KeyKey(session.ID, id), func() *draft.Editor[models.Key] {
		res := draft.KeyResource(session.ID, id,
			func(ctx context.Context, k models.Key) (models.Key, error) {
				return h.api.UpdateKey(ctx, session, teamID, k)
			},
			func(k models.Key) { h.store.Dispatch(session.ID, store.KeyUpdated(teamID, k)) },
		)
		return draft.NewEditor(h.scheduler, res, key, h.log, h.editorOptions(session.ID, "key:"+id))
	})
	if !created {
		editor.Sync(key)
	}
	render.Success(w, editor.Snapshot())
}

func (h handler) keyEditor(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.keyEditors.get(draft.KeyKey(sessionFrom(r).ID, chi.URLParam(r, "id")))
	if !ok {
		editorNotMounted(w)
		return
	}
	render.Success(w, editor.Snapshot())
}

func (h handler) patchKeyEditor(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.keyEditors.get(draft.KeyKey(sessionFrom(r).ID, chi.URLParam(r, "id")))
	if !ok {
		editorNotMounted(w)
		return
	}

	patch := keyPatch{}
	if err := readJSON(r, &patch); err != nil {
		render.BadRequest(w, "invalid request body")
		return
	}
	if err := patch.Validate(); err != nil {
		render.BadRequest(w, err.Error())
		return
	}

	editor.Stage(func(k *models.Key) {
		if patch.Name != nil {
			k.Name = *patch.Name
		}
		if patch.AllowedOrigins != nil {
			k.AllowedOrigins = origin.ParseList(*patch.AllowedOrigins)
		}
	})
	render.Success(w, editor.Snapshot())
}

func (h handler) saveKeyEditor(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.keyEditors.get(draft.KeyKey(sessionFrom(r).ID, chi.URLParam(r, "id")))
	if !ok {
		editorNotMounted(w)
		return
	}
	editor.Save()
	render.Success(w, editor.Snapshot())
}

func (h handler) unmountKeyEditor(w http.ResponseWriter, r *http.Request) {
	if !h.keyEditors.unmount(draft.KeyKey(sessionFrom(r).ID, chi.URLParam(r, "id"))) {
		editorNotMounted(w)
		return
	}
	render.Success(w, "unmounted")
}

// Dataset editor.

type datasetPatch struct {
	Name           *string               `json:"name"`
	AllowedOrigins *string               `json:"allowedOrigins"`
	IsPublic       *bool                 `json:"isPublic"`
	Status         *models.DatasetStatus `json:"status"`
}

func (p datasetPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.NilOrNotEmpty, validation.Length(1, 128)),
		validation.Field(&p.Status, validation.By(func(value interface{}) error {
			status, _ := value.(*models.DatasetStatus)
			if status != nil && !status.Valid() {
				return errInvalidStatus
			}
			return nil
		})),
	)
}

type datasetEditorView struct {
	draft.Snapshot[models.Dataset]
	DownloadAvailable bool   `json:"downloadAvailable"`
	DownloadURL       string `json:"downloadUrl,omitempty"`
}

func (h handler) datasetView(editor *draft.Editor[models.Dataset]) datasetEditorView {
	snapshot := editor.Snapshot()
	view := datasetEditorView{Snapshot: snapshot}
	if snapshot.Auth.DownloadAvailable() {
		view.DownloadAvailable = true
		view.DownloadURL = h.presenter.DownloadURL(snapshot.Auth.ID)
	}
	return view
}

// mountDatasetEditor always reads the record fresh from upstream.
func (h handler) mountDatasetEditor(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	id := chi.URLParam(r, "id")

	state, _ := h.store.State(session.ID)
	team, ok := selectedTeam(w, state)
	if !ok {
		return
	}

	record, err := h.api.GetDataset(r.Context(), session, id)
	if err != nil {
		h.renderPresenterError(w, r, err)
		return
	}

	teamID := team.TeamID
	editor, created := h.datasetEditors.mount(draft.DatasetKey(session.ID, id), func() *draft.Editor[models.Dataset] {
		res := draft.DatasetResource(session.ID, id,
			func(ctx context.Context, ds models.Dataset) (models.Dataset, error) {
				return h.api.UpdateDataset(ctx, session, ds)
			},
			func(ds models.Dataset) {
				h.lister.Invalidate(models.ResourceDatasets, teamID)
				h.store.Dispatch(session.ID, store.DatasetUpdated(ds))
			},
		)
		return draft.NewEditor(h.scheduler, res, record, h.log, h.editorOptions(session.ID, "dataset:"+id))
	})
	if !created {
		editor.Sync(record)
	}
	render.Success(w, h.datasetView(editor))
}

func (h handler) datasetEditor(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.datasetEditors.get(draft.DatasetKey(sessionFrom(r).ID, chi.URLParam(r, "id")))
	if !ok {
		editorNotMounted(w)
		return
	}
	render.Success(w, h.datasetView(editor))
}

// patchDatasetEditor stages the form fields; visibility and status are
// toggles that save on their own.
func (h handler) patchDatasetEditor(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.datasetEditors.get(draft.DatasetKey(sessionFrom(r).ID, chi.URLParam(r, "id")))
	if !ok {
		editorNotMounted(w)
		return
	}

	patch := datasetPatch{}
	if err := readJSON(r, &patch); err != nil {
		render.BadRequest(w, "invalid request body")
		return
	}
	if err := patch.Validate(); err != nil {
		render.BadRequest(w, err.Error())
		return
	}

	if patch.Name != nil || patch.AllowedOrigins != nil {
		editor.Stage(func(ds *models.Dataset) {
			if patch.Name != nil {
				ds.Name = *patch.Name
			}
			if patch.AllowedOrigins != nil {
				ds.AllowedOrigins = origin.ParseList(*patch.AllowedOrigins)
			}
		})
	}
	if patch.IsPublic != nil || patch.Status != nil {
		editor.Edit(func(ds *models.Dataset) {
			if patch.IsPublic != nil {
				ds.IsPublic = *patch.IsPublic
			}
			if patch.Status != nil {
				ds.Status = *patch.Status
			}
		})
	}
	render.Success(w, h.datasetView(editor))
}

func (h handler) saveDatasetEditor(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.datasetEditors.get(draft.DatasetKey(sessionFrom(r).ID, chi.URLParam(r, "id")))
	if !ok {
		editorNotMounted(w)
		return
	}
	editor.Save()
	render.Success(w, h.datasetView(editor))
}

func (h handler) unmountDatasetEditor(w http.ResponseWriter, r *http.Request) {
	if !h.datasetEditors.unmount(draft.DatasetKey(sessionFrom(r).ID, chi.URLParam(r, "id"))) {
		editorNotMounted(w)
		return
	}
	render.Success(w, "unmounted")
}

// Team metadata editor, bound to the selected team.

type teamPatch struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	URL          *string `json:"url"`
	BillingEmail *string `json:"billingEmail"`
}

func (p teamPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.NilOrNotEmpty, validation.Length(1, 128)),
		validation.Field(&p.URL, is.URL),
		validation.Field(&p.BillingEmail, is.Email),
	)
}

func (h handler) teamEditorKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	session := sessionFrom(r)
	state, _ := h.store.State(session.ID)
	team, ok := selectedTeam(w, state)
	if !ok {
		return "", false
	}
	return draft.TeamKey(session.ID, team.TeamID), true
}

func (h handler) mountTeamEditor(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	state, _ := h.store.State(session.ID)
	team, ok := selectedTeam(w, state)
	if !ok {
		return
	}

	editor, created := h.teamEditors.mount(draft.TeamKey(session.ID, team.TeamID), func() *draft.Editor[models.Team] {
		res := draft.TeamResource(session.ID, team.TeamID,
			func(ctx context.Context, t models.Team) (models.Team, error) {
				return h.api.UpdateTeam(ctx, session, t)
			},
			func(t models.Team) { h.store.Dispatch(session.ID, store.TeamUpdated(t)) },
		)
		return draft.NewEditor(h.scheduler, res, team, h.log, h.editorOptions(session.ID, "team:"+team.TeamID))
	})
	if !created {
		editor.Sync(team)
	}
	render.Success(w, editor.Snapshot())
}

func (h handler) teamEditor(w http.ResponseWriter, r *http.Request) {
	key, ok := h.teamEditorKey(w, r)
	if !ok {
		return
	}
	editor, ok := h.teamEditors.get(key)
	if !ok {
		editorNotMounted(w)
		return
	}
	render.Success(w, editor.Snapshot())
}

func (h handler) patchTeamEditor(w http.ResponseWriter, r *http.Request) {
	key, ok := h.teamEditorKey(w, r)
	if !ok {
		return
	}
	editor, ok := h.teamEditors.get(key)
	if !ok {
		editorNotMounted(w)
		return
	}

	patch := teamPatch{}
	if err := readJSON(r, &patch); err != nil {
		render.BadRequest(w, "invalid request body")
		return
	}
	if err := patch.Validate(); err != nil {
		render.BadRequest(w, err.Error())
		return
	}

	editor.Stage(func(t *models.Team) {
		if patch.Name != nil {
			t.Name = *patch.Name
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.URL != nil {
			t.URL = *patch.URL
		}
		if patch.BillingEmail != nil {
			t.BillingEmail = *patch.BillingEmail
		}
	})
	render.Success(w, editor.Snapshot())
}

func (h handler) saveTeamEditor(w http.ResponseWriter, r *http.Request) {
	key, ok := h.teamEditorKey(w, r)
	if !ok {
		return
	}
	editor, ok := h.teamEditors.get(key)
	if !ok {
		editorNotMounted(w)
		return
	}
	editor.Save()
	render.Success(w, editor.Snapshot())
}

func (h handler) unmountTeamEditor(w http.ResponseWriter, r *http.Request) {
	key, ok := h.teamEditorKey(w, r)
	if !ok {
		return
	}
	if !h.teamEditors.unmount(key) {
		editorNotMounted(w)
		return
	}
	render.Success(w, "unmounted")
}
