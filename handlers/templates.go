package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"recipeshare_backend/apierr"
	"recipeshare_backend/blocks"
	"recipeshare_backend/models"
	"recipeshare_backend/response"
)

type templateInput struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Template json.RawMessage `json:"template" validate:"required"`
	Public   bool            `json:"public"`
}

type templateView struct {
	models.Template
	Blocks []blocks.Block `json:"blocks"`
}

func viewTemplate(t models.Template) templateView {
	return templateView{Template: t, Blocks: blocks.Decode(t.Template)}
}

func viewTemplates(list []models.Template) []templateView {
	out := make([]templateView, 0, len(list))
	for _, t := range list {
		out = append(out, viewTemplate(t))
	}
	return out
}

// templateText accepts a template sent as a JSON string or as a raw block
// list or envelope.
func templateText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	if trimmed[0] != '"' {
		return string(trimmed), nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", apierr.BadRequest("invalid template: %v", err)
	}
	return s, nil
}

// layoutTemplate canonicalises a submitted template. Blank input stays blank
// so the recipe renders with the default layout.
func layoutTemplate(raw json.RawMessage) (string, error) {
	s, err := templateText(raw)
	if err != nil || strings.TrimSpace(s) == "" {
		return "", err
	}
	if _, format := blocks.DecodeFormat(s); format == blocks.FormatInvalid {
		return "", apierr.BadRequest("template is not a valid block layout")
	}
	return blocks.Normalize(s)
}

func (a *API) saveTemplate(w http.ResponseWriter, r *http.Request) {
	var in templateInput
	if err := a.decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	tmpl, err := layoutTemplate(in.Template)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if tmpl == "" {
		a.fail(w, r, apierr.BadRequest("template is empty"))
		return
	}

	t := &models.Template{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Template:  tmpl,
		OwnerID:   session(r).UserID,
		Public:    in.Public,
		CreatedAt: a.now().UTC(),
	}
	if err := a.store.SaveTemplate(r.Context(), t); err != nil {
		a.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, viewTemplate(*t))
}

func (a *API) publicTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := a.store.ListPublicTemplates(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.OK(w, viewTemplates(list))
}

func (a *API) userTemplates(w http.ResponseWriter, r *http.Request) {
	owner := pathID(r)
	list, err := a.store.ListUserTemplates(r.Context(), owner, owner == session(r).UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.OK(w, viewTemplates(list))
}

// getTemplate hides private templates from everyone but their owner.
func (a *API) getTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := a.store.GetTemplate(r.Context(), pathID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if s, ok := authSession(r); !t.Public && (!ok || s.UserID != t.OwnerID) {
		a.fail(w, r, apierr.NotFound("template %s not found", t.ID))
		return
	}
	response.OK(w, viewTemplate(*t))
}
