package handlers

import (
	"net/http"
	"strings"

	"recipeshare_backend/apierr"
	"recipeshare_backend/models"
	"recipeshare_backend/response"
)

type userPatchInput struct {
	Username    *string `json:"username" validate:"omitempty,min=3,max=30"`
	DisplayName *string `json:"displayName" validate:"omitempty,max=80"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
	Avatar      *string `json:"avatar" validate:"omitempty,max=2048"`
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	return &s
}

func (in userPatchInput) patch() models.UserPatch {
	return models.UserPatch{
		Username:    trimmed(in.Username),
		DisplayName: trimmed(in.DisplayName),
		Bio:         trimmed(in.Bio),
		Avatar:      trimmed(in.Avatar),
	}
}

// getUser returns the public profile, or the full record to its owner.
func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := a.store.GetUser(r.Context(), pathID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if s, ok := authSession(r); ok && s.UserID == u.ID {
		u.Normalize()
		response.OK(w, u)
		return
	}
	response.OK(w, u.Public())
}

func (a *API) patchUser(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if session(r).UserID != id {
		a.fail(w, r, apierr.Forbidden("you can only edit your own profile"))
		return
	}
	var in userPatchInput
	if err := a.decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	p := in.patch()
	if p.Empty() {
		a.fail(w, r, apierr.BadRequest("no profile fields to update"))
		return
	}
	if p.Username != nil && *p.Username == "" {
		a.fail(w, r, apierr.BadRequest("username cannot be blank"))
		return
	}
	u, err := a.store.UpdateUser(r.Context(), id, p)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	u.Normalize()
	response.OK(w, u)
}

func (a *API) savedRecipes(w http.ResponseWriter, r *http.Request) {
	u, err := a.store.GetUser(r.Context(), pathID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	list, err := a.store.GetRecipesByIDs(r.Context(), u.SavedRecipes)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]recipeView, 0, len(list))
	for i := range list {
		out = append(out, a.view(&list[i]))
	}
	response.OK(w, out)
}
