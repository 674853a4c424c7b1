package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"recipeshare_backend/apierr"
	"recipeshare_backend/models"
	"recipeshare_backend/response"
	"recipeshare_backend/store"
)

type commentInput struct {
	RecipeID string `json:"recipeId" validate:"required"`
	Text     string `json:"text" validate:"required,max=2000"`
}

type questionInput struct {
	RecipeID string `json:"recipeId" validate:"required"`
	Question string `json:"question" validate:"required,max=1000"`
}

type answerInput struct {
	Answer string `json:"answer" validate:"required,max=4000"`
}

func recipeParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.URL.Query().Get("recipeId"))
	if id == "" {
		return "", apierr.BadRequest("recipeId parameter is required")
	}
	return id, nil
}

func (a *API) listComments(w http.ResponseWriter, r *http.Request) {
	id, err := recipeParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	list, err := a.store.ListComments(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.OK(w, list)
}

func (a *API) createComment(w http.ResponseWriter, r *http.Request) {
	var in commentInput
	if err := a.decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	rec, err := a.store.GetRecipe(r.Context(), in.RecipeID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if rec.External {
		a.fail(w, r, apierr.BadRequest("imported recipes cannot be commented on"))
		return
	}

	sess := session(r)
	c := &models.Comment{
		ID:         uuid.NewString(),
		RecipeID:   rec.ID,
		AuthorID:   sess.UserID,
		AuthorName: sess.Username,
		Text:       strings.TrimSpace(in.Text),
		CreatedAt:  a.now().UTC(),
	}
	if err := a.store.CreateComment(r.Context(), c); err != nil {
		a.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, c)
}

// deleteComment lets the comment's author or the recipe's author remove it.
func (a *API) deleteComment(w http.ResponseWriter, r *http.Request) {
	c, err := a.store.GetComment(r.Context(), pathID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	caller := session(r).UserID
	allowed := c.AuthorID == caller
	if !allowed {
		rec, err := a.store.GetRecipe(r.Context(), c.RecipeID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			a.fail(w, r, err)
			return
		}
		allowed = rec != nil && !rec.External && rec.AuthorID == caller
	}
	if !allowed {
		a.fail(w, r, apierr.Forbidden("only the comment or recipe author can delete this comment"))
		return
	}
	if err := a.store.DeleteComment(r.Context(), c); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listFAQs(w http.ResponseWriter, r *http.Request) {
	id, err := recipeParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	list, err := a.store.ListFAQs(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.OK(w, list)
}

func (a *API) askFAQ(w http.ResponseWriter, r *http.Request) {
	var in questionInput
	if err := a.decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	f := &models.FAQ{
		ID:        uuid.NewString(),
		RecipeID:  in.RecipeID,
		Question:  strings.TrimSpace(in.Question),
		AskedBy:   session(r).UserID,
		CreatedAt: a.now().UTC(),
	}
	if err := a.store.CreateFAQ(r.Context(), f); err != nil {
		a.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, f)
}

func (a *API) answerFAQ(w http.ResponseWriter, r *http.Request) {
	f, err := a.store.GetFAQ(r.Context(), pathID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	rec, err := a.store.GetRecipe(r.Context(), f.RecipeID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if rec.External || rec.AuthorID != session(r).UserID {
		a.fail(w, r, apierr.Forbidden("only the recipe author can answer questions"))
		return
	}
	var in answerInput
	if err := a.decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	answered, err := a.store.AnswerFAQ(r.Context(), f.ID, strings.TrimSpace(in.Answer))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.OK(w, answered)
}
