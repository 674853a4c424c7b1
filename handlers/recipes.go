package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"recipeshare_backend/apierr"
	"recipeshare_backend/models"
	"recipeshare_backend/response"
	"recipeshare_backend/storage"
	"recipeshare_backend/store"
)

type ingredientInput struct {
	Name     string `json:"name" validate:"required,max=200"`
	Quantity string `json:"quantity" validate:"max=50"`
	Unit     string `json:"unit" validate:"max=50"`
}

type directionInput struct {
	Step        int    `json:"step" validate:"gte=0"`
	Instruction string `json:"instruction" validate:"required,max=2000"`
}

type recipeInput struct {
	Title       string             `json:"title" validate:"required,max=200"`
	Description string             `json:"description" validate:"max=5000"`
	Ingredients []ingredientInput  `json:"ingredients" validate:"required,min=1,dive"`
	Directions  []directionInput   `json:"directions" validate:"required,min=1,dive"`
	Images      []string           `json:"images" validate:"max=20"`
	CookingTime models.CookingTime `json:"cookingTime"`
	Nutrition   models.Nutrition   `json:"nutrition"`
	Category    string             `json:"category"`
	// Template is either a stored template string or a block list.
	Template json.RawMessage `json:"template"`
}

type externalInput struct {
	Title       string             `json:"title" validate:"required,max=200"`
	Description string             `json:"description" validate:"max=5000"`
	Ingredients []ingredientInput  `json:"ingredients" validate:"dive"`
	Directions  []directionInput   `json:"directions" validate:"dive"`
	Images      []string           `json:"images" validate:"max=20,dive,url"`
	CookingTime models.CookingTime `json:"cookingTime"`
	Nutrition   models.Nutrition   `json:"nutrition"`
	Category    string             `json:"category"`
	SourceURL   string             `json:"sourceUrl" validate:"required,url"`
}

type recipeView struct {
	models.Recipe
	ImageURLs []string `json:"imageUrls"`
	LikeCount int      `json:"likeCount"`
}

type pageView struct {
	Recipes    []recipeView `json:"recipes"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	TotalPages int          `json:"totalPages"`
}

func (a *API) view(r *models.Recipe) recipeView {
	r.Normalize()
	urls := make([]string, len(r.Images))
	for i, key := range r.Images {
		urls[i] = a.imageURL(key)
	}
	return recipeView{Recipe: *r, ImageURLs: urls, LikeCount: len(r.Likes)}
}

func (a *API) pageOf(p *store.RecipePage) pageView {
	out := pageView{
		Recipes:    make([]recipeView, 0, len(p.Items)),
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages(),
	}
	for i := range p.Items {
		out.Recipes = append(out.Recipes, a.view(&p.Items[i]))
	}
	return out
}

func ingredients(in []ingredientInput) []models.Ingredient {
	out := make([]models.Ingredient, 0, len(in))
	for _, i := range in {
		out = append(out, models.Ingredient{
			Name:     strings.TrimSpace(i.Name),
			Quantity: strings.TrimSpace(i.Quantity),
			Unit:     strings.TrimSpace(i.Unit),
		})
	}
	return out
}

func directions(in []directionInput) []models.Direction {
	out := make([]models.Direction, 0, len(in))
	for _, d := range in {
		out = append(out, models.Direction{Step: d.Step, Instruction: strings.TrimSpace(d.Instruction)})
	}
	return out
}

func category(s string) (models.Category, error) {
	if strings.TrimSpace(s) == "" {
		return models.CategoryOther, nil
	}
	c, ok := models.ParseCategory(s)
	if !ok {
		return "", apierr.BadRequest("unknown category %q", s)
	}
	return c, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apierr.BadRequest("%s must be a non-negative integer", key)
	}
	return n, nil
}

func paging(r *http.Request) (int, int, error) {
	page, err := queryInt(r, "page")
	if err != nil {
		return 0, 0, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	page, limit = store.Clamp(page, limit)
	return page, limit, nil
}

// readRecipe accepts either a JSON body or a multipart form with a "recipe"
// JSON field, an optional "template" field and "images" files.
func (a *API) readRecipe(w http.ResponseWriter, r *http.Request) (*recipeInput, []storage.File, error) {
	var in recipeInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := a.decodeJSON(w, r, &in); err != nil {
			return nil, nil, err
		}
		return &in, nil, nil
	}

	if err := a.parseMultipart(w, r); err != nil {
		return nil, nil, err
	}
	raw := r.FormValue("recipe")
	if raw == "" {
		return nil, nil, apierr.BadRequest("recipe field is required")
	}
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, nil, apierr.BadRequest("invalid recipe field: %v", err)
	}
	if vals, ok := r.MultipartForm.Value["template"]; ok && len(vals) > 0 {
		quoted, err := json.Marshal(vals[0])
		if err != nil {
			return nil, nil, apierr.BadRequest("invalid template field")
		}
		in.Template = quoted
	}
	if err := a.check(&in); err != nil {
		return nil, nil, err
	}
	files, err := a.formFiles(r, "images")
	if err != nil {
		return nil, nil, err
	}
	return &in, files, nil
}

func (a *API) listRecipes(w http.ResponseWriter, r *http.Request) {
	page, limit, err := paging(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	f := store.RecipeFilter{Page: page, Limit: limit, AuthorID: r.URL.Query().Get("author")}
	if f.AuthorID == "me" {
		s, ok := authSession(r)
		if !ok {
			a.fail(w, r, apierr.Unauthorized("author=me requires a bearer token"))
			return
		}
		f.AuthorID = s.UserID
	}
	if c := r.URL.Query().Get("category"); c != "" {
		if f.Category, err = category(c); err != nil {
			a.fail(w, r, err)
			return
		}
	}

	p, err := a.store.ListRecipes(r.Context(), f)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.OK(w, a.pageOf(p))
}

func (a *API) searchRecipes(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("query"))
	if q == "" {
		a.fail(w, r, apierr.BadRequest("query parameter is required"))
		return
	}
	page, limit, err := paging(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	p, err := a.store.SearchRecipes(r.Context(), q, page, limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.OK(w, a.pageOf(p))
}

func (a *API) getRecipe(w http.ResponseWriter, r *http.Request) {
	rec, err := a.store.GetRecipe(r.Context(), pathID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.OK(w, a.view(rec))
}

func (a *API) createRecipe(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	in, files, err := a.readRecipe(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	cat, err := category(in.Category)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	tmpl, err := layoutTemplate(in.Template)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	images := append([]string{}, in.Images...)
	if len(files) > 0 {
		uploads, err := a.uploader.UploadAll(r.Context(), files)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		for _, u := range uploads {
			images = append(images, u.Key)
		}
	}

	now := a.now().UTC()
	rec := &models.Recipe{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Ingredients: ingredients(in.Ingredients),
		Directions:  directions(in.Directions),
		Images:      images,
		CookingTime: in.CookingTime,
		Nutrition:   in.Nutrition,
		Category:    cat,
		AuthorID:    sess.UserID,
		Template:    tmpl,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rec.Normalize()
	if err := a.store.CreateRecipe(r.Context(), rec); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.store.AddCreatedRecipe(r.Context(), sess.UserID, rec.ID); err != nil {
		a.log.Warn("recipe not linked to author", "recipe_id", rec.ID, "user_id", sess.UserID, "error", err)
	}
	a.log.Info("recipe created", "recipe_id", rec.ID, "user_id", sess.UserID, "images", len(images))
	response.JSON(w, http.StatusCreated, a.view(rec))
}

func (a *API) importExternal(w http.ResponseWriter, r *http.Request) {
	var in externalInput
	if err := a.decodeJSON(w, r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	cat, err := category(in.Category)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	now := a.now().UTC()
	rec := &models.Recipe{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Ingredients: ingredients(in.Ingredients),
		Directions:  directions(in.Directions),
		Images:      in.Images,
		CookingTime: in.CookingTime,
		Nutrition:   in.Nutrition,
		Category:    cat,
		External:    true,
		SourceURL:   in.SourceURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rec.Normalize()
	if err := a.store.CreateRecipe(r.Context(), rec); err != nil {
		a.fail(w, r, err)
		return
	}
	a.log.Info("external recipe imported", "recipe_id", rec.ID, "source", rec.SourceURL)
	response.JSON(w, http.StatusCreated, a.view(rec))
}

// owned loads the recipe at {id} and checks the caller wrote it.
func (a *API) owned(r *http.Request) (*models.Recipe, error) {
	rec, err := a.store.GetRecipe(r.Context(), pathID(r))
	if err != nil {
		return nil, err
	}
	if rec.External || rec.AuthorID != session(r).UserID {
		return nil, apierr.Forbidden("only the author can change this recipe")
	}
	return rec, nil
}

func (a *API) updateRecipe(w http.ResponseWriter, r *http.Request) {
	rec, err := a.owned(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	in, files, err := a.readRecipe(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	cat, err := category(in.Category)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if len(in.Template) > 0 && string(in.Template) != "null" {
		if rec.Template, err = layoutTemplate(in.Template); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	if in.Images != nil {
		rec.Images = append([]string{}, in.Images...)
	}
	if len(files) > 0 {
		uploads, err := a.uploader.UploadAll(r.Context(), files)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		for _, u := range uploads {
			rec.Images = append(rec.Images, u.Key)
		}
	}

	rec.Title = strings.TrimSpace(in.Title)
	rec.Description = strings.TrimSpace(in.Description)
	rec.Ingredients = ingredients(in.Ingredients)
	rec.Directions = directions(in.Directions)
	rec.CookingTime = in.CookingTime
	rec.Nutrition = in.Nutrition
	rec.Category = cat
	rec.UpdatedAt = a.now().UTC()
	rec.Normalize()
	if err := a.store.UpdateRecipe(r.Context(), rec); err != nil {
		a.fail(w, r, err)
		return
	}
	response.OK(w, a.view(rec))
}

func (a *API) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	rec, err := a.owned(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.store.DeleteRecipe(r.Context(), rec.ID); err != nil {
		a.fail(w, r, err)
		return
	}
	err = a.store.RemoveCreatedRecipe(r.Context(), rec.AuthorID, rec.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		a.log.Warn("recipe not unlinked from author", "recipe_id", rec.ID, "user_id", rec.AuthorID, "error", err)
	}
	a.log.Info("recipe deleted", "recipe_id", rec.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) toggleLike(w http.ResponseWriter, r *http.Request) {
	rec, err := a.store.GetRecipe(r.Context(), pathID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if rec.External {
		a.fail(w, r, apierr.BadRequest("imported recipes cannot be liked"))
		return
	}
	liked, count, err := a.store.ToggleLike(r.Context(), rec.ID, session(r).UserID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.OK(w, map[string]any{"liked": liked, "likes": count})
}

func (a *API) toggleSave(w http.ResponseWriter, r *http.Request) {
	rec, err := a.store.GetRecipe(r.Context(), pathID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	saved, err := a.store.ToggleSavedRecipe(r.Context(), session(r).UserID, rec.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	response.OK(w, map[string]bool{"saved": saved})
}
