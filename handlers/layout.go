package handlers

import (
	"bytes"
	"net/http"

	"recipeshare_backend/blocks"
	"recipeshare_backend/response"
)

type layoutView struct {
	RecipeID string            `json:"recipeId"`
	Format   blocks.Format     `json:"format"`
	Blocks   []blocks.Rendered `json:"blocks"`
}

// recipeLayout renders the recipe through its stored block list, or the
// default layout when it has none.
func (a *API) recipeLayout(w http.ResponseWriter, r *http.Request) {
	rec, err := a.store.GetRecipe(r.Context(), pathID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	list, format := blocks.Layout(rec)
	a.metrics.TemplateDecoded(string(format))
	if format == blocks.FormatInvalid {
		a.log.Warn("stored template is unreadable", "recipe_id", rec.ID)
	}
	rendered := blocks.Render(rec, list, a.imageURL)

	if r.URL.Query().Get("format") != "html" {
		response.OK(w, layoutView{RecipeID: rec.ID, Format: format, Blocks: rendered})
		return
	}
	var buf bytes.Buffer
	if err := blocks.WriteHTML(&buf, rec.Title, rendered); err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
