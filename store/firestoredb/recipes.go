package firestoredb

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"

	"recipeshare_backend/models"
	"recipeshare_backend/store"
)

func (s *Store) CreateRecipe(ctx context.Context, r *models.Recipe) error {
	r.Keywords = store.Keywords(r)
	r.Normalize()
	_, err := s.col(recipesCollection).Doc(r.ID).Create(ctx, r)
	return mapErr(err, "recipe", r.ID)
}

func (s *Store) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	doc, err := s.col(recipesCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapErr(err, "recipe", id)
	}
	var r models.Recipe
	if err := doc.DataTo(&r); err != nil {
		return nil, fmt.Errorf("decode recipe %s: %w", id, err)
	}
	r.Normalize()
	return &r, nil
}

func (s *Store) GetRecipesByIDs(ctx context.Context, ids []string) ([]models.Recipe, error) {
	out := []models.Recipe{}
	if len(ids) == 0 {
		return out, nil
	}
	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = s.col(recipesCollection).Doc(id)
	}
	docs, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("get recipes: %w", err)
	}
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		var r models.Recipe
		if err := doc.DataTo(&r); err != nil {
			return nil, fmt.Errorf("decode recipe %s: %w", doc.Ref.ID, err)
		}
		r.Normalize()
		out = append(out, r)
	}
	return out, nil
}

// UpdateRecipe rewrites the editable fields only; likes, comments and faqs
// are owned by their own operations.
func (s *Store) UpdateRecipe(ctx context.Context, r *models.Recipe) error {
	r.Keywords = store.Keywords(r)
	r.Normalize()
	_, err := s.col(recipesCollection).Doc(r.ID).Update(ctx, []firestore.Update{
		{Path: "title", Value: r.Title},
		{Path: "description", Value: r.Description},
		{Path: "ingredients", Value: r.Ingredients},
		{Path: "directions", Value: r.Directions},
		{Path: "images", Value: r.Images},
		{Path: "cookingTime", Value: r.CookingTime},
		{Path: "nutrition", Value: r.Nutrition},
		{Path: "category", Value: r.Category},
		{Path: "template", Value: r.Template},
		{Path: "sourceUrl", Value: r.SourceURL},
		{Path: "keywords", Value: r.Keywords},
		{Path: "updatedAt", Value: r.UpdatedAt},
	})
	return mapErr(err, "recipe", r.ID)
}

// DeleteRecipe removes the recipe and the comments and FAQs attached to it.
func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	ref := s.col(recipesCollection).Doc(id)
	if _, err := ref.Get(ctx); err != nil {
		return mapErr(err, "recipe", id)
	}

	bw := s.client.BulkWriter(ctx)
	for _, name := range []string{commentsCollection, faqsCollection} {
		iter := s.col(name).Where("recipeId", "==", id).Documents(ctx)
		docs, err := iter.GetAll()
		if err != nil {
			bw.End()
			return fmt.Errorf("list %s of recipe %s: %w", name, id, err)
		}
		for _, doc := range docs {
			if _, err := bw.Delete(doc.Ref); err != nil {
				bw.End()
				return fmt.Errorf("delete %s: %w", doc.Ref.ID, err)
			}
		}
	}
	if _, err := bw.Delete(ref); err != nil {
		bw.End()
		return mapErr(err, "recipe", id)
	}
	bw.End()
	return nil
}

func (s *Store) filtered(f store.RecipeFilter) firestore.Query {
	q := s.col(recipesCollection).Query
	if f.Category != "" {
		q = q.Where("category", "==", string(f.Category))
	}
	if f.AuthorID != "" {
		q = q.Where("authorId", "==", f.AuthorID)
	}
	return q
}

func (s *Store) ListRecipes(ctx context.Context, f store.RecipeFilter) (*store.RecipePage, error) {
	page, limit := store.Clamp(f.Page, f.Limit)
	q := s.filtered(f)

	total, err := count(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count recipes: %w", err)
	}
	items, err := getAll[models.Recipe](q.
		OrderBy("createdAt", firestore.Desc).
		Offset(store.Offset(page, limit)).
		Limit(limit).
		Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	for i := range items {
		items[i].Normalize()
	}
	return &store.RecipePage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// SearchRecipes matches any query term against the keywords array and ranks
// candidates by how many terms they contain.
func (s *Store) SearchRecipes(ctx context.Context, query string, page, limit int) (*store.RecipePage, error) {
	page, limit = store.Clamp(page, limit)
	terms := store.QueryTerms(query)
	if len(terms) == 0 {
		return &store.RecipePage{Items: []models.Recipe{}, Page: page, Limit: limit}, nil
	}
	found, err := getAll[models.Recipe](s.col(recipesCollection).
		Where("keywords", "array-contains-any", terms).
		Limit(maxSearchCandidates).
		Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}
	sort.SliceStable(found, func(i, j int) bool {
		si, sj := store.Score(found[i].Keywords, terms), store.Score(found[j].Keywords, terms)
		if si != sj {
			return si > sj
		}
		return found[i].CreatedAt.After(found[j].CreatedAt)
	})

	start := min(store.Offset(page, limit), len(found))
	end := min(start+limit, len(found))
	items := found[start:end]
	for i := range items {
		items[i].Normalize()
	}
	return &store.RecipePage{Items: items, Total: int64(len(found)), Page: page, Limit: limit}, nil
}

func (s *Store) ToggleLike(ctx context.Context, recipeID, userID string) (bool, int, error) {
	ref := s.col(recipesCollection).Doc(recipeID)
	var liked bool
	var n int
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var r models.Recipe
		if err := doc.DataTo(&r); err != nil {
			return err
		}
		liked = !r.LikedBy(userID)
		if liked {
			n = len(r.Likes) + 1
			return tx.Update(ref, []firestore.Update{{Path: "likes", Value: firestore.ArrayUnion(userID)}})
		}
		n = len(r.Likes) - 1
		return tx.Update(ref, []firestore.Update{{Path: "likes", Value: firestore.ArrayRemove(userID)}})
	})
	if err != nil {
		return false, 0, mapErr(err, "recipe", recipeID)
	}
	return liked, n, nil
}
