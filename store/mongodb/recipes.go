package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"recipeshare_backend/models"
	"recipeshare_backend/store"
)

func (s *Store) CreateRecipe(ctx context.Context, r *models.Recipe) error {
	r.Keywords = store.Keywords(r)
	r.Normalize()
	_, err := s.col(recipesCollection).InsertOne(ctx, r)
	return mapErr(err, "recipe", r.ID)
}

func (s *Store) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	var r models.Recipe
	if err := s.col(recipesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, mapErr(err, "recipe", id)
	}
	r.Normalize()
	return &r, nil
}

// GetRecipesByIDs returns the recipes that still exist, in the order of ids.
func (s *Store) GetRecipesByIDs(ctx context.Context, ids []string) ([]models.Recipe, error) {
	if len(ids) == 0 {
		return []models.Recipe{}, nil
	}
	found, err := findAll[models.Recipe](ctx, s.col(recipesCollection), bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("get recipes: %w", err)
	}
	byID := make(map[string]models.Recipe, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}
	out := make([]models.Recipe, 0, len(found))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			r.Normalize()
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) UpdateRecipe(ctx context.Context, r *models.Recipe) error {
	r.Keywords = store.Keywords(r)
	r.Normalize()
	res, err := s.col(recipesCollection).UpdateOne(ctx, bson.M{"_id": r.ID}, bson.M{"$set": bson.M{
		"title":       r.Title,
		"description": r.Description,
		"ingredients": r.Ingredients,
		"directions":  r.Directions,
		"images":      r.Images,
		"cookingTime": r.CookingTime,
		"nutrition":   r.Nutrition,
		"category":    r.Category,
		"template":    r.Template,
		"sourceUrl":   r.SourceURL,
		"keywords":    r.Keywords,
		"updatedAt":   r.UpdatedAt,
	}})
	if err != nil {
		return mapErr(err, "recipe", r.ID)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("recipe %s: %w", r.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteRecipe removes the recipe and the comments and FAQs attached to it.
func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	res, err := s.col(recipesCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapErr(err, "recipe", id)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("recipe %s: %w", id, store.ErrNotFound)
	}
	for _, name := range []string{commentsCollection, faqsCollection} {
		if _, err := s.col(name).DeleteMany(ctx, bson.M{"recipeId": id}); err != nil {
			return fmt.Errorf("delete %s of recipe %s: %w", name, id, err)
		}
	}
	return nil
}

func (s *Store) page(ctx context.Context, filter bson.M, page, limit int, opts *options.FindOptions) (*store.RecipePage, error) {
	total, err := s.col(recipesCollection).CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}
	items, err := findAll[models.Recipe](ctx, s.col(recipesCollection), filter, opts.
		SetSkip(int64(store.Offset(page, limit))).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Normalize()
	}
	return &store.RecipePage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *Store) ListRecipes(ctx context.Context, f store.RecipeFilter) (*store.RecipePage, error) {
	page, limit := store.Clamp(f.Page, f.Limit)
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.AuthorID != "" {
		filter["authorId"] = f.AuthorID
	}
	p, err := s.page(ctx, filter, page, limit, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return p, nil
}

// SearchRecipes uses the text index, best matches first.
func (s *Store) SearchRecipes(ctx context.Context, query string, page, limit int) (*store.RecipePage, error) {
	page, limit = store.Clamp(page, limit)
	terms := store.QueryTerms(query)
	if len(terms) == 0 {
		return &store.RecipePage{Items: []models.Recipe{}, Page: page, Limit: limit}, nil
	}
	score := bson.M{"$meta": "textScore"}
	filter := bson.M{"$text": bson.M{"$search": strings.Join(terms, " ")}}
	opts := options.Find().
		SetProjection(bson.M{"score": score}).
		SetSort(bson.D{{Key: "score", Value: score}, {Key: "createdAt", Value: -1}})
	p, err := s.page(ctx, filter, page, limit, opts)
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}
	return p, nil
}

// ToggleLike adds the like when absent, otherwise removes it. Each branch is
// a single atomic update guarded by the current membership.
func (s *Store) ToggleLike(ctx context.Context, recipeID, userID string) (bool, int, error) {
	col := s.col(recipesCollection)
	after := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"likes": 1})

	var r models.Recipe
	err := col.FindOneAndUpdate(ctx,
		bson.M{"_id": recipeID, "likes": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"likes": userID}}, after).Decode(&r)
	if err == nil {
		return true, len(r.Likes), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, 0, mapErr(err, "recipe", recipeID)
	}
	err = col.FindOneAndUpdate(ctx,
		bson.M{"_id": recipeID, "likes": userID},
		bson.M{"$pull": bson.M{"likes": userID}}, after).Decode(&r)
	if err != nil {
		return false, 0, mapErr(err, "recipe", recipeID)
	}
	return false, len(r.Likes), nil
}
