package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"recipeshare_backend/models"
	"recipeshare_backend/store"
)

// attach inserts a child document after adding its id to the recipe's
// reference list, undoing the reference if the insert fails.
func (s *Store) attach(ctx context.Context, collection, id, recipeID, field string, doc any) error {
	recipes := s.col(recipesCollection)
	res, err := recipes.UpdateOne(ctx, bson.M{"_id": recipeID}, bson.M{"$addToSet": bson.M{field: id}})
	if err != nil {
		return mapErr(err, "recipe", recipeID)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("recipe %s: %w", recipeID, store.ErrNotFound)
	}
	if _, err := s.col(collection).InsertOne(ctx, doc); err != nil {
		_, _ = recipes.UpdateOne(ctx, bson.M{"_id": recipeID}, bson.M{"$pull": bson.M{field: id}})
		return mapErr(err, collection, id)
	}
	return nil
}

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	return s.attach(ctx, commentsCollection, c.ID, c.RecipeID, "comments", c)
}

func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	if err := s.col(commentsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, mapErr(err, "comment", id)
	}
	return &c, nil
}

var oldestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

func (s *Store) ListComments(ctx context.Context, recipeID string) ([]models.Comment, error) {
	out, err := findAll[models.Comment](ctx, s.col(commentsCollection), bson.M{"recipeId": recipeID}, oldestFirst)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteComment(ctx context.Context, c *models.Comment) error {
	res, err := s.col(commentsCollection).DeleteOne(ctx, bson.M{"_id": c.ID})
	if err != nil {
		return mapErr(err, "comment", c.ID)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("comment %s: %w", c.ID, store.ErrNotFound)
	}
	_, err = s.col(recipesCollection).UpdateOne(ctx, bson.M{"_id": c.RecipeID}, bson.M{"$pull": bson.M{"comments": c.ID}})
	return mapErr(err, "recipe", c.RecipeID)
}

func (s *Store) CreateFAQ(ctx context.Context, f *models.FAQ) error {
	return s.attach(ctx, faqsCollection, f.ID, f.RecipeID, "faqs", f)
}

func (s *Store) GetFAQ(ctx context.Context, id string) (*models.FAQ, error) {
	var f models.FAQ
	if err := s.col(faqsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return nil, mapErr(err, "faq", id)
	}
	return &f, nil
}

func (s *Store) ListFAQs(ctx context.Context, recipeID string) ([]models.FAQ, error) {
	out, err := findAll[models.FAQ](ctx, s.col(faqsCollection), bson.M{"recipeId": recipeID}, oldestFirst)
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	return out, nil
}

func (s *Store) AnswerFAQ(ctx context.Context, id, answer string) (*models.FAQ, error) {
	var f models.FAQ
	err := s.col(faqsCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"answer": answer, "answeredAt": s.now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&f)
	if err != nil {
		return nil, mapErr(err, "faq", id)
	}
	return &f, nil
}

func (s *Store) SaveTemplate(ctx context.Context, t *models.Template) error {
	_, err := s.col(templatesCollection).ReplaceOne(ctx, bson.M{"_id": t.ID}, t, options.Replace().SetUpsert(true))
	return mapErr(err, "template", t.ID)
}

func (s *Store) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	var t models.Template
	if err := s.col(templatesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, mapErr(err, "template", id)
	}
	return &t, nil
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

func (s *Store) ListPublicTemplates(ctx context.Context) ([]models.Template, error) {
	out, err := findAll[models.Template](ctx, s.col(templatesCollection), bson.M{"public": true}, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return out, nil
}

func (s *Store) ListUserTemplates(ctx context.Context, ownerID string, includePrivate bool) ([]models.Template, error) {
	filter := bson.M{"ownerId": ownerID}
	if !includePrivate {
		filter["public"] = true
	}
	out, err := findAll[models.Template](ctx, s.col(templatesCollection), filter, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return out, nil
}
