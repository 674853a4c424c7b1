package firestoredb

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"

	"recipeshare_backend/models"
)

// attach creates a child document and appends its id to the recipe's
// reference list under field.
func (s *Store) attach(ctx context.Context, collection, id, recipeID, field string, data any) error {
	recipe := s.col(recipesCollection).Doc(recipeID)
	child := s.col(collection).Doc(id)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(recipe); err != nil {
			return mapErr(err, "recipe", recipeID)
		}
		if err := tx.Create(child, data); err != nil {
			return err
		}
		return tx.Update(recipe, []firestore.Update{{Path: field, Value: firestore.ArrayUnion(id)}})
	})
}

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	return mapErr(s.attach(ctx, commentsCollection, c.ID, c.RecipeID, "comments", c), "comment", c.ID)
}

func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	doc, err := s.col(commentsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapErr(err, "comment", id)
	}
	var c models.Comment
	if err := doc.DataTo(&c); err != nil {
		return nil, fmt.Errorf("decode comment %s: %w", id, err)
	}
	return &c, nil
}

func (s *Store) ListComments(ctx context.Context, recipeID string) ([]models.Comment, error) {
	out, err := getAll[models.Comment](s.col(commentsCollection).Where("recipeId", "==", recipeID).Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteComment(ctx context.Context, c *models.Comment) error {
	recipe := s.col(recipesCollection).Doc(c.RecipeID)
	ref := s.col(commentsCollection).Doc(c.ID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		doc, err := tx.Get(recipe)
		if err == nil && doc.Exists() {
			if err := tx.Update(recipe, []firestore.Update{{Path: "comments", Value: firestore.ArrayRemove(c.ID)}}); err != nil {
				return err
			}
		}
		return tx.Delete(ref)
	})
	return mapErr(err, "comment", c.ID)
}

func (s *Store) CreateFAQ(ctx context.Context, f *models.FAQ) error {
	return mapErr(s.attach(ctx, faqsCollection, f.ID, f.RecipeID, "faqs", f), "faq", f.ID)
}

func (s *Store) GetFAQ(ctx context.Context, id string) (*models.FAQ, error) {
	doc, err := s.col(faqsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapErr(err, "faq", id)
	}
	var f models.FAQ
	if err := doc.DataTo(&f); err != nil {
		return nil, fmt.Errorf("decode faq %s: %w", id, err)
	}
	return &f, nil
}

func (s *Store) ListFAQs(ctx context.Context, recipeID string) ([]models.FAQ, error) {
	out, err := getAll[models.FAQ](s.col(faqsCollection).Where("recipeId", "==", recipeID).Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) AnswerFAQ(ctx context.Context, id, answer string) (*models.FAQ, error) {
	now := s.now()
	_, err := s.col(faqsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "answer", Value: answer},
		{Path: "answeredAt", Value: now},
	})
	if err != nil {
		return nil, mapErr(err, "faq", id)
	}
	return s.GetFAQ(ctx, id)
}

func (s *Store) SaveTemplate(ctx context.Context, t *models.Template) error {
	_, err := s.col(templatesCollection).Doc(t.ID).Set(ctx, t)
	return mapErr(err, "template", t.ID)
}

func (s *Store) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	doc, err := s.col(templatesCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapErr(err, "template", id)
	}
	var t models.Template
	if err := doc.DataTo(&t); err != nil {
		return nil, fmt.Errorf("decode template %s: %w", id, err)
	}
	return &t, nil
}

func (s *Store) templates(ctx context.Context, q firestore.Query) ([]models.Template, error) {
	out, err := getAll[models.Template](q.Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListPublicTemplates(ctx context.Context) ([]models.Template, error) {
	return s.templates(ctx, s.col(templatesCollection).Where("public", "==", true))
}

func (s *Store) ListUserTemplates(ctx context.Context, ownerID string, includePrivate bool) ([]models.Template, error) {
	q := s.col(templatesCollection).Where("ownerId", "==", ownerID)
	if !includePrivate {
		q = q.Where("public", "==", true)
	}
	return s.templates(ctx, q)
}
