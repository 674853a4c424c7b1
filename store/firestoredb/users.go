package firestoredb

import (
	"context"
	"fmt"
	"slices"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"recipeshare_backend/models"
	"recipeshare_backend/store"
)

// CreateUser checks email and username uniqueness and creates the document
// in one transaction.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.Normalize()
	users := s.col(usersCollection)
	ref := users.Doc(u.ID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		checks := []firestore.Query{users.Where("username", "==", u.Username).Limit(1)}
		if u.Email != "" {
			checks = append(checks, users.Where("email", "==", u.Email).Limit(1))
		}
		for _, q := range checks {
			taken, err := exists(tx.Documents(q))
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("user %s: %w", u.Username, store.ErrDuplicate)
			}
		}
		return tx.Create(ref, u)
	})
	return mapErr(err, "user", u.ID)
}

func exists(iter *firestore.DocumentIterator) (bool, error) {
	defer iter.Stop()
	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	doc, err := s.col(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapErr(err, "user", id)
	}
	var u models.User
	if err := doc.DataTo(&u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	u.Normalize()
	return &u, nil
}

func (s *Store) userWhere(ctx context.Context, field, value string) (*models.User, error) {
	found, err := getAll[models.User](s.col(usersCollection).Where(field, "==", value).Limit(1).Documents(ctx))
	if err != nil {
		return nil, fmt.Errorf("find user by %s: %w", field, err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("user with %s: %w", field, store.ErrNotFound)
	}
	found[0].Normalize()
	return &found[0], nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userWhere(ctx, "email", email)
}

func (s *Store) GetUserByGoogleSubject(ctx context.Context, sub string) (*models.User, error) {
	return s.userWhere(ctx, "googleSubject", sub)
}

func (s *Store) LinkGoogleSubject(ctx context.Context, userID, sub string) error {
	_, err := s.col(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "googleSubject", Value: sub},
		{Path: "updatedAt", Value: s.now()},
	})
	return mapErr(err, "user", userID)
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	users := s.col(usersCollection)
	ref := users.Doc(id)
	var updated models.User
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		if err := doc.DataTo(&updated); err != nil {
			return err
		}
		if patch.Username != nil && *patch.Username != updated.Username {
			found, err := getAll[models.User](tx.Documents(users.Where("username", "==", *patch.Username).Limit(1)))
			if err != nil {
				return err
			}
			if len(found) > 0 && found[0].ID != id {
				return fmt.Errorf("username %s: %w", *patch.Username, store.ErrDuplicate)
			}
		}
		patch.Apply(&updated)
		updated.UpdatedAt = s.now()
		return tx.Update(ref, []firestore.Update{
			{Path: "username", Value: updated.Username},
			{Path: "displayName", Value: updated.DisplayName},
			{Path: "bio", Value: updated.Bio},
			{Path: "avatar", Value: updated.Avatar},
			{Path: "updatedAt", Value: updated.UpdatedAt},
		})
	})
	if err != nil {
		return nil, mapErr(err, "user", id)
	}
	updated.Normalize()
	return &updated, nil
}

func (s *Store) ToggleSavedRecipe(ctx context.Context, userID, recipeID string) (bool, error) {
	ref := s.col(usersCollection).Doc(userID)
	var saved bool
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var u models.User
		if err := doc.DataTo(&u); err != nil {
			return err
		}
		saved = !slices.Contains(u.SavedRecipes, recipeID)
		var op any = firestore.ArrayRemove(recipeID)
		if saved {
			op = firestore.ArrayUnion(recipeID)
		}
		return tx.Update(ref, []firestore.Update{{Path: "savedRecipes", Value: op}})
	})
	if err != nil {
		return false, mapErr(err, "user", userID)
	}
	return saved, nil
}

func (s *Store) AddCreatedRecipe(ctx context.Context, userID, recipeID string) error {
	_, err := s.col(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "createdRecipes", Value: firestore.ArrayUnion(recipeID)},
	})
	return mapErr(err, "user", userID)
}

// RemoveCreatedRecipe also drops the id from the user's saved list.
func (s *Store) RemoveCreatedRecipe(ctx context.Context, userID, recipeID string) error {
	_, err := s.col(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "createdRecipes", Value: firestore.ArrayRemove(recipeID)},
		{Path: "savedRecipes", Value: firestore.ArrayRemove(recipeID)},
	})
	return mapErr(err, "user", userID)
}
