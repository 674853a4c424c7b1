package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"recipeshare_backend/models"
	"recipeshare_backend/store"
)

// CreateUser relies on the unique email and username indexes.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.Normalize()
	_, err := s.col(usersCollection).InsertOne(ctx, u)
	return mapErr(err, "user", u.ID)
}

func (s *Store) findUser(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.User, error) {
	var u models.User
	if err := s.col(usersCollection).FindOne(ctx, filter, opts...).Decode(&u); err != nil {
		return nil, err
	}
	u.Normalize()
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.findUser(ctx, bson.M{"_id": id})
	return u, mapErr(err, "user", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.findUser(ctx, bson.M{"email": email}, options.FindOne().SetCollation(caseless))
	if err != nil {
		return nil, mapErr(err, "user", "by email")
	}
	return u, nil
}

func (s *Store) GetUserByGoogleSubject(ctx context.Context, sub string) (*models.User, error) {
	u, err := s.findUser(ctx, bson.M{"googleSubject": sub})
	if err != nil {
		return nil, mapErr(err, "user", "by google subject")
	}
	return u, nil
}

func (s *Store) updateUser(ctx context.Context, id string, update bson.M) error {
	res, err := s.col(usersCollection).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return mapErr(err, "user", id)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) LinkGoogleSubject(ctx context.Context, userID, sub string) error {
	return s.updateUser(ctx, userID, bson.M{"$set": bson.M{"googleSubject": sub, "updatedAt": s.now()}})
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	set := bson.M{"updatedAt": s.now()}
	if patch.Username != nil {
		set["username"] = *patch.Username
	}
	if patch.DisplayName != nil {
		set["displayName"] = *patch.DisplayName
	}
	if patch.Bio != nil {
		set["bio"] = *patch.Bio
	}
	if patch.Avatar != nil {
		set["avatar"] = *patch.Avatar
	}
	var u models.User
	err := s.col(usersCollection).FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	if err != nil {
		return nil, mapErr(err, "user", id)
	}
	u.Normalize()
	return &u, nil
}

func (s *Store) ToggleSavedRecipe(ctx context.Context, userID, recipeID string) (bool, error) {
	col := s.col(usersCollection)
	res, err := col.UpdateOne(ctx,
		bson.M{"_id": userID, "savedRecipes": bson.M{"$ne": recipeID}},
		bson.M{"$addToSet": bson.M{"savedRecipes": recipeID}})
	if err != nil {
		return false, mapErr(err, "user", userID)
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	res, err = col.UpdateOne(ctx,
		bson.M{"_id": userID, "savedRecipes": recipeID},
		bson.M{"$pull": bson.M{"savedRecipes": recipeID}})
	if err != nil {
		return false, mapErr(err, "user", userID)
	}
	if res.MatchedCount == 0 {
		return false, mapErr(mongo.ErrNoDocuments, "user", userID)
	}
	return false, nil
}

func (s *Store) AddCreatedRecipe(ctx context.Context, userID, recipeID string) error {
	return s.updateUser(ctx, userID, bson.M{"$addToSet": bson.M{"createdRecipes": recipeID}})
}

func (s *Store) RemoveCreatedRecipe(ctx context.Context, userID, recipeID string) error {
	return s.updateUser(ctx, userID, bson.M{"$pull": bson.M{"createdRecipes": recipeID, "savedRecipes": recipeID}})
}
