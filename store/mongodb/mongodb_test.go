package mongodb

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"recipeshare_backend/models"
	"recipeshare_backend/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := New(ctx, uri, "recipeshare_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func TestMapErr(t *testing.T) {
	assert.Nil(t, mapErr(nil, "recipe", "x"))
	assert.ErrorIs(t, mapErr(mongo.ErrNoDocuments, "recipe", "x"), store.ErrNotFound)

	other := errors.New("network")
	assert.ErrorIs(t, mapErr(other, "recipe", "x"), other)
}

func TestRecipesAgainstMongo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := &models.Recipe{ID: uuid.NewString(), Title: "Garlic bread", AuthorID: "a", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateRecipe(ctx, r))
	assert.ErrorIs(t, s.CreateRecipe(ctx, r), store.ErrDuplicate)

	liked, n, err := s.ToggleLike(ctx, r.ID, "u1")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, n)
	liked, n, err = s.ToggleLike(ctx, r.ID, "u1")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, n)

	_, _, err = s.ToggleLike(ctx, "missing", "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	page, err := s.SearchRecipes(ctx, "garlic", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	require.NoError(t, s.CreateComment(ctx, &models.Comment{ID: "c1", RecipeID: r.ID, Text: "nice"}))
	got, err := s.GetRecipe(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, got.Comments)

	require.NoError(t, s.DeleteRecipe(ctx, r.ID))
	comments, err := s.ListComments(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestUsersAgainstMongo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "1", Email: "a@example.com", Username: "ann"}))
	assert.ErrorIs(t, s.CreateUser(ctx, &models.User{ID: "2", Email: "A@example.com", Username: "bob"}), store.ErrDuplicate)

	u, err := s.GetUserByEmail(ctx, "A@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, "1", u.ID)

	saved, err := s.ToggleSavedRecipe(ctx, "1", "r")
	require.NoError(t, err)
	assert.True(t, saved)
}
