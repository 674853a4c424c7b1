package memstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipeshare_backend/models"
	"recipeshare_backend/store"
)

func seedRecipes(t *testing.T, s *Store, n int) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		cat := models.CategoryDinner
		if i%2 == 0 {
			cat = models.CategoryDessert
		}
		require.NoError(t, s.CreateRecipe(context.Background(), &models.Recipe{
			ID:        fmt.Sprintf("r%02d", i),
			Title:     fmt.Sprintf("Recipe %d", i),
			AuthorID:  "u1",
			Category:  cat,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
}

func TestListRecipesNewestFirstAndPaged(t *testing.T) {
	s := New()
	seedRecipes(t, s, 15)

	page, err := s.ListRecipes(context.Background(), store.RecipeFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(15), page.Total)
	require.Len(t, page.Items, 10)
	assert.Equal(t, "r14", page.Items[0].ID)
	assert.Equal(t, 2, page.TotalPages())

	page, err = s.ListRecipes(context.Background(), store.RecipeFilter{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)

	page, err = s.ListRecipes(context.Background(), store.RecipeFilter{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = s.ListRecipes(context.Background(), store.RecipeFilter{Category: models.CategoryDessert})
	require.NoError(t, err)
	assert.Equal(t, int64(8), page.Total)
	assert.Equal(t, store.DefaultLimit, page.Limit)
}

func TestSearchRecipes(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateRecipe(ctx, &models.Recipe{ID: "a", Title: "Tomato soup", Description: "warm"}))
	require.NoError(t, s.CreateRecipe(ctx, &models.Recipe{ID: "b", Title: "Chocolate cake", Ingredients: []models.Ingredient{{Name: "tomato"}}}))
	require.NoError(t, s.CreateRecipe(ctx, &models.Recipe{ID: "c", Title: "Pancakes"}))

	page, err := s.SearchRecipes(ctx, "tomato soup", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "a", page.Items[0].ID)

	page, err = s.SearchRecipes(ctx, "lasagna", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	// Whole keywords only, as with the Firestore array-contains-any index.
	for _, q := range []string{"tomat", "chocolat", "the"} {
		page, err = s.SearchRecipes(ctx, q, 1, 10)
		require.NoError(t, err)
		assert.Empty(t, page.Items, q)
	}
}

func TestToggleLike(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateRecipe(ctx, &models.Recipe{ID: "r"}))

	liked, n, err := s.ToggleLike(ctx, "r", "u1")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, n)

	liked, n, err = s.ToggleLike(ctx, "r", "u1")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, n)

	_, _, err = s.ToggleLike(ctx, "missing", "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateRecipeKeepsEngagement(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateRecipe(ctx, &models.Recipe{ID: "r", Title: "Old"}))
	_, _, err := s.ToggleLike(ctx, "r", "u2")
	require.NoError(t, err)

	require.NoError(t, s.UpdateRecipe(ctx, &models.Recipe{ID: "r", Title: "New"}))
	got, err := s.GetRecipe(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, []string{"u2"}, got.Likes)

	assert.ErrorIs(t, s.UpdateRecipe(ctx, &models.Recipe{ID: "nope"}), store.ErrNotFound)
}

func TestUsersUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "1", Email: "a@example.com", Username: "ann"}))
	assert.ErrorIs(t, s.CreateUser(ctx, &models.User{ID: "2", Email: "A@example.com", Username: "bob"}), store.ErrDuplicate)
	assert.ErrorIs(t, s.CreateUser(ctx, &models.User{ID: "3", Email: "c@example.com", Username: "ANN"}), store.ErrDuplicate)

	u, err := s.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "1", u.ID)

	_, err = s.GetUserByGoogleSubject(ctx, "sub")
	assert.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, s.LinkGoogleSubject(ctx, "1", "sub"))
	u, err = s.GetUserByGoogleSubject(ctx, "sub")
	require.NoError(t, err)
	assert.Equal(t, "1", u.ID)
}

func TestUpdateUser(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "1", Email: "a@example.com", Username: "ann"}))
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "2", Email: "b@example.com", Username: "bob"}))

	bio := "I bake"
	u, err := s.UpdateUser(ctx, "1", models.UserPatch{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "I bake", u.Bio)
	assert.Equal(t, "ann", u.Username)

	taken := "bob"
	_, err = s.UpdateUser(ctx, "1", models.UserPatch{Username: &taken})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestSavedAndCreatedRecipes(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &models.User{ID: "1", Username: "ann"}))

	saved, err := s.ToggleSavedRecipe(ctx, "1", "r1")
	require.NoError(t, err)
	assert.True(t, saved)
	saved, err = s.ToggleSavedRecipe(ctx, "1", "r1")
	require.NoError(t, err)
	assert.False(t, saved)

	require.NoError(t, s.AddCreatedRecipe(ctx, "1", "r2"))
	require.NoError(t, s.AddCreatedRecipe(ctx, "1", "r2"))
	u, err := s.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, u.CreatedRecipes)

	require.NoError(t, s.RemoveCreatedRecipe(ctx, "1", "r2"))
	u, err = s.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, u.CreatedRecipes)
}

func TestCommentsAndFAQs(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateRecipe(ctx, &models.Recipe{ID: "r"}))

	c := &models.Comment{ID: "c1", RecipeID: "r", AuthorID: "u", Text: "yum"}
	require.NoError(t, s.CreateComment(ctx, c))
	assert.ErrorIs(t, s.CreateComment(ctx, &models.Comment{ID: "c2", RecipeID: "missing"}), store.ErrNotFound)

	r, err := s.GetRecipe(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, r.Comments)

	require.NoError(t, s.DeleteComment(ctx, c))
	list, err := s.ListComments(ctx, "r")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.CreateFAQ(ctx, &models.FAQ{ID: "f1", RecipeID: "r", Question: "Vegan?"}))
	f, err := s.AnswerFAQ(ctx, "f1", "Yes")
	require.NoError(t, err)
	assert.Equal(t, "Yes", f.Answer)
	require.NotNil(t, f.AnsweredAt)

	require.NoError(t, s.DeleteRecipe(ctx, "r"))
	faqs, err := s.ListFAQs(ctx, "r")
	require.NoError(t, err)
	assert.Empty(t, faqs)
}

func TestTemplatesVisibility(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.SaveTemplate(ctx, &models.Template{ID: "t1", OwnerID: "u1", Public: true}))
	require.NoError(t, s.SaveTemplate(ctx, &models.Template{ID: "t2", OwnerID: "u1"}))
	require.NoError(t, s.SaveTemplate(ctx, &models.Template{ID: "t3", OwnerID: "u2", Public: true}))

	pub, err := s.ListPublicTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, pub, 2)

	own, err := s.ListUserTemplates(ctx, "u1", true)
	require.NoError(t, err)
	assert.Len(t, own, 2)

	visible, err := s.ListUserTemplates(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "t1", visible[0].ID)
}

func TestFailNext(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.FailNext("GetRecipe", boom)

	_, err := s.GetRecipe(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	_, err = s.GetRecipe(context.Background(), "x")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReturnedRecipesAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateRecipe(ctx, &models.Recipe{ID: "r", Images: []string{"a.png"}}))

	got, err := s.GetRecipe(ctx, "r")
	require.NoError(t, err)
	got.Images[0] = "changed.png"

	again, err := s.GetRecipe(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, "a.png", again.Images[0])
}
