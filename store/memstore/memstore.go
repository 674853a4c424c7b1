// Package memstore is an in-process Store. It backs the "memory" database
// driver and the handler tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"recipeshare_backend/models"
	"recipeshare_backend/store"
)

type Store struct {
	mu        sync.RWMutex
	recipes   map[string]*models.Recipe
	users     map[string]*models.User
	comments  map[string]*models.Comment
	faqs      map[string]*models.FAQ
	templates map[string]*models.Template

	errMu   sync.Mutex
	nextErr map[string]error
	now     func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		recipes:   make(map[string]*models.Recipe),
		users:     make(map[string]*models.User),
		comments:  make(map[string]*models.Comment),
		faqs:      make(map[string]*models.FAQ),
		templates: make(map[string]*models.Template),
		nextErr:   make(map[string]error),
		now:       time.Now,
	}
}

// FailNext makes the next call to op return err.
func (s *Store) FailNext(op string, err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	s.nextErr[op] = err
}

func (s *Store) takeErr(op string) error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if err, ok := s.nextErr[op]; ok {
		delete(s.nextErr, op)
		return err
	}
	return nil
}

func (s *Store) Close() error { return nil }

func cloneRecipe(r *models.Recipe) models.Recipe {
	c := *r
	c.Ingredients = append([]models.Ingredient(nil), r.Ingredients...)
	c.Directions = append([]models.Direction(nil), r.Directions...)
	c.Images = append([]string(nil), r.Images...)
	c.Likes = append([]string(nil), r.Likes...)
	c.Comments = append([]string(nil), r.Comments...)
	c.FAQs = append([]string(nil), r.FAQs...)
	c.Keywords = append([]string(nil), r.Keywords...)
	c.Normalize()
	return c
}

func cloneUser(u *models.User) models.User {
	c := *u
	c.SavedRecipes = append([]string(nil), u.SavedRecipes...)
	c.CreatedRecipes = append([]string(nil), u.CreatedRecipes...)
	c.Normalize()
	return c
}

func addRef(list []string, id string) []string {
	for _, v := range list {
		if v == id {
			return list
		}
	}
	return append(list, id)
}

func removeRef(list []string, id string) []string {
	out := list[:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Recipes

func (s *Store) CreateRecipe(_ context.Context, r *models.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("CreateRecipe"); err != nil {
		return err
	}
	if _, ok := s.recipes[r.ID]; ok {
		return fmt.Errorf("recipe %s: %w", r.ID, store.ErrDuplicate)
	}
	r.Keywords = store.Keywords(r)
	c := cloneRecipe(r)
	s.recipes[r.ID] = &c
	return nil
}

func (s *Store) GetRecipe(_ context.Context, id string) (*models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.takeErr("GetRecipe"); err != nil {
		return nil, err
	}
	r, ok := s.recipes[id]
	if !ok {
		return nil, fmt.Errorf("recipe %s: %w", id, store.ErrNotFound)
	}
	c := cloneRecipe(r)
	return &c, nil
}

func (s *Store) GetRecipesByIDs(_ context.Context, ids []string) ([]models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Recipe, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.recipes[id]; ok {
			out = append(out, cloneRecipe(r))
		}
	}
	return out, nil
}

func (s *Store) UpdateRecipe(_ context.Context, r *models.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("UpdateRecipe"); err != nil {
		return err
	}
	cur, ok := s.recipes[r.ID]
	if !ok {
		return fmt.Errorf("recipe %s: %w", r.ID, store.ErrNotFound)
	}
	r.Keywords = store.Keywords(r)
	c := cloneRecipe(r)
	// engagement lists are owned by their own operations
	c.Likes, c.Comments, c.FAQs = cur.Likes, cur.Comments, cur.FAQs
	c.CreatedAt = cur.CreatedAt
	s.recipes[r.ID] = &c
	return nil
}

func (s *Store) DeleteRecipe(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("DeleteRecipe"); err != nil {
		return err
	}
	if _, ok := s.recipes[id]; !ok {
		return fmt.Errorf("recipe %s: %w", id, store.ErrNotFound)
	}
	delete(s.recipes, id)
	for cid, c := range s.comments {
		if c.RecipeID == id {
			delete(s.comments, cid)
		}
	}
	for fid, f := range s.faqs {
		if f.RecipeID == id {
			delete(s.faqs, fid)
		}
	}
	return nil
}

func (s *Store) sortedRecipes(keep func(*models.Recipe) bool) []models.Recipe {
	out := make([]models.Recipe, 0, len(s.recipes))
	for _, r := range s.recipes {
		if keep(r) {
			out = append(out, cloneRecipe(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func paginate(all []models.Recipe, page, limit int) *store.RecipePage {
	start := store.Offset(page, limit)
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return &store.RecipePage{Items: all[start:end], Total: int64(len(all)), Page: page, Limit: limit}
}

func (s *Store) ListRecipes(_ context.Context, f store.RecipeFilter) (*store.RecipePage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.takeErr("ListRecipes"); err != nil {
		return nil, err
	}
	page, limit := store.Clamp(f.Page, f.Limit)
	all := s.sortedRecipes(func(r *models.Recipe) bool {
		if f.Category != "" && r.Category != f.Category {
			return false
		}
		if f.AuthorID != "" && r.AuthorID != f.AuthorID {
			return false
		}
		return true
	})
	return paginate(all, page, limit), nil
}

func (s *Store) SearchRecipes(_ context.Context, query string, page, limit int) (*store.RecipePage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.takeErr("SearchRecipes"); err != nil {
		return nil, err
	}
	page, limit = store.Clamp(page, limit)
	terms := store.QueryTerms(query)
	scores := make(map[string]int)
	all := s.sortedRecipes(func(r *models.Recipe) bool {
		n := store.Score(r.Keywords, terms)
		scores[r.ID] = n
		return n > 0
	})
	sort.SliceStable(all, func(i, j int) bool { return scores[all[i].ID] > scores[all[j].ID] })
	return paginate(all, page, limit), nil
}

func (s *Store) ToggleLike(_ context.Context, recipeID, userID string) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("ToggleLike"); err != nil {
		return false, 0, err
	}
	r, ok := s.recipes[recipeID]
	if !ok {
		return false, 0, fmt.Errorf("recipe %s: %w", recipeID, store.ErrNotFound)
	}
	liked := !r.LikedBy(userID)
	if liked {
		r.Likes = addRef(r.Likes, userID)
	} else {
		r.Likes = removeRef(r.Likes, userID)
	}
	return liked, len(r.Likes), nil
}

// Users

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("CreateUser"); err != nil {
		return err
	}
	for _, existing := range s.users {
		if existing.ID == u.ID ||
			(u.Email != "" && strings.EqualFold(existing.Email, u.Email)) ||
			strings.EqualFold(existing.Username, u.Username) {
			return fmt.Errorf("user %s: %w", u.Username, store.ErrDuplicate)
		}
	}
	c := cloneUser(u)
	s.users[u.ID] = &c
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.takeErr("GetUser"); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	c := cloneUser(u)
	return &c, nil
}

func (s *Store) findUser(match func(*models.User) bool) (*models.User, error) {
	for _, u := range s.users {
		if match(u) {
			c := cloneUser(u)
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findUser(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *Store) GetUserByGoogleSubject(_ context.Context, sub string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findUser(func(u *models.User) bool { return sub != "" && u.GoogleSubject == sub })
}

func (s *Store) LinkGoogleSubject(_ context.Context, userID, sub string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}
	u.GoogleSubject = sub
	u.UpdatedAt = s.now()
	return nil
}

func (s *Store) UpdateUser(_ context.Context, id string, patch models.UserPatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("UpdateUser"); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	if patch.Username != nil {
		for _, other := range s.users {
			if other.ID != id && strings.EqualFold(other.Username, *patch.Username) {
				return nil, fmt.Errorf("username %s: %w", *patch.Username, store.ErrDuplicate)
			}
		}
	}
	patch.Apply(u)
	u.UpdatedAt = s.now()
	c := cloneUser(u)
	return &c, nil
}

func (s *Store) ToggleSavedRecipe(_ context.Context, userID, recipeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return false, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}
	for _, id := range u.SavedRecipes {
		if id == recipeID {
			u.SavedRecipes = removeRef(u.SavedRecipes, recipeID)
			return false, nil
		}
	}
	u.SavedRecipes = append(u.SavedRecipes, recipeID)
	return true, nil
}

func (s *Store) AddCreatedRecipe(_ context.Context, userID, recipeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}
	u.CreatedRecipes = addRef(u.CreatedRecipes, recipeID)
	return nil
}

func (s *Store) RemoveCreatedRecipe(_ context.Context, userID, recipeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}
	u.CreatedRecipes = removeRef(u.CreatedRecipes, recipeID)
	u.SavedRecipes = removeRef(u.SavedRecipes, recipeID)
	return nil
}

// Comments

func (s *Store) CreateComment(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("CreateComment"); err != nil {
		return err
	}
	r, ok := s.recipes[c.RecipeID]
	if !ok {
		return fmt.Errorf("recipe %s: %w", c.RecipeID, store.ErrNotFound)
	}
	cp := *c
	s.comments[c.ID] = &cp
	r.Comments = addRef(r.Comments, c.ID)
	return nil
}

func (s *Store) GetComment(_ context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", id, store.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListComments(_ context.Context, recipeID string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Comment{}
	for _, c := range s.comments {
		if c.RecipeID == recipeID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteComment(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[c.ID]; !ok {
		return fmt.Errorf("comment %s: %w", c.ID, store.ErrNotFound)
	}
	delete(s.comments, c.ID)
	if r, ok := s.recipes[c.RecipeID]; ok {
		r.Comments = removeRef(r.Comments, c.ID)
	}
	return nil
}

// FAQs

func (s *Store) CreateFAQ(_ context.Context, f *models.FAQ) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[f.RecipeID]
	if !ok {
		return fmt.Errorf("recipe %s: %w", f.RecipeID, store.ErrNotFound)
	}
	cp := *f
	s.faqs[f.ID] = &cp
	r.FAQs = addRef(r.FAQs, f.ID)
	return nil
}

func (s *Store) GetFAQ(_ context.Context, id string) (*models.FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.faqs[id]
	if !ok {
		return nil, fmt.Errorf("faq %s: %w", id, store.ErrNotFound)
	}
	cp := *f
	return &cp, nil
}

func (s *Store) ListFAQs(_ context.Context, recipeID string) ([]models.FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.FAQ{}
	for _, f := range s.faqs {
		if f.RecipeID == recipeID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) AnswerFAQ(_ context.Context, id, answer string) (*models.FAQ, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.faqs[id]
	if !ok {
		return nil, fmt.Errorf("faq %s: %w", id, store.ErrNotFound)
	}
	now := s.now()
	f.Answer = answer
	f.AnsweredAt = &now
	cp := *f
	return &cp, nil
}

// Templates

func (s *Store) SaveTemplate(_ context.Context, t *models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("SaveTemplate"); err != nil {
		return err
	}
	cp := *t
	s.templates[t.ID] = &cp
	return nil
}

func (s *Store) GetTemplate(_ context.Context, id string) (*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, store.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (s *Store) listTemplates(keep func(*models.Template) bool) []models.Template {
	out := []models.Template{}
	for _, t := range s.templates {
		if keep(t) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) ListPublicTemplates(_ context.Context) ([]models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listTemplates(func(t *models.Template) bool { return t.Public }), nil
}

func (s *Store) ListUserTemplates(_ context.Context, ownerID string, includePrivate bool) ([]models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listTemplates(func(t *models.Template) bool {
		return t.OwnerID == ownerID && (includePrivate || t.Public)
	}), nil
}
