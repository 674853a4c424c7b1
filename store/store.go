// Package store defines the persistence contracts for recipes, users and
// their engagement records. Backends live in subpackages.
package store

import (
	"context"
	"errors"

	"recipeshare_backend/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

const (
	DefaultLimit = 12
	MaxLimit     = 50
)

type RecipeFilter struct {
	Category models.Category
	AuthorID string
	Page     int
	Limit    int
}

// RecipePage is one page of recipes, newest first.
type RecipePage struct {
	Items []models.Recipe `json:"recipes"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (p RecipePage) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Limit) - 1) / int64(p.Limit))
}

// Clamp fills in a default page and limit and bounds the limit.
func Clamp(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Offset is the number of items to skip for page.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

type Recipes interface {
	CreateRecipe(ctx context.Context, r *models.Recipe) error
	GetRecipe(ctx context.Context, id string) (*models.Recipe, error)
	// UpdateRecipe replaces the editable fields of an existing recipe.
	UpdateRecipe(ctx context.Context, r *models.Recipe) error
	DeleteRecipe(ctx context.Context, id string) error
	ListRecipes(ctx context.Context, f RecipeFilter) (*RecipePage, error)
	SearchRecipes(ctx context.Context, query string, page, limit int) (*RecipePage, error)
	// ToggleLike adds userID to the recipe's likes, or removes it if present.
	ToggleLike(ctx context.Context, recipeID, userID string) (liked bool, count int, err error)
	GetRecipesByIDs(ctx context.Context, ids []string) ([]models.Recipe, error)
}

type Users interface {
	// CreateUser fails with ErrDuplicate when the email or username is taken.
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByGoogleSubject(ctx context.Context, sub string) (*models.User, error)
	// LinkGoogleSubject attaches a Google account to an existing user.
	LinkGoogleSubject(ctx context.Context, userID, sub string) error
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	ToggleSavedRecipe(ctx context.Context, userID, recipeID string) (saved bool, err error)
	AddCreatedRecipe(ctx context.Context, userID, recipeID string) error
	RemoveCreatedRecipe(ctx context.Context, userID, recipeID string) error
}

type Comments interface {
	// CreateComment stores c and appends its id to the recipe's comment list.
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	ListComments(ctx context.Context, recipeID string) ([]models.Comment, error)
	DeleteComment(ctx context.Context, c *models.Comment) error
}

type FAQs interface {
	CreateFAQ(ctx context.Context, f *models.FAQ) error
	GetFAQ(ctx context.Context, id string) (*models.FAQ, error)
	ListFAQs(ctx context.Context, recipeID string) ([]models.FAQ, error)
	AnswerFAQ(ctx context.Context, id, answer string) (*models.FAQ, error)
}

type Templates interface {
	SaveTemplate(ctx context.Context, t *models.Template) error
	GetTemplate(ctx context.Context, id string) (*models.Template, error)
	ListPublicTemplates(ctx context.Context) ([]models.Template, error)
	ListUserTemplates(ctx context.Context, ownerID string, includePrivate bool) ([]models.Template, error)
}

type Store interface {
	Recipes
	Users
	Comments
	FAQs
	Templates
	Close() error
}
