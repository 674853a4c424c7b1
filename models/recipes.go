package models

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryBreakfast Category = "breakfast"
	CategoryLunch     Category = "lunch"
	CategoryDinner    Category = "dinner"
	CategoryAppetizer Category = "appetizer"
	CategoryDessert   Category = "dessert"
	CategorySnack     Category = "snack"
	CategoryBeverage  Category = "beverage"
	CategorySide      Category = "side"
	CategoryOther     Category = "other"
)

var categories = []Category{
	CategoryBreakfast,
	CategoryLunch,
	CategoryDinner,
	CategoryAppetizer,
	CategoryDessert,
	CategorySnack,
	CategoryBeverage,
	CategorySide,
	CategoryOther,
}

// Categories returns every accepted recipe category.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory matches s case-insensitively against the category enum.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

type Ingredient struct {
	Name     string `json:"name" firestore:"name" bson:"name"`
	Quantity string `json:"quantity" firestore:"quantity" bson:"quantity"`
	Unit     string `json:"unit" firestore:"unit" bson:"unit"`
}

type Direction struct {
	Step        int    `json:"step" firestore:"step" bson:"step"`
	Instruction string `json:"instruction" firestore:"instruction" bson:"instruction"`
}

type CookingTime struct {
	PrepMinutes  int `json:"prepMinutes" firestore:"prepMinutes" bson:"prepMinutes"`
	CookMinutes  int `json:"cookMinutes" firestore:"cookMinutes" bson:"cookMinutes"`
	TotalMinutes int `json:"totalMinutes" firestore:"totalMinutes" bson:"totalMinutes"`
}

type Nutrition struct {
	Calories float64 `json:"calories" firestore:"calories" bson:"calories"`
	Protein  float64 `json:"protein" firestore:"protein" bson:"protein"`
	Carbs    float64 `json:"carbs" firestore:"carbs" bson:"carbs"`
	Fat      float64 `json:"fat" firestore:"fat" bson:"fat"`
	Servings int     `json:"servings" firestore:"servings" bson:"servings"`
}

type Recipe struct {
	ID          string       `json:"id" firestore:"id" bson:"_id"`
	Title       string       `json:"title" firestore:"title" bson:"title"`
	Description string       `json:"description" firestore:"description" bson:"description"`
	Ingredients []Ingredient `json:"ingredients" firestore:"ingredients" bson:"ingredients"`
	Directions  []Direction  `json:"directions" firestore:"directions" bson:"directions"`
	Images      []string     `json:"images" firestore:"images" bson:"images"`
	CookingTime CookingTime  `json:"cookingTime" firestore:"cookingTime" bson:"cookingTime"`
	Nutrition   Nutrition    `json:"nutrition" firestore:"nutrition" bson:"nutrition"`
	Category    Category     `json:"category" firestore:"category" bson:"category"`
	AuthorID    string       `json:"authorId" firestore:"authorId" bson:"authorId"`
	Template    string       `json:"template,omitempty" firestore:"template" bson:"template"`
	Likes       []string     `json:"likes" firestore:"likes" bson:"likes"`
	Comments    []string     `json:"comments" firestore:"comments" bson:"comments"`
	FAQs        []string     `json:"faqs" firestore:"faqs" bson:"faqs"`
	External    bool         `json:"external" firestore:"external" bson:"external"`
	SourceURL   string       `json:"sourceUrl,omitempty" firestore:"sourceUrl" bson:"sourceUrl"`
	Keywords    []string     `json:"-" firestore:"keywords" bson:"keywords"`
	CreatedAt   time.Time    `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt" firestore:"updatedAt" bson:"updatedAt"`
}

// Normalize makes sure slices are not nil and derived fields are filled in.
func (r *Recipe) Normalize() {
	if r.Ingredients == nil {
		r.Ingredients = []Ingredient{}
	}
	if r.Directions == nil {
		r.Directions = []Direction{}
	}
	if r.Images == nil {
		r.Images = []string{}
	}
	if r.Likes == nil {
		r.Likes = []string{}
	}
	if r.Comments == nil {
		r.Comments = []string{}
	}
	if r.FAQs == nil {
		r.FAQs = []string{}
	}
	for i := range r.Directions {
		if r.Directions[i].Step == 0 {
			r.Directions[i].Step = i + 1
		}
	}
	if r.CookingTime.TotalMinutes == 0 {
		r.CookingTime.TotalMinutes = r.CookingTime.PrepMinutes + r.CookingTime.CookMinutes
	}
	if r.Category == "" {
		r.Category = CategoryOther
	}
}

// LikedBy reports whether userID is in the recipe's like list.
func (r *Recipe) LikedBy(userID string) bool {
	for _, id := range r.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
