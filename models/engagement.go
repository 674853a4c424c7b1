package models

import "time"

type Comment struct {
	ID         string    `json:"id" firestore:"id" bson:"_id"`
	RecipeID   string    `json:"recipeId" firestore:"recipeId" bson:"recipeId"`
	AuthorID   string    `json:"authorId" firestore:"authorId" bson:"authorId"`
	AuthorName string    `json:"authorName" firestore:"authorName" bson:"authorName"`
	Text       string    `json:"text" firestore:"text" bson:"text"`
	CreatedAt  time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
}

type FAQ struct {
	ID         string     `json:"id" firestore:"id" bson:"_id"`
	RecipeID   string     `json:"recipeId" firestore:"recipeId" bson:"recipeId"`
	Question   string     `json:"question" firestore:"question" bson:"question"`
	Answer     string     `json:"answer" firestore:"answer" bson:"answer"`
	AskedBy    string     `json:"askedBy" firestore:"askedBy" bson:"askedBy"`
	CreatedAt  time.Time  `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty" firestore:"answeredAt" bson:"answeredAt,omitempty"`
}

// Template is a saved block layout that can be applied to any recipe.
type Template struct {
	ID        string    `json:"id" firestore:"id" bson:"_id"`
	Name      string    `json:"name" firestore:"name" bson:"name"`
	Template  string    `json:"template" firestore:"template" bson:"template"`
	OwnerID   string    `json:"ownerId" firestore:"ownerId" bson:"ownerId"`
	Public    bool      `json:"public" firestore:"public" bson:"public"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
}
