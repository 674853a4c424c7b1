package models

import "time"

type User struct {
	ID             string    `json:"id" firestore:"id" bson:"_id"`
	Email          string    `json:"email,omitempty" firestore:"email" bson:"email"`
	Username       string    `json:"username" firestore:"username" bson:"username"`
	PasswordHash   string    `json:"-" firestore:"passwordHash" bson:"passwordHash"`
	GoogleSubject  string    `json:"-" firestore:"googleSubject" bson:"googleSubject,omitempty"`
	DisplayName    string    `json:"displayName" firestore:"displayName" bson:"displayName"`
	Bio            string    `json:"bio" firestore:"bio" bson:"bio"`
	Avatar         string    `json:"avatar,omitempty" firestore:"avatar" bson:"avatar"`
	SavedRecipes   []string  `json:"savedRecipes" firestore:"savedRecipes" bson:"savedRecipes"`
	CreatedRecipes []string  `json:"createdRecipes" firestore:"createdRecipes" bson:"createdRecipes"`
	CreatedAt      time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" firestore:"updatedAt" bson:"updatedAt"`
}

func (u *User) Normalize() {
	if u.SavedRecipes == nil {
		u.SavedRecipes = []string{}
	}
	if u.CreatedRecipes == nil {
		u.CreatedRecipes = []string{}
	}
}

// Public strips fields only the owner should see.
func (u User) Public() User {
	u.Email = ""
	u.Normalize()
	return u
}

// UserPatch carries the profile fields a user may change; nil means unchanged.
type UserPatch struct {
	Username    *string
	DisplayName *string
	Bio         *string
	Avatar      *string
}

func (p UserPatch) Empty() bool {
	return p.Username == nil && p.DisplayName == nil && p.Bio == nil && p.Avatar == nil
}

// Apply writes the set fields onto u.
func (p UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
}
