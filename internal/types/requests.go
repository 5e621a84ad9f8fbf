package types

// RegisterRequest is the payload for creating an account
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=100"`
	Username  string `json:"username" binding:"required,max=150"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=6,max=150"`
}

// LoginRequest is the payload for obtaining a token
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SetPasswordRequest changes the caller's password
type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=150"`
}

// IngredientAmount references a catalog ingredient and the amount a recipe uses
type IngredientAmount struct {
	ID     uint `json:"id" validate:"required"`
	Amount int  `json:"amount" validate:"gte=0"`
}

// RecipeRequest is the payload for creating or updating a recipe.
// Image is a base64 data URI; it may be empty on update to keep the current one.
type RecipeRequest struct {
	Name        string             `json:"name" validate:"required,max=200"`
	Text        string             `json:"text" validate:"required,max=5000"`
	Image       string             `json:"image"`
	CookingTime int                `json:"cooking_time" validate:"gt=0"`
	Tags        []uint             `json:"tags"`
	Ingredients []IngredientAmount `json:"ingredients" validate:"required,min=1,dive"`
}

// RecipeFilter narrows a recipe listing
type RecipeFilter struct {
	Tags             []string
	AuthorID         uint
	IsFavorited      bool
	IsInShoppingCart bool
	Page             int
	Limit            int
}
