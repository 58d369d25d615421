package dto

type CreateUserRequest struct {
	Name          *string `json:"name"`
	Email         *string `json:"email"`
	EmailVerified bool    `json:"email_verified"`
	Image         *string `json:"image"`
}

type UserFilter struct {
	Pagination
	EmailContains string `form:"email"`
}

type CreatePostRequest struct {
	Name string `json:"name" binding:"required"`
}

type PostFilter struct {
	Pagination
	CreatedByID string `form:"-"`
}
