package httpdto

import "hangoutz/internal/domain/user"

// UserView is a public profile. Online is omitted when presence is unknown.
type UserView struct {
	user.User
	Online *bool `json:"online,omitempty"`
}

// UpdateUserRequest is used for PUT /api/users/:id. Omitted fields are left
// unchanged.
type UpdateUserRequest struct {
	Name      *string  `json:"name"`
	Bio       *string  `json:"bio"`
	Interests []string `json:"interests"`
	Photos    []string `json:"photos" binding:"omitempty,dive,required"`
}

// VerifyUserRequest is used for POST /api/users/:id/verify
type VerifyUserRequest struct {
	VerificationPhotoURL string `json:"verificationPhotoURL" binding:"required"`
}

type UserListQuery struct {
	Search string `form:"search"`
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
}
