package httpdto

import "hangoutz/internal/domain/user"

// SendOTPRequest is used for POST /api/auth/send-otp
type SendOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type SendOTPResponse struct {
	ExpiresIn int64 `json:"expiresIn"`
}

// VerifyOTPRequest is used for POST /api/auth/verify-otp
type VerifyOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

// AuthResponse is returned after a successful OTP verification
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expiresIn"`
	User      user.User `json:"user"`
	IsNewUser bool      `json:"isNewUser"`
}
