package handler

import (
	"context"
	"net/http"

	"hangoutz/internal/services"
	"hangoutz/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type OTPAuthenticator interface {
	SendOTP(ctx context.Context, phone string) (services.SendOTPResult, error)
	VerifyOTP(ctx context.Context, phone, code string) (services.AuthResult, error)
}

type AuthHandler struct {
	service OTPAuthenticator
}

func NewAuthHandler(service OTPAuthenticator) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req httpdto.SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Phone number is required")
		return
	}

	res, err := h.service.SendOTP(c.Request.Context(), req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.Response[httpdto.SendOTPResponse]{
		Success: true,
		Message: res.Message,
		Data:    httpdto.SendOTPResponse{ExpiresIn: res.ExpiresIn},
	})
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req httpdto.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Phone number and OTP are required")
		return
	}

	res, err := h.service.VerifyOTP(c.Request.Context(), req.Phone, req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.AuthResponse{
		Token:     res.Token,
		ExpiresIn: res.ExpiresIn,
		User:      res.User,
		IsNewUser: res.IsNewUser,
	}))
}
