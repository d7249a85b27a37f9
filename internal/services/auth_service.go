package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"hangoutz/config"
	"hangoutz/internal/domain/user"
	"hangoutz/internal/repository"
	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DevOTPCode is issued instead of a random code when OTP_DEV_MODE is on.
const DevOTPCode = "123456"

type OTPStore interface {
	Save(ctx context.Context, phone, hash string, ttl time.Duration) error
	Get(ctx context.Context, phone string) (string, error)
	Delete(ctx context.Context, phone string) error
}

type OTPSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// UserCache is an optional read-through cache used by credential checks.
type UserCache interface {
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
	SetUser(ctx context.Context, u user.User) error
	InvalidateUser(ctx context.Context, id uuid.UUID) error
}

// LogOTPSender writes codes to the log instead of sending an SMS.
type LogOTPSender struct {
	logger *zap.Logger
}

func NewLogOTPSender(logger *zap.Logger) *LogOTPSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogOTPSender{logger: logger}
}

func (s *LogOTPSender) SendOTP(ctx context.Context, phone, code string) error {
	s.logger.Info("📱 OTP issued", zap.String("phone", phone), zap.String("code", code))
	return nil
}

type AuthService struct {
	store     repository.Store
	otpStore  OTPStore
	sender    OTPSender
	cache     UserCache
	jwtSecret []byte
	accessTTL time.Duration
	otpTTL    time.Duration
	devMode   bool
	now       func() time.Time
}

func NewAuthService(store repository.Store, otpStore OTPStore, sender OTPSender, cache UserCache, cfg *config.Config) *AuthService {
	return &AuthService{
		store:     store,
		otpStore:  otpStore,
		sender:    sender,
		cache:     cache,
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: time.Duration(cfg.JWTExpiryHours) * time.Hour,
		otpTTL:    time.Duration(cfg.OTPTTLMinutes) * time.Minute,
		devMode:   cfg.OTPDevMode,
		now:       time.Now,
	}
}

type SendOTPResult struct {
	Message string `json:"message"`
	// ExpiresIn is the code lifetime in seconds
	ExpiresIn int64 `json:"expiresIn"`
}

type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expiresIn"`
	User      user.User `json:"user"`
	IsNewUser bool      `json:"isNewUser"`
}

type AccessClaims struct {
	UserID string `json:"sub"`
	jwt.RegisteredClaims
}

func (s *AuthService) SendOTP(ctx context.Context, phone string) (SendOTPResult, error) {
	phone = normalizePhone(phone)
	if phone == "" {
		return SendOTPResult{}, hangoutz_errors.Validation("Phone number is required")
	}

	code := DevOTPCode
	if !s.devMode {
		generated, err := generateOTP()
		if err != nil {
			return SendOTPResult{}, err
		}
		code = generated
	}

	if err := s.otpStore.Save(ctx, phone, hashOTP(code), s.otpTTL); err != nil {
		return SendOTPResult{}, fmt.Errorf("failed to store otp: %w", err)
	}
	if err := s.sender.SendOTP(ctx, phone, code); err != nil {
		return SendOTPResult{}, fmt.Errorf("failed to send otp: %w", err)
	}

	return SendOTPResult{Message: "OTP sent", ExpiresIn: int64(s.otpTTL.Seconds())}, nil
}

func (s *AuthService) VerifyOTP(ctx context.Context, phone, code string) (AuthResult, error) {
	phone = normalizePhone(phone)
	code = strings.TrimSpace(code)
	if phone == "" || code == "" {
		return AuthResult{}, hangoutz_errors.Validation("Phone number and OTP are required")
	}

	stored, err := s.otpStore.Get(ctx, phone)
	if err != nil {
		if errors.Is(err, hangoutz_errors.ErrNotFound) {
			return AuthResult{}, hangoutz_errors.Validation("Invalid OTP")
		}
		return AuthResult{}, err
	}
	if !compareOTP(stored, code) {
		return AuthResult{}, hangoutz_errors.Validation("Invalid OTP")
	}
	// codes are single use
	if err := s.otpStore.Delete(ctx, phone); err != nil {
		return AuthResult{}, err
	}

	u, created, err := s.findOrCreateUser(ctx, phone)
	if err != nil {
		return AuthResult{}, err
	}

	token, expiresIn, err := s.newAccessToken(u.ID)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{Token: token, ExpiresIn: expiresIn, User: u, IsNewUser: created}, nil
}

// VerifyToken resolves a bearer credential to its user. It backs both the
// HTTP middleware and the socket handshake.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (user.User, error) {
	claims, err := s.ParseAccessToken(token)
	if err != nil {
		return user.User{}, err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return user.User{}, hangoutz_errors.Unauthorized("Invalid token")
	}

	if s.cache != nil {
		if cached, err := s.cache.GetUser(ctx, userID); err == nil && cached != nil {
			return *cached, nil
		}
	}

	u, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, hangoutz_errors.ErrNotFound) {
			return user.User{}, hangoutz_errors.Unauthorized("User not found")
		}
		return user.User{}, err
	}

	if s.cache != nil {
		_ = s.cache.SetUser(ctx, u)
	}
	return u, nil
}

func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, hangoutz_errors.Unauthorized("Not authorized, no token")
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, hangoutz_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return AccessClaims{}, hangoutz_errors.Unauthorized("Invalid token")
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return AccessClaims{}, hangoutz_errors.Unauthorized("Invalid token")
	}

	return *claims, nil
}

func (s *AuthService) findOrCreateUser(ctx context.Context, phone string) (user.User, bool, error) {
	existing, err := s.store.Users().GetByPhone(ctx, phone)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, hangoutz_errors.ErrNotFound) {
		return user.User{}, false, err
	}

	now := s.now()
	newUser := user.User{
		ID:         uuid.New(),
		Phone:      phone,
		TrustScore: user.DefaultTrustScore,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Users().Create(ctx, &newUser); err != nil {
		// a concurrent verification for the same phone won the insert
		if errors.Is(err, hangoutz_errors.ErrAlreadyExists) {
			winner, getErr := s.store.Users().GetByPhone(ctx, phone)
			return winner, false, getErr
		}
		return user.User{}, false, err
	}
	return newUser, true, nil
}

func (s *AuthService) newAccessToken(userID uuid.UUID) (string, int64, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)

	claims := AccessClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", 0, err
	}

	return signed, int64(s.accessTTL.Seconds()), nil
}

func normalizePhone(phone string) string {
	return strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func hashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func compareOTP(hash, code string) bool {
	return subtle.ConstantTimeCompare([]byte(hash), []byte(hashOTP(code))) == 1
}
