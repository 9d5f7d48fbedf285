package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"

	"github.com/Elysion-Sphere/GestCare/internal/store"
	"github.com/Elysion-Sphere/GestCare/internal/validation"
)

const minPasswordLength = 6

var genderCodes = map[string]bool{"1": true, "2": true, "3": true}

type accessTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// validateSignup runs the person-registration pipeline. The CPF, birth date
// and gender are validated and then discarded; only the account fields
// survive the submission.
func (s *Service) validateSignup(input SignupInput) error {
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return missingField("full_name")
	}
	if strings.TrimSpace(input.CPF) == "" {
		return missingField("cpf")
	}
	if strings.TrimSpace(input.BirthDate) == "" {
		return missingField("birth_date")
	}
	if strings.TrimSpace(input.Email) == "" {
		return missingField("email")
	}
	if input.Password == "" {
		return missingField("password")
	}
	if input.ConfirmPassword == "" {
		return missingField("confirm_password")
	}
	if strings.TrimSpace(input.Gender) == "" {
		return missingField("gender")
	}

	if !validation.ValidateCPF(input.CPF) {
		return invalidFormat("cpf", "invalid CPF")
	}
	birth, ok := validation.ParseDate(input.BirthDate)
	if !ok {
		return invalidFormat("birth_date", "birth date must be a real YYYY-MM-DD calendar date")
	}
	if birth.After(s.today()) {
		return invalidFormat("birth_date", "birth date cannot be in the future")
	}
	if !validation.ValidateEmail(input.Email) {
		return invalidFormat("email", "invalid email")
	}
	if !genderCodes[strings.TrimSpace(input.Gender)] {
		return invalidFormat("gender", "unknown gender code")
	}

	// Keeps the duplicate rule in pipeline position; the InsertIf in Signup
	// is the authoritative guard.
	email := strings.ToLower(strings.TrimSpace(input.Email))
	dupes := s.store.Users.Filter(func(u store.User) bool { return u.Email == email })
	if len(dupes) > 0 {
		return duplicateKey("email", "an account with this email already exists")
	}

	if len(input.Password) < minPasswordLength {
		return invalidFormat("password", fmt.Sprintf("password must have at least %d characters", minPasswordLength))
	}
	if input.Password != input.ConfirmPassword {
		return invalidFormat("confirm_password", "passwords do not match")
	}
	if len(strings.Fields(fullName)) < 2 {
		return invalidFormat("full_name", "full name must include first and last name")
	}
	return nil
}

// Signup validates a registration and creates the in-memory account. The
// registration itself is transient: nothing but the account survives.
func (s *Service) Signup(ctx context.Context, input SignupInput) (SignupOutput, error) {
	ctx, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.Signup")
	defer span.End()

	if err := s.validateSignup(input); err != nil {
		return SignupOutput{}, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return SignupOutput{}, fmt.Errorf("hash password: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	user, ok := s.store.Users.InsertIf(store.User{
		Email:        email,
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: string(passwordHash),
	}, func(u store.User) bool { return u.Email == email })
	if !ok {
		return SignupOutput{}, duplicateKey("email", "an account with this email already exists")
	}
	slog.InfoContext(ctx, "user registered", "user_id", user.ID, "email", user.Email)

	return SignupOutput{UserID: user.ID, Email: user.Email, FullName: user.FullName}, nil
}

// EnsureUser creates the bootstrap account when it does not exist yet.
func (s *Service) EnsureUser(ctx context.Context, email string, password string) error {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.EnsureUser")
	defer span.End()

	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	if !validation.ValidateEmail(normalizedEmail) {
		return invalidFormat("email", "invalid email")
	}
	if len(password) < minPasswordLength {
		return invalidFormat("password", fmt.Sprintf("password must have at least %d characters", minPasswordLength))
	}

	existing := s.store.Users.Filter(func(u store.User) bool { return u.Email == normalizedEmail })
	if len(existing) > 0 {
		return nil
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	s.store.Users.InsertIf(
		store.User{Email: normalizedEmail, PasswordHash: string(passwordHash)},
		func(u store.User) bool { return u.Email == normalizedEmail },
	)
	return nil
}

func (s *Service) Login(ctx context.Context, input LoginInput) (LoginOutput, error) {
	_, span := otel.Tracer(serviceTracerName).Start(ctx, "Service.Login")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !validation.ValidateEmail(email) {
		return LoginOutput{}, invalidFormat("email", "invalid email")
	}
	if strings.TrimSpace(input.Password) == "" {
		return LoginOutput{}, missingField("password")
	}
	if len(s.jwtSigningKey) == 0 {
		return LoginOutput{}, fmt.Errorf("jwt signing key is not configured")
	}

	matches := s.store.Users.Filter(func(u store.User) bool { return u.Email == email })
	if len(matches) == 0 {
		// Keep timing close to the existing-user path to reduce account
		// enumeration via latency.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyPasswordHash), []byte(input.Password))
		return LoginOutput{}, unauthorizedError("invalid credentials")
	}
	user := matches[0]

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return LoginOutput{}, unauthorizedError("invalid credentials")
	}

	tokenID, err := uuid.NewV7()
	if err != nil {
		return LoginOutput{}, fmt.Errorf("generate token id: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.jwtAccessTokenTTL)
	claims := accessTokenClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwtIssuer,
			Subject:   fmt.Sprintf("%d", user.ID),
			ID:        tokenID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.jwtSigningKey)
	if err != nil {
		return LoginOutput{}, fmt.Errorf("sign access token: %w", err)
	}

	return LoginOutput{
		AccessToken: signedToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
		Email:       user.Email,
	}, nil
}

func (s *Service) ValidateAccessToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return unauthorizedError("invalid token")
	}
	if len(s.jwtSigningKey) == 0 {
		return fmt.Errorf("jwt signing key is not configured")
	}

	claims := &accessTokenClaims{}
	parsedToken, err := jwt.ParseWithClaims(
		token,
		claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, unauthorizedError("invalid token")
			}
			return s.jwtSigningKey, nil
		},
		jwt.WithIssuer(s.jwtIssuer),
	)
	if err != nil || !parsedToken.Valid {
		return unauthorizedError("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return unauthorizedError("invalid token")
	}
	return nil
}
