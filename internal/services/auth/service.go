// Package auth is the identity boundary. Credentials are established by
// the external identity provider; this service only resolves an ID
// token into a local user, creating the user and their wallet together
// on first sign-in.
package auth

import (
	"context"
	"errors"
	"fmt"

	"kolo/internal/models"
	"kolo/internal/repositories"
	"kolo/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

// Service errors
var (
	ErrInvalidToken      = errors.New("invalid identity token")
	ErrIncompleteProfile = errors.New("identity token missing subject or email")
)

// Service resolves identity-provider tokens into local users.
type Service interface {
	ResolveUser(ctx context.Context, idToken string) (*models.User, error)
	UserByID(ctx context.Context, id uint) (*models.User, error)
}

type service struct {
	users           repositories.UserRepository
	clientID        string
	defaultCurrency string
}

func NewService(users repositories.UserRepository, clientID, defaultCurrency string) Service {
	if users == nil {
		panic("user repository is required")
	}
	return &service{
		users:           users,
		clientID:        clientID,
		defaultCurrency: defaultCurrency,
	}
}

// ResolveUser decodes the provider's ID token and returns the matching
// user, onboarding them atomically with a wallet on first sign-in. The
// token's signature was already checked upstream by the provider
// exchange; only the claims are read here.
func (s *service) ResolveUser(ctx context.Context, idToken string) (*models.User, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if s.clientID != "" {
		audience, _ := claims.GetAudience()
		if !containsAudience(audience, s.clientID) {
			return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
		}
	}

	googleID, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if googleID == "" || email == "" {
		return nil, ErrIncompleteProfile
	}

	user, err := s.users.ByGoogleID(ctx, googleID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	walletNumber, err := s.uniqueWalletNumber(ctx)
	if err != nil {
		return nil, err
	}

	user = &models.User{Email: email, GoogleID: googleID}
	wallet := &models.Wallet{
		WalletNumber: walletNumber,
		Balance:      0,
		Currency:     s.defaultCurrency,
	}
	if err := s.users.CreateWithWallet(ctx, user, wallet); err != nil {
		return nil, fmt.Errorf("failed to onboard user: %w", err)
	}
	user.Wallet = wallet
	return user, nil
}

func (s *service) UserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.users.ByID(ctx, id)
}

func (s *service) uniqueWalletNumber(ctx context.Context) (string, error) {
	for {
		number, err := utils.GenerateWalletNumber()
		if err != nil {
			return "", err
		}
		taken, err := s.users.WalletNumberTaken(ctx, number)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
	}
}

func containsAudience(audience jwt.ClaimStrings, clientID string) bool {
	for _, aud := range audience {
		if aud == clientID {
			return true
		}
	}
	return false
}
