package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"review_hero/internal/domain"
)

// ErrTokenExchange marks a failed OAuth code exchange, as opposed to a
// failure after the provider accepted the code.
var ErrTokenExchange = errors.New("token exchange failed")

const placeholderBusinessName = "My Business"

type AuthService struct {
	store domain.Store
	whop  domain.WhopClient
}

func NewAuthService(s domain.Store, w domain.WhopClient) *AuthService {
	return &AuthService{store: s, whop: w}
}

func (s *AuthService) AuthURL(state string) (string, error) {
	if s.whop == nil {
		return "", fmt.Errorf("whop oauth: %w", domain.ErrNotConfigured)
	}
	return s.whop.AuthURL(state), nil
}

// Login exchanges an OAuth code and returns the linked account, creating
// one on first sign-in.
func (s *AuthService) Login(ctx context.Context, code string) (domain.Account, error) {
	if s.whop == nil {
		return domain.Account{}, fmt.Errorf("whop oauth: %w", domain.ErrNotConfigured)
	}
	tok, err := s.whop.ExchangeCode(ctx, code)
	if err != nil {
		return domain.Account{}, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}

	var user domain.WhopUser
	if u, ok := lookupAny(tok, "user").(map[string]any); ok {
		user = mapWhopUser(u)
	}
	if user.ID == "" {
		access := lookupStr(tok, "access_token")
		if access == "" {
			return domain.Account{}, fmt.Errorf("%w: no access token", ErrTokenExchange)
		}
		me, err := s.whop.Me(ctx, access)
		if err != nil {
			return domain.Account{}, fmt.Errorf("fetch whop user: %w", err)
		}
		user = mapWhopUser(me)
	}
	if user.ID == "" {
		return domain.Account{}, errors.New("whop user has no id")
	}

	acc, err := s.store.GetAccountByWhopUser(ctx, user.ID)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Account{}, err
	}

	name := user.Name
	if name == "" {
		name = placeholderBusinessName
	}
	acc = domain.NewAccount(name, user.Email)
	acc.WhopUserID = &user.ID
	if err := s.store.CreateAccount(ctx, &acc); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// concurrent first login
			return s.store.GetAccountByWhopUser(ctx, user.ID)
		}
		return domain.Account{}, err
	}
	log.Info().Str("account_id", acc.ID).Msg("account created from whop login")
	return acc, nil
}
