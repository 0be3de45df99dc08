package auth

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ExchangeRequest carries the credentials of a token exchange. Host
// becomes the issuer, RemoteAddr the recorded sign in origin.
type ExchangeRequest struct {
	Email      string
	Password   string
	Host       string
	RemoteAddr string
}

// TokenPair is the result of a successful credential exchange
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_token_expires_at"`
}

// Authenticator exchanges credentials for tokens and resolves the
// account behind a verified access token.
type Authenticator struct {
	repo         RepositoryManager
	tokenService TokenService
	logger       Logger
	activitySink ActivitySink
	clock        Clock
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, tokenService TokenService) *Authenticator {
	return &Authenticator{
		repo:         repo,
		tokenService: tokenService,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *Authenticator) WithLogger(logger Logger) *Authenticator {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Authenticator) WithActivitySink(sink ActivitySink) *Authenticator {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithClock injects a custom clock (useful for tests).
func (s *Authenticator) WithClock(clock Clock) *Authenticator {
	s.clock = clock
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Authenticator) TokenService() TokenService {
	return s.tokenService
}

// Exchange verifies credentials and issues an access and refresh token.
// Unknown accounts and wrong passwords both yield ErrWrongCredentials,
// inactive accounts with a matching password yield ErrAccountDisabled.
// On success the login is tracked once and the refresh token recorded.
func (s *Authenticator) Exchange(ctx context.Context, req ExchangeRequest) (*TokenPair, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during token exchange")
	default:
	}

	user, err := s.repo.Users().FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			CheckPassword(dummyPasswordHash(), req.Password)
			s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", map[string]any{
				"identifier": req.Email,
				"error":      ErrWrongCredentials.Error(),
			})
			return nil, ErrWrongCredentials
		}
		s.logger.Error("token exchange user lookup error: %v", err)
		return nil, err
	}

	if !Authenticated(user, req.Password) {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, user.ID.String(), map[string]any{
			"identifier": req.Email,
			"error":      ErrWrongCredentials.Error(),
		})
		return nil, ErrWrongCredentials
	}

	if !user.IsActive() {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, user.ID.String(), map[string]any{
			"identifier": req.Email,
			"error":      ErrAccountDisabled.Error(),
			"state":      AccountStateOf(user),
		})
		return nil, ErrAccountDisabled
	}

	access, accessExp, err := s.tokenService.IssueAccessToken(user, req.Host)
	if err != nil {
		return nil, err
	}

	refresh, refreshExp, err := s.tokenService.IssueRefreshToken(req.Host)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Users().UpdateTrackingActivity(ctx, user, req.RemoteAddr); err != nil {
		s.logger.Error("token exchange tracking error: %v", err)
		return nil, err
	}

	if _, err := s.repo.RefreshTokens().Record(ctx, user.ID, refresh, refreshExp); err != nil {
		s.logger.Error("token exchange ledger error: %v", err)
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, user.ID.String(), map[string]any{
		"identifier": req.Email,
		"ip":         req.RemoteAddr,
	})

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// CurrentUser resolves the live account behind verified access claims
func (s *Authenticator) CurrentUser(ctx context.Context, claims *JWTClaims) (*User, error) {
	if claims == nil || !claims.IsAccessToken() {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.Users().FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return user, nil
}

func (s *Authenticator) emitAuthEvent(ctx context.Context, eventType ActivityEventType, userID string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	emitActivity(ctx, s.activitySink, s.logger, s.clock, ActivityEvent{
		EventType: eventType,
		ActorID:   userID,
		UserID:    userID,
		Metadata:  metadata,
	})
}
