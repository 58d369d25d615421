package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/domain/repository"
	"video-publisher/infrastructure/logger"
	"video-publisher/infrastructure/utils"
)

const oauthStateTTL = 10 * time.Minute

type IConnectionUsecase interface {
	List(ctx context.Context, userID string) ([]*model.PlatformConnection, error)
	Connect(ctx context.Context, userID string, platform model.Platform, req dto.UpsertConnectionRequest) (*model.PlatformConnection, error)
	Deactivate(ctx context.Context, userID, id string) error
	Delete(ctx context.Context, userID, id string) error
	AuthURL(ctx context.Context, userID string, platform model.Platform) (*dto.AuthURL, error)
	CompleteOAuth(ctx context.Context, platform model.Platform, state, code, nonce string) (*model.PlatformConnection, error)
}

type connectionUsecase struct {
	connections    repository.IPlatformConnection
	authenticators map[model.Platform]repository.IPlatformAuthenticator
	stateKey       string
}

func NewConnectionUsecase(connections repository.IPlatformConnection, stateSecret string, authenticators ...repository.IPlatformAuthenticator) IConnectionUsecase {
	m := make(map[model.Platform]repository.IPlatformAuthenticator, len(authenticators))
	for _, a := range authenticators {
		if a != nil {
			m[a.Platform()] = a
		}
	}
	return &connectionUsecase{
		connections:    connections,
		authenticators: m,
		stateKey:       utils.DeriveKey(stateSecret, model.OAuthStateAudience),
	}
}

func (u *connectionUsecase) List(ctx context.Context, userID string) ([]*model.PlatformConnection, error) {
	return u.connections.ListByUser(ctx, userID)
}

func (u *connectionUsecase) Connect(ctx context.Context, userID string, platform model.Platform, req dto.UpsertConnectionRequest) (*model.PlatformConnection, error) {
	if req.AccessToken == "" {
		return nil, fmt.Errorf("%w: access_token is required", model.ErrInvalidInput)
	}
	conn := &model.PlatformConnection{
		UserID:           userID,
		Platform:         platform,
		PlatformUserID:   req.PlatformUserID,
		PlatformUsername: req.PlatformUsername,
		AccessToken:      req.AccessToken,
		RefreshToken:     req.RefreshToken,
		TokenExpiresAt:   req.TokenExpiresAt,
		Metadata:         req.Metadata,
		IsActive:         true,
	}
	if err := u.connections.Upsert(ctx, conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func (u *connectionUsecase) owned(ctx context.Context, userID, id string) (*model.PlatformConnection, error) {
	conn, err := u.connections.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if conn.UserID != userID {
		return nil, model.ErrForbidden
	}
	return conn, nil
}

func (u *connectionUsecase) Deactivate(ctx context.Context, userID, id string) error {
	if _, err := u.owned(ctx, userID, id); err != nil {
		return err
	}
	return u.connections.SetActive(ctx, id, false)
}

func (u *connectionUsecase) Delete(ctx context.Context, userID, id string) error {
	if _, err := u.owned(ctx, userID, id); err != nil {
		return err
	}
	return u.connections.Delete(ctx, id)
}

func (u *connectionUsecase) authenticator(platform model.Platform) (repository.IPlatformAuthenticator, error) {
	a, ok := u.authenticators[platform]
	if !ok {
		return nil, fmt.Errorf("%s oauth: %w", platform, model.ErrNotConfigured)
	}
	return a, nil
}

// AuthURL signs the user id into the OAuth state so the unauthenticated callback can recover it.
// The state is signed with a key derived for OAuth only, and its nonce must come back from the
// browser that started the flow.
func (u *connectionUsecase) AuthURL(ctx context.Context, userID string, platform model.Platform) (*dto.AuthURL, error) {
	a, err := u.authenticator(platform)
	if err != nil {
		return nil, err
	}
	nonce := utils.NewID()
	state, err := utils.GenerateToken(map[string]interface{}{
		"sub":      userID,
		"aud":      model.OAuthStateAudience,
		"platform": string(platform),
		"nonce":    nonce,
		"exp":      time.Now().Add(oauthStateTTL).Unix(),
	}, u.stateKey)
	if err != nil {
		return nil, err
	}
	return &dto.AuthURL{URL: a.AuthCodeURL(state), State: state, Nonce: nonce}, nil
}

func (u *connectionUsecase) CompleteOAuth(ctx context.Context, platform model.Platform, state, code, nonce string) (*model.PlatformConnection, error) {
	if state == "" || code == "" {
		return nil, fmt.Errorf("%w: state and code are required", model.ErrInvalidInput)
	}
	a, err := u.authenticator(platform)
	if err != nil {
		return nil, err
	}
	claims, err := utils.ParseToken(state, u.stateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid oauth state: %v", model.ErrInvalidInput, err)
	}
	userID, _ := claims["sub"].(string)
	if userID == "" || !claims.VerifyAudience(model.OAuthStateAudience, true) || claims["platform"] != string(platform) {
		return nil, fmt.Errorf("%w: oauth state does not match", model.ErrInvalidInput)
	}
	stateNonce, _ := claims["nonce"].(string)
	if nonce == "" || subtle.ConstantTimeCompare([]byte(nonce), []byte(stateNonce)) != 1 {
		return nil, fmt.Errorf("%w: oauth state was issued to another browser", model.ErrInvalidInput)
	}

	creds, err := a.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	identity, err := a.Identify(ctx, *creds)
	if err != nil {
		return nil, err
	}

	conn := &model.PlatformConnection{
		UserID:         userID,
		Platform:       platform,
		AccessToken:    creds.AccessToken,
		RefreshToken:   creds.RefreshToken,
		TokenExpiresAt: creds.ExpiresAt,
		IsActive:       true,
	}
	if identity != nil {
		conn.PlatformUserID = utils.StringPtr(identity.PlatformUserID)
		conn.PlatformUsername = utils.StringPtr(identity.PlatformUsername)
		conn.Metadata = identity.Metadata
	}
	// Google only returns a refresh token on first consent; keep the stored one otherwise.
	if conn.RefreshToken == nil {
		if existing, err := u.connections.GetByUserAndPlatform(ctx, userID, platform); err == nil {
			conn.RefreshToken = existing.RefreshToken
		} else if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
	}
	if err := u.connections.Upsert(ctx, conn); err != nil {
		return nil, err
	}
	logger.GetLogger().WithField("user_id", userID).WithField("platform", platform).Info("Platform connected")
	return conn, nil
}
