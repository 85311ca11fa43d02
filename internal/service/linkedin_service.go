package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"

	config "github.com/postcraft/postcraft-api/configs"
	"github.com/postcraft/postcraft-api/internal/models"
	"github.com/postcraft/postcraft-api/internal/repository"
	"github.com/postcraft/postcraft-api/internal/transfer"
	"github.com/postcraft/postcraft-api/pkg/apperror"
	"github.com/postcraft/postcraft-api/pkg/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const linkedInCallTimeout = 10 * time.Second

var linkedInScopes = []string{"openid", "profile", "email", "w_member_social"}

// CallbackResult is the code the browser is redirected with after the
// LinkedIn callback.
type CallbackResult string

const (
	CallbackConnected      CallbackResult = "linkedin_connected"
	CallbackNoCode         CallbackResult = "no_code"
	CallbackNoState        CallbackResult = "no_state"
	CallbackInvalidState   CallbackResult = "invalid_state"
	CallbackNetworkTimeout CallbackResult = "network_timeout"
	CallbackInvalidRequest CallbackResult = "invalid_request"
	CallbackUnauthorized   CallbackResult = "unauthorized"
	CallbackOAuthFailed    CallbackResult = "oauth_failed"
)

func (r CallbackResult) Success() bool {
	return r == CallbackConnected
}

type LinkedInService interface {
	ConnectURL(ctx context.Context, userID int64) (*transfer.ConnectResponse, error)
	Callback(ctx context.Context, code, state, errParam string) CallbackResult
	Status(ctx context.Context, userID int64) (*transfer.ConnectionStatus, error)
	Disconnect(ctx context.Context, userID int64) error
	Test(ctx context.Context, userID int64) (*transfer.LinkedInProfile, error)
}

type linkedInService struct {
	cfg        config.Config
	u          repository.UserRepository
	oauth      *oauth2.Config
	httpClient *http.Client
}

func NewLinkedInService(cfg config.Config, u repository.UserRepository) LinkedInService {
	return &linkedInService{
		cfg: cfg,
		u:   u,
		oauth: &oauth2.Config{
			ClientID:     cfg.LinkedIn.ClientID,
			ClientSecret: cfg.LinkedIn.ClientSecret,
			RedirectURL:  cfg.LinkedIn.RedirectURI,
			Scopes:       linkedInScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.LinkedIn.AuthURL,
				TokenURL:  cfg.LinkedIn.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: &http.Client{Timeout: linkedInCallTimeout},
	}
}

// ConnectURL returns the authorization URL. The state is a signed token
// carrying "<nonce>_<userID>" so the callback can trust the user id.
func (s *linkedInService) ConnectURL(ctx context.Context, userID int64) (*transfer.ConnectResponse, error) {
	nonce, err := utils.GenerateRandomHex(16)
	if err != nil {
		return nil, fmt.Errorf("generate state nonce: %w", err)
	}

	state, err := utils.GenerateStateToken(s.cfg.SecretKey, fmt.Sprintf("%s_%d", nonce, userID), s.cfg.StateTTL)
	if err != nil {
		return nil, fmt.Errorf("sign state: %w", err)
	}

	return &transfer.ConnectResponse{
		URL:   s.oauth.AuthCodeURL(state),
		State: state,
	}, nil
}

func (s *linkedInService) Callback(ctx context.Context, code, state, errParam string) (result CallbackResult) {
	defer func() {
		linkedInCallbackTotal.WithLabelValues(string(result)).Inc()
	}()

	if errParam != "" {
		return sanitizeProviderError(errParam)
	}
	if code == "" {
		return CallbackNoCode
	}
	if state == "" {
		return CallbackNoState
	}

	userID, ok := s.parseState(state)
	if !ok {
		return CallbackInvalidState
	}

	exchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), linkedInCallTimeout)
	defer cancel()
	exchCtx = context.WithValue(exchCtx, oauth2.HTTPClient, s.httpClient)

	token, err := s.oauth.Exchange(exchCtx, code)
	if err != nil {
		result = classifyExchangeError(err)
		log.Warn().Err(err).Int64("user_id", userID).Str("result", string(result)).Msg("linkedin token exchange failed")
		return result
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = GetExpiresAt(0)
	}

	key := []byte(s.cfg.EncryptionKey)
	sealedAccess, err := utils.Seal(token.AccessToken, key)
	if err != nil {
		log.Error().Err(err).Msg("failed to seal linkedin access token")
		return CallbackOAuthFailed
	}
	var sealedRefresh string
	if token.RefreshToken != "" {
		if sealedRefresh, err = utils.Seal(token.RefreshToken, key); err != nil {
			log.Error().Err(err).Msg("failed to seal linkedin refresh token")
			return CallbackOAuthFailed
		}
	}

	updated, err := s.u.SetLinkedInTokens(context.WithoutCancel(ctx), userID, models.LinkedInTokens{
		AccessToken:  sealedAccess,
		RefreshToken: sealedRefresh,
		ExpiresAt:    expiresAt,
	})
	if err != nil || !updated {
		log.Warn().Err(err).Int64("user_id", userID).Msg("could not persist linkedin connection")
		return CallbackOAuthFailed
	}

	log.Info().Int64("user_id", userID).Time("expires_at", expiresAt).Msg("linkedin connected")
	return CallbackConnected
}

// parseState verifies the signed state and extracts the user id from
// "<nonce>_<userID>".
func (s *linkedInService) parseState(state string) (int64, bool) {
	composite, err := utils.ValidateStateToken(s.cfg.SecretKey, state)
	if err != nil {
		return 0, false
	}

	parts := strings.Split(composite, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return 0, false
	}

	userID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || userID <= 0 {
		return 0, false
	}
	return userID, true
}

func sanitizeProviderError(errParam string) CallbackResult {
	value := strings.ToLower(strings.TrimSpace(errParam))
	if value == "" {
		return CallbackOAuthFailed
	}
	for _, r := range value {
		if (r < 'a' || r > 'z') && r != '_' {
			return CallbackOAuthFailed
		}
	}
	return CallbackResult(value)
}

func classifyExchangeError(err error) CallbackResult {
	if errors.Is(err, context.DeadlineExceeded) {
		return CallbackNetworkTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CallbackNetworkTimeout
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		switch retrieveErr.Response.StatusCode {
		case http.StatusBadRequest:
			return CallbackInvalidRequest
		case http.StatusUnauthorized:
			return CallbackUnauthorized
		}
		return CallbackOAuthFailed
	}

	if errors.Is(err, syscall.ETIMEDOUT) || errors.Is(err, syscall.ENETUNREACH) {
		return CallbackNetworkTimeout
	}
	return CallbackOAuthFailed
}

func (s *linkedInService) Status(ctx context.Context, userID int64) (*transfer.ConnectionStatus, error) {
	user, found, err := s.u.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !found {
		return nil, apperror.ErrNotFound.WithMessage("User not found")
	}

	status := &transfer.ConnectionStatus{Connected: user.LinkedInConnected}
	if user.LinkedInTokenExpiry.Valid {
		expiry := user.LinkedInTokenExpiry.Time
		status.Expiry = &expiry
		status.IsExpired = expiry.Before(time.Now())
	}
	return status, nil
}

func (s *linkedInService) Disconnect(ctx context.Context, userID int64) error {
	if err := s.u.ClearLinkedInTokens(ctx, userID); err != nil {
		return fmt.Errorf("clear linkedin tokens: %w", err)
	}
	log.Info().Int64("user_id", userID).Msg("linkedin disconnected")
	return nil
}

// Test probes the userinfo endpoint with the stored token. It never
// changes the stored connection.
func (s *linkedInService) Test(ctx context.Context, userID int64) (*transfer.LinkedInProfile, error) {
	user, found, err := s.u.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !found {
		return nil, apperror.ErrNotFound.WithMessage("User not found")
	}
	if !user.LinkedInConnected || !user.LinkedInAccessToken.Valid || user.LinkedInAccessToken.String == "" {
		return nil, apperror.ErrNotConnected
	}
	if user.LinkedInTokenExpiry.Valid && user.LinkedInTokenExpiry.Time.Before(time.Now()) {
		return nil, apperror.ErrTokenExpired
	}

	accessToken, err := utils.Open(user.LinkedInAccessToken.String, []byte(s.cfg.EncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("open linkedin token: %w", err)
	}

	probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), linkedInCallTimeout)
	defer cancel()

	client := oauth2.NewClient(
		context.WithValue(probeCtx, oauth2.HTTPClient, s.httpClient),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
	)

	endpoint := strings.TrimRight(s.cfg.LinkedIn.APIURL, "/") + "/v2/userinfo"
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("linkedin probe failed")
		return nil, fmt.Errorf("%w: %v", apperror.ErrUpstream.WithMessage("LinkedIn API test failed"), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp transfer.LinkedInErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		log.Warn().Int("status", resp.StatusCode).Str("error", errResp.Error).Int64("user_id", userID).Msg("linkedin probe rejected")
		return nil, apperror.ErrUpstream.WithMessage("LinkedIn API test failed")
	}

	var info transfer.LinkedInUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %v", apperror.ErrUpstream.WithMessage("LinkedIn API test failed"), err)
	}

	return &transfer.LinkedInProfile{
		Name:  info.Name,
		Email: info.Email,
		Sub:   info.Sub,
	}, nil
}
