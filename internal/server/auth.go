package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stowage/internal/config"
	"github.com/gravitas-games/stowage/pkg/models"
)

// JWTValidator handles JWT token validation
type JWTValidator struct {
	issuer          string
	keyURL          string
	refresh         time.Duration
	blacklistPrefix string

	publicKey *ecdsa.PublicKey
	keyMu     sync.RWMutex
	redis     *redis.Client
	log       logrus.FieldLogger
}

// Claims represents the JWT claims issued by the login service
type Claims struct {
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	Permissions int64  `json:"permissions"`
	Activated   int64  `json:"activated"`
	jwt.RegisteredClaims
}

// NewJWTValidator creates a validator and fetches the signing key.
// redisClient may be nil, which disables the blacklist check.
func NewJWTValidator(ctx context.Context, cfg *config.Config, redisClient *redis.Client, log logrus.FieldLogger) (*JWTValidator, error) {
	v := newValidator(cfg, redisClient, log)

	if err := v.RefreshPublicKey(); err != nil {
		return nil, oops.Wrapf(err, "failed to fetch public key")
	}

	go v.periodicKeyRefresh(ctx)

	v.log.Info("JWT validator initialized")
	return v, nil
}

func newValidator(cfg *config.Config, redisClient *redis.Client, log logrus.FieldLogger) *JWTValidator {
	return &JWTValidator{
		issuer:          cfg.JWT.Issuer,
		keyURL:          cfg.JWT.PublicKeyURL,
		refresh:         time.Duration(cfg.JWT.PublicKeyRefreshHrs) * time.Hour,
		blacklistPrefix: cfg.Redis.BlacklistPrefix,
		redis:           redisClient,
		log:             log.WithField("component", "jwt"),
	}
}

// SetPublicKey installs the verification key directly
func (v *JWTValidator) SetPublicKey(key *ecdsa.PublicKey) {
	v.keyMu.Lock()
	v.publicKey = key
	v.keyMu.Unlock()
}

// RefreshPublicKey fetches the PEM public key from the login service
func (v *JWTValidator) RefreshPublicKey() error {
	v.log.WithField("url", v.keyURL).Debug("Fetching public key")

	resp, err := http.Get(v.keyURL)
	if err != nil {
		return oops.Wrapf(err, "failed to fetch public key")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oops.Errorf("public key endpoint returned status %d", resp.StatusCode)
	}

	keyData, err := io.ReadAll(resp.Body)
	if err != nil {
		return oops.Wrapf(err, "failed to read public key")
	}

	key, err := parsePublicKey(keyData)
	if err != nil {
		return err
	}
	v.SetPublicKey(key)

	v.log.Info("Public key refreshed successfully")
	return nil
}

func parsePublicKey(data []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, oops.Errorf("failed to decode PEM block")
	}

	pubKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, oops.Wrapf(err, "failed to parse public key")
	}

	ecdsaKey, ok := pubKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, oops.Errorf("public key is not ECDSA")
	}
	return ecdsaKey, nil
}

func (v *JWTValidator) periodicKeyRefresh(ctx context.Context) {
	if v.refresh <= 0 {
		return
	}
	ticker := time.NewTicker(v.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := v.RefreshPublicKey(); err != nil {
				v.log.WithError(err).Warn("Failed to refresh public key")
			}
		}
	}
}

// ValidateToken validates a JWT token and returns player information
func (v *JWTValidator) ValidateToken(ctx context.Context, tokenString string) (*models.Player, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, oops.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		v.keyMu.RLock()
		defer v.keyMu.RUnlock()
		if v.publicKey == nil {
			return nil, oops.Errorf("no public key loaded")
		}
		return v.publicKey, nil
	})
	if err != nil {
		return nil, oops.Wrapf(err, "failed to parse token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, oops.Errorf("invalid token claims")
	}

	if claims.Issuer != v.issuer {
		return nil, oops.Errorf("invalid issuer: expected %s, got %s", v.issuer, claims.Issuer)
	}

	switch claims.Activated {
	case 0:
		return nil, oops.Errorf("user not activated")
	case -1:
		return nil, oops.Errorf("user is banned")
	}

	userID := strconv.FormatInt(claims.UserID, 10)

	if v.redis != nil {
		blacklisted, err := v.redis.Exists(ctx, v.blacklistPrefix+userID).Result()
		if err != nil {
			// redis being down must not lock everyone out
			v.log.WithError(err).Warn("Failed to check blacklist")
		} else if blacklisted > 0 {
			return nil, oops.Errorf("token is blacklisted")
		}
	}

	return &models.Player{
		ID:          userID,
		Username:    claims.Username,
		Permissions: claims.Permissions,
		Activated:   claims.Activated,
	}, nil
}

// extractTokenFromHeader finds the JWT in the websocket subprotocol header,
// the Authorization header or the token query parameter, in that order
func extractTokenFromHeader(r *http.Request) string {
	// Format: "access_token, <token>"
	if protocols := r.Header.Get("Sec-WebSocket-Protocol"); protocols != "" {
		parts := splitAndTrim(protocols, ",")
		if len(parts) == 2 && parts[0] == "access_token" {
			return parts[1]
		}
	}

	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
		return token
	}

	return r.URL.Query().Get("token")
}

func splitAndTrim(s, sep string) []string {
	var result []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
