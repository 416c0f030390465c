package auth

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/Yochiyuu/stellar-crowdFunding/internal/platform/errors"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/identity"
)

// DefaultGrantTTL bounds minted grants when no TTL is configured.
const DefaultGrantTTL = 15 * time.Minute

const (
	EnvGrantIssuer     = "CROWDFUND_GRANT_ISSUER"
	EnvGrantAudience   = "CROWDFUND_GRANT_AUDIENCE"
	EnvGrantPublicKey  = "CROWDFUND_GRANT_PUBLIC_KEY"
	EnvGrantPrivateKey = "CROWDFUND_GRANT_PRIVATE_KEY"
	EnvGrantTTL        = "CROWDFUND_GRANT_TTL"
)

type grantVerifierEnv struct {
	Issuer    string `env:"CROWDFUND_GRANT_ISSUER"`
	Audience  string `env:"CROWDFUND_GRANT_AUDIENCE"`
	PublicKey string `env:"CROWDFUND_GRANT_PUBLIC_KEY"`
}

type grantSignerEnv struct {
	Issuer     string        `env:"CROWDFUND_GRANT_ISSUER"`
	Audience   string        `env:"CROWDFUND_GRANT_AUDIENCE"`
	PrivateKey string        `env:"CROWDFUND_GRANT_PRIVATE_KEY"`
	TTL        time.Duration `env:"CROWDFUND_GRANT_TTL" envDefault:"15m"`
}

// GrantConfig defines how identity grants are verified.
type GrantConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// SignerConfig defines how identity grants are minted.
type SignerConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PrivateKey
	TTL      time.Duration
	Now      func() time.Time
}

// GrantClaims captures validated grant claims.
type GrantClaims struct {
	Subject   identity.ID
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	IssuedAt  time.Time
	JWTID     string
}

// LoadGrantConfigFromEnv reads grant verification configuration.
func LoadGrantConfigFromEnv(now func() time.Time) (GrantConfig, error) {
	var raw grantVerifierEnv
	if err := env.Parse(&raw); err != nil {
		return GrantConfig{}, fmt.Errorf("parse grant env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return GrantConfig{}, fmt.Errorf("%s is required", EnvGrantIssuer)
	}
	if audience == "" {
		return GrantConfig{}, fmt.Errorf("%s is required", EnvGrantAudience)
	}
	if publicKey == "" {
		return GrantConfig{}, fmt.Errorf("%s is required", EnvGrantPublicKey)
	}
	keyBytes, err := DecodeKey(publicKey)
	if err != nil {
		return GrantConfig{}, fmt.Errorf("decode grant public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return GrantConfig{}, fmt.Errorf("grant public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return GrantConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// LoadSignerConfigFromEnv reads grant minting configuration.
func LoadSignerConfigFromEnv(now func() time.Time) (SignerConfig, error) {
	var raw grantSignerEnv
	if err := env.Parse(&raw); err != nil {
		return SignerConfig{}, fmt.Errorf("parse grant env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	privateKey := strings.TrimSpace(raw.PrivateKey)
	if issuer == "" {
		return SignerConfig{}, fmt.Errorf("%s is required", EnvGrantIssuer)
	}
	if audience == "" {
		return SignerConfig{}, fmt.Errorf("%s is required", EnvGrantAudience)
	}
	if privateKey == "" {
		return SignerConfig{}, fmt.Errorf("%s is required", EnvGrantPrivateKey)
	}
	keyBytes, err := DecodeKey(privateKey)
	if err != nil {
		return SignerConfig{}, fmt.Errorf("decode grant private key: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return SignerConfig{}, fmt.Errorf("grant private key must be %d bytes", ed25519.PrivateKeySize)
	}
	if raw.TTL <= 0 {
		return SignerConfig{}, fmt.Errorf("%s must be positive", EnvGrantTTL)
	}
	if now == nil {
		now = time.Now
	}
	return SignerConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PrivateKey(keyBytes),
		TTL:      raw.TTL,
		Now:      now,
	}, nil
}

// MintGrant signs a grant naming subject as the caller identity.
func MintGrant(subject identity.ID, cfg SignerConfig) (string, error) {
	if subject.IsZero() {
		return "", apperrors.New(apperrors.CodeInvalidIdentity, "grant subject is required")
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PrivateKeySize {
		return "", errors.New("grant signer is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultGrantTTL
	}
	now := cfg.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		Subject:   subject.String(),
		Audience:  jwt.ClaimStrings{cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(cfg.Key)
	if err != nil {
		return "", fmt.Errorf("sign grant: %w", err)
	}
	return signed, nil
}

// VerifyGrant verifies a grant token and returns its claims.
func VerifyGrant(grant string, cfg GrantConfig) (GrantClaims, error) {
	grant = strings.TrimSpace(grant)
	if grant == "" {
		return GrantClaims{}, apperrors.New(apperrors.CodeUnauthenticated, "identity grant is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return GrantClaims{}, errors.New("grant verifier is not configured")
	}

	var parsed jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(grant, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return GrantClaims{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return GrantClaims{}, apperrors.WithMetadata(
			apperrors.CodeUnauthenticated,
			"identity grant issuer mismatch",
			map[string]string{"Field": "issuer"},
		)
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return GrantClaims{}, apperrors.WithMetadata(
			apperrors.CodeUnauthenticated,
			"identity grant audience mismatch",
			map[string]string{"Field": "audience"},
		)
	}
	if parsed.ExpiresAt == nil {
		return GrantClaims{}, apperrors.New(apperrors.CodeUnauthenticated, "identity grant exp is required")
	}

	now := cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return GrantClaims{}, apperrors.New(apperrors.CodeUnauthenticated, "identity grant is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return GrantClaims{}, apperrors.New(apperrors.CodeUnauthenticated, "identity grant not active yet")
	}

	subject, err := identity.Parse(parsed.Subject)
	if err != nil {
		return GrantClaims{}, apperrors.WithMetadata(
			apperrors.CodeUnauthenticated,
			"identity grant subject is invalid",
			map[string]string{"Field": "sub"},
		)
	}

	claims := GrantClaims{
		Subject:   subject,
		Issuer:    parsed.Issuer,
		Audience:  []string(parsed.Audience),
		ExpiresAt: exp,
		JWTID:     parsed.ID,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeUnauthenticated, "identity grant signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeUnauthenticated, "identity grant alg is invalid")
	}
	return apperrors.New(apperrors.CodeUnauthenticated, "identity grant is invalid")
}

func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

// DecodeKey decodes a base64 key in raw or padded standard encoding.
func DecodeKey(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
