package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gatehouse.dev/internal/obs"
)

const (
	defaultIssuer   = "gatehouse"
	defaultAudience = "gatehouse"
	defaultTokenTTL = 15 * time.Minute

	// minSecretLength is 256 bits.
	minSecretLength = 32
)

// AuthMethodPassword marks sessions established with a login and password.
const AuthMethodPassword = "password"

var (
	errTokenMalformed = errors.New("token malformed")
	errTokenIssuer    = errors.New("token issuer mismatch")
	errTokenExpired   = errors.New("token expired")
	errTokenVersion   = errors.New("token version mismatch")
)

// TokenPayload is the full claim set carried by a session token.
type TokenPayload struct {
	Issuer    string
	Subject   string
	Audience  string
	IssuedAt  time.Time
	ExpiresAt time.Time
	TokenID   string

	UserID      UserID
	Username    string
	Email       string
	DisplayName string
	Master      bool

	SystemID  SystemID
	RoleCodes []string

	AuthMethod   string
	SessionID    string
	TokenVersion int
}

// Roles returns the payload role codes as a set.
func (p TokenPayload) Roles() RoleSet { return NewRoleSet(p.RoleCodes...) }

// NewTokenPayload checks the structural invariants of p and returns it with
// nil role codes replaced by an empty list for master users.
func NewTokenPayload(p TokenPayload) (TokenPayload, error) {
	switch {
	case strings.TrimSpace(p.Issuer) == "":
		return TokenPayload{}, fmt.Errorf("%w: issuer is required", ErrInvalidPayload)
	case strings.TrimSpace(p.Audience) == "":
		return TokenPayload{}, fmt.Errorf("%w: audience is required", ErrInvalidPayload)
	case strings.TrimSpace(p.Subject) == "":
		return TokenPayload{}, fmt.Errorf("%w: subject is required", ErrInvalidPayload)
	case strings.TrimSpace(p.TokenID) == "":
		return TokenPayload{}, fmt.Errorf("%w: token id is required", ErrInvalidPayload)
	case !p.UserID.Valid():
		return TokenPayload{}, fmt.Errorf("%w: user id is required", ErrInvalidPayload)
	case !p.SystemID.Valid():
		return TokenPayload{}, fmt.Errorf("%w: system id is required", ErrInvalidPayload)
	case p.IssuedAt.IsZero() || !p.ExpiresAt.After(p.IssuedAt):
		return TokenPayload{}, fmt.Errorf("%w: expiry must follow issued-at", ErrInvalidPayload)
	case !wholeSecond(p.IssuedAt) || !wholeSecond(p.ExpiresAt):
		return TokenPayload{}, fmt.Errorf("%w: issued-at and expiry must be whole seconds", ErrInvalidPayload)
	case p.TokenVersion < 1:
		return TokenPayload{}, fmt.Errorf("%w: token version must be positive", ErrInvalidPayload)
	}
	if len(p.RoleCodes) == 0 && !p.Master {
		return TokenPayload{}, fmt.Errorf("%w: role codes are required for non-master users", ErrInvalidPayload)
	}
	if p.RoleCodes == nil {
		p.RoleCodes = []string{}
	}
	return p, nil
}

// wholeSecond reports whether t survives the second-resolution NumericDate
// encoding unchanged.
func wholeSecond(t time.Time) bool { return t.Nanosecond() == 0 }

type tokenClaims struct {
	UserID       int64    `json:"userId"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Master       bool     `json:"master"`
	SystemID     int64    `json:"systemId"`
	SystemRoles  []string `json:"systemRoles"`
	AuthMethod   string   `json:"authMethod"`
	SessionID    string   `json:"sessionId"`
	TokenVersion int      `json:"tokenVersion"`
	jwt.RegisteredClaims
}

// Codec issues and verifies signed session tokens. It is immutable after
// construction and safe for concurrent use.
type Codec struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	keyID     string
	issuer    string
	audience  string
	ttl       time.Duration
	version   int
	now       func() time.Time
}

// CodecOption configures Codec behavior.
type CodecOption func(*Codec) error

// WithHMACSecret signs tokens with HS256 using secret (at least 32 bytes).
func WithHMACSecret(secret []byte) CodecOption {
	return func(c *Codec) error {
		if len(secret) < minSecretLength {
			return fmt.Errorf("auth: token secret must be at least %d bytes", minSecretLength)
		}
		key := make([]byte, len(secret))
		copy(key, secret)
		c.method = jwt.SigningMethodHS256
		c.signKey = key
		c.verifyKey = key
		return nil
	}
}

// WithRS256Keys signs tokens with RS256 using PEM encoded keys.
func WithRS256Keys(privatePEM, publicPEM string) CodecOption {
	return func(c *Codec) error {
		privatePEM = strings.TrimSpace(privatePEM)
		publicPEM = strings.TrimSpace(publicPEM)
		if privatePEM == "" || publicPEM == "" {
			return errors.New("auth: both private and public keys are required")
		}
		priv, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privatePEM))
		if err != nil {
			return fmt.Errorf("auth: parse private key: %w", err)
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicPEM))
		if err != nil {
			return fmt.Errorf("auth: parse public key: %w", err)
		}
		return withRSAKeys(priv, pub)(c)
	}
}

func withRSAKeys(priv *rsa.PrivateKey, pub *rsa.PublicKey) CodecOption {
	return func(c *Codec) error {
		c.method = jwt.SigningMethodRS256
		c.signKey = priv
		c.verifyKey = pub
		return nil
	}
}

// WithKeyID sets the kid header of issued tokens.
func WithKeyID(kid string) CodecOption {
	return func(c *Codec) error {
		c.keyID = strings.TrimSpace(kid)
		return nil
	}
}

// WithIssuer overrides the iss claim written and required on verify.
func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) error {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			c.issuer = issuer
		}
		return nil
	}
}

// WithAudience overrides the aud claim written into tokens.
func WithAudience(audience string) CodecOption {
	return func(c *Codec) error {
		if audience = strings.TrimSpace(audience); audience != "" {
			c.audience = audience
		}
		return nil
	}
}

// WithTTL configures token lifetime: a whole number of seconds, at least one.
func WithTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) error {
		if ttl < time.Second || ttl%time.Second != 0 {
			return fmt.Errorf("auth: token ttl must be a whole number of seconds, got %s", ttl)
		}
		c.ttl = ttl
		return nil
	}
}

// WithTokenVersion sets the current token format version. Tokens carrying any
// other version fail verification.
func WithTokenVersion(version int) CodecOption {
	return func(c *Codec) error {
		if version < 1 {
			return errors.New("auth: token version must be positive")
		}
		c.version = version
		return nil
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) CodecOption {
	return func(c *Codec) error {
		if fn != nil {
			c.now = fn
		}
		return nil
	}
}

// NewCodec constructs a Codec. A signing key option is required.
func NewCodec(opts ...CodecOption) (*Codec, error) {
	c := &Codec{
		issuer:   defaultIssuer,
		audience: defaultAudience,
		ttl:      defaultTokenTTL,
		version:  1,
		now:      time.Now,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.method == nil {
		return nil, errors.New("auth: token signing key is not configured")
	}
	return c, nil
}

// TokenVersion reports the version stamped into issued tokens.
func (c *Codec) TokenVersion() int { return c.version }

// IssueRequest carries everything needed to mint a session token.
type IssueRequest struct {
	Identity   AuthenticatedIdentity
	Decision   AuthorizationDecision
	AuthMethod string
	SessionID  string
}

// Issue builds, validates and signs a payload for req. Timestamps are
// truncated to whole seconds so the returned payload equals what Verify
// reconstructs.
func (c *Codec) Issue(req IssueRequest) (string, TokenPayload, error) {
	now := c.now().UTC().Truncate(time.Second)
	roles := req.Decision.Roles.Codes()
	payload, err := NewTokenPayload(TokenPayload{
		Issuer:       c.issuer,
		Subject:      req.Identity.UserID.String(),
		Audience:     c.audience,
		IssuedAt:     now,
		ExpiresAt:    now.Add(c.ttl),
		TokenID:      uuid.NewString(),
		UserID:       req.Identity.UserID,
		Username:     req.Identity.Username,
		Email:        req.Identity.Email,
		DisplayName:  req.Identity.DisplayName,
		Master:       req.Identity.Master,
		SystemID:     req.Decision.SystemID,
		RoleCodes:    roles,
		AuthMethod:   req.AuthMethod,
		SessionID:    req.SessionID,
		TokenVersion: c.version,
	})
	if err != nil {
		return "", TokenPayload{}, err
	}
	token, err := c.Encode(payload)
	if err != nil {
		return "", TokenPayload{}, err
	}
	obs.TokenIssued()
	return token, payload, nil
}

// Encode signs payload as a compact token.
func (c *Codec) Encode(payload TokenPayload) (string, error) {
	payload, err := NewTokenPayload(payload)
	if err != nil {
		return "", err
	}
	claims := tokenClaims{
		UserID:       int64(payload.UserID),
		Username:     payload.Username,
		Email:        payload.Email,
		Name:         payload.DisplayName,
		Master:       payload.Master,
		SystemID:     int64(payload.SystemID),
		SystemRoles:  payload.RoleCodes,
		AuthMethod:   payload.AuthMethod,
		SessionID:    payload.SessionID,
		TokenVersion: payload.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    payload.Issuer,
			Subject:   payload.Subject,
			Audience:  jwt.ClaimStrings{payload.Audience},
			IssuedAt:  jwt.NewNumericDate(payload.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(payload.ExpiresAt),
			ID:        payload.TokenID,
		},
	}
	token := jwt.NewWithClaims(c.method, claims)
	if c.keyID != "" {
		token.Header["kid"] = c.keyID
	}
	signed, err := token.SignedString(c.signKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, expiry and token version, and returns the
// reconstructed payload. Every failure yields ok == false with no detail.
func (c *Codec) Verify(raw string) (TokenPayload, bool) {
	payload, err := c.decode(raw)
	if err != nil {
		obs.TokenVerification(verificationResult(err))
		return TokenPayload{}, false
	}
	obs.TokenVerification("ok")
	return payload, true
}

func (c *Codec) decode(raw string) (TokenPayload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return TokenPayload{}, errTokenMalformed
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	parsed, err := parser.ParseWithClaims(raw, &tokenClaims{}, func(*jwt.Token) (any, error) {
		return c.verifyKey, nil
	})
	if err != nil {
		return TokenPayload{}, err
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return TokenPayload{}, errTokenMalformed
	}
	if claims.Issuer != c.issuer {
		return TokenPayload{}, errTokenIssuer
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return TokenPayload{}, errTokenMalformed
	}
	expiresAt := claims.ExpiresAt.Time.UTC()
	if c.now().After(expiresAt) {
		return TokenPayload{}, errTokenExpired
	}
	if claims.TokenVersion != c.version {
		return TokenPayload{}, errTokenVersion
	}
	var audience string
	if len(claims.Audience) > 0 {
		audience = claims.Audience[0]
	}
	payload, err := NewTokenPayload(TokenPayload{
		Issuer:       claims.Issuer,
		Subject:      claims.Subject,
		Audience:     audience,
		IssuedAt:     claims.IssuedAt.Time.UTC(),
		ExpiresAt:    expiresAt,
		TokenID:      claims.ID,
		UserID:       UserID(claims.UserID),
		Username:     claims.Username,
		Email:        claims.Email,
		DisplayName:  claims.Name,
		Master:       claims.Master,
		SystemID:     SystemID(claims.SystemID),
		RoleCodes:    claims.SystemRoles,
		AuthMethod:   claims.AuthMethod,
		SessionID:    claims.SessionID,
		TokenVersion: claims.TokenVersion,
	})
	if err != nil {
		return TokenPayload{}, errTokenMalformed
	}
	return payload, nil
}

func verificationResult(err error) string {
	switch {
	case errors.Is(err, errTokenIssuer):
		return "issuer_mismatch"
	case errors.Is(err, errTokenExpired):
		return "expired"
	case errors.Is(err, errTokenVersion):
		return "version_mismatch"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "bad_signature"
	default:
		return "invalid"
	}
}
