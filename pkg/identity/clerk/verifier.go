package clerk

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultJWKSRefresh = time.Hour

// Verification failures surfaced to the auth middleware.
var (
	ErrTokenInvalid = errors.New("invalid session token")
	ErrKeyNotFound  = errors.New("signing key not found")
)

// VerifierConfig holds session-token verification configuration
type VerifierConfig struct {
	// Issuer is the expected token issuer, e.g. the Clerk frontend API
	// origin. The JWKS endpoint is derived from it when JWKSURL is empty.
	Issuer string

	// JWKSURL overrides the derived {issuer}/.well-known/jwks.json.
	JWKSURL string

	// Audience, when set, must match the token's aud claim.
	Audience string

	// RefreshInterval bounds how long fetched signing keys are reused.
	RefreshInterval time.Duration

	// HTTPClient is an optional HTTP client for JWKS fetches.
	HTTPClient *http.Client
}

// Verifier validates Clerk session JWTs (RS256) against the instance JWKS.
// Keys are cached and refreshed on interval or on unknown-kid misses.
type Verifier struct {
	issuer     string
	jwksURL    string
	audience   string
	refresh    time.Duration
	httpClient *http.Client

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewVerifier creates a session-token verifier
func NewVerifier(config VerifierConfig) (*Verifier, error) {
	issuer := strings.TrimRight(strings.TrimSpace(config.Issuer), "/")
	jwksURL := strings.TrimSpace(config.JWKSURL)
	if jwksURL == "" {
		if issuer == "" {
			return nil, fmt.Errorf("issuer or JWKS URL is required")
		}
		jwksURL = issuer + "/.well-known/jwks.json"
	}

	refresh := config.RefreshInterval
	if refresh <= 0 {
		refresh = defaultJWKSRefresh
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Verifier{
		issuer:     issuer,
		jwksURL:    jwksURL,
		audience:   config.Audience,
		refresh:    refresh,
		httpClient: httpClient,
		keys:       make(map[string]*rsa.PublicKey),
	}, nil
}

// Verify validates the token and returns the subject (the Clerk user id).
func (v *Verifier) Verify(ctx context.Context, token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrKeyNotFound
		}
		return v.signingKey(ctx, kid)
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return sub, nil
}

// signingKey returns the cached RSA key for kid, refreshing the JWKS when
// the cache is stale or the kid is unknown.
func (v *Verifier) signingKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	fresh := time.Since(v.fetchedAt) < v.refresh
	v.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}

	if err := v.refreshKeys(ctx); err != nil {
		// A stale key beats no key when the JWKS endpoint is flapping.
		if ok {
			return key, nil
		}
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if key, ok := v.keys[kid]; ok {
		return key, nil
	}
	return nil, ErrKeyNotFound
}

type jwksDocument struct {
	Keys []jwksKey `json:"keys"`
}

type jwksKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (v *Verifier) refreshKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create JWKS request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS fetch returned status %d", res.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return fmt.Errorf("failed to parse JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaKeyFromJWK(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return fmt.Errorf("JWKS document contained no usable RSA keys")
	}

	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = time.Now()
	v.mu.Unlock()
	return nil
}

func rsaKeyFromJWK(k jwksKey) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}
	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e <= 0 {
		return nil, fmt.Errorf("invalid exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
