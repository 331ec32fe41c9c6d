package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSession = errors.New("invalid session")

const (
	defaultCertTTL = time.Hour
	// minCertRefresh bounds refetches triggered by unknown key ids.
	minCertRefresh = time.Minute
)

// FirebaseVerifier validates Firebase session cookies (RS256, signed by Google)
// and returns the Firebase uid.
type FirebaseVerifier struct {
	ProjectID  string
	CertsURL   string
	HTTPClient *http.Client
	Now        func() time.Time

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
	expiresAt time.Time
}

func NewFirebaseVerifier(projectID, certsURL string) *FirebaseVerifier {
	return &FirebaseVerifier{
		ProjectID:  projectID,
		CertsURL:   certsURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Now:        time.Now,
	}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, cookie string) (string, error) {
	if cookie == "" {
		return "", ErrInvalidSession
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(cookie, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid header")
		}
		return v.key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer("https://session.firebase.google.com/"+v.ProjectID),
		jwt.WithAudience(v.ProjectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.Now),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidSession)
	}
	return claims.Subject, nil
}

func (v *FirebaseVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keys == nil || v.Now().After(v.expiresAt) {
		if err := v.refresh(ctx); err != nil {
			return nil, err
		}
	}

	k, ok := v.keys[kid]
	if !ok && v.Now().Sub(v.fetchedAt) >= minCertRefresh {
		// Google rotated its signing keys before our cached copy expired.
		if err := v.refresh(ctx); err != nil {
			return nil, err
		}
		k, ok = v.keys[kid]
	}
	if !ok {
		return nil, fmt.Errorf("unknown kid %q", kid)
	}
	return k, nil
}

// refresh must be called with mu held.
func (v *FirebaseVerifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.CertsURL, nil)
	if err != nil {
		return err
	}

	resp, err := v.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch session certs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch session certs: status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return fmt.Errorf("decode session certs: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, pem := range certs {
		k, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return fmt.Errorf("parse cert %s: %w", kid, err)
		}
		keys[kid] = k
	}

	v.keys = keys
	v.fetchedAt = v.Now()
	v.expiresAt = v.fetchedAt.Add(defaultCertTTL)
	return nil
}
