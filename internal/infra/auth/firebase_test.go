package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProject = "ligue-test"

type testKeys struct {
	priv    *rsa.PrivateKey
	server  *httptest.Server
	fetches atomic.Int32

	mu  sync.Mutex
	kid string
}

// rotate changes the key id the cert endpoint publishes.
func (k *testKeys) rotate(kid string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.kid = kid
}

func newTestKeys(t *testing.T) *testKeys {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "session-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	k := &testKeys{priv: priv, kid: "kid-1"}
	k.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		k.fetches.Add(1)
		k.mu.Lock()
		kid := k.kid
		k.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{kid: string(certPEM)})
	}))
	t.Cleanup(k.server.Close)
	return k
}

func (k *testKeys) sign(t *testing.T, kid string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	s, err := token.SignedString(k.priv)
	require.NoError(t, err)
	return s
}

func validClaims() jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Issuer:    "https://session.firebase.google.com/" + testProject,
		Audience:  jwt.ClaimStrings{testProject},
		Subject:   "uid-123",
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
}

func TestFirebaseVerifier_Valid(t *testing.T) {
	keys := newTestKeys(t)
	v := NewFirebaseVerifier(testProject, keys.server.URL)

	uid, err := v.Verify(t.Context(), keys.sign(t, "kid-1", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "uid-123", uid)

	_, err = v.Verify(t.Context(), keys.sign(t, "kid-1", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, int32(1), keys.fetches.Load(), "certs are cached")
}

func TestFirebaseVerifier_Rejects(t *testing.T) {
	keys := newTestKeys(t)
	v := NewFirebaseVerifier(testProject, keys.server.URL)

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "https://securetoken.google.com/" + testProject

	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"other"}

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noSubject := validClaims()
	noSubject.Subject = ""

	cases := map[string]string{
		"empty":          "",
		"garbage":        "not-a-jwt",
		"unknown kid":    keys.sign(t, "kid-2", validClaims()),
		"wrong issuer":   keys.sign(t, "kid-1", wrongIssuer),
		"wrong audience": keys.sign(t, "kid-1", wrongAudience),
		"expired":        keys.sign(t, "kid-1", expired),
		"no subject":     keys.sign(t, "kid-1", noSubject),
	}

	for name, cookie := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(t.Context(), cookie)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}
}

func TestFirebaseVerifier_RejectsHMAC(t *testing.T) {
	keys := newTestKeys(t)
	v := NewFirebaseVerifier(testProject, keys.server.URL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
	token.Header["kid"] = "kid-1"
	s, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = v.Verify(t.Context(), s)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestFirebaseVerifier_RefreshesAfterTTL(t *testing.T) {
	keys := newTestKeys(t)
	v := NewFirebaseVerifier(testProject, keys.server.URL)

	now := time.Now()
	v.Now = func() time.Time { return now }

	_, err := v.Verify(t.Context(), keys.sign(t, "kid-1", validClaims()))
	require.NoError(t, err)

	now = now.Add(defaultCertTTL + time.Second)
	claims := validClaims()
	claims.IssuedAt = jwt.NewNumericDate(now.Add(-time.Minute))
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Hour))

	_, err = v.Verify(t.Context(), keys.sign(t, "kid-1", claims))
	require.NoError(t, err)
	assert.Equal(t, int32(2), keys.fetches.Load())
}

func TestFirebaseVerifier_RefetchesOnRotatedKid(t *testing.T) {
	keys := newTestKeys(t)
	v := NewFirebaseVerifier(testProject, keys.server.URL)

	now := time.Now()
	v.Now = func() time.Time { return now }

	_, err := v.Verify(t.Context(), keys.sign(t, "kid-1", validClaims()))
	require.NoError(t, err)

	keys.rotate("kid-2")
	now = now.Add(2 * minCertRefresh)

	uid, err := v.Verify(t.Context(), keys.sign(t, "kid-2", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "uid-123", uid)
	assert.Equal(t, int32(2), keys.fetches.Load())
}

func TestFirebaseVerifier_UnknownKidRefetchIsBounded(t *testing.T) {
	keys := newTestKeys(t)
	v := NewFirebaseVerifier(testProject, keys.server.URL)

	for range 3 {
		_, err := v.Verify(t.Context(), keys.sign(t, "kid-9", validClaims()))
		assert.ErrorIs(t, err, ErrInvalidSession)
	}
	assert.Equal(t, int32(1), keys.fetches.Load())
}
