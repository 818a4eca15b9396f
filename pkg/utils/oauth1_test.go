package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentEncode(t *testing.T) {
	assert.Equal(t, "Hello%20Ladies%20%2B%20Gentlemen%2C%20a%20signed%20OAuth%20request%21", PercentEncode("Hello Ladies + Gentlemen, a signed OAuth request!"))
	assert.Equal(t, "a-b_c.d~e", PercentEncode("a-b_c.d~e"))
	assert.Equal(t, "%2A", PercentEncode("*"))
}

func TestOAuth1Signature_KnownVector(t *testing.T) {
	params := map[string]string{
		"status":                 "Hello Ladies + Gentlemen, a signed OAuth request!",
		"include_entities":       "true",
		"oauth_consumer_key":     "xvz1evFS4wEEPTGEFPHBog",
		"oauth_nonce":            "kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg",
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        "1318622958",
		"oauth_token":            "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb",
		"oauth_version":          "1.0",
	}

	sig := OAuth1Signature("post", "https://api.twitter.com/1.1/statuses/update.json", params,
		"kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw", "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE")

	assert.Equal(t, "hCtSmYh+iHYCEqBWrE7C7hYmtUk=", sig)
}

func TestOAuth1Signer_FreshNoncePerCall(t *testing.T) {
	signer := NewOAuth1Signer(OAuth1Credentials{ConsumerKey: "ck", ConsumerSecret: "cs", Token: "t", TokenSecret: "ts"})
	signer.Now = func() time.Time { return time.Unix(1700000000, 0) }

	first, err := signer.AuthorizationHeader("POST", "https://api.x.com/2/tweets", nil)
	require.NoError(t, err)
	second, err := signer.AuthorizationHeader("POST", "https://api.x.com/2/tweets", nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first, "OAuth "))
	assert.Contains(t, first, `oauth_consumer_key="ck"`)
	assert.Contains(t, first, `oauth_timestamp="1700000000"`)
	assert.Contains(t, first, "oauth_signature=")
	assert.NotEqual(t, first, second)
}

func TestOAuth1Credentials_Complete(t *testing.T) {
	assert.True(t, OAuth1Credentials{"a", "b", "c", "d"}.Complete())
	assert.False(t, OAuth1Credentials{ConsumerKey: "a"}.Complete())
}

func TestGenerateNonce(t *testing.T) {
	n, err := GenerateNonce(16)
	require.NoError(t, err)
	assert.Len(t, n, 32)
}
