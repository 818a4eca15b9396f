package utils

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

type OAuth1Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	Token          string
	TokenSecret    string
}

func (c OAuth1Credentials) Complete() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" && c.Token != "" && c.TokenSecret != ""
}

// PercentEncode escapes s per RFC 3986 as OAuth 1.0a requires.
func PercentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// OAuth1Signature computes the HMAC-SHA1 signature over method, URL and the
// sorted parameter string.
func OAuth1Signature(method, rawURL string, params map[string]string, consumerSecret, tokenSecret string) string {
	encoded := make([]string, 0, len(params))
	for k, v := range params {
		encoded = append(encoded, PercentEncode(k)+"="+PercentEncode(v))
	}
	sort.Strings(encoded)

	base := strings.ToUpper(method) + "&" + PercentEncode(rawURL) + "&" + PercentEncode(strings.Join(encoded, "&"))
	key := PercentEncode(consumerSecret) + "&" + PercentEncode(tokenSecret)

	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type OAuth1Signer struct {
	Credentials OAuth1Credentials
	Now         func() time.Time
	Nonce       func() (string, error)
}

func NewOAuth1Signer(creds OAuth1Credentials) *OAuth1Signer {
	return &OAuth1Signer{
		Credentials: creds,
		Now:         time.Now,
		Nonce:       func() (string, error) { return GenerateNonce(16) },
	}
}

// AuthorizationHeader builds a fresh header for one request. Extra holds
// form parameters that are part of the signature base.
func (s *OAuth1Signer) AuthorizationHeader(method, rawURL string, extra map[string]string) (string, error) {
	nonce, err := s.Nonce()
	if err != nil {
		return "", err
	}

	oauthParams := map[string]string{
		"oauth_consumer_key":     s.Credentials.ConsumerKey,
		"oauth_nonce":            nonce,
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        strconv.FormatInt(s.Now().Unix(), 10),
		"oauth_token":            s.Credentials.Token,
		"oauth_version":          "1.0",
	}

	all := make(map[string]string, len(oauthParams)+len(extra))
	for k, v := range oauthParams {
		all[k] = v
	}
	for k, v := range extra {
		all[k] = v
	}
	oauthParams["oauth_signature"] = OAuth1Signature(method, rawURL, all, s.Credentials.ConsumerSecret, s.Credentials.TokenSecret)

	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, PercentEncode(k)+`="`+PercentEncode(oauthParams[k])+`"`)
	}
	return "OAuth " + strings.Join(parts, ", "), nil
}
