package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
)

const authCookieName = "auth"

func generateAuthToken(username, secretKey string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(username))
	signature := mac.Sum(nil)
	token := base64.StdEncoding.EncodeToString([]byte(username)) + "|" + base64.StdEncoding.EncodeToString(signature)
	return token
}

// parseAuthToken returns the username signed into token, or false when the signature does not match.
func parseAuthToken(token, secretKey string) (string, bool) {
	parts := strings.Split(token, "|")
	if len(parts) != 2 {
		return "", false
	}
	usernameBytes, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(usernameBytes) == 0 {
		return "", false
	}
	expectedMac, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", false
	}

	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write(usernameBytes)
	calculatedMac := mac.Sum(nil)

	if !hmac.Equal(expectedMac, calculatedMac) {
		return "", false
	}
	return string(usernameBytes), true
}

// authenticatedUser reads the token from the Authorization header or, failing that, the auth cookie.
func authenticatedUser(r *http.Request, secretKey string) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return "", false
		}
		return parseAuthToken(strings.TrimSpace(token), secretKey)
	}
	cookie, err := r.Cookie(authCookieName)
	if err != nil {
		return "", false
	}
	return parseAuthToken(cookie.Value, secretKey)
}
