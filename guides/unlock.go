package guides

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"os"
	"strings"
	"time"
)

// Unlock tokens are session-scoped proofs that a traveler entered the right
// code for one specific guide. They are never valid for another guide.

type unlockClaims struct {
	GuideID string `json:"gid"`
	Exp     int64  `json:"exp"`
}

func unlockSecret() []byte {
	s := os.Getenv("UNLOCK_SECRET")
	if s == "" {
		s = os.Getenv("SESSION_SECRET")
	}
	if s == "" {
		s = "dev-insecure-secret"
	}
	return []byte(s)
}

func unlockTTL() time.Duration {
	return 24 * time.Hour
}

// SignUnlockToken issues a token bound to guideID.
func SignUnlockToken(guideID string) string {
	payload, _ := json.Marshal(unlockClaims{GuideID: guideID, Exp: time.Now().Add(unlockTTL()).Unix()})
	body := base64.RawURLEncoding.EncodeToString(payload)
	mac := hmac.New(sha256.New, unlockSecret())
	mac.Write([]byte(body))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return body + "." + sig
}

// VerifyUnlockToken reports whether token is a live unlock proof for guideID.
func VerifyUnlockToken(token, guideID string) bool {
	dot := strings.IndexByte(token, '.')
	if dot <= 0 {
		return false
	}
	body, sigPart := token[:dot], token[dot+1:]
	mac := hmac.New(sha256.New, unlockSecret())
	mac.Write([]byte(body))
	expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(sigPart)) {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return false
	}
	var claims unlockClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return false
	}
	if claims.Exp < time.Now().Unix() {
		return false
	}
	return claims.GuideID == guideID
}
