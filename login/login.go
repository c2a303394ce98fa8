package login

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	mailer "stayguide-backend/email"
	"stayguide-backend/migrations"

	"github.com/gin-gonic/gin"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// blacklist for manual logout (tokens -> expiry). Not persisted; acceptable for MVP.
// Guarded by blacklistMu: logout writes race token parsing in concurrent handlers.
var (
	blacklistMu sync.Mutex
	blacklist   = map[string]int64{}
)

func blacklistToken(token string, exp int64) {
	blacklistMu.Lock()
	blacklist[token] = exp
	blacklistMu.Unlock()
}

func isBlacklisted(token string) bool {
	blacklistMu.Lock()
	exp, blk := blacklist[token]
	blacklistMu.Unlock()
	return blk && exp >= time.Now().Unix()
}

// tokenPayload minimal JWT-like payload
type tokenPayload struct {
	Email string `json:"email"`
	Exp   int64  `json:"exp"`
	Rem   bool   `json:"rem"`
	Jti   string `json:"jti"`
}

func sessionDuration(remember bool) time.Duration {
	defHours := 12
	if v := os.Getenv("SESSION_DEFAULT_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			defHours = n
		}
	}
	remDays := 30
	if v := os.Getenv("SESSION_REMEMBER_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			remDays = n
		}
	}
	if remember {
		return time.Hour * 24 * time.Duration(remDays)
	}
	return time.Hour * time.Duration(defHours)
}

func sessionSecret() []byte {
	s := os.Getenv("SESSION_SECRET")
	if s == "" {
		s = "dev-insecure-secret"
	}
	return []byte(s)
}

func signToken(email string, dur time.Duration, remember bool) (string, int64) {
	exp := time.Now().Add(dur).Unix()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payloadBytes, _ := json.Marshal(tokenPayload{Email: email, Exp: exp, Rem: remember, Jti: generateJTI()})
	payload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	mac := hmac.New(sha256.New, sessionSecret())
	mac.Write([]byte(header + "." + payload))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return header + "." + payload + "." + sig, exp
}

func parseToken(token string) (tokenPayload, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return tokenPayload{}, false
	}
	unsigned := parts[0] + "." + parts[1]
	mac := hmac.New(sha256.New, sessionSecret())
	mac.Write([]byte(unsigned))
	expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return tokenPayload{}, false
	}
	pb, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return tokenPayload{}, false
	}
	var tp tokenPayload
	if err := json.Unmarshal(pb, &tp); err != nil {
		return tokenPayload{}, false
	}
	if tp.Exp < time.Now().Unix() {
		return tokenPayload{}, false
	}
	if isBlacklisted(token) {
		return tokenPayload{}, false
	}
	return tp, true
}

func generateJTI() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return time.Now().Format("20060102150405")
	}
	return hex.EncodeToString(b)
}

// GetEmailFromToken validates signature + expiry and returns the email claim.
func GetEmailFromToken(token string) (string, bool) {
	tp, ok := parseToken(token)
	if !ok {
		return "", false
	}
	return tp.Email, true
}

// CurrentUserID resolves the calling user from the Authorization header.
// Handlers take this as their auth func.
func CurrentUserID(c *gin.Context) (int, bool) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		return 0, false
	}
	email, ok := GetEmailFromToken(token)
	if !ok {
		return 0, false
	}
	u := migrations.GetUserByEmail(email)
	if u == nil {
		return 0, false
	}
	return u.ID, true
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Handler authenticates a user and issues a session token.
func Handler(c *gin.Context) {
	var creds Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	creds.Email = strings.TrimSpace(strings.ToLower(creds.Email))
	creds.Password = strings.TrimSpace(creds.Password)

	user := migrations.GetUserByEmail(creds.Email)
	if user == nil || user.Password != hashPassword(creds.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	token, exp := signToken(user.Email, sessionDuration(creds.Remember), creds.Remember)
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": exp,
		"user": gin.H{
			"id":         user.ID,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"email":      user.Email,
		},
	})
}

type registerReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// RegisterHandler creates an account and fires the welcome email without
// blocking the response.
func RegisterHandler(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Password = strings.TrimSpace(req.Password)
	if req.Email == "" || req.Password == "" || req.FirstName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "first_name, email and password are required"})
		return
	}
	exists, err := migrations.EmailExists(req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	if exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
		return
	}
	id, err := migrations.CreateUser(req.FirstName, req.LastName, req.Email, hashPassword(req.Password), "user")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}
	go func(to, name string) {
		if err := mailer.SendWelcome(to, name); err != nil {
			log.Printf("[email] welcome to %s failed: %v", to, err)
		}
	}(req.Email, req.FirstName)
	token, exp := signToken(req.Email, sessionDuration(false), false)
	c.JSON(http.StatusCreated, gin.H{"token": token, "expires_at": exp, "user": gin.H{"id": id, "email": req.Email}})
}

// LogoutHandler blacklists the presented token until it expires on its own.
func LogoutHandler(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}
	if tp, ok := parseToken(token); ok {
		blacklistToken(token, tp.Exp)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
