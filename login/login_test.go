package login

import (
	"sync"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, exp := signToken("host@example.com", time.Hour, false)
	if exp <= time.Now().Unix() {
		t.Fatal("expiry in the past")
	}
	email, ok := GetEmailFromToken(token)
	if !ok || email != "host@example.com" {
		t.Fatalf("got %q ok=%v", email, ok)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	token, _ := signToken("host@example.com", time.Hour, false)
	if _, ok := GetEmailFromToken(token + "x"); ok {
		t.Fatal("tampered signature accepted")
	}
	if _, ok := GetEmailFromToken("a.b"); ok {
		t.Fatal("malformed token accepted")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, _ := signToken("host@example.com", -time.Minute, false)
	if _, ok := GetEmailFromToken(token); ok {
		t.Fatal("expired token accepted")
	}
}

func TestBlacklistedTokenRejected(t *testing.T) {
	token, _ := signToken("host@example.com", time.Hour, false)
	tp, ok := parseToken(token)
	if !ok {
		t.Fatal("fresh token should parse")
	}
	blacklistToken(token, tp.Exp)
	defer func() {
		blacklistMu.Lock()
		delete(blacklist, token)
		blacklistMu.Unlock()
	}()
	if _, ok := GetEmailFromToken(token); ok {
		t.Fatal("blacklisted token accepted")
	}
}

func TestBlacklistConcurrentAccess(t *testing.T) {
	token, _ := signToken("host@example.com", time.Hour, false)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			blacklistToken(token, time.Now().Add(time.Hour).Unix())
		}()
		go func() {
			defer wg.Done()
			parseToken(token)
		}()
	}
	wg.Wait()
	if !isBlacklisted(token) {
		t.Fatal("token should end up blacklisted")
	}
	blacklistMu.Lock()
	delete(blacklist, token)
	blacklistMu.Unlock()
}

func TestHashPasswordStable(t *testing.T) {
	if hashPassword("s3cret") != hashPassword("s3cret") {
		t.Fatal("hash must be deterministic")
	}
	if hashPassword("s3cret") == hashPassword("other") {
		t.Fatal("distinct passwords collided")
	}
}
