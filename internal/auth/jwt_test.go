package auth

import (
	"testing"
	"time"
)

func TestTokens_PairVerifyRefresh(t *testing.T) {
	tk := NewTokens("secret", time.Hour, 24*time.Hour)

	access, refresh, err := tk.Pair("user-1")
	if err != nil {
		t.Fatalf("Pair: %v", err)
	}
	c, err := tk.Verify(access)
	if err != nil {
		t.Fatalf("Verify access: %v", err)
	}
	if c.Subject != "user-1" || c.TokenType != TokenAccess || c.TokenID == "" {
		t.Errorf("unexpected access claims %+v", c)
	}

	rc, err := tk.Verify(refresh)
	if err != nil || rc.TokenType != TokenRefresh {
		t.Fatalf("Verify refresh: %+v %v", rc, err)
	}

	fresh, err := tk.Refresh(refresh)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	fc, err := tk.Verify(fresh)
	if err != nil || fc.TokenType != TokenAccess || fc.Subject != "user-1" {
		t.Errorf("refreshed token: %+v %v", fc, err)
	}

	if _, err := tk.Refresh(access); err != ErrInvalidToken {
		t.Errorf("access token must not refresh, got %v", err)
	}
}

func TestTokens_Expiry(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tk := NewTokens("secret", time.Minute, time.Hour)
	tk.now = func() time.Time { return base }

	access, refresh, err := tk.Pair("u")
	if err != nil {
		t.Fatalf("Pair: %v", err)
	}

	tk.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := tk.Verify(access); err != ErrInvalidToken {
		t.Errorf("expected expired access token rejected, got %v", err)
	}
	if _, err := tk.Refresh(refresh); err != nil {
		t.Errorf("refresh token should still be valid: %v", err)
	}

	tk.now = func() time.Time { return base.Add(2 * time.Hour) }
	if _, err := tk.Refresh(refresh); err != ErrInvalidToken {
		t.Errorf("expected expired refresh token rejected, got %v", err)
	}
}

func TestTokens_RejectsForeignOrTampered(t *testing.T) {
	tk := NewTokens("secret", time.Hour, time.Hour)
	other := NewTokens("other", time.Hour, time.Hour)

	access, _, err := other.Pair("u")
	if err != nil {
		t.Fatalf("Pair: %v", err)
	}
	if _, err := tk.Verify(access); err != ErrInvalidToken {
		t.Errorf("expected token signed with another secret rejected, got %v", err)
	}

	own, _, _ := tk.Pair("u")
	tampered := own[:len(own)-2] + "xx"
	if tampered == own {
		tampered = own[:len(own)-2] + "yy"
	}
	for _, bad := range []string{"", "garbage", tampered} {
		if _, err := tk.Verify(bad); err != ErrInvalidToken {
			t.Errorf("Verify(%q): expected ErrInvalidToken, got %v", bad, err)
		}
	}
}
