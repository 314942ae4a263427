package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func setupAuthRouter() *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  c.GetString("userID"),
			"group_id": c.GetString("groupID"),
		})
	})
	return r
}

func doAuthRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func signClaims(t *testing.T, claims *JWTClaims, key []byte) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("valid_token_sets_user_and_group", func(t *testing.T) {
		token, err := GenerateAccessToken("user-1", "group-1")
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}

		rec := doAuthRequest(setupAuthRouter(), "Bearer "+token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := parseBody(t, rec)
		if body["user_id"] != "user-1" {
			t.Errorf("expected user-1, got %v", body["user_id"])
		}
		if body["group_id"] != "group-1" {
			t.Errorf("expected group-1, got %v", body["group_id"])
		}
	})

	t.Run("missing_header", func(t *testing.T) {
		rec := doAuthRequest(setupAuthRouter(), "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertCode(t, parseBody(t, rec), "UNAUTHORIZED")
	})

	t.Run("wrong_scheme", func(t *testing.T) {
		rec := doAuthRequest(setupAuthRouter(), "Basic abc")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("garbage_token", func(t *testing.T) {
		rec := doAuthRequest(setupAuthRouter(), "Bearer not-a-jwt")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("wrong_signing_key", func(t *testing.T) {
		claims := &JWTClaims{
			UserID:    "user-1",
			GroupID:   "group-1",
			TokenType: "access",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
				Issuer:    tokenIssuer,
			},
		}
		token := signClaims(t, claims, []byte("someone-else"))

		rec := doAuthRequest(setupAuthRouter(), "Bearer "+token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("expired_token", func(t *testing.T) {
		claims := &JWTClaims{
			UserID:    "user-1",
			GroupID:   "group-1",
			TokenType: "access",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
				Issuer:    tokenIssuer,
			},
		}
		token := signClaims(t, claims, getJWTKey())

		rec := doAuthRequest(setupAuthRouter(), "Bearer "+token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("refresh_token_rejected", func(t *testing.T) {
		claims := &JWTClaims{
			UserID:    "user-1",
			GroupID:   "group-1",
			TokenType: "refresh",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
				Issuer:    tokenIssuer,
			},
		}
		token := signClaims(t, claims, getJWTKey())

		rec := doAuthRequest(setupAuthRouter(), "Bearer "+token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("token_without_group", func(t *testing.T) {
		token, err := GenerateAccessToken("user-1", "")
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}

		rec := doAuthRequest(setupAuthRouter(), "Bearer "+token)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertCode(t, parseBody(t, rec), "FORBIDDEN")
	})
}

func assertCode(t *testing.T, body map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", body)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
