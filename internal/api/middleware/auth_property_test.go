package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Requests with the valid API key pass; requests with a missing, empty or
// wrong key are rejected with 401.
func TestProperty_APIKeyAuthenticationValidity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	tempDir, err := os.MkdirTemp("", "auth_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	apiKeyManager, err := NewAPIKeyManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create API key manager: %v", err)
	}

	validKey := apiKeyManager.GetCurrentKey()

	newRouter := func() *gin.Engine {
		router := gin.New()
		router.Use(APIKeyMiddleware(apiKeyManager))
		router.GET("/test", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		return router
	}

	properties.Property("valid_api_key_accepted", prop.ForAll(
		func(_ int) bool {
			req, _ := http.NewRequest("GET", "/test", nil)
			req.Header.Set(APIKeyHeader, validKey)

			w := httptest.NewRecorder()
			newRouter().ServeHTTP(w, req)
			return w.Code == http.StatusOK
		},
		gen.Int(),
	))

	properties.Property("missing_api_key_rejected", prop.ForAll(
		func(_ int) bool {
			req, _ := http.NewRequest("GET", "/test", nil)

			w := httptest.NewRecorder()
			newRouter().ServeHTTP(w, req)
			return w.Code == http.StatusUnauthorized
		},
		gen.Int(),
	))

	properties.Property("invalid_api_key_rejected", prop.ForAll(
		func(invalidKey string) bool {
			if invalidKey == validKey || invalidKey == "" {
				return true
			}

			req, _ := http.NewRequest("GET", "/test", nil)
			req.Header.Set(APIKeyHeader, invalidKey)

			w := httptest.NewRecorder()
			newRouter().ServeHTTP(w, req)
			return w.Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// Tokens issued by the manager validate back to the same username; tampered
// or foreign-key tokens are rejected.
func TestProperty_JWTRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	manager := NewJWTManager("test-secret", time.Hour)
	otherManager := NewJWTManager("different-secret", time.Hour)

	properties.Property("issued_token_validates_to_same_username", prop.ForAll(
		func(username string) bool {
			if username == "" {
				return true
			}

			token, expiresAt, err := manager.GenerateToken(username)
			if err != nil {
				return false
			}
			if expiresAt <= time.Now().Unix() {
				return false
			}

			claims, err := manager.ValidateToken(token)
			if err != nil {
				return false
			}
			return claims.Username == username
		},
		gen.AlphaString(),
	))

	properties.Property("token_with_wrong_secret_rejected", prop.ForAll(
		func(username string) bool {
			if username == "" {
				return true
			}

			token, _, err := otherManager.GenerateToken(username)
			if err != nil {
				return false
			}

			_, err = manager.ValidateToken(token)
			return err == ErrInvalidToken
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute)

	token, _, err := manager.GenerateToken("admin")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	_, err = manager.ValidateToken(token)
	if err != ErrTokenExpired {
		t.Fatalf("Expected ErrTokenExpired, got %v", err)
	}
}

func TestAPIKeyManager_ResetInvalidatesOldKey(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "auth_reset_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	manager, err := NewAPIKeyManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create API key manager: %v", err)
	}

	oldKey := manager.GetCurrentKey()
	newKey, err := manager.ResetKey()
	if err != nil {
		t.Fatalf("Failed to reset key: %v", err)
	}

	if oldKey == newKey {
		t.Fatal("Reset must produce a different key")
	}
	if manager.ValidateKey(oldKey) {
		t.Fatal("Old key must be invalid after reset")
	}
	if !manager.ValidateKey(newKey) {
		t.Fatal("New key must validate")
	}
}

func TestAPIKeyManager_KeyPersistsAcrossRestarts(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "auth_persist_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	first, err := NewAPIKeyManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create API key manager: %v", err)
	}

	second, err := NewAPIKeyManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to recreate API key manager: %v", err)
	}

	if first.GetCurrentKey() != second.GetCurrentKey() {
		t.Fatal("Key must persist across restarts")
	}
}
