package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	manager := NewJWTManager("test-secret-key-at-least-32-bytes!!", time.Hour)

	token, err := manager.Generate("user-42")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "user-42" {
		t.Errorf("got user id %q, want user-42", claims.UserID)
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	manager := NewJWTManager("test-secret-key-at-least-32-bytes!!", -time.Minute)

	token, err := manager.Generate("user-42")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	manager := NewJWTManager("test-secret-key-at-least-32-bytes!!", time.Hour)
	other := NewJWTManager("a-different-secret-key-entirely!!!!", time.Hour)

	token, err := manager.Generate("user-42")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	manager := NewJWTManager("test-secret-key-at-least-32-bytes!!", time.Hour)
	if _, err := manager.Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}
