package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	maxNameLength        = 20
	maxSessionNameLength = 30
)

// reservedNames may not be used as participant names. They collide with
// roles and automation the clients special-case.
var reservedNames = map[string]struct{}{
	"admin":  {},
	"host":   {},
	"server": {},
	"bot":    {},
}

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("participant", func(fl validator.FieldLevel) bool {
			_, err := validateParticipantName(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("session", func(fl validator.FieldLevel) bool {
			_, err := validateSessionName(fl.Field().String())
			return err == nil
		})
	})
}

func validateParticipantName(name string) (string, error) {
	trimmed, err := validateText("name", name, maxNameLength)
	if err != nil {
		return "", err
	}
	if _, reserved := reservedNames[strings.ToLower(trimmed)]; reserved {
		return "", errors.New("name is reserved")
	}
	return trimmed, nil
}

func validateSessionName(name string) (string, error) {
	return validateText("session name", name, maxSessionNameLength)
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if len(trimmed) > maxLen {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxLen)
	}
	if !isSafeText(trimmed) {
		return "", fmt.Errorf("%s contains unsupported characters", label)
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

func isSafeText(text string) bool {
	for _, r := range text {
		if r > 127 {
			return false
		}
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		switch r {
		case ' ', '-', '_', '\'', '.':
			continue
		default:
			return false
		}
	}
	return true
}
