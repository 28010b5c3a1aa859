package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

const (
	MaxRoomCodeLength = 16
	MaxNameLength     = 24
)

var (
	ErrEmptyRoomCode = errors.New("room code is required")
	ErrEmptyName     = errors.New("nickname is required")
)

// NormalizeRoomCode makes codes case-insensitive: "abcd " and "ABCD" are the same room.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func ValidateRoomCode(code string) error {
	if code == "" {
		return ErrEmptyRoomCode
	}
	if utf8.RuneCountInString(code) > MaxRoomCodeLength {
		return fmt.Errorf("room code longer than %d characters", MaxRoomCodeLength)
	}
	for _, r := range code {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return fmt.Errorf("room code contains %q", r)
		}
	}
	return nil
}

func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

func ValidateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("nickname longer than %d characters", MaxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return errors.New("nickname contains control characters")
		}
	}
	return nil
}

// ParseLimit reads a positive page size from a query value, falling back to def and capping
// at maxLimit.
func ParseLimit(raw string, def, maxLimit int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return min(n, maxLimit)
}
