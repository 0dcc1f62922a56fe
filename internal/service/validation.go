package service

import (
	"strings"
	"unicode/utf8"

	"github.com/maxviazov/afl-stats-service/internal/model"
)

const (
	maxNameLen = 100
	minSeason  = 1897
	maxSeason  = 2100
)

func normalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// checkName appends a field error for an empty or overlong name; the name must already be normalized.
func checkName(ferrs []FieldError, field, name string) []FieldError {
	if name == "" {
		return append(ferrs, FieldError{Field: field, Message: "must not be empty"})
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return append(ferrs, FieldError{Field: field, Message: "length must be <= 100"})
	}
	return ferrs
}

func isValidSeason(year int) bool {
	return year >= minSeason && year <= maxSeason
}

func isValidGameType(t string) bool {
	switch t {
	case "regular", "finals":
		return true
	default:
		return false
	}
}

func isValidSide(s model.Side) bool {
	return s == model.SideHome || s == model.SideAway
}

func isValidGameTime(t *string) bool {
	if t == nil {
		return true
	}
	s := *t
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	for _, c := range []byte{s[0], s[1], s[3], s[4]} {
		if c < '0' || c > '9' {
			return false
		}
	}
	return h < 24 && m < 60
}

func negative(v *int) bool { return v != nil && *v < 0 }
