package shorten

import (
	"math/rand"
	"regexp"
	"strings"
)

const aliasAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// AliasLength is the length of generated short ids. Seven characters over a
// 62-symbol alphabet keeps collisions rare enough for a bounded retry loop.
const AliasLength = 7

var aliasRe = regexp.MustCompile(`^[A-Za-z0-9_-]{3,64}$`)

// Aliases that would shadow the service's own routes.
var reservedAliases = map[string]struct{}{
	"api":         {},
	"info":        {},
	"analytics":   {},
	"generate":    {},
	"resolve":     {},
	"health":      {},
	"favicon.ico": {},
}

// NewAlias returns a fresh random candidate. Uniqueness is the store's job;
// callers retry on conflict.
func NewAlias() string {
	alias := make([]byte, AliasLength)
	for i := range alias {
		alias[i] = aliasAlphabet[rand.Intn(len(aliasAlphabet))]
	}
	return string(alias)
}

// ValidAlias reports whether s is acceptable as a custom alias.
func ValidAlias(s string) bool {
	return aliasRe.MatchString(s)
}

// Reserved reports whether s collides with one of the service's own paths.
// The check is case-insensitive.
func Reserved(s string) bool {
	_, ok := reservedAliases[strings.ToLower(s)]
	return ok
}

// Alphabet exposes the generation alphabet for tests.
func Alphabet() string { return aliasAlphabet }
