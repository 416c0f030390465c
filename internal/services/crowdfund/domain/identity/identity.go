// Package identity defines the principal identifiers shared by campaign
// owners, donors, asset admins, assets and the engine's escrow account.
package identity

import (
	"strings"
	"unicode"

	apperrors "github.com/Yochiyuu/stellar-crowdFunding/internal/platform/errors"
)

// maxLength bounds identifiers to the size of a Stellar strkey with room to spare.
const maxLength = 128

// ErrInvalid indicates an empty or malformed identity.
var ErrInvalid = apperrors.New(apperrors.CodeInvalidIdentity, "identity is invalid")

// ID is an authenticatable principal.
type ID string

// Parse trims and validates an identity.
func Parse(value string) (ID, error) {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > maxLength {
		return "", ErrInvalid
	}
	for _, r := range value {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return "", ErrInvalid
		}
	}
	return ID(value), nil
}

// MustParse is Parse for constants and tests; it panics on invalid input.
func MustParse(value string) ID {
	id, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the identity text.
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the identity is unset.
func (id ID) IsZero() bool {
	return id == ""
}
