// Package roomcode generates and validates the six-character codes
// players type to join a room.
package roomcode

import (
	"errors"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MinSeed is 36^5, the smallest value that renders as six base-36
	// digits.
	MinSeed = 60466176
	// MaxSeed caps the seed space. Every value up to here still fits in
	// six digits (36^6-1 is larger).
	MaxSeed = math.MaxInt32

	// Length of every room code.
	Length = 6
)

// ErrSeedOutOfRange reports a seed outside [MinSeed, MaxSeed]. Callers
// draw seeds via Random, so hitting this is a programmer error.
var ErrSeedOutOfRange = errors.New("room code seed out of range")

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// Generate renders seed as an uppercase base-36 string. The valid seed
// range guarantees exactly six characters.
func Generate(seed int) (string, error) {
	if seed < MinSeed || seed > MaxSeed {
		return "", ErrSeedOutOfRange
	}
	return strings.ToUpper(strconv.FormatInt(int64(seed), 36)), nil
}

// Random generates a code from a uniformly random seed in the valid
// range.
func Random() string {
	seed := MinSeed + rand.Intn(MaxSeed-MinSeed+1)
	code, err := Generate(seed)
	if err != nil {
		// Unreachable: the seed above is always in range.
		panic(err)
	}
	return code
}

// IsValid reports whether code is exactly six uppercase base-36 digits
// with a numeric value of at least MinSeed. Strings like "00000Z" match
// the character pattern but decode below the floor, are unreachable by
// Random, and are rejected.
func IsValid(code string) bool {
	if !codePattern.MatchString(code) {
		return false
	}
	v, err := strconv.ParseInt(code, 36, 64)
	if err != nil {
		return false
	}
	return v >= MinSeed
}
