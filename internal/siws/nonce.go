package siws

import (
	"github.com/pkg/errors"
	"github.com/sethvargo/go-password/password"
)

const (
	// 14 letters from 52 plus 6 digits at random positions is a little over
	// 114 bits.
	nonceLength = 20
	nonceDigits = 6
)

// GenerateNonce returns a random alphanumeric nonce with at least 96 bits of
// entropy, drawn from crypto/rand.
func GenerateNonce() (string, error) {
	nonce, err := password.Generate(nonceLength, nonceDigits, 0, false, true)
	if err != nil {
		return "", errors.Wrap(err, "siws: unable to generate nonce")
	}

	return nonce, nil
}
