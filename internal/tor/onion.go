package tor

import (
	"encoding/base32"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// OnionSuffix is the top-level domain of hidden services.
	OnionSuffix = ".onion"

	onionV3Version   = 0x03
	onionV3KeyLength = 32
)

var (
	onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)
	onionV2Pattern = regexp.MustCompile(`^[a-z2-7]{16}\.onion$`)
)

var checksumPrefix = []byte(".onion checksum")

// IsOnionHost reports whether host is in the .onion domain.
func IsOnionHost(host string) bool {
	return strings.HasSuffix(strings.ToLower(host), OnionSuffix)
}

// ValidateHost checks an onion host before it is crawled. Subdomains of an
// onion service ("www.<addr>.onion") are accepted.
func ValidateHost(host string) error {
	host = strings.ToLower(host)
	if !IsOnionHost(host) {
		return nil
	}

	labels := strings.Split(strings.TrimSuffix(host, OnionSuffix), ".")
	addr := labels[len(labels)-1] + OnionSuffix
	switch {
	case onionV2Pattern.MatchString(addr):
		return fmt.Errorf("%w: %s", ErrOnionV2Deprecated, host)
	case !IsValidV3Address(addr):
		return fmt.Errorf("%w: %s", ErrInvalidOnionAddress, host)
	default:
		return nil
	}
}

// IsValidV3Address verifies the format, version byte and checksum of a v3
// onion address such as "<56 chars>.onion".
func IsValidV3Address(address string) bool {
	address = strings.ToLower(address)
	if !onionV3Pattern.MatchString(address) {
		return false
	}

	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(strings.TrimSuffix(address, OnionSuffix)))
	if err != nil || len(decoded) != onionV3KeyLength+3 {
		return false
	}

	pubkey := decoded[:onionV3KeyLength]
	checksum := decoded[onionV3KeyLength : onionV3KeyLength+2]
	version := decoded[onionV3KeyLength+2]
	if version != onionV3Version {
		return false
	}

	want := v3Checksum(pubkey, version)
	return checksum[0] == want[0] && checksum[1] == want[1]
}

// V3Address derives the onion address of an ed25519 public key.
func V3Address(pubkey []byte) (string, error) {
	if len(pubkey) != onionV3KeyLength {
		return "", fmt.Errorf("public key must be %d bytes, got %d", onionV3KeyLength, len(pubkey))
	}

	raw := make([]byte, 0, onionV3KeyLength+3)
	raw = append(raw, pubkey...)
	raw = append(raw, v3Checksum(pubkey, onionV3Version)...)
	raw = append(raw, onionV3Version)
	return strings.ToLower(base32.StdEncoding.EncodeToString(raw)) + OnionSuffix, nil
}

// v3Checksum is the first two bytes of
// SHA3-256(".onion checksum" || pubkey || version).
func v3Checksum(pubkey []byte, version byte) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)
	sum := sha3.Sum256(data)
	return sum[:2]
}
