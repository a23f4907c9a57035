// Package naming provides name validation and generation of provider-side
// resource names (server names, labels) shared by the provider drivers.
package naming

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// defaultLength defines the hex length of hashes (bits ~ length * 4).
	defaultLength = 6

	// SuffixLength is the length of the unique part of a server name.
	SuffixLength = timeDigits + randDigits

	timeDigits = 7
	randDigits = 5
	maxSeconds = 78364164096 // 36^7
	randSpace  = 60466176    // 36^5
)

// ShortHash returns the hex SHA1 prefix of length n (clamped to digest size).
func ShortHash(s string, n int) string {
	sum := sha1.Sum([]byte(s))
	h := fmt.Sprintf("%x", sum)
	if n > len(h) {
		n = len(h)
	}
	return h[:n]
}

// OwnerHash returns a short stable hash for an owner ID, used as a label value
// so that renamed owners still match their servers.
func OwnerHash(ownerID string) string {
	return ShortHash(ownerID, defaultLength)
}

// NewSuffix returns a lowercase base36 string of SuffixLength characters:
// the current Unix second followed by random digits. Suffixes made in later
// seconds sort after earlier ones.
func NewSuffix() (string, error) {
	return suffixAt(time.Now())
}

func suffixAt(t time.Time) (string, error) {
	sec := t.Unix()
	if sec < 0 || sec >= maxSeconds {
		return "", fmt.Errorf("time %s out of suffix range", t.UTC().Format(time.RFC3339))
	}
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	r := binary.BigEndian.Uint32(b[:]) % randSpace
	return pad36(uint64(sec), timeDigits) + pad36(uint64(r), randDigits), nil
}

func pad36(v uint64, width int) string {
	s := strconv.FormatUint(v, 36)
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}

// ServerName returns a fresh provider-side name "<kind>-<name>-<suffix>".
func ServerName(kind, name string) (string, error) {
	id, err := NewSuffix()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s", kind, name, id), nil
}
