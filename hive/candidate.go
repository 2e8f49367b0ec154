// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package hive

import (
	"encoding/hex"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"

	"github.com/vechain/hive/cache"
)

// CandidateLength is the length of a compressed secp256k1 public key.
const CandidateLength = secp256k1.PubKeyBytesLenCompressed

// Candidate is the fixed-width key of a vote candidate.
type Candidate [CandidateLength]byte

// validCandidates remembers keys that already passed curve validation.
var validCandidates, _ = cache.NewLRU(1024)

// String implements stringer
func (c Candidate) String() string {
	return "0x" + hex.EncodeToString(c[:])
}

// Bytes returns byte slice form of the candidate key.
func (c Candidate) Bytes() []byte {
	return c[:]
}

// IsZero returns if the key has all zero bytes.
func (c Candidate) IsZero() bool {
	return c == Candidate{}
}

// Validate checks the key is a compressed point on the secp256k1 curve.
func (c Candidate) Validate() error {
	if c.IsZero() {
		return errors.New("zero candidate key")
	}
	if c[0] != secp256k1.PubKeyFormatCompressedEven && c[0] != secp256k1.PubKeyFormatCompressedOdd {
		return errors.New("candidate key is not compressed")
	}
	if _, ok := validCandidates.Get(c); ok {
		return nil
	}
	if _, err := secp256k1.ParsePubKey(c[:]); err != nil {
		return errors.WithMessage(err, "candidate key")
	}
	validCandidates.Add(c, struct{}{})
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Candidate) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Candidate) UnmarshalText(text []byte) error {
	parsed, err := ParseCandidate(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCandidate decodes a hex encoded compressed key. The key is not validated.
func ParseCandidate(s string) (Candidate, error) {
	if len(s) == CandidateLength*2+2 {
		if strings.ToLower(s[:2]) != "0x" {
			return Candidate{}, errors.New("invalid prefix")
		}
		s = s[2:]
	} else if len(s) != CandidateLength*2 {
		return Candidate{}, errors.New("invalid length")
	}

	var c Candidate
	if _, err := hex.Decode(c[:], []byte(s)); err != nil {
		return Candidate{}, err
	}
	return c, nil
}

// CandidateFromPubKey returns the candidate key of the given public key.
func CandidateFromPubKey(pub *secp256k1.PublicKey) (c Candidate) {
	copy(c[:], pub.SerializeCompressed())
	return
}
