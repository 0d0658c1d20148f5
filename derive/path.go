package derive

import (
	"strconv"
	"strings"
)

// ChildNumber is one path segment: an index plus whether it is hardened
// (trailing ').
type ChildNumber struct {
	Index    uint32
	Hardened bool
}

// HardenedStart is the first index of the hardened range (2^31), matching
// BIP-32's ChildNumber encoding.
const HardenedStart uint32 = 1 << 31

// ParsePath parses a path string of the form `m(/[0-9]+'?)*` into its
// ChildNumber segments. Any other token is ErrInvalidDerivationPath.
func ParsePath(path string) ([]ChildNumber, error) {
	segments := strings.Split(path, "/")
	if len(segments) == 0 || segments[0] != "m" {
		return nil, ErrInvalidDerivationPath
	}

	children := make([]ChildNumber, 0, len(segments)-1)
	for _, seg := range segments[1:] {
		if seg == "" {
			return nil, ErrInvalidDerivationPath
		}

		hardened := false
		numPart := seg
		if strings.HasSuffix(seg, "'") {
			hardened = true
			numPart = strings.TrimSuffix(seg, "'")
		}

		idx, err := strconv.ParseUint(numPart, 10, 32)
		if err != nil {
			return nil, ErrInvalidDerivationPath
		}

		children = append(children, ChildNumber{Index: uint32(idx), Hardened: hardened})
	}

	return children, nil
}

// AccountPath returns the BIP-44 account-level prefix of path: the first
// three child numbers (purpose'/coin_type'/account'), re-rendered as a path
// string. Used to compute the keystore's cache key depth.
func AccountPath(path string) (string, error) {
	children, err := ParsePath(path)
	if err != nil {
		return "", err
	}
	if len(children) < 3 {
		return "", ErrInvalidDerivationPath
	}
	return renderPath(children[:3]), nil
}

func renderPath(children []ChildNumber) string {
	var b strings.Builder
	b.WriteString("m")
	for _, c := range children {
		b.WriteString("/")
		b.WriteString(strconv.FormatUint(uint64(c.Index), 10))
		if c.Hardened {
			b.WriteString("'")
		}
	}
	return b.String()
}
