package bitcoin

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Bitcoin Wiki's Base58Check worked example: RIPEMD160(SHA256(pubkey)) for
// the compressed public key of private key 1.
func TestHash160(t *testing.T) {
	pub, err := hex.DecodeString("0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	require.NoError(t, err)

	got := Hash160(pub)
	assert.Equal(t, "751e76e8199196d454941c45d1b3a323f1433bd6", hex.EncodeToString(got))
}
