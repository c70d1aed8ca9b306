package verifier

import (
	"crypto/rsa"
	"encoding/base64"
	"math/big"

	"github.com/pkg/errors"
)

// parseRSAPublicKey decodes a JWKS RSA key entry's base64url-encoded
// modulus/exponent into an *rsa.PublicKey.
func parseRSAPublicKey(k jwksKey) (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, errors.Errorf("unsupported key type %q", k.Kty)
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, errors.Wrap(err, "decode modulus")
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, errors.Wrap(err, "decode exponent")
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)

	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}
