// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package internal handles all core xOPRF functionalities.
package internal

import (
	"errors"
	"fmt"

	"github.com/bytemare/ecc"
	"github.com/bytemare/hash"
)

// Mode distinguishes execution between the OPRF base, VOPRF, and POPRF modes.
type Mode byte

const (
	// OPRF identifies the base mode.
	OPRF Mode = iota

	// VOPRF identifies the verifiable mode.
	VOPRF

	// POPRF identifies the partially-oblivious mode.
	POPRF
)

const (
	// Version is a string explicitly stating the Version name.
	Version = "OPRFV1"

	hash2groupDSTPrefix  = "HashToGroup-"
	hash2scalarDSTPrefix = "HashToScalar-"
	dstSeed              = "Seed-"
	contextStringPrefix  = Version + "-"
	dstFinalize          = "Finalize"
	dstInfo              = "Info"
	deriveKeyPairDST     = "DeriveKeyPair"
)

var (
	// CiphersuiteIdentifier maps a group to its [RFC9497](https://datatracker.ietf.org/doc/rfc9497) compliant
	// identifier.
	CiphersuiteIdentifier = map[ecc.Group]string{
		ecc.Ristretto255Sha512: "ristretto255-SHA512",
		ecc.P256Sha256:         "P256-SHA256",
		ecc.P384Sha384:         "P384-SHA384",
		ecc.P521Sha512:         "P521-SHA512",
		ecc.Secp256k1Sha256:    "secp256k1-SHA256",
	}

	// CiphersuiteHash maps a group to the hash function of its ciphersuite.
	CiphersuiteHash = map[ecc.Group]hash.Hash{
		ecc.Ristretto255Sha512: hash.SHA512,
		ecc.P256Sha256:         hash.SHA256,
		ecc.P384Sha384:         hash.SHA384,
		ecc.P521Sha512:         hash.SHA512,
		ecc.Secp256k1Sha256:    hash.SHA256,
	}

	errInvalidInput = errors.New(
		"invalid input - OPRF input deterministically maps to the group identity element",
	)
	errInvalidEvaluated = errors.New(
		"invalid evaluation - unblinding yields the group identity element",
	)
	errInvalidPOPRFPrivateKey = errors.New(
		"invalid input - POPRF private key tweaking yields the zero scalar",
	)
	errInvalidPOPRFPubKey = errors.New(
		"invalid input - POPRF public key tweaking yields the group identity element",
	)
	errDeriveKeyFailed = errors.New(
		"key derivation failed - no non-zero scalar found in the counter space",
	)
	errInputLength = errors.New("invalid input - longer than 65535 bytes")
	errInfoLength  = errors.New("invalid info - longer than 65535 bytes")
)

// mapper covers the hash-to-group and hash-to-scalar maps of the group contract. ecc.Group implements it.
type mapper interface {
	HashToGroup(input, dst []byte) *ecc.Element
	HashToScalar(input, dst []byte) *ecc.Scalar
}

// A Core holds the cryptographic configuration and methods used for xOPRF operations.
type Core struct {
	Hash      hash.Hasher
	mapper    mapper
	dstH2gDST []byte
	dstH2sDST []byte
	Group     ecc.Group
	Mode      Mode
}

// ContextString builds the xOPRF constant string used for domain separation tags.
func ContextString(mode Mode, name string) []byte {
	return []byte(contextStringPrefix + string(mode) + "-" + name)
}

func makeCore(g ecc.Group, h hash.Hash, mode Mode) *Core {
	ctx := ContextString(mode, CiphersuiteIdentifier[g])

	return &Core{
		Group:     g,
		Hash:      h.New(),
		mapper:    g,
		Mode:      mode,
		dstH2gDST: Dst(hash2groupDSTPrefix, ctx),
		dstH2sDST: Dst(hash2scalarDSTPrefix, ctx),
	}
}

// LoadConfiguration returns a core configuration given the group and mode.
func LoadConfiguration(g ecc.Group, mode Mode) *Core {
	h, ok := CiphersuiteHash[g]
	if !ok {
		panic(fmt.Sprintf("invalid OPRF dependency - Group: %v", g))
	}

	return makeCore(g, h, mode)
}

// DeriveKeyPair deterministically derives a private-public key pair given a secret seed and instance specific info.
// The 8-bit counter space can in theory be exhausted before a non-zero scalar is found, in which case an error is
// returned, though this is unreachable for healthy groups.
func (c Core) DeriveKeyPair(seed, info []byte) (*ecc.Scalar, *ecc.Element, error) {
	if len(info) > MaxSegmentLength {
		return nil, nil, errInfoLength
	}

	dst := concatenate([]byte(deriveKeyPairDST), ContextString(c.Mode, CiphersuiteIdentifier[c.Group]))
	deriveInput := concatenate(seed, lengthPrefixEncode(info))

	var sk *ecc.Scalar

	for counter := 0; sk == nil || sk.IsZero(); counter++ {
		if counter > 255 {
			return nil, nil, errDeriveKeyFailed
		}

		sk = c.mapper.HashToScalar(concatenate(deriveInput, []byte{byte(counter)}), dst)
	}

	return sk, c.Group.Base().Multiply(sk), nil
}

// HashTranscript hashes a xOPRF run's transcript (without the blind) to produce the protocol's output.
func (c Core) HashTranscript(input, unblinded, poprfInfo []byte) []byte {
	encInput := lengthPrefixEncode(input)
	encElement := lengthPrefixEncode(unblinded)
	encDST := []byte(dstFinalize)

	var h []byte

	if len(poprfInfo) != 0 { // POPRF
		encInfo := lengthPrefixEncode(poprfInfo)
		h = c.Hash.Hash(encInput, encInfo, encElement, encDST)
	} else { // OPRF and VOPRF
		h = c.Hash.Hash(encInput, encElement, encDST)
	}

	return h
}

// FullEvaluate computes the PRF output for input directly with the evaluation scalar. The scalar must be the secret
// key in the OPRF and VOPRF modes, and the inverted tweaked key in the POPRF mode. The optional info argument must
// only be provided when using the POPRF mode.
func (c Core) FullEvaluate(scalar *ecc.Scalar, input []byte, info ...byte) ([]byte, error) {
	if len(input) > MaxSegmentLength {
		return nil, errInputLength
	}

	p := c.HashToGroup(input)
	if p.IsIdentity() {
		return nil, errInvalidInput
	}

	unblinded := p.Multiply(scalar)
	if unblinded.IsIdentity() {
		return nil, errInvalidEvaluated
	}

	return c.HashTranscript(input, unblinded.Encode(), info), nil
}

// HashToScalar maps the input data to a scalar.
func (c Core) HashToScalar(data []byte) *ecc.Scalar {
	return c.mapper.HashToScalar(data, c.dstH2sDST)
}

// HashToGroup maps the input data to an element of the Group.
func (c Core) HashToGroup(data []byte) *ecc.Element {
	return c.mapper.HashToGroup(data, c.dstH2gDST)
}
