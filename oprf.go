// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

// Package oprf implements RFC9497 and provides abstracted access to Oblivious Pseudorandom Functions (OPRF) and
// Threshold Oblivious Pseudorandom Functions (TOPRF) using Elliptic Curve Prime Order Groups (EC-OPRF).
// For VOPRF and POPRF use the github.com/bytemare/oprf/voprf package.
package oprf

import (
	"crypto/subtle"
	"errors"

	"github.com/bytemare/ecc"
	"github.com/bytemare/hash"

	"github.com/bytemare/oprf/internal"
)

// Ciphersuite of the xOPRF compatible cipher suite to be used.
type Ciphersuite byte

const (
	// Ristretto255Sha512 identifies the Ristretto255 group and SHA-512.
	Ristretto255Sha512 = Ciphersuite(ecc.Ristretto255Sha512)

	// decaf448Shake256 identifies the Decaf448 group and Shake-256. Not supported.
	// decaf448Shake256 = 2.

	// P256Sha256 identifies the NIST P-256 group and SHA-256.
	P256Sha256 = Ciphersuite(ecc.P256Sha256)

	// P384Sha384 identifies the NIST P-384 group and SHA-384.
	P384Sha384 = Ciphersuite(ecc.P384Sha384)

	// P521Sha512 identifies the NIST P-521 group and SHA-512.
	P521Sha512 = Ciphersuite(ecc.P521Sha512)

	// Secp256k1 identifies the SECp256k1 group and SHA-256.
	Secp256k1 = Ciphersuite(ecc.Secp256k1Sha256)
)

var (
	errBatchNoElements    = errors.New("empty batch - no elements provided")
	errBatchTooLarge      = errors.New("batch too large - more than 65535 elements")
	errBatchDifferentSize = errors.New("number of evaluations is different than number of previously blinded inputs")
	errInvalidKey         = errors.New("invalid key - the secret key is nil or zero")
	errInvalidBlinded     = errors.New("invalid blinded element - nil or the group identity element")
)

// KeyPair assembles an OPRF key pair. The SecretKey can be used as the evaluation key for the Ciphersuite's group.
type KeyPair struct {
	PublicKey   *ecc.Element
	SecretKey   *ecc.Scalar
	Ciphersuite Ciphersuite
}

// Zero scrubs the secret key. The key pair must not be used afterwards.
func (k *KeyPair) Zero() {
	if k.SecretKey != nil {
		k.SecretKey.Zero()
	}
}

// FromGroup returns a Ciphersuite given a Group.
func FromGroup(g ecc.Group) Ciphersuite {
	return Ciphersuite(g)
}

// Available returns whether the Ciphersuite is registered and usable.
func (c Ciphersuite) Available() bool {
	_, ok := internal.CiphersuiteIdentifier[ecc.Group(c)]
	return ok
}

// Group returns the elliptic curve prime-order group of the ciphersuite.
func (c Ciphersuite) Group() ecc.Group {
	return ecc.Group(c)
}

// Name returns the [RFC9497](https://datatracker.ietf.org/doc/rfc9497) compliant identifier of the ciphersuite.
func (c Ciphersuite) Name() string {
	return internal.CiphersuiteIdentifier[ecc.Group(c)]
}

// Hash returns the hash function of the ciphersuite, e.g. to size protocol outputs.
func (c Ciphersuite) Hash() hash.Hash {
	return internal.CiphersuiteHash[ecc.Group(c)]
}

// KeyGen returns a fresh, random key pair for the ciphersuite's group, for use in the base OPRF mode.
func (c Ciphersuite) KeyGen() *KeyPair {
	sk := c.Group().NewScalar().Random()

	return &KeyPair{
		Ciphersuite: c,
		SecretKey:   sk,
		PublicKey:   c.Group().Base().Multiply(sk),
	}
}

// DeriveKeyPair returns a private-public key pair for the OPRF mode, given a secret seed and instance specific info.
// VOPRF and POPRF keys must be created with server.DeriveKeyPair() in the voprf package.
// TOPRF key pairs should be created using a distributed key generation protocol.
func DeriveKeyPair(c Ciphersuite, seed, info []byte) (*ecc.Scalar, *ecc.Element, error) {
	// We don't use this as a method to a Ciphersuite, as it might be confusing when in VOPRF or POPRF mode, which
	// use the Ciphersuite identifier from this package.
	return internal.LoadConfiguration(c.Group(), internal.OPRF).DeriveKeyPair(seed, info)
}

// Client returns an OPRF client.
func (c Ciphersuite) Client() *Client {
	return &Client{
		Client: internal.NewClient(internal.OPRF, ecc.Group(c)),
	}
}

// Client is used for OPRF and TOPRF client executions.
type Client struct {
	*internal.Client
}

// SetBlind sets one or multiple blinds in the client's blind register. This is optional, and useful if you want to
// force usage of specific blinding scalar. If no blinding scalars are set, new, random blinds will be used.
func (c *Client) SetBlind(blind ...*ecc.Scalar) {
	c.Client.UpdateStateCapacity(len(blind))

	for i, b := range blind {
		c.Client.SetBlind(i, b)
	}
}

// Blind blinds the input using the first blinding scalar in the Client's register. If no blinding scalars were
// previously set, new, random blinds will be used.
func (c *Client) Blind(input []byte) (*ecc.Element, error) {
	return c.Client.Blind(0, input)
}

// BlindBatch blinds the given set, using either previously set blinds in the same order (if they have been set) or
// newly generated random blinds. Note that if not enough blinds were set, new, random blinds will be used as necessary.
func (c *Client) BlindBatch(inputs [][]byte) ([]*ecc.Element, error) {
	if len(inputs) == 0 {
		return nil, errBatchNoElements
	}

	if len(inputs) > internal.MaxSegmentLength {
		return nil, errBatchTooLarge
	}

	c.UpdateStateCapacity(len(inputs))
	blindedInput := make([]*ecc.Element, len(inputs))

	for i, in := range inputs {
		blinded, err := c.Client.Blind(i, in)
		if err != nil {
			return nil, err
		}

		blindedInput[i] = blinded
	}

	return blindedInput, nil
}

// Finalize unblinds the evaluated element and returns the protocol output.
func (c *Client) Finalize(evaluated *ecc.Element) ([]byte, error) {
	return c.Client.Finalize(0, evaluated)
}

// FinalizeBatch unblinds the evaluated elements and returns the corresponding protocol outputs.
func (c *Client) FinalizeBatch(evaluated []*ecc.Element) ([][]byte, error) {
	if len(evaluated) == 0 {
		return nil, errBatchNoElements
	}

	if len(evaluated) != c.Size() {
		return nil, errBatchDifferentSize
	}

	return c.Client.FinalizeBatch(evaluated)
}

// Evaluate is the server's function to evaluate a Client provided blinded element with the server's secret key.
// The caller must ensure the key is non-zero and the blinded element is not the identity; EvaluateBatch checks both.
func Evaluate(key *ecc.Scalar, blinded *ecc.Element) *ecc.Element {
	return blinded.Copy().Multiply(key)
}

// EvaluateBatch is the server's function to evaluate a set of Client provided blinded elements with the
// server's secret key.
func EvaluateBatch(key *ecc.Scalar, blinded []*ecc.Element) ([]*ecc.Element, error) {
	if key == nil || key.IsZero() {
		return nil, errInvalidKey
	}

	if len(blinded) == 0 {
		return nil, errBatchNoElements
	}

	if len(blinded) > internal.MaxSegmentLength {
		return nil, errBatchTooLarge
	}

	evaluated := make([]*ecc.Element, len(blinded))

	for i, b := range blinded {
		if b == nil || b.IsIdentity() {
			return nil, errInvalidBlinded
		}

		evaluated[i] = Evaluate(key, b)
	}

	return evaluated, nil
}

// FullEvaluate computes the base mode PRF output for input directly with the secret key, yielding the same value a
// client obtains from a complete blind, evaluate, and finalize round trip with a server holding that key.
func (c Ciphersuite) FullEvaluate(key *ecc.Scalar, input []byte) ([]byte, error) {
	if key == nil || key.IsZero() {
		return nil, errInvalidKey
	}

	return internal.LoadConfiguration(c.Group(), internal.OPRF).FullEvaluate(key, input)
}

// VerifyFinalize computes the base mode PRF for input with the secret key, and returns whether the result matches
// output. Use this on the server to verify a client provided protocol output.
func (c Ciphersuite) VerifyFinalize(key *ecc.Scalar, input, output []byte) bool {
	digest, err := c.FullEvaluate(key, input)
	return err == nil && subtle.ConstantTimeCompare(digest, output) == 1
}
