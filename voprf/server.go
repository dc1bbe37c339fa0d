// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package voprf

import (
	"crypto/subtle"
	"errors"

	"github.com/bytemare/ecc"

	"github.com/bytemare/oprf"
	"github.com/bytemare/oprf/internal"
)

var (
	errInvalidPrivateKey = errors.New("private key is nil or zero")
	errInvalidKeyPair    = errors.New("input public key doesn't belong to the private key")
	errMissingKeys       = errors.New("key material is not set - set, derive, or generate a key pair first")
)

// Server is used for VOPRF or POPRF server executions. For OPRF or TOPRF, use the oprf package (no need for a server
// instance).
type Server struct {
	// OPRF
	*internal.Verifiable

	// VOPRF
	privateKey *ecc.Scalar
	publicKey  *ecc.Element

	// POPRF
	scalar     *ecc.Scalar
	t          *ecc.Scalar
	tweakedKey *ecc.Element
}

// NewServer returns a server instance given a ciphersuite. poprfInfo must only be provided if
// the POPRF mode is requested. If poprfInfo is not provided or nil, the VOPRF mode is used.
func NewServer(cs oprf.Ciphersuite, poprfInfo ...byte) (*Server, error) {
	if !cs.Available() {
		return nil, errInvalidCiphersuite
	}

	if len(poprfInfo) > internal.MaxSegmentLength {
		return nil, errInfoLength
	}

	mode := internal.VOPRF
	if len(poprfInfo) != 0 {
		mode = internal.POPRF
	}

	s := &Server{
		Verifiable: internal.NewVerifiable(internal.LoadConfiguration(cs.Group(), mode), poprfInfo),
		privateKey: nil,
		publicKey:  nil,
		scalar:     nil,
		t:          nil,
		tweakedKey: nil,
	}

	return s, nil
}

func (s *Server) setKeyPair(privateKey *ecc.Scalar, publicKey *ecc.Element) error {
	if s.Core.Mode == internal.POPRF {
		scalar, t, err := s.Verifiable.TweakPrivateKey(privateKey)
		if err != nil {
			return err
		}

		s.scalar, s.t = scalar, t
		s.tweakedKey = s.Core.Group.Base().Multiply(s.t)
	} else {
		s.scalar = privateKey
	}

	s.privateKey = privateKey
	s.publicKey = publicKey

	return nil
}

func checkKeys(g ecc.Group, privateKey *ecc.Scalar, publicKey *ecc.Element) error {
	if publicKey == nil || publicKey.IsIdentity() {
		return errInvalidPublicKey
	}

	if privateKey == nil || privateKey.IsZero() {
		return errInvalidPrivateKey
	}

	if !g.Base().Multiply(privateKey).Equal(publicKey) {
		return errInvalidKeyPair
	}

	return nil
}

// SetKeyPair sets the server's private and public key pair. This returns an error if either key is nil, the public key
// is the identity element, if it doesn't match as a public key to the provided private key, or if the POPRF key
// tweaking yields the zero scalar.
func (s *Server) SetKeyPair(privateKey *ecc.Scalar, publicKey *ecc.Element) error {
	if err := checkKeys(s.Core.Group, privateKey, publicKey); err != nil {
		return err
	}

	return s.setKeyPair(privateKey, publicKey)
}

// DeriveKeyPair derives and sets the server's private and public key pair given a secret seed and instance specific
// info.
func (s *Server) DeriveKeyPair(seed, info []byte) error {
	sk, pk, err := s.Core.DeriveKeyPair(seed, info)
	if err != nil {
		return err
	}

	return s.setKeyPair(sk, pk)
}

// GenerateKeys generates and sets a new, random private and public key pair.
func (s *Server) GenerateKeys() error {
	sk := s.Core.Group.NewScalar().Random()
	pk := s.Core.Group.Base().Multiply(sk)

	return s.setKeyPair(sk, pk)
}

// KeyPair returns the server's private and public key pair.
func (s *Server) KeyPair() (*ecc.Scalar, *ecc.Element) {
	return s.privateKey, s.publicKey
}

// Zero scrubs the server's key material. The server must be given a new key pair before being used again.
func (s *Server) Zero() {
	for _, scalar := range []*ecc.Scalar{s.privateKey, s.scalar, s.t} {
		if scalar != nil {
			scalar.Zero()
		}
	}

	s.privateKey = nil
	s.publicKey = nil
	s.scalar = nil
	s.t = nil
	s.tweakedKey = nil
}

func (s *Server) evaluate(
	blinded []*ecc.Element,
	random []*ecc.Scalar,
) (*Evaluation, error) {
	if s.scalar == nil {
		return nil, errMissingKeys
	}

	// Set the random scalar for the proof. A copy of a forced scalar is used, as proof generation consumes it.
	r := s.Group.NewScalar()
	if len(random) != 0 && random[0] != nil {
		r.Set(random[0])
	} else {
		r.Random()
	}

	// Evaluate
	evaluated, err := oprf.EvaluateBatch(s.scalar, blinded)
	if err != nil {
		return nil, err
	}

	var proofC, proofS *ecc.Scalar

	if s.Core.Mode == internal.VOPRF {
		proofC, proofS = s.Verifiable.GenerateProof(r, s.privateKey, s.publicKey, blinded, evaluated)
	} else { // POPRF
		proofC, proofS = s.Verifiable.GenerateProof(r, s.t, s.tweakedKey, evaluated, blinded)
	}

	return &Evaluation{
		group: s.Group,
		Proof: [2]*ecc.Scalar{
			proofC, proofS,
		},
		Evaluations: evaluated,
	}, nil
}

// Evaluate takes the Client provided blinded element and evaluates it, returning the evaluated element and the
// NIZK proof. The random argument is optional, and enables to force the use of that scalar for the random input to the
// NIZK proof.
func (s *Server) Evaluate(
	blinded *ecc.Element,
	random ...*ecc.Scalar,
) (*Evaluation, error) {
	sBlinded := []*ecc.Element{blinded}
	return s.evaluate(sBlinded, random)
}

// EvaluateBatch takes the Client provided blinded elements and evaluates them, returning the evaluated elements and the
// unique NIZK proof for the whole set. The random argument is optional, and enables to force the use of that scalar for
// the random input to the NIZK proof.
func (s *Server) EvaluateBatch(
	blinded []*ecc.Element,
	random ...*ecc.Scalar,
) (*Evaluation, error) {
	return s.evaluate(blinded, random)
}

// FullEvaluate computes the PRF output for input directly with the server's key material, including the mode and, in
// POPRF, the info the server was set up with. The result is the value a client obtains from a complete protocol run
// with this server.
func (s *Server) FullEvaluate(input []byte) ([]byte, error) {
	if s.scalar == nil {
		return nil, errMissingKeys
	}

	return s.Core.FullEvaluate(s.scalar, input, s.Verifiable.POPRFInfo...)
}

// VerifyFinalize computes the PRF for input with the server's key material, and returns whether the result matches
// output. Use this to verify a client provided protocol output.
func (s *Server) VerifyFinalize(input, output []byte) bool {
	digest, err := s.FullEvaluate(input)
	return err == nil && subtle.ConstantTimeCompare(digest, output) == 1
}
