// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package oprf_test

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log"
	"testing"

	"github.com/bytemare/ecc"
	"github.com/bytemare/hash"

	"github.com/bytemare/oprf"
	"github.com/bytemare/oprf/voprf"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

// helper functions

type configuration struct {
	name        string
	ciphersuite oprf.Ciphersuite
	hash        hash.Hash
	group       ecc.Group
}

var configurationTable = []configuration{
	{
		name:        "Ristretto255",
		ciphersuite: oprf.Ristretto255Sha512,
		group:       ecc.Ristretto255Sha512,
		hash:        hash.SHA512,
	},
	{
		name:        "P256Sha256",
		ciphersuite: oprf.P256Sha256,
		group:       ecc.P256Sha256,
		hash:        hash.SHA256,
	},
	{
		name:        "P384Sha384",
		ciphersuite: oprf.P384Sha384,
		group:       ecc.P384Sha384,
		hash:        hash.SHA384,
	},
	{
		name:        "P521Sha512",
		ciphersuite: oprf.P521Sha512,
		group:       ecc.P521Sha512,
		hash:        hash.SHA512,
	},
	{
		name:        "Secp256k1Sha256",
		ciphersuite: oprf.Secp256k1,
		group:       ecc.Secp256k1Sha256,
		hash:        hash.SHA256,
	},
}

func testAll(t *testing.T, f func(*configuration)) {
	for _, test := range configurationTable {
		t.Run(test.name, func(t *testing.T) {
			f(&test)
		})
	}
}

func makeVPClientAndServer(t *testing.T, ciphersuite oprf.Ciphersuite, info []byte) (*voprf.Client, *voprf.Server) {
	server, err := voprf.NewServer(ciphersuite, info...)
	if err != nil {
		t.Fatal(err)
	}

	if err = server.GenerateKeys(); err != nil {
		t.Fatal(err)
	}

	_, pk := server.KeyPair()

	client, err := voprf.NewClient(ciphersuite, pk, info...)
	if err != nil {
		t.Fatal(err)
	}

	return client, server
}

func getBadRistrettoScalar() []byte {
	a := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	decoded, _ := hex.DecodeString(a)

	return decoded
}

func getBadRistrettoElement() []byte {
	a := "2a292df7e32cababbd9de088d1d1abec9fc0440f637ed2fba145094dc14bea08"
	decoded, _ := hex.DecodeString(a)

	return decoded
}

// badScalar returns a byte string that exceeds the group order of every big-endian prime order group here, and
// verifies it indeed does not decode.
func badScalar(t *testing.T, g ecc.Group) []byte {
	exceeded := make([]byte, g.ScalarLength())
	for i := range exceeded {
		exceeded[i] = 0xff
	}

	err := g.NewScalar().Decode(exceeded)
	if err == nil {
		t.Errorf("exceeding the order did not yield an error for group %s", g)
	}

	return exceeded
}

func randomBytes(length int) []byte {
	r := make([]byte, length)
	if _, err := rand.Read(r); err != nil {
		// We can as well not panic and try again in a loop and a counter to stop.
		panic(fmt.Errorf("unexpected error in generating random bytes : %w", err))
	}

	return r
}

func getBadNistElement(t *testing.T, g ecc.Group) []byte {
	size := g.ElementLength()
	element := randomBytes(size)
	// detag compression
	element[0] = 4

	// test if invalid compression is detected
	err := g.NewElement().Decode(element)
	if err == nil {
		t.Errorf("detagged compressed point did not yield an error for group %s", g)
	}

	return element
}

func getBadElement(t *testing.T, c *configuration) []byte {
	switch c.ciphersuite {
	case oprf.Ristretto255Sha512:
		return getBadRistrettoElement()
	default:
		return getBadNistElement(t, c.ciphersuite.Group())
	}
}

func getBadScalar(t *testing.T, c *configuration) []byte {
	switch c.ciphersuite {
	case oprf.Ristretto255Sha512:
		return getBadRistrettoScalar()
	default:
		return badScalar(t, c.ciphersuite.Group())
	}
}

const (
	modeOPRF  byte = 0
	modeVOPRF byte = 1
	modePOPRF byte = 2

	version             = "OPRFV1"
	deriveKeyPairDST    = "DeriveKeyPair"
	hash2groupDSTPrefix = "HashToGroup-"
)

func concatenate(input ...[]byte) []byte {
	if len(input) == 1 {
		if len(input[0]) == 0 {
			return nil
		}

		return input[0]
	}

	length := 0
	for _, in := range input {
		length += len(in)
	}

	buf := make([]byte, 0, length)

	for _, in := range input {
		buf = append(buf, in...)
	}

	return buf
}

func dst(prefix string, contextString []byte) []byte {
	p := []byte(prefix)
	t := make([]byte, 0, len(p)+len(contextString))
	t = append(t, p...)
	t = append(t, contextString...)

	return t
}

func i2osp2(value int) []byte {
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out, uint16(value))

	return out
}

func lengthPrefixEncode(input []byte) []byte {
	return append(i2osp2(len(input)), input...)
}

func contextString(mode byte, c oprf.Ciphersuite) []byte {
	ctx := make([]byte, 0, len(version)+3+len(c.Name()))
	ctx = append(ctx, version...)
	ctx = append(ctx, "-"...)
	ctx = append(ctx, mode)
	ctx = append(ctx, "-"...)
	ctx = append(ctx, c.Name()...)

	return ctx
}

// deriveKeyPair reimplements the key derivation from the raw group operations, as a reference for the library's
// DeriveKeyPair functions.
func deriveKeyPair(seed, info []byte, mode byte, c oprf.Ciphersuite) (*ecc.Scalar, *ecc.Element) {
	dst := concatenate([]byte(deriveKeyPairDST), contextString(mode, c))
	deriveInput := concatenate(seed, lengthPrefixEncode(info))

	var counter uint8
	var s *ecc.Scalar

	for s == nil || s.IsZero() {
		if counter > 255 {
			panic("impossible to generate non-zero scalar")
		}

		s = c.Group().HashToScalar(concatenate(deriveInput, []byte{counter}), dst)
		counter++
	}

	return s, c.Group().Base().Multiply(s)
}
