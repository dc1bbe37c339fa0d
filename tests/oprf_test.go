// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package oprf_test

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/bytemare/oprf"
)

var errExpectedEquality = errors.New("expected equality")

func TestOPRF(t *testing.T) {
	input := []byte("input")

	testAll(t, func(c *configuration) {
		serverKey := c.group.NewScalar().Random()

		client := c.ciphersuite.Client()

		blinded, err := client.Blind(input)
		if err != nil {
			t.Fatal(err)
		}

		evaluated := oprf.Evaluate(serverKey, blinded)

		output, err := client.Finalize(evaluated)
		if err != nil {
			t.Fatal(err)
		}

		// The protocol output must be the same as the direct evaluation with the server's key.
		direct, err := c.ciphersuite.FullEvaluate(serverKey, input)
		if err != nil {
			t.Fatal(err)
		}

		if !bytes.Equal(output, direct) {
			t.Fatal(errExpectedEquality)
		}

		if !c.ciphersuite.VerifyFinalize(serverKey, input, output) {
			t.Fatal("VerifyFinalize returned false on a valid output")
		}

		if c.ciphersuite.VerifyFinalize(serverKey, []byte("other input"), output) {
			t.Fatal("VerifyFinalize returned true on another input")
		}
	})
}

func TestOPRF_BlindInvariance(t *testing.T) {
	input := []byte("input")

	testAll(t, func(c *configuration) {
		serverKey := c.group.NewScalar().Random()
		outputs := make([][]byte, 2)

		// Two protocol runs on the same input with different random blinds must yield the same output.
		for i := range outputs {
			client := c.ciphersuite.Client()
			client.SetBlind(c.group.NewScalar().Random())

			blinded, err := client.Blind(input)
			if err != nil {
				t.Fatal(err)
			}

			output, err := client.Finalize(oprf.Evaluate(serverKey, blinded))
			if err != nil {
				t.Fatal(err)
			}

			outputs[i] = output
		}

		if !bytes.Equal(outputs[0], outputs[1]) {
			t.Fatal("expected blind invariant outputs")
		}
	})
}

func TestOPRF_DistinctInputs(t *testing.T) {
	testAll(t, func(c *configuration) {
		serverKey := c.group.NewScalar().Random()

		output1, err := c.ciphersuite.FullEvaluate(serverKey, []byte("input1"))
		if err != nil {
			t.Fatal(err)
		}

		output2, err := c.ciphersuite.FullEvaluate(serverKey, []byte("input2"))
		if err != nil {
			t.Fatal(err)
		}

		if bytes.Equal(output1, output2) {
			t.Fatal("distinct inputs yielded the same output")
		}
	})
}

func TestOPRF_DistinctKeys(t *testing.T) {
	input := []byte("input")

	testAll(t, func(c *configuration) {
		output1, err := c.ciphersuite.FullEvaluate(c.group.NewScalar().Random(), input)
		if err != nil {
			t.Fatal(err)
		}

		output2, err := c.ciphersuite.FullEvaluate(c.group.NewScalar().Random(), input)
		if err != nil {
			t.Fatal(err)
		}

		if bytes.Equal(output1, output2) {
			t.Fatal("distinct keys yielded the same output")
		}
	})
}

func TestOPRFBatching(t *testing.T) {
	inputs := [][]byte{
		[]byte("input1"),
		[]byte("input2"),
		[]byte("input3"),
	}

	testAll(t, func(c *configuration) {
		serverKey := c.group.NewScalar().Random()
		client := c.ciphersuite.Client()

		blinded, err := client.BlindBatch(inputs)
		if err != nil {
			t.Fatal(err)
		}

		evaluated, err := oprf.EvaluateBatch(serverKey, blinded)
		if err != nil {
			t.Fatal(err)
		}

		outputs, err := client.FinalizeBatch(evaluated)
		if err != nil {
			t.Fatal(err)
		}

		if len(outputs) != len(inputs) {
			t.Fatal("unexpected number of outputs")
		}

		// Each output must correspond to the input at the same position.
		for i, input := range inputs {
			if !c.ciphersuite.VerifyFinalize(serverKey, input, outputs[i]) {
				t.Fatalf("output %d does not match input %d", i, i)
			}
		}
	})
}

func TestOPRFBatchOrder(t *testing.T) {
	inputs := [][]byte{
		[]byte("input1"),
		[]byte("input2"),
		[]byte("input3"),
	}

	testAll(t, func(c *configuration) {
		serverKey := c.group.NewScalar().Random()
		client := c.ciphersuite.Client()

		blinded, err := client.BlindBatch(inputs)
		if err != nil {
			t.Fatal(err)
		}

		evaluated, err := oprf.EvaluateBatch(serverKey, blinded)
		if err != nil {
			t.Fatal(err)
		}

		// Swapping two evaluations crosses the blinds, and the finalized outputs must not verify.
		evaluated[0], evaluated[1] = evaluated[1], evaluated[0]

		outputs, err := client.FinalizeBatch(evaluated)
		if err != nil {
			t.Fatal(err)
		}

		if c.ciphersuite.VerifyFinalize(serverKey, inputs[0], outputs[0]) ||
			c.ciphersuite.VerifyFinalize(serverKey, inputs[1], outputs[1]) {
			t.Fatal("swapped evaluations still map to their original inputs")
		}
	})
}

func TestCiphersuiteGroup(t *testing.T) {
	testAll(t, func(c *configuration) {
		if c.ciphersuite.Group() != c.group {
			t.Fatal(errExpectedEquality)
		}

		ciphersuite := oprf.FromGroup(c.group)

		if ciphersuite != c.ciphersuite {
			t.Fatal(errExpectedEquality)
		}
	})
}

func TestAvailability(t *testing.T) {
	testAll(t, func(c *configuration) {
		if !c.ciphersuite.Available() {
			t.Fatal("expected availability")
		}
	})

	// The decaf448 suite of the RFC has no group backend and must not be available.
	if oprf.Ciphersuite(2).Available() {
		t.Fatal("expected decaf448 to be unavailable")
	}
}

func TestCiphersuiteName(t *testing.T) {
	names := map[oprf.Ciphersuite]string{
		oprf.Ristretto255Sha512: "ristretto255-SHA512",
		oprf.P256Sha256:         "P256-SHA256",
		oprf.P384Sha384:         "P384-SHA384",
		oprf.P521Sha512:         "P521-SHA512",
		oprf.Secp256k1:          "secp256k1-SHA256",
	}

	testAll(t, func(c *configuration) {
		if c.ciphersuite.Name() != names[c.ciphersuite] {
			t.Fatalf("unexpected ciphersuite name %q", c.ciphersuite.Name())
		}
	})
}

func TestCiphersuiteHash(t *testing.T) {
	testAll(t, func(c *configuration) {
		if c.ciphersuite.Hash() != c.hash {
			t.Fatalf("unexpected ciphersuite hash %v", c.ciphersuite.Hash())
		}
	})
}

func TestKeyGen(t *testing.T) {
	testAll(t, func(c *configuration) {
		keyPair := c.ciphersuite.KeyGen()

		if keyPair.Ciphersuite != c.ciphersuite {
			t.Fatal(errExpectedEquality)
		}

		if keyPair.SecretKey == nil || keyPair.SecretKey.IsZero() {
			t.Fatal("expected non-zero secret key")
		}

		if !c.group.Base().Multiply(keyPair.SecretKey).Equal(keyPair.PublicKey) {
			t.Fatal("public key does not match the secret key")
		}

		keyPair.Zero()

		if !keyPair.SecretKey.IsZero() {
			t.Fatal("expected the secret key to be scrubbed")
		}
	})
}

func TestDeriveKeyPair(t *testing.T) {
	info := []byte("some instance")
	ciphersuite := oprf.Ristretto255Sha512

	random, _ := hex.DecodeString("c332260baab120459e7ad1d47ce5a43f980abe9c19ecc0550bbd0dde58a548bf")
	encodedReferenceSecretKeyR255, _ := hex.DecodeString(
		"78e4560c5779791f87f6493fff0ac0476d64ebdecb9ae26a0565f673b10be906",
	)
	encodedReferencePublicKeyR255, _ := hex.DecodeString(
		"7c45e2a6748414358f597874d4afa951cbc39cb3300c5cfde9ac86348062560f",
	)

	refSk := ciphersuite.Group().NewScalar()
	_ = refSk.Decode(encodedReferenceSecretKeyR255)

	refPk := ciphersuite.Group().NewElement()
	_ = refPk.Decode(encodedReferencePublicKeyR255)

	sk, pk, err := oprf.DeriveKeyPair(ciphersuite, random, info)
	if err != nil {
		t.Fatal(err)
	}

	if !sk.Equal(refSk) || !pk.Equal(refPk) {
		t.Fatal(errExpectedEquality)
	}
}

func TestDeriveKeyPairAllSuites(t *testing.T) {
	seed := randomBytes(32)
	info := []byte("test key")

	testAll(t, func(c *configuration) {
		sk, pk, err := oprf.DeriveKeyPair(c.ciphersuite, seed, info)
		if err != nil {
			t.Fatal(err)
		}

		refSk, refPk := deriveKeyPair(seed, info, modeOPRF, c.ciphersuite)

		if !sk.Equal(refSk) || !pk.Equal(refPk) {
			t.Fatal(errExpectedEquality)
		}
	})
}
