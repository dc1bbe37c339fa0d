// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package oprf

import (
	"github.com/bytemare/ecc"
	secretsharing "github.com/bytemare/secret-sharing"
	"github.com/bytemare/secret-sharing/keys"
)

// ThresholdEvaluation is the result of a TOPRF participant server's evaluation.
type ThresholdEvaluation struct {
	// Evaluated is the output of the participant server's evaluation of the blinded input.
	Evaluated *ecc.Element

	// The Identifier is the identifier of the participant server that produced the Evaluated value.
	Identifier uint16
}

func polynomial(g ecc.Group, ids []uint16) secretsharing.Polynomial {
	p := make(secretsharing.Polynomial, len(ids))
	for i, id := range ids {
		p[i] = g.NewScalar().SetUInt64(uint64(id))
	}

	return p
}

func delta(g ecc.Group, peers secretsharing.Polynomial, id uint16, evaluated *ecc.Element) *ecc.Element {
	iv, err := peers.DeriveInterpolatingValue(g, g.NewScalar().SetUInt64(uint64(id)))
	if err != nil {
		panic(err)
	}

	return evaluated.Copy().Multiply(iv)
}

// ThresholdEvaluate is run by a participant server in the TOPRF scheme to evaluate a client's input instead of using
// the basic Evaluate function, upon which the different evaluations must be combined with ThresholdCombine.
// participants is the list of identifiers of all the active participants, including the caller's.
func ThresholdEvaluate(
	g ecc.Group,
	participants []uint16,
	share *keys.KeyShare,
	blinded *ecc.Element,
) *ThresholdEvaluation {
	eval := &ThresholdEvaluation{
		Identifier: share.Identifier(),
		Evaluated:  Evaluate(share.SecretKey(), blinded),
	}

	eval.Evaluated = delta(g, polynomial(g, participants), eval.Identifier, eval.Evaluated)

	return eval
}

// ThresholdCombine is used to combine evaluations produced by ThresholdEvaluate to produce the evaluated element to be
// consumed by the client. This can be done by a proxy or on the client before being provided to the Finalize function.
func ThresholdCombine(evaluations []*ThresholdEvaluation) *ecc.Element {
	result := evaluations[0].Evaluated.Copy()

	for _, ev := range evaluations[1:] {
		result.Add(ev.Evaluated)
	}

	return result
}

// ThresholdProxyCombine is used to combine evaluations if the basic Evaluate was used with a key share in the
// threshold setup. This requires no modification of the server's Evaluate call. Note that this concentrates some degree
// of computation that could be offloaded to the threshold participants using ThresholdEvaluate instead of Evaluate,
// and ThresholdCombine instead of ThresholdProxyCombine. This can be done by a proxy or on the client before being
// provided to the Finalize function.
func ThresholdProxyCombine(g ecc.Group, evaluations []*ThresholdEvaluation) *ecc.Element {
	ids := make([]uint16, len(evaluations))
	for i, ev := range evaluations {
		ids[i] = ev.Identifier
	}

	peers := polynomial(g, ids)
	result := g.NewElement()

	for _, ev := range evaluations {
		d := delta(g, peers, ev.Identifier, ev.Evaluated)
		result.Add(d)
	}

	return result
}
