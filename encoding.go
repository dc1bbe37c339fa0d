// SPDX-License-Identifier: MIT
//
// Copyright (C) 2025 Daniel Bourdrez. All Rights Reserved.
//
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree or at
// https://spdx.org/licenses/MIT.html

package oprf

import (
	"errors"
	"fmt"

	"github.com/bytemare/ecc"
)

var errDecodeIdentity = errors.New("invalid element - the encoding represents the group identity element")

// DecodeElement decodes the input to an element of the ciphersuite's group. It returns an error on non-canonical
// encodings and on the encoding of the identity element, which is never a valid protocol value.
func (c Ciphersuite) DecodeElement(encoded []byte) (*ecc.Element, error) {
	element := c.Group().NewElement()
	if err := element.Decode(encoded); err != nil {
		return nil, fmt.Errorf("element decoding: %w", err)
	}

	if element.IsIdentity() {
		return nil, errDecodeIdentity
	}

	return element, nil
}

// DecodeScalar decodes the input to a scalar of the ciphersuite's group, rejecting non-canonical encodings.
func (c Ciphersuite) DecodeScalar(encoded []byte) (*ecc.Scalar, error) {
	scalar := c.Group().NewScalar()
	if err := scalar.Decode(encoded); err != nil {
		return nil, fmt.Errorf("scalar decoding: %w", err)
	}

	return scalar, nil
}
