/* Apache v2 license
*  Copyright (C) <2026> DeepSeaGuard Project
*
*  SPDX-License-Identifier: Apache-2.0
 */

package fault

import (
	"github.com/pkg/errors"
)

var (
	// ErrValidation occurs when input data is rejected at a call boundary:
	// invalid zone geometry, a duplicate zone id under the reject policy,
	// out-of-range coordinates, or an out-of-order position timestamp.
	ErrValidation = errors.New("validation error")

	// ErrConfiguration occurs when a zone or engine parameter is missing or
	// unusable, e.g. a duration rule with no maximum duration.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound occurs when a referenced zone does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrShutdown occurs when work is submitted after the engine has been
	// shut down.
	ErrShutdown = errors.New("engine is shut down")
)

// IsValidation reports whether err is rooted in ErrValidation.
func IsValidation(err error) bool {
	return errors.Cause(err) == ErrValidation
}

// IsConfiguration reports whether err is rooted in ErrConfiguration.
func IsConfiguration(err error) bool {
	return errors.Cause(err) == ErrConfiguration
}
