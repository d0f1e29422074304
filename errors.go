// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package error2d

import "errors"

// Configuration errors returned by Update and Draw. They are wrapped with
// detail, so compare with errors.Is.
var (
	// ErrInsufficientColors is returned when more than one colour is given
	// and the count differs from the number of points.
	ErrInsufficientColors = errors.New("error2d: insufficient colors")

	// ErrInvalidCoords is returned when nested coordinates are shorter
	// than the expected tuple size.
	ErrInvalidCoords = errors.New("error2d: invalid coordinates")

	// ErrInvalidColor is returned for colour values that cannot be parsed.
	ErrInvalidColor = errors.New("error2d: invalid color")

	// ErrInvalidRange is returned for a view range with a zero or
	// non-finite extent.
	ErrInvalidRange = errors.New("error2d: invalid range")

	// ErrInvalidRect is returned for viewport or scissor rectangles with
	// negative or non-finite components.
	ErrInvalidRect = errors.New("error2d: invalid rectangle")

	// ErrInvalidConfig is returned by DecodeConfig for values of the
	// wrong shape.
	ErrInvalidConfig = errors.New("error2d: invalid config")
)

var (
	// ErrNilDevice is returned by New when no Device is supplied.
	ErrNilDevice = errors.New("error2d: device must not be nil")

	// ErrDestroyed is returned by Update and Draw after Destroy.
	ErrDestroyed = errors.New("error2d: renderer destroyed")
)
