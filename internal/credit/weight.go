/* Copyright (c) 2025 Copanies
 * SPDX-License-Identifier: BSD-3-Clause */
package credit

import (
    "errors"
    "fmt"
)

// ErrInvalidAttribute marks an out-of-range priority/level ordinal or an
// unrecognized activity type. The aggregator recovers from it record by
// record; it only surfaces to callers of Weight itself.
var ErrInvalidAttribute = errors.New("invalid attribute")

// Weight tables. Both are monotone in their ordinal so that bigger and more
// urgent work never awards less. Level compounds faster than priority:
// level sizes the work, priority only scales its urgency.
var (
    levelBase          = []float64{1, 3, 8, 20}
    priorityMultiplier = []float64{1.0, 1.5, 2.0, 3.0}
)

// reviewerShare is the fraction of the closure weight split evenly across
// the reviewer set at each closure.
const reviewerShare = 0.2

// Weight maps an issue's priority and level ordinals to its credit weight.
// Pure and total over valid ordinals; state never participates.
func Weight(priority, level int) (float64, error) {
    if level < 0 || level >= len(levelBase) {
        return 0, fmt.Errorf("%w: level %d", ErrInvalidAttribute, level)
    }
    if priority < 0 || priority >= len(priorityMultiplier) {
        return 0, fmt.Errorf("%w: priority %d", ErrInvalidAttribute, priority)
    }
    return levelBase[level] * priorityMultiplier[priority], nil
}

// MaxLevel and MaxPriority bound the valid ordinals, for boundary validation.
func MaxLevel() int    { return len(levelBase) - 1 }
func MaxPriority() int { return len(priorityMultiplier) - 1 }
