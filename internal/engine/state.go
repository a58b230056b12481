// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/goplus/pkgrecipe/recipe"
)

// State is the lifecycle state of an instance.
type State int

const (
	Uninitialized State = iota
	Sourced
	Built
	Identified
	Packaged
	Exported
	Failed
)

var stateNames = [...]string{
	Uninitialized: "UNINITIALIZED",
	Sourced:       "SOURCED",
	Built:         "BUILT",
	Identified:    "IDENTIFIED",
	Packaged:      "PACKAGED",
	Exported:      "EXPORTED",
	Failed:        "FAILED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Stage is a recipe hook invoked by the engine.
type Stage int

const (
	StageSource Stage = iota
	StageBuild
	StagePackageID
	StagePackage
	StagePackageInfo
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageSource, StageBuild, StagePackageID, StagePackage, StagePackageInfo}

var stageNames = [...]string{
	StageSource:      "source",
	StageBuild:       "build",
	StagePackageID:   "package_id",
	StagePackage:     "package",
	StagePackageInfo: "package_info",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// from returns the state a stage requires, to the state it reaches.
func (s Stage) from() State { return State(s) }
func (s Stage) to() State   { return State(s + 1) }

// Transition records one successful stage.
type Transition struct {
	From     State
	To       State
	Stage    Stage
	Duration time.Duration
}

func (t Transition) String() string {
	return fmt.Sprintf("%s -> %s (%s, %s)", t.From, t.To, t.Stage, t.Duration.Round(time.Millisecond))
}

var (
	// ErrInvalidTransition is returned when a stage is run out of order
	// or an instance is run twice.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrEmptyPackage is returned when the package stage leaves an empty
	// install layout and the host does not allow it.
	ErrEmptyPackage = fmt.Errorf("%w: empty install layout", recipe.ErrPackaging)
)

// StageError identifies the stage that failed. It is the only wrapper the
// engine adds to a hook failure.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage.String() + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }
