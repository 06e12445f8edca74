package dirctx

import (
	"github.com/bianoble/dirctx/internal/engine"
	"github.com/bianoble/dirctx/internal/history"
	"github.com/bianoble/dirctx/internal/scan"
)

// Type aliases re-export engine result types as the public API.
// Users import "github.com/bianoble/dirctx/pkg/dirctx" and use
// dirctx.Summary, dirctx.Plan, etc.

type Mode = engine.Mode
type Summary = engine.Summary
type Plan = engine.Plan
type PlanEntry = engine.PlanEntry
type TargetError = engine.TargetError
type Transition = engine.Transition
type CleanResult = engine.CleanResult
type Target = scan.Target
type Run = history.Run

const (
	ModeAll   = engine.ModeAll
	ModeStale = engine.ModeStale
	ModeForce = engine.ModeForce
)
