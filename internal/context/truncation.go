// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package context fits conversation history into the model's context window.
package context

import (
	"fmt"

	"github.com/jeranaias/chatdesk/internal/model"
)

// DefaultBudget is the trim budget in estimated tokens used when none is
// configured.
const DefaultBudget = 1000

// =============================================================================
// TRUNCATION TYPES
// =============================================================================

// TokenEstimator returns the estimated cost of one message in tokens.
type TokenEstimator func(msg model.Message) int

// EstimateMessage is the default estimator: ~4 characters per token plus
// model.MessageOverhead for the message envelope.
func EstimateMessage(msg model.Message) int {
	return msg.EstimateTokens() + model.MessageOverhead
}

// Truncator trims a history to a token budget with the "last" strategy:
// the system instruction and the newest messages are kept, whole messages
// are dropped from the head.
type Truncator struct {
	estimate TokenEstimator
}

// TruncateResult is the trimmed view sent to the model. It is a copy; the
// history it was built from is never modified.
type TruncateResult struct {
	// Messages is the system instruction (when non-empty) followed by the
	// surviving history in original order.
	Messages []model.Message

	// Dropped is the number of history messages removed from the head.
	Dropped int

	// Tokens is the estimated cost of Messages.
	Tokens int

	// Budget is the budget the result was computed against.
	Budget int

	// WasTruncated indicates if any message was dropped.
	WasTruncated bool
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// NewTruncator creates a truncator. A nil estimator selects EstimateMessage.
func NewTruncator(estimate TokenEstimator) *Truncator {
	if estimate == nil {
		estimate = EstimateMessage
	}
	return &Truncator{estimate: estimate}
}

// =============================================================================
// TRUNCATION METHODS
// =============================================================================

// Truncate returns the view of history that fits budget.
//
// The system message is always kept and its cost counts against the budget.
// The newest history message is always kept as well, so the view exceeds the
// budget whenever the system message plus the newest message do not fit,
// even if the newest message alone would. OverBudget reports that case.
// Walking from newest to oldest, the first message that would push the
// total over budget is dropped together with everything older than it.
// A budget <= 0 disables trimming.
func (t *Truncator) Truncate(system model.Message, history []model.Message, budget int) *TruncateResult {
	result := &TruncateResult{Budget: budget}

	total := 0
	if !system.IsEmpty() {
		total = t.estimate(system)
	}

	keepFrom := 0
	if budget > 0 && len(history) > 0 {
		newest := len(history) - 1
		total += t.estimate(history[newest])
		keepFrom = newest
		for i := newest - 1; i >= 0; i-- {
			cost := t.estimate(history[i])
			if total+cost > budget {
				break
			}
			total += cost
			keepFrom = i
		}
	} else {
		for _, msg := range history {
			total += t.estimate(msg)
		}
	}

	kept := history[keepFrom:]
	result.Messages = make([]model.Message, 0, len(kept)+1)
	if !system.IsEmpty() {
		result.Messages = append(result.Messages, system)
	}
	result.Messages = append(result.Messages, kept...)
	result.Dropped = keepFrom
	result.WasTruncated = keepFrom > 0
	result.Tokens = total

	return result
}

// =============================================================================
// RESULT METHODS
// =============================================================================

// OverBudget reports whether the kept view still exceeds the budget. This
// only happens when the system message plus the newest message do not fit;
// nothing older is kept then.
func (tr *TruncateResult) OverBudget() bool {
	return tr.Budget > 0 && tr.Tokens > tr.Budget
}

// Summary returns a human-readable description of the trim.
func (tr *TruncateResult) Summary() string {
	if !tr.WasTruncated {
		return fmt.Sprintf("%d messages, ~%d tokens", len(tr.Messages), tr.Tokens)
	}
	return fmt.Sprintf("dropped %d oldest messages, kept %d (~%d/%d tokens)",
		tr.Dropped, len(tr.Messages), tr.Tokens, tr.Budget)
}
