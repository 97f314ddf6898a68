// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"fmt"
	"time"

	"github.com/connectomedb/cdb-cli-sdk/sdk/config"
)

/* ------------ single-line progress for multi-object transfers ------------ */

// Progress renders one line for a whole batch of objects.
type Progress struct {
	verb       string
	totalKnown bool
	totalBytes int64
	doneBytes  int64
	spinIdx    int
	lastTick   time.Time
}

var spinner = []rune{'|', '/', '-', '\\'}

// NewProgress starts a progress line; total <= 0 means unknown.
func NewProgress(verb string, total int64) *Progress {
	return &Progress{verb: verb, totalKnown: total > 0, totalBytes: total}
}

func (gp *Progress) Add(delta int64) {
	gp.doneBytes += delta
}

func (gp *Progress) Render(force bool) {
	// throttle to ~10 updates per second
	if !force && time.Since(gp.lastTick) < 100*time.Millisecond {
		return
	}
	gp.lastTick = time.Now()

	if gp.totalKnown && gp.totalBytes > 0 {
		if gp.doneBytes > gp.totalBytes {
			gp.doneBytes = gp.totalBytes
		}
		pct := float64(gp.doneBytes) / float64(gp.totalBytes) * 100
		fmt.Fprintf(LogOutput, "\rProgress: %6.2f%% (%s / %s)   ",
			pct, HumanBytes(gp.doneBytes), HumanBytes(gp.totalBytes))
		return
	}
	ch := spinner[gp.spinIdx%len(spinner)]
	gp.spinIdx++
	fmt.Fprintf(LogOutput, "\rProgress: [%c] %s %s   ", ch, HumanBytes(gp.doneBytes), gp.verb)
}

func (gp *Progress) Done() {
	gp.Render(true)
	fmt.Fprintln(LogOutput)
}

// Hook feeds one object's transfer events into the batch line.
func (gp *Progress) Hook() *config.ProgressHook {
	var prevWritten int64
	return &config.ProgressHook{
		OnProgress: func(_ string, written, _ int64) {
			if delta := written - prevWritten; delta > 0 {
				gp.Add(delta)
				gp.Render(false)
			}
			prevWritten = written
		},
		OnDone: func(_ string, total int64, _ time.Duration) {
			// count the whole object even if the last chunk was not reported
			if total > prevWritten {
				gp.Add(total - prevWritten)
			}
			gp.Render(true)
		},
	}
}

// VerboseHook prints per-object size and percentage.
func VerboseHook(verb string) *config.ProgressHook {
	return &config.ProgressHook{
		OnStart: func(_ string, total int64) {
			if total > 0 {
				fmt.Fprintf(LogOutput, "      └─ size: %s\n", HumanBytes(total))
			}
		},
		OnProgress: func(_ string, written, total int64) {
			if total <= 0 {
				return
			}
			pct := float64(written) / float64(total) * 100
			fmt.Fprintf(LogOutput, "\r      └─ %s: %6.2f%%", verb, pct)
		},
		OnDone: func(_ string, total int64, took time.Duration) {
			if total > 0 {
				fmt.Fprintf(LogOutput, "\r      └─ done:        100.00%% in %s\n", took.Truncate(100*time.Millisecond))
			} else {
				fmt.Fprintf(LogOutput, "      └─ done in %s\n", took.Truncate(100*time.Millisecond))
			}
		},
	}
}
