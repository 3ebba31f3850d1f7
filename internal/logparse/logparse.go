// Package logparse reconstructs per-instruction structure from the flat
// ordered log stream a Solana node returns for an executed or simulated
// transaction.
//
// Log lines look like:
//
//	Program 11111111111111111111111111111111 invoke [1]
//	Program log: Instruction: Transfer
//	Program TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA invoke [2]
//	Program TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA success
//	Program 11111111111111111111111111111111 consumed 450 of 200000 compute units
//	Program 11111111111111111111111111111111 success
//
// A depth marker of [1] opens a new top-level instruction; deeper markers are
// cross-program invocations and stay attached to the instruction that
// triggered them.
package logparse

import (
	"strconv"
	"strings"
)

const (
	invokePrefix = "Program "
	// failureTailWindow is how many trailing lines are checked for a failure
	// marker; node output puts the verdict at the end of the stream.
	failureTailWindow = 5
)

// GroupByInstruction buckets log lines by 1-based top-level instruction
// position. Each depth-1 invoke line opens a bucket; every following line,
// including nested CPI invokes, joins the current bucket until the next
// depth-1 invoke. Lines before the first depth-1 invoke are dropped:
// a truncated stream with no opener yields no buckets.
func GroupByInstruction(logs []string) map[int][]string {
	grouped := make(map[int][]string)
	current := 0
	for _, line := range logs {
		if isTopLevelInvoke(line) {
			current++
		}
		if current == 0 {
			continue
		}
		grouped[current] = append(grouped[current], line)
	}
	return grouped
}

func isTopLevelInvoke(line string) bool {
	return strings.HasPrefix(line, invokePrefix) &&
		strings.HasSuffix(strings.TrimRight(line, " "), " invoke [1]")
}

// ExtractProgramID pulls the program address out of an invoke line.
func ExtractProgramID(line string) (string, bool) {
	if !strings.HasPrefix(line, invokePrefix) || !strings.Contains(line, " invoke [") {
		return "", false
	}
	rest := strings.TrimPrefix(line, invokePrefix)
	id, _, ok := strings.Cut(rest, " ")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// IsSuccess reports whether a log stream describes a successful execution.
// The node writes the verdict in the trailing lines, so the tail is scanned
// for failure markers; an explicit "Transaction failed" anywhere also counts.
func IsSuccess(logs []string) bool {
	start := len(logs) - failureTailWindow
	if start < 0 {
		start = 0
	}
	for _, line := range logs[start:] {
		if strings.Contains(line, " failed") || strings.Contains(line, "Error:") {
			return false
		}
	}
	for _, line := range logs {
		if strings.HasPrefix(line, "Transaction failed") {
			return false
		}
	}
	return true
}

// ComputeUnitsConsumed parses the first "consumed N of M compute units"
// line and returns N.
func ComputeUnitsConsumed(logs []string) (uint64, bool) {
	for _, line := range logs {
		before, _, found := strings.Cut(line, " of ")
		if !found || !strings.HasSuffix(line, " compute units") {
			continue
		}
		idx := strings.LastIndex(before, " consumed ")
		if idx < 0 {
			continue
		}
		n, err := strconv.ParseUint(before[idx+len(" consumed "):], 10, 64)
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}
