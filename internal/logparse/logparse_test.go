package logparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sysProg   = "11111111111111111111111111111111"
	tokenProg = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
)

func TestGroupByInstruction_SingleInstruction(t *testing.T) {
	logs := []string{
		"Program P invoke [1]",
		"Program log: Success",
		"Program P consumed 200 of 1000 compute units",
		"Program P success",
	}

	grouped := GroupByInstruction(logs)
	require.Len(t, grouped, 1)
	assert.Equal(t, logs, grouped[1])

	cu, ok := ComputeUnitsConsumed(logs)
	require.True(t, ok)
	assert.Equal(t, uint64(200), cu)

	assert.True(t, IsSuccess(logs))
}

func TestGroupByInstruction_NestedCPIStaysInBucket(t *testing.T) {
	logs := []string{
		"Program " + sysProg + " invoke [1]",
		"Program " + tokenProg + " invoke [2]",
		"Program log: Instruction: Transfer",
		"Program " + tokenProg + " success",
		"Program " + sysProg + " success",
	}

	grouped := GroupByInstruction(logs)
	require.Len(t, grouped, 1)
	assert.Len(t, grouped[1], 5)
}

func TestGroupByInstruction_MultipleTopLevel(t *testing.T) {
	logs := []string{
		"Program A invoke [1]",
		"Program A success",
		"Program B invoke [1]",
		"Program C invoke [2]",
		"Program C success",
		"Program B success",
		"Program D invoke [1]",
		"Program D success",
	}

	grouped := GroupByInstruction(logs)
	require.Len(t, grouped, 3)
	assert.Len(t, grouped[1], 2)
	assert.Len(t, grouped[2], 4)
	assert.Len(t, grouped[3], 2)

	// No line spans or duplicates across buckets.
	total := 0
	for _, bucket := range grouped {
		total += len(bucket)
	}
	assert.Equal(t, len(logs), total)
}

func TestGroupByInstruction_EmptyInput(t *testing.T) {
	assert.Empty(t, GroupByInstruction(nil))
	assert.Empty(t, GroupByInstruction([]string{}))
}

func TestGroupByInstruction_OrphanNestedLinesDropped(t *testing.T) {
	// A partial stream that opens at depth 2 has no bucket to attach to.
	logs := []string{
		"Program " + tokenProg + " invoke [2]",
		"Program " + tokenProg + " success",
	}
	assert.Empty(t, GroupByInstruction(logs))
}

func TestGroupByInstruction_LeadingNoiseDropped(t *testing.T) {
	logs := []string{
		"Program log: stray line",
		"Program A invoke [1]",
		"Program A success",
	}
	grouped := GroupByInstruction(logs)
	require.Len(t, grouped, 1)
	assert.Equal(t, []string{"Program A invoke [1]", "Program A success"}, grouped[1])
}

func TestExtractProgramID(t *testing.T) {
	id, ok := ExtractProgramID("Program " + tokenProg + " invoke [2]")
	require.True(t, ok)
	assert.Equal(t, tokenProg, id)

	_, ok = ExtractProgramID("Program log: Instruction: Transfer")
	assert.False(t, ok)

	_, ok = ExtractProgramID("Program " + tokenProg + " success")
	assert.False(t, ok)
}

func TestIsSuccess_Failure(t *testing.T) {
	logs := []string{
		"Program A invoke [1]",
		"Program log: Instruction: Swap",
		"Program A failed: custom program error: 0x1",
	}
	assert.False(t, IsSuccess(logs))
}

func TestIsSuccess_FailureBeyondTailIgnored(t *testing.T) {
	// An inner failure that was handled and followed by a clean tail.
	logs := []string{
		"Program A invoke [1]",
		"Program B invoke [2]",
		"Program B failed: custom program error: 0x0",
		"Program A success",
		"Program C invoke [1]",
		"Program C success",
		"Program D invoke [1]",
		"Program D success",
		"Program E invoke [1]",
		"Program E success",
	}
	assert.True(t, IsSuccess(logs))
}

func TestIsSuccess_Empty(t *testing.T) {
	assert.True(t, IsSuccess(nil))
}

func TestComputeUnitsConsumed_NoMatch(t *testing.T) {
	_, ok := ComputeUnitsConsumed([]string{"Program A invoke [1]", "Program A success"})
	assert.False(t, ok)
}

func TestComputeUnitsConsumed_FirstMatchWins(t *testing.T) {
	logs := []string{
		"Program A consumed 450 of 200000 compute units",
		"Program B consumed 700 of 199550 compute units",
	}
	cu, ok := ComputeUnitsConsumed(logs)
	require.True(t, ok)
	assert.Equal(t, uint64(450), cu)
}
