package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/SAP-F-2025/lesson-service/internal/services"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintImportSummary(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	printImportSummary(&out, "lessons.xlsx", &services.ImportResult{
		TotalRows:      3,
		ProcessedRows:  2,
		ChallengeIDs:   []string{"video-1", "odin-1"},
		Errors:         []services.ImportRowError{{Row: 4, Column: "solution", Message: "must be a number"}},
		ProcessingTime: 1500 * time.Microsecond,
	})

	assert.Equal(t, "lessons.xlsx: 3 row(s), 2 processed in 2ms\n"+
		"imported 2 challenge(s)\n"+
		"  video-1\n"+
		"  odin-1\n"+
		"row 4, solution: must be a number\n", out.String())
}

func TestImportCommand_RequiresWorkbook(t *testing.T) {
	cmd := newImportCommand()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}
