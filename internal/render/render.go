// Package render formats assembled traces for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/soltrace/soltrace/internal/debugger"
	"github.com/soltrace/soltrace/internal/ledger"
)

const lamportsPerSOL = 1_000_000_000

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00C853")).
		Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6347")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))
)

// SOL renders a lamport amount as a SOL decimal, trailing zeros trimmed.
func SOL(lamports uint64) string {
	d := decimal.NewFromUint64(lamports).Div(decimal.NewFromInt(lamportsPerSOL))
	return d.String() + " SOL"
}

// Trace renders one assembled trace as a multi-line report.
func Trace(tx *debugger.DebugTransaction) string {
	var b strings.Builder

	if tx.Signature != "" {
		b.WriteString(titleStyle.Render("Transaction "+tx.Signature) + "\n")
	} else {
		b.WriteString(titleStyle.Render("Draft transaction") + "\n")
	}
	b.WriteString(labelStyle.Render("Network: ") + tx.Network + "\n")
	if tx.Slot != 0 {
		b.WriteString(labelStyle.Render("Slot:    ") + fmt.Sprintf("%d", tx.Slot) + "\n")
	}
	if tx.BlockTime != nil {
		b.WriteString(labelStyle.Render("Time:    ") + tx.BlockTime.UTC().Format("2006-01-02 15:04:05 UTC") + "\n")
	}
	if tx.Success {
		b.WriteString(labelStyle.Render("Status:  ") + okStyle.Render("success") + "\n")
	} else {
		b.WriteString(labelStyle.Render("Status:  ") + failStyle.Render("failed: "+tx.Err) + "\n")
	}
	b.WriteString(labelStyle.Render("Compute: ") + fmt.Sprintf("%d units", tx.ComputeUnits) + "\n")

	for _, ins := range tx.Instructions {
		b.WriteString("\n" + instruction(ins))
	}

	if len(tx.Diffs) > 0 {
		b.WriteString("\n" + titleStyle.Render("Account changes") + "\n")
		for _, d := range tx.Diffs {
			b.WriteString(diff(d))
		}
	}
	return b.String()
}

func instruction(ins *debugger.DebugInstruction) string {
	var b strings.Builder

	name := ins.Name
	if name == "" {
		name = "<unknown>"
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("#%d %s", ins.Index, name)))
	b.WriteString(dimStyle.Render(" (" + ins.ProgramLabel + ")"))
	b.WriteString("\n")

	if ins.DecodeErr != "" {
		b.WriteString("  " + failStyle.Render("decode error: "+ins.DecodeErr) + "\n")
	}
	for _, arg := range ins.Args {
		b.WriteString(fmt.Sprintf("  %s = %v\n", labelStyle.Render(arg.Name), arg.Value))
	}
	for _, a := range ins.Accounts {
		flags := ""
		if a.Writable {
			flags += "w"
		}
		if a.Signer {
			flags += "s"
		}
		if flags != "" {
			flags = " [" + flags + "]"
		}
		b.WriteString(fmt.Sprintf("  %s: %s%s\n", labelStyle.Render(a.Name), a.Address, dimStyle.Render(flags)))
	}
	for _, line := range ins.Logs {
		b.WriteString("  " + dimStyle.Render(line) + "\n")
	}
	return b.String()
}

func diff(d ledger.AccountDiff) string {
	var b strings.Builder

	switch {
	case d.Err != "":
		b.WriteString(fmt.Sprintf("  %s %s\n", d.Address, failStyle.Render("(fetch error: "+d.Err+")")))
		return b.String()
	case d.Created():
		b.WriteString(fmt.Sprintf("  %s %s\n", d.Address, okStyle.Render("(created)")))
	case d.Closed():
		b.WriteString(fmt.Sprintf("  %s %s\n", d.Address, failStyle.Render("(closed)")))
	default:
		b.WriteString(fmt.Sprintf("  %s\n", d.Address))
	}

	for field, ch := range d.Changed {
		before := fieldValue(field, ch.Before)
		after := fieldValue(field, ch.After)
		b.WriteString(fmt.Sprintf("    %s: %s -> %s\n", labelStyle.Render(field), before, after))
	}
	return b.String()
}

// fieldValue formats one side of a change. Lamport balances render as SOL;
// an absent side renders as a dash so closure reads differently from zero.
func fieldValue(field string, v any) string {
	if v == nil {
		return dimStyle.Render("-")
	}
	if field == ledger.FieldLamports {
		switch n := v.(type) {
		case uint64:
			return SOL(n)
		case float64:
			return SOL(uint64(n))
		}
	}
	if field == ledger.FieldData {
		if data, ok := v.([]byte); ok {
			return fmt.Sprintf("%d bytes", len(data))
		}
		if s, ok := v.(string); ok {
			return fmt.Sprintf("%d bytes", len(s))
		}
	}
	return fmt.Sprintf("%v", v)
}
