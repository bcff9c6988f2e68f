package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/roach88/slayout/internal/abi"
	"github.com/roach88/slayout/internal/layout"
)

// layoutText renders a layout for terminals: one fragment per line,
// conflicts in red and untyped fragments faint.
type layoutText struct {
	layout *layout.StorageLayout
}

func (t layoutText) String() string {
	if t.layout == nil || t.layout.Len() == 0 {
		return color.New(color.Faint).Sprint("no storage fragments") + "\n"
	}

	bold := color.New(color.Bold).SprintFunc()
	var b strings.Builder
	for _, s := range t.layout.Slots() {
		fmt.Fprintf(&b, "%s %s: %s\n",
			bold("slot "+s.Index.Hex()),
			fmt.Sprintf("offset %d", s.Offset),
			typeColor(s.Typ).Sprint(s.Typ.String()))
	}
	if n := len(t.layout.Conflicts()); n > 0 {
		color.New(color.FgRed, color.Bold).Fprintf(&b, "%d conflicting fragment(s)\n", n)
	}
	return b.String()
}

func typeColor(t abi.AbiType) *color.Color {
	switch t.Kind {
	case abi.KindConflict:
		return color.New(color.FgRed)
	case abi.KindAny:
		return color.New(color.Faint)
	case abi.KindMapping:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgGreen)
	}
}
