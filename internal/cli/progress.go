package cli

import (
	"fmt"
	"strings"

	"github.com/focusforge/focusforge/internal/domain"
)

// ─── Progress Bar ───────────────────────────────────────────────────────────
// Renders level progress as: [===========>..................]  37% 555/1500 XP

const barWidth = 30 // Characters for the progress bar

func renderBar(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	filled := int(pct / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	empty := barWidth - filled

	var bar string
	if filled == barWidth {
		bar = strings.Repeat("=", filled)
	} else if filled > 0 {
		bar = strings.Repeat("=", filled-1) + ">" + strings.Repeat(".", empty)
	} else {
		bar = strings.Repeat(".", barWidth)
	}
	return "[" + bar + "]"
}

// levelProgress formats a level's bar, percentage and XP counts.
func levelProgress(info domain.LevelInfo) string {
	return fmt.Sprintf("%s %3.0f%% %d/%d XP",
		renderBar(info.ProgressPercent), info.ProgressPercent, info.CurrentXP, info.RequiredXP)
}
