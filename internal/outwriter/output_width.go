package outwriter

import (
	"os"

	"github.com/prelev/prelev/internal/contract"
	"golang.org/x/term"
)

// GetMaxRemarksWidth calculates the maximum width of the remarks column in
// table output based on terminal width.
func GetMaxRemarksWidth(cfg *contract.Config) int {
	termWidth := cfg.Width

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Period + Value columns with borders and padding
	baseWidth := 40

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 80 {
		return 80
	}
	return available
}
