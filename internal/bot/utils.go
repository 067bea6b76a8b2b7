package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/lithammer/dedent"
)

func formatReplyText(text string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(text)), a...)
}

func parseCommand(s string) (string, []string) {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return "", nil
	}
	// Commands in groups may be addressed as /cmd@botname
	command, _, _ := strings.Cut(parts[0], "@")
	return command, parts[1:]
}

// weightRegex matches weights in kilograms:
// - Plain numbers: "12", "12.5"
// - Decimal comma: "12,5"
// - With unit: "12kg", "12 kg", "12 KG"
// The entire input (after trimming) must match the pattern.
var weightRegex = regexp.MustCompile(`(?i)^(\d+(?:[.,]\d+)?)\s*(?:kg|kgs|kilos?)?$`)

func parseWeight(text string) (float64, error) {
	m := weightRegex.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, fmt.Errorf("no weight found")
	}
	return strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
}

// formatKg renders a weight or CO2 figure with thousands separators and at
// most one decimal ("1,284", "37.5").
func formatKg(kg float64) string {
	return humanize.CommafWithDigits(kg, 1)
}
