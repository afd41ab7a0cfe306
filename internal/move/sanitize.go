package move

import (
	"strings"
)

// protocolLabels are engine-protocol words some providers leave in front of the move.
var protocolLabels = []string{"bestmove", "move"}

// Sanitize extracts a coordinate move token from raw provider text such as
// "bestmove e2e4 ponder e7e5". It returns "" when no usable move is present.
func Sanitize(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	token := fields[0]
	for _, label := range protocolLabels {
		if strings.EqualFold(token, label) {
			if len(fields) < 2 {
				return ""
			}
			token = fields[1]
			break
		}
	}

	m, err := Parse(strings.ToLower(token))
	if err != nil {
		return ""
	}
	return m.String()
}
