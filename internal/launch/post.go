package launch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Marker is the line Clawnch scans posts for. It must appear on its own
// line, followed by a json-fenced block with the token parameters.
const Marker = "!clawnch"

// tokenData is serialized into the fenced block. Field order is part of
// the wire format.
type tokenData struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Wallet      string `json:"wallet"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// PostTitle returns the title for the launch post.
func PostTitle(n Normalized) string {
	return "🚀 " + n.Name
}

// PostContent renders the launch post body: a human-readable line, a
// blank line, the marker on its own line, then the fenced token data
// with two-space indentation. Byte-for-byte reproduction matters; the
// downstream service parses this text.
func PostContent(n Normalized) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tokenData{
		Name:        n.Name,
		Symbol:      n.Symbol,
		Wallet:      n.Wallet,
		Description: n.Description,
		Image:       n.ImageURL,
	}); err != nil {
		return "", fmt.Errorf("encode token data: %w", err)
	}
	data := strings.TrimSuffix(buf.String(), "\n")

	return fmt.Sprintf("Launching %s! 🚀\n\n%s\n```json\n%s\n```", n.Name, Marker, data), nil
}
