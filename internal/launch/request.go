package launch

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"agentlaunch/internal/services"
)

const (
	maxNameLen        = 50
	maxSymbolLen      = 10
	maxDescriptionLen = 500

	descriptionSuffix = " - Launched via Agent Tokenizer"
)

var upper = cases.Upper(language.Und)

// Request carries the raw launch parameters exactly as submitted.
type Request struct {
	APIKey      string
	Name        string
	Symbol      string
	Description string
	ImageURL    string
	Wallet      string
}

// Normalized is a Request after validation, defaulting, and truncation.
// Its fields feed the post template verbatim.
type Normalized struct {
	APIKey      string
	Name        string
	Symbol      string
	Description string
	ImageURL    string
	Wallet      string
}

// Normalize validates required fields and length caps, then applies the
// canonical transformations: symbol uppercased and truncated, description
// defaulted and capped, image defaulted. No network calls are made here;
// every rejection is a FlowError with status 400.
func (r Request) Normalize(fallbackImageURL string) (Normalized, error) {
	var empty Normalized

	apiKey := strings.TrimSpace(r.APIKey)
	name := strings.TrimSpace(r.Name)
	symbol := strings.TrimSpace(r.Symbol)
	wallet := strings.TrimSpace(r.Wallet)

	if apiKey == "" || name == "" || symbol == "" || wallet == "" {
		return empty, &FlowError{
			Status:  400,
			Message: "api_key, name, symbol, and wallet are required",
			Err:     services.ErrValidation,
		}
	}
	if len([]rune(name)) > maxNameLen {
		return empty, &FlowError{
			Status:  400,
			Message: "Token name too long (max 50 chars)",
			Err:     services.ErrValidation,
		}
	}
	if len([]rune(symbol)) > maxSymbolLen {
		return empty, &FlowError{
			Status:  400,
			Message: "Symbol too long (max 10 chars)",
			Err:     services.ErrValidation,
		}
	}

	description := strings.TrimSpace(r.Description)
	if description == "" {
		description = name + descriptionSuffix
	}
	description = truncate(description, maxDescriptionLen)

	image := strings.TrimSpace(r.ImageURL)
	if image == "" {
		image = fallbackImageURL
	}

	return Normalized{
		APIKey:      apiKey,
		Name:        truncate(name, maxNameLen),
		Symbol:      truncate(upper.String(symbol), maxSymbolLen),
		Description: description,
		ImageURL:    image,
		Wallet:      wallet,
	}, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
