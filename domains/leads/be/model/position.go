package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// PaymentFrequency is how often a position is repaid.
type PaymentFrequency string

const (
	PaymentDaily  PaymentFrequency = "Daily"
	PaymentWeekly PaymentFrequency = "Weekly"
)

// ParsePaymentFrequency converts a raw value, defaulting blank input to Daily.
func ParsePaymentFrequency(raw string) (PaymentFrequency, error) {
	switch strings.TrimSpace(raw) {
	case "", string(PaymentDaily):
		return PaymentDaily, nil
	case string(PaymentWeekly):
		return PaymentWeekly, nil
	default:
		return "", fmt.Errorf("unknown payment frequency %q", raw)
	}
}

// Position is an existing advance the merchant is still repaying.
type Position struct {
	ID               uuid.UUID        `json:"id"`
	LenderName       string           `json:"lenderName"`
	OriginalAmount   float64          `json:"originalAmount"`
	CurrentBalance   float64          `json:"currentBalance"`
	PaymentFrequency PaymentFrequency `json:"paymentFrequency"`
}

var trailingAmount = regexp.MustCompile(`\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*$`)

// ParseLegacyPositions converts free-text balances such as
// "Lender A: 15000; Lender B 8,000" into positions. Each chunk yields one
// position whose balance is the trailing number; chunks without a number keep
// the whole text as the lender name and a zero balance.
func ParseLegacyPositions(text string) []Position {
	chunks := splitLegacyChunks(text)
	positions := make([]Position, 0, len(chunks))
	for _, chunk := range chunks {
		positions = append(positions, parseLegacyChunk(chunk))
	}
	return positions
}

func parseLegacyChunk(chunk string) Position {
	p := Position{ID: uuid.New(), LenderName: chunk, PaymentFrequency: PaymentDaily}

	match := trailingAmount.FindStringSubmatchIndex(chunk)
	if match == nil {
		return p
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(chunk[match[2]:match[3]], ",", ""), 64)
	if err != nil {
		return p
	}

	name := strings.TrimRight(strings.TrimSpace(chunk[:match[0]]), ":-=")
	if name = strings.TrimSpace(name); name != "" {
		p.LenderName = name
	}
	p.OriginalAmount = amount
	p.CurrentBalance = amount
	return p
}

// splitLegacyChunks splits on semicolons, newlines and commas that are not
// digit group separators.
func splitLegacyChunks(text string) []string {
	var (
		chunks []string
		start  int
	)
	flush := func(end int) {
		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		start = end + 1
	}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case ';', '\n':
			flush(i)
		case ',':
			if !isDigitAt(text, i-1) || !isDigitAt(text, i+1) {
				flush(i)
			}
		}
	}
	if start < len(text) {
		flush(len(text))
	}
	return chunks
}

func isDigitAt(s string, i int) bool {
	return i >= 0 && i < len(s) && s[i] >= '0' && s[i] <= '9'
}
