package extractor

import (
	"fmt"
	"strings"

	"github.com/kehilathaz/receipts-automation/internal/models"
)

// Anchors of the fixed receipt template. Offsets below are in runes and
// mirror the issued document's layout exactly.
const (
	donorLabel    = "לכבוד"           // precedes the donor account name
	orgLabel      = "עמותת בית הכנסת" // organization name, ends the donor field
	producedLabel = "הופק ב"          // precedes the issue date
	receiptLabel  = "קבלה על תרומה"   // ends the receipt id field
	currencyGlyph = "₪"

	// The receipt id starts after a fixed-length document header.
	idHeaderRunes = 18
	// One separator rune follows each label.
	labelSeparator = 1
	// The issue date ends two runes before the donor label.
	dateTailOffset = 2
)

// ParseReceiptText scrapes the four receipt fields out of first-page text.
// The text must follow the fixed template; a missing anchor is an error.
func ParseReceiptText(text string) (*models.Receipt, error) {
	runes := []rune(text)

	donorIdx, err := anchorIndex(runes, donorLabel)
	if err != nil {
		return nil, err
	}
	orgIdx, err := anchorIndex(runes, orgLabel)
	if err != nil {
		return nil, err
	}
	producedIdx, err := anchorIndex(runes, producedLabel)
	if err != nil {
		return nil, err
	}
	receiptIdx, err := anchorIndex(runes, receiptLabel)
	if err != nil {
		return nil, err
	}

	nameStart := donorIdx + len([]rune(donorLabel)) + labelSeparator
	if nameStart > orgIdx {
		return nil, fmt.Errorf("donor name anchors out of order")
	}
	name := strings.TrimSpace(string(runes[nameStart:orgIdx]))

	dateStart := producedIdx + len([]rune(producedLabel)) + labelSeparator
	dateEnd := donorIdx - dateTailOffset
	if dateStart > dateEnd {
		return nil, fmt.Errorf("issue date anchors out of order")
	}
	date := string(runes[dateStart:dateEnd])

	if idHeaderRunes > receiptIdx {
		return nil, fmt.Errorf("receipt id anchor out of order")
	}
	id := strings.TrimSpace(string(runes[idHeaderRunes:receiptIdx]))

	amount, err := parseAmount(text)
	if err != nil {
		return nil, err
	}

	return &models.Receipt{
		ID:          id,
		AccountName: name,
		IssueDate:   date,
		Amount:      amount,
	}, nil
}

// parseAmount returns the first whitespace-delimited token carrying the
// currency glyph, with the glyph stripped
func parseAmount(text string) (string, error) {
	for _, token := range strings.Fields(text) {
		if strings.Contains(token, currencyGlyph) {
			return strings.ReplaceAll(token, currencyGlyph, ""), nil
		}
	}
	return "", fmt.Errorf("no amount token with %s found", currencyGlyph)
}

// anchorIndex returns the rune index of label within runes
func anchorIndex(runes []rune, label string) (int, error) {
	labelRunes := []rune(label)
	limit := len(runes) - len(labelRunes)
	for i := 0; i <= limit; i++ {
		if string(runes[i:i+len(labelRunes)]) == label {
			return i, nil
		}
	}
	return 0, fmt.Errorf("receipt text missing anchor %q", label)
}
