// Package parser turns free-form trade alert text into a structured
// option contract.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"options-copilot/internal/errors"
	"options-copilot/internal/models"
)

// Supported alert shapes, tried in order. Hints mirror these for the
// ParseError message.
var (
	// "BTO AAPL 185C 3/15 @ 2.50" (BTO optional, C/P suffix on strike)
	compactRe = regexp.MustCompile(`(?i)^(?:BTO\s+)?([A-Z]{1,5})\s+(\d+(?:\.\d+)?)([CP])\s+(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\s*@\s*\$?(\d+(?:\.\d+)?)$`)

	// "SPY 500 CALL 0DTE @ 1.25" / "TSLA 240 PUT 14DTE @ 3.10"
	dteRe = regexp.MustCompile(`(?i)^([A-Z]{1,5})\s+(\d+(?:\.\d+)?)\s+(CALL|PUT)S?\s+(\d{1,3})\s*DTE\s*@\s*\$?(\d+(?:\.\d+)?)$`)

	// "SPY 500C 0DTE @ 1.20"
	compactDteRe = regexp.MustCompile(`(?i)^(?:BTO\s+)?([A-Z]{1,5})\s+(\d+(?:\.\d+)?)([CP])\s+(\d{1,3})\s*DTE\s*@\s*\$?(\d+(?:\.\d+)?)$`)

	// "$NVDA $800 calls @ $5.20 exp 4/19"
	dollarRe = regexp.MustCompile(`(?i)^\$([A-Z]{1,5})\s+\$?(\d+(?:\.\d+)?)\s+(CALL|PUT)S?\s*@\s*\$?(\d+(?:\.\d+)?)\s+exp\s+(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?$`)
)

var formatHints = []string{
	"TICKER 185C 3/15 @ 2.50",
	"TICKER 500 CALL 0DTE @ 1.25",
	"$TICKER $800 calls @ $5.20 exp 4/19",
}

// Parser parses trade alerts. The clock is injectable so expiration-to-DTE
// conversion is deterministic in tests.
type Parser struct {
	now func() time.Time
}

// NewParser creates a parser using the wall clock.
func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// NewParserAt creates a parser with a fixed clock.
func NewParserAt(now func() time.Time) *Parser {
	return &Parser{now: now}
}

// Parse structures one alert message. A message matching no supported
// shape returns a ParseError carrying the format hints; this is the only
// failure the engine surfaces to the user as an error.
func (p *Parser) Parse(message string) (models.OptionContract, error) {
	text := strings.TrimSpace(message)
	if text == "" {
		return models.OptionContract{}, errors.NewParseError(message, formatHints)
	}

	if m := compactRe.FindStringSubmatch(text); m != nil {
		kind := models.Call
		if strings.EqualFold(m[3], "P") {
			kind = models.Put
		}
		return p.build(message, m[1], m[2], kind, m[7], m[4], m[5], m[6], "")
	}

	if m := dteRe.FindStringSubmatch(text); m != nil {
		kind := models.Call
		if strings.EqualFold(m[3], "PUT") {
			kind = models.Put
		}
		return p.build(message, m[1], m[2], kind, m[5], "", "", "", m[4])
	}

	if m := compactDteRe.FindStringSubmatch(text); m != nil {
		kind := models.Call
		if strings.EqualFold(m[3], "P") {
			kind = models.Put
		}
		return p.build(message, m[1], m[2], kind, m[5], "", "", "", m[4])
	}

	if m := dollarRe.FindStringSubmatch(text); m != nil {
		kind := models.Call
		if strings.EqualFold(m[3], "PUT") {
			kind = models.Put
		}
		return p.build(message, m[1], m[2], kind, m[4], m[5], m[6], m[7], "")
	}

	return models.OptionContract{}, errors.NewParseError(message, formatHints)
}

// build assembles the contract from the captured fields. Either the
// month/day strings or the dte string is populated, never both.
func (p *Parser) build(raw, ticker, strikeStr string, kind models.OptionKind, premiumStr, monthStr, dayStr, yearStr, dteStr string) (models.OptionContract, error) {
	strike, err := strconv.ParseFloat(strikeStr, 64)
	if err != nil || strike <= 0 {
		return models.OptionContract{}, errors.NewParseError(raw, formatHints)
	}
	premium, err := strconv.ParseFloat(premiumStr, 64)
	if err != nil || premium <= 0 {
		return models.OptionContract{}, errors.NewParseError(raw, formatHints)
	}

	contract := models.OptionContract{
		Ticker:     strings.ToUpper(ticker),
		Strike:     strike,
		Kind:       kind,
		Premium:    premium,
		RawMessage: raw,
		ParsedAt:   p.now(),
	}

	if dteStr != "" {
		dte, err := strconv.Atoi(dteStr)
		if err != nil || dte < 0 {
			return models.OptionContract{}, errors.NewParseError(raw, formatHints)
		}
		contract.DTE = dte
		exp := p.today().AddDate(0, 0, dte)
		contract.Expiration = &exp
		return contract, nil
	}

	exp, err := p.expirationDate(monthStr, dayStr, yearStr)
	if err != nil {
		return models.OptionContract{}, errors.NewParseError(raw, formatHints)
	}
	contract.Expiration = &exp
	contract.DTE = int(exp.Sub(p.today()).Hours() / 24)
	if contract.DTE < 0 {
		return models.OptionContract{}, errors.NewParseError(raw, formatHints)
	}
	return contract, nil
}

// expirationDate resolves M/D (and optional year) against the clock: a
// yearless date already past rolls into next year.
func (p *Parser) expirationDate(monthStr, dayStr, yearStr string) (time.Time, error) {
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, errors.New("invalid month")
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, errors.New("invalid day")
	}

	today := p.today()
	year := today.Year()
	if yearStr != "" {
		y, err := strconv.Atoi(yearStr)
		if err != nil {
			return time.Time{}, errors.New("invalid year")
		}
		if y < 100 {
			y += 2000
		}
		year = y
	}

	exp := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if yearStr == "" && exp.Before(today) {
		exp = exp.AddDate(1, 0, 0)
	}
	return exp, nil
}

func (p *Parser) today() time.Time {
	now := p.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
