// Package lineup handles the textual and structured forms of a court lineup.
//
// Lineups are stored as free text. Older rows carry HTML-escaped line breaks
// and a single-line "Court N: A & B" format; newer clients may send a
// versioned JSON document. Clean turns all of them into the canonical
// multi-line text:
//
//	Court 1:
//	  Ad: Alice
//	  Deuce: Bob
package lineup

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CurrentVersion is the format version assigned to lineups parsed from text.
const CurrentVersion = 1

// ErrUnparseable is returned when text is neither JSON nor the court format.
var ErrUnparseable = errors.New("lineup: text does not match a known format")

// Assignment is the pair of players placed on one court.
type Assignment struct {
	Court int    `json:"court"`
	Ad    string `json:"ad"`
	Deuce string `json:"deuce"`
}

// Lineup is an ordered list of court assignments.
type Lineup struct {
	Version int          `json:"version"`
	Courts  []Assignment `json:"courts"`
}

var (
	breakPattern  = regexp.MustCompile(`(?i)(&lt;|<)br\s*/?\s*(&gt;|>)`)
	legacyPattern = regexp.MustCompile(`^\s*Court\s+(\d+)\s*:\s*(.+?)\s*&\s*(.+?)\s*$`)
	headerPattern = regexp.MustCompile(`^\s*Court\s+(\d+)\s*:\s*$`)
	slotPattern   = regexp.MustCompile(`^\s*(Ad|Deuce)\s*:\s*(.*?)\s*$`)
)

// Clean is a best-effort migration of stored lineup text to the canonical
// form. Text it does not recognise is returned with only the HTML entity
// cleanup applied.
func Clean(text string) string {
	if text == "" {
		return text
	}

	cleaned := breakPattern.ReplaceAllString(text, "\n")
	cleaned = strings.ReplaceAll(cleaned, "&amp;", "&")

	if l, err := parseJSON(cleaned); err == nil {
		return l.Text()
	}

	return reflowLegacy(cleaned)
}

// reflowLegacy rewrites "Court N: A & B" lines and leaves every other line as is.
func reflowLegacy(text string) string {
	lines := strings.Split(text, "\n")

	found := false
	for _, line := range lines {
		if legacyPattern.MatchString(line) {
			found = true
			break
		}
	}
	if !found {
		return text
	}

	var b strings.Builder
	for _, line := range lines {
		if m := legacyPattern.FindStringSubmatch(line); m != nil {
			fmt.Fprintf(&b, "Court %s:\n  Ad: %s\n  Deuce: %s\n", m[1], m[2], m[3])
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// Parse reads a lineup from versioned JSON, the canonical multi-line text or
// the legacy single-line format.
func Parse(text string) (*Lineup, error) {
	if l, err := parseJSON(text); err == nil {
		return l, nil
	}

	text = Clean(text)
	l := &Lineup{Version: CurrentVersion}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := headerPattern.FindStringSubmatch(line); m != nil {
			court, _ := strconv.Atoi(m[1])
			l.Courts = append(l.Courts, Assignment{Court: court})
			continue
		}
		m := slotPattern.FindStringSubmatch(line)
		if m == nil || len(l.Courts) == 0 {
			return nil, ErrUnparseable
		}
		current := &l.Courts[len(l.Courts)-1]
		if m[1] == "Ad" {
			current.Ad = m[2]
		} else {
			current.Deuce = m[2]
		}
	}

	if len(l.Courts) == 0 {
		return nil, ErrUnparseable
	}
	return l, nil
}

func parseJSON(text string) (*Lineup, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, ErrUnparseable
	}

	var l Lineup
	if err := json.Unmarshal([]byte(trimmed), &l); err != nil {
		return nil, fmt.Errorf("lineup: decode json: %w", err)
	}
	if l.Version < 1 || len(l.Courts) == 0 {
		return nil, ErrUnparseable
	}
	return &l, nil
}

// Text renders the canonical multi-line form.
func (l *Lineup) Text() string {
	var b strings.Builder
	for _, c := range l.Courts {
		fmt.Fprintf(&b, "Court %d:\n  Ad: %s\n  Deuce: %s\n", c.Court, c.Ad, c.Deuce)
	}
	return b.String()
}
