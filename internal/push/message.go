package push

import (
	"fmt"
	"sort"
	"strings"
)

const (
	KindWork  = "WORK"
	KindBreak = "BREAK"
)

const title = "Timeclock"

// Message is the JSON payload delivered to the service worker.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// NormalizeLang maps a browser language tag to a supported language.
func NormalizeLang(lang string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(lang)), "de") {
		return "de"
	}
	return "en"
}

// FormatDuration renders minutes as "2 hours, 5 minutes" or "2 Stunden, 5 Minuten".
func FormatDuration(minutes int, lang string) string {
	de := NormalizeLang(lang) == "de"
	unit := func(n int, en, enPlural, deOne, dePlural string) string {
		switch {
		case de && n == 1:
			return fmt.Sprintf("%d %s", n, deOne)
		case de:
			return fmt.Sprintf("%d %s", n, dePlural)
		case n == 1:
			return fmt.Sprintf("%d %s", n, en)
		default:
			return fmt.Sprintf("%d %s", n, enPlural)
		}
	}

	if minutes < 60 {
		// below an hour the plural form is used even for 1
		if de {
			return fmt.Sprintf("%d Minuten", minutes)
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	h, m := minutes/60, minutes%60
	hours := unit(h, "hour", "hours", "Stunde", "Stunden")
	if m == 0 {
		return hours
	}
	return hours + ", " + unit(m, "minute", "minutes", "Minute", "Minuten")
}

// Thresholds returns the positive, de-duplicated thresholds in ascending order.
func Thresholds(values []int) []int {
	seen := make(map[int]bool, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if v <= 0 || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// ThresholdMessage is the notification for a reached work or break threshold.
func ThresholdMessage(kind string, totalMinutes int, lang string) Message {
	amount := FormatDuration(totalMinutes, lang)
	var body string
	switch {
	case kind == KindWork && NormalizeLang(lang) == "de":
		body = fmt.Sprintf("Du hast bis jetzt %s gearbeitet.", amount)
	case kind == KindWork:
		body = fmt.Sprintf("You have worked %s so far.", amount)
	case NormalizeLang(lang) == "de":
		body = fmt.Sprintf("Du hast bis jetzt %s Pause gemacht.", amount)
	default:
		body = fmt.Sprintf("You have taken %s break so far.", amount)
	}
	return Message{Title: title, Body: body, URL: "/"}
}

// TestMessage is sent by the "test notification" endpoint.
func TestMessage(lang string) Message {
	body := "This is a test notification."
	if NormalizeLang(lang) == "de" {
		body = "Das ist eine Test-Benachrichtigung."
	}
	return Message{Title: title, Body: body, URL: "/settings"}
}
