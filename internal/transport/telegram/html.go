package telegram

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"
)

// htm is Telegram HTML (ParseMode=HTML) that is already escaped.
type htm string

func esc(s string) htm { return htm(html.EscapeString(s)) }

func tag(name string, inner htm) htm { return htm("<" + name + ">" + string(inner) + "</" + name + ">") }

func link(text, url string) htm {
	return htm(fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(url), html.EscapeString(text)))
}

func joinHTML(sep string, parts ...htm) htm {
	ss := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(string(p)) == "" {
			continue
		}
		ss = append(ss, string(p))
	}
	return htm(strings.Join(ss, sep))
}

// truncRunes cuts s to at most n runes, the last being "…" when cut.
func truncRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count, cut := 0, 0
	for i := range s {
		if count == n-1 {
			cut = i
		}
		count++
		if count > n {
			return s[:cut] + "…"
		}
	}
	return s
}

func runeLen(h htm) int { return utf8.RuneCountInString(string(h)) }
