package domain

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// urlPattern matches bare and schemed URLs in post text.
var urlPattern = regexp.MustCompile(`\b(?:https?://)?[\w-]+(?:\.[\w-]+)+(?:[\w.,@?^=%&:/~+#-]*[\w@?^=%&/~+#-])?`)

// FormatText converts raw post text to the stored HTML form: escaped,
// with URLs wrapped in anchors and newlines as <br>. Text posts persist
// this form so every page variant renders links identically.
func FormatText(text string) string {
	escaped := html.EscapeString(text)
	linked := urlPattern.ReplaceAllStringFunc(escaped, func(u string) string {
		href := u
		if !strings.HasPrefix(href, "http") {
			href = "https://" + href
		}
		return fmt.Sprintf(`<a href="%s" target="_blank">%s</a>`, href, u)
	})
	return strings.ReplaceAll(linked, "\n", "<br>")
}
