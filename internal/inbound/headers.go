package inbound

import "strings"

// HeaderPair is one ordered (name, value) entry from the provider payload's
// message-headers list.
type HeaderPair [2]string

// foldHeaders collapses the ordered header list into a case-insensitive map.
// Later duplicates overwrite earlier ones, mirroring the precedence of the
// raw list.
func foldHeaders(pairs []HeaderPair) map[string]string {
	headers := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name := strings.ToLower(strings.TrimSpace(p[0]))
		if name == "" {
			continue
		}
		headers[name] = strings.TrimSpace(p[1])
	}
	return headers
}

// splitAddressList splits a comma-separated address field, trimming
// whitespace and dropping empty entries.
func splitAddressList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

const summaryMaxLen = 160

// Summarize derives the short preview text stored alongside a message body.
func Summarize(body string) string {
	text := stripTags(body)
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= summaryMaxLen {
		return text
	}
	cut := text[:summaryMaxLen]
	if i := strings.LastIndex(cut, " "); i > summaryMaxLen/2 {
		cut = cut[:i]
	}
	return cut + "…"
}

// stripTags removes HTML tags well enough for a preview line. Not a
// sanitizer; the full body is stored verbatim.
func stripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
