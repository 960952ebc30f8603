package pipeline

import (
	"regexp"
	"strings"
)

// maxSubQueryLength drops lines that are prose rather than queries.
const maxSubQueryLength = 300

var (
	queriesBlock = regexp.MustCompile(`(?is)<queries>(.*?)</queries>`)
	listMarker   = regexp.MustCompile(`^(?:[-*•+]+|\d+[.):]|\(\d+\))\s*`)
	queryLabel   = regexp.MustCompile(`(?i)^(?:sub[- ]?)?(?:search\s+)?query\s*\d*\s*[:.)-]\s*`)
	markupTag    = regexp.MustCompile(`</?[a-zA-Z_]+>`)
)

// ParseSubQueries extracts up to limit search queries from a model
// response. Responses are free-form: fenced code, a <queries> block,
// numbered or bulleted lists and quoted lines are all accepted. Duplicates
// are dropped ignoring case, punctuation and stop words. When nothing
// usable remains the result is the verbatim query.
func ParseSubQueries(response, query string, limit int) []string {
	if limit < 1 {
		limit = 1
	}

	body := stripCodeFences(response)
	if m := queriesBlock.FindStringSubmatch(body); m != nil {
		body = m[1]
	}

	seen := make(map[string]bool)
	var queries []string
	for _, line := range strings.Split(body, "\n") {
		for _, part := range strings.Split(line, ";") {
			q := cleanSubQuery(part)
			if q == "" {
				continue
			}
			key := similarityKey(q)
			if seen[key] {
				continue
			}
			seen[key] = true
			queries = append(queries, q)
			if len(queries) == limit {
				return queries
			}
		}
	}

	if len(queries) == 0 {
		return []string{strings.TrimSpace(query)}
	}
	return queries
}

func stripCodeFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func cleanSubQuery(s string) string {
	s = markupTag.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = listMarker.ReplaceAllString(s, "")
	s = queryLabel.ReplaceAllString(s, "")
	s = strings.Trim(s, " \t\"'`“”‘’")
	s = strings.TrimSpace(s)

	if s == "" || len(s) > maxSubQueryLength {
		return ""
	}
	// Preambles such as "Here are the search queries:"
	if strings.HasSuffix(s, ":") {
		return ""
	}
	return s
}
