package sqlcomment

import "strings"

const (
	commentOpen  = "/*"
	commentClose = "*/"
	terminator   = ";"
)

// Compose wraps an encoded tag string in block comment delimiters.
// An empty string yields "/**/".
func Compose(encoded string) string {
	return commentOpen + encoded + commentClose
}

// Splice appends comment to query, separated by exactly one space.
//
// Surrounding whitespace is trimmed first. When the statement ends with a
// terminator the comment goes right before it, so the terminator stays the
// last character:
//
//	Splice("SELECT 1;", "/*a=b*/") // "SELECT 1 /*a=b*/;"
//	Splice("SELECT 1", "/*a=b*/")  // "SELECT 1 /*a=b*/"
//
// Only a terminator at the very end is recognized. Terminators separating
// several statements are left alone.
func Splice(query, comment string) string {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return comment
	}

	if body, ok := strings.CutSuffix(trimmed, terminator); ok {
		body = strings.TrimRight(body, " \t\r\n")
		if body == "" {
			return comment + terminator
		}
		return body + " " + comment + terminator
	}
	return trimmed + " " + comment
}

// ExtractComment returns the body of the block comment that ends query,
// ignoring a trailing terminator and whitespace.
func ExtractComment(query string) (string, bool) {
	_, body, _, ok := trailingComment(query)
	return body, ok
}

// StripComment removes the block comment that ends query. A trailing
// terminator is kept:
//
//	StripComment("SELECT 1 /*a=b*/;") // "SELECT 1;"
//
// Queries without a trailing comment are returned trimmed.
func StripComment(query string) string {
	stmt, _, term, ok := trailingComment(query)
	if !ok {
		return strings.TrimSpace(query)
	}
	if term {
		return stmt + terminator
	}
	return stmt
}

// trailingComment splits query into the statement before its trailing
// comment and the comment body, reporting whether a terminator followed.
func trailingComment(query string) (stmt, body string, term, ok bool) {
	s := strings.TrimSpace(query)
	s, term = strings.CutSuffix(s, terminator)
	s = strings.TrimRight(s, " \t\r\n")
	if !strings.HasSuffix(s, commentClose) {
		return "", "", false, false
	}

	start := strings.LastIndex(s, commentOpen)
	end := len(s) - len(commentClose)
	if start < 0 || start+len(commentOpen) > end {
		return "", "", false, false
	}
	return strings.TrimRight(s[:start], " \t\r\n"), s[start+len(commentOpen) : end], term, true
}

// ParseComment extracts and decodes the trailing comment of query.
// It reports false when query carries no trailing comment.
func ParseComment(query string) (Tags, bool, error) {
	body, ok := ExtractComment(query)
	if !ok {
		return Tags{}, false, nil
	}
	tags, err := ParseTags(body)
	if err != nil {
		return Tags{}, true, err
	}
	return tags, true, nil
}
