package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when a response holds nothing that looks like JSON.
var ErrNoJSON = errors.New("no JSON object found in content")

var fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\\r?\\n?(.*?)```")

// StripCodeFence returns the inner content of the first fenced code block
// in content, and whether one was found.
func StripCodeFence(content string) (string, bool) {
	m := fencePattern.FindStringSubmatch(content)
	if m == nil {
		return content, false
	}
	return strings.TrimSpace(m[1]), true
}

// JSONCandidate isolates the JSON part of an oracle answer: the inside of
// a fenced block when there is one, otherwise the span from the first '{'
// to the last '}'. It returns ErrNoJSON when neither applies.
func JSONCandidate(content string) (string, error) {
	if inner, ok := StripCodeFence(content); ok {
		return inner, nil
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return "", ErrNoJSON
	}
	return content[start : end+1], nil
}

// DecodeJSON runs JSONCandidate on content and unmarshals the result into v.
func DecodeJSON(content string, v any) error {
	candidate, err := JSONCandidate(content)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(candidate), v)
}
