// Package stats extracts named statistics from simulator log files.
//
// The simulator prints one statistic per line: a two-character prefix, the
// statistic key, whitespace and the numeric value, e.g.
//
//	## miss_rate 12.5
//
// Blanks between the prefix and the key are skipped, and the value is the
// token following the key, so "##miss_rate 12.5" reads the same.
//
// Logs may hold the output of several runs appended together, so only the
// first occurrence of a key is meaningful.
package stats

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// prefixWidth is the width of the fixed prefix in front of every key.
const prefixWidth = 2

const maxLineBytes = 1024 * 1024

// ErrMalformed is returned when a line matches a key but carries no
// parseable value.
var ErrMalformed = errors.New("malformed statistic line")

// Sample is the outcome of looking up one key.
type Sample struct {
	// Value is the parsed statistic, 0 when not found.
	Value float64

	// Found reports whether a line matched the key.
	Found bool

	// Line is the 1-based line number of the match.
	Line int
}

// Extract returns the value of the first line in the log at path that
// matches key, or 0 when no line matches. Callers cannot tell an absent
// statistic from a zero one; use Lookup when that matters.
func Extract(path, key string) (float64, error) {
	value, _, err := Lookup(path, key)
	return value, err
}

// Lookup is like Extract but also reports whether the key was found.
func Lookup(path, key string) (float64, bool, error) {
	samples, err := LookupAll(path, []string{key})
	if err != nil {
		return 0, false, err
	}
	s := samples[key]
	return s.Value, s.Found, nil
}

// LookupAll scans the log at path once and returns the first match of every
// key. Keys that never match map to a zero Sample.
func LookupAll(path string, keys []string) (map[string]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open log")
	}
	defer func() { _ = f.Close() }()

	samples, err := ScanAll(f, keys)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read log %s", path)
	}
	return samples, nil
}

// Scan reads r and returns the first match of key.
func Scan(r io.Reader, key string) (float64, bool, error) {
	samples, err := ScanAll(r, []string{key})
	if err != nil {
		return 0, false, err
	}
	s := samples[key]
	return s.Value, s.Found, nil
}

// ScanAll reads r line by line and returns the first match of every key.
// Reading stops early once every key has been found.
func ScanAll(r io.Reader, keys []string) (map[string]Sample, error) {
	samples := make(map[string]Sample, len(keys))
	for _, k := range keys {
		samples[k] = Sample{}
	}
	pending := len(samples)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for pending > 0 && scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if len(line) < prefixWidth {
			continue
		}
		rest := strings.TrimLeft(line[prefixWidth:], " \t")

		for _, k := range keys {
			if samples[k].Found || !strings.HasPrefix(rest, k) {
				continue
			}
			v, err := parseValue(rest)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d, key %s", lineNo, k)
			}
			samples[k] = Sample{Value: v, Found: true, Line: lineNo}
			pending--
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// parseValue parses the token following the key in rest, the line with its
// prefix removed.
func parseValue(rest string) (float64, error) {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return 0, errors.Wrapf(ErrMalformed, "%q has no value", rest)
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformed, "%q: %v", rest, err)
	}
	return v, nil
}
