package vecio

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/fannsbench/unify/internal/errors"
	"github.com/fannsbench/unify/internal/slots"
)

// ReadAttributes decodes an attribute file: one integer per line, row-aligned
// with the vector dataset. Blank lines are skipped.
func ReadAttributes(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIOError(err, "vecio.read_attributes", "unable to open file").
			WithContext("path", path)
	}
	defer f.Close()

	var attrs []int64
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, errors.WrapIOError(err, "vecio.read_attributes", "invalid attribute value").
				WithContext("path", path).WithContext("line", lineNo)
		}
		attrs = append(attrs, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapIOError(err, "vecio.read_attributes", "read failed").
			WithContext("path", path)
	}
	return attrs, nil
}

// ReadRanges decodes a query ranges file: one dash-separated "low-high"
// integer pair per line, aligned by position to the query vectors.
func ReadRanges(path string) ([]slots.Range, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIOError(err, "vecio.read_ranges", "unable to open file").
			WithContext("path", path)
	}
	defer f.Close()

	var ranges []slots.Range
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		lowStr, highStr, ok := strings.Cut(line, "-")
		if !ok {
			return nil, errors.NewIOError("vecio.read_ranges", "missing dash separator").
				WithContext("path", path).WithContext("line", lineNo)
		}
		low, err := strconv.ParseInt(strings.TrimSpace(lowStr), 10, 64)
		if err != nil {
			return nil, errors.WrapIOError(err, "vecio.read_ranges", "invalid range lower bound").
				WithContext("path", path).WithContext("line", lineNo)
		}
		high, err := strconv.ParseInt(strings.TrimSpace(highStr), 10, 64)
		if err != nil {
			return nil, errors.WrapIOError(err, "vecio.read_ranges", "invalid range upper bound").
				WithContext("path", path).WithContext("line", lineNo)
		}
		ranges = append(ranges, slots.Range{Low: low, High: high})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapIOError(err, "vecio.read_ranges", "read failed").
			WithContext("path", path)
	}
	return ranges, nil
}
