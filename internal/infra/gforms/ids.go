package gforms

import (
	"regexp"
	"strconv"

	"github.com/cockroachdb/errors"
)

var formURLRe = regexp.MustCompile(`https://docs.google.com/forms/d/([^/]+)`)

// ExtractFormID accepts a form edit id or URL and returns the id.
func ExtractFormID(input string) string {
	if m := formURLRe.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	return input
}

// ParseQuestionID converts a hexadecimal question id into the decimal entry number.
func ParseQuestionID(id string) (uint64, error) {
	n, err := strconv.ParseUint(id, 16, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid form definition: question id %q", id)
	}
	return n, nil
}

func formatUint(n uint64) string {
	return strconv.FormatUint(n, 10)
}
