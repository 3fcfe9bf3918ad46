// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jcolumn

import (
	"errors"
	"strings"

	"github.com/creachadair/jcolumn/internal/escape"

	"go4.org/mem"
)

// Quote encodes src as a JSON string value. The contents are escaped and
// double quotation marks are added.
func Quote(src string) string {
	q := escape.Quote(mem.S(src))
	buf := make([]byte, 0, len(q)+2)
	buf = append(buf, '"')
	buf = append(buf, q...)
	return string(append(buf, '"'))
}

// Unquote decodes a JSON string value.  Double quotation marks are removed,
// and escape sequences are replaced with their unescaped equivalents.
//
// Invalid escapes are replaced by the Unicode replacement rune. Unquote
// reports an error for an incomplete escape sequence.
func Unquote(src string) ([]byte, error) {
	if len(src) < 2 || !strings.HasPrefix(src, `"`) || !strings.HasSuffix(src, `"`) {
		return nil, errors.New("missing quotations")
	}
	return escape.Unquote(mem.S(src[1 : len(src)-1]))
}
