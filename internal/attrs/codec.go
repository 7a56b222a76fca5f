package attrs

import (
	"log/slog"
	"strconv"
	"strings"
)

// Delimiter separates the four fields of an encoded AttributeSet.
const Delimiter = "|"

const fieldCount = 4

// suppressedFlag is written to the fourth field when special characters are
// not allowed.
const suppressedFlag = "0"

// Codec converts AttributeSets to and from the compact wire format
//
//	<domain>|<iterations>|<truncation>|<flag>
//
// where an empty field means "inherit the default".
//
// Decoding never fails: malformed input is logged and replaced with a safe
// default.
type Codec struct {
	logger            *slog.Logger
	defaultIterations uint32
}

// NewCodec returns a Codec. defaultIterations replaces an iteration count
// that cannot be parsed; zero selects DefaultIterations. A nil logger
// discards.
func NewCodec(logger *slog.Logger, defaultIterations uint32) *Codec {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if defaultIterations == 0 {
		defaultIterations = DefaultIterations
	}
	return &Codec{logger: logger, defaultIterations: defaultIterations}
}

// Encode returns the wire form of a, or "" if a is the default.
func (c *Codec) Encode(a AttributeSet) string {
	if !a.Exist() {
		return ""
	}

	fields := make([]string, fieldCount)
	if d, ok := a.Domain.Get(); ok {
		fields[0] = d
	}
	if n, ok := a.Iterations.Get(); ok {
		fields[1] = strconv.FormatUint(uint64(n), 10)
	}
	if n, ok := a.Truncation.Get(); ok {
		fields[2] = strconv.FormatInt(int64(n), 10)
	}
	if a.SuppressSpecialChars {
		fields[3] = suppressedFlag
	}
	return strings.Join(fields, Delimiter)
}

// Decode parses the wire form. An empty string yields the default set.
func (c *Codec) Decode(s string) AttributeSet {
	var a AttributeSet
	if s == "" {
		return a
	}

	fields := strings.Split(s, Delimiter)
	if len(fields) != fieldCount {
		c.logger.Warn("malformed attributes, expected <domain|iterations|truncation|specialCharsFlag>",
			"fields", len(fields))
		return a
	}

	if fields[0] != "" {
		a.Domain = Some(fields[0])
	}

	if fields[1] != "" {
		n, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			c.logger.Warn("bad iteration count, using default",
				"value", fields[1], "default", c.defaultIterations, "error", err)
			a.Iterations = Some(c.defaultIterations)
		} else {
			a.Iterations = Some(uint32(n))
		}
	}

	if fields[2] != "" {
		n, err := strconv.ParseInt(fields[2], 10, 32)
		if err != nil {
			c.logger.Warn("bad truncation, not truncating", "value", fields[2], "error", err)
		} else {
			a = a.WithTruncation(int32(n))
		}
	}

	if fields[3] != "" {
		a.SuppressSpecialChars = true
	}

	return a
}
