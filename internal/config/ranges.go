package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// RegisterRange is an inclusive span of register addresses.
type RegisterRange struct {
	Lo, Hi byte
}

// RegisterRanges is a list of spans, as written in DEBUG_ALLOWED_WRITES.
type RegisterRanges []RegisterRange

// ParseRegisterRanges parses "0x1B-0x1D,0x37,0x6B". An empty string yields an
// empty list.
func ParseRegisterRanges(s string) (RegisterRanges, error) {
	var out RegisterRanges
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi := part, part
		if i := strings.IndexByte(part, '-'); i >= 0 {
			lo, hi = part[:i], part[i+1:]
		}
		l, err := parseReg(lo)
		if err != nil {
			return nil, err
		}
		h, err := parseReg(hi)
		if err != nil {
			return nil, err
		}
		if h < l {
			return nil, errors.Errorf("range %q is reversed", part)
		}
		out = append(out, RegisterRange{Lo: l, Hi: h})
	}
	return out, nil
}

func parseReg(s string) (byte, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, errors.Errorf("invalid register address %q", s)
	}
	return byte(v), nil
}

// Allows reports whether reg falls inside any span.
func (r RegisterRanges) Allows(reg byte) bool {
	for _, rr := range r {
		if reg >= rr.Lo && reg <= rr.Hi {
			return true
		}
	}
	return false
}

func (r RegisterRanges) String() string {
	parts := make([]string, len(r))
	for i, rr := range r {
		if rr.Lo == rr.Hi {
			parts[i] = fmt.Sprintf("0x%02X", rr.Lo)
		} else {
			parts[i] = fmt.Sprintf("0x%02X-0x%02X", rr.Lo, rr.Hi)
		}
	}
	return strings.Join(parts, ",")
}
