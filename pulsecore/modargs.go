package pulsecore

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Modargs holds parsed module arguments of the form
//
//	key=value key2='quoted value' key3="another one"
type Modargs map[string]string

// ParseModargs parses arg, rejecting keys not listed in valid (a nil valid
// accepts any key) and duplicate keys.
func ParseModargs(arg string, valid []string) (Modargs, error) {
	ma := make(Modargs)
	s := arg

	for {
		s = strings.TrimLeft(s, " \t\n\r")
		if s == "" {
			return ma, nil
		}

		eq := strings.IndexAny(s, "= \t\n\r")
		if eq <= 0 || s[eq] != '=' {
			return nil, fmt.Errorf("%w: expected key=value at %q", ErrInvalidModargs, s)
		}
		key := s[:eq]
		s = s[eq+1:]

		var value string
		if s != "" && (s[0] == '\'' || s[0] == '"') {
			end := strings.IndexByte(s[1:], s[0])
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated quote for %q", ErrInvalidModargs, key)
			}
			value = s[1 : end+1]
			s = s[end+2:]
		} else {
			end := strings.IndexAny(s, " \t\n\r")
			if end < 0 {
				end = len(s)
			}
			value = s[:end]
			s = s[end:]
		}

		if valid != nil && !slices.Contains(valid, key) {
			return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidModargs, key)
		}
		if _, dup := ma[key]; dup {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidModargs, key)
		}
		ma[key] = value
	}
}

// Get returns the value of key, or def if it is not set.
func (ma Modargs) Get(key, def string) string {
	if v, ok := ma[key]; ok {
		return v
	}
	return def
}

func (ma Modargs) GetUint32(key string, def uint32) (uint32, error) {
	v, ok := ma[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidModargs, key, err)
	}
	return uint32(n), nil
}

func (ma Modargs) GetBool(key string, def bool) (bool, error) {
	v, ok := ma[key]
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrInvalidModargs, key, err)
	}
	return b, nil
}

// GetSampleSpec overrides def with the "rate", "channels" and "format"
// arguments, and validates the result.
func (ma Modargs) GetSampleSpec(def SampleSpec) (SampleSpec, error) {
	ss := def

	rate, err := ma.GetUint32("rate", ss.Rate)
	if err != nil {
		return SampleSpec{}, err
	}
	ss.Rate = rate

	channels, err := ma.GetUint32("channels", uint32(ss.Channels))
	if err != nil {
		return SampleSpec{}, err
	}
	if channels > ChannelsMax {
		return SampleSpec{}, fmt.Errorf("%w: %d channels", ErrInvalidSampleSpec, channels)
	}
	ss.Channels = uint8(channels)

	if v, ok := ma["format"]; ok {
		f, err := ParseSampleFormat(v)
		if err != nil {
			return SampleSpec{}, err
		}
		ss.Format = f
	}

	if !ss.Valid() {
		return SampleSpec{}, fmt.Errorf("%w: %v", ErrInvalidSampleSpec, ss)
	}
	return ss, nil
}
