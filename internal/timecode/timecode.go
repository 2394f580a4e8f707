// ABOUTME: Time-code input handling for lap times in mm:ss:cc form.
// ABOUTME: Formats keystrokes live, completes partial codes on blur, validates on commit.
package timecode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxDigits is the number of digits in a complete code.
const MaxDigits = 6

// MinDigits is the number of digits a code needs before it can be committed.
const MinDigits = 4

// ErrTooShort is returned for codes with fewer than MinDigits digits.
var ErrTooShort = errors.New("invalid (minimum mm:ss)")

// ErrMalformed is returned by Parse for anything but a complete mm:ss:cc code.
var ErrMalformed = errors.New("malformed time code")

// Digits strips everything except ASCII digits.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// OnInput turns the raw field value into the live-typed buffer: digits only,
// at most six, with a colon after the second and fourth digit.
func OnInput(raw string) string {
	d := Digits(raw)
	if len(d) > MaxDigits {
		d = d[:MaxDigits]
	}
	return format(d)
}

// OnBlur completes a partial buffer. An empty buffer is returned unchanged.
// A single digit is read as tens of seconds ("5" becomes "05:00:00"); two to
// five digits are right-padded with zeros.
func OnBlur(buffer string) string {
	d := Digits(buffer)
	switch {
	case len(d) == 0:
		return buffer
	case len(d) > MaxDigits:
		d = d[:MaxDigits]
	case len(d) == 1:
		d = "0" + d
	}
	d += strings.Repeat("0", MaxDigits-len(d))
	return format(d)
}

// Validate rejects codes with fewer than four significant digits.
func Validate(code string) error {
	if len(Digits(code)) < MinDigits {
		return ErrTooShort
	}
	return nil
}

// Normalize runs raw input through OnInput and OnBlur.
func Normalize(raw string) string {
	return OnBlur(OnInput(raw))
}

func format(d string) string {
	switch {
	case len(d) <= 2:
		return d
	case len(d) <= 4:
		return d[:2] + ":" + d[2:]
	default:
		return d[:2] + ":" + d[2:4] + ":" + d[4:]
	}
}

// Parse converts a complete mm:ss:cc code into a duration.
func Parse(code string) (time.Duration, error) {
	parts := strings.Split(code, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, code)
	}

	var vals [3]int
	for i, p := range parts {
		if len(p) != 2 || Digits(p) != p {
			return 0, fmt.Errorf("%w: %q", ErrMalformed, code)
		}
		vals[i], _ = strconv.Atoi(p)
	}
	if vals[1] > 59 {
		return 0, fmt.Errorf("%w: seconds out of range in %q", ErrMalformed, code)
	}

	return time.Duration(vals[0])*time.Minute +
		time.Duration(vals[1])*time.Second +
		time.Duration(vals[2])*10*time.Millisecond, nil
}

// FromDuration formats a duration as mm:ss:cc, truncating to centiseconds.
// Durations of 100 minutes or more are clamped to 99:59:99.
func FromDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	cs := int(d / (10 * time.Millisecond))
	if cs > 99*6000+59*100+99 {
		return "99:59:99"
	}
	return fmt.Sprintf("%02d:%02d:%02d", cs/6000, cs/100%60, cs%100)
}

// Complete validates a submitted code and returns its full mm:ss:cc form,
// as the cursor does on commit.
func Complete(code string) (string, error) {
	if err := Validate(code); err != nil {
		return "", err
	}
	full := Normalize(code)
	if _, err := Parse(full); err != nil {
		return "", err
	}
	return full, nil
}
