package auth

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// tokenClaims carries the registered claims the API uses. Dates stay
// decimal strings so sub-second expiries round-trip exactly;
// jwt.NumericDate decodes through float64.
type tokenClaims struct {
	ID        string      `json:"jti,omitempty"`
	Subject   string      `json:"sub,omitempty"`
	IssuedAt  json.Number `json:"iat,omitempty"`
	ExpiresAt json.Number `json:"exp,omitempty"`
}

// Valid is never consulted: the parser runs without claims validation and
// VerifyAt checks expiry against an explicit time.
func (c *tokenClaims) Valid() error {
	return nil
}

var errNumericDate = errors.New("invalid numeric date")

// formatNumericDate renders t as seconds since the epoch with up to nine
// fractional digits, trailing zeros dropped.
func formatNumericDate(t time.Time) json.Number {
	sec := t.Unix()
	nsec := t.Nanosecond()
	if nsec == 0 {
		return json.Number(strconv.FormatInt(sec, 10))
	}
	frac := strings.TrimRight(strconv.FormatInt(int64(nsec)+1e9, 10)[1:], "0")
	return json.Number(strconv.FormatInt(sec, 10) + "." + frac)
}

// parseNumericDate reads an RFC 7519 NumericDate. Plain decimals are parsed
// exactly; exponent forms from other issuers fall back to float64.
func parseNumericDate(n json.Number) (time.Time, error) {
	s := string(n)
	if strings.ContainsAny(s, "eE") {
		f, err := n.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return time.Time{}, errNumericDate
		}
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(math.Round(frac*1e9))), nil
	}

	whole, frac, _ := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || strings.HasPrefix(whole, "-") {
		return time.Time{}, errNumericDate
	}

	var nsec int64
	if frac != "" {
		if strings.Trim(frac, "0123456789") != "" {
			return time.Time{}, errNumericDate
		}
		if len(frac) > 9 {
			frac = frac[:9]
		}
		frac += strings.Repeat("0", 9-len(frac))
		nsec, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return time.Time{}, errNumericDate
		}
	}
	return time.Unix(sec, nsec), nil
}
