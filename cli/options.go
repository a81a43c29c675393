package cli

import (
	"fmt"
	"reflect"
	"time"

	"github.com/alecthomas/kong"

	"go.hackfix.me/sieve/xtime"
)

// minExpiration is the shortest lifetime a token can be created with.
const minExpiration = time.Minute

// ExpirationMapper decodes a token expiration time, given either as a duration
// relative to the current time (e.g. "12h", "7d"), or as an RFC 3339
// timestamp. The decoded value is a UTC time.Time.
type ExpirationMapper struct {
	timeNow func() time.Time
}

var _ kong.Mapper = (*ExpirationMapper)(nil)

// Decode implements the kong.Mapper interface.
func (em ExpirationMapper) Decode(kctx *kong.DecodeContext, target reflect.Value) error {
	var value string
	if err := kctx.Scan.PopValueInto("expiration", &value); err != nil {
		return err //nolint:wrapcheck // Kong adds the flag name.
	}

	now := em.timeNow().UTC()
	exp, err := time.Parse(time.RFC3339, value)
	if err != nil {
		dur, derr := xtime.ParseDuration(value)
		if derr != nil {
			return fmt.Errorf("expected a duration or RFC 3339 timestamp: %w", derr)
		}
		exp = now.Add(dur)
	}
	exp = exp.UTC()

	switch {
	case exp.Before(now):
		return fmt.Errorf("expiration time is in the past: %s", exp.Format(time.RFC3339))
	case exp.Sub(now) < minExpiration:
		return fmt.Errorf("expiration must be at least %s from now", minExpiration)
	}

	target.Set(reflect.ValueOf(exp))

	return nil
}
