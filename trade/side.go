package trade

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Side is the direction of a fill. Broker exports use "long"/"short" as
// synonyms for buy/sell; those are folded in at the parse boundary so the
// rest of the system only ever sees the two canonical values.
type Side int

const (
	Buy Side = iota
	Sell
)

// ParseSide normalizes a side string, case-insensitively.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "long":
		return Buy, nil
	case "sell", "short":
		return Sell, nil
	default:
		return Buy, fmt.Errorf("invalid side %q", s)
	}
}

func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// Opposite returns the side this side closes against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// factor is the sign applied to (exit - entry) when this side closes a
// position: a sell closing a long earns when price rose, a buy closing a
// short earns when price fell.
func (s Side) factor() int64 {
	if s == Sell {
		return 1
	}
	return -1
}

func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Side) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	side, err := ParseSide(raw)
	if err != nil {
		return err
	}
	*s = side
	return nil
}
