package slot

import (
	"fmt"
	"strings"
	"time"
)

// Config describes a day's slot grid as offsets from local midnight.
// A slot starts at Start, Start+Increment, ... for as long as it ends
// no later than End.
type Config struct {
	Start     time.Duration
	End       time.Duration
	Increment time.Duration
	Length    time.Duration // zero means Increment
}

var (
	// Bands is the shop's canonical grid: nine 75 minute bands, 07:00 to 18:15.
	Bands = Config{
		Start:     7 * time.Hour,
		End:       18*time.Hour + 15*time.Minute,
		Increment: 75 * time.Minute,
	}

	// HalfHours starts a 30 minute slot every half hour from 07:00 to 18:30.
	HalfHours = Config{
		Start:     7 * time.Hour,
		End:       19 * time.Hour,
		Increment: 30 * time.Minute,
	}
)

// SchemeByName resolves a named built-in grid. An empty name selects Bands.
func SchemeByName(name string) (Config, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "bands":
		return Bands, nil
	case "half-hours", "half-hour", "halfhours":
		return HalfHours, nil
	}
	return Config{}, fmt.Errorf("%w: unknown scheme %q", ErrInvalidSlotConfig, name)
}

func (c Config) slotLength() time.Duration {
	if c.Length > 0 {
		return c.Length
	}
	return c.Increment
}

// Validate reports ErrInvalidSlotConfig for grids that cannot produce a slot.
func (c Config) Validate() error {
	switch {
	case c.Increment <= 0:
		return fmt.Errorf("%w: increment must be positive", ErrInvalidSlotConfig)
	case c.Length < 0:
		return fmt.Errorf("%w: length must not be negative", ErrInvalidSlotConfig)
	case c.Start < 0:
		return fmt.Errorf("%w: start must not be negative", ErrInvalidSlotConfig)
	case c.End > 24*time.Hour:
		return fmt.Errorf("%w: end must be within the day", ErrInvalidSlotConfig)
	case c.Start%time.Minute != 0 || c.Increment%time.Minute != 0 || c.Length%time.Minute != 0:
		return fmt.Errorf("%w: start, increment and length must be whole minutes", ErrInvalidSlotConfig)
	case c.Start+c.slotLength() > c.End:
		return fmt.Errorf("%w: no slot fits between %s and %s", ErrInvalidSlotConfig, formatClock(c.Start), formatClock(c.End))
	}
	return nil
}

// Enumerate lists the grid's slots in start order. The result depends only
// on the config, so the same config always yields the same sequence.
func Enumerate(cfg Config) ([]Slot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	length := cfg.slotLength()
	var slots []Slot
	for start := cfg.Start; start+length <= cfg.End; start += cfg.Increment {
		slots = append(slots, Slot{Start: start, Length: length})
	}
	return slots, nil
}

// Lookup finds the slot that starts at the wall-clock time of at.
func (c Config) Lookup(at time.Time) (Slot, bool) {
	if at.Second() != 0 || at.Nanosecond() != 0 {
		return Slot{}, false
	}
	offset := time.Duration(at.Hour())*time.Hour + time.Duration(at.Minute())*time.Minute

	slots, err := Enumerate(c)
	if err != nil {
		return Slot{}, false
	}
	for _, s := range slots {
		if s.Start == offset {
			return s, true
		}
	}
	return Slot{}, false
}

// ParseClock parses "HH:MM" into an offset from midnight.
func ParseClock(hm string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(hm))
	if err != nil {
		return 0, fmt.Errorf("%w: bad clock time %q", ErrInvalidSlotConfig, hm)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}
