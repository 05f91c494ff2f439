package feed

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/engine"
)

// Profile is a contact reduced to what a chart needs.
type Profile struct {
	// UID is a stable hash of name and birth, reused across refreshes.
	UID string

	// Name is the display name (Formatted Name or Structured Name).
	Name string

	// Birth is the parsed BDAY and GENDER. When BDAY carries no time of day
	// the birth is placed at 00:00, the start of the 子 hour.
	Birth engine.Birth

	// TimeKnown reports whether BDAY carried a time of day.
	TimeKnown bool
}

// NewProfile builds a profile with its deterministic UID.
func NewProfile(name string, b engine.Birth, timeKnown bool) Profile {
	input := fmt.Sprintf(config.FormatHashInput, name, b.Time().Format(time.RFC3339)+"|"+string(b.Gender), config.UIDSalt)
	hash := sha256.Sum256([]byte(input))
	return Profile{
		UID:       fmt.Sprintf("%x", hash[:config.UIDHashLength]),
		Name:      name,
		Birth:     b,
		TimeKnown: timeKnown,
	}
}

type decodeStats struct {
	processed, withBirth, skipped int
}

// DecodeProfiles reads every card of r and keeps those with a full birth date
// and a male or female GENDER. Malformed cards are logged and skipped.
func DecodeProfiles(ctx context.Context, r io.Reader) ([]Profile, error) {
	profiles, _, err := decodeProfiles(ctx, r)
	return profiles, err
}

func decodeProfiles(ctx context.Context, r io.Reader) ([]Profile, decodeStats, error) {
	var (
		stats    decodeStats
		profiles []Profile
	)
	decoder := vcard.NewDecoder(r)
	for {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Log error but continue to next card to maximize data recovery
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompFeed,
				config.LogKeyError, err)
			continue
		}
		stats.processed++

		p, ok := profileFromCard(card)
		if !ok {
			stats.skipped++
			continue
		}
		stats.withBirth++
		profiles = append(profiles, p)
	}
	return profiles, stats, nil
}

func profileFromCard(card vcard.Card) (Profile, bool) {
	// Name Strategy: FN (Formatted) > N (Structured) > Fallback
	name := config.FallbackName
	if fn := card.Get(config.VCardFN); fn != nil && fn.Value != "" {
		name = fn.Value
	} else if n := card.Get(config.VCardN); n != nil && n.Value != "" {
		name = n.Value
	}

	bday := card.Get(config.VCardBDAY)
	if bday == nil || bday.Value == "" {
		return Profile{}, false
	}
	t, timeKnown, err := parseBirthday(bday.Value)
	if err != nil {
		slog.Debug(config.MsgSkippedDate,
			config.LogKeyComponent, config.CompFeed,
			config.LogKeyName, name,
			config.LogKeyValue, bday.Value)
		return Profile{}, false
	}

	gender, err := genderOf(card)
	if err != nil {
		slog.Warn(config.MsgSkippedGender,
			config.LogKeyComponent, config.CompFeed,
			config.LogKeyName, name)
		return Profile{}, false
	}

	b := engine.BirthFromTime(t, gender)
	if err := b.Validate(); err != nil {
		slog.Warn(config.MsgSkippedDate,
			config.LogKeyComponent, config.CompFeed,
			config.LogKeyName, name,
			config.LogKeyError, err)
		return Profile{}, false
	}
	return NewProfile(name, b, timeKnown), true
}

func genderOf(card vcard.Card) (engine.Gender, error) {
	sex, _ := card.Gender()
	switch sex {
	case vcard.SexMale:
		return engine.Male, nil
	case vcard.SexFemale:
		return engine.Female, nil
	}
	return "", errors.New(config.ErrMissingGender)
}

// parseBirthday handles the vCard date forms that carry a year. Truncated
// dates (--MM-DD) are rejected: a chart needs the year. The returned flag
// reports whether a time of day was present.
func parseBirthday(value string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)

	withTime := []string{
		config.DateFormatRFC3339,
		config.DateFormatFullT,
		config.DateFormatDashT,
		config.DateFormatBasicTZ,
		config.DateFormatBasicT,
		config.DateFormatDashTMin,
	}
	for _, f := range withTime {
		if t, err := time.Parse(f, value); err == nil {
			// Keep the wall clock written in the card.
			return t, true, nil
		}
	}

	dateOnly := []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
	}
	for _, f := range dateOnly {
		if t, err := time.Parse(f, value); err == nil {
			return t, false, nil
		}
	}

	return time.Time{}, false, errors.New(config.ErrDateParse)
}
