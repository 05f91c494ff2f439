package engine

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/ganzhi"
)

// Gender selects the Da Yun direction together with the year stem polarity.
type Gender string

const (
	Male   Gender = config.GenderMale
	Female Gender = config.GenderFemale
)

// ParseGender accepts male|female, m|f and 男|女, case-insensitively.
func ParseGender(v string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "male", "m", "男":
		return Male, nil
	case "female", "f", "女":
		return Female, nil
	}
	return "", invalidInput(fieldGender, v, config.ErrGenderParse)
}

const (
	fieldDate   = "date"
	fieldTime   = "time"
	fieldGender = "gender"
)

// Birth is a civil Gregorian birth moment. It carries no time zone: the
// calendar service reads its fields as local wall-clock time.
type Birth struct {
	Year   int    `json:"year" validate:"gte=1900,lte=2100"`
	Month  int    `json:"month" validate:"gte=1,lte=12"`
	Day    int    `json:"day" validate:"gte=1,lte=31"`
	Hour   int    `json:"hour" validate:"gte=0,lte=23"`
	Minute int    `json:"minute" validate:"gte=0,lte=59"`
	Gender Gender `json:"gender" validate:"oneof=male female"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names so errors match what callers typed.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks ranges and that the date exists in the Gregorian calendar.
func (b Birth) Validate() error {
	if err := validate.Struct(b); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return invalidInput(fe.Field(), fmt.Sprint(fe.Value()),
				fmt.Sprintf("%s (%s %s)", config.ErrOutOfRange, fe.Tag(), fe.Param()))
		}
		return invalidInput("birth", "", err.Error())
	}
	if d := b.Date(); d.Month() != time.Month(b.Month) || d.Day() != b.Day {
		return invalidInput(fieldDate, fmt.Sprintf("%04d-%02d-%02d", b.Year, b.Month, b.Day), config.ErrDateNotExist)
	}
	return nil
}

// Time returns the birth moment as a UTC-located time with the civil fields.
func (b Birth) Time() time.Time {
	return time.Date(b.Year, time.Month(b.Month), b.Day, b.Hour, b.Minute, 0, 0, time.UTC)
}

// Date returns midnight of the birth day.
func (b Birth) Date() time.Time {
	return time.Date(b.Year, time.Month(b.Month), b.Day, 0, 0, 0, 0, time.UTC)
}

func (b Birth) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d %s", b.Year, b.Month, b.Day, b.Hour, b.Minute, b.Gender)
}

// BirthFromTime builds a Birth from the wall-clock fields of t.
func BirthFromTime(t time.Time, g Gender) Birth {
	return Birth{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Gender: g,
	}
}

// ParseBirth parses and validates user-supplied birth fields.
//
// date is YYYY-MM-DD or YYYYMMDD. clock is HH:MM, HH:MM:SS, a bare hour, or a
// traditional two-hour name such as "午时", "午" or "子时 (23:00-01:00)"; a
// traditional name maps to the even hour starting its period, 子 to 0.
func ParseBirth(date, clock, gender string) (Birth, error) {
	d, err := parseBirthDate(date)
	if err != nil {
		return Birth{}, err
	}
	hour, minute, err := parseBirthTime(clock)
	if err != nil {
		return Birth{}, err
	}
	g, err := ParseGender(gender)
	if err != nil {
		return Birth{}, err
	}

	b := Birth{
		Year:   d.Year(),
		Month:  int(d.Month()),
		Day:    d.Day(),
		Hour:   hour,
		Minute: minute,
		Gender: g,
	}
	if err := b.Validate(); err != nil {
		return Birth{}, err
	}
	return b, nil
}

func parseBirthDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range []string{config.DateFormatFullDash, config.DateFormatFullBasic} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalidInput(fieldDate, v, config.ErrDateParse)
}

func parseBirthTime(v string) (int, int, error) {
	raw := v
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, 0, invalidInput(fieldTime, raw, config.ErrTimeParse)
	}

	for _, layout := range []string{config.TimeFormatHM, config.TimeFormatHMS} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	// Single digit hours such as "9:30".
	if h, m, ok := strings.Cut(v, ":"); ok {
		hh, errH := strconv.Atoi(h)
		mm, errM := strconv.Atoi(m)
		if errH == nil && errM == nil {
			return hh, mm, nil
		}
	}
	if h, err := strconv.Atoi(v); err == nil {
		return h, 0, nil
	}

	if b, ok := traditionalHour(v); ok {
		return b.Index() * 2, 0, nil
	}
	return 0, 0, invalidInput(fieldTime, raw, config.ErrTimeParse)
}

// traditionalHour extracts the branch of names like "午时" or "子时 (23:00-01:00)".
func traditionalHour(v string) (ganzhi.Branch, bool) {
	if i := strings.IndexAny(v, "(（"); i >= 0 {
		v = v[:i]
	}
	v = strings.TrimSpace(v)
	v = strings.TrimSuffix(v, "时")
	v = strings.TrimSuffix(v, "時")
	if utf8.RuneCountInString(v) != 1 {
		return 0, false
	}
	b, err := ganzhi.ParseBranch(v)
	if err != nil {
		return 0, false
	}
	return b, true
}
