package formula

import (
	"fmt"
	"math"
	"time"
)

// Date systems.
const (
	Date1900 = 0
	Date1904 = 1
)

var (
	epoch1904       = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
	epoch1900       = time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	epoch1900Minus1 = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
)

// DateError is the base type for all date serial errors.
type DateError struct {
	Message string
}

func (e *DateError) Error() string {
	return e.Message
}

// DateBadMode indicates a date system other than 0 or 1.
type DateBadMode struct {
	DateError
}

func badMode(mode int) error {
	return &DateBadMode{DateError{Message: fmt.Sprintf("Invalid datemode: %d", mode)}}
}

// SerialAsTime converts a date serial into a UTC time with millisecond
// resolution.
func SerialAsTime(serial float64, datemode int) (time.Time, error) {
	var epoch time.Time
	switch {
	case datemode == Date1904:
		epoch = epoch1904
	case datemode != Date1900:
		return time.Time{}, badMode(datemode)
	case serial < 60:
		epoch = epoch1900
	default:
		// 1900 is not a leap year, but the serials pretend it is.
		epoch = epoch1900Minus1
	}

	days := int(serial)
	ms := int(math.Round((serial - float64(days)) * 86400000.0))
	return epoch.AddDate(0, 0, days).Add(time.Duration(ms) * time.Millisecond), nil
}

// dateSerial implements DATE: months and days outside their usual range
// roll over into neighbouring months and years, as in a spreadsheet.
func dateSerial(year, month, day int, datemode int) (float64, bool) {
	if year < 0 {
		return 0, false
	}
	if year < 1900 && datemode == Date1900 {
		year += 1900
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	var epoch time.Time
	if datemode == Date1904 {
		epoch = epoch1904
	} else {
		epoch = epoch1900Minus1
	}
	days := t.Sub(epoch).Hours() / 24
	if datemode == Date1900 && days < 61 {
		// Serial 60 is the fictitious 1900-02-29.
		days--
	}
	if days < 0 || t.Year() > 9999 {
		return 0, false
	}
	return math.Round(days), true
}

// serialParts returns year, month and day for DAY, MONTH and YEAR. Serial
// 0 is 1900-01-00 and serial 60 is 1900-02-29 in the 1900 system.
func serialParts(serial float64, datemode int) (y, m, d int, ok bool) {
	if serial < 0 {
		return 0, 0, 0, false
	}
	days := int(math.Floor(serial))
	if datemode == Date1900 {
		switch {
		case days == 0:
			return 1900, 1, 0, true
		case days == 60:
			return 1900, 2, 29, true
		case days < 60:
			t := epoch1900.AddDate(0, 0, days)
			return t.Year(), int(t.Month()), t.Day(), true
		}
	}
	t, err := SerialAsTime(float64(days), datemode)
	if err != nil || t.Year() > 9999 {
		return 0, 0, 0, false
	}
	return t.Year(), int(t.Month()), t.Day(), true
}
