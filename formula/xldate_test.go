package formula

import (
	"errors"
	"testing"
	"time"
)

func TestSerialAsTimeBadMode(t *testing.T) {
	_, err := SerialAsTime(1, 2)
	var bad *DateBadMode
	if !errors.As(err, &bad) {
		t.Errorf("SerialAsTime(1, 2) error = %T, want *DateBadMode", err)
	}
}

func TestDateSerial(t *testing.T) {
	tests := []struct {
		year, month, day int
		datemode         int
		want             float64
		ok               bool
	}{
		{2005, 2, 23, Date1900, 38406, true},
		{105, 2, 23, Date1900, 38406, true},
		{1900, 1, 1, Date1900, 1, true},
		{1904, 1, 2, Date1904, 1, true},
		{2005, 0, 1, Date1900, 38322, true},
		{-5, 1, 1, Date1900, 0, false},
		{-1, 12, 31, Date1904, 0, false},
		{10000, 1, 1, Date1900, 0, false},
	}
	for _, tt := range tests {
		got, ok := dateSerial(tt.year, tt.month, tt.day, tt.datemode)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("dateSerial(%d, %d, %d, %d) = %v, %v; want %v, %v",
				tt.year, tt.month, tt.day, tt.datemode, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSerialAsTime(t *testing.T) {
	tests := []struct {
		expected string
		serial   float64
		datemode int
	}{
		// Serial 0 in the 1900 system is the day before 1900-01-01.
		{"1899-12-31T00:00:00.000", 0, Date1900},
		{"1900-02-28T02:11:11.986", 59.09111094906, Date1900},
		{"1900-03-01T05:46:44.068", 61.24078782403, Date1900},
		{"1982-08-25T00:15:20.213", 30188.010650613425, Date1900},
		{"9999-12-31T23:59:59.000", 2958465.999988426, Date1900},
		{"1904-01-01T00:00:00.000", 0, Date1904},
		{"1908-07-03T00:00:00.000", 1645, Date1904},
	}

	for _, tt := range tests {
		exp, err := time.Parse("2006-01-02T15:04:05.000", tt.expected)
		if err != nil {
			t.Fatalf("Failed to parse expected time %s: %v", tt.expected, err)
		}
		got, err := SerialAsTime(tt.serial, tt.datemode)
		if err != nil {
			t.Errorf("SerialAsTime(%f, %d) error = %v", tt.serial, tt.datemode, err)
			continue
		}
		if !got.Equal(exp) {
			t.Errorf("SerialAsTime(%f, %d) = %v, want %v", tt.serial, tt.datemode, got, exp)
		}
	}
}
