// Package tz resolves caller-supplied time zone identifiers.
//
// Clients send either an IANA name ("Asia/Seoul") or a fixed offset
// ("+09:00", "+0900", "UTC+9", "GMT-03:30").
package tz

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

var offsetPattern = regexp.MustCompile(`^(?i:utc|gmt)?\s*([+-])(\d{1,2})(?::?(\d{2}))?$`)

// Load returns the location named by id.
func Load(id string) (*time.Location, error) {
	id = strings.TrimSpace(id)
	switch strings.ToUpper(id) {
	case "", "UTC", "Z", "GMT":
		return time.UTC, nil
	}

	if m := offsetPattern.FindStringSubmatch(id); m != nil {
		return fixedZone(id, m[1], m[2], m[3])
	}

	loc, err := time.LoadLocation(id)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", id, err)
	}
	return loc, nil
}

// UserTime converts now to the wall clock of the zone named by id.
func UserTime(id string, now time.Time) (time.Time, error) {
	loc, err := Load(id)
	if err != nil {
		return time.Time{}, err
	}
	return now.In(loc), nil
}

func fixedZone(id, sign, hours, minutes string) (*time.Location, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return nil, fmt.Errorf("parse offset hours %q: %w", id, err)
	}
	m := 0
	if minutes != "" {
		if m, err = strconv.Atoi(minutes); err != nil {
			return nil, fmt.Errorf("parse offset minutes %q: %w", id, err)
		}
	}
	if h > 14 || m > 59 {
		return nil, fmt.Errorf("offset out of range: %q", id)
	}

	secs := h*3600 + m*60
	if sign == "-" {
		secs = -secs
	}
	return time.FixedZone(formatOffset(secs), secs), nil
}

func formatOffset(secs int) string {
	sign := '+'
	if secs < 0 {
		sign = '-'
		secs = -secs
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, secs/3600, (secs%3600)/60)
}
