package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusLate    AttendanceStatus = "late"
	StatusAbsent  AttendanceStatus = "absent"
)

// Date is a civil calendar date without time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Time returns midnight of the date in loc.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AttendanceRecord is the single record of an identity for one date.
type AttendanceRecord struct {
	ID           uuid.UUID        `json:"id"`
	IdentityKind IdentityKind     `json:"identity_kind"`
	IdentityID   uuid.UUID        `json:"identity_id"`
	Date         Date             `json:"date"`
	CheckInTime  *time.Time       `json:"check_in_time"`
	CheckOutTime *time.Time       `json:"check_out_time"`
	Status       AttendanceStatus `json:"status"`
	HoursWorked  float64          `json:"hours_worked"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Identity returns the owner of the record without a token.
func (r *AttendanceRecord) Identity() Identity {
	return Identity{Kind: r.IdentityKind, ID: r.IdentityID}
}

func (r *AttendanceRecord) CheckedOut() bool {
	return r.CheckOutTime != nil
}

// AttendanceKey is the unit of mutual exclusion for attendance writes.
type AttendanceKey struct {
	Kind IdentityKind
	ID   uuid.UUID
	Date Date
}

func KeyFor(identity Identity, date Date) AttendanceKey {
	return AttendanceKey{Kind: identity.Kind, ID: identity.ID, Date: date}
}

func (k AttendanceKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Kind, k.ID, k.Date)
}
