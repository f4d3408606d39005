package importer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	emailRe      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
	phoneRe      = regexp.MustCompile(`^[+0-9][0-9\s()-]{6,}$`)
	phoneCleanRe = regexp.MustCompile(`[\s()-]`)
	pincodeRe    = regexp.MustCompile(`^[0-9]{6}$`)
	dobRe        = regexp.MustCompile(`^(0?[1-9]|[12][0-9]|3[01])/(0?[1-9]|1[0-2])/((?:19|20)[0-9]{2})$`)
	dobLooseRe   = regexp.MustCompile(`^([0-9]{1,2})/([0-9]{1,2})/([0-9]{4})$`)
)

var professions = map[string]bool{
	"photographer": true,
	"videographer": true,
	"both":         true,
}

var statuses = map[string]bool{
	"active":    true,
	"inactive":  true,
	"suspended": true,
}

// NormalizePhone strips spaces, parentheses and hyphens.
func NormalizePhone(phone string) string {
	return phoneCleanRe.ReplaceAllString(phone, "")
}

// ParseDOB converts a dd/mm/yyyy string to a calendar date. The time.Date
// normalization also absorbs day overflow (31/02 becomes early March), same
// as the dashboard's date handling.
func ParseDOB(s string) (time.Time, bool) {
	m := dobLooseRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// ValidateRecord checks one mapped record and returns every issue found;
// rules are independent, none short-circuits the rest. Email is lower-cased
// and phone normalized in place so downstream stages see canonical values.
func ValidateRecord(rec map[string]string, now time.Time) []string {
	var issues []string

	for _, f := range RequiredFields {
		if strings.TrimSpace(rec[f]) == "" {
			issues = append(issues, "Missing required: "+f)
		}
	}

	if v := rec["email"]; v != "" {
		lowered := strings.ToLower(v)
		rec["email"] = lowered
		if !emailRe.MatchString(lowered) {
			issues = append(issues, "Invalid email")
		}
	}

	if v := rec["phone"]; v != "" {
		// The pattern runs against the raw value: leading + or digit, at
		// least 7 characters before normalization.
		if !phoneRe.MatchString(v) {
			issues = append(issues, "Invalid phone")
		}
		rec["phone"] = NormalizePhone(v)
	}

	if v := rec["profession"]; v != "" && !professions[strings.ToLower(v)] {
		issues = append(issues, "Invalid profession")
	}

	if v := rec["status"]; v != "" && !statuses[strings.ToLower(v)] {
		issues = append(issues, "Invalid status")
	}

	if v := rec["pincode"]; v != "" && !pincodeRe.MatchString(v) {
		issues = append(issues, "Invalid pincode")
	}

	if v := rec["dob"]; v != "" {
		if !dobRe.MatchString(v) {
			issues = append(issues, "Invalid DOB format (dd/mm/yyyy)")
		} else if d, ok := ParseDOB(v); ok && d.After(now) {
			issues = append(issues, "DOB cannot be in the future")
		}
	}

	return issues
}

// BatchTracker records which emails and normalized phones repeat within a
// single file. Repeats are reported in the dry-run summary, not treated as
// per-row failures.
type BatchTracker struct {
	seenEmails map[string]bool
	seenPhones map[string]bool
	dupEmails  map[string]bool
	dupPhones  map[string]bool
}

func NewBatchTracker() *BatchTracker {
	return &BatchTracker{
		seenEmails: make(map[string]bool),
		seenPhones: make(map[string]bool),
		dupEmails:  make(map[string]bool),
		dupPhones:  make(map[string]bool),
	}
}

// Observe feeds one record's canonical email and phone into the tracker.
func (t *BatchTracker) Observe(email, phone string) {
	if email != "" {
		if t.seenEmails[email] {
			t.dupEmails[email] = true
		}
		t.seenEmails[email] = true
	}
	if phone != "" {
		if t.seenPhones[phone] {
			t.dupPhones[phone] = true
		}
		t.seenPhones[phone] = true
	}
}

// DuplicateCount is the number of distinct values that appeared more than
// once, emails and phones combined.
func (t *BatchTracker) DuplicateCount() int {
	return len(t.dupEmails) + len(t.dupPhones)
}

// Distinct returns every email and phone seen across the batch.
func (t *BatchTracker) Distinct() (emails, phones []string) {
	for e := range t.seenEmails {
		emails = append(emails, e)
	}
	for p := range t.seenPhones {
		phones = append(phones, p)
	}
	return emails, phones
}
