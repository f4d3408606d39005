package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)

func validRecord() map[string]string {
	return map[string]string{
		"first_name":    "Ravi",
		"last_name":     "Kumar",
		"email":         "Ravi.Kumar@Example.com",
		"phone":         "+91 98765 43210",
		"profession":    "Photographer",
		"address_line1": "12 MG Road",
		"pincode":       "570001",
		"city":          "Mysuru",
		"state":         "Karnataka",
		"status":        "Active",
	}
}

func TestValidateRecordCleanRow(t *testing.T) {
	rec := validRecord()
	issues := ValidateRecord(rec, testNow)

	assert.Empty(t, issues)
	// canonical forms are written back
	assert.Equal(t, "ravi.kumar@example.com", rec["email"])
	assert.Equal(t, "+919876543210", rec["phone"])
}

func TestValidateRecordMissingRequired(t *testing.T) {
	rec := validRecord()
	rec["city"] = "  "
	delete(rec, "state")

	issues := ValidateRecord(rec, testNow)

	assert.Contains(t, issues, "Missing required: city")
	assert.Contains(t, issues, "Missing required: state")
}

func TestValidateRecordRules(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
		issue string
	}{
		{"bad email", "email", "not-an-email", "Invalid email"},
		{"email short tld", "email", "a@b.c", "Invalid email"},
		{"phone too short", "phone", "123456", "Invalid phone"},
		{"phone bad leading char", "phone", "x1234567", "Invalid phone"},
		{"unknown profession", "profession", "editor", "Invalid profession"},
		{"unknown status", "status", "paused", "Invalid status"},
		{"pincode five digits", "pincode", "57000", "Invalid pincode"},
		{"pincode seven digits", "pincode", "5700011", "Invalid pincode"},
		{"pincode letters", "pincode", "57000A", "Invalid pincode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			rec[tt.field] = tt.value
			assert.Contains(t, ValidateRecord(rec, testNow), tt.issue)
		})
	}
}

func TestValidateRecordDOB(t *testing.T) {
	rec := validRecord()
	rec["dob"] = "15/08/1985"
	assert.Empty(t, ValidateRecord(rec, testNow))

	rec = validRecord()
	rec["dob"] = "1985-08-15"
	assert.Contains(t, ValidateRecord(rec, testNow), "Invalid DOB format (dd/mm/yyyy)")

	rec = validRecord()
	rec["dob"] = "15/08/1885"
	assert.Contains(t, ValidateRecord(rec, testNow), "Invalid DOB format (dd/mm/yyyy)")

	rec = validRecord()
	rec["dob"] = "01/01/2030"
	assert.Contains(t, ValidateRecord(rec, testNow), "DOB cannot be in the future")
}

func TestValidateRecordIndependentIssues(t *testing.T) {
	rec := validRecord()
	rec["email"] = "broken"
	rec["pincode"] = "99"

	issues := ValidateRecord(rec, testNow)

	assert.Contains(t, issues, "Invalid email")
	assert.Contains(t, issues, "Invalid pincode")
}

func TestParseDOB(t *testing.T) {
	d, ok := ParseDOB("5/3/1990")
	assert.True(t, ok)
	assert.Equal(t, time.Date(1990, time.March, 5, 0, 0, 0, 0, time.UTC), d)

	// day overflow normalizes forward
	d, ok = ParseDOB("31/02/1990")
	assert.True(t, ok)
	assert.Equal(t, time.March, d.Month())

	_, ok = ParseDOB("1990/01/01")
	assert.False(t, ok)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+919876543210", NormalizePhone("+91 (98765) 432-10"))
	assert.Equal(t, "080123", NormalizePhone("080 123"))
}

func TestBatchTracker(t *testing.T) {
	tr := NewBatchTracker()
	tr.Observe("a@x.in", "111")
	tr.Observe("a@x.in", "222")
	tr.Observe("b@x.in", "222")
	tr.Observe("a@x.in", "333")
	tr.Observe("", "")

	// a@x.in repeated, 222 repeated: two distinct duplicate values
	assert.Equal(t, 2, tr.DuplicateCount())

	emails, phones := tr.Distinct()
	assert.ElementsMatch(t, []string{"a@x.in", "b@x.in"}, emails)
	assert.ElementsMatch(t, []string{"111", "222", "333"}, phones)
}
