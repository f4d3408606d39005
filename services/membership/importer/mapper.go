package importer

import "strings"

// IgnoreField drops a column from the mapping.
const IgnoreField = "ignore"

// Fields is the canonical target vocabulary an import column can map to.
var Fields = []string{
	"first_name", "last_name", "email", "phone", "profession",
	"business_name", "address_line1", "address_line2", "pincode",
	"area", "city", "state", "status", "dob", "blood_group", "notes",
}

// RequiredFields must be present and non-blank on every imported row.
var RequiredFields = []string{
	"first_name", "last_name", "email", "phone", "profession",
	"address_line1", "pincode", "city", "state", "status",
}

var fieldSet = func() map[string]bool {
	m := make(map[string]bool, len(Fields))
	for _, f := range Fields {
		m[f] = true
	}
	return m
}()

// Common spreadsheet header spellings, keyed by normalized header.
var headerSynonyms = map[string]string{
	"firstname":     "first_name",
	"fname":         "first_name",
	"given_name":    "first_name",
	"lastname":      "last_name",
	"lname":         "last_name",
	"surname":       "last_name",
	"email_address": "email",
	"e_mail":        "email",
	"mail":          "email",
	"mobile":        "phone",
	"mobile_number": "phone",
	"phone_number":  "phone",
	"telephone":     "phone",
	"contact":       "phone",
	"address":       "address_line1",
	"address1":      "address_line1",
	"address_1":     "address_line1",
	"street":        "address_line1",
	"address2":      "address_line2",
	"address_2":     "address_line2",
	"pin":           "pincode",
	"pin_code":      "pincode",
	"postal_code":   "pincode",
	"zip":           "pincode",
	"zipcode":       "pincode",
	"town":          "city",
	"locality":      "area",
	"company":       "business_name",
	"business":      "business_name",
	"studio":        "business_name",
	"date_of_birth": "dob",
	"birth_date":    "dob",
	"birthdate":     "dob",
	"bloodgroup":    "blood_group",
	"remarks":       "notes",
	"comment":       "notes",
	"comments":      "notes",
}

// NormalizeHeader lower-cases a raw header and collapses whitespace runs to
// single underscores, so "First Name" and "first_name" compare equal.
func NormalizeHeader(h string) string {
	n := strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(n), "_")
}

// IsField reports whether name is part of the canonical vocabulary.
func IsField(name string) bool {
	return fieldSet[name]
}

// SuggestMapping pre-fills a header->field mapping for the headers phase.
// Exact normalized matches win; otherwise the synonym table is consulted.
// Headers with no candidate are left out (the wizard shows them as ignore).
func SuggestMapping(headers []string) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		n := NormalizeHeader(h)
		if IsField(n) {
			out[h] = n
			continue
		}
		if f, ok := headerSynonyms[n]; ok {
			out[h] = f
		}
	}
	return out
}

// MapRows projects raw data rows onto canonical field records using the
// caller's header->field mapping. Headers mapped to "ignore", mapped to an
// unknown target, or absent from the mapping are dropped; values are
// trimmed. Unmapped required fields simply stay absent from the record and
// surface later as missing in validation.
func MapRows(headers []string, dataRows [][]string, mapping map[string]string) []map[string]string {
	trimmed := make([]string, len(headers))
	for i, h := range headers {
		trimmed[i] = strings.TrimSpace(h)
	}

	records := make([]map[string]string, 0, len(dataRows))
	for _, cols := range dataRows {
		rec := make(map[string]string)
		for i, h := range trimmed {
			target := mapping[h]
			if target == "" || target == IgnoreField || !IsField(target) {
				continue
			}
			v := ""
			if i < len(cols) {
				v = strings.TrimSpace(cols[i])
			}
			rec[target] = v
		}
		records = append(records, rec)
	}
	return records
}
