package appointment

import (
	"strings"

	"github.com/insuhealth/appointment-service/internal/apperr"
)

// insuredIDLen is the fixed width of an insured-party identifier.
const insuredIDLen = 5

// NormalizeInsuredID left-pads a shorter insured id with zeros. Inputs already
// at or beyond the fixed width are returned unchanged.
func NormalizeInsuredID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) >= insuredIDLen {
		return id
	}
	return strings.Repeat("0", insuredIDLen-len(id)) + id
}

// validInsuredID reports whether id matches the 5-digit pattern after
// normalization.
func validInsuredID(id string) bool {
	if len(id) != insuredIDLen {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidateCreateRequest checks every field and reports all violations in one
// error, not just the first. The request is normalized in place.
func ValidateCreateRequest(req *CreateRequest) error {
	var problems []string

	req.InsuredID = NormalizeInsuredID(req.InsuredID)
	if !validInsuredID(req.InsuredID) {
		problems = append(problems, "insuredId must be exactly 5 digits")
	}
	if req.ScheduleID <= 0 {
		problems = append(problems, "scheduleId must be a positive integer")
	}
	if !SupportedCountry(req.CountryISO) {
		problems = append(problems, "countryISO must be either PE or CL")
	}

	if len(problems) > 0 {
		return apperr.Validation("Validation failed: " + strings.Join(problems, ", "))
	}
	return nil
}

// ValidateListFilter checks the optional filter fields and applies paging
// defaults.
func ValidateListFilter(f *ListFilter) error {
	if f.CountryISO != "" && !SupportedCountry(f.CountryISO) {
		return apperr.Validation("countryISO must be either 'PE' or 'CL'")
	}
	if f.Status != "" && !ValidStatuses[Status(f.Status)] {
		return apperr.Validation("status must be one of: 'pending', 'completed', 'failed'")
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit < 1 || f.Limit > MaxLimit {
		return apperr.Validation("limit must be between 1 and 100")
	}
	if f.Offset < 0 {
		return apperr.Validation("offset must be 0 or greater")
	}
	return nil
}
