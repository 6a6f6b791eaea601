// Package validation maps a loosely-typed request payload to either a
// normalized user record or an ordered list of field errors.
//
// The rules run independently — every violation is collected, nothing
// short-circuits — and the resulting messages always appear in field
// declaration order (fullname, study_level, age). Clients rely on these
// exact strings, so they are part of the API contract, not an
// implementation detail.
package validation

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/users-api/internal/types"
)

// Stable, client-facing error messages. Each failing field contributes
// exactly one of these.
const (
	MsgInvalidPayload = "invalid payload"
	MsgFullName       = "fullname must be a string with at least 2 characters"
	MsgStudyLevel     = "study_level must be a non-empty string"
	MsgAge            = "age must be an integer between 0 and 150"
)

// A single validator instance is safe for concurrent use and caches its
// compiled rules, so we share one across all requests.
var validate = validator.New()

// ValidateUser checks the payload against the field rules and returns the
// normalized record on success, or the ordered list of violation messages
// on failure.
//
// Normalization: string fields are trimmed, age is coerced to int (JSON
// numbers arrive as float64; numeric strings such as "25" are accepted).
func ValidateUser(payload types.UserPayload) (types.User, []string) {
	var (
		user types.User
		errs []string
	)

	// fullname: must be a string whose trimmed length is >= 2.
	if s, ok := payload.FullName.(string); ok {
		s = strings.TrimSpace(s)
		if validate.Var(s, "min=2") != nil {
			errs = append(errs, MsgFullName)
		} else {
			user.FullName = s
		}
	} else {
		errs = append(errs, MsgFullName)
	}

	// study_level: must be a string whose trimmed length is >= 1.
	if s, ok := payload.StudyLevel.(string); ok {
		s = strings.TrimSpace(s)
		if validate.Var(s, "min=1") != nil {
			errs = append(errs, MsgStudyLevel)
		} else {
			user.StudyLevel = s
		}
	} else {
		errs = append(errs, MsgStudyLevel)
	}

	// age: must be present, convertible to a number, integral, and
	// within [0, 150].
	if n, ok := coerceInt(payload.Age); ok {
		if validate.Var(n, "gte=0,lte=150") != nil {
			errs = append(errs, MsgAge)
		} else {
			user.Age = n
		}
	} else {
		errs = append(errs, MsgAge)
	}

	if len(errs) > 0 {
		return types.User{}, errs
	}
	return user, nil
}

// coerceInt converts a decoded JSON value to an int, accepting only
// values that represent a whole number. encoding/json decodes every JSON
// number into float64, so 25.0 and 25 are indistinguishable here — both
// are accepted; 25.5 is not.
func coerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}
