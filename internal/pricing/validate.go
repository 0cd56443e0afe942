package pricing

import (
	"errors"
	"fmt"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError aggregates every rule a selection violates. Callers get the
// whole list at once, never just the first failure.
type ValidationError struct {
	Violations []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "invalid selection: " + strings.Join(e.Violations, "; ")
}

// AsValidationError extracts a *ValidationError from err if present.
func AsValidationError(err error) (*ValidationError, bool) {
	var target *ValidationError
	ok := errors.As(err, &target)
	return target, ok
}

// allowedCombos lists the sellable (mainMeals, breakfasts) pairs.
var allowedCombos = [][2]int{{1, 1}, {2, 0}, {2, 1}}

// ValidateSelection checks every selection invariant and returns a
// *ValidationError listing all violations, or nil when the selection is valid.
func ValidateSelection(sel Selection, cfg Config) error {
	var violations []string

	if err := validate.Struct(sel); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				violations = append(violations, fieldViolation(fe))
			}
		} else {
			violations = append(violations, err.Error())
		}
	}

	if sel.MainMeals+sel.Breakfasts < 2 {
		violations = append(violations, "mainMeals plus breakfasts must be at least 2")
	}
	if !comboAllowed(sel.MainMeals, sel.Breakfasts) {
		violations = append(violations, fmt.Sprintf("combination of %d main meals and %d breakfasts is not offered", sel.MainMeals, sel.Breakfasts))
	}
	if sel.PlanID != "" {
		if _, ok := cfg.PlanMultipliers[sel.PlanID]; !ok {
			violations = append(violations, fmt.Sprintf("unknown plan %q", sel.PlanID))
		}
	}
	if sel.Duration.Weeks() == 0 {
		violations = append(violations, fmt.Sprintf("unknown duration %q", string(sel.Duration)))
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func comboAllowed(mainMeals, breakfasts int) bool {
	for _, combo := range allowedCombos {
		if mainMeals == combo[0] && breakfasts == combo[1] {
			return true
		}
	}
	return false
}

func fieldViolation(fe validator.FieldError) string {
	field := jsonField(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

func jsonField(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}
