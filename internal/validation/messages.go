package validation

import "fmt"

var attributes = map[string]string{
	"name":      "name",
	"full_name": "name",
	"email":     "email",
	"password":  "password",
}

func message(field, tag, param string) string {
	attr := attributes[field]
	if attr == "" {
		attr = field
	}

	switch tag {
	case "required":
		return fmt.Sprintf("The %s field is required.", attr)
	case "email":
		return "The user email must be a valid email address."
	case "eqfield":
		return fmt.Sprintf("The %s confirmation does not match.", attr)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", attr, param)
	case "mixedcase":
		return fmt.Sprintf("The %s must contain at least one uppercase and one lowercase letter.", attr)
	case "symbols":
		return fmt.Sprintf("The %s must contain at least one symbol.", attr)
	default:
		return fmt.Sprintf("The %s is invalid.", attr)
	}
}
