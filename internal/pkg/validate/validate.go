package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. Field names in errors come from
// the json tag so messages match what the client sent.
var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return val
}

// Struct validates the given struct using its validate tags.
// Returns a human-readable, capitalized error or nil. When several required fields are
// missing they are reported together.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	var missing, other []string
	for _, fe := range ve {
		switch fe.Tag() {
		case "required":
			missing = append(missing, fe.Field())
		case "min":
			other = append(other, fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param()))
		case "max":
			other = append(other, fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param()))
		default:
			other = append(other, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
	}
	if len(missing) > 0 {
		return errors.New(capitalize(joinFields(missing) + " required"))
	}
	return errors.New(capitalize(strings.Join(other, "; ")))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func joinFields(fields []string) string {
	switch len(fields) {
	case 1:
		return fields[0] + " is"
	case 2:
		return fields[0] + " and " + fields[1] + " are"
	default:
		return strings.Join(fields[:len(fields)-1], ", ") + ", and " + fields[len(fields)-1] + " are"
	}
}
