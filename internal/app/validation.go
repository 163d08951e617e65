package app

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"review_hero/internal/domain"
)

var (
	hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	phoneRe    = regexp.MustCompile(`^[+]?[(]?[0-9]{1,4}[)]?[-\s./0-9]*$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
		return hexColorRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// validateInput runs struct tags and converts failures into a
// *domain.ValidationError listing every bad field.
func validateInput(in any) error {
	err := validate.Struct(withoutBlankPointers(in))
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &domain.ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, domain.FieldError{
			Path:    fieldPath(fe),
			Message: fieldMessage(fe),
		})
	}
	return out
}

// withoutBlankPointers copies a struct and nils every *string field that
// points at "". A blank optional field means "clear it" and must pass
// omitempty rules. Fields tagged nonblank are kept so the blank is rejected.
func withoutBlankPointers(in any) any {
	v := reflect.ValueOf(in)
	if v.Kind() != reflect.Struct {
		return in
	}
	cp := reflect.New(v.Type()).Elem()
	cp.Set(v)
	for i := 0; i < cp.NumField(); i++ {
		f := cp.Field(i)
		if !f.CanSet() || f.Kind() != reflect.Pointer || f.IsNil() {
			continue
		}
		if strings.Contains(v.Type().Field(i).Tag.Get("validate"), "nonblank") {
			continue
		}
		if e := f.Elem(); e.Kind() == reflect.String && e.Len() == 0 {
			f.Set(reflect.Zero(f.Type()))
		}
	}
	return cp.Interface()
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "url", "http_url":
		return "must be a valid URL"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "hexcolor6":
		return "must be a #RRGGBB color"
	case "phone":
		return "must be a valid phone number"
	case "nonblank":
		return "must not be blank"
	}
	return "is invalid"
}
