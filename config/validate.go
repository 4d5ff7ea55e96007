package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/arloliu/tabseries/format"
	"github.com/arloliu/tabseries/input"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("charset", isCharset)
		_ = v.RegisterValidation("compression", isCompression)
		_ = v.RegisterValidation("regexp", isRegexp)
		validate = v
	})

	return validate
}

func isCharset(fl validator.FieldLevel) bool {
	_, err := input.LookupCharset(fl.Field().String())
	return err == nil
}

func isCompression(fl validator.FieldLevel) bool {
	_, err := format.ParseCompression(fl.Field().String())
	return err == nil
}

func isRegexp(fl validator.FieldLevel) bool {
	_, err := regexp.Compile(fl.Field().String())
	return err == nil
}

// Validate checks field constraints and the rules spanning fields: no series may
// read its values from the date/time column.
func (j *Job) Validate() error {
	if err := getValidator().Struct(j); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("invalid job: %s", formatErrors(verrs))
		}

		return fmt.Errorf("invalid job: %w", err)
	}

	for _, s := range j.Series {
		if s.Column == j.Date.Column {
			return fmt.Errorf("invalid job: series %q reads column %d, which is the date column", s.ID, s.Column)
		}
	}

	return nil
}

func formatErrors(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Job.")
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value()))
		case "unique":
			msgs = append(msgs, fmt.Sprintf("%s must have unique %s values", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q validation (value %v)", field, fe.Tag(), fe.Value()))
		}
	}

	return strings.Join(msgs, "; ")
}
