package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"campaignexport/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// CampaignValidator performs structural validation of a campaign configuration.
type CampaignValidator struct {
	validate *validator.Validate
}

func NewCampaignValidator() *CampaignValidator {
	v := validator.New()

	// decimals are compared as floats so gt=0 applies
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &CampaignValidator{validate: v}
}

// Validate returns an *domain.InputError listing every problem, or nil.
func (cv *CampaignValidator) Validate(cfg domain.CampaignConfig) error {
	var problems []string

	if err := cv.validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate campaign: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, validationMessage(fe))
		}
	}

	if strings.TrimSpace(cfg.Month) == "" && cfg.StartDate == nil {
		problems = append(problems, "month or start_date is required")
	}

	if cfg.StartDate != nil && cfg.EndDate != nil && !cfg.StartDate.Before(*cfg.EndDate) {
		problems = append(problems, "start_date must be before end_date")
	}

	if len(problems) > 0 {
		return domain.NewInputError(problems...)
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "gte":
		return field + " must be at least " + fe.Param()
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "numeric":
		return field + " must be numeric"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
