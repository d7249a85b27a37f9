package event

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	hangoutz_errors "hangoutz/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("event_category", func(fl validator.FieldLevel) bool {
			return Category(fl.Field().String()).Valid()
		})
		_ = validate.RegisterValidation("event_status", func(fl validator.FieldLevel) bool {
			return Status(fl.Field().String()).Valid()
		})
	})
	return validate
}

// Validate checks the field constraints enforced on every write.
func (e Event) Validate() error {
	if err := validatorInstance().Struct(e); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return hangoutz_errors.Validation(describe(verrs[0]))
		}
		return hangoutz_errors.Validation(err.Error())
	}
	return nil
}

// ValidateNew adds the creation-only rule that the event starts in the future.
func (e Event) ValidateNew(now time.Time) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if !e.DateTime.After(now) {
		return hangoutz_errors.Validation("Event date must be in the future")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		if strings.HasPrefix(fe.Namespace(), "Event.Tags") {
			return fmt.Sprintf("tags must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", field)
	case "event_category":
		return "Invalid category"
	case "event_status":
		return "Invalid status"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

const earthRadiusMeters = 6371000.0

// DistanceMeters is the great-circle distance between two coordinates.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}
