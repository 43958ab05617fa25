package types

import (
	"math"

	"github.com/go-playground/validator/v10"
)

// Validation constraint constants.
const (
	MinLat         = -90.0
	MaxLat         = 90.0
	MinLon         = -180.0
	MaxLon         = 180.0
	MaxNotesLen    = 2000
	MaxThresholdMM = 1000.0
)

// validate is the shared validator instance for DTO struct tags.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateCoordinates checks that a latitude/longitude pair is finite and
// in range. Provider adapters call this before building a request.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < MinLat || lat > MaxLat {
		return NewAppError(ErrCodeValidationInvalidLat, "latitude must be a finite value in [-90, 90]", nil)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < MinLon || lon > MaxLon {
		return NewAppError(ErrCodeValidationInvalidLon, "longitude must be a finite value in [-180, 180]", nil)
	}
	return nil
}

// AlertDraft is the create/update payload for an alert. Threshold must be
// strictly positive; equality with the cumulative value never triggers.
type AlertDraft struct {
	CityID    int64    `json:"city_id" validate:"required"`
	Category  Category `json:"category" validate:"required,oneof=snow_fall rain_fall"`
	Threshold float64  `json:"threshold" validate:"required,gt=0"`
	Notes     string   `json:"notes" validate:"max=2000"`
}

// Validate implements the Validator interface for AlertDraft, mapping
// go-playground/validator failures onto the error taxonomy.
func (d *AlertDraft) Validate() error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok {
			for _, fe := range verrs {
				switch fe.Field() {
				case "Threshold":
					return NewAppError(ErrCodeValidationThreshold, "threshold must be greater than zero", err)
				case "Category":
					return NewAppError(ErrCodeValidationInvalidCategory, "category must be snow_fall or rain_fall", err)
				case "CityID":
					return NewAppError(ErrCodeValidationMissingField, "city_id is required", err)
				}
			}
		}
		return NewAppError(ErrCodeValidationMissingField, "invalid alert payload", err)
	}
	if d.Threshold > MaxThresholdMM {
		return NewAppError(ErrCodeValidationThreshold, "threshold exceeds the supported range", nil)
	}
	return nil
}

// asValidationErrors is a small indirection over errors.As to keep the
// validator dependency localized to this file.
func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}
