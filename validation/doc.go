// Package validation validates pipeline configuration and augmentation
// node parameters.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Failures are returned as
// *errors.AppError values whose Details list the offending fields.
//
// # Struct Tag Validation
//
//	type resizeParams struct {
//	    Width  int `mapstructure:"resize_width" validate:"gt=0"`
//	    Height int `mapstructure:"resize_height" validate:"gt=0"`
//	}
//	err := validation.Params("resize0", p)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Positive("batch_size", cfg.BatchSize)
//	err := v.Configuration()
package validation
