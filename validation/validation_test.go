package validation

import (
	"testing"

	"github.com/kbukum/augkit/errors"
)

type cropParams struct {
	Width  int       `mapstructure:"crop_w" validate:"gt=0"`
	Height int       `mapstructure:"crop_h" validate:"gt=0"`
	Mean   []float64 `mapstructure:"mean" validate:"omitempty,min=1,max=4"`
	Mode   string    `mapstructure:"mode" validate:"omitempty,oneof=nearest linear cubic"`
}

func TestStruct_Valid(t *testing.T) {
	if fields := Struct(cropParams{Width: 224, Height: 224}); fields != nil {
		t.Fatalf("expected no errors, got %v", fields)
	}
}

func TestStruct_ReportsConfigKeys(t *testing.T) {
	fields := Struct(cropParams{Width: 0, Height: 10, Mode: "spline"})
	if len(fields) != 2 {
		t.Fatalf("expected 2 field errors, got %v", fields)
	}
	if fields[0].Field != "crop_w" {
		t.Errorf("expected field crop_w, got %q", fields[0].Field)
	}
	if fields[0].Message != "must be greater than 0" {
		t.Errorf("unexpected message %q", fields[0].Message)
	}
	if fields[1].Field != "mode" {
		t.Errorf("expected field mode, got %q", fields[1].Field)
	}
}

func TestParams_GraphValidationError(t *testing.T) {
	err := Params("crop0", cropParams{Width: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.IsGraphValidation(err) {
		t.Errorf("expected GRAPH_VALIDATION, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Details["node"] != "crop0" {
		t.Errorf("expected node detail, got %v", appErr.Details)
	}
}

func TestConfig_ConfigurationError(t *testing.T) {
	type cfg struct {
		BatchSize int `mapstructure:"batch_size" validate:"gt=0"`
	}
	err := Config(cfg{})
	if !errors.IsConfiguration(err) {
		t.Fatalf("expected CONFIGURATION_ERROR, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Details["param"] != "batch_size" {
		t.Errorf("expected param=batch_size, got %v", appErr.Details["param"])
	}
	if Config(cfg{BatchSize: 1}) != nil {
		t.Error("expected valid config")
	}
}

func TestValidator_Programmatic(t *testing.T) {
	v := New()
	v.Positive("batch_size", 4).
		Positive("num_threads", 0).
		NonNegative("device_id", -1).
		Range("mirror_probability", 1.5, 0, 1).
		OneOf("layout", "NCWH", "NCHW", "NHWC").
		Check(true, "ok", "never")

	if len(v.Errors()) != 4 {
		t.Fatalf("expected 4 errors, got %v", v.Errors())
	}
	err := v.Configuration()
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Details["param"] != "num_threads" {
		t.Errorf("expected first offending param num_threads, got %v", err)
	}
}

func TestValidator_NoErrors(t *testing.T) {
	v := New().Positive("batch_size", 1)
	if v.HasErrors() {
		t.Error("expected no errors")
	}
	if v.Configuration() != nil {
		t.Error("expected nil error")
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"BatchSize":  "batch_size",
		"numThreads": "num_threads",
		"x":          "x",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
