package storage

import (
	"testing"

	"github.com/kbukum/augkit/errors"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"local ok", Config{Provider: ProviderLocal, BasePath: "/data"}, false},
		{"local missing path", Config{Provider: ProviderLocal}, true},
		{"s3 ok", Config{Provider: ProviderS3, Bucket: "b", Region: "eu-west-1"}, false},
		{"s3 missing bucket", Config{Provider: ProviderS3, Region: "eu-west-1"}, true},
		{"s3 half credentials", Config{Provider: ProviderS3, Bucket: "b", Region: "r", AccessKey: "k"}, true},
		{"unknown provider", Config{Provider: "gcs"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.IsConfiguration(err) {
				t.Errorf("expected CONFIGURATION_ERROR, got %v", err)
			}
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Provider != ProviderLocal || cfg.Region != DefaultRegion {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}
