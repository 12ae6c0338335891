package bootstrap

import (
	"github.com/kbukum/augkit/config"
)

// Config is the constraint for application configuration types. Any struct
// embedding config.ServiceConfig satisfies it via promoted methods, provided
// it declares its own ApplyDefaults and Validate or inherits them.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
