package common

import "fmt"

// ConfigError describes the first field of the user config that failed
// validation. It matches ErrConfigInvalid via errors.Is.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfigInvalid, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfigInvalid
}

// BusinessError is a non-zero retcode returned by the billing endpoint.
// It matches ErrBillingBusiness via errors.Is.
type BusinessError struct {
	Code    int
	Message string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("%s: retcode=%d: %s", ErrBillingBusiness, e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return ErrBillingBusiness
}
