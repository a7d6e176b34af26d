// Package validation provides struct tag validation for gs2kit configuration
// and credentials.
//
// Validation failures are reported as *errors.AppError. Validate uses the
// INVALID_INPUT code; ValidateAs lets the caller pick the code so that, for
// example, a bad credential surfaces as INVALID_CREDENTIAL:
//
//	type basicFields struct {
//	    ClientID     string `json:"client_id" validate:"required"`
//	    ClientSecret string `json:"client_secret" validate:"required,base64"`
//	}
//	err := validation.ValidateAs(errors.ErrCodeInvalidCredential, fields)
//
// Besides the validator built-ins, the "region" tag accepts GS2 region names
// such as "ap-northeast-1".
package validation
