// Package errors provides the shared error type for gs2kit.
//
// Every failure the SDK raises on its own behalf (bad configuration, an
// unusable credential, an exhausted transport) is an *AppError carrying a
// machine-readable code. Service errors returned by the platform are
// *response.Error values, which convert to an AppError with the matching code.
package errors
