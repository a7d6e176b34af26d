// Package logger provides structured logging for gs2kit using zerolog.
//
// The SDK logs through named component loggers so applications can route or
// silence them individually:
//
//	logger.Register("gs2.transport", logger.Nop())
//	log := logger.Get("gs2.client")
//	log.Debug("dispatch", logger.Fields(logger.FieldService, "inventory"))
//
// Nothing is logged above debug level during normal operation. Pool
// evictions are reported at warn.
package logger
