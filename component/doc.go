// Package component defines the lifecycle interfaces gs2kit clients implement
// so applications can manage them next to their other infrastructure.
//
// A client is started once, reports health while it runs, and releases its
// pooled connections when stopped. Registry starts components in
// registration order and stops them in reverse.
package component
