// Package security holds the TLS settings applied to HTTPS connections made
// by the gs2kit transport.
//
//	cfg := security.TLSConfig{
//	    CAFile:     "/etc/gs2/ca.pem",
//	    ServerName: "gateway.ap-northeast-1.gen2.gs2io.com",
//	}
//
//	tlsConfig, err := cfg.Build()
//
// A nil or zero TLSConfig builds to a nil *tls.Config, which leaves Go's
// default verification in place.
package security
