// Package client is the shared core of every GS2 service client.
//
// A Client binds a credential and a region to a pooled transport. Service
// clients describe each API function as a Call and pick the verb:
//
//	c, err := client.New(cred, "ap-northeast-1")
//	payload, err := c.DoGet(ctx, client.Call{
//	    URL:      "https://{service}.{region}.gen2.gs2io.com/item",
//	    Service:  "inventory",
//	    Module:   "inventory",
//	    Function: "getItem",
//	    Query:    map[string]string{"name": "potion"},
//	})
//
// Every call is stamped by the credential exactly once, so transport retries
// resend the same signature. Results are a decoded JSON object or an error
// from the response, transport or errors packages:
//
//	switch {
//	case response.IsQuotaExceeded(err):
//	case transport.IsTransportError(err):
//	}
//
// Get, Post, Put and Delete decode the body into a caller type instead.
package client
