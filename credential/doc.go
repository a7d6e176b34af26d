// Package credential signs outgoing GS2 requests.
//
// Two credentials exist. Basic holds a client id and a base64 shared secret
// and signs each call with HMAC-SHA256 over "module:function:timestamp".
// Onetime holds a single pre-issued token and never signs:
//
//	cred, err := credential.NewBasic(clientID, clientSecret)
//	headers := map[string]string{}
//	cred.Authorize("inventory", "getItem", headers, time.Now().Unix())
//
// Authorize only writes into the supplied header map. Credentials are
// immutable after construction and safe for concurrent use.
package credential
