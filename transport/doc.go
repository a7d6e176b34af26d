// Package transport is the pooled HTTP layer under the GS2 client.
//
// A Transport keeps at most one connection per destination
// (scheme, host, port) and reuses it sequentially. When an exchange fails at
// the transport level (dial, I/O, protocol, per-attempt timeout) the
// connection for that destination is closed and dropped from the pool before
// the request is tried again, up to MaxAttempts times in total:
//
//	t, err := transport.New(transport.Config{Timeout: 30 * time.Second})
//	resp, err := t.Get(ctx, transport.Request{
//	    URL:   "https://inventory.ap-northeast-1.gen2.gs2io.com/inventory/model",
//	    Query: map[string]string{"pageToken": "abc"},
//	})
//
// Every HTTP status is a successful exchange at this layer; interpreting the
// status belongs to the response package.
package transport
