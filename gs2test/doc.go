// Package gs2test provides a fake GS2 endpoint for tests.
//
// The fake authenticates every request the way the platform does: shared
// secret signatures are checked with credential.Verify, and one-time tokens
// must be tokens the fake issued itself and are accepted once.
//
//	srv := gs2test.New(t, gs2test.WithClient("client-id", secretBase64))
//	srv.Handle(http.MethodGet, "/inventory/item", "inventory", "getItem", func(c *gin.Context) {
//	    c.JSON(http.StatusOK, gin.H{"item": gin.H{"name": "potion"}})
//	})
//	url := srv.URL() + "/{service}/item"
//
// Handlers answer errors with Fail or FailWith, which write the platform's
// error envelopes.
package gs2test
