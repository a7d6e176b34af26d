// Package encryption seals client secrets so they can be kept in
// configuration files without being readable at rest.
//
// A sealed value has the form "sealed:<base64(nonce|ciphertext)>". OpenSecret
// unwraps sealed values and passes anything else through unchanged, so a
// configuration may hold either form:
//
//	sealed, _ := encryption.SealSecret(secret, sealKey)
//	secret, err := encryption.OpenSecret(cfg.ClientSecret, sealKey)
//
// Keys are passphrases hashed with SHA-256 to 256 bits. AES-256-GCM is the
// default; ChaCha20-Poly1305 is available for hosts without AES hardware.
package encryption
