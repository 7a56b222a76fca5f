// Package derive implements the password derivation pipeline.
//
// A site password is derived in two PBKDF2-HMAC-SHA256 rounds:
//
//	seed = SHA256(secret)
//	salt = PBKDF2(SHA256(domain), SHA256(saltKey), iterations, 32)
//	key  = PBKDF2(seed, salt, iterations, 32)
//
// The key is then rendered either in Z85 (special characters allowed) or
// in unpadded URL-safe base64, and optionally truncated.
//
// The algorithm is frozen: passwords generated by earlier releases must
// keep coming out the same. Known-answer vectors live in engine_test.go.
//
// Both rounds are deliberately slow. Callers must not run Generate on a
// latency-sensitive goroutine; see package worker.
package derive
