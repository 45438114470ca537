// Package token issues and verifies the signed bearer tokens handed out at
// login.
//
// Tokens are compact HS256 JWTs carrying the user ID as subject together
// with issued-at and expiry times. There is no revocation list: a token is
// valid until its expiry, and expiry is checked without any leeway.
package token
