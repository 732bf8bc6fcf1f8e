// Package common contains shared constants and sentinel errors used across
// identity service components.
package common

// AuthorizationHeaderName is the HTTP header that carries the bearer token
// on authenticated requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token value in the Authorization header.
const BearerPrefix = "Bearer "
