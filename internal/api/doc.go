// Package api is the REST client for the session backend.
//
// The notifier only needs one endpoint:
//
//	GET {api_url}/api/sessions?status=waiting
//
// which returns {"sessions":[{"id":"...","status":"waiting"}]}. Requests carry
// the current token as a Bearer credential and are retried on 5xx and 429.
package api
