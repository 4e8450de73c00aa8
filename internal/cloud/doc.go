// Package cloud talks to the appliance vendor's account API.
//
// The API issues the bearer tokens cloud broker connections
// authenticate with. It is aggressively rate limited and treats
// repeated failed logins as abuse, so the client retries only
// transient failures, never retries refused credentials, and answers
// rate limiting by falling back to the most recently issued cached
// token instead of hammering the endpoint.
package cloud
