// Package webhook exposes the engine over HTTP with gin.
//
// POST /chat (and its alias /webhook) accepts either a JSON body
// {"message": "...", "identity": "..."} or a Twilio-style form post with
// From and Body fields. The reply is rendered in the envelope that matches
// the request: JSON for JSON requests, TwiML for form posts.
//
// Each identity is rate limited with a token bucket before a turn runs.
package webhook
