// Package respond renders assistant replies into the envelope expected by the
// inbound channel: a JSON object for API clients or TwiML for SMS webhooks.
//
// Adapters escape their own output. Reply text handed to an adapter is always
// the raw assistant content.
package respond
