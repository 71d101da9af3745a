// Package gemini implements [chatter.Gateway] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK so the client can talk to Gemini
// directly, without a custom chat backend. Session history is replayed as
// alternating user and model contents on every call.
package gemini

const defaultModel = "gemini-2.5-flash"
