// Package gemini implements generation.Generator on top of Google's Gemini
// API (google.golang.org/genai).
//
// A request's topic, difficulty, Bloom level and mastery level are rendered
// into a text/template prompt. The embedded default template can be replaced
// from a file. The model is asked for JSON, which is parsed into domain
// questions. One invalid question rejects the whole response.
//
// Rate limiting, server errors and network failures are retried with jittered
// exponential backoff. Blocked content and other client errors fail at once.
package gemini
