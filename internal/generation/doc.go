// Package generation provides interfaces for interacting with external AI/LLM
// services that write practice questions. It keeps the details of the LLM API
// (Gemini) out of the application core: callers describe what they need with a
// QuestionRequest derived from the latest difficulty adjustment.
package generation
