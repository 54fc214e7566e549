// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It translates the learner-facing HTTP routes into
// LearningService calls and maps service errors onto safe status codes.
package api
