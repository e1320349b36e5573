// Package speech wraps speech synthesis behind an asynchronous engine
// contract: utterances are submitted with a caller-chosen id and their
// completion is reported through per-utterance listener callbacks, never
// through the submitting call.
package speech
