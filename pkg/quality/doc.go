// Package quality evaluates the no-reference quality of a single image
// supplied as base64 text.
//
// An Evaluator reads the input, makes sure the scoring assets are on disk,
// and hands the bytes to an Engine, which decodes and scores them. The Engine
// is the only part that knows pixel layouts and how a score is computed;
// implementations bind to an external image library (see package brisque).
//
// Every terminal failure is an *Error whose message is the single line shown
// to the user. Use errors.Is with the Err* sentinels to tell them apart.
package quality
