// Package journey drives one journey definition end to end: rendering a step
// for a case, validating and persisting submissions, routing to the next step
// and guarding steps whose dependencies are unanswered.
//
// The engine is request scoped and synchronous. Definitions, graphs and the
// component builder are shared read-only; answers and error maps are built
// fresh for every call.
package journey
