// Package pipeline computes the ordered stage sequence for a run.
//
// The resolver is a pure function over the triage classification and the
// agent catalog: it never fails and never returns an empty order. A missing
// or unusable classification falls back to the catalog's required agents,
// insufficient data inserts the gathering stage before the domain agent, and
// unknown intents or uncataloged agents substitute the default domain agent.
// Every resolved order ends with the reporting stage, so a bad classification
// can cost answer quality but never the run itself.
package pipeline
