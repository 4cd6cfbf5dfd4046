// Package notify provides the delivery side of run lifecycle events: an
// in-process Hub that fans events out to per-channel subscribers, a
// core.NotificationSink implementation backed by the hub, a no-op sink for
// silent operation, and the RunEmitter that binds a sink to one run.
//
// The hub favors liveness over completeness: a subscriber that cannot keep up
// has events dropped rather than blocking every other channel consumer, the
// usual trade-off for push-notification fan-out.
package notify
