// Package mcdata gives random access to persisted per-event MC collections
// (tracks, points, event headers) spread over one or more input slots.
//
// Each slot owns a Chain: a time-ordered sequence of entries, one per event,
// read from that slot's files. A Cache decodes an entry on first access and
// keeps the decoded collection until FinishEvent, which the event loop must
// call after every event; otherwise memory grows with every distinct event
// visited. Done releases the chains and ends the cache's life.
//
// Legacy caches serve the single collection currently registered with an
// IOManager for the branch and do no caching of their own.
//
// Caches are not safe for concurrent use. Access is expected to be
// single-threaded and event-ascending, which is also what the underlying
// chains require.
package mcdata
