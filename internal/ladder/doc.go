// Package ladder produces an adaptive-streaming quality ladder from one
// source video.
//
// Tiers are chosen from a fixed catalog by the source height: a tier is
// included when the source is at least that tall, and 360p is always
// included so small sources still yield one rendition. Tiers are encoded in
// catalog order inside a single job scope so the source is written once.
// Any tier failure aborts the ladder; completed tiers are discarded and the
// returned TierError names the failing position.
package ladder
