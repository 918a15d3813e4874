// Package media defines the value types exchanged with the transcoding
// subsystem: source videos handed in by callers and the artifacts returned to
// them.
//
// Artifacts carry their declared media type so callers can store or serve
// the bytes without sniffing them.
package media
