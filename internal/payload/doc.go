// Package payload downloads the engine runtime payload.
//
// The two assets (core module and execution backend) live under a fixed,
// versioned base location: <base_url>/<version>/<asset>. http, https, and
// file URLs are accepted; file URLs are served through net/http's file
// transport so both paths share one code path and the same error handling.
package payload
