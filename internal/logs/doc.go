// Package logs reads the framepress log file for `framepress logs`.
//
// Last reads the final lines with bounded memory by scanning backwards from
// the end of the file. Follow polls for appended lines from an offset and
// restarts from the top when the file is truncated or replaced.
package logs
