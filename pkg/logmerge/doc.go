// Package logmerge parses plain-text logs into timestamped entries and merges
// two such logs into one chronologically aligned view.
//
// # Log Format
//
// An entry starts on a line whose first 24 characters are a timestamp
// followed by a single space:
//
//	2024-01-01 10:00:00.000 message text
//
// The timestamp layout is YYYY-MM-DD HH:MM:SS.mmm. The message must contain at
// least one non-space character. The timestamp is read as UTC; no timezone
// conversion happens.
//
// Every other line is a continuation line. It is appended to the message of
// the currently open entry, separated by a newline, with its text preserved
// exactly. Continuation lines before the first entry-start line are dropped.
//
// Example:
//
//	2024-01-01 10:00:00.000 request failed
//	java.lang.IllegalStateException: boom
//	    at Foo.bar(Foo.java:12)
//	2024-01-01 10:00:00.250 retrying
//
// yields two entries. The first message has three lines.
//
// Lines end with \n or \r\n. A terminator at the very end of the input does
// not produce an extra empty continuation line.
//
// # Merging
//
// [Merge] walks both entry sequences with one cursor each. The entry with the
// earlier timestamp becomes a one-sided row. Entries with equal timestamps
// become a single row carrying both messages. Pairing is positional: when one
// log holds several entries with the same timestamp, only the entry at the
// other cursor is paired with it, the rest become one-sided rows.
//
// Both inputs are expected to be sorted by timestamp. Unsorted input still
// merges without error, but the output is then not chronological.
package logmerge
