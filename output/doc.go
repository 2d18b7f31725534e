// Package output writes speaker-attributed transcript records.
//
// Every format implements Sink. File sinks write CSV, a speaker-labeled
// text transcript or plain text. SQLiteSink stores each run in a
// transcript_segments table keyed by a run id. Multi fans one stream of
// records out to several sinks, and FromConfig builds that fan-out from
// configuration.
package output
