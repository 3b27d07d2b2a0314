// Package ingest discovers report files, queues them and parses them
// incrementally.
//
// A Watcher polls a set of directories and queues files that are new or have
// changed since they were last queued. Workers of a Session take queued files
// and run a ParseCommand, which parses the file with the Parser for its report
// type and stores the outcome in RulesState. Files may still be growing when
// they are parsed: a parser reports whether it reached the end of a complete
// document, and the next parse of the same file skips the units the previous
// one already reported. RulesState also records which file owns each test
// suite, so a suite written into two reports is reported once.
package ingest
