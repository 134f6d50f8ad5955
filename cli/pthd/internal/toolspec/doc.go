// Package toolspec holds the table of agent tools pthd knows how to launch
// and the parser that turns free text such as "3 cc, gemini: 2" into
// per-tool instance counts.
package toolspec
