// Package logx is gamewatch's structured logging on top of zerolog.
//
// Console output is human readable and goes to stderr; the optional file
// sink writes JSON lines. Stdout is left to command output (reports and
// diff JSON) so it stays machine readable. Err and URL mask webhook and bot
// tokens, which otherwise leak through HTTP client errors.
package logx
