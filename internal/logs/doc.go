// Package logs reads the mvs log file for `mvs logs`.
//
// Last returns the final N lines with bounded memory, ReadFrom continues at a
// byte offset, and Follow streams new lines as the file grows. Follow watches
// the log directory with fsnotify so it also survives rotation and truncation.
package logs
