// Package component defines the lifecycle contract for long-lived parts of a
// speakline process, such as model executors, and a registry that starts them
// in order and stops them in reverse order on every exit path.
package component
