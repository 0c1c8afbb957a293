// Package model provides the shared data structures for the pipeline
// package: step and run descriptors and the option contract implemented
// by cross-cutting features such as measuring, drawing and tracing.
package model
