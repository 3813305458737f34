// Package factory provides a generic registry used to build pluggable modules
// (metrics sinks, schedule sources) from configuration.
package factory
