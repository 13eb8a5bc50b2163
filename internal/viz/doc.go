// Package viz renders design results for the terminal: a styled report of
// an LDO candidate against its targets, and asciigraph plots of the gate
// sweep and the loop response.
package viz
