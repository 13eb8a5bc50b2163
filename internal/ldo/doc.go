// Package ldo sizes a series-pass LDO regulator with a five-transistor error
// amplifier.
//
// A [Designer] sweeps the pass-device gate voltage. At each point it sizes
// the pass device ([SizeSeries]) and the amplifier ([SizeAmp]) from
// operating-point tables, evaluates loop gain, phase margin, PSRR and load
// regulation on small-signal models, and keeps the feasible candidate with
// the lowest amplifier bias current.
package ldo
