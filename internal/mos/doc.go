// Package mos provides small-signal operating-point tables for MOS devices.
//
// A [Table] maps a bias condition (vgs, vds, vbs) of one device geometry to an
// [Op], a bag of small-signal parameters:
//
//   - ibias: drain current magnitude, positive when the device conducts
//   - gm, gds, gmb: transconductance, output and body conductance
//   - cgs, cgd, cgb, cds, cdb, csb: terminal capacitances (cgg, cdd, css aggregates)
//   - vstar: overdrive figure 2*ibias/gm
//
// Tables are either analytic ([SquareLaw]) or interpolated from a characterized
// grid ([Grid]). Both are loaded from YAML device files with [LoadTable].
//
// Voltages follow the device's own sign convention: p-type devices are queried
// with negative vgs/vds and still report positive currents and conductances.
package mos
