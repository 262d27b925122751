// Package pbd implements the position-based constraint projections used by
// the soft-body stepper.
//
// Every solver is a pure function: it takes particle positions, inverse
// masses and the constraint's rest invariants, and returns one position
// correction per particle plus a flag. A false flag means the constraint
// is degenerate for the current configuration and the caller should skip
// it. Deciding which particles actually move (inverse mass zero) is left to
// the caller.
//
//   - [SolveDistance]: edge length
//   - [SolveVolume]: signed tetrahedron volume
//   - [SolveFEMTetra]: St. Venant-Kirchhoff strain energy, with an
//     inversion-robust branch
//   - [SolveStrainTetra]: strain-based dynamics, per-axis stretch and shear
package pbd
