// Package timestep advances a tetrahedral soft body by one Position-Based
// Dynamics step.
//
// A step applies gravity, integrates with semi-implicit Euler, projects the
// elastic constraints with a fixed number of Gauss-Seidel iterations and
// rebuilds velocities from the corrected positions. The elasticity model is
// chosen with a Method:
//
//	DistanceVolume  edge distance plus tetrahedron volume constraints
//	FEM             St. Venant-Kirchhoff strain energy with inversion handling
//	StrainBased     strain-based dynamics on the six Green strain components
//
// A TimeStep holds no simulation state. It is not safe for concurrent use
// on the same model.
package timestep
