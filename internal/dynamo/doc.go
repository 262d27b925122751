// Package dynamo provides the shared primitives of the soft-body engine.
//
//   - [Clock]: explicit simulation context (fixed step size, elapsed time)
//     owned by the driver loop and passed into every step
//   - [Frame]: a sampled snapshot of particle positions
//   - [Config] and [Result]: driver-loop parameters and output
//   - sentinel errors and [SimulationError] for setup and driver failures
//
// # Example
//
//	clock := dynamo.NewClock(0.005)
//	for i := 0; i < 200; i++ {
//		stepper.Step(clock, m)
//	}
//
// # Thread Safety
//
// A Clock belongs to exactly one simulation. Independent simulations may
// run concurrently as long as each owns its own clock and model.
package dynamo
