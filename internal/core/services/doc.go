// Package services implements the driving port interfaces.
// Services contain the core retrieval logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO. The only third-party imports are
// small utilities (uuid for session IDs, validator for settings).
package services
