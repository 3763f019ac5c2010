// Package sim is the in-memory demo world. It implements the agent, sensor,
// runner and skill capabilities the behavior core consumes, driven by YAML
// scenarios and a fixed-step clock.
package sim
