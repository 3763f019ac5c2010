// Package behavior implements the reactive arbitration core: a fixed,
// priority-ordered registry of modes, a tick-driven controller that lets at
// most one mode act on the agent at a time, and an executor that runs mode
// actions single-flight with an optional timeout. World queries and skills
// are consumed through small collaborator interfaces and never reimplemented
// here.
package behavior
