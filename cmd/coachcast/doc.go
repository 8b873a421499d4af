// Command coachcast is the CLI for the coachcast daemon: submit generation
// jobs, inspect their lifecycle, and manage the daemon process.
package main
