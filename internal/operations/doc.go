// Package operations orchestrates the six-stage analysis pipeline: quality
// scoring, exploration, hypothesis generation, visualization, code
// generation and report assembly. Steps register with a Registry, the
// Manager executes them sequentially in dependency order, and human
// checkpoints pause the run between selected stages for an accept/adjust
// decision.
package operations
