// Package trainer provides high-level training orchestration for msa models.
// It discovers the compute devices, selects a single-device or a data-parallel
// execution strategy, derives the step budget from the dataset size and runs
// the epoch loop over a shuffled batch stream.
package trainer
