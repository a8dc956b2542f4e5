// Package main provides the command line front end for training msa models.
// It reads sequences from a FASTA file, fits a model with the settings of a
// YAML run file and command line flags, and stores the loss history of the run.
package main
