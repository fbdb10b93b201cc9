// Package bank supplies input sequences to the counting pipeline: FASTA and
// FASTQ files (plain or gzip, "-" for stdin) and in-memory string lists.
package bank
