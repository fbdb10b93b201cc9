// Package writers turns query answers into serialized outputs.
//
// Design:
//   - Writers own all presentation knowledge (TSV, JSON, JSONL).
//   - Graph stays domain-only; the query app stays orchestration-only.
//   - JSON/JSONL go through pkg/api (v1) for a stable wire format.
package writers
