// Package llm turns scan requests into recycling decisions.
// It builds the instruction sent to the inference relay, delivers it with
// auth, quota, and size handling, and decodes the loosely structured reply
// into a model.ClassificationResult. Replies for repeated text scans can be
// cached and outbound calls are paced by a token bucket.
package llm
