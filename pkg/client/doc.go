// Package client is the programmatic counterpart of the claim form. It keeps the
// field values, the declarations and a deduplicated attachment list, validates
// them, and posts them to the relay as multipart/form-data, reporting exactly
// one Outcome per submission.
package client
