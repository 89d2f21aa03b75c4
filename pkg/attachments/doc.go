// Package attachments turns CLI-friendly "path[::content-type]" specifiers into
// in-memory files ready for a claim submission, inferring the media type when the
// caller does not name one.
package attachments
