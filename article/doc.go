// Package article holds the blog domain model: article summaries and details,
// tags, list filters, mutation payloads and the small pure helpers around them
// (slug derivation, reading time, publication date normalization).
//
// Nothing in this package touches storage or caching. Validation uses
// ozzo-validation and failures surface as *ValidationError, which unwraps to
// ErrValidation.
package article
