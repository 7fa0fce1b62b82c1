// Package normalize converts raw imported text into typed expense fields.
//
// Each normalizer is independent: it either yields a value or reports
// failure, and never decides on its own whether a row is kept. That policy
// belongs to the import pipeline.
package normalize
