// Package report names and writes formatted call report documents.
//
// Documents are written through github.com/viant/afs so the reports
// directory may be a plain local path or any URL afs understands.
package report
