// Package artifact writes downloaded pages to the output directory.
//
// Pages are organized into one subdirectory per domain. Each page produces
// up to three files: the raw HTML, a JSON sidecar with the extracted
// content, and a small .meta sidecar with transport facts. File names are
// derived from the URL path, sanitized for the filesystem, with a numeric
// suffix appended when two URLs map to the same name.
package artifact
