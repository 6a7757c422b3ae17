// # Available Commands
//
//   - render: Render a template, filling its sections from flags and locals
//   - version: Print build information
//
// # Command Examples
//
//	// Fill two sections, one from a file
//	partials render card --set title=Hello --set body=@body.md
//
//	// Render with YAML locals into a file
//	partials render page --locals-file locals.yaml -o page.html
//
//	// Re-render whenever a template under the template directory changes
//	partials render page --watch
//
// Render failures are logged with their error code, template, and slot
// before the command exits non-zero.
package cmd
