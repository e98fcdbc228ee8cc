// Package form provides the view model for rendering an action form.
//
// A Form is built for one operation on one page. It derives the endpoint URL
// (carrying the redirect signature), decodes any continuation token found in
// the page query, and exposes per-field values and errors to the renderer.
package form
