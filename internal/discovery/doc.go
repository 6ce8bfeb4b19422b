// Package discovery finds the external scripts a page loads.
//
// Discover selects every <script> element that carries a src attribute and
// resolves the attribute against the page location, honoring a <base href>
// element when the document declares one. Inline scripts are skipped.
package discovery
