// Package htmltext renders a small subset of HTML4 inline markup as styled
// text.
//
// A single-pass scanner reads the markup and threads a StyleState through
// pure tag handlers. The output goes to a Sink as styled runs, hyperlink
// spans, image placements and list indent ranges. Document is the default
// Sink and keeps everything a host needs to lay out, paint and hit-test.
//
// Supported tags: br, b/strong, i/em, u, a href, font size/color/face,
// small, big, ul, ol, li, h1-h4, p, span style, pre and img src/width.
// Entities: nbsp, amp, quot, lt, rt ('>'), laquo, raquo and &#NNN;.
// Everything else is consumed and ignored.
//
// The package ships two hosts for a Document: Render paints it to an image
// with TrueType fonts and RenderTerminal writes it as ANSI text.
package htmltext
