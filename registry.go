package htmltext

// LinkSpan is a character range associated with a URL or an internal
// navigation token. The range is half-open.
type LinkSpan struct {
	URL   string
	Start int
	End   int
}

// Contains reports whether character i is inside the link.
func (l LinkSpan) Contains(i int) bool { return i >= l.Start && i < l.End }

// Range returns the link's character range.
func (l LinkSpan) Range() Range { return Range{Start: l.Start, End: l.End} }

// HyperLink is an anchor that has been opened but not closed yet.
type HyperLink struct {
	URL   string
	Start int
}

// ImagePlacement describes an image the host should draw.
type ImagePlacement struct {
	Source string
	// Char is the approximate character position of the image.
	Char           int
	NaturalWidth   int
	NaturalHeight  int
	RequestedWidth int // 0 when the tag had no width
	DisplayWidth   int
	DisplayHeight  int
	// Inline images sit on a text line (list bullets); others are followed
	// by enough line breaks to clear their height.
	Inline bool
}

// Registry collects resolved links and placed images.
type Registry struct {
	open   *HyperLink
	links  []LinkSpan
	images []ImagePlacement
}

// BeginLink opens a link at start. An already open link is abandoned.
func (r *Registry) BeginLink(url string, start int) {
	r.open = &HyperLink{URL: url, Start: start}
}

// EndLink closes the open link at end and records it. It reports false when
// no link is open.
func (r *Registry) EndLink(end int) (LinkSpan, bool) {
	if r.open == nil {
		return LinkSpan{}, false
	}
	span := LinkSpan{URL: r.open.URL, Start: r.open.Start, End: end}
	r.open = nil
	r.links = append(r.links, span)
	return span, true
}

// Pending returns the link that is open, if any.
func (r *Registry) Pending() (HyperLink, bool) {
	if r.open == nil {
		return HyperLink{}, false
	}
	return *r.open, true
}

// AddLink records a finished span.
func (r *Registry) AddLink(span LinkSpan) {
	r.links = append(r.links, span)
}

// FindLinkAt returns the first link containing character i.
func (r *Registry) FindLinkAt(i int) (LinkSpan, bool) {
	for _, l := range r.links {
		if l.Contains(i) {
			return l, true
		}
	}
	return LinkSpan{}, false
}

// Links returns the recorded spans in document order.
func (r *Registry) Links() []LinkSpan { return r.links }

// PlaceImage records an image placement.
func (r *Registry) PlaceImage(p ImagePlacement) {
	r.images = append(r.images, p)
}

// Images returns the recorded placements in document order.
func (r *Registry) Images() []ImagePlacement { return r.images }

// PlacedImages returns the source names of the placed images in order of
// first appearance, without duplicates.
func (r *Registry) PlacedImages() []string {
	if len(r.images) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(r.images))
	names := make([]string, 0, len(r.images))
	for _, p := range r.images {
		if _, ok := seen[p.Source]; ok {
			continue
		}
		seen[p.Source] = struct{}{}
		names = append(names, p.Source)
	}
	return names
}

// Reset forgets all links and images.
func (r *Registry) Reset() {
	r.open = nil
	r.links = r.links[:0]
	r.images = r.images[:0]
}
