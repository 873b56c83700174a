package crawl

// VisitedSet records the URLs requested during one analysis. It only
// grows and is never shared between analyses.
type VisitedSet struct {
	urls map[string]struct{}
}

func NewVisitedSet() *VisitedSet {
	return &VisitedSet{urls: make(map[string]struct{})}
}

// Visited implements crawler.VisitedChecker.
func (v *VisitedSet) Visited(url string) bool {
	_, ok := v.urls[url]
	return ok
}

// Add marks url as visited and reports whether it was new.
func (v *VisitedSet) Add(url string) bool {
	if v.Visited(url) {
		return false
	}
	v.urls[url] = struct{}{}
	return true
}

func (v *VisitedSet) Len() int {
	return len(v.urls)
}
