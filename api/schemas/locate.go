// api/schemas/locate.go
package schemas

// Strategy is one heuristic for finding a target element. Strategies are
// evaluated in order; the first one yielding an accepted candidate wins, so
// earlier entries should be the more precise ones.
type Strategy struct {
	// Name identifies the strategy in structured logs.
	Name string `json:"name"`
	// Selector, when set, collects all elements matching a CSS selector.
	Selector string `json:"selector,omitempty"`
	// TextContains, when set, collects elements whose visible text or
	// accessible label contains the token (case-insensitive). Looser and
	// higher-recall than a selector; used after selector strategies fail.
	TextContains string `json:"textContains,omitempty"`
	// Label, when set, collects form fields whose aria-label, placeholder,
	// name, or associated <label> contains the token.
	Label string `json:"label,omitempty"`
	// NearText, when set, walks visible text nodes for the token and probes
	// the nearest following interactive sibling. The widest-funnel fallback;
	// marketplace forms rename and restyle fields without notice.
	NearText string `json:"nearText,omitempty"`
}

// Viewport holds the dimensions of the surface's visible area.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Candidate is one element reported by an in-surface collector script. The
// surface is a separate, less-trusted execution context, so this shape is
// validated on the controller side before use.
type Candidate struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Visible  bool    `json:"visible"`
	Tag      string  `json:"tag"`
	Editable bool    `json:"editable"`
}

// CandidateBatch is the full result of one collector evaluation.
type CandidateBatch struct {
	Viewport   Viewport    `json:"viewport"`
	Candidates []Candidate `json:"candidates"`
}

// LocateResult is the output of the field locator. It never holds a handle to
// the underlying DOM node (handles go stale and do not serialize across the
// controller/surface boundary), only a geometric target re-resolved at click
// time.
type LocateResult struct {
	Found bool
	// X, Y are viewport coordinates of the accepted candidate's center.
	X, Y float64
	// ElementKind is the lowercase tag name of the accepted candidate.
	ElementKind string
	// IsEditableRegion reports whether the target accepts text input.
	IsEditableRegion bool
	// Strategy names the heuristic that produced the match.
	Strategy string
}
