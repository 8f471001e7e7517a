// api/schemas/results.go
package schemas

// SessionState is the lifecycle position of one posting attempt. Exactly one
// instance exists per attempt, owned exclusively by the session controller.
type SessionState string

const (
	StateIdle                SessionState = "idle"
	StateNavigating          SessionState = "navigating"
	StateAwaitingLogin       SessionState = "awaiting_login"
	StateFormReady           SessionState = "form_ready"
	StateFilling             SessionState = "filling"
	StateUploadingPhotos     SessionState = "uploading_photos"
	StateAwaitingManualSubmit SessionState = "awaiting_manual_submit"
	StateClosed              SessionState = "closed"
	StateFailed              SessionState = "failed"
)

// FillSummary aggregates the per-field outcomes of one attempt. A false entry
// means "manual entry needed", not an error.
type FillSummary struct {
	Title       bool `json:"title"`
	Price       bool `json:"price"`
	Description bool `json:"description"`
	Photos      bool `json:"photos"`
}

// UploadResult reports how the photo upload step concluded.
type UploadResult struct {
	Success bool `json:"success"`
	// Manual is set when no upload affordance was found and the images were
	// exported for the user to attach by hand. This is a designed degradation
	// path, not an error.
	Manual bool `json:"manual"`
	// SavedTo names the directory holding exported images when Manual is set.
	SavedTo string `json:"savedTo,omitempty"`
	// Paths lists the temp files staged for the native file-pick flow.
	Paths []string `json:"paths,omitempty"`
	// UploadArea describes the affordance that was clicked, for logs.
	UploadArea string `json:"uploadArea,omitempty"`
}

// PostResult is the single outcome value of one posting attempt. Failures are
// reported here with a human-readable reason; they are never thrown across the
// controller/caller boundary.
type PostResult struct {
	Success              bool         `json:"success"`
	FillResults          *FillSummary `json:"fillResults,omitempty"`
	URL                  string       `json:"url,omitempty"`
	Message              string       `json:"message,omitempty"`
	RequiresManualSubmit bool         `json:"requiresManualSubmit,omitempty"`
	Error                string       `json:"error,omitempty"`
	// RequiresLogin marks a recoverable-by-user condition: the caller may
	// retry after the user logs in.
	RequiresLogin bool `json:"requiresLogin,omitempty"`
}

// Status answers UI polling about the controller.
type Status struct {
	IsProcessing bool `json:"isProcessing"`
	HasWindow    bool `json:"hasWindow"`
}
