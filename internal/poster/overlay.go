// File: internal/poster/overlay.go
package poster

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AMCarbonaro/llatria/api/schemas"
)

// summaryOverlayScript renders the per-field fill summary onto the page so
// the user can see what still needs manual attention before they submit.
func summaryOverlayScript(summary schemas.FillSummary, upload schemas.UploadResult) string {
	var b strings.Builder
	line := func(label string, ok bool) {
		mark := "filled automatically"
		if !ok {
			mark = "needs manual entry"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, mark)
	}
	line("Title", summary.Title)
	line("Price", summary.Price)
	line("Description", summary.Description)
	switch {
	case upload.Manual:
		fmt.Fprintf(&b, "Photos: saved to %s - attach them with the form's picker\n", upload.SavedTo)
	case summary.Photos:
		b.WriteString("Photos: upload dialog triggered\n")
	default:
		b.WriteString("Photos: needs manual upload\n")
	}
	b.WriteString("\nReview the listing and press the form's own submit button to publish.")

	text, err := json.Marshal(b.String())
	if err != nil {
		text = []byte(`""`)
	}

	return fmt.Sprintf(`(function() {
    const old = document.getElementById('llatria-summary');
    if (old) old.remove();
    const box = document.createElement('div');
    box.id = 'llatria-summary';
    box.style.cssText = 'position:fixed;bottom:16px;right:16px;z-index:2147483647;' +
        'max-width:360px;padding:14px 16px;background:#1c1e21;color:#fff;' +
        'white-space:pre-wrap;font:14px/1.5 system-ui,sans-serif;border-radius:8px;' +
        'box-shadow:0 4px 18px rgba(0,0,0,.35);';
    const msg = document.createElement('div');
    msg.textContent = %s;
    const close = document.createElement('button');
    close.textContent = 'Dismiss';
    close.style.cssText = 'margin-top:10px;padding:4px 10px;border:0;border-radius:4px;' +
        'background:#3a3b3c;color:#fff;cursor:pointer;font:13px system-ui,sans-serif;';
    close.onclick = () => box.remove();
    box.appendChild(msg);
    box.appendChild(close);
    document.body.appendChild(box);
    return true;
})()`, string(text))
}
