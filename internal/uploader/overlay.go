// File: internal/uploader/overlay.go
package uploader

import (
	"encoding/json"
	"fmt"
)

// manualOverlayScript renders a dismissable banner telling the user where the
// images were saved so they can attach them through the form's own picker.
func manualOverlayScript(savedTo string) string {
	dir, err := json.Marshal(savedTo)
	if err != nil {
		dir = []byte(`""`)
	}
	return fmt.Sprintf(`(function() {
    const old = document.getElementById('llatria-upload-note');
    if (old) old.remove();
    const box = document.createElement('div');
    box.id = 'llatria-upload-note';
    box.style.cssText = 'position:fixed;top:16px;right:16px;z-index:2147483647;' +
        'max-width:340px;padding:14px 16px;background:#1c1e21;color:#fff;' +
        'font:14px/1.45 system-ui,sans-serif;border-radius:8px;box-shadow:0 4px 18px rgba(0,0,0,.35);';
    const msg = document.createElement('div');
    msg.textContent = 'Photos could not be attached automatically. They were saved to ' +
        %s + " - use the form's photo picker to add them.";
    const close = document.createElement('button');
    close.textContent = 'Dismiss';
    close.style.cssText = 'margin-top:10px;padding:4px 10px;border:0;border-radius:4px;' +
        'background:#3a3b3c;color:#fff;cursor:pointer;font:13px system-ui,sans-serif;';
    close.onclick = () => box.remove();
    box.appendChild(msg);
    box.appendChild(close);
    document.body.appendChild(box);
    return true;
})()`, string(dir))
}
