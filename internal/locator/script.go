// File: internal/locator/script.go
package locator

import (
	"encoding/json"
	"fmt"

	"github.com/AMCarbonaro/llatria/api/schemas"
)

// collectorPrelude sets up the shared candidate-reporting machinery every
// matcher script uses. Candidates carry raw geometry and computed style facts;
// all acceptance decisions happen on the Go side.
const collectorPrelude = `
    const out = { viewport: { width: window.innerWidth, height: window.innerHeight }, candidates: [] };
    const interactive = 'input, textarea, select, button, [contenteditable="true"], [role="textbox"], [role="button"]';
    const seen = new Set();
    const push = (el) => {
        if (!el || seen.has(el)) return;
        seen.add(el);
        const rect = el.getBoundingClientRect();
        const style = window.getComputedStyle(el);
        const tag = (el.tagName || '').toLowerCase();
        out.candidates.push({
            x: rect.left, y: rect.top, width: rect.width, height: rect.height,
            visible: style.display !== 'none' && style.visibility !== 'hidden' && style.opacity !== '0',
            tag: tag,
            editable: el.isContentEditable || tag === 'input' || tag === 'textarea' || tag === 'select' || el.getAttribute('role') === 'textbox',
        });
    };
`

// collectorScript renders the matcher script for one strategy. Returns false
// when the strategy has no matcher set.
func collectorScript(st schemas.Strategy) (string, bool) {
	switch {
	case st.Selector != "":
		return fmt.Sprintf(`(function() {
%s
    document.querySelectorAll(%s).forEach(push);
    return out;
})()`, collectorPrelude, jsString(st.Selector)), true

	case st.TextContains != "":
		return fmt.Sprintf(`(function() {
%s
    const token = %s.toLowerCase();
    for (const el of document.querySelectorAll('body *')) {
        const label = (el.getAttribute && el.getAttribute('aria-label')) || '';
        const text = el.childElementCount === 0 ? (el.textContent || '') : '';
        if (label.toLowerCase().includes(token) || text.toLowerCase().includes(token)) push(el);
    }
    return out;
})()`, collectorPrelude, jsString(st.TextContains)), true

	case st.Label != "":
		return fmt.Sprintf(`(function() {
%s
    const token = %s.toLowerCase();
    for (const el of document.querySelectorAll('input, textarea, [contenteditable="true"], [role="textbox"]')) {
        let hay = (el.getAttribute('aria-label') || '') + ' ' +
                  (el.getAttribute('placeholder') || '') + ' ' +
                  (el.getAttribute('name') || '');
        if (el.labels) for (const l of el.labels) hay += ' ' + (l.textContent || '');
        if (el.id) {
            const assoc = document.querySelector('label[for="' + CSS.escape(el.id) + '"]');
            if (assoc) hay += ' ' + (assoc.textContent || '');
        }
        if (hay.toLowerCase().includes(token)) push(el);
    }
    return out;
})()`, collectorPrelude, jsString(st.Label)), true

	case st.NearText != "":
		return fmt.Sprintf(`(function() {
%s
    const token = %s.toLowerCase();
    const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_TEXT);
    let node;
    while ((node = walker.nextNode())) {
        if (!(node.textContent || '').toLowerCase().includes(token)) continue;
        let hit = null;
        let probe = node.parentElement;
        for (let depth = 0; probe && depth < 4 && !hit; depth++) {
            let sib = probe.nextElementSibling;
            for (let hops = 0; sib && hops < 3 && !hit; hops++) {
                hit = sib.matches(interactive) ? sib : sib.querySelector(interactive);
                sib = sib.nextElementSibling;
            }
            probe = probe.parentElement;
        }
        if (hit) push(hit);
    }
    return out;
})()`, collectorPrelude, jsString(st.NearText)), true
	}
	return "", false
}

// jsString safely embeds a Go string as a JS string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
