package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jdziat/simple-form-actions/pkg/continuation"
	"github.com/jdziat/simple-form-actions/pkg/core"
	"github.com/jdziat/simple-form-actions/pkg/dispatch"
)

// Mode is the way an outcome was emitted.
type Mode string

const (
	ModeDirect   Mode = "direct"
	ModeRedirect Mode = "redirect"
)

// StatusHeader carries the status label in direct mode.
const StatusHeader = "X-Action-Status"

// StatusLabel returns the label of an outcome status.
func StatusLabel(status int) string {
	switch status {
	case core.StatusSuccess:
		return "Success"
	case core.StatusBadSyntax:
		return "Bad Syntax"
	case core.StatusInternal:
		return "Internal Error"
	}
	return ""
}

// Write emits out in redirect mode when r carries a redirect signature and a
// Referer header, and in direct mode otherwise. An outcome too large for a
// token falls back to direct mode.
func Write(w http.ResponseWriter, r *http.Request, out *dispatch.Outcome) (Mode, error) {
	if sig, referer, ok := redirectTarget(r); ok {
		err := Redirect(w, referer, sig, out)
		if !errors.Is(err, core.ErrTokenTooLarge) {
			return ModeRedirect, err
		}
	}
	return ModeDirect, Direct(w, out)
}

func redirectTarget(r *http.Request) (sig, referer string, ok bool) {
	sig = r.URL.Query().Get(continuation.RedirectKey)
	referer = r.Referer()
	return sig, referer, sig != "" && referer != ""
}

// Direct writes out as a JSON response with the outcome status.
func Direct(w http.ResponseWriter, out *dispatch.Outcome) error {
	if !core.ValidStatus(out.Status) {
		return fmt.Errorf("actions: invalid outcome status %d", out.Status)
	}
	data, err := json.Marshal(out.Body)
	if err != nil {
		return fmt.Errorf("actions: encode response: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(StatusHeader, StatusLabel(out.Status))
	w.WriteHeader(out.Status)
	_, err = w.Write(data)
	return err
}

// Redirect answers 303 See Other, sending the client back to referer with a
// continuation token for the form identified by sig. Tokens already present
// in the referer query are replaced.
func Redirect(w http.ResponseWriter, referer, sig string, out *dispatch.Outcome) error {
	token, err := continuation.Encode(sig, out.FieldValues, out.Status, out.Body)
	if err != nil {
		return err
	}

	w.Header().Set("Location", WithToken(referer, token))
	w.WriteHeader(http.StatusSeeOther)
	return nil
}

// WithToken replaces any continuation token in the query of rawURL with
// token. Other query parameters are kept verbatim and in order.
func WithToken(rawURL, token string) string {
	rest, fragment, hasFragment := strings.Cut(rawURL, "#")
	base, query, _ := strings.Cut(rest, "?")

	prefix := continuation.QueryKey + "="
	var parts []string
	for _, q := range strings.Split(query, "&") {
		if q == "" || strings.HasPrefix(q, prefix) {
			continue
		}
		parts = append(parts, q)
	}
	parts = append(parts, prefix+token)

	out := base + "?" + strings.Join(parts, "&")
	if hasFragment {
		out += "#" + fragment
	}
	return out
}
