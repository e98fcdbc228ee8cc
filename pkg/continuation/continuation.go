package continuation

import (
	"bytes"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/jdziat/simple-form-actions/pkg/core"
	"github.com/jdziat/simple-form-actions/pkg/security"
)

// QueryKey is the reserved query parameter carrying a token.
const QueryKey = "$_"

// RedirectKey is the query parameter that switches an action endpoint into
// redirect mode. Its value is the signature of the submitting form.
const RedirectKey = "redirect"

const separator = "\x00"

var encoding = base64.RawURLEncoding

// Payload is a decoded continuation token.
type Payload struct {
	Signature   string
	FieldValues *orderedmap.OrderedMap[string, any]
	Status      int
	Data        json.RawMessage
}

// Signature identifies a form: the target type name, its exported
// constructor arguments, the method name and an optional differentiator for
// several forms of the same method on one page. An empty differentiator is
// encoded as null.
func Signature(target string, args []any, method, differentiator string) (string, error) {
	if args == nil {
		args = []any{}
	}
	var diff any
	if differentiator != "" {
		diff = differentiator
	}

	data, err := json.Marshal([]any{target, args, method, diff})
	if err != nil {
		return "", fmt.Errorf("actions: signature: %w", err)
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

// Encode builds a token from a signature, the echoed field values, an
// outcome status and the exported outcome body.
func Encode(sig string, fieldValues *orderedmap.OrderedMap[string, any], status int, body any) (string, error) {
	if !core.ValidStatus(status) {
		return "", fmt.Errorf("actions: encode continuation: invalid status %d", status)
	}
	if strings.Contains(sig, separator) {
		return "", fmt.Errorf("actions: encode continuation: invalid signature")
	}
	if fieldValues == nil {
		fieldValues = orderedmap.New[string, any]()
	}

	fields, err := json.Marshal(fieldValues)
	if err != nil {
		return "", fmt.Errorf("actions: encode continuation fields: %w", err)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("actions: encode continuation body: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(sig)
	buf.WriteString(separator)
	buf.Write(fields)
	buf.WriteString(separator)
	buf.WriteString(strconv.Itoa(status))
	buf.WriteString(separator)
	buf.Write(data)

	token := encoding.EncodeToString(buf.Bytes())
	if len(token) > security.MaxTokenSize {
		return "", core.ErrTokenTooLarge
	}
	return token, nil
}

// Decode parses a token and checks it against the expected signature.
// Any malformed or mismatched token yields (nil, false).
func Decode(token, expected string) (*Payload, bool) {
	if token == "" || expected == "" || len(token) > security.MaxTokenSize {
		return nil, false
	}

	raw, err := encoding.DecodeString(token)
	if err != nil {
		return nil, false
	}

	parts := strings.SplitN(string(raw), separator, 4)
	if len(parts) != 4 || parts[0] != expected {
		return nil, false
	}

	status, err := strconv.Atoi(parts[2])
	if err != nil || !core.ValidStatus(status) {
		return nil, false
	}

	fields := orderedmap.New[string, any]()
	if err := json.Unmarshal([]byte(parts[1]), fields); err != nil {
		return nil, false
	}
	if !json.Valid([]byte(parts[3])) {
		return nil, false
	}

	return &Payload{
		Signature:   parts[0],
		FieldValues: fields,
		Status:      status,
		Data:        json.RawMessage(parts[3]),
	}, true
}

// Value decodes the payload body into v.
func (p *Payload) Value(v any) error {
	return json.Unmarshal(p.Data, v)
}
