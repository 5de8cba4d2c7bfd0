package credential

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	FormatSDJWT       = "vc+sd-jwt"
	FormatDCSDJWT     = "dc+sd-jwt"
	FormatJWTVCJSON   = "jwt_vc_json"
	FormatJWTVCJSONLD = "jwt_vc_json-ld"
	FormatLDPVC       = "ldp_vc"
	FormatMSOMDoc     = "mso_mdoc"
)

// ClaimsSource resolves the claims known about a subject.
type ClaimsSource interface {
	ClaimsOf(subject string) (map[string]any, bool)
}

type OrderOptions struct {
	CredentialDuration time.Duration
	Deferred           bool
	SigningKeyID       string
}

// OrderBuilder turns parsed credential requests into issuance orders.
type OrderBuilder struct {
	claims ClaimsSource
	opts   OrderOptions
}

func NewOrderBuilder(claims ClaimsSource, opts OrderOptions) *OrderBuilder {
	return &OrderBuilder{
		claims: claims,
		opts:   opts,
	}
}

// Build is deterministic: the same request and claims produce a
// byte-identical order. Requests the builder cannot represent are rejected
// with ErrUnrepresentableRequest instead of producing a partial order.
func (b *OrderBuilder) Build(req *ParsedCredentialRequest) (*IssuanceOrder, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is nil", ErrUnrepresentableRequest)
	}
	if req.Identifier == "" {
		return nil, fmt.Errorf("%w: request identifier is empty", ErrUnrepresentableRequest)
	}

	details, err := parseDetails(req.Details)
	if err != nil {
		return nil, err
	}

	subjectClaims := b.subjectClaims(req.Subject)

	var payload map[string]any
	switch req.Format {
	case FormatSDJWT, FormatDCSDJWT:
		payload = selectClaims(subjectClaims, objectKeys(details["claims"]))
		if vct, ok := details["vct"]; ok {
			payload["vct"] = vct
		}
		if req.Subject != "" {
			payload["sub"] = req.Subject
		}
	case FormatJWTVCJSON:
		def := asObject(details["credential_definition"])
		payload = map[string]any{
			"vc": map[string]any{
				"type":              def["type"],
				"credentialSubject": selectClaims(subjectClaims, objectKeys(def["credentialSubject"])),
			},
		}
		if req.Subject != "" {
			payload["sub"] = req.Subject
		}
	case FormatLDPVC, FormatJWTVCJSONLD:
		def := asObject(details["credential_definition"])
		credentialSubject := selectClaims(subjectClaims, objectKeys(def["credentialSubject"]))
		if req.Subject != "" {
			credentialSubject["id"] = req.Subject
		}
		payload = map[string]any{
			"@context":          def["@context"],
			"type":              def["type"],
			"credentialSubject": credentialSubject,
		}
	case FormatMSOMDoc:
		claims, err := namespacedClaims(subjectClaims, details["claims"])
		if err != nil {
			return nil, err
		}
		doctype, _ := details["doctype"].(string)
		if doctype == "" {
			return nil, fmt.Errorf("%w: mdoc request without doctype", ErrUnrepresentableRequest)
		}
		payload = map[string]any{
			"doctype": doctype,
			"claims":  claims,
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Format)
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode payload: %w", ErrUnrepresentableRequest, err)
	}

	return &IssuanceOrder{
		RequestIdentifier:  req.Identifier,
		Format:             req.Format,
		CredentialPayload:  string(encoded),
		IssuanceDeferred:   b.opts.Deferred,
		CredentialDuration: int64(b.opts.CredentialDuration / time.Second),
		SigningKeyID:       b.opts.SigningKeyID,
	}, nil
}

func (b *OrderBuilder) subjectClaims(subject string) map[string]any {
	if b.claims == nil || subject == "" {
		return nil
	}
	claims, ok := b.claims.ClaimsOf(subject)
	if !ok {
		return nil
	}
	return claims
}

func parseDetails(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var details map[string]any
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return nil, fmt.Errorf("%w: details are not a JSON object: %w", ErrUnrepresentableRequest, err)
	}
	if details == nil {
		details = map[string]any{}
	}
	return details, nil
}

func asObject(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func objectKeys(v any) []string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// namespacedClaims keeps the {namespace: {claim: value}} nesting of mdoc
// claims. Every namespace must be an object.
func namespacedClaims(all map[string]any, requested any) (map[string]any, error) {
	namespaces, ok := requested.(map[string]any)
	if !ok || len(namespaces) == 0 {
		return nil, fmt.Errorf("%w: mdoc request without claim namespaces", ErrUnrepresentableRequest)
	}

	claims := make(map[string]any, len(namespaces))
	for ns, names := range namespaces {
		if _, ok := names.(map[string]any); !ok {
			return nil, fmt.Errorf("%w: mdoc namespace %q is not an object", ErrUnrepresentableRequest, ns)
		}
		claims[ns] = selectClaims(all, objectKeys(names))
	}
	return claims, nil
}

// selectClaims returns the requested claims, or all claims when none were
// requested. The result is always a fresh map.
func selectClaims(all map[string]any, names []string) map[string]any {
	selected := make(map[string]any)
	if len(names) == 0 {
		for k, v := range all {
			selected[k] = v
		}
		return selected
	}
	for _, name := range names {
		if v, ok := all[name]; ok {
			selected[name] = v
		}
	}
	return selected
}
