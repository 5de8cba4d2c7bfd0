package credential

// Action is the outcome tag returned by the authorization service for each
// stage of the pipeline.
type Action string

const (
	ActionOK                  Action = "OK"
	ActionAccepted            Action = "ACCEPTED"
	ActionBadRequest          Action = "BAD_REQUEST"
	ActionCallerError         Action = "CALLER_ERROR"
	ActionUnauthorized        Action = "UNAUTHORIZED"
	ActionForbidden           Action = "FORBIDDEN"
	ActionInternalServerError Action = "INTERNAL_SERVER_ERROR"
)

// Stage names one of the three downstream calls.
type Stage string

const (
	StageRequest       Stage = "request"
	StageIntrospection Stage = "introspection"
	StageParse         Stage = "parse"
	StageOrder         Stage = "order"
	StageIssuance      Stage = "issuance"
)

// IntrospectionOutcome is the result of validating an access token.
type IntrospectionOutcome struct {
	Action    Action
	Message   string
	Subject   string
	ClientID  string
	Scopes    []string
	ExpiresAt int64
}

// ParsedCredentialRequest is a credential request the authorization service
// has already validated against the token's grant.
type ParsedCredentialRequest struct {
	Identifier  string
	Format      string
	BindingKey  string
	BindingKeys []string
	// Details is the raw JSON object describing the requested credential.
	Details string
	// Subject is the token's resource owner, filled in from introspection.
	Subject string
}

// WithSubject returns a copy of the request bound to subject.
func (r ParsedCredentialRequest) WithSubject(subject string) *ParsedCredentialRequest {
	r.Subject = subject
	if r.BindingKeys != nil {
		r.BindingKeys = append([]string(nil), r.BindingKeys...)
	}
	return &r
}

type ParseOutcome struct {
	Action  Action
	Message string
	Request *ParsedCredentialRequest
}

// IssuanceOrder describes the credential to issue. It is not modified after
// the OrderBuilder returns it.
type IssuanceOrder struct {
	RequestIdentifier  string `json:"requestIdentifier"`
	Format             string `json:"format"`
	CredentialPayload  string `json:"credentialPayload"`
	IssuanceDeferred   bool   `json:"issuanceDeferred"`
	CredentialDuration int64  `json:"credentialDuration,omitempty"`
	SigningKeyID       string `json:"signingKeyId,omitempty"`
}

type IssuanceOutcome struct {
	Action        Action
	Message       string
	Payload       string
	TransactionID string
}

// Request is the inbound credential request as seen by the pipeline.
type Request struct {
	Content       []byte
	Authorization string
}

// Response is the single result produced for every inbound request.
type Response struct {
	Status int
	Body   string
	// Deferred is set when the service acknowledged the request for
	// asynchronous issuance.
	Deferred bool
	// TransactionID identifies a deferred issuance, when the service
	// returned one.
	TransactionID string
	Failure       *Failure
}

func (r *Response) Succeeded() bool {
	return r.Failure == nil
}
