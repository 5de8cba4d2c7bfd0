package authlete

import "strconv"

// apiResult holds the fields common to every Authlete API response.
type apiResult struct {
	ResultCode      string `json:"resultCode,omitempty"`
	ResultMessage   string `json:"resultMessage,omitempty"`
	Action          string `json:"action,omitempty"`
	ResponseContent string `json:"responseContent,omitempty"`
}

func (r *apiResult) action() string {
	return r.Action
}

type actionCarrier interface {
	action() string
}

// IntrospectionRequest is the body of /auth/introspection.
type IntrospectionRequest struct {
	Token string `json:"token"`
}

type IntrospectionResponse struct {
	apiResult
	Subject       string   `json:"subject,omitempty"`
	ClientID      int64    `json:"clientId,omitempty"`
	ClientIDAlias string   `json:"clientIdAlias,omitempty"`
	Scopes        []string `json:"scopes,omitempty"`
	ExpiresAt     int64    `json:"expiresAt,omitempty"`
	Usable        bool     `json:"usable,omitempty"`
}

func (r *IntrospectionResponse) clientID() string {
	if r.ClientIDAlias != "" {
		return r.ClientIDAlias
	}
	if r.ClientID == 0 {
		return ""
	}
	return strconv.FormatInt(r.ClientID, 10)
}

// CredentialSingleParseRequest is the body of /vci/single/parse.
type CredentialSingleParseRequest struct {
	AccessToken    string `json:"accessToken"`
	RequestContent string `json:"requestContent"`
}

type CredentialSingleParseResponse struct {
	apiResult
	Info *CredentialRequestInfo `json:"info,omitempty"`
}

// CredentialRequestInfo is the service's structured view of a credential request.
type CredentialRequestInfo struct {
	Identifier  string   `json:"identifier"`
	Format      string   `json:"format"`
	BindingKey  string   `json:"bindingKey,omitempty"`
	BindingKeys []string `json:"bindingKeys,omitempty"`
	Details     string   `json:"details,omitempty"`
}

// CredentialIssuanceOrder is the wire form of an issuance order.
type CredentialIssuanceOrder struct {
	RequestIdentifier  string `json:"requestIdentifier"`
	CredentialPayload  string `json:"credentialPayload,omitempty"`
	IssuanceDeferred   bool   `json:"issuanceDeferred"`
	CredentialDuration int64  `json:"credentialDuration,omitempty"`
	SigningKeyID       string `json:"signingKeyId,omitempty"`
}

// CredentialSingleIssueRequest is the body of /vci/single/issue.
type CredentialSingleIssueRequest struct {
	AccessToken string                   `json:"accessToken"`
	Order       *CredentialIssuanceOrder `json:"order"`
}

type CredentialSingleIssueResponse struct {
	apiResult
	TransactionID string `json:"transactionId,omitempty"`
}
