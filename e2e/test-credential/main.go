package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultServerAddr = "http://localhost:8080"
	credentialPath    = "/api/credential"
	issueRPCPath      = "/credential.v1.CredentialService/IssueCredential"
	defaultRequest    = `{"format":"vc+sd-jwt","vct":"https://credentials.example.com/identity_credential"}`
)

type credentialResponse struct {
	Credential    string `json:"credential"`
	TransactionID string `json:"transaction_id"`
	CNonce        string `json:"c_nonce"`
}

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <access-token> [server-addr] [request-json]", os.Args[0])
	}

	accessToken := os.Args[1]
	serverAddr := defaultServerAddr
	if len(os.Args) > 2 {
		serverAddr = os.Args[2]
	}
	requestBody := defaultRequest
	if len(os.Args) > 3 {
		requestBody = os.Args[3]
	}

	fmt.Println("🧪 Starting Credential Issuance E2E Tests")
	fmt.Println("=========================================")

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	fmt.Println("\n📝 Test 1: POST " + credentialPath)
	body, err := issueOverHTTP(client, serverAddr, accessToken, requestBody)
	if err != nil {
		log.Fatalf("❌ HTTP issuance failed: %v", err)
	}
	printCredential(body)

	fmt.Println("\n📝 Test 2: Connect " + issueRPCPath)
	body, err = issueOverConnect(client, serverAddr, accessToken, requestBody)
	if err != nil {
		log.Fatalf("❌ Connect issuance failed: %v", err)
	}
	printCredential(body)

	fmt.Println("\n📝 Test 3: missing access token is rejected")
	if err := expectStatus(client, serverAddr, "", requestBody, http.StatusBadRequest); err != nil {
		log.Fatalf("❌ %v", err)
	}
	fmt.Println("✅ Rejected with 400")

	fmt.Println("\n📝 Test 4: invalid access token is rejected")
	if err := expectStatus(client, serverAddr, "Bearer invalid", requestBody, http.StatusUnauthorized); err != nil {
		log.Fatalf("❌ %v", err)
	}
	fmt.Println("✅ Rejected with 401")

	fmt.Println("\n=========================================")
	fmt.Println("✅ All tests passed!")
}

func issueOverHTTP(client *http.Client, serverAddr, accessToken, requestBody string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodPost, serverAddr+credentialPath, strings.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	return do(client, req)
}

// issueOverConnect uses the Connect JSON protocol, where a StringValue
// message is encoded as a bare JSON string.
func issueOverConnect(client *http.Client, serverAddr, accessToken, requestBody string) ([]byte, error) {
	msg, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, serverAddr+issueRPCPath, bytes.NewReader(msg))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := do(client, req)
	if err != nil {
		return nil, err
	}

	var payload string
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return []byte(payload), nil
}

func expectStatus(client *http.Client, serverAddr, authorization, requestBody string, want int) error {
	req, err := http.NewRequest(http.MethodPost, serverAddr+credentialPath, strings.NewReader(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != want {
		return fmt.Errorf("expected status %d, got %d", want, resp.StatusCode)
	}
	return nil
}

func do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func printCredential(body []byte) {
	var resp credentialResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		fmt.Printf("✅ Issued (non-JSON payload): %s\n", string(body))
		return
	}

	if resp.TransactionID != "" {
		fmt.Printf("⏳ Issuance deferred, transaction ID: %s\n", resp.TransactionID)
		return
	}
	if resp.Credential == "" {
		fmt.Printf("✅ Issued: %s\n", string(body))
		return
	}

	// SD-JWT credentials carry disclosures after the first '~'.
	issuerJWT, _, _ := strings.Cut(resp.Credential, "~")
	claims := jwt.MapClaims{}
	token, _, err := jwt.NewParser().ParseUnverified(issuerJWT, claims)
	if err != nil {
		fmt.Printf("✅ Issued (not a JWT): %s...\n", preview(resp.Credential))
		return
	}

	fmt.Println("✅ Credential issued")
	fmt.Printf("   Algorithm: %v\n", token.Header["alg"])
	if iss, err := claims.GetIssuer(); err == nil && iss != "" {
		fmt.Printf("   Issuer: %s\n", iss)
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		fmt.Printf("   Subject: %s\n", sub)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		fmt.Printf("   Expires: %s\n", exp.Format(time.RFC3339))
	}
	if vct, ok := claims["vct"]; ok {
		fmt.Printf("   VCT: %v\n", vct)
	}
}

func preview(s string) string {
	const previewLen = 80
	if len(s) < previewLen {
		return s
	}
	return s[:previewLen]
}
