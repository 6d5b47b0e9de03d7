// internal/common/zoho/crm.go
package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	commonhttp "counsel-workers/internal/common/http"
)

const DefaultBaseURL = "https://www.zohoapis.com/crm/v3"

type CRMClient struct {
	oauthToken string
	baseURL    string
	httpClient *commonhttp.Client
}

// Lead is the subset of the Zoho Leads module the pipeline writes.
type Lead struct {
	ID          string `json:"id,omitempty"`
	LastName    string `json:"Last_Name"`
	FirstName   string `json:"First_Name,omitempty"`
	Email       string `json:"Email,omitempty"`
	Phone       string `json:"Phone,omitempty"`
	Source      string `json:"Lead_Source,omitempty"`
	Status      string `json:"Lead_Status,omitempty"`
	Rating      string `json:"Rating,omitempty"`
	Description string `json:"Description,omitempty"`
	CaseID      string `json:"Case_ID,omitempty"`
	LeadScore   *int   `json:"Lead_Score,omitempty"`
}

// SplitName puts everything after the first space into Last_Name, which Zoho requires.
func SplitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	idx := strings.Index(full, " ")
	if idx < 0 {
		return "", full
	}
	return full[:idx], strings.TrimSpace(full[idx+1:])
}

type writeResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Action  string `json:"action"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

// UpsertResult reports the Zoho record ID and whether it was created or updated.
type UpsertResult struct {
	ID     string
	Action string
}

func NewCRMClient(baseURL, oauthToken string) *CRMClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CRMClient{
		oauthToken: oauthToken,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: commonhttp.NewClient(30*time.Second).
			WithHeader("Authorization", "Zoho-oauthtoken "+oauthToken),
	}
}

func (c *CRMClient) do(ctx context.Context, method, path string, payload interface{}) (int, []byte, error) {
	return c.httpClient.DoJSON(ctx, method, c.baseURL+path, payload)
}

// UpsertLead creates or updates a lead, matching existing records on Phone then Email.
func (c *CRMClient) UpsertLead(ctx context.Context, lead *Lead) (*UpsertResult, error) {
	payload := map[string]interface{}{
		"data":                   []Lead{*lead},
		"duplicate_check_fields": []string{"Phone", "Email"},
	}

	status, body, err := c.do(ctx, http.MethodPost, "/Leads/upsert", payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return nil, fmt.Errorf("failed to upsert lead (status %d): %s", status, string(body))
	}

	var resp writeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no data in response")
	}
	if resp.Data[0].Status != "success" {
		return nil, fmt.Errorf("lead upsert failed: %s", resp.Data[0].Message)
	}

	return &UpsertResult{ID: resp.Data[0].Details.ID, Action: resp.Data[0].Action}, nil
}

func (c *CRMClient) GetLead(ctx context.Context, leadID string) (*Lead, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/Leads/"+leadID, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, fmt.Errorf("lead %s not found", leadID)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("failed to get lead (status %d): %s", status, string(body))
	}

	var result struct {
		Data []Lead `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("lead %s not found", leadID)
	}
	return &result.Data[0], nil
}
