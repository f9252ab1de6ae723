package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// StateFetcher 拉取战役当前状态
type StateFetcher interface {
	FetchState(ctx context.Context, campaignID uint) (*Snapshot, error)
}

// APIError 接口返回的错误
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("HTTP %d [%d] %s: %s", e.Status, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("HTTP %d [%d] %s", e.Status, e.Code, e.Message)
}

// HTTPFetcher 通过REST接口拉取快照
type HTTPFetcher struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewHTTPFetcher 创建快照拉取器
func NewHTTPFetcher(baseURL, token string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchState 获取战役快照
func (f *HTTPFetcher) FetchState(ctx context.Context, campaignID uint) (*Snapshot, error) {
	url := fmt.Sprintf("%s/api/v1/campaigns/%d/state", f.BaseURL, campaignID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+f.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取战役状态失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return nil, apiErr
	}

	var snapshot Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("解析战役状态失败: %w", err)
	}
	return &snapshot, nil
}
