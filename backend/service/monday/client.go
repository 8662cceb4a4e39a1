package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"

	"boardhub/backend/domain"
	"boardhub/backend/logging"
)

// ErrUpstream Monday 接口不可用或返回了 GraphQL 错误
var ErrUpstream = errors.New("monday api error")

const maxResponseBytes = 8 << 20

type ClientConfig struct {
	APIURL     string
	APIToken   string
	APIVersion string
	Timeout    time.Duration
	RetryMax   int
	Logger     logging.Logger
	// Requests 可选的请求计数器，见 NewRequestCounter
	Requests *prometheus.CounterVec
}

// Client 仅覆盖本服务用到的两条 GraphQL 查询
type Client struct {
	url      string
	token    string
	version  string
	http     *http.Client
	requests *prometheus.CounterVec
}

func NewClient(cfg ClientConfig) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	if rc.RetryMax <= 0 {
		rc.RetryMax = 2
	}
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = retryLogger{logger: logging.OrDefault(cfg.Logger)}

	httpClient := rc.StandardClient()
	httpClient.Timeout = cfg.Timeout
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}
	return &Client{
		url:      cfg.APIURL,
		token:    cfg.APIToken,
		version:  cfg.APIVersion,
		http:     httpClient,
		requests: cfg.Requests,
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data         json.RawMessage `json:"data"`
	Errors       []graphQLError  `json:"errors"`
	ErrorMessage string          `json:"error_message"`
}

func (c *Client) do(ctx context.Context, name, query string, vars map[string]any, out any) (err error) {
	defer func() { c.observe(name, err) }()
	if strings.TrimSpace(c.token) == "" {
		return fmt.Errorf("%w: api token not configured", ErrUpstream)
	}
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)
	if c.version != "" {
		req.Header.Set("API-Version", c.version)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: http %d", ErrUpstream, resp.StatusCode)
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("%w: %s", ErrUpstream, strings.Join(msgs, "; "))
	}
	if envelope.ErrorMessage != "" {
		return fmt.Errorf("%w: %s", ErrUpstream, envelope.ErrorMessage)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrUpstream, err)
	}
	return nil
}

const boardsQuery = `query { boards(limit: 500) { id name state board_kind workspace_id items_count } }`

type boardPayload struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	State       string          `json:"state"`
	Kind        string          `json:"board_kind"`
	WorkspaceID json.RawMessage `json:"workspace_id"`
	ItemsCount  int             `json:"items_count"`
}

// Boards 拉取当前令牌可见的全部看板
func (c *Client) Boards(ctx context.Context) ([]domain.Board, error) {
	var data struct {
		Boards []boardPayload `json:"boards"`
	}
	if err := c.do(ctx, "boards", boardsQuery, nil, &data); err != nil {
		return nil, err
	}
	now := time.Now()
	boards := make([]domain.Board, 0, len(data.Boards))
	for _, b := range data.Boards {
		if b.ID == "" {
			continue
		}
		boards = append(boards, domain.Board{
			ID:          b.ID,
			Name:        b.Name,
			State:       b.State,
			Kind:        b.Kind,
			WorkspaceID: rawID(b.WorkspaceID),
			ItemsCount:  b.ItemsCount,
			SyncedAt:    now,
		})
	}
	return boards, nil
}

const subscribersQuery = `query ($ids: [ID!]) { boards(ids: $ids) { id subscribers { id name email phone } } }`

type subscriberPayload struct {
	ID    json.RawMessage `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Phone string          `json:"phone"`
}

// BoardSubscribers 拉取看板的订阅者；看板不存在时返回 ErrUpstream
func (c *Client) BoardSubscribers(ctx context.Context, boardID string) ([]domain.Subscriber, error) {
	var data struct {
		Boards []struct {
			ID          string              `json:"id"`
			Subscribers []subscriberPayload `json:"subscribers"`
		} `json:"boards"`
	}
	if err := c.do(ctx, "subscribers", subscribersQuery, map[string]any{"ids": []string{boardID}}, &data); err != nil {
		return nil, err
	}
	if len(data.Boards) == 0 {
		return nil, fmt.Errorf("%w: board %s not found", ErrUpstream, boardID)
	}
	subs := make([]domain.Subscriber, 0, len(data.Boards[0].Subscribers))
	for _, s := range data.Boards[0].Subscribers {
		id := rawID(s.ID)
		if id == "" {
			continue
		}
		subs = append(subs, domain.Subscriber{
			BoardID:  boardID,
			MondayID: id,
			Name:     s.Name,
			Email:    s.Email,
			Phone:    s.Phone,
			Source:   domain.SourceMonday,
		})
	}
	return subs, nil
}

// rawID Monday 的 ID 字段有时是字符串有时是数字
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if _, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return n.String()
		}
	}
	return ""
}

// retryLogger 把 retryablehttp 的日志转到 charm 日志器
type retryLogger struct {
	logger logging.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}
