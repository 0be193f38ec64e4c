package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const apologyText = "申し訳ありません。エラーが発生しました。"

type sender string

const (
	senderUser sender = "user"
	senderAI   sender = "ai"
)

type historyEntry struct {
	Sender  sender
	Message string
	At      time.Time
}

type chatReply struct {
	Response          string          `json:"response"`
	MapData           json.RawMessage `json:"map_data"`
	Locations         []any           `json:"locations"`
	Restaurants       []any           `json:"restaurants"`
	ConversationState struct {
		Step string `json:"step"`
	} `json:"conversation_state"`
}

type chatError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Client talks to a tabi-api server. The resty client keeps a cookie jar, so
// the server sees one session for the lifetime of the Client.
type Client struct {
	http    *resty.Client
	history []historyEntry
	now     func() time.Time
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")).SetTimeout(timeout),
		now:  time.Now,
	}
}

// Send posts one message. Both sides of the exchange are recorded in the
// history; failures record the apology text.
func (c *Client) Send(message string) (chatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return chatReply{}, fmt.Errorf("メッセージが空です")
	}
	c.record(senderUser, message)

	var (
		out    chatReply
		errOut chatError
	)
	resp, err := c.http.R().
		SetBody(map[string]string{"message": message}).
		SetResult(&out).
		SetError(&errOut).
		Post("/chat")
	if err != nil {
		c.record(senderAI, apologyText)
		return chatReply{}, fmt.Errorf("サーバーに接続できませんでした: %w", err)
	}
	if resp.IsError() {
		c.record(senderAI, apologyText)
		return chatReply{}, fmt.Errorf("HTTPエラー: %d %s", resp.StatusCode(), errOut.Code)
	}

	if out.Response != "" {
		c.record(senderAI, out.Response)
	}
	return out, nil
}

// Reset clears the server-side conversation and the local history.
func (c *Client) Reset() error {
	resp, err := c.http.R().Post("/chat/reset")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("HTTPエラー: %d", resp.StatusCode())
	}
	c.history = nil
	return nil
}

func (c *Client) History() []historyEntry {
	return append([]historyEntry(nil), c.history...)
}

// SaveMapData writes the map payload as indented JSON. An empty filename is
// derived from the current time. It returns "" when there is nothing to save.
func (c *Client) SaveMapData(mapData json.RawMessage, filename string) (string, error) {
	if len(mapData) == 0 || string(mapData) == "null" {
		return "", nil
	}
	if filename == "" {
		filename = "map_data_" + c.now().Format("2006-01-02_15-04-05") + ".json"
	}

	var v any
	if err := json.Unmarshal(mapData, &v); err != nil {
		return "", fmt.Errorf("decode map data: %w", err)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filename, b, 0o644); err != nil {
		return "", fmt.Errorf("地図データの保存に失敗しました: %w", err)
	}
	return filename, nil
}

func (c *Client) record(s sender, msg string) {
	c.history = append(c.history, historyEntry{Sender: s, Message: msg, At: c.now()})
}
