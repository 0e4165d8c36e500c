package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// rpcMessage is the JSON-RPC frame exchanged with the server.
type rpcMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      int              `json:"id"`
	Method  string           `json:"method,omitempty"`
	Params  any              `json:"params,omitempty"`
	Result  *json.RawMessage `json:"result,omitempty"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func rpc(id int, method string, params any) rpcMessage {
	return rpcMessage{JSONRPC: "2.0", ID: id, Method: method, Params: params}
}

func initialize(id int) rpcMessage {
	return rpc(id, "initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"clientInfo":      map[string]any{"name": "kanbn-test", "version": "0.0.0"},
		"capabilities":    map[string]any{},
	})
}

func callTool(id int, name string, args map[string]any) rpcMessage {
	return rpc(id, "tools/call", map[string]any{"name": name, "arguments": args})
}

func decodeResult(t *testing.T, msg rpcMessage, out any) {
	t.Helper()
	if msg.Error != nil {
		t.Fatalf("rpc %d failed: %d %s", msg.ID, msg.Error.Code, msg.Error.Message)
	}
	if msg.Result == nil {
		t.Fatalf("rpc %d has no result", msg.ID)
	}
	if err := json.Unmarshal(*msg.Result, out); err != nil {
		t.Fatalf("decode rpc %d result: %v", msg.ID, err)
	}
}

// envelope unwraps the Response a tool returned as its text content.
func envelope(t *testing.T, msg rpcMessage) Response {
	t.Helper()
	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	decodeResult(t, msg, &result)
	if len(result.Content) == 0 {
		t.Fatalf("rpc %d returned no content", msg.ID)
	}
	var resp Response
	if err := json.Unmarshal([]byte(result.Content[0].Text), &resp); err != nil {
		t.Fatalf("decode envelope %q: %v", result.Content[0].Text, err)
	}
	return resp
}

func listedTools(t *testing.T, msg rpcMessage) map[string]bool {
	t.Helper()
	var result struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	decodeResult(t, msg, &result)
	names := make(map[string]bool, len(result.Tools))
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}
	return names
}

func TestServeHTTP_Canceled(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := srv.ServeHTTP(ctx, "127.0.0.1:0"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHTTPTransport_BoardRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, "http", addr) }()
	awaitHealthy(t, addr)

	var info struct {
		ServerInfo struct {
			Name string `json:"name"`
		} `json:"serverInfo"`
	}
	decodeResult(t, post(t, addr, initialize(1)), &info)
	if info.ServerInfo.Name != "kanbn" {
		t.Fatalf("server name = %q", info.ServerInfo.Name)
	}

	tools := listedTools(t, post(t, addr, rpc(2, "tools/list", nil)))
	for _, name := range ToolNames {
		if !tools[name] {
			t.Errorf("tool %s not listed", name)
		}
	}

	if resp := envelope(t, post(t, addr, callTool(3, "init_board", map[string]any{"name": "Remote", "columns": []string{"Todo", "Done"}}))); !resp.Success {
		t.Fatalf("init_board: %+v", resp)
	}
	if resp := envelope(t, post(t, addr, callTool(4, "add_task", map[string]any{"name": "Fix login bug", "column": "Todo"}))); !resp.Success {
		t.Fatalf("add_task: %+v", resp)
	}
	resp := envelope(t, post(t, addr, callTool(5, "move_task", map[string]any{"task_id": "fix-login-bug", "column": "Nowhere"})))
	if resp.Success || resp.Kind != "UnknownColumn" {
		t.Fatalf("move to unknown column: %+v", resp)
	}

	status := envelope(t, post(t, addr, callTool(6, "get_board_status", map[string]any{})))
	data, _ := json.Marshal(status.Data)
	if !bytes.Contains(data, []byte(`"fix-login-bug"`)) {
		t.Fatalf("status should list the task: %s", data)
	}

	cancel()
	select {
	case <-served:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestWebSocketTransport(t *testing.T) {
	srv, _ := newTestServer(t)
	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = srv.Serve(ctx, "ws", addr) }()

	conn := dialWebSocket(t, fmt.Sprintf("ws://%s/mcp", addr))
	defer func() { _ = conn.Close() }()

	exchange := func(msg rpcMessage) rpcMessage {
		t.Helper()
		if err := conn.WriteJSON(msg); err != nil {
			t.Fatalf("write %s: %v", msg.Method, err)
		}
		var reply rpcMessage
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("read %s: %v", msg.Method, err)
		}
		return reply
	}

	var info map[string]any
	decodeResult(t, exchange(initialize(1)), &info)
	if !listedTools(t, exchange(rpc(2, "tools/list", nil)))["get_board_status"] {
		t.Fatal("expected get_board_status tool")
	}

	resp := envelope(t, exchange(callTool(3, "get_board_status", map[string]any{})))
	if resp.Success || resp.Kind != "NotFound" {
		t.Fatalf("status before init: %+v", resp)
	}
}

func dialWebSocket(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			return conn
		}
		if time.Now().After(deadline) {
			t.Fatalf("websocket dial %s: %v", url, err)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer func() { _ = l.Close() }()
	return l.Addr().String()
}

func awaitHealthy(t *testing.T, addr string) {
	t.Helper()
	url := "http://" + addr + "/health"
	for deadline := time.Now().Add(5 * time.Second); time.Now().Before(deadline); time.Sleep(50 * time.Millisecond) {
		resp, err := http.Get(url)
		if err != nil {
			continue
		}
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return
		}
	}
	t.Fatalf("%s never became healthy", url)
}

func post(t *testing.T, addr string, msg rpcMessage) rpcMessage {
	t.Helper()
	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal %s: %v", msg.Method, err)
	}
	resp, err := http.Post("http://"+addr+"/mcp", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", msg.Method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var reply rpcMessage
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		t.Fatalf("decode %s reply: %v", msg.Method, err)
	}
	return reply
}
