package clients

import (
	"context"

	ws "payroll-export/internal/transport/websocket"
)

// WebSocketClient pushes export lifecycle events to a client's open sockets.
// A nil hub turns every call into a no-op.
type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

func (c *WebSocketClient) NotifyExportProgress(
	ctx context.Context,
	clientID string,
	exportID string,
	progress float64,
	stage string,
) error {
	if c == nil || c.hub == nil || clientID == "" {
		return nil
	}

	data := map[string]any{
		"id":       exportID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}

	c.hub.Broadcast(clientID, &ws.Message{
		Type:    "export_progress",
		Channel: "payroll_export_progress#" + clientID,
		Data:    data,
	})
	return nil
}

func (c *WebSocketClient) NotifyExportComplete(
	ctx context.Context,
	clientID string,
	exportID string,
	url string,
	filename string,
) error {
	if c == nil || c.hub == nil || clientID == "" {
		return nil
	}

	c.hub.Broadcast(clientID, &ws.Message{
		Type:    "export_complete",
		Channel: "payroll_export_complete#" + clientID,
		Data: map[string]any{
			"id":        exportID,
			"url":       url,
			"filename":  filename,
			"client_id": clientID,
		},
	})
	return nil
}

func (c *WebSocketClient) NotifyExportFailed(ctx context.Context, clientID string, exportID string, errMsg string) error {
	if c == nil || c.hub == nil || clientID == "" {
		return nil
	}

	c.hub.Broadcast(clientID, &ws.Message{
		Type:    "export_failed",
		Channel: "payroll_export_failed#" + clientID,
		Data: map[string]any{
			"id":        exportID,
			"message":   errMsg,
			"client_id": clientID,
		},
	})
	return nil
}
