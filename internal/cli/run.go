package cli

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bufbuild/connect-go"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"

	"github.com/4ug-aug/presentor/internal/rpc"
	agentrpc "github.com/4ug-aug/presentor/internal/rpc/agent"
	"github.com/4ug-aug/presentor/internal/rpc/connectjson"
)

// NewRunCmd wires the run command to stream agent events from the daemon.
func NewRunCmd(opts *Options) *cobra.Command {
	var modelOverride string
	var sessionID string

	cmd := &cobra.Command{
		Use:   "run \"<instruction>\"",
		Short: "Send an instruction to the daemon and stream agent events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			instruction := args[0]
			if strings.TrimSpace(instruction) == "" {
				return fmt.Errorf("instruction cannot be empty")
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if sessionID == "" {
				sessionID = fmt.Sprintf("cli-%d", time.Now().UnixNano())
			}

			reqBody := rpc.RunRequest{
				SessionID:   sessionID,
				Model:       modelOverride,
				Instruction: instruction,
			}

			baseURL := daemonURL(cfg.Server.Addr)
			switch strings.ToLower(strings.TrimSpace(cfg.Server.Transport)) {
			case "ndjson":
				return runNDJSON(ctx, cmd, baseURL+"/agent/run", reqBody)
			default:
				return runConnect(ctx, cmd, baseURL+agentrpc.ConnectRunProcedure, reqBody)
			}
		},
	}

	cmd.Flags().StringVar(&modelOverride, "model", "", "Override model id for this run")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id (defaults to a fresh one)")
	return cmd
}

func daemonURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func runNDJSON(ctx context.Context, cmd *cobra.Command, url string, reqBody rpc.RunRequest) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		var evt rpc.RunEvent
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		if err := renderEvent(cmd, evt); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func runConnect(ctx context.Context, cmd *cobra.Command, url string, reqBody rpc.RunRequest) error {
	client := connect.NewClient[rpc.RunStreamRequest, rpc.RunEvent](buildH2CClient(), url, connect.WithCodec(connectjson.Codec{}))
	stream := client.CallBidiStream(ctx)

	if err := stream.Send(&rpc.RunStreamRequest{Run: &reqBody}); err != nil {
		return err
	}

	// propagate cancellation to the daemon.
	go func() {
		<-ctx.Done()
		_ = stream.Send(&rpc.RunStreamRequest{Cancel: true, SessionID: reqBody.SessionID})
		_ = stream.CloseRequest()
	}()

	for {
		evt, err := stream.Receive()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := renderEvent(cmd, *evt); err != nil {
			return err
		}
	}
	_ = stream.CloseRequest()
	return stream.CloseResponse()
}

func renderEvent(cmd *cobra.Command, evt rpc.RunEvent) error {
	out := cmd.OutOrStdout()
	switch evt.Type {
	case "thinking":
		fmt.Fprintln(out, evt.Message)
	case "tool_call":
		args, _ := json.Marshal(evt.Arguments)
		fmt.Fprintf(out, "[tool %s] %s\n", evt.ToolName, string(args))
	case "tool_result":
		fmt.Fprintf(out, "[tool %s] %s\n", evt.ToolName, evt.Message)
	case "approval_required":
		args, _ := json.Marshal(evt.Arguments)
		fmt.Fprintf(out, "[approval required] %s %s\n", evt.ToolName, string(args))
		fmt.Fprintf(out, "Resolve with: presentor approve %s  (or --reject)\n", evt.Approval.ID)
	case "done":
		if evt.Message != "" {
			fmt.Fprintln(out, evt.Message)
		}
		fmt.Fprintf(out, "[done %s]\n", evt.State)
	case "error":
		return fmt.Errorf("daemon error: %s", evt.Error)
	}
	return nil
}

func buildH2CClient() *http.Client {
	return &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}
