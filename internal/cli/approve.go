package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/4ug-aug/presentor/internal/rpc"
)

// NewApproveCmd resolves a held sensitive tool call.
func NewApproveCmd(opts *Options) *cobra.Command {
	var reject bool

	cmd := &cobra.Command{
		Use:   "approve <approval-id>",
		Short: "Approve (or reject) a held sensitive tool call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decision := "approve"
			if reject {
				decision = "reject"
			}
			return resolveApproval(cmd, opts, args[0], decision)
		},
	}

	cmd.Flags().BoolVar(&reject, "reject", false, "Reject the held call instead of approving it")
	return cmd
}

// NewRejectCmd is shorthand for approve --reject.
func NewRejectCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <approval-id>",
		Short: "Reject a held sensitive tool call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolveApproval(cmd, opts, args[0], "reject")
		},
	}
}

func resolveApproval(cmd *cobra.Command, opts *Options, approvalID, decision string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	body, err := json.Marshal(rpc.ApprovalDecisionRequest{
		ApprovalID: approvalID,
		Decision:   decision,
	})
	if err != nil {
		return err
	}

	url := daemonURL(cfg.Server.Addr) + "/agent/approve"
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("daemon returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var decoded rpc.ApprovalDecisionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[%s] %s\n", decoded.Decision, decoded.ApprovalID)
	if decoded.Result != "" {
		fmt.Fprintln(out, decoded.Result)
	}
	return nil
}
