package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/gowallet/internal/adapter/http/middleware"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/auth"
	"github.com/iho/gowallet/internal/infrastructure/config"
	"github.com/iho/gowallet/internal/infrastructure/postgres"
)

// Overridable in tests.
var (
	runMigrationsUp   = postgres.RunMigrations
	runMigrationsDown = postgres.RunMigrationsDown
	migrationVersion  = postgres.MigrationVersion
)

type options struct {
	baseURL string
	timeout time.Duration
	userID  string
	role    string
	token   string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "gowallet-cli",
		Short:         "gowallet CLI tool",
		Long:          `A command line interface for operating the gowallet ledger.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the gowallet API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.userID, "user", "", "Acting user id sent to the API")
	rootCmd.PersistentFlags().StringVar(&opts.role, "role", "admin", "Acting role sent to the API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", "", "Gateway bearer token; replaces --user and --role")

	rootCmd.AddCommand(
		migrateCmd(),
		walletCmd(opts),
		ledgerCmd(opts),
		withdrawalsCmd(opts),
		reconcileCmd(opts),
		auditCmd(opts),
		tokenCmd(),
	)

	return rootCmd
}

func migrateCmd() *cobra.Command {
	var databaseURL, migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if databaseURL == "" {
				databaseURL = cfg.DatabaseURL
			}
			if migrationsPath == "" {
				migrationsPath = cfg.MigrationsPath
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Database URL (defaults to DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "Migrations directory (defaults to MIGRATIONS_PATH)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrationsUp(databaseURL, migrationsPath)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrationsDown(databaseURL, migrationsPath)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the applied schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				version, dirty, err := migrationVersion(databaseURL, migrationsPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d\ndirty: %v\n", version, dirty)
				return nil
			},
		},
	)

	return cmd
}

func walletCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Wallet operations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <user-id>",
			Short: "Create a wallet",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return callAndPrint(cmd, opts, http.MethodPost, "/api/v1/wallets", map[string]string{"user_id": args[0]})
			},
		},
		&cobra.Command{
			Use:   "show <user-id>",
			Short: "Show a wallet",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return callAndPrint(cmd, opts, http.MethodGet, "/api/v1/wallets/"+url.PathEscape(args[0]), nil)
			},
		},
		&cobra.Command{
			Use:   "balance <user-id>",
			Short: "Show a wallet balance",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var balance struct {
					UserID  string `json:"user_id"`
					Balance string `json:"balance"`
				}
				if err := newClient(opts).do(cmd, http.MethodGet, "/api/v1/wallets/"+url.PathEscape(args[0])+"/balance", nil, &balance); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", balance.UserID, balance.Balance)
				return nil
			},
		},
	)

	return cmd
}

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "verify <user-id>",
		Short: "Verify the entry chain of a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var report domain.ChainReport
			if err := newClient(opts).do(cmd, http.MethodGet, "/api/v1/wallets/"+url.PathEscape(args[0])+"/verify", nil, &report); err != nil {
				return err
			}

			printJSON(cmd.OutOrStdout(), report)
			if !report.Valid {
				return fmt.Errorf("ledger chain for %s is broken: %d violation(s)", args[0], len(report.Violations))
			}
			return nil
		},
	}, &cobra.Command{
		Use:   "report",
		Short: "Verify the entry chain of every wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report struct {
				TotalWallets  int                   `json:"total_wallets"`
				ValidWallets  int                   `json:"valid_wallets"`
				Discrepancies []*domain.ChainReport `json:"discrepancies"`
			}
			if err := newClient(opts).do(cmd, http.MethodGet, "/api/v1/reconcile/report", nil, &report); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "wallets: %d\nvalid: %d\n", report.TotalWallets, report.ValidWallets)
			for _, d := range report.Discrepancies {
				fmt.Fprintf(w, "broken: %s (%d violation(s))\n", d.WalletID, len(d.Violations))
			}
			if len(report.Discrepancies) > 0 {
				return fmt.Errorf("%d wallet(s) failed verification", len(report.Discrepancies))
			}
			return nil
		},
	})

	return cmd
}

func auditCmd(opts *options) *cobra.Command {
	var (
		actorID, action, resourceType, resourceID string
		limit, offset                             int
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit trail",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List audit records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			for key, value := range map[string]string{
				"actor_id":      actorID,
				"action":        action,
				"resource_type": resourceType,
				"resource_id":   resourceID,
			} {
				if value != "" {
					q.Set(key, value)
				}
			}
			q.Set("limit", fmt.Sprint(limit))
			q.Set("offset", fmt.Sprint(offset))

			return callAndPrint(cmd, opts, http.MethodGet, "/api/v1/audit?"+q.Encode(), nil)
		},
	}
	listCmd.Flags().StringVar(&actorID, "actor", "", "Filter by actor id")
	listCmd.Flags().StringVar(&action, "action", "", "Filter by action, e.g. withdrawal.reject")
	listCmd.Flags().StringVar(&resourceType, "resource-type", "", "Filter by resource type")
	listCmd.Flags().StringVar(&resourceID, "resource-id", "", "Filter by resource id")
	listCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	cmd.AddCommand(listCmd)
	return cmd
}

func withdrawalsCmd(opts *options) *cobra.Command {
	var (
		limit, offset int
		reason        string
	)

	cmd := &cobra.Command{
		Use:   "withdrawals",
		Short: "Withdrawal approval queue",
	}

	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "List pending withdrawals, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var page struct {
				Entries []struct {
					ID        string    `json:"id"`
					UserID    string    `json:"user_id"`
					Amount    string    `json:"amount"`
					CreatedAt time.Time `json:"created_at"`
				} `json:"entries"`
				Total int64 `json:"total"`
			}

			path := fmt.Sprintf("/api/v1/withdrawals/pending?limit=%d&offset=%d", limit, offset)
			if err := newClient(opts).do(cmd, http.MethodGet, path, nil, &page); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, e := range page.Entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, truncate(e.UserID, 24), e.Amount, e.CreatedAt.Format(time.RFC3339))
			}
			fmt.Fprintf(w, "total: %d\n", page.Total)
			return nil
		},
	}
	pendingCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	pendingCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	approveCmd := &cobra.Command{
		Use:   "approve <entry-id>",
		Short: "Approve a pending withdrawal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return callAndPrint(cmd, opts, http.MethodPost, "/api/v1/withdrawals/"+url.PathEscape(args[0])+"/approve", nil)
		},
	}

	rejectCmd := &cobra.Command{
		Use:   "reject <entry-id>",
		Short: "Reject a pending withdrawal and refund the wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return callAndPrint(cmd, opts, http.MethodPost, "/api/v1/withdrawals/"+url.PathEscape(args[0])+"/reject", map[string]string{"reason": reason})
		},
	}
	rejectCmd.Flags().StringVar(&reason, "reason", "", "Rejection reason")

	cmd.AddCommand(pendingCmd, approveCmd, rejectCmd)
	return cmd
}

func reconcileCmd(opts *options) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconciliation",
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Settle stale PENDING deposits",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/reconcile/pending"
			if olderThan > 0 {
				path += "?older_than=" + url.QueryEscape(olderThan.String())
			}
			return callAndPrint(cmd, opts, http.MethodPost, path, nil)
		},
	}
	sweepCmd.Flags().DurationVar(&olderThan, "older-than", 0, "Only entries older than this (server default when unset)")

	cmd.AddCommand(sweepCmd)
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		subject, issuer, secret string
		admin                   bool
		ttl                     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a gateway actor token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("GATEWAY_JWT_SECRET")
			}
			if issuer == "" {
				issuer = os.Getenv("GATEWAY_JWT_ISSUER")
			}
			if secret == "" {
				return errors.New("a secret is required (--secret or GATEWAY_JWT_SECRET)")
			}
			if subject == "" {
				return errors.New("--subject is required")
			}

			actor := domain.Actor{ID: subject, Role: domain.RoleUser}
			if admin {
				actor.Role = domain.RoleAdmin
			}

			token, err := auth.NewActorVerifier(secret, issuer).Sign(actor, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "User id the token asserts")
	cmd.Flags().BoolVar(&admin, "admin", false, "Assert the admin role")
	cmd.Flags().StringVar(&issuer, "issuer", "", "Issuer claim (defaults to GATEWAY_JWT_ISSUER)")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to GATEWAY_JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")

	return cmd
}

type apiClient struct {
	opts   *options
	client *http.Client
}

func newClient(opts *options) *apiClient {
	return &apiClient{opts: opts, client: &http.Client{Timeout: opts.timeout}}
}

// do sends a request and decodes a 2xx JSON response into out.
func (c *apiClient) do(cmd *cobra.Command, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(cmd.Context(), method, strings.TrimRight(c.opts.baseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch {
	case c.opts.token != "":
		req.Header.Set("Authorization", "Bearer "+c.opts.token)
	case c.opts.userID != "":
		req.Header.Set(middleware.UserIDHeader, c.opts.userID)
		req.Header.Set(middleware.UserRoleHeader, c.opts.role)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Message != "" {
				return fmt.Errorf("%s %s: %d %s: %s", method, path, resp.StatusCode, apiErr.Error, apiErr.Message)
			}
			return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, truncate(string(raw), 200))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func callAndPrint(cmd *cobra.Command, opts *options, method, path string, body any) error {
	var result json.RawMessage
	if err := newClient(opts).do(cmd, method, path, body, &result); err != nil {
		return err
	}
	printJSON(cmd.OutOrStdout(), result)
	return nil
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
