package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bookstore-next/internal/app"
	"github.com/bookstore-next/internal/models"
	"github.com/bookstore-next/internal/service"
	"github.com/bookstore-next/internal/worker"

	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.InitDatabase(opts.cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newSweepCommand(opts *rootOptions) *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Release expired stock reservations once",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := opts.openContainer()
			if err != nil {
				return err
			}
			defer container.Close()

			released, err := worker.SweepExpiredReservations(cmd.Context(), worker.NewConsumer(container), batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "released %d reservations\n", released)
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 500, "max reservations released in one sweep")
	return cmd
}

func newPurchaseOrderCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "purchase-order",
		Aliases: []string{"po"},
		Short:   "Create and receive supplier purchase orders",
	}

	var (
		supplierID uint
		lineSpecs  []string
		notes      string
	)
	create := &cobra.Command{
		Use:     "create",
		Short:   "Create a pending purchase order",
		Example: "  bookstorectl po create --supplier 1 --line 3:20 --line 4:5:12.50",
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := parsePurchaseOrderLines(lineSpecs)
			if err != nil {
				return err
			}
			container, err := opts.openContainer()
			if err != nil {
				return err
			}
			defer container.Close()

			po, err := container.PurchaseOrderService.Create(cmd.Context(), service.CreatePurchaseOrderInput{
				SupplierID: supplierID,
				Lines:      lines,
				Notes:      notes,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, po)
		},
	}
	create.Flags().UintVar(&supplierID, "supplier", 0, "supplier id")
	create.Flags().StringArrayVar(&lineSpecs, "line", nil, "line as product_id:quantity[:unit_price]")
	create.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = create.MarkFlagRequired("supplier")

	var (
		receiptSpecs []string
		receivedBy   uint
	)
	receive := &cobra.Command{
		Use:   "receive <purchase_order_id>",
		Short: "Receive a purchase order in full, or partially with --item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			poID, err := parseUint(args[0])
			if err != nil {
				return fmt.Errorf("invalid purchase order id: %w", err)
			}
			receipts, err := parseReceiptLines(receiptSpecs)
			if err != nil {
				return err
			}
			container, err := opts.openContainer()
			if err != nil {
				return err
			}
			defer container.Close()

			var po *models.PurchaseOrder
			if len(receipts) == 0 {
				po, err = container.PurchaseOrderService.ReceiveFull(cmd.Context(), poID, receivedBy)
			} else {
				po, err = container.PurchaseOrderService.ReceivePartial(cmd.Context(), poID, receipts, receivedBy)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd, po)
		},
	}
	receive.Flags().StringArrayVar(&receiptSpecs, "item", nil, "partial receipt as item_id:quantity")
	receive.Flags().UintVar(&receivedBy, "by", 0, "operator admin id recorded on the receipt")

	cancel := &cobra.Command{
		Use:   "cancel <purchase_order_id>",
		Short: "Cancel a pending purchase order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			poID, err := parseUint(args[0])
			if err != nil {
				return fmt.Errorf("invalid purchase order id: %w", err)
			}
			container, err := opts.openContainer()
			if err != nil {
				return err
			}
			defer container.Close()

			po, err := container.PurchaseOrderService.Cancel(cmd.Context(), poID)
			if err != nil {
				return err
			}
			return printJSON(cmd, po)
		},
	}

	cmd.AddCommand(create, receive, cancel)
	return cmd
}

func newTokenCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue signed tokens for local testing and integrations",
	}

	user := &cobra.Command{
		Use:   "user <user_id>",
		Short: "Issue a customer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUint(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}
			tokens := service.NewTokenService(opts.cfg.UserJWT, opts.cfg.AdminJWT)
			token, expiresAt, err := tokens.IssueUserToken(userID)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{"token": token, "expires_at": expiresAt})
		},
	}

	var (
		username string
		role     string
	)
	admin := &cobra.Command{
		Use:   "admin <admin_id>",
		Short: "Issue a back-office token carrying a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adminID, err := parseUint(args[0])
			if err != nil {
				return fmt.Errorf("invalid admin id: %w", err)
			}
			tokens := service.NewTokenService(opts.cfg.UserJWT, opts.cfg.AdminJWT)
			token, expiresAt, err := tokens.IssueAdminToken(adminID, username, role)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{"token": token, "expires_at": expiresAt, "role": role})
		},
	}
	admin.Flags().StringVar(&username, "username", "", "display name embedded in the token")
	admin.Flags().StringVar(&role, "role", "readonly_auditor", "role embedded in the token")

	cmd.AddCommand(user, admin)
	return cmd
}

func newAuthzCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authz",
		Short: "Manage admin role bindings",
	}
	grant := &cobra.Command{
		Use:   "set-roles <admin_id> <role>...",
		Short: "Replace the roles bound to an admin",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adminID, err := parseUint(args[0])
			if err != nil {
				return fmt.Errorf("invalid admin id: %w", err)
			}
			container, err := opts.openContainer()
			if err != nil {
				return err
			}
			defer container.Close()

			if err := container.AuthzService.SetAdminRoles(adminID, args[1:]); err != nil {
				return err
			}
			roles, err := container.AuthzService.GetAdminRoles(adminID)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{"admin_id": adminID, "roles": roles})
		},
	}
	cmd.AddCommand(grant)
	return cmd
}

// parsePurchaseOrderLines 解析 product_id:quantity[:unit_price]
func parsePurchaseOrderLines(raw []string) ([]service.PurchaseOrderLineInput, error) {
	lines := make([]service.PurchaseOrderLineInput, 0, len(raw))
	for _, item := range raw {
		parts := strings.Split(strings.TrimSpace(item), ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("invalid line %q: want product_id:quantity[:unit_price]", item)
		}
		productID, err := parseUint(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid product id in %q: %w", item, err)
		}
		quantity, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in %q: %w", item, err)
		}
		line := service.PurchaseOrderLineInput{ProductID: productID, Quantity: quantity}
		if len(parts) == 3 {
			price, err := models.NewMoneyFromString(parts[2])
			if err != nil {
				return nil, fmt.Errorf("invalid unit price in %q: %w", item, err)
			}
			line.UnitPrice = &price
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// parseReceiptLines 解析 item_id:quantity
func parseReceiptLines(raw []string) ([]service.ReceiptLine, error) {
	receipts := make([]service.ReceiptLine, 0, len(raw))
	for _, item := range raw {
		parts := strings.Split(strings.TrimSpace(item), ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid item %q: want item_id:quantity", item)
		}
		itemID, err := parseUint(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid item id in %q: %w", item, err)
		}
		quantity, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in %q: %w", item, err)
		}
		receipts = append(receipts, service.ReceiptLine{ItemID: itemID, Quantity: quantity})
	}
	return receipts, nil
}

func parseUint(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

func printJSON(cmd *cobra.Command, value interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
