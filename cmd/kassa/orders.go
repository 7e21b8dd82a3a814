package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chiro-bmb/kassa/internal/order"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List and manage orders",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all orders (runs a sync and integrity check first)",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			exitErr("Error: %v", err)
		}
		defer a.Close()

		orders := a.engine.Orders()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, _ := json.MarshalIndent(orders, "", "  ")
			fmt.Println(string(data))
			return
		}

		for _, o := range orders {
			synced := " "
			if o.SyncedToCloud {
				synced = "✓"
			}
			fmt.Printf("%s  %-36s  %7.2f  %-8s  v%-3d  %s\n",
				synced, o.ID, o.Total, o.PaymentMethod, o.Version, o.Timestamp)
		}
		fmt.Printf("%d orders\n", len(orders))
	},
}

var ordersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Record a new order",
	Long: `Record a new order on the device.

Line items are given as --item "name:price:quantity", repeatable.
The order is written locally first and pushed to the central store when
reachable; otherwise it stays pending for the next sync pass.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			exitErr("Error: %v", err)
		}
		defer a.Close()

		items, _ := cmd.Flags().GetStringArray("item")
		paid, _ := cmd.Flags().GetFloat64("paid")
		method, _ := cmd.Flags().GetString("method")
		customer, _ := cmd.Flags().GetString("customer")

		draft := order.Order{
			PaymentMethod: order.PaymentMethod(method),
			CustomerName:  customer,
			AmountPaid:    paid,
			Items:         []order.LineItem{},
		}
		for _, spec := range items {
			item, err := parseItem(spec)
			if err != nil {
				exitErr("Error: %v", err)
			}
			draft.Items = append(draft.Items, item)
			draft.Total += item.Price * float64(item.Quantity)
		}
		if paid > 0 {
			draft.Change = paid - draft.Total
		}

		created, err := a.engine.Create(draft)
		if err != nil {
			exitErr("Error creating order: %v", err)
		}

		state := "pending upload"
		if created.SyncedToCloud {
			state = "synced"
		}
		fmt.Printf("Created order %s (total %.2f, %s)\n", created.ID, created.Total, state)
	},
}

var ordersDeleteCmd = &cobra.Command{
	Use:   "delete <order-id>",
	Short: "Soft-delete an order (recoverable)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			exitErr("Error: %v", err)
		}
		defer a.Close()

		if err := a.engine.Delete(args[0]); err != nil {
			exitErr("Error: %v", err)
		}
		fmt.Printf("Deleted order %s (recover with 'kassa orders recover %s')\n", args[0], args[0])
	},
}

var ordersRecoverCmd = &cobra.Command{
	Use:   "recover <order-id>",
	Short: "Restore a soft-deleted order",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			exitErr("Error: %v", err)
		}
		defer a.Close()

		recovered, err := a.engine.Recover(args[0])
		if err != nil {
			exitErr("Error: %v", err)
		}
		fmt.Printf("Recovered order %s (version %d)\n", recovered.ID, recovered.Version)
	},
}

var ordersDeletedCmd = &cobra.Command{
	Use:   "deleted",
	Short: "List soft-deleted orders",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			exitErr("Error: %v", err)
		}
		defer a.Close()

		deleted := a.engine.ListDeleted()
		for _, o := range deleted {
			fmt.Printf("%-36s  %7.2f  deleted %s\n", o.ID, o.Total, o.DeletedAt)
		}
		fmt.Printf("%d deleted orders\n", len(deleted))
	},
}

// parseItem parses "name:price:quantity" (quantity optional, default 1).
func parseItem(spec string) (order.LineItem, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return order.LineItem{}, fmt.Errorf("invalid item %q, want name:price[:quantity]", spec)
	}
	price, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return order.LineItem{}, fmt.Errorf("invalid price in item %q: %v", spec, err)
	}
	quantity := 1
	if len(parts) == 3 {
		quantity, err = strconv.Atoi(parts[2])
		if err != nil || quantity < 1 {
			return order.LineItem{}, fmt.Errorf("invalid quantity in item %q", spec)
		}
	}
	return order.LineItem{Name: parts[0], Price: price, Quantity: quantity}, nil
}

func init() {
	ordersListCmd.Flags().Bool("json", false, "output as JSON")

	ordersCreateCmd.Flags().StringArray("item", nil, "line item as name:price[:quantity] (repeatable)")
	ordersCreateCmd.Flags().Float64("paid", 0, "amount paid")
	ordersCreateCmd.Flags().String("method", string(order.PaymentCash), "payment method (cash or payconiq)")
	ordersCreateCmd.Flags().String("customer", "", "optional customer name")

	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersCreateCmd)
	ordersCmd.AddCommand(ordersDeleteCmd)
	ordersCmd.AddCommand(ordersRecoverCmd)
	ordersCmd.AddCommand(ordersDeletedCmd)
	rootCmd.AddCommand(ordersCmd)
}
