package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"dreamstate-ticketing/internal/models"
	order_db "dreamstate-ticketing/internal/order/db"

	"github.com/spf13/pflag"
)

const usage = `ticket-types manages the ticket types sold at checkout.

Usage:
  ticket-types list [--all]
  ticket-types create --name NAME --price-id PRICE --price MINOR [--currency CUR] [--inventory N] [--description TEXT]
  ticket-types set-inventory ID N|unlimited
  ticket-types deactivate ID
  ticket-types orders
`

var errUsage = errors.New("invalid usage")

func run(ctx context.Context, args []string, d *order_db.DB, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errUsage
	}
	switch args[0] {
	case "list":
		return listTypes(ctx, args[1:], d, out)
	case "create":
		return createType(ctx, args[1:], d, out)
	case "set-inventory":
		return setInventory(ctx, args[1:], d, out)
	case "deactivate":
		return deactivate(ctx, args[1:], d, out)
	case "orders":
		return orderSummary(ctx, d, out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func listTypes(ctx context.Context, args []string, d *order_db.DB, out io.Writer) error {
	flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
	all := flagSet.Bool("all", false, "include inactive ticket types")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	types, err := d.ListTicketTypes(ctx, !*all)
	if err != nil {
		return err
	}
	sold, err := d.SoldByTicketType(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSOLD\tREMAINING\tACTIVE")
	for _, t := range types {
		remaining := "unlimited"
		if r := t.Remaining(sold[t.ID]); r != nil {
			remaining = strconv.FormatInt(*r, 10)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d %s\t%d\t%s\t%t\n", t.ID, t.Name, t.BasePriceMinor, strings.ToUpper(t.Currency), sold[t.ID], remaining, t.IsActive)
	}
	return tw.Flush()
}

func createType(ctx context.Context, args []string, d *order_db.DB, out io.Writer) error {
	flagSet := pflag.NewFlagSet("create", pflag.ContinueOnError)
	name := flagSet.String("name", "", "display name")
	priceID := flagSet.String("price-id", "", "Stripe price id")
	price := flagSet.Int64("price", 0, "price in minor units")
	currency := flagSet.String("currency", "", "ISO currency code")
	description := flagSet.String("description", "", "description")
	inventory := flagSet.Int64("inventory", 0, "total inventory (omit for unlimited)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if *name == "" || *priceID == "" || *price < 0 {
		return fmt.Errorf("%w: create needs --name, --price-id and a non-negative --price", errUsage)
	}

	tt := &models.TicketType{
		StripePriceID:  *priceID,
		Name:           *name,
		Description:    *description,
		Currency:       strings.ToLower(*currency),
		BasePriceMinor: *price,
		IsActive:       true,
	}
	if flagSet.Changed("inventory") {
		if *inventory < 0 {
			return fmt.Errorf("%w: --inventory must not be negative", errUsage)
		}
		tt.TotalInventory = inventory
	}
	if err := d.CreateTicketType(ctx, tt); err != nil {
		return err
	}
	fmt.Fprintf(out, "created ticket type %d (%s)\n", tt.ID, tt.Name)
	return nil
}

func loadType(ctx context.Context, d *order_db.DB, raw string) (*models.TicketType, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", errUsage, raw)
	}
	return d.GetTicketType(ctx, d.Conn(), id)
}

func setInventory(ctx context.Context, args []string, d *order_db.DB, out io.Writer) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: set-inventory ID N|unlimited", errUsage)
	}
	tt, err := loadType(ctx, d, args[0])
	if err != nil {
		return err
	}
	if args[1] == "unlimited" {
		tt.TotalInventory = nil
	} else {
		n, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: inventory must be a non-negative integer", errUsage)
		}
		tt.TotalInventory = &n
	}
	if err := d.UpdateTicketType(ctx, tt); err != nil {
		return err
	}
	fmt.Fprintf(out, "ticket type %d inventory set to %s\n", tt.ID, args[1])
	return nil
}

func deactivate(ctx context.Context, args []string, d *order_db.DB, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: deactivate ID", errUsage)
	}
	tt, err := loadType(ctx, d, args[0])
	if err != nil {
		return err
	}
	tt.IsActive = false
	if err := d.UpdateTicketType(ctx, tt); err != nil {
		return err
	}
	fmt.Fprintf(out, "ticket type %d deactivated\n", tt.ID)
	return nil
}

func orderSummary(ctx context.Context, d *order_db.DB, out io.Writer) error {
	rows, err := d.OrderSummary(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tORDERS\tTICKETS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", r.Status, r.Orders, r.Quantity)
	}
	return tw.Flush()
}
