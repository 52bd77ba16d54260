package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/example/shopdesk/pkg/discovery"
	"github.com/example/shopdesk/pkg/grpc"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

const defaultTokenTTL = 12 * time.Hour

// withOrderClient connects to the order service, resolving it through etcd
// when endpoints are configured, and runs fn with a client.
func withOrderClient(c *cli.Context, fn func(*grpc.OrderAdminClient) (proto.Message, error)) error {
	e, err := load(c)
	if err != nil {
		return err
	}

	var sd *discovery.ServiceDiscovery
	if len(e.cfg.Etcd.Endpoints) > 0 {
		sd, err = discovery.NewServiceDiscovery(&e.cfg.Etcd, e.logger)
		if err != nil {
			e.logger.Warn("Service discovery unavailable", zap.Error(err))
			sd = nil
		} else {
			defer sd.Close()
		}
	}

	manager := grpc.NewClientManager(e.cfg, e.logger, sd)
	if err := manager.Connect(c.Context, c.String("token")); err != nil {
		return err
	}
	defer manager.Close()

	out, err := fn(manager.OrderClient())
	if err != nil {
		return err
	}
	raw, err := protojson.MarshalOptions{Multiline: true}.Marshal(out)
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

func orderID(c *cli.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("expected an order id, got %q", c.Args().First())
	}
	return id, nil
}

func byIDCommand(name, usage string, call func(*grpc.OrderAdminClient, *cli.Context, uint64) (proto.Message, error)) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "ORDER_ID",
		Action: func(c *cli.Context) error {
			id, err := orderID(c)
			if err != nil {
				return err
			}
			return withOrderClient(c, func(client *grpc.OrderAdminClient) (proto.Message, error) {
				return call(client, c, id)
			})
		},
	}
}

func orderCommand() *cli.Command {
	return &cli.Command{
		Name:  "order",
		Usage: "inspect and move orders through the order service",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "token", EnvVars: []string{"SHOPDESK_TOKEN"}, Usage: "bearer token sent to the order service"},
		},
		Subcommands: []*cli.Command{
			byIDCommand("show", "show an order with priced lines", func(client *grpc.OrderAdminClient, c *cli.Context, id uint64) (proto.Message, error) {
				return client.GetOrder(c.Context, id)
			}),
			byIDCommand("deliver", "mark an order delivered", func(client *grpc.OrderAdminClient, c *cli.Context, id uint64) (proto.Message, error) {
				return client.DeliverOrder(c.Context, id)
			}),
			byIDCommand("cancel", "cancel an order", func(client *grpc.OrderAdminClient, c *cli.Context, id uint64) (proto.Message, error) {
				return client.CancelOrder(c.Context, id)
			}),
			{
				Name:  "list",
				Usage: "list orders, newest first",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "user"},
					&cli.StringFlag{Name: "status"},
					&cli.IntFlag{Name: "limit", Value: 50},
				},
				Action: func(c *cli.Context) error {
					filter := map[string]interface{}{"limit": c.Int("limit")}
					if c.IsSet("user") {
						filter["user_id"] = c.Uint64("user")
					}
					if s := c.String("status"); s != "" {
						filter["status"] = s
					}
					return withOrderClient(c, func(client *grpc.OrderAdminClient) (proto.Message, error) {
						return client.ListOrders(c.Context, filter)
					})
				},
			},
		},
	}
}
