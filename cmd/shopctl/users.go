package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/example/shopdesk/pkg/auth"
	"github.com/example/shopdesk/pkg/models"
	"github.com/example/shopdesk/pkg/repository"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create or update the MySQL schema",
		Action: func(c *cli.Context) error {
			e, err := load(c)
			if err != nil {
				return err
			}
			db, err := repository.NewMySQL(&e.cfg.MySQL)
			if err != nil {
				return err
			}
			if err := repository.Migrate(db); err != nil {
				return err
			}
			e.logger.Info("Schema migrated", zap.String("database", e.cfg.MySQL.Database))
			return nil
		},
	}
}

func userRepository(c *cli.Context) (*repository.UserRepository, *env, error) {
	e, err := load(c)
	if err != nil {
		return nil, nil, err
	}
	db, err := repository.NewMySQL(&e.cfg.MySQL)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewUserRepository(db), e, nil
}

func capabilityFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Uint64Flag{Name: "user", Required: true, Usage: "user id"},
		&cli.StringSliceFlag{Name: "capability", Required: true, Usage: "capability name, repeatable"},
	}
}

func parseCapabilities(names []string) ([]auth.Capability, error) {
	caps := make([]auth.Capability, 0, len(names))
	for _, name := range names {
		capability, err := auth.ParseCapability(name)
		if err != nil {
			return nil, err
		}
		caps = append(caps, capability)
	}
	return caps, nil
}

func userCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "manage back-office users and their capabilities",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "create a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "phone"},
					&cli.BoolFlag{Name: "superuser"},
				},
				Action: func(c *cli.Context) error {
					users, _, err := userRepository(c)
					if err != nil {
						return err
					}
					user := &models.User{
						Name:      c.String("name"),
						Email:     c.String("email"),
						Phone:     c.String("phone"),
						Superuser: c.Bool("superuser"),
					}
					if err := users.CreateUser(c.Context, user); err != nil {
						return err
					}
					return printJSON(user)
				},
			},
			{
				Name:  "grant",
				Usage: "grant capabilities to a user",
				Flags: capabilityFlags(),
				Action: func(c *cli.Context) error {
					return changeGrants(c, true)
				},
			},
			{
				Name:  "revoke",
				Usage: "revoke capabilities from a user",
				Flags: capabilityFlags(),
				Action: func(c *cli.Context) error {
					return changeGrants(c, false)
				},
			},
			{
				Name:  "capabilities",
				Usage: "list known capability names",
				Action: func(c *cli.Context) error {
					for _, capability := range auth.Capabilities() {
						fmt.Println(capability)
					}
					return nil
				},
			},
		},
	}
}

func changeGrants(c *cli.Context, grant bool) error {
	caps, err := parseCapabilities(c.StringSlice("capability"))
	if err != nil {
		return err
	}
	users, e, err := userRepository(c)
	if err != nil {
		return err
	}

	userID := c.Uint64("user")
	if ok, err := users.UserExists(c.Context, userID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %d", models.ErrUserNotFound, userID)
	}

	for _, capability := range caps {
		if grant {
			err = users.Grant(c.Context, userID, capability.String())
		} else {
			err = users.Revoke(c.Context, userID, capability.String())
		}
		if err != nil {
			return err
		}
		e.logger.Info("Capability changed",
			zap.Uint64("user_id", userID),
			zap.Stringer("capability", capability),
			zap.Bool("granted", grant))
	}
	return nil
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue a bearer token for a user",
		Flags: []cli.Flag{
			&cli.Uint64Flag{Name: "user", Required: true},
			&cli.DurationFlag{Name: "ttl", Value: defaultTokenTTL},
		},
		Action: func(c *cli.Context) error {
			e, err := load(c)
			if err != nil {
				return err
			}
			tokens, err := auth.NewTokenVerifier(e.cfg.Auth.JWTSecret, e.cfg.Auth.Issuer)
			if err != nil {
				return err
			}
			token, err := tokens.Issue(c.Uint64("user"), c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
