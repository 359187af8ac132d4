// Command sessionauth-loadtest drives the Redis session store and the login
// path with concurrent workers and prints latency percentiles per phase.
package main

import (
	"fmt"
	"os"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	redisAddr   string
	prefix      string
	concurrency int
	ops         int
}

func main() {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:           "sessionauth-loadtest",
		Short:         "Load generator for sessionauth session storage and login",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.concurrency <= 0 || g.ops <= 0 {
				return fmt.Errorf("concurrency and ops must be > 0")
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&g.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	rootCmd.PersistentFlags().StringVar(&g.prefix, "prefix", "lt", "session key prefix")
	rootCmd.PersistentFlags().IntVar(&g.concurrency, "concurrency", 256, "number of concurrent workers")
	rootCmd.PersistentFlags().IntVar(&g.ops, "ops", 200000, "operations per phase")

	rootCmd.AddCommand(
		storeCmd(&g),
		loginCmd(&g),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

// connect returns a client for the configured Redis, starting miniredis when
// no address is known.
func connect(g *globalFlags, out func(format string, args ...any)) (redis.UniversalClient, func(), error) {
	addr := g.redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		out("using miniredis at %s\n", mr.Addr())
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	out("using redis at %s\n", addr)
	return client, func() { _ = client.Close() }, nil
}
