package main

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/MrEthical07/sessionauth/session"
	"github.com/spf13/cobra"
)

type seeded struct {
	mu     sync.Mutex
	token  session.Session
	userID string
}

func storeCmd(g *globalFlags) *cobra.Command {
	var (
		sessions int
		users    int
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Seed sessions, then measure lookup and logout/login churn",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessions <= 0 || users <= 0 {
				return fmt.Errorf("sessions and users must be > 0")
			}
			out := func(format string, a ...any) { fmt.Fprintf(cmd.OutOrStdout(), format, a...) }
			ctx := cmd.Context()

			client, cleanup, err := connect(g, out)
			if err != nil {
				return err
			}
			defer cleanup()
			store := session.NewStore(client, g.prefix)

			states := make([]seeded, sessions)
			out("seeding %d sessions over %d users...\n", sessions, users)
			startSeed := time.Now()
			for i := range states {
				s, err := session.New()
				if err != nil {
					return err
				}
				userID := strconv.Itoa(i % users)
				if err := store.Create(ctx, s, userID, ttl); err != nil {
					return fmt.Errorf("seed: %w", err)
				}
				states[i].token = s
				states[i].userID = userID
			}
			out("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

			lookup := runPhase(g.ops, g.concurrency, func(r *rand.Rand, _ int) error {
				st := &states[r.Intn(len(states))]
				st.mu.Lock()
				token := st.token
				st.mu.Unlock()
				_, err := store.Lookup(ctx, token)
				return err
			})

			churn := runPhase(g.ops, g.concurrency, func(r *rand.Rand, _ int) error {
				st := &states[r.Intn(len(states))]
				st.mu.Lock()
				defer st.mu.Unlock()
				if err := store.Remove(ctx, st.token); err != nil {
					return err
				}
				next, err := session.New()
				if err != nil {
					return err
				}
				if err := store.Create(ctx, next, st.userID, ttl); err != nil {
					return err
				}
				st.token = next
				return nil
			})

			out("---- results ----\n")
			printStats(cmd.OutOrStdout(), "lookup", lookup)
			printStats(cmd.OutOrStdout(), "churn", churn)
			return nil
		},
	}

	cmd.Flags().IntVar(&sessions, "sessions", 100000, "number of sessions to seed")
	cmd.Flags().IntVar(&users, "users", 10000, "number of distinct users the sessions belong to")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "store TTL per session; 0 disables expiry")
	return cmd
}
