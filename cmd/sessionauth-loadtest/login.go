package main

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/session"
	"github.com/spf13/cobra"
)

type loadUser = sessionauth.UserEntity[sessionauth.Username, int64, struct{}]

// userTable is filled once before the measured phase and read-only after.
type userTable struct {
	mu    sync.RWMutex
	byKey map[sessionauth.Username]loadUser
	byID  map[int64]loadUser
}

func (t *userTable) lookup(_ context.Context, key sessionauth.Username) (loadUser, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, ok := t.byKey[key]
	if !ok {
		return loadUser{}, sessionauth.ErrUserNotFound
	}
	return u, nil
}

func (t *userTable) persist(_ context.Context, e loadUser) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := int64(len(t.byID) + 1)
	u, err := e.AssignID(id)
	if err != nil {
		return 0, err
	}
	t.byKey[e.LoginKey()] = u
	t.byID[id] = u
	return id, nil
}

func loginCmd(g *globalFlags) *cobra.Command {
	var (
		users      int
		bcryptCost int
		missRatio  float64
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Register users, then measure LoginAndCreate and SessionLogin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if users <= 0 {
				return fmt.Errorf("users must be > 0")
			}
			out := func(format string, a ...any) { fmt.Fprintf(cmd.OutOrStdout(), format, a...) }
			ctx := cmd.Context()

			client, cleanup, err := connect(g, out)
			if err != nil {
				return err
			}
			defer cleanup()
			store := session.NewStore(client, g.prefix)

			cfg := sessionauth.DefaultConfig()
			cfg.Password.BcryptCost = bcryptCost
			cfg.Metrics.Enabled = true
			cfg.Metrics.EnableLatencyHistograms = true

			table := &userTable{
				byKey: make(map[sessionauth.Username]loadUser, users),
				byID:  make(map[int64]loadUser, users),
			}
			engine, err := sessionauth.New[sessionauth.Username, int64, struct{}, loadUser]().
				WithConfig(cfg).
				WithLookup(table.lookup).
				Build()
			if err != nil {
				return err
			}
			defer engine.Close()

			out("registering %d users at bcrypt cost %d...\n", users, bcryptCost)
			for i := 0; i < users; i++ {
				if _, err := engine.Register(ctx, credsFor(i), struct{}{}, table.persist); err != nil {
					return fmt.Errorf("register: %w", err)
				}
			}

			create := func(ctx context.Context, s session.Session, id int64) error {
				return store.Create(ctx, s, strconv.FormatInt(id, 10), 0)
			}
			var (
				tokensMu sync.Mutex
				tokens   []session.Session
			)

			login := runPhase(g.ops, g.concurrency, func(r *rand.Rand, _ int) error {
				creds := credsFor(r.Intn(users))
				if r.Float64() < missRatio {
					creds.Password = "wrong"
				}
				s, err := engine.LoginAndCreate(ctx, creds, create)
				if err != nil {
					return err
				}
				tokensMu.Lock()
				tokens = append(tokens, s)
				tokensMu.Unlock()
				return nil
			})

			if len(tokens) == 0 {
				return fmt.Errorf("no successful logins to resolve")
			}
			resolve := func(ctx context.Context, s session.Session) (loadUser, error) {
				raw, err := store.Lookup(ctx, s)
				if err != nil {
					return loadUser{}, err
				}
				id, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return loadUser{}, sessionauth.ErrUserNotFound
				}
				table.mu.RLock()
				defer table.mu.RUnlock()
				u, ok := table.byID[id]
				if !ok {
					return loadUser{}, sessionauth.ErrUserNotFound
				}
				return u, nil
			}
			sessionLogin := runPhase(g.ops, g.concurrency, func(r *rand.Rand, _ int) error {
				_, err := engine.SessionLogin(ctx, tokens[r.Intn(len(tokens))], resolve)
				return err
			})

			out("---- results ----\n")
			printStats(cmd.OutOrStdout(), "login", login)
			printStats(cmd.OutOrStdout(), "session-login", sessionLogin)

			snap := engine.MetricsSnapshot()
			out("engine counters: login_success=%d invalid_credentials=%d session_created=%d\n",
				snap.Counters[sessionauth.MetricLoginSuccess],
				snap.Counters[sessionauth.MetricLoginInvalidCredentials],
				snap.Counters[sessionauth.MetricSessionCreated],
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&users, "users", 1000, "number of users to register")
	cmd.Flags().IntVar(&bcryptCost, "bcrypt-cost", 4, "bcrypt cost used for registration and login")
	cmd.Flags().Float64Var(&missRatio, "miss-ratio", 0.1, "fraction of logins sent with a wrong password")
	return cmd
}

func credsFor(i int) sessionauth.RawCredentials[sessionauth.Username] {
	return sessionauth.RawCredentials[sessionauth.Username]{
		LoginKey: sessionauth.Username("user-" + strconv.Itoa(i)),
		Password: sessionauth.RawPassword("pw-" + strconv.Itoa(i)),
	}
}
