package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/plateworks/moab-session/api"
	"github.com/plateworks/moab-session/internal/bonsai"
	"github.com/plateworks/moab-session/internal/brain"
	"github.com/plateworks/moab-session/internal/db"
	"github.com/plateworks/moab-session/internal/envcfg"
	"github.com/plateworks/moab-session/internal/policy"
	"github.com/plateworks/moab-session/internal/session"
	"github.com/plateworks/moab-session/internal/sim"
	"github.com/plateworks/moab-session/internal/version"
)

var (
	listen      = flag.String("listen", ":8080", "Monitoring API listen address (empty to disable)")
	dbFile      = flag.String("db", "moab_session.db", "Path to the step recording database (empty to disable)")
	envFile     = flag.String("env", ".env", "Path to the credentials .env file")
	simName     = flag.String("name", "moab-py-v5", "Simulator interface name")
	seed        = flag.Int64("seed", 0, "Physics noise seed (0 seeds from the clock)")
	testPolicy  = flag.String("test-policy", "", "Run episodes locally with a fixed selector policy (random or coast) instead of connecting to the orchestrator")
	episodes    = flag.Int("episodes", 10, "Episodes to run in test-policy mode")
	iterations  = flag.Int("iterations", 5, "Iterations per episode in test-policy mode")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

// registrationTimeout is advertised to the orchestrator as the longest
// gap it should expect between advance calls, in seconds.
const registrationTimeout = 60

func newSession(cfg envcfg.Config, store *db.Store) *session.Session {
	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	model := sim.NewMoabModel(s)

	c1 := brain.NewHTTPPredictor(cfg.ConceptOneURL, nil)
	c2 := brain.NewHTTPPredictor(cfg.ConceptTwoURL, nil)
	arbiter := session.NewArbiter(c1, c2)

	var rec session.Recorder
	if store != nil {
		rec = store
	}
	return session.New(*simName, model, arbiter, rec)
}

// runTestPolicy drives the session locally with a fixed selector policy,
// no orchestrator involved. The concept predictors still have to be
// reachable: the policy only picks which one answers.
func runTestPolicy(ctx context.Context, sess *session.Session, name string) error {
	pol, err := policy.ByName(name, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return err
	}

	for episode := 0; episode < *episodes; episode++ {
		sess.EpisodeStart(nil)
		for iteration := 0; iteration < *iterations; iteration++ {
			state := sess.State()
			if err := sess.EpisodeStep(ctx, pol(state.Map())); err != nil {
				return fmt.Errorf("episode %d iteration %d: %w", episode, iteration, err)
			}
			log.Printf("episode %d iteration %d: ball=(%.4f, %.4f) halted=%v",
				episode, iteration, state.BallX, state.BallY, sess.Halted())
		}
		sess.EpisodeFinish()
	}
	return nil
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String())
		return
	}
	log.Printf("moab-session %s starting", version.String())

	// Credentials are only needed when talking to the orchestrator;
	// a test-policy run skips the first-run prompts.
	var stdin io.Reader = os.Stdin
	if *testPolicy != "" {
		stdin = nil
	}
	cfg, err := envcfg.Load(*envFile, stdin, os.Stdout)
	if err != nil {
		log.Fatalf("failed to load environment: %v", err)
	}

	var store *db.Store
	if *dbFile != "" {
		store, err = db.Open(*dbFile)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer store.Close()
		runID, err := store.BeginRun(*simName)
		if err != nil {
			log.Fatalf("failed to start run: %v", err)
		}
		log.Printf("recording run %s to %s", runID, *dbFile)
	}

	sess := newSession(cfg, store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Monitoring API goroutine; the session loop itself stays on the
	// main goroutine.
	var wg sync.WaitGroup
	if *listen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()

			mux := http.NewServeMux()
			apiMux := api.NewServer(sess, store).ServeMux()
			mux.Handle("/api/", http.StripPrefix("/api", apiMux))

			server := &http.Server{Addr: *listen, Handler: mux}
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("failed to start server: %v", err)
				}
			}()

			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("HTTP server shutdown error: %v", err)
			}
		}()
	}

	if *testPolicy != "" {
		if err := runTestPolicy(ctx, sess, *testPolicy); err != nil {
			log.Printf("test policy run failed: %v", err)
		}
		stop()
		wg.Wait()
		return
	}

	client := bonsai.NewClient(cfg.APIHost, cfg.Workspace, cfg.AccessKey, nil)
	iface := session.SimulatorInterface{Name: *simName, Timeout: registrationTimeout}

	outcome := session.Run(ctx, client, sess, iface)
	stop()
	wg.Wait()

	switch outcome.Kind {
	case session.OutcomeUnregistered:
		log.Print("session unregistered by orchestrator")
	case session.OutcomeInterrupted:
		log.Print("session interrupted, unregistered cleanly")
	case session.OutcomeFailed:
		log.Printf("session failed: %v", outcome.Err)
		os.Exit(1)
	}
}
