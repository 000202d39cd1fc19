package main

import (
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agothe/agothe/core/archive"
	"github.com/agothe/agothe/core/environment"
	"github.com/agothe/agothe/webui"
	"github.com/joho/godotenv"
	"github.com/mudler/xlog"
	"github.com/robfig/cron/v3"
)

var (
	listenAddr        = os.Getenv("AGOTHE_LISTEN_ADDR")
	agentCount        = os.Getenv("AGOTHE_AGENT_COUNT")
	seed              = os.Getenv("AGOTHE_SEED")
	apiKeysEnv        = os.Getenv("AGOTHE_API_KEYS")
	evolutionSchedule = os.Getenv("AGOTHE_EVOLUTION_SCHEDULE")
	evolutionGens     = os.Getenv("AGOTHE_EVOLUTION_GENERATIONS")
	evolutionRate     = os.Getenv("AGOTHE_EVOLUTION_MUTATION_RATE")
)

func init() {
	_ = godotenv.Load()

	if listenAddr == "" {
		listenAddr = ":3000"
	}
	if agentCount == "" {
		agentCount = "6"
	}
	if evolutionGens == "" {
		evolutionGens = "3"
	}
	if evolutionRate == "" {
		evolutionRate = "0.1"
	}
}

func main() {
	count, err := strconv.Atoi(agentCount)
	if err != nil {
		panic("AGOTHE_AGENT_COUNT is not a number: " + agentCount)
	}

	rngSeed := time.Now().UnixNano()
	if seed != "" {
		rngSeed, err = strconv.ParseInt(seed, 10, 64)
		if err != nil {
			panic("AGOTHE_SEED is not a number: " + seed)
		}
	}

	alignment, err := archive.New("agent-intents")
	if err != nil {
		panic(err)
	}

	env, err := environment.New(
		environment.WithAgentCount(count),
		environment.WithRand(rand.New(rand.NewSource(rngSeed))),
		environment.WithArchive(alignment),
	)
	if err != nil {
		panic(err)
	}

	apiKeys := []string{}
	if apiKeysEnv != "" {
		apiKeys = strings.Split(apiKeysEnv, ",")
	}

	app := webui.NewApp(
		webui.WithEnvironment(env),
		webui.WithApiKeys(apiKeys...),
	)

	if evolutionSchedule != "" {
		generations, err := strconv.Atoi(evolutionGens)
		if err != nil {
			panic("AGOTHE_EVOLUTION_GENERATIONS is not a number: " + evolutionGens)
		}
		mutationRate, err := strconv.ParseFloat(evolutionRate, 64)
		if err != nil {
			panic("AGOTHE_EVOLUTION_MUTATION_RATE is not a number: " + evolutionRate)
		}

		scheduler := cron.New()
		_, err = scheduler.AddFunc(evolutionSchedule, func() {
			if _, err := env.RunEvolution(generations, mutationRate); err != nil {
				xlog.Error("Scheduled evolution failed", "error", err)
			}
		})
		if err != nil {
			panic("invalid AGOTHE_EVOLUTION_SCHEDULE: " + err.Error())
		}
		scheduler.Start()
		xlog.Info("Evolution scheduler started", "schedule", evolutionSchedule)
	}

	xlog.Info("Starting web server", "addr", listenAddr, "agents", count)
	log.Fatal(app.Listen(listenAddr))
}
