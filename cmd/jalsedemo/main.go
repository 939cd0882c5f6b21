// Command jalsedemo drives a small entity tree through a handful of
// simulation ticks against a fork-join engine, logging each worker's
// health at debug level as it changes and optionally serving the
// process's Prometheus metrics over HTTP.
package main

import (
	"fmt"
	"net/http"
	"os"
	"reflect"
	"time"

	"oss.jalse.dev/jalse/action"
	"oss.jalse.dev/jalse/cli"
	"oss.jalse.dev/jalse/engineconfig"
	"oss.jalse.dev/jalse/entity"
	"oss.jalse.dev/jalse/l3"
	"oss.jalse.dev/jalse/metrics"
)

var log = l3.Get()

var healthType = reflect.TypeOf(int(0))

func main() {
	app := cli.NewCLI()
	app.AddVersion("0.1.0")
	app.AddCommand(runCommand())
	if err := app.Execute(); err != nil {
		log.ErrorF("jalsedemo: %v", err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	cmd := cli.NewCommand("run", "run a short entity-tree simulation", "0.1.0", runAction)
	cmd.Flags = append(cmd.Flags,
		&cli.Flag{Name: "ticks", Usage: "number of simulation ticks to run", Default: "5"},
		&cli.Flag{Name: "config", Usage: "path to a YAML engineconfig file", Default: ""},
		&cli.Flag{Name: "metrics-addr", Usage: "address to serve /metrics on, empty disables it", Default: ""},
	)
	return cmd
}

func runAction(ctx *cli.Context) error {
	ticks := 5
	if v, ok := ctx.GetFlag("ticks"); ok && v != "" {
		fmt.Sscanf(v, "%d", &ticks)
	}
	configPath, _ := ctx.GetFlag("config")

	cfg, err := engineconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading engineconfig: %w", err)
	}

	if addr, ok := ctx.GetFlag("metrics-addr"); ok && addr != "" {
		go serveMetrics(addr)
	}

	engine, err := action.NewForkJoinEngine[entity.Entity](cfg.CommonEngineParallelism)
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}
	defer func() {
		if err := engine.Stop(); err != nil {
			log.WarnF("engine stop: %v", err)
		}
	}()
	engine.SetRecorder(metrics.NewRecorder("forkjoin"))

	factory := entity.NewEntityFactory(cfg.FactoryEntityLimit, engine)
	factory.SetRecorder(metrics.NewRecorder("demo"))

	world := entity.NewEntitySet(factory)

	colony, err := world.NewEntity()
	if err != nil {
		return fmt.Errorf("creating colony: %w", err)
	}
	colony.MarkAsType("colony")

	for i := 0; i < 3; i++ {
		worker, err := colony.NewEntity()
		if err != nil {
			return fmt.Errorf("creating worker: %w", err)
		}
		worker.MarkAsType("worker")
		worker.SetAttribute("health", healthType, 100)
		tick := i
		if _, err := worker.ScheduleAction(action.ActionFunc[entity.Entity](func(actx action.ActionContext[entity.Entity]) error {
			return tickWorker(actx, tick)
		})); err != nil {
			return fmt.Errorf("scheduling worker action: %w", err)
		}
	}

	log.InfoF("jalsedemo: running %d ticks with %d worker entities", ticks, len(colony.GetEntityIDs()))
	for i := 0; i < ticks; i++ {
		time.Sleep(50 * time.Millisecond)
		log.InfoF("tick %d: %d entities alive in colony", i, len(colony.GetEntityIDs()))
	}
	return nil
}

// tickWorker decrements the acting entity's health attribute by one
// per occurrence and kills it once health reaches zero.
func tickWorker(actx action.ActionContext[entity.Entity], workerIndex int) error {
	actor, ok := actx.Actor()
	if !ok {
		return nil
	}
	health, _ := actor.GetAttribute("health", healthType)
	h, _ := health.(int)
	h--
	actor.SetAttribute("health", healthType, h)
	actor.FireAttributeChanged("health", healthType)
	log.DebugF("worker %d health now %d", workerIndex, h)
	if h <= 0 {
		return actor.Kill()
	}
	if err := actx.SetPeriod(20 * time.Millisecond); err != nil {
		return err
	}
	return nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	log.InfoF("jalsedemo: serving metrics on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.ErrorF("metrics server: %v", err)
	}
}
