package main

import (
	"context"
	"fmt"

	"github.com/rakunlabs/into"
	"github.com/rakunlabs/logi"

	"github.com/rakunlabs/flow"
	"github.com/rakunlabs/flow/flow/components"
	"github.com/rakunlabs/flow/flow/trigger"
	"github.com/rakunlabs/flow/variant"
)

var (
	name    = "flowdemo"
	version = "v0.0.0"
)

func main() {
	into.Init(run,
		into.WithLogger(logi.InitializeLog(logi.WithCaller(false))),
		into.WithMsgf("%s [%s]", name, version),
	)
}

func run(ctx context.Context) error {
	cfg, err := loadConfig(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	f, global := buildDemoFlow()

	if cfg.Schedule == "" {
		if _, err := f.Run(ctx, global); err != nil {
			return fmt.Errorf("flow run failed: %w", err)
		}
		return nil
	}

	driver := &trigger.CronDriver{
		Name:     name,
		Schedule: cfg.Schedule,
		NewFlow:  buildDemoFlow,
	}
	if err := driver.Start(ctx); err != nil {
		return fmt.Errorf("start cron driver: %w", err)
	}
	defer driver.Stop()

	<-ctx.Done()
	return nil
}

// buildDemoFlow assembles a small greeting flow: two entry Messages feed a
// Log component that passes everything through. It exists to give the
// ambient stack (config/logging/telemetry/lifecycle) a concrete flow to
// drive, the same role cmd/at's conversation loop plays for the teacher's
// agent package.
func buildDemoFlow() (*flow.Flow, *flow.GlobalBag) {
	f := flow.NewFlow()

	hello := &components.Message{Port: 0, Value: variant.String("Hello")}
	world := &components.Message{Port: 0, Value: variant.String("World")}
	logger := &components.Log{In: 0, Out: 0, Level: "info", Message: "{{ . }}"}

	mustAddComponent(f, 1, hello)
	mustAddComponent(f, 2, world)
	mustAddComponent(f, 3, logger)

	mustAddConnection(f, 1, 0, 3, 0)
	mustAddConnection(f, 2, 0, 3, 0)

	return f, flow.NewGlobalBag()
}

func mustAddComponent(f *flow.Flow, id flow.ComponentID, c flow.Component) {
	if err := f.AddComponent(id, c); err != nil {
		panic(fmt.Sprintf("flowdemo: build flow: %v", err))
	}
}

func mustAddConnection(f *flow.Flow, fromID flow.ComponentID, outPort flow.PortID, toID flow.ComponentID, inPort flow.PortID) {
	if err := f.AddConnection(fromID, outPort, toID, inPort); err != nil {
		panic(fmt.Sprintf("flowdemo: build flow: %v", err))
	}
}
