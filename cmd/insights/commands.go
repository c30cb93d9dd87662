// cmd/insights/commands.go
package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/autopo-insights/internal/service"
)

func serviceFrom(c *cli.Context) (*service.InsightsService, error) {
	state, ok := c.Context.Value(stateKey{}).(*appState)
	if !ok || state == nil || state.svc == nil {
		return nil, fmt.Errorf("insights service not initialised")
	}
	return state.svc, nil
}

func writeJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	if c.Bool("pretty") {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func requireArgs(c *cli.Context, name string) (string, error) {
	arg := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if arg == "" {
		return "", fmt.Errorf("%s requires %s", c.Command.Name, name)
	}
	return arg, nil
}

func runReport(c *cli.Context) error {
	svc, err := serviceFrom(c)
	if err != nil {
		return err
	}
	report, err := svc.Report(c.Context)
	if err != nil {
		return err
	}
	return writeJSON(c, report)
}

func runForecast(c *cli.Context) error {
	svc, err := serviceFrom(c)
	if err != nil {
		return err
	}
	res, err := svc.Forecast(c.Context)
	if err != nil {
		return err
	}
	return writeJSON(c, res)
}

func runPricing(c *cli.Context) error {
	svc, err := serviceFrom(c)
	if err != nil {
		return err
	}
	res, err := svc.Pricing(c.Context)
	if err != nil {
		return err
	}
	return writeJSON(c, res)
}

func runAnomalies(c *cli.Context) error {
	svc, err := serviceFrom(c)
	if err != nil {
		return err
	}
	res, err := svc.Anomalies(c.Context)
	if err != nil {
		return err
	}
	return writeJSON(c, res)
}

func runSearch(c *cli.Context) error {
	svc, err := serviceFrom(c)
	if err != nil {
		return err
	}
	// an empty query is allowed and matches nothing
	res, err := svc.Search(c.Context, strings.Join(c.Args().Slice(), " "))
	if err != nil {
		return err
	}
	return writeJSON(c, res)
}

func runRecommend(c *cli.Context) error {
	svc, err := serviceFrom(c)
	if err != nil {
		return err
	}
	itemID, err := requireArgs(c, "ITEM_ID")
	if err != nil {
		return err
	}
	res, err := svc.Recommend(c.Context, itemID)
	if err != nil {
		return err
	}
	return writeJSON(c, res)
}

func runClassify(c *cli.Context) error {
	svc, err := serviceFrom(c)
	if err != nil {
		return err
	}
	name, err := requireArgs(c, "NAME")
	if err != nil {
		return err
	}
	return writeJSON(c, svc.Classify(name, c.String("description")))
}

func runIntent(c *cli.Context) error {
	svc, err := serviceFrom(c)
	if err != nil {
		return err
	}
	return writeJSON(c, svc.ParseIntent(strings.Join(c.Args().Slice(), " ")))
}

func runInvalidateCache(c *cli.Context) error {
	state, ok := c.Context.Value(stateKey{}).(*appState)
	if !ok || state == nil {
		return fmt.Errorf("insights service not initialised")
	}
	if err := state.cache.InvalidateAll(c.Context); err != nil {
		return fmt.Errorf("invalidate report cache: %w", err)
	}
	return writeJSON(c, map[string]bool{"invalidated": true})
}
