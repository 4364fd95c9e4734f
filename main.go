package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nissyi-gh/taskdeck/internal/config"
	"github.com/nissyi-gh/taskdeck/internal/importer"
	"github.com/nissyi-gh/taskdeck/internal/offline"
	"github.com/nissyi-gh/taskdeck/internal/remote"
	"github.com/nissyi-gh/taskdeck/internal/repo"
	"github.com/nissyi-gh/taskdeck/internal/syncer"
	"github.com/nissyi-gh/taskdeck/internal/ui"
)

func main() {
	importPath := flag.String("import", "", "import tasks from a YAML file and exit")
	configPath := flag.String("config", "", "config file path")
	flag.Parse()

	if err := run(*importPath, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(importPath, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cache, err := offline.Open(cfg.OfflineDB)
	if err != nil {
		return fmt.Errorf("open offline store: %w", err)
	}
	defer cache.Close()

	client := remote.NewClient(cfg.RemoteURL, cfg.Owner)

	tasks := repo.NewTasks(client, cache, cfg.Owner)
	defer tasks.Close()
	sections := repo.NewSections(client, cache, cfg.Owner)
	defer sections.Close()
	projects := repo.NewProjects(client, cache, cfg.Owner)
	defer projects.Close()
	reminders := repo.NewReminders(client, cfg.Owner)
	defer reminders.Close()

	// every reconnect drains the offline queue, then re-fetches
	coord := syncer.New(cache, client)
	client.OnReachabilityChange(func(online bool) {
		if !online {
			return
		}
		go func() {
			ctx := context.Background()
			if res, err := coord.Sync(ctx); err != nil {
				log.Printf("sync: %v", err)
			} else if res.Failed > 0 || res.Skipped > 0 {
				log.Printf("sync: %d synced, %d failed, %d held back", res.Synced, res.Failed, res.Skipped)
			}
			_ = tasks.Refresh(ctx)
			_ = sections.Refresh(ctx)
			_ = projects.Refresh(ctx)
			_ = reminders.Refresh(ctx)
		}()
	})

	client.Start(time.Duration(cfg.PollInterval) * time.Second)
	defer client.Stop()

	ctx := context.Background()
	if err := tasks.Load(ctx); err != nil {
		return err
	}
	if err := sections.Load(ctx); err != nil {
		return err
	}
	if err := projects.Load(ctx); err != nil {
		return err
	}
	// reminders are remote-only; offline startup just shows none
	_ = reminders.Refresh(ctx)

	if importPath != "" {
		data, err := os.ReadFile(importPath)
		if err != nil {
			return fmt.Errorf("read import file: %w", err)
		}
		n, err := importer.Import(ctx, tasks, sections, projects, string(data))
		if err != nil {
			return err
		}
		fmt.Printf("imported %d tasks\n", n)
		return nil
	}

	p := tea.NewProgram(ui.NewModel(tasks, sections, projects, reminders, cache, client), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}
