package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"turnero/internal/database"
	"turnero/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// One-off importer: loads a patient roster from YAML into the sqlite
// database. Existing IDs are upserted.
type RosterConfig struct {
	Patients []models.PatientProfile `yaml:"patients"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		rosterPath = flag.String("roster", "configs/patients.yaml", "path to patients.yaml")
		dbPath     = flag.String("db", "./data/turnero.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*rosterPath)
	if err != nil {
		return fmt.Errorf("read roster: %w", err)
	}

	var roster RosterConfig
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return fmt.Errorf("parse roster: %w", err)
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	imported := 0
	for i := range roster.Patients {
		p := &roster.Patients[i]
		p.FirstName = strings.TrimSpace(p.FirstName)
		p.LastName = strings.TrimSpace(p.LastName)
		if p.FirstName == "" && p.LastName == "" {
			logger.Warn().Int("index", i).Msg("skipping unnamed patient")
			continue
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if err := db.SavePatient(ctx, p); err != nil {
			return fmt.Errorf("save patient %s: %w", p.FullName(), err)
		}
		imported++
	}

	logger.Info().Int("imported", imported).Msg("roster import complete")
	return nil
}
