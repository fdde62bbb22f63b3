// Command slotgen generates the slot list of one day from a YAML schedule
// file without touching the database.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"slotdesk/internal/export"
	"slotdesk/internal/models"
	"slotdesk/internal/slots"

	"gopkg.in/yaml.v3"
)

type scheduleFile struct {
	Timezone string                `yaml:"timezone"`
	Settings models.SlotSettings   `yaml:"settings"`
	Days     models.WeeklySchedule `yaml:"days"`
}

type output struct {
	Date  string            `json:"date"`
	Slots []models.TimeSlot `json:"slots"`
	Stats models.SlotStats  `json:"stats"`
}

func main() {
	configPath := flag.String("config", "configs/schedule.example.yaml", "YAML file with settings and days")
	dateRaw := flag.String("date", "", "day to generate, YYYY-MM-DD (default today)")
	nowRaw := flag.String("now", "", "reference time, RFC3339 (default current time)")
	xlsxDir := flag.String("xlsx", "", "write an .xlsx workbook into this directory instead of printing JSON")
	flag.Parse()

	if err := run(*configPath, *dateRaw, *nowRaw, *xlsxDir); err != nil {
		log.Fatalf("slotgen: %v", err)
	}
}

func run(configPath, dateRaw, nowRaw, xlsxDir string) error {
	file, err := loadScheduleFile(configPath)
	if err != nil {
		return err
	}

	loc := time.UTC
	if file.Timezone != "" {
		if loc, err = time.LoadLocation(file.Timezone); err != nil {
			return fmt.Errorf("timezone %q: %w", file.Timezone, err)
		}
	}

	now := time.Now().In(loc)
	if nowRaw != "" {
		if now, err = time.Parse(time.RFC3339, nowRaw); err != nil {
			return fmt.Errorf("parse -now: %w", err)
		}
	}

	date := now
	if dateRaw != "" {
		if date, err = time.ParseInLocation(models.DateLayout, dateRaw, loc); err != nil {
			return fmt.Errorf("parse -date: %w", err)
		}
	}

	list, err := slots.Generate(date, file.Days, file.Settings, now)
	if err != nil {
		return err
	}

	if xlsxDir != "" {
		board := &models.Board{Date: date.Format(models.DateLayout), GeneratedAt: now, Slots: list}
		path, err := export.SaveDayWorkbook(xlsxDir, board)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output{
		Date:  date.Format(models.DateLayout),
		Slots: list,
		Stats: slots.ComputeStats(list),
	})
}

func loadScheduleFile(path string) (scheduleFile, error) {
	file := scheduleFile{Settings: models.DefaultSlotSettings()}

	data, err := os.ReadFile(path)
	if err != nil {
		return file, err
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &file); err != nil {
		return file, fmt.Errorf("parse %s: %w", path, err)
	}
	return file, nil
}
