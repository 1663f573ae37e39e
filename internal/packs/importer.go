package packs

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Aramushaa/LingoDojo/internal/database"
	"github.com/Aramushaa/LingoDojo/pkg/models"
)

const defaultChunkSize = 3

// ImportResult holds the outcome of an import run
type ImportResult struct {
	PacksImported  int
	ItemsProcessed int
	ItemsImported  int
	Errors         []string
}

// packFile is the on-disk JSON shape: pack metadata plus its items
type packFile struct {
	models.Pack
	Items []models.Item `json:"items"`
}

// XLSXConfig describes how to read a spreadsheet pack. Every row becomes one
// item; pack metadata comes from the config, not the sheet.
type XLSXConfig struct {
	FilePath          string
	PackID            string
	TargetLanguage    string
	Level             string
	Title             string
	TermColumn        string
	TranslationColumn string
	FocusColumn       string
	PhaseColumn       string
	RiskColumn        string
	ContextColumn     string
	SheetName         string
	StartRow          int // 1-based; default skips a header row
}

// DefaultXLSXConfig returns the column layout packs are normally authored in
func DefaultXLSXConfig(path, packID string) XLSXConfig {
	return XLSXConfig{
		FilePath:          path,
		PackID:            packID,
		TargetLanguage:    "it",
		Level:             models.LevelA1,
		Title:             packID,
		TermColumn:        "A",
		TranslationColumn: "B",
		FocusColumn:       "C",
		PhaseColumn:       "D",
		RiskColumn:        "E",
		ContextColumn:     "F",
		SheetName:         "Sheet1",
		StartRow:          2,
	}
}

// ImportDir loads every *.json pack under dir. A missing directory is not an
// error: the bot just starts with whatever was imported before.
func ImportDir(ctx context.Context, dir string, log *zap.Logger) (*ImportResult, error) {
	result := &ImportResult{Errors: make([]string, 0)}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		log.Info("pack directory missing, skipping import", zap.String("dir", dir))
		return result, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			return nil
		}
		sub, err := ImportJSON(ctx, path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", d.Name(), err))
			log.Warn("pack import failed", zap.String("file", path), zap.Error(err))
			return nil
		}
		result.PacksImported += sub.PacksImported
		result.ItemsProcessed += sub.ItemsProcessed
		result.ItemsImported += sub.ItemsImported
		result.Errors = append(result.Errors, sub.Errors...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk pack directory: %v", err)
	}

	log.Info("packs imported",
		zap.Int("packs", result.PacksImported),
		zap.Int("items", result.ItemsImported),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

// ImportJSON imports a single JSON pack file
func ImportJSON(ctx context.Context, path string) (*ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pack file: %v", err)
	}

	var pf packFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse pack file: %v", err)
	}
	if pf.Pack.ID == "" {
		return nil, fmt.Errorf("pack file has no id")
	}
	if pf.Pack.ChunkSize <= 0 {
		pf.Pack.ChunkSize = defaultChunkSize
	}

	repo := database.NewItemRepository()
	result := &ImportResult{Errors: make([]string, 0)}

	if err := repo.UpsertPack(ctx, &pf.Pack); err != nil {
		return nil, err
	}
	result.PacksImported++

	for i := range pf.Items {
		result.ItemsProcessed++
		item := pf.Items[i]
		item.PackID = pf.Pack.ID
		if err := importItem(ctx, repo, &item); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("item %d: %v", i+1, err))
			continue
		}
		result.ItemsImported++
	}
	return result, nil
}

// ImportXLSX imports a spreadsheet pack using the configured column layout
func ImportXLSX(ctx context.Context, config XLSXConfig) (*ImportResult, error) {
	if config.PackID == "" {
		return nil, fmt.Errorf("pack id is required")
	}

	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	repo := database.NewItemRepository()
	result := &ImportResult{Errors: make([]string, 0)}

	pack := &models.Pack{
		ID:             config.PackID,
		TargetLanguage: config.TargetLanguage,
		Level:          config.Level,
		Title:          config.Title,
		ChunkSize:      defaultChunkSize,
	}
	if err := repo.UpsertPack(ctx, pack); err != nil {
		return nil, err
	}
	result.PacksImported++

	startRow := config.StartRow
	if startRow < 1 {
		startRow = 1
	}
	for i, row := range rows {
		if i < startRow-1 {
			continue
		}
		result.ItemsProcessed++

		item := &models.Item{
			PackID:          config.PackID,
			Term:            cell(row, config.TermColumn),
			Translation:     cell(row, config.TranslationColumn),
			Focus:           strings.ToLower(cell(row, config.FocusColumn)),
			Phase:           cell(row, config.PhaseColumn),
			Risk:            cell(row, config.RiskColumn),
			ContextSentence: cell(row, config.ContextColumn),
		}
		if err := importItem(ctx, repo, item); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.ItemsImported++
	}
	return result, nil
}

// importItem validates and upserts a single item
func importItem(ctx context.Context, repo *database.ItemRepository, item *models.Item) error {
	item.Term = strings.TrimSpace(item.Term)
	item.Translation = strings.TrimSpace(item.Translation)

	if item.Term == "" {
		return fmt.Errorf("term cannot be empty")
	}
	if item.Translation == "" {
		return fmt.Errorf("translation cannot be empty")
	}
	switch item.Focus {
	case models.FocusWord, models.FocusPhrase:
	case "":
		item.Focus = models.FocusWord
	default:
		return fmt.Errorf("unknown focus %q", item.Focus)
	}
	return repo.UpsertItem(ctx, item)
}

// cell returns the value of an Excel-lettered column within a row, or ""
func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	idx := columnToIndex(column)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	index := 0
	for i := 0; i < len(column); i++ {
		c := column[i]
		if c < 'A' || c > 'Z' {
			return -1
		}
		index = index*26 + int(c-'A'+1)
	}
	return index - 1
}
